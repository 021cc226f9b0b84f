package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Domenick1991/railbooking/api"
	"github.com/Domenick1991/railbooking/config"
	reservationapi "github.com/Domenick1991/railbooking/internal/api/reservation_service_api"
	schedulesapi "github.com/Domenick1991/railbooking/internal/api/schedules_service_api"
	"github.com/Domenick1991/railbooking/internal/auth"
	"github.com/Domenick1991/railbooking/internal/bootstrap"
	"github.com/Domenick1991/railbooking/internal/cache"
	"github.com/Domenick1991/railbooking/internal/gateway"
	"github.com/Domenick1991/railbooking/internal/kafka"
	"github.com/Domenick1991/railbooking/internal/logger"
	"github.com/Domenick1991/railbooking/internal/repository"
	"github.com/Domenick1991/railbooking/internal/repository/memory"
	"github.com/Domenick1991/railbooking/internal/service/cancellation"
	"github.com/Domenick1991/railbooking/internal/service/events"
	"github.com/Domenick1991/railbooking/internal/service/history"
	"github.com/Domenick1991/railbooking/internal/service/payment"
	"github.com/Domenick1991/railbooking/internal/service/report"
	"github.com/Domenick1991/railbooking/internal/service/reservation"
	"github.com/Domenick1991/railbooking/internal/service/schedule"
	"github.com/Domenick1991/railbooking/internal/service/ticket"
	"github.com/Domenick1991/railbooking/internal/telemetry"
)

type storage struct {
	ledger    repository.LedgerRepository
	schedules repository.ScheduleRepository
	travelers repository.TravelerRepository
	history   repository.HistoryRepository
	reports   repository.ReportRepository
	close     func()
}

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logger.New(cfg.Log)
	if log.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		log.WithError(err).Fatal("setup tracing")
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.WithError(err).Warn("tracer shutdown")
		}
	}()

	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("open storage")
	}
	defer st.close()

	var producer events.Producer
	if cfg.Kafka.Enabled() {
		p := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer p.Close()
		if err := p.CheckConnection(ctx); err != nil {
			log.WithError(err).Warn("kafka unreachable; events will be dropped until it recovers")
		}
		producer = p
	} else {
		log.Info("kafka not configured; reservation events are disabled")
	}
	publisher := events.NewPublisher(producer, cfg.Kafka.BookingEventsTopic, cfg.Kafka.NotificationsTopic, log)

	reservationOpts := []reservation.ReservationServiceOption{reservation.WithEvents(publisher), reservation.WithLogger(log)}
	paymentOpts := []payment.PaymentServiceOption{payment.WithTravelers(st.travelers), payment.WithEvents(publisher), payment.WithLogger(log)}
	cancellationOpts := []cancellation.CancellationServiceOption{cancellation.WithEvents(publisher), cancellation.WithLogger(log)}
	var seatMaps schedule.SeatMapCache
	if cfg.Redis.Enabled() {
		rc := cache.NewRedisCache(cfg.Redis, cfg.Booking.SeatMapTTL())
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			log.WithError(err).Warn("redis unreachable; seat holds and seat map cache will fail open")
		}
		seatMaps = rc
		reservationOpts = append(reservationOpts, reservation.WithSeatHolds(rc, cfg.Booking.HoldTTL()), reservation.WithSeatMapCache(rc))
		paymentOpts = append(paymentOpts, payment.WithSeatMapCache(rc))
		cancellationOpts = append(cancellationOpts, cancellation.WithSeatMapCache(rc))
	}

	gw := gateway.NewLocal()
	scheduleSvc := schedule.NewScheduleService(st.schedules, seatMaps, cfg.Booking.ACSeats, cfg.Booking.SLSeats, log)
	reservationSvc := reservation.NewReservationService(st.ledger, st.travelers, gw, reservationOpts...)
	paymentSvc := payment.NewPaymentService(st.ledger, gw, paymentOpts...)
	cancellationSvc := cancellation.NewCancellationService(st.ledger, cancellationOpts...)
	ticketSvc := ticket.NewTicketService(st.ledger, st.schedules, ticket.WithEvents(publisher), ticket.WithLogger(log))
	historySvc := history.NewHistoryService(st.history, log)
	reportSvc := report.NewReportService(st.reports)

	var manager *auth.Manager
	if cfg.Auth.Enabled() {
		manager = auth.NewManager(cfg.Auth)
	} else {
		log.Warn("auth.jwt_secret is empty; every route is open")
	}

	router := api.NewRouter(api.Handlers{
		Schedules: api.NewScheduleHandler(scheduleSvc, log),
		Bookings:  api.NewBookingHandler(reservationSvc, paymentSvc, ticketSvc, log),
		Tickets:   api.NewTicketHandler(ticketSvc, reservationSvc, log),
		Travelers: api.NewTravelerHandler(historySvc, ticketSvc, log),
		Admin:     api.NewAdminHandler(cancellationSvc, reportSvc, log),
	}, api.RouterConfig{AllowedOrigins: cfg.HTTP.AllowedOrigins, Auth: manager}, log)

	services := bootstrap.Services{
		Reservations: reservationapi.NewServer(reservationSvc, paymentSvc, cancellationSvc, ticketSvc),
		Schedules:    schedulesapi.NewServer(scheduleSvc),
	}
	if err := bootstrap.Run(ctx, cfg, router, services, log); err != nil {
		log.WithError(err).Fatal("server error")
	}
}

func openStorage(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*storage, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		store := memory.NewStore()
		if err := memory.SeedDemo(ctx, store, cfg.Booking.ACSeats, cfg.Booking.SLSeats, time.Now()); err != nil {
			return nil, fmt.Errorf("seed memory store: %w", err)
		}
		log.Warn("using in-memory storage with demo data; nothing is persisted")
		return &storage{
			ledger:    store,
			schedules: store,
			travelers: store.Travelers(),
			history:   store,
			reports:   store,
			close:     func() {},
		}, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if cfg.Database.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Database.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	// The database/sql repositories borrow connections from the same pool.
	db := stdlib.OpenDBFromPool(pool)

	return &storage{
		ledger:    repository.NewLedgerRepository(db),
		schedules: repository.NewScheduleRepository(pool),
		travelers: repository.NewTravelerRepository(pool),
		history:   repository.NewHistoryRepository(db),
		reports:   repository.NewReportRepository(db),
		close: func() {
			_ = db.Close()
			pool.Close()
		},
	}, nil
}
