package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/Domenick1991/railbooking/config"
	reservationapi "github.com/Domenick1991/railbooking/internal/api/reservation_service_api"
	schedulesapi "github.com/Domenick1991/railbooking/internal/api/schedules_service_api"
)

const shutdownTimeout = 5 * time.Second

type Servers struct {
	grpcServer *grpc.Server
	health     *health.Server
	httpServer *http.Server
}

// Services are the gRPC servers registered next to the REST router.
type Services struct {
	Reservations *reservationapi.Server
	Schedules    *schedulesapi.Server
}

// Run starts the gRPC and HTTP servers and blocks until ctx is canceled or a
// server fails.
func Run(ctx context.Context, cfg *config.Config, router http.Handler, svcs Services, log logrus.FieldLogger) error {
	s := newServers(cfg, router, svcs)

	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
	}

	errCh := make(chan error, 2)
	go func() {
		log.WithField("address", cfg.GRPC.Address).Info("grpc server listening")
		errCh <- s.grpcServer.Serve(lis)
	}()
	go func() {
		log.WithField("address", cfg.HTTP.Address).Info("http server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.grpcServer.Stop()
		_ = s.httpServer.Close()
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		s.health.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.grpcServer.GracefulStop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newServers(cfg *config.Config, router http.Handler, svcs Services) *Servers {
	grpcSrv := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	if svcs.Reservations != nil {
		reservationapi.Register(grpcSrv, svcs.Reservations)
		healthSrv.SetServingStatus(reservationapi.ServiceName, healthpb.HealthCheckResponse_SERVING)
	}
	if svcs.Schedules != nil {
		schedulesapi.Register(grpcSrv, svcs.Schedules)
		healthSrv.SetServingStatus(schedulesapi.ServiceName, healthpb.HealthCheckResponse_SERVING)
	}

	return &Servers{
		grpcServer: grpcSrv,
		health:     healthSrv,
		httpServer: &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}
