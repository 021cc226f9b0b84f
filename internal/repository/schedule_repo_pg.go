package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/railbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ScheduleRepository interface {
	List(ctx context.Context) ([]domain.Schedule, error)
	GetByID(ctx context.Context, id int64) (*domain.Schedule, error)
	ListSeats(ctx context.Context, scheduleID int64) ([]domain.Seat, error)
	Create(ctx context.Context, schedule *domain.Schedule, seats []domain.Seat) error
}

type PGScheduleRepository struct {
	db *pgxpool.Pool
}

func NewScheduleRepository(db *pgxpool.Pool) ScheduleRepository {
	return &PGScheduleRepository{db: db}
}

const scheduleColumns = `s.schedule_id, s.train_id, t.name, t.train_number, r.name, s.travel_date, s.departure_time::text, s.arrival_time::text`

const scheduleFrom = `FROM schedules s
	JOIN trains t ON s.train_id = t.train_id
	JOIN routes r ON t.route_id = r.route_id`

func scanSchedule(row pgx.Row) (*domain.Schedule, error) {
	var s domain.Schedule
	if err := row.Scan(&s.ID, &s.TrainID, &s.TrainName, &s.TrainNumber, &s.RouteName, &s.TravelDate, &s.DepartureTime, &s.ArrivalTime); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PGScheduleRepository) List(ctx context.Context) ([]domain.Schedule, error) {
	rows, err := r.db.Query(ctx, `SELECT `+scheduleColumns+` `+scheduleFrom+` ORDER BY s.travel_date, s.departure_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := make([]domain.Schedule, 0)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *s)
	}
	return schedules, rows.Err()
}

func (r *PGScheduleRepository) GetByID(ctx context.Context, id int64) (*domain.Schedule, error) {
	s, err := scanSchedule(r.db.QueryRow(ctx, `SELECT `+scheduleColumns+` `+scheduleFrom+` WHERE s.schedule_id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrScheduleNotFound
	}
	return s, err
}

func (r *PGScheduleRepository) ListSeats(ctx context.Context, scheduleID int64) ([]domain.Seat, error) {
	rows, err := r.db.Query(ctx, `SELECT seat_id, schedule_id, seat_number, class_type, is_booked FROM seats WHERE schedule_id=$1 ORDER BY seat_id`, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]domain.Seat, 0)
	for rows.Next() {
		var s domain.Seat
		if err := rows.Scan(&s.ID, &s.ScheduleID, &s.Number, &s.Class, &s.Booked); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(seats) == 0 {
		if _, err := r.GetByID(ctx, scheduleID); err != nil {
			return nil, err
		}
	}
	return seats, nil
}

// Create inserts the schedule and its whole seat inventory in one transaction.
func (r *PGScheduleRepository) Create(ctx context.Context, schedule *domain.Schedule, seats []domain.Seat) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `INSERT INTO schedules (train_id, travel_date, departure_time, arrival_time)
		VALUES ($1, $2, $3::time, $4::time)
		RETURNING schedule_id`, schedule.TrainID, schedule.TravelDate, schedule.DepartureTime, schedule.ArrivalTime).
		Scan(&schedule.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return domain.Invalid("train_id", fmt.Sprintf("train %d does not exist", schedule.TrainID))
		}
		return err
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"seats"},
		[]string{"schedule_id", "class_type", "seat_number", "is_booked"},
		pgx.CopyFromSlice(len(seats), func(i int) ([]any, error) {
			return []any{schedule.ID, string(seats[i].Class), seats[i].Number, false}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("seed seats: %w", err)
	}

	return tx.Commit(ctx)
}

var _ ScheduleRepository = (*PGScheduleRepository)(nil)
