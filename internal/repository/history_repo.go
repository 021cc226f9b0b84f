package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Domenick1991/railbooking/internal/domain"
)

type HistoryRepository interface {
	ListByTraveler(ctx context.Context, travelerID int64) ([]domain.HistoryEntry, error)
	Upsert(ctx context.Context, travelerID, bookingID int64, tripDate time.Time) error
}

type SQLHistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) HistoryRepository {
	return &SQLHistoryRepository{db: db}
}

func (r *SQLHistoryRepository) ListByTraveler(ctx context.Context, travelerID int64) ([]domain.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT b.booking_id, s.schedule_id, s.travel_date, s.departure_time::text, s.arrival_time::text,
			t.name, t.train_number, r.name, bd.passenger_name, se.seat_number, se.class_type,
			tk.ticket_id, p.status, p.amount, p.method, p.payment_date, th.history_id
		FROM bookings b
		JOIN booking_details bd ON b.booking_id = bd.booking_id
		JOIN schedules s ON b.schedule_id = s.schedule_id
		JOIN trains t ON s.train_id = t.train_id
		JOIN routes r ON t.route_id = r.route_id
		JOIN seats se ON bd.seat_id = se.seat_id
		LEFT JOIN tickets tk ON b.booking_id = tk.booking_id
		LEFT JOIN payments p ON b.booking_id = p.booking_id
		LEFT JOIN travel_history th ON b.booking_id = th.booking_id AND th.passenger_id = b.user_id
		WHERE b.user_id = $1
		ORDER BY s.travel_date DESC, s.departure_time DESC`, travelerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.HistoryEntry, 0)
	for rows.Next() {
		var (
			e      domain.HistoryEntry
			status *string
		)
		if err := rows.Scan(&e.BookingID, &e.ScheduleID, &e.TravelDate, &e.DepartureTime, &e.ArrivalTime,
			&e.TrainName, &e.TrainNumber, &e.RouteName, &e.PassengerName, &e.SeatNumber, &e.SeatClass,
			&e.TicketID, &status, &e.Amount, &e.Method, &e.PaidAt, &e.HistoryID); err != nil {
			return nil, err
		}
		e.Status = domain.HistoryStatus(status)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Upsert records a trip for a booking the traveler owns. A booking that is
// missing or belongs to someone else reports ErrBookingNotFound.
func (r *SQLHistoryRepository) Upsert(ctx context.Context, travelerID, bookingID int64, tripDate time.Time) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO travel_history (passenger_id, booking_id, trip_date)
		SELECT b.user_id, b.booking_id, $3
		FROM bookings b
		WHERE b.booking_id = $2 AND b.user_id = $1
		ON CONFLICT (passenger_id, booking_id) DO UPDATE SET trip_date = EXCLUDED.trip_date`, travelerID, bookingID, tripDate)
	if err != nil {
		return fmt.Errorf("upsert travel history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("upsert travel history: %w", err)
	}
	if n == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

var _ HistoryRepository = (*SQLHistoryRepository)(nil)
