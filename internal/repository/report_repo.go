package repository

import (
	"context"
	"database/sql"

	"github.com/Domenick1991/railbooking/internal/domain"
)

// ReportRepository serves read-only aggregates. Its queries take no row locks.
type ReportRepository interface {
	Sales(ctx context.Context) ([]domain.SalesRow, error)
	Demographics(ctx context.Context) ([]domain.DemographicsRow, error)
	Occupancy(ctx context.Context) ([]domain.OccupancyRow, error)
	Rides(ctx context.Context) ([]domain.Ride, error)
}

type SQLReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) ReportRepository {
	return &SQLReportRepository{db: db}
}

func (r *SQLReportRepository) Sales(ctx context.Context) ([]domain.SalesRow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT s.schedule_id, t.name, t.train_number, s.travel_date,
			COUNT(p.payment_id), COALESCE(SUM(p.amount), 0)
		FROM schedules s
		JOIN trains t ON s.train_id = t.train_id
		JOIN bookings b ON s.schedule_id = b.schedule_id
		JOIN payments p ON b.booking_id = p.booking_id
		WHERE p.status = $1
		GROUP BY s.schedule_id, t.name, t.train_number, s.travel_date
		ORDER BY s.travel_date DESC`, domain.PaymentStatusPaid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.SalesRow, 0)
	for rows.Next() {
		var row domain.SalesRow
		if err := rows.Scan(&row.ScheduleID, &row.TrainName, &row.TrainNumber, &row.TravelDate, &row.TicketCount, &row.TotalSales); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLReportRepository) Demographics(ctx context.Context) ([]domain.DemographicsRow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT gender, COUNT(*),
			ROUND(COUNT(*) * 100.0 / SUM(COUNT(*)) OVER (), 2)::float8
		FROM booking_details
		GROUP BY gender
		ORDER BY gender`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.DemographicsRow, 0)
	for rows.Next() {
		var row domain.DemographicsRow
		if err := rows.Scan(&row.Gender, &row.PassengerCount, &row.Percentage); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLReportRepository) Occupancy(ctx context.Context) ([]domain.OccupancyRow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT s.schedule_id, t.name, t.train_number, s.travel_date,
			COUNT(*) FILTER (WHERE se.is_booked), COUNT(se.seat_id),
			ROUND(COUNT(*) FILTER (WHERE se.is_booked) * 100.0 / COUNT(se.seat_id), 2)::float8
		FROM schedules s
		JOIN trains t ON s.train_id = t.train_id
		JOIN seats se ON s.schedule_id = se.schedule_id
		GROUP BY s.schedule_id, t.name, t.train_number, s.travel_date
		ORDER BY s.travel_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.OccupancyRow, 0)
	for rows.Next() {
		var row domain.OccupancyRow
		if err := rows.Scan(&row.ScheduleID, &row.TrainName, &row.TrainNumber, &row.TravelDate, &row.BookedSeats, &row.TotalSeats, &row.OccupancyRate); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLReportRepository) Rides(ctx context.Context) ([]domain.Ride, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT s.schedule_id, t.name, s.travel_date, s.departure_time::text, s.arrival_time::text,
			b.booking_id, b.user_id, bd.passenger_name, COALESCE(u.email, ''), bd.gender, bd.age, se.seat_number, se.class_type
		FROM bookings b
		JOIN booking_details bd ON bd.booking_id = b.booking_id
		JOIN seats se ON bd.seat_id = se.seat_id
		JOIN schedules s ON b.schedule_id = s.schedule_id
		JOIN trains t ON s.train_id = t.train_id
		JOIN users u ON b.user_id = u.user_id
		WHERE se.is_booked
		ORDER BY s.travel_date, s.schedule_id, se.seat_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flat []rideRow
	for rows.Next() {
		var row rideRow
		if err := rows.Scan(&row.ride.ScheduleID, &row.ride.TrainName, &row.ride.TravelDate, &row.ride.DepartureTime, &row.ride.ArrivalTime,
			&row.passenger.BookingID, &row.passenger.TravelerID, &row.passenger.PassengerName, &row.passenger.Email,
			&row.passenger.Gender, &row.passenger.Age, &row.passenger.SeatNumber, &row.passenger.SeatClass); err != nil {
			return nil, err
		}
		flat = append(flat, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groupRides(flat), nil
}

type rideRow struct {
	ride      domain.Ride
	passenger domain.RidePassenger
}

// groupRides folds passenger rows into one Ride per schedule, keeping the
// order in which schedules first appear.
func groupRides(rows []rideRow) []domain.Ride {
	rides := make([]domain.Ride, 0)
	index := make(map[int64]int)
	for _, row := range rows {
		i, ok := index[row.ride.ScheduleID]
		if !ok {
			i = len(rides)
			index[row.ride.ScheduleID] = i
			ride := row.ride
			ride.Passengers = nil
			rides = append(rides, ride)
		}
		rides[i].Passengers = append(rides[i].Passengers, row.passenger)
	}
	return rides
}

var _ ReportRepository = (*SQLReportRepository)(nil)
