package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Domenick1991/railbooking/internal/domain"
	"github.com/lib/pq"
)

// ReserveParams describes one all-or-nothing seat claim. SeatIDs must be
// unique; the service sorts them so row locks are always taken in id order.
type ReserveParams struct {
	ScheduleID int64
	TravelerID int64
	SeatIDs    []int64
	Passenger  domain.Passenger
	BookedAt   time.Time
}

type SettleParams struct {
	BookingID int64
	Amount    int64
	Method    string
	Reference string
	PaidAt    time.Time
}

// ChargeFunc runs inside the settle or checkout transaction while the booking
// row is locked and before the payment is recorded. Returning an error rolls
// the whole transaction back.
type ChargeFunc func(ctx context.Context, booking *domain.Booking) (reference string, err error)

// LedgerRepository owns every write to seat claim flags, bookings, booking
// details, payments and tickets. Each method is one transaction.
type LedgerRepository interface {
	Reserve(ctx context.Context, p ReserveParams) (*domain.Booking, error)
	Settle(ctx context.Context, p SettleParams, charge ChargeFunc) (*domain.Payment, error)
	Checkout(ctx context.Context, p ReserveParams, s SettleParams, charge ChargeFunc) (*domain.Booking, error)
	Discard(ctx context.Context, bookingID int64) error
	ReleaseSeat(ctx context.Context, scheduleID int64, seatNumber string) (*domain.ReleaseResult, error)
	GetBooking(ctx context.Context, id int64) (*domain.Booking, error)
	IssueTicket(ctx context.Context, bookingID int64, number string, issuedAt time.Time) (*domain.Ticket, bool, error)
	GetTicket(ctx context.Context, id int64) (*domain.Ticket, error)
	GetTicketByBooking(ctx context.Context, bookingID int64) (*domain.Ticket, error)
	ListTicketsByTraveler(ctx context.Context, travelerID int64) ([]domain.Ticket, error)
}

type SQLLedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) LedgerRepository {
	return &SQLLedgerRepository{db: db}
}

func (r *SQLLedgerRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *SQLLedgerRepository) Reserve(ctx context.Context, p ReserveParams) (*domain.Booking, error) {
	var booking *domain.Booking
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		booking, err = reserveTx(ctx, tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// Settle locks the booking, checks it can still be paid, runs charge and
// records the payment. Concurrent calls for one booking are serialised on the
// booking row, so at most one of them reaches the gateway.
func (r *SQLLedgerRepository) Settle(ctx context.Context, p SettleParams, charge ChargeFunc) (*domain.Payment, error) {
	var payment *domain.Payment
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		payment, err = settleTx(ctx, tx, p, func(ctx context.Context) (string, error) {
			if charge == nil {
				return p.Reference, nil
			}
			return charge(ctx, &domain.Booking{ID: p.BookingID, Status: domain.BookingStatusOpen})
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *SQLLedgerRepository) Checkout(ctx context.Context, p ReserveParams, s SettleParams, charge ChargeFunc) (*domain.Booking, error) {
	var booking *domain.Booking
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		booking, err = reserveTx(ctx, tx, p)
		if err != nil {
			return err
		}
		s.BookingID = booking.ID
		booking.Payment, err = settleTx(ctx, tx, s, func(ctx context.Context) (string, error) {
			if charge == nil {
				return s.Reference, nil
			}
			return charge(ctx, booking)
		})
		if err != nil {
			return err
		}
		booking.Status = domain.BookingStatusSettled
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func reserveTx(ctx context.Context, tx *sql.Tx, p ReserveParams) (*domain.Booking, error) {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM schedules WHERE schedule_id = $1)`, p.ScheduleID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check schedule: %w", err)
	}
	if !exists {
		return nil, domain.ErrScheduleNotFound
	}

	rows, err := tx.QueryContext(ctx, `SELECT seat_id, seat_number, class_type, is_booked
		FROM seats
		WHERE schedule_id = $1 AND seat_id = ANY($2)
		ORDER BY seat_id
		FOR UPDATE`, p.ScheduleID, pq.Array(p.SeatIDs))
	if err != nil {
		return nil, fmt.Errorf("lock seats: %w", err)
	}
	seats := make(map[int64]domain.Seat, len(p.SeatIDs))
	for rows.Next() {
		s := domain.Seat{ScheduleID: p.ScheduleID}
		if err := rows.Scan(&s.ID, &s.Number, &s.Class, &s.Booked); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan seat: %w", err)
		}
		seats[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lock seats: %w", err)
	}
	rows.Close()

	var missing []int64
	conflict := &domain.SeatConflictError{}
	for _, id := range p.SeatIDs {
		s, ok := seats[id]
		switch {
		case !ok:
			missing = append(missing, id)
		case s.Booked:
			conflict.SeatIDs = append(conflict.SeatIDs, s.ID)
			conflict.SeatNumbers = append(conflict.SeatNumbers, s.Number)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: seats %v are not part of schedule %d", domain.ErrInvalidSeatSet, missing, p.ScheduleID)
	}
	if len(conflict.SeatIDs) > 0 {
		return nil, conflict
	}

	res, err := tx.ExecContext(ctx, `UPDATE seats SET is_booked = TRUE
		WHERE schedule_id = $1 AND seat_id = ANY($2) AND is_booked = FALSE`, p.ScheduleID, pq.Array(p.SeatIDs))
	if err != nil {
		return nil, fmt.Errorf("claim seats: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("claim seats: %w", err)
	} else if n != int64(len(p.SeatIDs)) {
		return nil, &domain.SeatConflictError{SeatIDs: p.SeatIDs}
	}

	booking := &domain.Booking{
		TravelerID: p.TravelerID,
		ScheduleID: p.ScheduleID,
		Status:     domain.BookingStatusOpen,
		BookedAt:   p.BookedAt,
	}
	if err := tx.QueryRowContext(ctx, `INSERT INTO bookings (user_id, schedule_id, booking_date, status)
		VALUES ($1, $2, $3, $4)
		RETURNING booking_id`, p.TravelerID, p.ScheduleID, p.BookedAt, booking.Status).Scan(&booking.ID); err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	for _, id := range p.SeatIDs {
		seat := seats[id]
		detail := domain.BookingDetail{
			BookingID:  booking.ID,
			SeatID:     seat.ID,
			SeatNumber: seat.Number,
			SeatClass:  seat.Class,
			Passenger:  p.Passenger,
		}
		if err := tx.QueryRowContext(ctx, `INSERT INTO booking_details (booking_id, passenger_name, age, gender, seat_id)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING booking_detail_id`, booking.ID, p.Passenger.Name, p.Passenger.Age, p.Passenger.Gender, seat.ID).Scan(&detail.ID); err != nil {
			return nil, fmt.Errorf("insert booking detail: %w", err)
		}
		booking.Details = append(booking.Details, detail)
	}
	return booking, nil
}

func settleTx(ctx context.Context, tx *sql.Tx, p SettleParams, charge func(context.Context) (string, error)) (*domain.Payment, error) {
	var status domain.BookingStatus
	err := tx.QueryRowContext(ctx, `SELECT status FROM bookings WHERE booking_id = $1 FOR UPDATE`, p.BookingID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock booking: %w", err)
	}
	if status == domain.BookingStatusSettled {
		return nil, domain.ErrBookingSettled
	}

	var seats int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM booking_details WHERE booking_id = $1`, p.BookingID).Scan(&seats); err != nil {
		return nil, fmt.Errorf("count booking details: %w", err)
	}
	if seats == 0 {
		return nil, domain.ErrBookingEmpty
	}

	ref, err := charge(ctx)
	if err != nil {
		return nil, err
	}
	p.Reference = ref

	payment := &domain.Payment{
		BookingID: p.BookingID,
		Amount:    p.Amount,
		Method:    p.Method,
		Status:    domain.PaymentStatusPaid,
		Reference: p.Reference,
		PaidAt:    p.PaidAt,
	}
	if err := tx.QueryRowContext(ctx, `INSERT INTO payments (booking_id, amount, method, status, reference, payment_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING payment_id`, p.BookingID, p.Amount, p.Method, payment.Status, p.Reference, p.PaidAt).Scan(&payment.ID); err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE bookings SET status = $1 WHERE booking_id = $2`, domain.BookingStatusSettled, p.BookingID); err != nil {
		return nil, fmt.Errorf("mark booking settled: %w", err)
	}
	return payment, nil
}

// Discard undoes an unsettled reservation: its seats are released and the
// booking with everything hanging off it is deleted.
func (r *SQLLedgerRepository) Discard(ctx context.Context, bookingID int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT s.seat_id
			FROM seats s
			JOIN booking_details bd ON bd.seat_id = s.seat_id
			WHERE bd.booking_id = $1
			ORDER BY s.seat_id
			FOR UPDATE OF s`, bookingID)
		if err != nil {
			return fmt.Errorf("lock booking seats: %w", err)
		}
		var seatIDs []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("scan seat: %w", err)
			}
			seatIDs = append(seatIDs, id)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("lock booking seats: %w", err)
		}
		rows.Close()

		var status domain.BookingStatus
		err = tx.QueryRowContext(ctx, `SELECT status FROM bookings WHERE booking_id = $1 FOR UPDATE`, bookingID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrBookingNotFound
		}
		if err != nil {
			return fmt.Errorf("lock booking: %w", err)
		}
		if status == domain.BookingStatusSettled {
			return domain.ErrBookingSettled
		}

		if len(seatIDs) > 0 {
			if _, err := tx.ExecContext(ctx, `UPDATE seats SET is_booked = FALSE WHERE seat_id = ANY($1)`, pq.Array(seatIDs)); err != nil {
				return fmt.Errorf("release seats: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM booking_details WHERE booking_id = $1`, bookingID); err != nil {
			return fmt.Errorf("delete booking details: %w", err)
		}
		return deleteBookingCascade(ctx, tx, bookingID)
	})
}

// deleteBookingCascade removes travel history, ticket, payment and finally
// the booking row. The booking row must exist.
func deleteBookingCascade(ctx context.Context, tx *sql.Tx, bookingID int64) error {
	steps := []struct {
		name  string
		query string
	}{
		{"travel history", `DELETE FROM travel_history WHERE booking_id = $1`},
		{"ticket", `DELETE FROM tickets WHERE booking_id = $1`},
		{"payment", `DELETE FROM payments WHERE booking_id = $1`},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.query, bookingID); err != nil {
			return fmt.Errorf("delete %s: %w", step.name, err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE booking_id = $1`, bookingID)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("delete booking %d: %d rows affected", bookingID, n)
	}
	return nil
}

func (r *SQLLedgerRepository) ReleaseSeat(ctx context.Context, scheduleID int64, seatNumber string) (*domain.ReleaseResult, error) {
	result := &domain.ReleaseResult{SeatNumber: seatNumber}
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var booked bool
		err := tx.QueryRowContext(ctx, `SELECT seat_id, is_booked FROM seats
			WHERE schedule_id = $1 AND seat_number = $2
			FOR UPDATE`, scheduleID, seatNumber).Scan(&result.SeatID, &booked)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrSeatNotFound
		}
		if err != nil {
			return fmt.Errorf("lock seat: %w", err)
		}
		if !booked {
			return domain.ErrSeatNotBooked
		}

		if _, err := tx.ExecContext(ctx, `UPDATE seats SET is_booked = FALSE WHERE seat_id = $1`, result.SeatID); err != nil {
			return fmt.Errorf("release seat: %w", err)
		}

		var detailID int64
		err = tx.QueryRowContext(ctx, `SELECT booking_detail_id, booking_id FROM booking_details WHERE seat_id = $1`, result.SeatID).
			Scan(&detailID, &result.BookingID)
		if errors.Is(err, sql.ErrNoRows) {
			result.DetailMissing = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("find booking detail: %w", err)
		}

		var locked int64
		if err := tx.QueryRowContext(ctx, `SELECT booking_id FROM bookings WHERE booking_id = $1 FOR UPDATE`, result.BookingID).Scan(&locked); err != nil {
			return fmt.Errorf("lock booking: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM booking_details WHERE booking_detail_id = $1`, detailID); err != nil {
			return fmt.Errorf("delete booking detail: %w", err)
		}

		var remaining int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM booking_details WHERE booking_id = $1`, result.BookingID).Scan(&remaining); err != nil {
			return fmt.Errorf("count booking details: %w", err)
		}
		if remaining > 0 {
			return nil
		}

		if err := deleteBookingCascade(ctx, tx, result.BookingID); err != nil {
			return err
		}
		result.BookingRemoved = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLLedgerRepository) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	err := r.db.QueryRowContext(ctx, `SELECT booking_id, user_id, schedule_id, booking_date, status FROM bookings WHERE booking_id = $1`, id).
		Scan(&b.ID, &b.TravelerID, &b.ScheduleID, &b.BookedAt, &b.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT bd.booking_detail_id, bd.seat_id, s.seat_number, s.class_type, bd.passenger_name, bd.age, bd.gender
		FROM booking_details bd
		JOIN seats s ON s.seat_id = bd.seat_id
		WHERE bd.booking_id = $1
		ORDER BY bd.seat_id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		d := domain.BookingDetail{BookingID: id}
		if err := rows.Scan(&d.ID, &d.SeatID, &d.SeatNumber, &d.SeatClass, &d.Passenger.Name, &d.Passenger.Age, &d.Passenger.Gender); err != nil {
			return nil, err
		}
		b.Details = append(b.Details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var p domain.Payment
	err = r.db.QueryRowContext(ctx, `SELECT payment_id, booking_id, amount, method, status, reference, payment_date FROM payments WHERE booking_id = $1`, id).
		Scan(&p.ID, &p.BookingID, &p.Amount, &p.Method, &p.Status, &p.Reference, &p.PaidAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, err
	default:
		b.Payment = &p
	}
	return &b, nil
}

// IssueTicket returns the booking's ticket, creating it when absent. The bool
// reports whether a new ticket was minted.
func (r *SQLLedgerRepository) IssueTicket(ctx context.Context, bookingID int64, number string, issuedAt time.Time) (*domain.Ticket, bool, error) {
	var (
		ticket  domain.Ticket
		created bool
	)
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, `SELECT booking_id FROM bookings WHERE booking_id = $1 FOR SHARE`, bookingID).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrBookingNotFound
		}
		if err != nil {
			return fmt.Errorf("lock booking: %w", err)
		}

		err = tx.QueryRowContext(ctx, `INSERT INTO tickets (ticket_number, booking_id, issued_date)
			VALUES ($1, $2, $3)
			ON CONFLICT (booking_id) DO NOTHING
			RETURNING ticket_id, ticket_number, booking_id, issued_date`, number, bookingID, issuedAt).
			Scan(&ticket.ID, &ticket.TicketNumber, &ticket.BookingID, &ticket.IssuedAt)
		if err == nil {
			created = true
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("insert ticket: %w", err)
		}

		err = tx.QueryRowContext(ctx, `SELECT ticket_id, ticket_number, booking_id, issued_date FROM tickets WHERE booking_id = $1`, bookingID).
			Scan(&ticket.ID, &ticket.TicketNumber, &ticket.BookingID, &ticket.IssuedAt)
		if err != nil {
			return fmt.Errorf("load ticket: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &ticket, created, nil
}

func (r *SQLLedgerRepository) GetTicket(ctx context.Context, id int64) (*domain.Ticket, error) {
	return r.scanTicket(r.db.QueryRowContext(ctx, `SELECT ticket_id, ticket_number, booking_id, issued_date FROM tickets WHERE ticket_id = $1`, id))
}

func (r *SQLLedgerRepository) GetTicketByBooking(ctx context.Context, bookingID int64) (*domain.Ticket, error) {
	return r.scanTicket(r.db.QueryRowContext(ctx, `SELECT ticket_id, ticket_number, booking_id, issued_date FROM tickets WHERE booking_id = $1`, bookingID))
}

func (r *SQLLedgerRepository) scanTicket(row *sql.Row) (*domain.Ticket, error) {
	var t domain.Ticket
	err := row.Scan(&t.ID, &t.TicketNumber, &t.BookingID, &t.IssuedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *SQLLedgerRepository) ListTicketsByTraveler(ctx context.Context, travelerID int64) ([]domain.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT t.ticket_id, t.ticket_number, t.booking_id, t.issued_date
		FROM tickets t
		JOIN bookings b ON b.booking_id = t.booking_id
		WHERE b.user_id = $1
		ORDER BY t.issued_date DESC`, travelerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]domain.Ticket, 0)
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.TicketNumber, &t.BookingID, &t.IssuedAt); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// NormalizeSeatIDs drops duplicates and sorts ascending.
func NormalizeSeatIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var _ LedgerRepository = (*SQLLedgerRepository)(nil)
