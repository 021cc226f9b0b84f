// Package memory keeps the whole rail booking data set in process memory.
// One mutex serializes every operation, so each call is atomic and isolated.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/railbooking/internal/domain"
	"github.com/Domenick1991/railbooking/internal/repository"
)

type train struct {
	id     int64
	number string
	name   string
	route  string
}

type historyKey struct {
	travelerID int64
	bookingID  int64
}

type Store struct {
	mu     sync.Mutex
	nextID int64

	trains          map[int64]train
	schedules       map[int64]domain.Schedule
	seats           map[int64]*domain.Seat
	seatsBySchedule map[int64][]int64
	travelers       map[int64]domain.Traveler

	bookings        map[int64]*domain.Booking
	details         map[int64]*domain.BookingDetail
	detailBySeat    map[int64]int64
	payments        map[int64]*domain.Payment
	tickets         map[int64]*domain.Ticket
	ticketByBooking map[int64]int64
	history         map[historyKey]*domain.TravelHistory
}

func NewStore() *Store {
	return &Store{
		trains:          make(map[int64]train),
		schedules:       make(map[int64]domain.Schedule),
		seats:           make(map[int64]*domain.Seat),
		seatsBySchedule: make(map[int64][]int64),
		travelers:       make(map[int64]domain.Traveler),
		bookings:        make(map[int64]*domain.Booking),
		details:         make(map[int64]*domain.BookingDetail),
		detailBySeat:    make(map[int64]int64),
		payments:        make(map[int64]*domain.Payment),
		tickets:         make(map[int64]*domain.Ticket),
		ticketByBooking: make(map[int64]int64),
		history:         make(map[historyKey]*domain.TravelHistory),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) AddTrain(number, name, route string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.trains[id] = train{id: id, number: number, name: name, route: route}
	return id
}

func (s *Store) AddTraveler(t domain.Traveler) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.id()
	s.travelers[t.ID] = t
	return t.ID
}

// Schedules

func (s *Store) List(ctx context.Context) ([]domain.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Schedule, 0, len(s.schedules))
	for _, sc := range s.schedules {
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TravelDate.Equal(out[j].TravelDate) {
			return out[i].TravelDate.Before(out[j].TravelDate)
		}
		if out[i].DepartureTime != out[j].DepartureTime {
			return out[i].DepartureTime < out[j].DepartureTime
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*domain.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.schedules[id]
	if !ok {
		return nil, domain.ErrScheduleNotFound
	}
	return &sc, nil
}

func (s *Store) ListSeats(ctx context.Context, scheduleID int64) ([]domain.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[scheduleID]; !ok {
		return nil, domain.ErrScheduleNotFound
	}
	ids := s.seatsBySchedule[scheduleID]
	out := make([]domain.Seat, 0, len(ids))
	for _, id := range ids {
		out = append(out, *s.seats[id])
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, schedule *domain.Schedule, seats []domain.Seat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tr, ok := s.trains[schedule.TrainID]
	if !ok {
		return domain.Invalid("train_id", fmt.Sprintf("train %d does not exist", schedule.TrainID))
	}
	schedule.ID = s.id()
	schedule.TrainName = tr.name
	schedule.TrainNumber = tr.number
	schedule.RouteName = tr.route
	s.schedules[schedule.ID] = *schedule

	for _, seat := range seats {
		seat.ID = s.id()
		seat.ScheduleID = schedule.ID
		seat.Booked = false
		s.seats[seat.ID] = &seat
		s.seatsBySchedule[schedule.ID] = append(s.seatsBySchedule[schedule.ID], seat.ID)
	}
	return nil
}

// Travelers

type travelers struct{ s *Store }

// Travelers exposes the traveler profile lookup. It is a separate value
// because GetByID is already taken by the schedule catalog.
func (s *Store) Travelers() repository.TravelerRepository { return travelers{s} }

func (t travelers) GetByID(ctx context.Context, id int64) (*domain.Traveler, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	tr, ok := t.s.travelers[id]
	if !ok {
		return nil, domain.ErrTravelerNotFound
	}
	return &tr, nil
}

// Ledger

func (s *Store) checkReserve(p repository.ReserveParams) ([]*domain.Seat, error) {
	if _, ok := s.schedules[p.ScheduleID]; !ok {
		return nil, domain.ErrScheduleNotFound
	}
	var (
		missing []int64
		seats   []*domain.Seat
	)
	conflict := &domain.SeatConflictError{}
	for _, id := range p.SeatIDs {
		seat, ok := s.seats[id]
		if !ok || seat.ScheduleID != p.ScheduleID {
			missing = append(missing, id)
			continue
		}
		if seat.Booked {
			conflict.SeatIDs = append(conflict.SeatIDs, seat.ID)
			conflict.SeatNumbers = append(conflict.SeatNumbers, seat.Number)
		}
		seats = append(seats, seat)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: seats %v are not part of schedule %d", domain.ErrInvalidSeatSet, missing, p.ScheduleID)
	}
	if len(conflict.SeatIDs) > 0 {
		return nil, conflict
	}
	return seats, nil
}

func (s *Store) applyReserve(p repository.ReserveParams, seats []*domain.Seat, bookingID int64) *domain.Booking {
	stored := &domain.Booking{
		ID:         bookingID,
		TravelerID: p.TravelerID,
		ScheduleID: p.ScheduleID,
		Status:     domain.BookingStatusOpen,
		BookedAt:   p.BookedAt,
	}
	s.bookings[bookingID] = stored
	for _, seat := range seats {
		seat.Booked = true
		d := &domain.BookingDetail{
			ID:         s.id(),
			BookingID:  bookingID,
			SeatID:     seat.ID,
			SeatNumber: seat.Number,
			SeatClass:  seat.Class,
			Passenger:  p.Passenger,
		}
		s.details[d.ID] = d
		s.detailBySeat[seat.ID] = d.ID
	}
	return s.bookingLocked(bookingID)
}

func (s *Store) Reserve(ctx context.Context, p repository.ReserveParams) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seats, err := s.checkReserve(p)
	if err != nil {
		return nil, err
	}
	return s.applyReserve(p, seats, s.id()), nil
}

func (s *Store) checkSettle(bookingID int64) error {
	b, ok := s.bookings[bookingID]
	if !ok {
		return domain.ErrBookingNotFound
	}
	if b.Status == domain.BookingStatusSettled {
		return domain.ErrBookingSettled
	}
	if len(s.detailsOf(bookingID)) == 0 {
		return domain.ErrBookingEmpty
	}
	return nil
}

func (s *Store) applySettle(p repository.SettleParams) *domain.Payment {
	payment := &domain.Payment{
		ID:        s.id(),
		BookingID: p.BookingID,
		Amount:    p.Amount,
		Method:    p.Method,
		Status:    domain.PaymentStatusPaid,
		Reference: p.Reference,
		PaidAt:    p.PaidAt,
	}
	s.payments[p.BookingID] = payment
	s.bookings[p.BookingID].Status = domain.BookingStatusSettled
	out := *payment
	return &out
}

func (s *Store) Settle(ctx context.Context, p repository.SettleParams, charge repository.ChargeFunc) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkSettle(p.BookingID); err != nil {
		return nil, err
	}
	if charge != nil {
		ref, err := charge(ctx, s.bookingLocked(p.BookingID))
		if err != nil {
			return nil, err
		}
		p.Reference = ref
	}
	return s.applySettle(p), nil
}

func (s *Store) Checkout(ctx context.Context, p repository.ReserveParams, sp repository.SettleParams, charge repository.ChargeFunc) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seats, err := s.checkReserve(p)
	if err != nil {
		return nil, err
	}

	bookingID := s.id()
	if charge != nil {
		provisional := &domain.Booking{ID: bookingID, TravelerID: p.TravelerID, ScheduleID: p.ScheduleID, Status: domain.BookingStatusOpen, BookedAt: p.BookedAt}
		for _, seat := range seats {
			provisional.Details = append(provisional.Details, domain.BookingDetail{BookingID: bookingID, SeatID: seat.ID, SeatNumber: seat.Number, SeatClass: seat.Class, Passenger: p.Passenger})
		}
		ref, err := charge(ctx, provisional)
		if err != nil {
			return nil, err
		}
		sp.Reference = ref
	}

	s.applyReserve(p, seats, bookingID)
	sp.BookingID = bookingID
	s.applySettle(sp)
	return s.bookingLocked(bookingID), nil
}

func (s *Store) Discard(ctx context.Context, bookingID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return domain.ErrBookingNotFound
	}
	if b.Status == domain.BookingStatusSettled {
		return domain.ErrBookingSettled
	}
	for _, d := range s.detailsOf(bookingID) {
		s.seats[d.SeatID].Booked = false
		delete(s.detailBySeat, d.SeatID)
		delete(s.details, d.ID)
	}
	s.cascadeLocked(bookingID)
	return nil
}

func (s *Store) cascadeLocked(bookingID int64) {
	for k := range s.history {
		if k.bookingID == bookingID {
			delete(s.history, k)
		}
	}
	if tid, ok := s.ticketByBooking[bookingID]; ok {
		delete(s.tickets, tid)
		delete(s.ticketByBooking, bookingID)
	}
	delete(s.payments, bookingID)
	delete(s.bookings, bookingID)
}

func (s *Store) ReleaseSeat(ctx context.Context, scheduleID int64, seatNumber string) (*domain.ReleaseResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var seat *domain.Seat
	for _, id := range s.seatsBySchedule[scheduleID] {
		if s.seats[id].Number == seatNumber {
			seat = s.seats[id]
			break
		}
	}
	if seat == nil {
		return nil, domain.ErrSeatNotFound
	}
	if !seat.Booked {
		return nil, domain.ErrSeatNotBooked
	}

	result := &domain.ReleaseResult{SeatID: seat.ID, SeatNumber: seat.Number}
	seat.Booked = false

	detailID, ok := s.detailBySeat[seat.ID]
	if !ok {
		result.DetailMissing = true
		return result, nil
	}
	result.BookingID = s.details[detailID].BookingID
	delete(s.details, detailID)
	delete(s.detailBySeat, seat.ID)

	if len(s.detailsOf(result.BookingID)) == 0 {
		s.cascadeLocked(result.BookingID)
		result.BookingRemoved = true
	}
	return result, nil
}

func (s *Store) detailsOf(bookingID int64) []domain.BookingDetail {
	var out []domain.BookingDetail
	for _, d := range s.details {
		if d.BookingID == bookingID {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeatID < out[j].SeatID })
	return out
}

func (s *Store) bookingLocked(id int64) *domain.Booking {
	b := *s.bookings[id]
	b.Details = s.detailsOf(id)
	if p, ok := s.payments[id]; ok {
		payment := *p
		b.Payment = &payment
	}
	return &b
}

func (s *Store) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[id]; !ok {
		return nil, domain.ErrBookingNotFound
	}
	return s.bookingLocked(id), nil
}

func (s *Store) IssueTicket(ctx context.Context, bookingID int64, number string, issuedAt time.Time) (*domain.Ticket, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[bookingID]; !ok {
		return nil, false, domain.ErrBookingNotFound
	}
	if tid, ok := s.ticketByBooking[bookingID]; ok {
		t := *s.tickets[tid]
		return &t, false, nil
	}
	t := &domain.Ticket{ID: s.id(), TicketNumber: number, BookingID: bookingID, IssuedAt: issuedAt}
	s.tickets[t.ID] = t
	s.ticketByBooking[bookingID] = t.ID
	out := *t
	return &out, true, nil
}

func (s *Store) GetTicket(ctx context.Context, id int64) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, domain.ErrTicketNotFound
	}
	out := *t
	return &out, nil
}

func (s *Store) GetTicketByBooking(ctx context.Context, bookingID int64) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tid, ok := s.ticketByBooking[bookingID]
	if !ok {
		return nil, domain.ErrTicketNotFound
	}
	out := *s.tickets[tid]
	return &out, nil
}

func (s *Store) ListTicketsByTraveler(ctx context.Context, travelerID int64) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Ticket, 0)
	for _, t := range s.tickets {
		if b, ok := s.bookings[t.BookingID]; ok && b.TravelerID == travelerID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.After(out[j].IssuedAt) })
	return out, nil
}

// History

func (s *Store) ListByTraveler(ctx context.Context, travelerID int64) ([]domain.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]domain.HistoryEntry, 0)
	for _, b := range s.bookings {
		if b.TravelerID != travelerID {
			continue
		}
		sc := s.schedules[b.ScheduleID]
		for _, d := range s.detailsOf(b.ID) {
			e := domain.HistoryEntry{
				BookingID:     b.ID,
				ScheduleID:    sc.ID,
				TravelDate:    sc.TravelDate,
				DepartureTime: sc.DepartureTime,
				ArrivalTime:   sc.ArrivalTime,
				TrainName:     sc.TrainName,
				TrainNumber:   sc.TrainNumber,
				RouteName:     sc.RouteName,
				PassengerName: d.Passenger.Name,
				SeatNumber:    d.SeatNumber,
				SeatClass:     d.SeatClass,
			}
			var status *string
			if p, ok := s.payments[b.ID]; ok {
				st, amount, method, paidAt := string(p.Status), p.Amount, p.Method, p.PaidAt
				status, e.Amount, e.Method, e.PaidAt = &st, &amount, &method, &paidAt
			}
			e.Status = domain.HistoryStatus(status)
			if tid, ok := s.ticketByBooking[b.ID]; ok {
				id := tid
				e.TicketID = &id
			}
			if h, ok := s.history[historyKey{travelerID, b.ID}]; ok {
				id := h.ID
				e.HistoryID = &id
			}
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.TravelDate.Equal(b.TravelDate) {
			return a.TravelDate.After(b.TravelDate)
		}
		if a.DepartureTime != b.DepartureTime {
			return a.DepartureTime > b.DepartureTime
		}
		return a.SeatNumber < b.SeatNumber
	})
	return entries, nil
}

func (s *Store) Upsert(ctx context.Context, travelerID, bookingID int64, tripDate time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.bookings[bookingID]; !ok || b.TravelerID != travelerID {
		return domain.ErrBookingNotFound
	}
	key := historyKey{travelerID, bookingID}
	if h, ok := s.history[key]; ok {
		h.TripDate = tripDate
		return nil
	}
	s.history[key] = &domain.TravelHistory{ID: s.id(), TravelerID: travelerID, BookingID: bookingID, TripDate: tripDate}
	return nil
}

// Reports

func (s *Store) Sales(ctx context.Context) ([]domain.SalesRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bySchedule := make(map[int64]*domain.SalesRow)
	for _, p := range s.payments {
		if p.Status != domain.PaymentStatusPaid {
			continue
		}
		b := s.bookings[p.BookingID]
		row, ok := bySchedule[b.ScheduleID]
		if !ok {
			sc := s.schedules[b.ScheduleID]
			row = &domain.SalesRow{ScheduleID: sc.ID, TrainName: sc.TrainName, TrainNumber: sc.TrainNumber, TravelDate: sc.TravelDate}
			bySchedule[b.ScheduleID] = row
		}
		row.TicketCount++
		row.TotalSales += p.Amount
	}
	out := make([]domain.SalesRow, 0, len(bySchedule))
	for _, row := range bySchedule {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TravelDate.After(out[j].TravelDate) })
	return out, nil
}

func (s *Store) Demographics(ctx context.Context) ([]domain.DemographicsRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int64)
	for _, d := range s.details {
		counts[d.Passenger.Gender]++
	}
	total := int64(len(s.details))
	out := make([]domain.DemographicsRow, 0, len(counts))
	for gender, n := range counts {
		out = append(out, domain.DemographicsRow{Gender: gender, PassengerCount: n, Percentage: percent(n, total)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Gender < out[j].Gender })
	return out, nil
}

func (s *Store) Occupancy(ctx context.Context) ([]domain.OccupancyRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.OccupancyRow, 0, len(s.schedules))
	for id, sc := range s.schedules {
		seatIDs := s.seatsBySchedule[id]
		if len(seatIDs) == 0 {
			continue
		}
		row := domain.OccupancyRow{ScheduleID: id, TrainName: sc.TrainName, TrainNumber: sc.TrainNumber, TravelDate: sc.TravelDate, TotalSeats: int64(len(seatIDs))}
		for _, sid := range seatIDs {
			if s.seats[sid].Booked {
				row.BookedSeats++
			}
		}
		row.OccupancyRate = percent(row.BookedSeats, row.TotalSeats)
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TravelDate.After(out[j].TravelDate) })
	return out, nil
}

func (s *Store) Rides(ctx context.Context) ([]domain.Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.schedules))
	for id := range s.schedules {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := s.schedules[ids[i]], s.schedules[ids[j]]
		if !a.TravelDate.Equal(b.TravelDate) {
			return a.TravelDate.Before(b.TravelDate)
		}
		return a.ID < b.ID
	})

	rides := make([]domain.Ride, 0)
	for _, id := range ids {
		sc := s.schedules[id]
		ride := domain.Ride{ScheduleID: id, TrainName: sc.TrainName, TravelDate: sc.TravelDate, DepartureTime: sc.DepartureTime, ArrivalTime: sc.ArrivalTime}
		for _, sid := range s.seatsBySchedule[id] {
			seat := s.seats[sid]
			did, ok := s.detailBySeat[sid]
			if !seat.Booked || !ok {
				continue
			}
			d := s.details[did]
			b := s.bookings[d.BookingID]
			ride.Passengers = append(ride.Passengers, domain.RidePassenger{
				TravelerID:    b.TravelerID,
				BookingID:     b.ID,
				PassengerName: d.Passenger.Name,
				Email:         s.travelers[b.TravelerID].Email,
				Gender:        d.Passenger.Gender,
				Age:           d.Passenger.Age,
				SeatNumber:    seat.Number,
				SeatClass:     seat.Class,
			})
		}
		if len(ride.Passengers) > 0 {
			rides = append(rides, ride)
		}
	}
	return rides, nil
}

func percent(n, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)*10000/float64(total)) / 100
}

var (
	_ repository.ScheduleRepository = (*Store)(nil)
	_ repository.LedgerRepository   = (*Store)(nil)
	_ repository.HistoryRepository  = (*Store)(nil)
	_ repository.ReportRepository   = (*Store)(nil)
)
