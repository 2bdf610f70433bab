package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/Domenick1991/flightbooker/internal/domain"
	"github.com/Domenick1991/flightbooker/internal/identifier"
	"github.com/Domenick1991/flightbooker/internal/repository"
)

type codeClaim struct {
	kind identifier.Kind
	code string
}

// tx stages writes until commit. Nothing it does is visible to other
// transactions before commit applies the whole set under the store mutex.
type tx struct {
	s *Store

	held  map[string]bool
	order []string

	flights  map[int64]domain.Flight
	seats    map[int64]domain.Seat
	bookings map[int64]domain.Booking
	inserted []int64
	claims   []codeClaim
}

func newTx(s *Store) *tx {
	return &tx{
		s:        s,
		held:     make(map[string]bool),
		flights:  make(map[int64]domain.Flight),
		seats:    make(map[int64]domain.Seat),
		bookings: make(map[int64]domain.Booking),
	}
}

func (t *tx) lock(ctx context.Context, key string) error {
	if t.held[key] {
		return nil
	}
	if err := t.s.locks.acquire(ctx, key, t.s.lockTimeout); err != nil {
		return err
	}
	t.held[key] = true
	t.order = append(t.order, key)
	return nil
}

func (t *tx) releaseLocks() {
	for i := len(t.order) - 1; i >= 0; i-- {
		t.s.locks.release(t.order[i])
	}
	t.order = nil
	t.held = nil
}

func (t *tx) flight(id int64) (domain.Flight, bool) {
	if f, ok := t.flights[id]; ok {
		return f, true
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	f, ok := t.s.flights[id]
	return f, ok
}

func (t *tx) seat(id int64) (domain.Seat, bool) {
	if seat, ok := t.seats[id]; ok {
		return seat, true
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	seat, ok := t.s.seats[id]
	return seat, ok
}

func (t *tx) booking(id int64) (domain.Booking, bool) {
	if b, ok := t.bookings[id]; ok {
		return b, true
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	b, ok := t.s.bookings[id]
	return b, ok
}

func (t *tx) LockFlight(ctx context.Context, flightID int64) (*domain.Flight, error) {
	if err := t.lock(ctx, flightKey(flightID)); err != nil {
		return nil, err
	}
	f, ok := t.flight(flightID)
	if !ok {
		return nil, fmt.Errorf("lock flight %d: %w", flightID, domain.ErrNotFound)
	}
	return &f, nil
}

func (t *tx) LockSeat(ctx context.Context, seatID int64) (*domain.Seat, error) {
	if err := t.lock(ctx, seatKey(seatID)); err != nil {
		return nil, err
	}
	seat, ok := t.seat(seatID)
	if !ok {
		return nil, fmt.Errorf("lock seat %d: %w", seatID, domain.ErrNotFound)
	}
	return &seat, nil
}

func (t *tx) TakeSeat(_ context.Context, flightID, seatID int64) error {
	if !t.held[flightKey(flightID)] || !t.held[seatKey(seatID)] {
		return fmt.Errorf("take seat %d: flight and seat rows must be locked first", seatID)
	}

	seat, ok := t.seat(seatID)
	if !ok || seat.FlightID != flightID || !seat.IsAvailable {
		return fmt.Errorf("seat %d: %w", seatID, domain.ErrSeatUnavailable)
	}
	f, ok := t.flight(flightID)
	if !ok || f.AvailableSeats <= 0 {
		return fmt.Errorf("flight %d has no seats left: %w", flightID, domain.ErrSeatUnavailable)
	}

	seat.IsAvailable = false
	f.AvailableSeats--
	f.UpdatedAt = t.s.now()
	t.seats[seatID] = seat
	t.flights[flightID] = f
	return nil
}

func (t *tx) ClaimCode(_ context.Context, kind identifier.Kind, code string) (bool, error) {
	for _, c := range t.claims {
		if c.kind == kind && c.code == code {
			return false, nil
		}
	}

	t.s.mu.RLock()
	_, taken := t.s.codes[kind][code]
	t.s.mu.RUnlock()
	if taken {
		return false, nil
	}

	t.claims = append(t.claims, codeClaim{kind: kind, code: code})
	return true, nil
}

func (t *tx) InsertBooking(_ context.Context, b *domain.Booking) error {
	b.ID = t.s.nextBookingID.Add(1)
	b.CreatedAt = t.s.now()
	b.UpdatedAt = b.CreatedAt
	t.bookings[b.ID] = *b
	t.inserted = append(t.inserted, b.ID)
	return nil
}

func (t *tx) LockBookings(ctx context.Context, ids []int64) ([]domain.Booking, error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)

	found := make([]domain.Booking, 0, len(sorted))
	for _, id := range slices.Compact(sorted) {
		if err := t.lock(ctx, bookingKey(id)); err != nil {
			return nil, err
		}
		if b, ok := t.booking(id); ok {
			found = append(found, b)
		}
	}
	return found, nil
}

func (t *tx) ConfirmBookings(_ context.Context, ids []int64) ([]domain.Booking, error) {
	confirmed := make([]domain.Booking, 0, len(ids))
	for _, id := range ids {
		if !t.held[bookingKey(id)] {
			return nil, fmt.Errorf("confirm booking %d: row must be locked first", id)
		}
		b, ok := t.booking(id)
		if !ok {
			return nil, fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
		}
		if b.Status != domain.BookingStatusPending {
			return nil, fmt.Errorf("booking %d is %s: %w", id, b.Status, domain.ErrConflict)
		}
		b.Status = domain.BookingStatusConfirmed
		b.UpdatedAt = t.s.now()
		t.bookings[id] = b
		confirmed = append(confirmed, b)
	}
	slices.SortFunc(confirmed, func(a, b domain.Booking) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return confirmed, nil
}

// commit enforces the unique constraints the Postgres schema declares and
// applies the staged rows in one step.
func (t *tx) commit() error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range t.claims {
		if _, taken := s.codes[c.kind][c.code]; taken {
			return fmt.Errorf("%s %s: %w", c.kind, c.code, domain.ErrCodeTaken)
		}
	}
	for _, id := range t.inserted {
		b := t.bookings[id]
		if _, booked := s.seatOf[b.SeatID]; booked {
			return fmt.Errorf("seat %d already booked: %w", b.SeatID, domain.ErrConflict)
		}
		if !t.claimed(identifier.KindPNR, b.PNR) {
			if _, taken := s.codes[identifier.KindPNR][b.PNR]; taken {
				return fmt.Errorf("PNR %s: %w", b.PNR, domain.ErrCodeTaken)
			}
		}
		if !t.claimed(identifier.KindPIN, b.PIN) {
			if _, taken := s.codes[identifier.KindPIN][b.PIN]; taken {
				return fmt.Errorf("PIN %s: %w", b.PIN, domain.ErrCodeTaken)
			}
		}
	}

	for id, f := range t.flights {
		s.flights[id] = f
	}
	for id, seat := range t.seats {
		s.seats[id] = seat
	}
	for _, c := range t.claims {
		s.codes[c.kind][c.code] = struct{}{}
	}
	for id, b := range t.bookings {
		s.bookings[id] = b
	}
	for _, id := range t.inserted {
		b := t.bookings[id]
		s.seatOf[b.SeatID] = id
		s.codes[identifier.KindPNR][b.PNR] = struct{}{}
		s.codes[identifier.KindPIN][b.PIN] = struct{}{}
	}
	return nil
}

func (t *tx) claimed(kind identifier.Kind, code string) bool {
	for _, c := range t.claims {
		if c.kind == kind && c.code == code {
			return true
		}
	}
	return false
}

var _ repository.LedgerTx = (*tx)(nil)
