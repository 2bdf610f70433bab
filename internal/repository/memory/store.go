// Package memory is an in-process seat ledger with the same locking and
// rollback behaviour as the Postgres one.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Domenick1991/flightbooker/internal/domain"
	"github.com/Domenick1991/flightbooker/internal/identifier"
	"github.com/Domenick1991/flightbooker/internal/repository"
)

type Store struct {
	mu       sync.RWMutex
	flights  map[int64]domain.Flight
	seats    map[int64]domain.Seat
	bookings map[int64]domain.Booking
	codes    map[identifier.Kind]map[string]struct{}
	seatOf   map[int64]int64 // seat id -> booking id
	airports map[string]domain.Airport
	airlines map[string]domain.Airline

	locks       *rowLocks
	lockTimeout time.Duration
	now         func() time.Time

	nextFlightID  atomic.Int64
	nextSeatID    atomic.Int64
	nextBookingID atomic.Int64
}

type Option func(*Store)

func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.lockTimeout = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		flights:  make(map[int64]domain.Flight),
		seats:    make(map[int64]domain.Seat),
		bookings: make(map[int64]domain.Booking),
		codes: map[identifier.Kind]map[string]struct{}{
			identifier.KindPNR: {},
			identifier.KindPIN: {},
		},
		seatOf:      make(map[int64]int64),
		airports:    make(map[string]domain.Airport),
		airlines:    make(map[string]domain.Airline),
		locks:       newRowLocks(),
		lockTimeout: 5 * time.Second,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddFlight stores the flight with one available seat per seat number.
// TotalSeats and AvailableSeats are derived from the seats.
func (s *Store) AddFlight(f domain.Flight, seats ...domain.Seat) (domain.Flight, []domain.Seat) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f.ID = s.nextFlightID.Add(1)
	f.TotalSeats = len(seats)
	f.AvailableSeats = 0
	f.CreatedAt = s.now()
	f.UpdatedAt = f.CreatedAt

	stored := make([]domain.Seat, 0, len(seats))
	for _, seat := range seats {
		seat.ID = s.nextSeatID.Add(1)
		seat.FlightID = f.ID
		if seat.Class == "" {
			seat.Class = domain.SeatClassEconomy
		}
		if seat.IsAvailable {
			f.AvailableSeats++
		}
		s.seats[seat.ID] = seat
		stored = append(stored, seat)
	}
	s.flights[f.ID] = f
	return f, stored
}

// AddAirport stores the airport, replacing one with the same code.
func (s *Store) AddAirport(a domain.Airport) domain.Airport {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.airports[a.Code]; ok {
		a.ID = prev.ID
	} else {
		a.ID = int64(len(s.airports) + 1)
	}
	s.airports[a.Code] = a
	return a
}

func (s *Store) AddAirline(a domain.Airline) domain.Airline {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.airlines[a.Code]; ok {
		a.ID = prev.ID
	} else {
		a.ID = int64(len(s.airlines) + 1)
	}
	s.airlines[a.Code] = a
	return a
}

// Seats builds n available economy seats numbered 1A, 1B, ... six abreast.
func Seats(n int) []domain.Seat {
	seats := make([]domain.Seat, 0, n)
	for i := 0; i < n; i++ {
		seats = append(seats, domain.Seat{
			SeatNumber:  fmt.Sprintf("%d%c", i/6+1, 'A'+i%6),
			Class:       domain.SeatClassEconomy,
			IsAvailable: true,
		})
	}
	return seats
}

func (s *Store) List(ctx context.Context) ([]domain.Flight, error) {
	return s.Search(ctx, repository.FlightFilter{})
}

func (s *Store) Search(_ context.Context, filter repository.FlightFilter) ([]domain.Flight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	flights := make([]domain.Flight, 0)
	for _, f := range s.flights {
		if filter.Match(f) {
			flights = append(flights, f)
		}
	}
	slices.SortFunc(flights, func(a, b domain.Flight) int {
		if c := a.DepartureTime.Compare(b.DepartureTime); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return flights, nil
}

func (s *Store) GetByID(_ context.Context, id int64) (*domain.Flight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.flights[id]
	if !ok {
		return nil, fmt.Errorf("flight %d: %w", id, domain.ErrNotFound)
	}
	return &f, nil
}

func (s *Store) ListSeats(_ context.Context, flightID int64) ([]domain.Seat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seats := make([]domain.Seat, 0)
	for _, seat := range s.seats {
		if seat.FlightID == flightID {
			seats = append(seats, seat)
		}
	}
	slices.SortFunc(seats, func(a, b domain.Seat) int {
		return strings.Compare(a.SeatNumber, b.SeatNumber)
	})
	return seats, nil
}

func (s *Store) ListAirports(_ context.Context) ([]domain.Airport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	airports := make([]domain.Airport, 0, len(s.airports))
	for _, a := range s.airports {
		airports = append(airports, a)
	}
	slices.SortFunc(airports, func(a, b domain.Airport) int {
		return strings.Compare(a.Code, b.Code)
	})
	return airports, nil
}

func (s *Store) ListAirlines(_ context.Context) ([]domain.Airline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	airlines := make([]domain.Airline, 0, len(s.airlines))
	for _, a := range s.airlines {
		airlines = append(airlines, a)
	}
	slices.SortFunc(airlines, func(a, b domain.Airline) int {
		return strings.Compare(a.Code, b.Code)
	})
	return airlines, nil
}

func (s *Store) GetByPNR(_ context.Context, pnr string) (*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.bookings {
		if b.PNR == pnr {
			return &b, nil
		}
	}
	return nil, fmt.Errorf("booking %s: %w", pnr, domain.ErrNotFound)
}

func (s *Store) BoardingPass(ctx context.Context, pnr string) (*domain.BoardingPass, error) {
	b, err := s.GetByPNR(ctx, pnr)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return &domain.BoardingPass{
		PNR:          b.PNR,
		PIN:          b.PIN,
		FlightNumber: s.flights[b.FlightID].FlightNumber,
		SeatNumber:   s.seats[b.SeatID].SeatNumber,
	}, nil
}

// Bookings returns every committed booking ordered by id.
func (s *Store) Bookings() []domain.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bookings := make([]domain.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		bookings = append(bookings, b)
	}
	slices.SortFunc(bookings, func(a, b domain.Booking) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return bookings
}

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx repository.LedgerTx) error) error {
	tx := newTx(s)
	defer tx.releaseLocks()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.commit()
}

var (
	_ repository.Ledger            = (*Store)(nil)
	_ repository.FlightRepository  = (*Store)(nil)
	_ repository.BookingRepository = (*Store)(nil)
)
