package booking

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/Domenick1991/flightbooker/internal/domain"
	"github.com/Domenick1991/flightbooker/internal/pricing"
	"github.com/Domenick1991/flightbooker/internal/repository"
	"github.com/Domenick1991/flightbooker/internal/repository/memory"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) AcquireSeatHold(ctx context.Context, flightID, seatID int64, ttl time.Duration) (string, error) {
	args := m.Called(ctx, flightID, seatID, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockCache) ReleaseSeatHold(ctx context.Context, flightID, seatID int64, token string) error {
	args := m.Called(ctx, flightID, seatID, token)
	return args.Error(0)
}

func (m *MockCache) InvalidateFlights(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

type MockPricer struct {
	mock.Mock
}

func (m *MockPricer) Price(in pricing.Input, now time.Time) int64 {
	args := m.Called(in, now)
	return args.Get(0).(int64)
}

// faultyLedger injects errors into InsertBooking, one per call, after the
// seat and counter have already been changed inside the transaction.
type faultyLedger struct {
	repository.Ledger

	mu         sync.Mutex
	insertErrs []error
}

func (l *faultyLedger) InTx(ctx context.Context, fn func(ctx context.Context, tx repository.LedgerTx) error) error {
	return l.Ledger.InTx(ctx, func(ctx context.Context, tx repository.LedgerTx) error {
		return fn(ctx, &faultyTx{LedgerTx: tx, ledger: l})
	})
}

func (l *faultyLedger) nextInsertErr() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.insertErrs) == 0 {
		return nil
	}
	err := l.insertErrs[0]
	l.insertErrs = l.insertErrs[1:]
	return err
}

type faultyTx struct {
	repository.LedgerTx
	ledger *faultyLedger
}

func (t *faultyTx) InsertBooking(ctx context.Context, b *domain.Booking) error {
	if err := t.ledger.nextInsertErr(); err != nil {
		return err
	}
	return t.LedgerTx.InsertBooking(ctx, b)
}

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

var testNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func flatPricer() *pricing.Calculator {
	return pricing.NewCalculator(pricing.WithJitter(func() float64 { return 1.0 }))
}

// seedFlight adds a flight departing ten days after testNow, so a flat
// pricer charges 85% of the base fare while fewer than 30% of seats are sold.
func seedFlight(store *memory.Store, seats int) (domain.Flight, []domain.Seat) {
	return store.AddFlight(domain.Flight{
		FlightNumber:   "SU1402",
		Airline:        "SU",
		Origin:         "SVO",
		Destination:    "LED",
		DepartureTime:  testNow.Add(10 * 24 * time.Hour),
		ArrivalTime:    testNow.Add(10*24*time.Hour + 90*time.Minute),
		AircraftType:   "A320",
		BasePriceCents: 1000000,
	}, memory.Seats(seats)...)
}

func bookingInput(flightID, seatID int64) CreateBookingInput {
	return CreateBookingInput{
		FlightID:       flightID,
		SeatID:         seatID,
		PassengerName:  "Anna Petrova",
		PassengerEmail: "anna@example.com",
		PassengerPhone: "+79991234567",
	}
}
