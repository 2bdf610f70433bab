package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/flightbooker/internal/domain"
	"github.com/Domenick1991/flightbooker/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertSeatCounter checks that the flight counter matches its seat rows and
// that the booked seats are exactly the ones with a booking.
func assertSeatCounter(t *testing.T, store *memory.Store, flightID int64) {
	t.Helper()
	ctx := context.Background()

	f, err := store.GetByID(ctx, flightID)
	require.NoError(t, err)
	seats, err := store.ListSeats(ctx, flightID)
	require.NoError(t, err)

	booked := make(map[int64]bool)
	for _, b := range store.Bookings() {
		if b.FlightID == flightID {
			assert.False(t, booked[b.SeatID], "seat %d booked twice", b.SeatID)
			booked[b.SeatID] = true
		}
	}

	available := 0
	for _, seat := range seats {
		if seat.IsAvailable {
			available++
		}
		assert.Equal(t, !seat.IsAvailable, booked[seat.ID], "seat %s", seat.SeatNumber)
	}
	assert.Equal(t, available, f.AvailableSeats)
	assert.GreaterOrEqual(t, f.AvailableSeats, 0)
	assert.LessOrEqual(t, f.AvailableSeats, f.TotalSeats)
}

func TestBookingService_ConcurrentSameSeat(t *testing.T) {
	store := memory.New()
	flight, seats := seedFlight(store, 4)
	service := newTestService(store)

	const workers = 50
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start

			input := bookingInput(flight.ID, seats[2].ID)
			input.PassengerEmail = fmt.Sprintf("p%d@example.com", i)
			_, err := service.CreateBooking(context.Background(), input)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			failures = append(failures, err)
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	require.Len(t, failures, workers-1)
	for _, err := range failures {
		assert.True(t, errors.Is(err, domain.ErrSeatUnavailable), "unexpected error: %v", err)
	}

	f, err := store.GetByID(context.Background(), flight.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, f.AvailableSeats)
	assertSeatCounter(t, store, flight.ID)
}

func TestBookingService_ConcurrentWholeFlight(t *testing.T) {
	store := memory.New()
	flight, seats := seedFlight(store, 30)
	service := newTestService(store)

	var wg sync.WaitGroup
	errs := make(chan error, len(seats)*2)
	// Two requests per seat, so half of them must lose.
	for round := 0; round < 2; round++ {
		for _, seat := range seats {
			wg.Add(1)
			go func(seatID int64) {
				defer wg.Done()
				_, err := service.CreateBooking(context.Background(), bookingInput(flight.ID, seatID))
				errs <- err
			}(seat.ID)
		}
	}
	wg.Wait()
	close(errs)

	var ok, lost int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrSeatUnavailable):
			lost++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, len(seats), ok)
	assert.Equal(t, len(seats), lost)

	f, err := store.GetByID(context.Background(), flight.ID)
	require.NoError(t, err)
	assert.Zero(t, f.AvailableSeats)
	assertSeatCounter(t, store, flight.ID)
}

func TestBookingService_CodesStayUnique(t *testing.T) {
	if testing.Short() {
		t.Skip("creates ten thousand bookings")
	}

	store := memory.New()
	service := newTestService(store, WithRetry(5, time.Millisecond))

	const (
		flights       = 50
		seatsPerPlane = 200
	)
	var wg sync.WaitGroup
	for i := 0; i < flights; i++ {
		flight, seats := seedFlight(store, seatsPerPlane)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, seat := range seats {
				if _, err := service.CreateBooking(context.Background(), bookingInput(flight.ID, seat.ID)); err != nil {
					t.Errorf("book %s: %v", seat.SeatNumber, err)
					return
				}
			}
		}()
	}
	wg.Wait()

	bookings := store.Bookings()
	require.Len(t, bookings, flights*seatsPerPlane)

	pnrs := make(map[string]struct{}, len(bookings))
	pins := make(map[string]struct{}, len(bookings))
	for _, b := range bookings {
		pnrs[b.PNR] = struct{}{}
		pins[b.PIN] = struct{}{}
	}
	assert.Len(t, pnrs, len(bookings))
	assert.Len(t, pins, len(bookings))
}
