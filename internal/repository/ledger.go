package repository

import (
	"context"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooker/internal/domain"
	"github.com/Domenick1991/flightbooker/internal/identifier"
)

// Ledger runs fn inside one transaction. Returning an error from fn rolls
// back every write made through tx.
type Ledger interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error
}

// LedgerTx is the write side of the seat ledger. Lock* methods hold an
// exclusive row lock until the transaction ends. Callers lock the flight
// before its seat, and bookings in ascending id order.
type LedgerTx interface {
	identifier.Claimer

	LockFlight(ctx context.Context, flightID int64) (*domain.Flight, error)
	LockSeat(ctx context.Context, seatID int64) (*domain.Seat, error)
	// TakeSeat marks the seat sold and decrements the flight counter by one.
	TakeSeat(ctx context.Context, flightID, seatID int64) error
	InsertBooking(ctx context.Context, booking *domain.Booking) error

	LockBookings(ctx context.Context, ids []int64) ([]domain.Booking, error)
	ConfirmBookings(ctx context.Context, ids []int64) ([]domain.Booking, error)
}

type FlightFilter struct {
	Origin      string
	Destination string
	Airline     string
	// Date selects flights departing on that calendar day (UTC).
	Date *time.Time
}

func (f FlightFilter) Match(flight domain.Flight) bool {
	if f.Origin != "" && !strings.EqualFold(f.Origin, flight.Origin) {
		return false
	}
	if f.Destination != "" && !strings.EqualFold(f.Destination, flight.Destination) {
		return false
	}
	if f.Airline != "" && !strings.EqualFold(f.Airline, flight.Airline) {
		return false
	}
	if f.Date != nil {
		from, to := f.dayBounds()
		dep := flight.DepartureTime.UTC()
		if dep.Before(from) || !dep.Before(to) {
			return false
		}
	}
	return true
}

func (f FlightFilter) dayBounds() (time.Time, time.Time) {
	d := f.Date.UTC()
	from := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 0, 1)
}

type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	Search(ctx context.Context, filter FlightFilter) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	ListSeats(ctx context.Context, flightID int64) ([]domain.Seat, error)
	ListAirports(ctx context.Context) ([]domain.Airport, error)
	ListAirlines(ctx context.Context) ([]domain.Airline, error)
}

type BookingRepository interface {
	GetByPNR(ctx context.Context, pnr string) (*domain.Booking, error)
	BoardingPass(ctx context.Context, pnr string) (*domain.BoardingPass, error)
}
