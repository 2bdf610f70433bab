package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/flightbooker/internal/domain"
)

type PGBookingRepository struct {
	db DB
}

func NewBookingRepository(db DB) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) GetByPNR(ctx context.Context, pnr string) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE pnr=$1`, pnr))
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", pnr, classify(err))
	}
	return b, nil
}

func (r *PGBookingRepository) BoardingPass(ctx context.Context, pnr string) (*domain.BoardingPass, error) {
	row := r.db.QueryRow(ctx, `SELECT b.pnr, b.pin, f.flight_number, s.seat_number
		FROM bookings b
		JOIN flights f ON f.id = b.flight_id
		JOIN seats s ON s.id = b.seat_id
		WHERE b.pnr=$1`, pnr)

	var p domain.BoardingPass
	if err := row.Scan(&p.PNR, &p.PIN, &p.FlightNumber, &p.SeatNumber); err != nil {
		return nil, fmt.Errorf("boarding pass %s: %w", pnr, classify(err))
	}
	return &p, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
