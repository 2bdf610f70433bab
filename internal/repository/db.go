package repository

import (
	"context"

	"github.com/Domenick1991/flightbooker/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the part of *pgxpool.Pool the repositories use.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

var _ DB = (*pgxpool.Pool)(nil)

const flightColumns = `id, flight_number, airline_code, origin_code, destination_code, departure_time, arrival_time,
	aircraft_type, base_price_cents, total_seats, available_seats, created_at, updated_at`

const seatColumns = `id, flight_id, seat_number, seat_class, is_available`

const airportColumns = `id, code, name, city, country`

const airlineColumns = `id, code, name`

const bookingColumns = `id, pnr, pin, flight_id, seat_id, user_id, passenger_name, passenger_email, passenger_phone,
	price_cents, status, created_at, updated_at`

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.FlightNumber, &f.Airline, &f.Origin, &f.Destination, &f.DepartureTime, &f.ArrivalTime,
		&f.AircraftType, &f.BasePriceCents, &f.TotalSeats, &f.AvailableSeats, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func scanSeat(row pgx.Row) (*domain.Seat, error) {
	var s domain.Seat
	if err := row.Scan(&s.ID, &s.FlightID, &s.SeatNumber, &s.Class, &s.IsAvailable); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanAirport(row pgx.Row) (*domain.Airport, error) {
	var a domain.Airport
	if err := row.Scan(&a.ID, &a.Code, &a.Name, &a.City, &a.Country); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAirline(row pgx.Row) (*domain.Airline, error) {
	var a domain.Airline
	if err := row.Scan(&a.ID, &a.Code, &a.Name); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.PNR, &b.PIN, &b.FlightID, &b.SeatID, &b.UserID, &b.Passenger.Name, &b.Passenger.Email,
		&b.Passenger.Phone, &b.PriceCents, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]T, error) {
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}
