package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/flightbooker/internal/domain"
)

type PGFlightRepository struct {
	db DB
}

func NewFlightRepository(db DB) FlightRepository {
	return &PGFlightRepository{db: db}
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	return r.Search(ctx, FlightFilter{})
}

func (r *PGFlightRepository) Search(ctx context.Context, filter FlightFilter) ([]domain.Flight, error) {
	query, args := searchQuery(filter)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanFlight)
}

func searchQuery(filter FlightFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Origin != "" {
		add("origin_code = upper($%d)", filter.Origin)
	}
	if filter.Destination != "" {
		add("destination_code = upper($%d)", filter.Destination)
	}
	if filter.Airline != "" {
		add("airline_code = upper($%d)", filter.Airline)
	}
	if filter.Date != nil {
		from, to := filter.dayBounds()
		add("departure_time >= $%d", from)
		add("departure_time < $%d", to)
	}

	query := `SELECT ` + flightColumns + ` FROM flights`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	return query + ` ORDER BY departure_time`, args
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	f, err := scanFlight(r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id))
	if err != nil {
		return nil, fmt.Errorf("flight %d: %w", id, classify(err))
	}
	return f, nil
}

func (r *PGFlightRepository) ListSeats(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	rows, err := r.db.Query(ctx, `SELECT `+seatColumns+` FROM seats WHERE flight_id=$1 ORDER BY seat_number`, flightID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanSeat)
}

func (r *PGFlightRepository) ListAirports(ctx context.Context) ([]domain.Airport, error) {
	rows, err := r.db.Query(ctx, `SELECT `+airportColumns+` FROM airports ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list airports: %w", err)
	}
	return collect(rows, scanAirport)
}

func (r *PGFlightRepository) ListAirlines(ctx context.Context) ([]domain.Airline, error) {
	rows, err := r.db.Query(ctx, `SELECT `+airlineColumns+` FROM airlines ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list airlines: %w", err)
	}
	return collect(rows, scanAirline)
}

var _ FlightRepository = (*PGFlightRepository)(nil)
