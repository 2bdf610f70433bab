package repository

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Domenick1991/flightbooker/internal/domain"
	"github.com/Domenick1991/flightbooker/internal/identifier"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

type PGLedger struct {
	db          DB
	lockTimeout time.Duration
	logger      *logrus.Logger
}

// NewLedger returns a Postgres ledger. A positive lockTimeout bounds every
// row lock wait; an expired wait fails with domain.ErrBusy.
func NewLedger(db DB, lockTimeout time.Duration, logger *logrus.Logger) *PGLedger {
	return &PGLedger{db: db, lockTimeout: lockTimeout, logger: logger}
}

func (l *PGLedger) InTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", classify(err))
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			l.logger.WithError(err).Warn("ledger rollback failed")
		}
	}()

	if l.lockTimeout > 0 {
		timeout := fmt.Sprintf("%dms", l.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`, timeout); err != nil {
			return fmt.Errorf("set lock timeout: %w", classify(err))
		}
	}

	if err := fn(ctx, &pgLedgerTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", classify(err))
	}
	return nil
}

type pgLedgerTx struct {
	tx pgx.Tx
}

func (t *pgLedgerTx) LockFlight(ctx context.Context, flightID int64) (*domain.Flight, error) {
	f, err := scanFlight(t.tx.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1 FOR UPDATE`, flightID))
	if err != nil {
		return nil, fmt.Errorf("lock flight %d: %w", flightID, classify(err))
	}
	return f, nil
}

func (t *pgLedgerTx) LockSeat(ctx context.Context, seatID int64) (*domain.Seat, error) {
	s, err := scanSeat(t.tx.QueryRow(ctx, `SELECT `+seatColumns+` FROM seats WHERE id=$1 FOR UPDATE`, seatID))
	if err != nil {
		return nil, fmt.Errorf("lock seat %d: %w", seatID, classify(err))
	}
	return s, nil
}

func (t *pgLedgerTx) TakeSeat(ctx context.Context, flightID, seatID int64) error {
	tag, err := t.tx.Exec(ctx, `UPDATE seats SET is_available = false WHERE id=$1 AND flight_id=$2 AND is_available`, seatID, flightID)
	if err != nil {
		return fmt.Errorf("take seat %d: %w", seatID, classify(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("seat %d: %w", seatID, domain.ErrSeatUnavailable)
	}

	tag, err = t.tx.Exec(ctx, `UPDATE flights SET available_seats = available_seats - 1, updated_at = now()
		WHERE id=$1 AND available_seats > 0`, flightID)
	if err != nil {
		return fmt.Errorf("decrement flight %d: %w", flightID, classify(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("flight %d has no seats left: %w", flightID, domain.ErrSeatUnavailable)
	}
	return nil
}

func (t *pgLedgerTx) ClaimCode(ctx context.Context, kind identifier.Kind, code string) (bool, error) {
	tag, err := t.tx.Exec(ctx, `INSERT INTO booking_codes (kind, code) VALUES ($1, $2) ON CONFLICT DO NOTHING`, string(kind), code)
	if err != nil {
		return false, classify(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *pgLedgerTx) InsertBooking(ctx context.Context, b *domain.Booking) error {
	err := t.tx.QueryRow(ctx, `INSERT INTO bookings
		(pnr, pin, flight_id, seat_id, user_id, passenger_name, passenger_email, passenger_phone, price_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		b.PNR, b.PIN, b.FlightID, b.SeatID, b.UserID, b.Passenger.Name, b.Passenger.Email, b.Passenger.Phone, b.PriceCents, b.Status).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", classify(err))
	}
	return nil
}

func (t *pgLedgerTx) LockBookings(ctx context.Context, ids []int64) ([]domain.Booking, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, fmt.Errorf("lock bookings: %w", classify(err))
	}
	bookings, err := collect(rows, scanBooking)
	if err != nil {
		return nil, fmt.Errorf("lock bookings: %w", classify(err))
	}
	return bookings, nil
}

func (t *pgLedgerTx) ConfirmBookings(ctx context.Context, ids []int64) ([]domain.Booking, error) {
	rows, err := t.tx.Query(ctx, `UPDATE bookings SET status=$1, updated_at=now()
		WHERE id = ANY($2) AND status=$3
		RETURNING `+bookingColumns, domain.BookingStatusConfirmed, ids, domain.BookingStatusPending)
	if err != nil {
		return nil, fmt.Errorf("confirm bookings: %w", classify(err))
	}
	confirmed, err := collect(rows, scanBooking)
	if err != nil {
		return nil, fmt.Errorf("confirm bookings: %w", classify(err))
	}
	if len(confirmed) != len(ids) {
		return nil, fmt.Errorf("confirmed %d of %d bookings: %w", len(confirmed), len(ids), domain.ErrConflict)
	}
	slices.SortFunc(confirmed, func(a, b domain.Booking) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return confirmed, nil
}

var (
	_ Ledger   = (*PGLedger)(nil)
	_ LedgerTx = (*pgLedgerTx)(nil)
)
