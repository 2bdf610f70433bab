package repository

import (
	"errors"
	"fmt"

	"github.com/Domenick1991/flightbooker/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation      = "23505"
	pgCheckViolation       = "23514"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// Unique constraints guarding the booking code namespace.
var codeConstraints = map[string]bool{
	"booking_codes_pkey": true,
	"bookings_pnr_key":   true,
	"bookings_pin_key":   true,
}

// classify translates driver errors into domain error kinds.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		if codeConstraints[pgErr.ConstraintName] {
			return fmt.Errorf("%w (%s)", domain.ErrCodeTaken, pgErr.ConstraintName)
		}
		return fmt.Errorf("%w: unique constraint %s", domain.ErrConflict, pgErr.ConstraintName)
	case pgCheckViolation:
		return fmt.Errorf("%w: check constraint %s", domain.ErrSeatUnavailable, pgErr.ConstraintName)
	case pgSerializationFailure, pgDeadlockDetected:
		return fmt.Errorf("%w: %s", domain.ErrConflict, pgErr.Message)
	case pgLockNotAvailable:
		return fmt.Errorf("%w: %s", domain.ErrBusy, pgErr.Message)
	}
	return err
}
