package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrSeatUnavailable = errors.New("seat unavailable")
	ErrConflict        = errors.New("conflict")
	ErrAlreadySettled  = errors.New("bookings already settled")
	ErrInvalidState    = errors.New("bookings not in pending status")
	ErrPartialConflict = errors.New("some bookings are not pending")
	ErrBusy            = errors.New("resource busy")
	ErrValidation      = errors.New("validation failed")

	// ErrCodeTaken reports a PNR or PIN collision detected by the store.
	// A fresh attempt with new codes is safe.
	ErrCodeTaken = fmt.Errorf("%w: booking code already taken", ErrConflict)
)

// BatchError names the bookings that caused a batch operation to fail.
// IDsByStatus is filled for ErrInvalidState.
type BatchError struct {
	Kind        error
	IDs         []int64
	IDsByStatus map[BookingStatus][]int64
}

func (e *BatchError) Error() string {
	if len(e.IDsByStatus) > 0 {
		statuses := make([]string, 0, len(e.IDsByStatus))
		for s := range e.IDsByStatus {
			statuses = append(statuses, string(s))
		}
		sort.Strings(statuses)
		parts := make([]string, 0, len(statuses))
		for _, s := range statuses {
			parts = append(parts, fmt.Sprintf("%s=%v", s, e.IDsByStatus[BookingStatus(s)]))
		}
		return fmt.Sprintf("%s: %s", e.Kind, strings.Join(parts, " "))
	}
	return fmt.Sprintf("%s: ids %v", e.Kind, e.IDs)
}

func (e *BatchError) Unwrap() error {
	return e.Kind
}
