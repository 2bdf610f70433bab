package booking

import (
	"context"
	"slices"

	"github.com/Domenick1991/flightbooker/internal/domain"
	"github.com/Domenick1991/flightbooker/internal/kafka"
	"github.com/Domenick1991/flightbooker/internal/repository"
	"github.com/sirupsen/logrus"
)

type SettleInput struct {
	BookingIDs []int64 `json:"booking_ids" validate:"required,min=1,dive,gt=0"`
	// PaymentMethod is recorded as metadata only.
	PaymentMethod string `json:"payment_method" validate:"max=50"`
}

type Settlement struct {
	Bookings      []domain.Booking
	TotalCents    int64
	PaymentMethod string
}

// Settle confirms a batch of pending bookings. The batch is rejected as a
// whole unless every requested booking exists and is pending.
func (s *BookingService) Settle(ctx context.Context, input SettleInput) (*Settlement, error) {
	if err := s.validateStruct(input); err != nil {
		return nil, err
	}

	ids := slices.Clone(input.BookingIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	log := s.logger.WithFields(logrus.Fields{"booking_ids": ids, "payment_method": input.PaymentMethod})

	var confirmed []domain.Booking
	err := s.ledger.InTx(ctx, func(ctx context.Context, tx repository.LedgerTx) error {
		loaded, err := tx.LockBookings(ctx, ids)
		if err != nil {
			return err
		}
		if err := decideSettlement(ids, loaded); err != nil {
			return err
		}
		confirmed, err = tx.ConfirmBookings(ctx, ids)
		return err
	})
	if err != nil {
		log.WithError(err).Info("settlement rejected")
		return nil, err
	}

	result := &Settlement{Bookings: confirmed, PaymentMethod: input.PaymentMethod}
	for _, b := range confirmed {
		result.TotalCents += b.PriceCents
	}
	log.WithField("total_cents", result.TotalCents).Info("bookings settled")

	for i := range confirmed {
		s.publishConfirmed(ctx, log, &confirmed[i])
	}
	return result, nil
}

func (s *BookingService) publishConfirmed(ctx context.Context, log *logrus.Entry, b *domain.Booking) {
	if s.producer == nil {
		return
	}
	pass, err := s.bookings.BoardingPass(ctx, b.PNR)
	if err != nil {
		log.WithError(err).WithField("pnr", b.PNR).Warn("load boarding pass for event")
		pass = &domain.BoardingPass{PNR: b.PNR, PIN: b.PIN}
	}
	if err := s.publish(ctx, kafka.EventBookingConfirmed, b, *pass); err != nil {
		log.WithError(err).WithField("pnr", b.PNR).Warn("failed to publish booking_confirmed event")
	}
}

// decideSettlement is the validation pass over the locked rows. It returns
// nil only when every requested id was loaded and is pending; no row is
// written before it has decided.
func decideSettlement(requested []int64, loaded []domain.Booking) error {
	found := make(map[int64]bool, len(loaded))
	for _, b := range loaded {
		found[b.ID] = true
	}
	var missing []int64
	for _, id := range requested {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return &domain.BatchError{Kind: domain.ErrNotFound, IDs: missing}
	}

	var pending, notPending []int64
	byStatus := make(map[domain.BookingStatus][]int64)
	for _, b := range loaded {
		if b.Status == domain.BookingStatusPending {
			pending = append(pending, b.ID)
			continue
		}
		notPending = append(notPending, b.ID)
		byStatus[b.Status] = append(byStatus[b.Status], b.ID)
	}

	switch {
	case len(pending) == 0 && len(byStatus) == 1 && len(byStatus[domain.BookingStatusConfirmed]) > 0:
		return &domain.BatchError{Kind: domain.ErrAlreadySettled, IDs: notPending}
	case len(pending) == 0:
		return &domain.BatchError{Kind: domain.ErrInvalidState, IDs: notPending, IDsByStatus: byStatus}
	case len(notPending) > 0:
		return &domain.BatchError{Kind: domain.ErrPartialConflict, IDs: notPending}
	}
	return nil
}
