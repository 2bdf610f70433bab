package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooker/internal/domain"
	"github.com/Domenick1991/flightbooker/internal/identifier"
	"github.com/Domenick1991/flightbooker/internal/kafka"
	"github.com/Domenick1991/flightbooker/internal/pricing"
	"github.com/Domenick1991/flightbooker/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	GetByPNR(ctx context.Context, pnr string) (*domain.Booking, error)
	BoardingPass(ctx context.Context, pnr string) (*domain.BoardingPass, error)
	Settle(ctx context.Context, input SettleInput) (*Settlement, error)
}

type Cache interface {
	AcquireSeatHold(ctx context.Context, flightID, seatID int64, ttl time.Duration) (string, error)
	ReleaseSeatHold(ctx context.Context, flightID, seatID int64, token string) error
	InvalidateFlights(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type Pricer interface {
	Price(in pricing.Input, now time.Time) int64
}

type BookingService struct {
	ledger   repository.Ledger
	bookings repository.BookingRepository
	pricer   Pricer
	pnr      *identifier.Generator
	pin      *identifier.Generator
	validate *validator.Validate
	logger   *logrus.Logger
	now      func() time.Time

	cache   Cache
	holdTTL time.Duration

	producer           Producer
	bookingTopic       string
	notificationsTopic string

	maxAttempts  int
	retryBackoff time.Duration
}

type CreateBookingInput struct {
	FlightID       int64  `json:"flight_id" validate:"gt=0"`
	SeatID         int64  `json:"seat_id" validate:"gt=0"`
	UserID         *int64 `json:"user_id,omitempty" validate:"omitempty,gt=0"`
	PassengerName  string `json:"passenger_name" validate:"required,max=200"`
	PassengerEmail string `json:"passenger_email" validate:"required,email,max=200"`
	PassengerPhone string `json:"passenger_phone" validate:"omitempty,max=20"`
}

type BookingServiceOption func(*BookingService)

// WithCache enables the Redis seat hold and flight cache invalidation.
func WithCache(cache Cache, holdTTL time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.cache = cache
		s.holdTTL = holdTTL
	}
}

func WithProducer(producer Producer, bookingTopic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.bookingTopic = bookingTopic
	}
}

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

// WithRetry bounds how often a booking is retried after a code collision.
func WithRetry(maxAttempts int, backoff time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		if maxAttempts > 0 {
			s.maxAttempts = maxAttempts
		}
		s.retryBackoff = backoff
	}
}

func WithIdentifierGenerators(pnr, pin *identifier.Generator) BookingServiceOption {
	return func(s *BookingService) {
		s.pnr = pnr
		s.pin = pin
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	ledger repository.Ledger,
	bookings repository.BookingRepository,
	pricer Pricer,
	logger *logrus.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		ledger:       ledger,
		bookings:     bookings,
		pricer:       pricer,
		pnr:          identifier.NewPNRGenerator(),
		pin:          identifier.NewPINGenerator(),
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		logger:       logger,
		now:          time.Now,
		holdTTL:      30 * time.Second,
		maxAttempts:  3,
		retryBackoff: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking sells one seat. Availability is checked only under the
// flight and seat row locks; the price is computed from the counter before
// the decrement. Any failure leaves the ledger untouched.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if err := s.validateStruct(input); err != nil {
		return nil, err
	}
	log := s.logger.WithFields(logrus.Fields{"flight_id": input.FlightID, "seat_id": input.SeatID})

	if s.cache != nil {
		token, err := s.cache.AcquireSeatHold(ctx, input.FlightID, input.SeatID, s.holdTTL)
		switch {
		case err != nil:
			log.WithError(err).Warn("seat hold unavailable, relying on row locks")
		case token == "":
			return nil, fmt.Errorf("seat %d is being booked by another request: %w", input.SeatID, domain.ErrConflict)
		default:
			defer func() {
				if err := s.cache.ReleaseSeatHold(context.WithoutCancel(ctx), input.FlightID, input.SeatID, token); err != nil {
					log.WithError(err).Warn("release seat hold")
				}
			}()
		}
	}

	var (
		created *domain.Booking
		pass    domain.BoardingPass
	)
	err := s.retryOnCodeCollision(ctx, log, func() error {
		var err error
		created, pass, err = s.createInTx(ctx, input)
		return err
	})
	if err != nil {
		log.WithError(err).Info("booking rejected")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"booking_id":  created.ID,
		"pnr":         created.PNR,
		"price_cents": created.PriceCents,
	}).Info("booking created")

	if s.cache != nil {
		if err := s.cache.InvalidateFlights(ctx); err != nil {
			log.WithError(err).Warn("invalidate flights cache")
		}
	}
	if err := s.publish(ctx, kafka.EventBookingCreated, created, pass); err != nil {
		log.WithError(err).WithField("pnr", created.PNR).Warn("failed to publish booking_created event")
	}
	return created, nil
}

func (s *BookingService) createInTx(ctx context.Context, input CreateBookingInput) (*domain.Booking, domain.BoardingPass, error) {
	var (
		created *domain.Booking
		pass    domain.BoardingPass
	)
	err := s.ledger.InTx(ctx, func(ctx context.Context, tx repository.LedgerTx) error {
		flight, err := tx.LockFlight(ctx, input.FlightID)
		if err != nil {
			return err
		}

		seat, err := tx.LockSeat(ctx, input.SeatID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("seat %d does not exist: %w", input.SeatID, domain.ErrSeatUnavailable)
			}
			return err
		}
		if seat.FlightID != flight.ID {
			return fmt.Errorf("seat %d does not belong to flight %d: %w", seat.ID, flight.ID, domain.ErrSeatUnavailable)
		}
		if !seat.IsAvailable {
			return fmt.Errorf("seat %s on flight %s is taken: %w", seat.SeatNumber, flight.FlightNumber, domain.ErrSeatUnavailable)
		}

		price := s.pricer.Price(pricing.Input{
			BasePriceCents: flight.BasePriceCents,
			TotalSeats:     flight.TotalSeats,
			AvailableSeats: flight.AvailableSeats,
			DepartureTime:  flight.DepartureTime,
		}, s.now())

		if err := tx.TakeSeat(ctx, flight.ID, seat.ID); err != nil {
			return err
		}

		pnr, err := s.pnr.Claim(ctx, tx)
		if err != nil {
			return err
		}
		pin, err := s.pin.Claim(ctx, tx)
		if err != nil {
			return err
		}

		b := &domain.Booking{
			PNR:      pnr,
			PIN:      pin,
			FlightID: flight.ID,
			SeatID:   seat.ID,
			UserID:   input.UserID,
			Passenger: domain.Passenger{
				Name:  input.PassengerName,
				Email: input.PassengerEmail,
				Phone: input.PassengerPhone,
			},
			PriceCents: price,
			Status:     domain.BookingStatusPending,
		}
		if err := tx.InsertBooking(ctx, b); err != nil {
			return err
		}

		created = b
		pass = domain.BoardingPass{PNR: pnr, PIN: pin, FlightNumber: flight.FlightNumber, SeatNumber: seat.SeatNumber}
		return nil
	})
	if err != nil {
		return nil, domain.BoardingPass{}, err
	}
	return created, pass, nil
}

// retryOnCodeCollision reruns fn while the store rejects a generated code.
// Every other error, including a lost seat race, is returned as is.
func (s *BookingService) retryOnCodeCollision(ctx context.Context, log *logrus.Entry, fn func() error) error {
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err = fn(); err == nil || !errors.Is(err, domain.ErrCodeTaken) {
			return err
		}
		log.WithError(err).WithField("attempt", attempt).Warn("booking code collision, retrying")

		if attempt < s.maxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * s.retryBackoff):
			}
		}
	}
	return err
}

func (s *BookingService) GetByPNR(ctx context.Context, pnr string) (*domain.Booking, error) {
	if !s.pnr.Valid(normalizePNR(pnr)) {
		return nil, fmt.Errorf("%w: malformed PNR %q", domain.ErrValidation, pnr)
	}
	return s.bookings.GetByPNR(ctx, normalizePNR(pnr))
}

func (s *BookingService) BoardingPass(ctx context.Context, pnr string) (*domain.BoardingPass, error) {
	if !s.pnr.Valid(normalizePNR(pnr)) {
		return nil, fmt.Errorf("%w: malformed PNR %q", domain.ErrValidation, pnr)
	}
	return s.bookings.BoardingPass(ctx, normalizePNR(pnr))
}

func normalizePNR(pnr string) string {
	return strings.ToUpper(strings.TrimSpace(pnr))
}

func (s *BookingService) validateStruct(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(msgs, "; "))
}

func (s *BookingService) publish(ctx context.Context, eventType string, b *domain.Booking, pass domain.BoardingPass) error {
	if s.producer == nil || s.bookingTopic == "" {
		return nil
	}
	event := kafka.NewBookingEvent(eventType, b, pass)
	if err := s.producer.Publish(ctx, s.bookingTopic, b.PNR, event); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		return s.producer.Publish(ctx, s.notificationsTopic, b.PNR, event)
	}
	return nil
}

var _ BookingUseCase = (*BookingService)(nil)
