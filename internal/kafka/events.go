package kafka

import (
	"time"

	"github.com/Domenick1991/flightbooker/internal/domain"
	"github.com/google/uuid"
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingConfirmed = "booking_confirmed"
)

type BookingEvent struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	BookingID    int64     `json:"booking_id"`
	PNR          string    `json:"pnr"`
	PIN          string    `json:"pin"`
	FlightID     int64     `json:"flight_id"`
	FlightNumber string    `json:"flight_number"`
	SeatID       int64     `json:"seat_id"`
	SeatNumber   string    `json:"seat_number"`
	Email        string    `json:"email"`
	Status       string    `json:"status"`
	PriceCents   int64     `json:"price_cents"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func NewBookingEvent(eventType string, b *domain.Booking, pass domain.BoardingPass) BookingEvent {
	return BookingEvent{
		ID:           uuid.NewString(),
		Type:         eventType,
		BookingID:    b.ID,
		PNR:          b.PNR,
		PIN:          b.PIN,
		FlightID:     b.FlightID,
		FlightNumber: pass.FlightNumber,
		SeatID:       b.SeatID,
		SeatNumber:   pass.SeatNumber,
		Email:        b.Passenger.Email,
		Status:       string(b.Status),
		PriceCents:   b.PriceCents,
		OccurredAt:   time.Now().UTC(),
	}
}

func (e BookingEvent) BoardingPass() domain.BoardingPass {
	return domain.BoardingPass{
		PNR:          e.PNR,
		PIN:          e.PIN,
		FlightNumber: e.FlightNumber,
		SeatNumber:   e.SeatNumber,
	}
}
