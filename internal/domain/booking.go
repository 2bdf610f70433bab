package domain

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
)

type Passenger struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Booking struct {
	ID         int64
	PNR        string
	PIN        string
	FlightID   int64
	SeatID     int64
	UserID     *int64
	Passenger  Passenger
	PriceCents int64
	Status     BookingStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BoardingPass is the opaque payload handed to the QR renderer.
type BoardingPass struct {
	PNR          string
	PIN          string
	FlightNumber string
	SeatNumber   string
}

func (p BoardingPass) Payload() string {
	return fmt.Sprintf("PNR:%s|PIN:%s|Flight:%s|Seat:%s", p.PNR, p.PIN, p.FlightNumber, p.SeatNumber)
}
