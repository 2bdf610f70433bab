package email

import (
	"context"
	"errors"

	"github.com/Domenick1991/flightbooker/internal/kafka"
	"github.com/sirupsen/logrus"
)

// Sender stands in for the mail gateway: it writes the message it would send
// to the log. Confirmed bookings carry the boarding-pass payload that the QR
// renderer encodes.
type Sender struct {
	logger *logrus.Logger
}

func NewSender(logger *logrus.Logger) *Sender {
	return &Sender{logger: logger}
}

type Message struct {
	To      string
	Subject string
	QRData  string
}

func Compose(event kafka.BookingEvent) (Message, error) {
	if event.Email == "" {
		return Message{}, errors.New("booking event without recipient")
	}

	switch event.Type {
	case kafka.EventBookingCreated:
		return Message{
			To:      event.Email,
			Subject: "Booking " + event.PNR + " is awaiting payment",
		}, nil
	case kafka.EventBookingConfirmed:
		return Message{
			To:      event.Email,
			Subject: "Your boarding pass for flight " + event.FlightNumber,
			QRData:  event.BoardingPass().Payload(),
		}, nil
	default:
		return Message{}, errors.New("unsupported booking event " + event.Type)
	}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	msg, err := Compose(event)
	if err != nil {
		s.logger.WithError(err).WithField("event_id", event.ID).Warn("skip notification")
		return nil
	}

	s.logger.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
		"pnr":     event.PNR,
		"qr":      msg.QRData != "",
	}).Info("send email")
	return nil
}
