// Package pricing computes dynamic fares from occupancy and time to departure.
package pricing

import (
	"math"
	"math/rand/v2"
	"time"
)

type Trend string

const (
	TrendLow      Trend = "low"
	TrendModerate Trend = "moderate"
	TrendHigh     Trend = "high"
)

const (
	MinJitter = 0.95
	MaxJitter = 1.05
)

// Input is the flight state a price is computed from.
type Input struct {
	BasePriceCents int64
	TotalSeats     int
	AvailableSeats int
	DepartureTime  time.Time
}

// Calculator samples a fresh jitter on every call. Quotes are never cached,
// so two calls for the same flight at the same instant may differ.
type Calculator struct {
	jitter func() float64
}

type Option func(*Calculator)

// WithJitter replaces the random jitter source.
func WithJitter(fn func() float64) Option {
	return func(c *Calculator) {
		c.jitter = fn
	}
}

func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{jitter: randomJitter}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Calculator) Price(in Input, now time.Time) int64 {
	return Quote(in, now, c.jitter())
}

func (c *Calculator) Trend(totalSeats, availableSeats int) Trend {
	return TrendFor(totalSeats, availableSeats)
}

// Quote is the deterministic part of the pricing rule, rounded to the cent.
// A positive base price never yields a zero fare.
func Quote(in Input, now time.Time, jitter float64) int64 {
	occupancy := Occupancy(in.TotalSeats, in.AvailableSeats)
	hours := in.DepartureTime.Sub(now).Hours()

	price := float64(in.BasePriceCents) * demandMultiplier(occupancy) * timeMultiplier(hours) * jitter
	cents := int64(math.Round(price))
	if in.BasePriceCents > 0 && cents < 1 {
		cents = 1
	}
	return cents
}

func TrendFor(totalSeats, availableSeats int) Trend {
	occupancy := Occupancy(totalSeats, availableSeats)
	switch {
	case occupancy < 0.5:
		return TrendLow
	case occupancy < 0.8:
		return TrendModerate
	default:
		return TrendHigh
	}
}

// Occupancy is the sold fraction of the cabin, 0 for a flight without seats.
func Occupancy(totalSeats, availableSeats int) float64 {
	if totalSeats <= 0 {
		return 0
	}
	return float64(totalSeats-availableSeats) / float64(totalSeats)
}

func demandMultiplier(occupancy float64) float64 {
	switch {
	case occupancy < 0.3:
		return 0.85
	case occupancy < 0.5:
		return 1.0
	case occupancy < 0.7:
		return 1.15
	case occupancy < 0.9:
		return 1.35
	default:
		return 1.65
	}
}

// Past departures land in the first bracket.
func timeMultiplier(hours float64) float64 {
	switch {
	case hours < 24:
		return 1.5
	case hours < 48:
		return 1.3
	case hours < 168:
		return 1.1
	case hours < 720:
		return 1.0
	default:
		return 0.9
	}
}

func randomJitter() float64 {
	return MinJitter + rand.Float64()*(MaxJitter-MinJitter)
}
