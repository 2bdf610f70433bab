package domain

import "time"

type Flight struct {
	ID             int64     `json:"id"`
	FlightNumber   string    `json:"flight_number"`
	Airline        string    `json:"airline"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	DepartureTime  time.Time `json:"departure_time"`
	ArrivalTime    time.Time `json:"arrival_time"`
	AircraftType   string    `json:"aircraft_type"`
	BasePriceCents int64     `json:"base_price_cents"`
	TotalSeats     int       `json:"total_seats"`
	AvailableSeats int       `json:"available_seats"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Duration is the scheduled block time of the flight.
func (f Flight) Duration() time.Duration {
	return f.ArrivalTime.Sub(f.DepartureTime)
}

type SeatClass string

const (
	SeatClassEconomy  SeatClass = "economy"
	SeatClassBusiness SeatClass = "business"
	SeatClassFirst    SeatClass = "first"
)

type Seat struct {
	ID          int64     `json:"id"`
	FlightID    int64     `json:"flight_id"`
	SeatNumber  string    `json:"seat_number"`
	Class       SeatClass `json:"seat_class"`
	IsAvailable bool      `json:"is_available"`
}

type Airport struct {
	ID      int64  `json:"id"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	City    string `json:"city"`
	Country string `json:"country"`
}

type Airline struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Directory is the reference data flights point to by code.
type Directory struct {
	Airports []Airport `json:"airports"`
	Airlines []Airline `json:"airlines"`
}

// Airport returns the airport with the given code, or one carrying only the
// code when the directory does not know it.
func (d Directory) Airport(code string) Airport {
	for _, a := range d.Airports {
		if a.Code == code {
			return a
		}
	}
	return Airport{Code: code}
}

func (d Directory) Airline(code string) Airline {
	for _, a := range d.Airlines {
		if a.Code == code {
			return a
		}
	}
	return Airline{Code: code}
}
