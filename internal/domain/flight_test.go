package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFlight_Duration(t *testing.T) {
	dep := time.Date(2026, 5, 11, 7, 30, 0, 0, time.UTC)
	f := Flight{DepartureTime: dep, ArrivalTime: dep.Add(95 * time.Minute)}
	assert.Equal(t, 95*time.Minute, f.Duration())
}

func TestDirectory_Lookup(t *testing.T) {
	dir := Directory{
		Airports: []Airport{{ID: 3, Code: "SVO", Name: "Sheremetyevo", City: "Moscow", Country: "Russia"}},
		Airlines: []Airline{{ID: 2, Code: "SU", Name: "Aeroflot"}},
	}

	assert.Equal(t, "Moscow", dir.Airport("SVO").City)
	assert.Equal(t, Airport{Code: "VKO"}, dir.Airport("VKO"))
	assert.Equal(t, "Aeroflot", dir.Airline("SU").Name)
	assert.Equal(t, Airline{Code: "DP"}, dir.Airline("DP"))
}
