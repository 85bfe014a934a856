// Package provider implements the read-only external data sources: weather
// forecasts, hotel rankings and rendered route maps. Successful responses
// are cached on disk keyed by their exact inputs; cache entries never
// expire.
package provider

import (
	"context"
	"errors"
	"time"

	dbt "tripbot/db/db"
)

// ErrUnavailable means the data cannot exist yet, e.g. a forecast asked
// for entirely beyond the horizon.
var ErrUnavailable = errors.New("data not available")

// ErrProvider covers upstream failures: HTTP errors, malformed payloads,
// timeouts. Callers degrade to an "unavailable" reply, never retry.
var ErrProvider = errors.New("provider error")

// ErrLocationNotFound means the hotel provider does not know the city.
var ErrLocationNotFound = errors.New("location not found")

// WeatherSummary condenses a city's forecast window.
type WeatherSummary struct {
	AvgDayTemp   float64
	AvgNightTemp float64
	// RainyDays lists ISO dates with precipitation probability above 50.
	RainyDays []string
}

// Hotel is one ranked search result. Stars is nil when the property has no
// star rating.
type Hotel struct {
	Name       string
	Stars      *float64
	UserRating float64
	Price      string
	Distance   float64
}

type WeatherService interface {
	Summary(ctx context.Context, cities []dbt.City, start, end time.Time) (map[string]WeatherSummary, error)
}

type HotelService interface {
	TopHotels(ctx context.Context, cities []dbt.City, start, end time.Time) (map[string][]Hotel, error)
}

type RouteService interface {
	MapPNG(ctx context.Context, cities []dbt.City) ([]byte, error)
}
