package db

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered traveler. The ID comes from the external messaging
// platform, so the store never generates it.
type User struct {
	ID          int64
	Username    string
	CityID      int
	CityName    string
	CountryID   int
	CountryName string
	Age         int
	Bio         string
	Registered  time.Time
}

// City is read-only reference data. Several cities may share a name;
// disambiguation happens at the conversation level.
type City struct {
	ID          int
	Name        string
	StateName   string
	StateCode   string
	CountryName string
	CountryCode string
	CountryID   int
	Latitude    float64
	Longitude   float64
}

// Country is read-only reference data looked up by exact name.
type Country struct {
	ID           int
	Name         string
	ISO3         string
	ISO2         string
	Capital      string
	Currency     string
	CurrencyName string
	Region       string
	Subregion    string
	Latitude     float64
	Longitude    float64
}

// Trip names are unique per owner, not globally.
type Trip struct {
	ID          uuid.UUID
	OwnerID     int64
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
}

type Note struct {
	ID       uuid.UUID
	TripID   uuid.UUID
	AuthorID int64
	Public   bool
	Text     string
}

// Purchase is an append-only ledger entry. No update or delete path exists.
type Purchase struct {
	ID     uuid.UUID
	TripID uuid.UUID
	UserID int64
	Price  int
	Note   string
	OnDate time.Time
}

// Date truncates t to a calendar date. Trip dates carry no time of day.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
