package db

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by lookups when no row matches. Callers check it
// with errors.Is; conversation handlers turn it into a re-prompt.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert would violate a uniqueness
// constraint (user already registered, user already invited).
var ErrDuplicate = errors.New("already exists")

type UserDB interface {
	CreateUser(u *User) error
	GetUser(id int64) (*User, error)
	GetUserByUsername(username string) (*User, error)
}

// GeoDB serves the read-only city/country reference tables.
type GeoDB interface {
	GetCity(id int) (*City, error)
	GetCitiesByName(name string) ([]City, error)
	// GetSimilarCities does a case-insensitive substring match,
	// returning at most limit rows.
	GetSimilarCities(name string, limit int) ([]City, error)
	GetCountryByName(name string) (*Country, error)
}

type TripDB interface {
	CreateTrip(t *Trip) error
	// GetOwnedTrip looks a trip up by (name, owner).
	GetOwnedTrip(name string, ownerID int64) (*Trip, error)
	// GetAccessibleTrip looks a trip up by name among trips the user
	// owns or is invited to.
	GetAccessibleTrip(name string, userID int64) (*Trip, error)
	GetOwnedTrips(ownerID int64) ([]Trip, error)
	GetInvitedTrips(userID int64) ([]Trip, error)
	SetTripName(id uuid.UUID, name string) error
	SetTripDescription(id uuid.UUID, description string) error
	SetTripDates(id uuid.UUID, start, end time.Time) error
	DeleteTrip(id uuid.UUID) error

	AddTripCity(tripID uuid.UUID, cityID int) error
	RemoveTripCities(tripID uuid.UUID) error
	GetTripCities(tripID uuid.UUID) ([]City, error)

	InviteUser(tripID uuid.UUID, userID int64) error
	RemoveTripUser(tripID uuid.UUID, userID int64) error
	RemoveTripUsers(tripID uuid.UUID) error
	GetTripUsers(tripID uuid.UUID) ([]User, error)
}

type NoteDB interface {
	AddNote(n *Note) error
	GetTripNotes(tripID uuid.UUID) ([]Note, error)
	DeleteNote(id uuid.UUID) error
}

type PurchaseDB interface {
	AddPurchase(p *Purchase) error
	// GetUserPurchases returns every purchase the user ever logged,
	// across all trips. The "see purchases" feature aggregates on this.
	GetUserPurchases(userID int64) ([]Purchase, error)
	GetUserPurchaseTotal(userID int64) (int, error)
}

// Store is the full persistence capability handed to conversation handlers.
type Store interface {
	UserDB
	GeoDB
	TripDB
	NoteDB
	PurchaseDB
}
