package flow

import (
	"errors"
	"strings"
	"time"

	dbt "tripbot/db/db"
)

const similarCityLimit = 20

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ValidateAge accepts all-digit strings strictly between 0 and 100.
func ValidateAge(age string) bool {
	if !isDigits(age) {
		return false
	}
	n := 0
	for _, r := range age {
		n = n*10 + int(r-'0')
		if n >= 100 {
			return false
		}
	}
	return n > 0
}

// ValidateDescription rejects text that is empty after trimming.
func ValidateDescription(description string) bool {
	return strings.TrimSpace(description) != ""
}

// ValidatePurchase accepts non-negative integer strings.
func ValidatePurchase(price string) bool {
	return isDigits(price)
}

// ParseDate parses the user-facing DD.MM.YYYY format.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// ValidateDates checks both dates parse, start is not after end, and start
// is not before today. The comparison is on calendar dates.
func ValidateDates(start, end string, today time.Time) bool {
	s, err := ParseDate(start)
	if err != nil {
		return false
	}
	e, err := ParseDate(end)
	if err != nil {
		return false
	}
	if s.After(e) {
		return false
	}
	return !dbt.Date(s).Before(dbt.Date(today))
}

// ValidateTripName is true when the owner has no trip with that name yet.
func ValidateTripName(store dbt.TripDB, name string, ownerID int64) bool {
	_, err := store.GetOwnedTrip(name, ownerID)
	return errors.Is(err, dbt.ErrNotFound)
}

// ValidateCity reports whether any city matches the name exactly; on a
// miss it returns up to 20 substring-matched suggestions.
func ValidateCity(store dbt.GeoDB, name string) (bool, []dbt.City) {
	found, err := store.GetCitiesByName(name)
	if err == nil && len(found) > 0 {
		return true, nil
	}
	hints, err := store.GetSimilarCities(name, similarCityLimit)
	if err != nil {
		return false, nil
	}
	return false, hints
}

// ValidateCountry checks exact-name existence.
func ValidateCountry(store dbt.GeoDB, name string) bool {
	_, err := store.GetCountryByName(name)
	return err == nil
}

// ValidateUsername checks that the named user is registered.
func ValidateUsername(store dbt.UserDB, username string) bool {
	_, err := store.GetUserByUsername(username)
	return err == nil
}
