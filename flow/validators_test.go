package flow_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbt "tripbot/db/db"
	"tripbot/db/mem"
	"tripbot/flow"
)

func TestValidateAge(t *testing.T) {
	valid := []string{"1", "18", "99"}
	for _, age := range valid {
		assert.True(t, flow.ValidateAge(age), "age %q should be valid", age)
	}

	invalid := []string{"", "0", "100", "150", "-5", "abc", "1.5", " 20"}
	for _, age := range invalid {
		assert.False(t, flow.ValidateAge(age), "age %q should be invalid", age)
	}
}

func TestValidateDescription(t *testing.T) {
	assert.True(t, flow.ValidateDescription("a trip"))
	assert.False(t, flow.ValidateDescription(""))
	assert.False(t, flow.ValidateDescription("   \t"))
}

func TestValidatePurchase(t *testing.T) {
	assert.True(t, flow.ValidatePurchase("0"))
	assert.True(t, flow.ValidatePurchase("1250"))
	assert.False(t, flow.ValidatePurchase(""))
	assert.False(t, flow.ValidatePurchase("-3"))
	assert.False(t, flow.ValidatePurchase("12.50"))
}

func TestValidateDates(t *testing.T) {
	today := time.Date(2026, 9, 1, 15, 30, 0, 0, time.UTC)

	// Today itself counts as a valid start even though the clock has moved
	// past midnight.
	assert.True(t, flow.ValidateDates("01.09.2026", "10.09.2026", today))
	assert.True(t, flow.ValidateDates("05.09.2026", "05.09.2026", today))

	// Start after end.
	assert.False(t, flow.ValidateDates("10.09.2026", "01.09.2026", today))
	// Start in the past.
	assert.False(t, flow.ValidateDates("31.08.2026", "10.09.2026", today))
	// Unparseable input.
	assert.False(t, flow.ValidateDates("2026-09-01", "10.09.2026", today))
	assert.False(t, flow.ValidateDates("01.09.2026", "soon", today))
}

func TestValidateTripName(t *testing.T) {
	store := mem.NewInMemoryStore()
	require.NoError(t, store.CreateUser(&dbt.User{ID: 1, Username: "ann"}))
	require.NoError(t, store.CreateUser(&dbt.User{ID: 2, Username: "bob"}))
	require.NoError(t, store.CreateTrip(&dbt.Trip{ID: newUUID(t), OwnerID: 1, Name: "Summer"}))

	assert.False(t, flow.ValidateTripName(store, "Summer", 1), "owner already has a trip with this name")
	assert.True(t, flow.ValidateTripName(store, "Winter", 1))
	// Uniqueness is per owner, not global.
	assert.True(t, flow.ValidateTripName(store, "Summer", 2))
}

func TestValidateCity(t *testing.T) {
	store := mem.NewInMemoryStore()
	store.AddCity(dbt.City{ID: 1, Name: "Paris", CountryName: "France"})
	store.AddCity(dbt.City{ID: 2, Name: "Parintins", CountryName: "Brazil"})

	ok, hints := flow.ValidateCity(store, "Paris")
	assert.True(t, ok)
	assert.Empty(t, hints)

	ok, hints = flow.ValidateCity(store, "Pari")
	assert.False(t, ok)
	require.Len(t, hints, 2)
}

func TestValidateCountry(t *testing.T) {
	store := mem.NewInMemoryStore()
	store.AddCountry(dbt.Country{ID: 1, Name: "France"})

	assert.True(t, flow.ValidateCountry(store, "France"))
	assert.False(t, flow.ValidateCountry(store, "Atlantis"))
}

func TestValidateUsername(t *testing.T) {
	store := mem.NewInMemoryStore()
	require.NoError(t, store.CreateUser(&dbt.User{ID: 1, Username: "ann"}))

	assert.True(t, flow.ValidateUsername(store, "ann"))
	assert.False(t, flow.ValidateUsername(store, "ghost"))
}
