package ledger_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbt "tripbot/db/db"
	"tripbot/db/mem"
	"tripbot/ledger"
)

func TestCollect(t *testing.T) {
	s := mem.NewInMemoryStore()
	require.NoError(t, s.CreateUser(&dbt.User{ID: 1, Username: "ann"}))
	require.NoError(t, s.CreateUser(&dbt.User{ID: 2, Username: "bob"}))
	require.NoError(t, s.CreateUser(&dbt.User{ID: 3, Username: "cat"}))

	trip := &dbt.Trip{ID: uuid.New(), OwnerID: 1, Name: "Summer"}
	require.NoError(t, s.CreateTrip(trip))
	require.NoError(t, s.InviteUser(trip.ID, 2))
	require.NoError(t, s.InviteUser(trip.ID, 3))

	day := time.Date(2099, 8, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.AddPurchase(&dbt.Purchase{ID: uuid.New(), TripID: trip.ID, UserID: 1, Price: 10, OnDate: day}))
	require.NoError(t, s.AddPurchase(&dbt.Purchase{ID: uuid.New(), TripID: trip.ID, UserID: 1, Price: 15, OnDate: day.Add(time.Hour)}))
	require.NoError(t, s.AddPurchase(&dbt.Purchase{ID: uuid.New(), TripID: trip.ID, UserID: 2, Price: 7, OnDate: day}))
	// cat bought nothing and is skipped.

	people, err := ledger.Collect(s, trip)
	require.NoError(t, err)
	require.Len(t, people, 2)

	// Owner first, invited users after.
	assert.Equal(t, "ann", people[0].User.Username)
	assert.Len(t, people[0].Purchases, 2)
	assert.Equal(t, 25, people[0].Total)

	assert.Equal(t, "bob", people[1].User.Username)
	assert.Equal(t, 7, people[1].Total)

	assert.Equal(t, 32, ledger.GrandTotal(people))
}

func TestCollectEmptyTrip(t *testing.T) {
	s := mem.NewInMemoryStore()
	require.NoError(t, s.CreateUser(&dbt.User{ID: 1, Username: "ann"}))
	trip := &dbt.Trip{ID: uuid.New(), OwnerID: 1, Name: "Summer"}
	require.NoError(t, s.CreateTrip(trip))

	people, err := ledger.Collect(s, trip)
	require.NoError(t, err)
	assert.Empty(t, people)
	assert.Zero(t, ledger.GrandTotal(people))
}

// A participant's sub-ledger is keyed by user, not trip: entries from other
// trips count too.
func TestCollectSpansTrips(t *testing.T) {
	s := mem.NewInMemoryStore()
	require.NoError(t, s.CreateUser(&dbt.User{ID: 1, Username: "ann"}))
	tripA := &dbt.Trip{ID: uuid.New(), OwnerID: 1, Name: "A"}
	tripB := &dbt.Trip{ID: uuid.New(), OwnerID: 1, Name: "B"}
	require.NoError(t, s.CreateTrip(tripA))
	require.NoError(t, s.CreateTrip(tripB))

	day := time.Date(2099, 8, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.AddPurchase(&dbt.Purchase{ID: uuid.New(), TripID: tripB.ID, UserID: 1, Price: 99, OnDate: day}))

	people, err := ledger.Collect(s, tripA)
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Equal(t, 99, people[0].Total)
}
