// Package ledger aggregates the purchase entries around a trip: one
// sub-ledger per participant (owner plus invited users) with a running
// total. Purchases are recorded per user, not per trip, so a person's
// sub-ledger spans all their trips; the totals reflect that.
package ledger

import (
	"fmt"

	dbt "tripbot/db/db"
)

// Person is one participant's share of the ledger.
type Person struct {
	User      dbt.User
	Purchases []dbt.Purchase
	Total     int
}

// Collect builds the per-person ledgers for a trip, owner first, invited
// users after, in the order the store returns them. Participants without
// purchases are skipped.
func Collect(store dbt.Store, trip *dbt.Trip) ([]Person, error) {
	owner, err := store.GetUser(trip.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trip owner: %w", err)
	}
	invited, err := store.GetTripUsers(trip.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trip participants: %w", err)
	}

	participants := append([]dbt.User{*owner}, invited...)
	var people []Person
	for _, u := range participants {
		purchases, err := store.GetUserPurchases(u.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load purchases for %s: %w", u.Username, err)
		}
		if len(purchases) == 0 {
			continue
		}
		total, err := store.GetUserPurchaseTotal(u.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to total purchases for %s: %w", u.Username, err)
		}
		people = append(people, Person{User: u, Purchases: purchases, Total: total})
	}
	return people, nil
}

// GrandTotal sums every participant's total.
func GrandTotal(people []Person) int {
	var sum int
	for _, p := range people {
		sum += p.Total
	}
	return sum
}
