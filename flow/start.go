package flow

import (
	"fmt"
	"strings"

	dbt "tripbot/db/db"
	"tripbot/engine"
)

// StartFlow is the single-shot greeting: registered users get the main
// menu, everyone else is pointed at sign-up.
func StartFlow() *engine.Flow {
	return &engine.Flow{
		Name:    "start",
		Trigger: TriggerStart,
		Entry:   startEntry,
		States:  map[engine.State]engine.Handler{},
	}
}

func startEntry(r *engine.Request) engine.Outcome {
	if _, err := r.Store.GetUser(r.UserID); err == nil {
		return engine.Terminate(
			reply(fmt.Sprintf("Hi %s! Type /new_travel to add new travel", r.Username), MainMenu...))
	}
	return engine.Terminate(
		reply(fmt.Sprintf("Hi, %s. Before we start, we need some info about you. Type /sign_up to get started", r.Username),
			TriggerSignUp))
}

// MyTripsFlow is the single-shot listing of owned and invited trips.
func MyTripsFlow() *engine.Flow {
	return &engine.Flow{
		Name:    "my_travels",
		Trigger: TriggerMyTrips,
		Entry:   engine.RequireSignUp(myTripsEntry),
		States:  map[engine.State]engine.Handler{},
	}
}

func myTripsEntry(r *engine.Request) engine.Outcome {
	owned, err := r.Store.GetOwnedTrips(r.UserID)
	if err != nil {
		return engine.Terminate(errReply)
	}
	invited, err := r.Store.GetInvitedTrips(r.UserID)
	if err != nil {
		return engine.Terminate(errReply)
	}

	var b strings.Builder
	if len(owned) > 0 {
		b.WriteString("Your travels: \n")
		writeTripList(&b, r.Store, owned)
	}
	if len(invited) > 0 {
		b.WriteString("\nYou are invited to: \n")
		writeTripList(&b, r.Store, invited)
	}
	if b.Len() == 0 {
		return engine.Terminate(reply("You don't have any travels", MainMenu...))
	}
	return engine.Terminate(reply(b.String(), MainMenu...))
}

func writeTripList(b *strings.Builder, store dbt.Store, trips []dbt.Trip) {
	for _, t := range trips {
		b.WriteString(fmt.Sprintf("\nName: %s\n", t.Name))
		b.WriteString(fmt.Sprintf("Description: %s\n", t.Description))

		var names []string
		if cities, err := store.GetTripCities(t.ID); err == nil {
			for _, c := range cities {
				names = append(names, c.Name)
			}
		}
		b.WriteString(fmt.Sprintf("Locations: %s\n", strings.Join(names, ", ")))
		b.WriteString(fmt.Sprintf("Dates: from %s to %s\n",
			t.StartDate.Format(DateLayout), t.EndDate.Format(DateLayout)))
	}
}
