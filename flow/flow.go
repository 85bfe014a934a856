// Package flow defines the conversational workflows: sign-up, trip
// creation and editing, notes, purchases and trip info. Each flow is a
// declarative engine.Flow table; the handlers collect answers into scratch
// memory and commit to the store when a flow completes.
package flow

import (
	"fmt"
	"strings"

	dbt "tripbot/db/db"
	"tripbot/engine"
	gw "tripbot/gateway/gateway"
	"tripbot/provider"
	"tripbot/session"
)

// DateLayout is the format users type trip dates in (DD.MM.YYYY).
const DateLayout = "02.01.2006"

// Flow trigger commands.
const (
	TriggerStart     = "/start"
	TriggerSignUp    = "/sign_up"
	TriggerNewTrip   = "/new_travel"
	TriggerMyTrips   = "/my_travels"
	TriggerEditTrip  = "/edit_travel"
	TriggerLeaveTrip = "/leave_travel"
	TriggerTripInfo  = "/travel_info"
	TriggerNotes     = "/edit_notes"
	TriggerPurchases = "/travel_purchases"
)

// MainMenu is the quick-reply set offered whenever no flow is active.
var MainMenu = []string{
	TriggerNewTrip,
	TriggerMyTrips,
	TriggerEditTrip,
	TriggerTripInfo,
	TriggerNotes,
	TriggerPurchases,
	TriggerLeaveTrip,
}

// Deps carries the external info providers the trip-info flow consumes.
type Deps struct {
	Weather provider.WeatherService
	Hotels  provider.HotelService
	Route   provider.RouteService
}

// RegisterAll wires every flow plus the engine-level cancel and unknown
// replies.
func RegisterAll(e *engine.Engine, deps Deps) error {
	e.SetCancelReply(reply("Hope you'll come back later!", MainMenu...))
	e.SetUnknownReply(reply("Sorry, I don't understand. Choose a command to continue", MainMenu...))

	flows := []*engine.Flow{
		StartFlow(),
		SignUpFlow(),
		NewTripFlow(),
		MyTripsFlow(),
		EditTripFlow(),
		LeaveTripFlow(),
		NotesFlow(),
		PurchasesFlow(),
		TripInfoFlow(deps),
	}
	for _, f := range flows {
		if err := e.Register(f); err != nil {
			return err
		}
	}
	return nil
}

func reply(text string, quick ...string) gw.Reply {
	return gw.Reply{Text: text, QuickReplies: quick}
}

var errReply = reply("Sorry, something went wrong. Please try again")

func cityLine(idx int, c dbt.City) string {
	return fmt.Sprintf("%d. %s in %s, %s", idx, c.Name, c.CountryName, c.StateName)
}

// invalidCityReply is the shared rejection for an unknown city, listing
// near-miss suggestions when there are any.
func invalidCityReply(hints []dbt.City) gw.Reply {
	var b strings.Builder
	b.WriteString("Sorry, location is invalid\n")
	if len(hints) > 0 {
		b.WriteString("\nDid you mean one of these locations?")
		for i, c := range hints {
			b.WriteString("\n" + cityLine(i+1, c))
		}
	}
	return reply(b.String())
}

// cityChoicesReplies asks the user to pick one of several same-named
// cities by number.
func cityChoicesReplies(cities []dbt.City) []gw.Reply {
	var b strings.Builder
	for i, c := range cities {
		b.WriteString(cityLine(i+1, c) + "\n")
	}
	return []gw.Reply{
		reply("There are multiple locations with this name. Please choose one by its number: "),
		reply(b.String()),
	}
}

// tripListReply renders a pick-a-trip prompt with one quick reply per
// trip name.
func tripListReply(prompt string, trips []dbt.Trip) gw.Reply {
	var b strings.Builder
	b.WriteString(prompt + "\n")
	names := make([]string, len(trips))
	for i, t := range trips {
		b.WriteString("• " + t.Name + "\n")
		names[i] = t.Name
	}
	return reply(b.String(), names...)
}

// accessibleTrips lists the trips a user owns or is invited to.
func accessibleTrips(store dbt.Store, userID int64) ([]dbt.Trip, error) {
	owned, err := store.GetOwnedTrips(userID)
	if err != nil {
		return nil, err
	}
	invited, err := store.GetInvitedTrips(userID)
	if err != nil {
		return nil, err
	}
	return append(owned, invited...), nil
}

// intSlice reads an accumulated []int out of scratch, tolerating the
// []any shape a JSON round trip produces.
func intSlice(s session.Scratch, key string) []int {
	var out []int
	if err := s.Decode(key, &out); err != nil {
		return nil
	}
	return out
}

// int64Slice is intSlice for user IDs.
func int64Slice(s session.Scratch, key string) []int64 {
	var out []int64
	if err := s.Decode(key, &out); err != nil {
		return nil
	}
	return out
}
