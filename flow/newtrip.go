package flow

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	dbt "tripbot/db/db"
	"tripbot/engine"
)

const (
	stateNewTripName      engine.State = "name"
	stateNewTripDesc      engine.State = "description"
	stateNewTripLocations engine.State = "locations"
	stateNewTripSpecify   engine.State = "specify_location"
	stateNewTripStartDate engine.State = "start_date"
	stateNewTripEndDate   engine.State = "end_date"
	stateNewTripInvite    engine.State = "invite"
)

// NewTripFlow collects a complete trip (name, description, at least one
// location, dates, invites) in scratch and commits it in one unit when the
// invite loop ends. Cancelling mid-flow leaves no partial trip behind.
func NewTripFlow() *engine.Flow {
	return &engine.Flow{
		Name:    "new_travel",
		Trigger: TriggerNewTrip,
		Entry:   engine.RequireSignUp(newTripEntry),
		States: map[engine.State]engine.Handler{
			stateNewTripName:      newTripName,
			stateNewTripDesc:      newTripDescription,
			stateNewTripLocations: newTripLocations,
			stateNewTripSpecify:   newTripSpecifyLocation,
			stateNewTripStartDate: newTripStartDate,
			stateNewTripEndDate:   newTripEndDate,
			stateNewTripInvite:    newTripInvite,
		},
	}
}

func newTripEntry(r *engine.Request) engine.Outcome {
	return engine.Advance(stateNewTripName,
		reply("Hi, let's add new travel"),
		reply("First, input name of your travel. Note: name should be unique"))
}

func newTripName(r *engine.Request) engine.Outcome {
	if !ValidateTripName(r.Store, r.Text, r.UserID) {
		return engine.Stay(reply("Sorry, name is invalid"))
	}
	r.Scratch.Set("name", r.Text)
	return engine.Advance(stateNewTripDesc, reply("Great, now add description of your travel."))
}

func newTripDescription(r *engine.Request) engine.Outcome {
	if !ValidateDescription(r.Text) {
		return engine.Stay(reply("Sorry, description is invalid"))
	}
	r.Scratch.Set("description", r.Text)
	r.Scratch.Set("locations", []int{})
	return engine.Advance(stateNewTripLocations,
		reply("Great, now add cities of your travel. Send 'end' when you're done"))
}

func newTripLocations(r *engine.Request) engine.Outcome {
	locations := intSlice(r.Scratch, "locations")

	if r.Text == "end" {
		if len(locations) == 0 {
			return engine.Stay(reply("Sorry, you should add at least one location"))
		}
		return engine.Advance(stateNewTripStartDate,
			reply("Great, now input start date of your travel (in format DD.MM.YYYY)"))
	}

	ok, hints := ValidateCity(r.Store, r.Text)
	if !ok {
		return engine.Stay(invalidCityReply(hints))
	}

	found, err := r.Store.GetCitiesByName(r.Text)
	if err != nil {
		return engine.Stay(errReply)
	}
	if len(found) == 1 {
		r.Scratch.Set("locations", append(locations, found[0].ID))
		return engine.Stay(reply("Location added"))
	}

	r.Scratch.Set("found_locations", found)
	return engine.Advance(stateNewTripSpecify, cityChoicesReplies(found)...)
}

func newTripSpecifyLocation(r *engine.Request) engine.Outcome {
	var found []dbt.City
	if err := r.Scratch.Decode("found_locations", &found); err != nil {
		return engine.Terminate(errReply)
	}
	idx, err := strconv.Atoi(r.Text)
	if err != nil || idx < 1 || idx > len(found) {
		return engine.Stay(reply("Sorry, index is invalid"))
	}

	locations := intSlice(r.Scratch, "locations")
	r.Scratch.Set("locations", append(locations, found[idx-1].ID))
	r.Scratch.Delete("found_locations")
	return engine.Advance(stateNewTripLocations, reply("Location added"))
}

func newTripStartDate(r *engine.Request) engine.Outcome {
	r.Scratch.Set("start_date", r.Text)
	return engine.Advance(stateNewTripEndDate, reply("Great, now input end date of your travel"))
}

func newTripEndDate(r *engine.Request) engine.Outcome {
	start, _ := r.Scratch.GetString("start_date")
	if !ValidateDates(start, r.Text, time.Now()) {
		return engine.Advance(stateNewTripStartDate, reply("Sorry, dates are invalid"))
	}

	r.Scratch.Set("end_date", r.Text)
	r.Scratch.Set("invited", []int64{})
	return engine.Advance(stateNewTripInvite,
		reply("Now you can invite other users (by their username) to your travel. Note, that users have to be registered first"),
		reply("Type 'end' to stop inviting"))
}

func newTripInvite(r *engine.Request) engine.Outcome {
	if r.Text == "end" {
		return createTrip(r)
	}

	invitee, err := r.Store.GetUserByUsername(r.Text)
	if err != nil {
		return engine.Stay(reply("Sorry user is not found. Maybe user is not registered"))
	}

	invited := int64Slice(r.Scratch, "invited")
	for _, id := range invited {
		if id == invitee.ID {
			return engine.Stay(reply("User is already invited"))
		}
	}
	r.Scratch.Set("invited", append(invited, invitee.ID))
	return engine.Stay(reply("User invited"))
}

// createTrip commits the accumulated scratch as one trip with its
// locations and invites.
func createTrip(r *engine.Request) engine.Outcome {
	name, _ := r.Scratch.GetString("name")
	description, _ := r.Scratch.GetString("description")
	startStr, _ := r.Scratch.GetString("start_date")
	endStr, _ := r.Scratch.GetString("end_date")

	start, err := ParseDate(startStr)
	if err != nil {
		return engine.Terminate(errReply)
	}
	end, err := ParseDate(endStr)
	if err != nil {
		return engine.Terminate(errReply)
	}

	trip := &dbt.Trip{
		ID:          uuid.New(),
		OwnerID:     r.UserID,
		Name:        name,
		Description: description,
		StartDate:   start,
		EndDate:     end,
	}
	if err := r.Store.CreateTrip(trip); err != nil {
		return engine.Terminate(errReply)
	}
	for _, cityID := range intSlice(r.Scratch, "locations") {
		if err := r.Store.AddTripCity(trip.ID, cityID); err != nil {
			return engine.Terminate(errReply)
		}
	}
	for _, userID := range int64Slice(r.Scratch, "invited") {
		if err := r.Store.InviteUser(trip.ID, userID); err != nil {
			return engine.Terminate(errReply)
		}
	}

	return engine.Terminate(reply("Travel created", MainMenu...))
}
