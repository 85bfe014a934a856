package flow

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/r3labs/diff/v3"

	dbt "tripbot/db/db"
	"tripbot/engine"
	gw "tripbot/gateway/gateway"
)

const (
	stateEditChooseTrip  engine.State = "choose_trip"
	stateEditChooseField engine.State = "choose_field"
	stateEditName        engine.State = "name"
	stateEditDesc        engine.State = "description"
	stateEditLocations   engine.State = "locations"
	stateEditSpecify     engine.State = "specify_location"
	stateEditStartDate   engine.State = "start_date"
	stateEditEndDate     engine.State = "end_date"
	stateEditInvite      engine.State = "invite"
	stateEditConfirmDel  engine.State = "confirm_delete"
)

var editFieldMenu = []string{"name", "description", "locations", "dates", "invited users", "delete", "end"}

func editMenuReply(text string) gw.Reply {
	return reply(text, editFieldMenu...)
}

// tripSnapshot is the diffable view of a trip used for the edit summary.
type tripSnapshot struct {
	Name        string
	Description string
	Dates       string
	Locations   []string
	Invited     []string
}

// EditTripFlow lets an owner change a trip field by field. Name,
// description and dates commit as soon as they are entered; the locations
// and invited-users loops accumulate in scratch and replace the old set
// when the user sends 'end'. Finishing the flow prints a summary of what
// changed.
func EditTripFlow() *engine.Flow {
	return &engine.Flow{
		Name:    "edit_travel",
		Trigger: TriggerEditTrip,
		Entry:   engine.RequireSignUp(engine.RequireTrips(editTripEntry)),
		States: map[engine.State]engine.Handler{
			stateEditChooseTrip:  editChooseTrip,
			stateEditChooseField: editChooseField,
			stateEditName:        editName,
			stateEditDesc:        editDescription,
			stateEditLocations:   editLocations,
			stateEditSpecify:     editSpecifyLocation,
			stateEditStartDate:   editStartDate,
			stateEditEndDate:     editEndDate,
			stateEditInvite:      editInvite,
			stateEditConfirmDel:  editConfirmDelete,
		},
	}
}

func editTripEntry(r *engine.Request) engine.Outcome {
	trips, err := r.Store.GetOwnedTrips(r.UserID)
	if err != nil {
		return engine.Terminate(errReply)
	}
	return engine.Advance(stateEditChooseTrip,
		tripListReply("Choose travel (type travel's name): ", trips))
}

// editedTrip resolves the trip under edit from scratch. The scratch name
// is kept current across renames.
func editedTrip(r *engine.Request) (*dbt.Trip, error) {
	name, ok := r.Scratch.GetString("trip_name")
	if !ok {
		return nil, errors.New("no trip selected")
	}
	return r.Store.GetOwnedTrip(name, r.UserID)
}

func snapshotTrip(store dbt.Store, trip *dbt.Trip) (tripSnapshot, error) {
	snap := tripSnapshot{
		Name:        trip.Name,
		Description: trip.Description,
		Dates:       trip.StartDate.Format(DateLayout) + " - " + trip.EndDate.Format(DateLayout),
	}
	cities, err := store.GetTripCities(trip.ID)
	if err != nil {
		return snap, err
	}
	for _, c := range cities {
		snap.Locations = append(snap.Locations, c.Name)
	}
	users, err := store.GetTripUsers(trip.ID)
	if err != nil {
		return snap, err
	}
	for _, u := range users {
		snap.Invited = append(snap.Invited, u.Username)
	}
	return snap, nil
}

func editChooseTrip(r *engine.Request) engine.Outcome {
	trip, err := r.Store.GetOwnedTrip(r.Text, r.UserID)
	if err != nil {
		return engine.Stay(reply("Sorry, travel name is invalid"))
	}
	r.Scratch.Set("trip_name", trip.Name)

	snap, err := snapshotTrip(r.Store, trip)
	if err != nil {
		return engine.Terminate(errReply)
	}
	r.Scratch.Set("snapshot", snap)

	return engine.Advance(stateEditChooseField,
		editMenuReply("Choose value to edit: name, description, locations, dates, invited users. "+
			"You can also type 'delete' to delete travel or 'end' to finish editing"))
}

var editChooseField = engine.Switch{
	"name": func(r *engine.Request) engine.Outcome {
		trip, err := editedTrip(r)
		if err != nil {
			return engine.Terminate(errReply)
		}
		return engine.Advance(stateEditName,
			reply(fmt.Sprintf("Current name: %s. Enter new name", trip.Name)))
	},
	"description": func(r *engine.Request) engine.Outcome {
		trip, err := editedTrip(r)
		if err != nil {
			return engine.Terminate(errReply)
		}
		return engine.Advance(stateEditDesc,
			reply(fmt.Sprintf("Current description: %s. Enter new description", trip.Description)))
	},
	"locations": func(r *engine.Request) engine.Outcome {
		trip, err := editedTrip(r)
		if err != nil {
			return engine.Terminate(errReply)
		}
		cities, err := r.Store.GetTripCities(trip.ID)
		if err != nil {
			return engine.Terminate(errReply)
		}
		names := make([]string, len(cities))
		for i, c := range cities {
			names[i] = c.Name
		}
		r.Scratch.Set("locations", []int{})
		return engine.Advance(stateEditLocations,
			reply(fmt.Sprintf("Current locations (%s) will be replaced. Enter new locations. Send 'end' when you're done",
				strings.Join(names, ", "))))
	},
	"dates": func(r *engine.Request) engine.Outcome {
		trip, err := editedTrip(r)
		if err != nil {
			return engine.Terminate(errReply)
		}
		return engine.Advance(stateEditStartDate,
			reply(fmt.Sprintf("Current dates: %s - %s. Enter new start date (in format DD.MM.YYYY)",
				trip.StartDate.Format(DateLayout), trip.EndDate.Format(DateLayout))))
	},
	"invited users": func(r *engine.Request) engine.Outcome {
		trip, err := editedTrip(r)
		if err != nil {
			return engine.Terminate(errReply)
		}
		users, err := r.Store.GetTripUsers(trip.ID)
		if err != nil {
			return engine.Terminate(errReply)
		}
		names := make([]string, len(users))
		for i, u := range users {
			names[i] = u.Username
		}
		r.Scratch.Set("invited", []int64{})
		return engine.Advance(stateEditInvite,
			reply(fmt.Sprintf("Current invited users (%s) will be replaced. Invite new users. Send 'end' when you're done",
				strings.Join(names, ", "))))
	},
	"delete": func(r *engine.Request) engine.Outcome {
		name, _ := r.Scratch.GetString("trip_name")
		return engine.Advance(stateEditConfirmDel,
			reply(fmt.Sprintf("Are you sure you want to delete travel %s? Type 'yes' to confirm or 'no' to cancel", name)))
	},
	"end": editFinish,
}.Dispatch(reply("Sorry, value is invalid", editFieldMenu...))

// editFinish closes the flow with a summary of every field that changed
// since the trip was selected.
func editFinish(r *engine.Request) engine.Outcome {
	trip, err := editedTrip(r)
	if err != nil {
		return engine.Terminate(errReply)
	}
	after, err := snapshotTrip(r.Store, trip)
	if err != nil {
		return engine.Terminate(errReply)
	}
	var before tripSnapshot
	if err := r.Scratch.Decode("snapshot", &before); err != nil {
		return engine.Terminate(reply("Travel editing finished", MainMenu...))
	}

	changes, err := diff.Diff(before, after)
	if err != nil || len(changes) == 0 {
		return engine.Terminate(reply("Travel editing finished", MainMenu...))
	}

	var b strings.Builder
	b.WriteString("Changes made: \n")
	for _, c := range changes {
		field := strings.ToLower(strings.Join(c.Path, " "))
		switch c.Type {
		case diff.CREATE:
			b.WriteString(fmt.Sprintf("• %s: added %v\n", field, c.To))
		case diff.DELETE:
			b.WriteString(fmt.Sprintf("• %s: removed %v\n", field, c.From))
		default:
			b.WriteString(fmt.Sprintf("• %s: %v is now %v\n", field, c.From, c.To))
		}
	}
	return engine.Terminate(
		reply(b.String()),
		reply("Travel editing finished", MainMenu...))
}

func editName(r *engine.Request) engine.Outcome {
	trip, err := editedTrip(r)
	if err != nil {
		return engine.Terminate(errReply)
	}
	if !ValidateTripName(r.Store, r.Text, r.UserID) && r.Text != trip.Name {
		return engine.Stay(reply("Sorry, name is invalid"))
	}
	if err := r.Store.SetTripName(trip.ID, r.Text); err != nil {
		return engine.Terminate(errReply)
	}
	r.Scratch.Set("trip_name", r.Text)
	return engine.Advance(stateEditChooseField,
		editMenuReply("Travel name changed. Choose new value to edit or type 'end' to finish editing"))
}

func editDescription(r *engine.Request) engine.Outcome {
	trip, err := editedTrip(r)
	if err != nil {
		return engine.Terminate(errReply)
	}
	if !ValidateDescription(r.Text) {
		return engine.Stay(reply("Sorry, description is invalid"))
	}
	if err := r.Store.SetTripDescription(trip.ID, r.Text); err != nil {
		return engine.Terminate(errReply)
	}
	return engine.Advance(stateEditChooseField,
		editMenuReply("Travel description changed. Choose new value to edit or type 'end' to finish editing"))
}

func editLocations(r *engine.Request) engine.Outcome {
	locations := intSlice(r.Scratch, "locations")

	if r.Text == "end" {
		if len(locations) == 0 {
			return engine.Stay(reply("Sorry, you should add at least one location"))
		}
		trip, err := editedTrip(r)
		if err != nil {
			return engine.Terminate(errReply)
		}
		if err := r.Store.RemoveTripCities(trip.ID); err != nil {
			return engine.Terminate(errReply)
		}
		for _, cityID := range locations {
			if err := r.Store.AddTripCity(trip.ID, cityID); err != nil {
				return engine.Terminate(errReply)
			}
		}
		return engine.Advance(stateEditChooseField,
			editMenuReply("Locations changed. Choose new value to edit or type 'end' to finish editing"))
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
	return engine.Advance(stateEditSpecify, cityChoicesReplies(found)...)
}

func editSpecifyLocation(r *engine.Request) engine.Outcome {
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
	return engine.Advance(stateEditLocations, reply("Location added"))
}

func editStartDate(r *engine.Request) engine.Outcome {
	r.Scratch.Set("start_date", r.Text)
	return engine.Advance(stateEditEndDate, reply("Great, now input new end date of your travel"))
}

func editEndDate(r *engine.Request) engine.Outcome {
	start, _ := r.Scratch.GetString("start_date")
	if !ValidateDates(start, r.Text, time.Now()) {
		return engine.Advance(stateEditStartDate, reply("Sorry, dates are invalid"))
	}

	trip, err := editedTrip(r)
	if err != nil {
		return engine.Terminate(errReply)
	}
	startDate, _ := ParseDate(start)
	endDate, _ := ParseDate(r.Text)
	if err := r.Store.SetTripDates(trip.ID, startDate, endDate); err != nil {
		return engine.Terminate(errReply)
	}
	return engine.Advance(stateEditChooseField,
		editMenuReply("Travel dates changed. Choose new value to edit or type 'end' to finish editing"))
}

func editInvite(r *engine.Request) engine.Outcome {
	if r.Text == "end" {
		trip, err := editedTrip(r)
		if err != nil {
			return engine.Terminate(errReply)
		}
		if err := r.Store.RemoveTripUsers(trip.ID); err != nil {
			return engine.Terminate(errReply)
		}
		for _, userID := range int64Slice(r.Scratch, "invited") {
			if err := r.Store.InviteUser(trip.ID, userID); err != nil {
				return engine.Terminate(errReply)
			}
		}
		return engine.Advance(stateEditChooseField,
			editMenuReply("Users are invited. Choose new value to edit or type 'end' to finish editing"))
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

var editConfirmDelete = engine.Switch{
	"yes": func(r *engine.Request) engine.Outcome {
		trip, err := editedTrip(r)
		if err != nil {
			return engine.Terminate(errReply)
		}
		if err := r.Store.DeleteTrip(trip.ID); err != nil {
			return engine.Terminate(errReply)
		}
		return engine.Terminate(reply("Travel deleted", MainMenu...))
	},
	"no": func(r *engine.Request) engine.Outcome {
		return engine.Advance(stateEditChooseField,
			editMenuReply("Travel not deleted. Choose new value to edit or type 'end' to finish editing"))
	},
}.Dispatch(reply("Sorry, value is invalid"))
