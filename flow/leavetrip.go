package flow

import (
	"tripbot/engine"
)

const stateLeaveChooseTrip engine.State = "choose_trip"

// LeaveTripFlow removes the user from a trip they were invited to.
// Naming a trip they are not invited to is rejected in place rather than
// mutating anything.
func LeaveTripFlow() *engine.Flow {
	return &engine.Flow{
		Name:    "leave_travel",
		Trigger: TriggerLeaveTrip,
		Entry:   engine.RequireSignUp(leaveTripEntry),
		States: map[engine.State]engine.Handler{
			stateLeaveChooseTrip: leaveChooseTrip,
		},
	}
}

func leaveTripEntry(r *engine.Request) engine.Outcome {
	invited, err := r.Store.GetInvitedTrips(r.UserID)
	if err != nil {
		return engine.Terminate(errReply)
	}
	if len(invited) == 0 {
		return engine.Terminate(reply("You don't have any invites", MainMenu...))
	}
	return engine.Advance(stateLeaveChooseTrip,
		tripListReply("Which travel you want to leave (type travel's name): ", invited))
}

func leaveChooseTrip(r *engine.Request) engine.Outcome {
	invited, err := r.Store.GetInvitedTrips(r.UserID)
	if err != nil {
		return engine.Terminate(errReply)
	}
	for _, trip := range invited {
		if trip.Name != r.Text {
			continue
		}
		if err := r.Store.RemoveTripUser(trip.ID, r.UserID); err != nil {
			return engine.Terminate(errReply)
		}
		return engine.Terminate(reply("Travel left", MainMenu...))
	}
	return engine.Stay(reply("Sorry, travel name is invalid"))
}
