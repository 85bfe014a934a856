package engine

import (
	"errors"

	dbt "tripbot/db/db"
	gw "tripbot/gateway/gateway"
)

// RequireSignUp rejects entry for users without a profile, pointing them to
// the registration command.
func RequireSignUp(h Handler) Handler {
	return func(r *Request) Outcome {
		_, err := r.Store.GetUser(r.UserID)
		if err != nil {
			if errors.Is(err, dbt.ErrNotFound) {
				return Terminate(gw.Reply{Text: "Please /sign_up first"})
			}
			return Terminate(gw.Reply{Text: "Sorry, something went wrong. Please try again"})
		}
		return h(r)
	}
}

// RequireTrips rejects entry for users who own no trips yet.
func RequireTrips(h Handler) Handler {
	return func(r *Request) Outcome {
		trips, err := r.Store.GetOwnedTrips(r.UserID)
		if err != nil {
			return Terminate(gw.Reply{Text: "Sorry, something went wrong. Please try again"})
		}
		if len(trips) == 0 {
			return Terminate(
				gw.Reply{Text: "You don't have any travels"},
				gw.Reply{Text: "Let's fix it! Type /new_travel to add new travel", QuickReplies: []string{"/new_travel"}},
			)
		}
		return h(r)
	}
}
