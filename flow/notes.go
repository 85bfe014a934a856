package flow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	dbt "tripbot/db/db"
	"tripbot/engine"
	gw "tripbot/gateway/gateway"
)

const (
	stateNotesChooseTrip engine.State = "choose_trip"
	stateNotesAction     engine.State = "action"
	stateNotesVisibility engine.State = "visibility"
	stateNotesAdd        engine.State = "add_note"
	stateNotesRemove     engine.State = "remove_note"
)

var notesActionMenu = []string{"add", "remove", "end"}

// NotesFlow manages a trip's notes. Private notes are listed only for
// their author; removal is author-only, checked before the delete.
func NotesFlow() *engine.Flow {
	return &engine.Flow{
		Name:    "edit_notes",
		Trigger: TriggerNotes,
		Entry:   engine.RequireSignUp(notesEntry),
		States: map[engine.State]engine.Handler{
			stateNotesChooseTrip: notesChooseTrip,
			stateNotesAction:     notesAction,
			stateNotesVisibility: notesVisibility,
			stateNotesAdd:        notesAdd,
			stateNotesRemove:     notesRemove,
		},
	}
}

func notesEntry(r *engine.Request) engine.Outcome {
	trips, err := accessibleTrips(r.Store, r.UserID)
	if err != nil {
		return engine.Terminate(errReply)
	}
	if len(trips) == 0 {
		return engine.Terminate(reply("You don't have any travels", MainMenu...))
	}
	return engine.Advance(stateNotesChooseTrip,
		tripListReply("Choose travel (type travel's name): ", trips))
}

// visibleNotes filters a trip's notes down to what the user may see:
// their own notes plus everyone's public ones.
func visibleNotes(store dbt.Store, tripID uuid.UUID, userID int64) ([]dbt.Note, error) {
	notes, err := store.GetTripNotes(tripID)
	if err != nil {
		return nil, err
	}
	var visible []dbt.Note
	for _, n := range notes {
		if n.Public || n.AuthorID == userID {
			visible = append(visible, n)
		}
	}
	return visible, nil
}

func noteAuthor(store dbt.Store, n dbt.Note) string {
	author, err := store.GetUser(n.AuthorID)
	if err != nil {
		return "unknown"
	}
	return author.Username
}

// selectedTrip resolves the trip chosen earlier in the flow, allowing
// owned and invited trips alike.
func selectedTrip(r *engine.Request) (*dbt.Trip, error) {
	name, ok := r.Scratch.GetString("trip_name")
	if !ok {
		return nil, fmt.Errorf("no trip selected")
	}
	return r.Store.GetAccessibleTrip(name, r.UserID)
}

func notesChooseTrip(r *engine.Request) engine.Outcome {
	trip, err := r.Store.GetAccessibleTrip(r.Text, r.UserID)
	if err != nil {
		return engine.Stay(reply("Sorry, travel name is invalid"))
	}
	r.Scratch.Set("trip_name", trip.Name)

	notes, err := visibleNotes(r.Store, trip.ID, r.UserID)
	if err != nil {
		return engine.Terminate(errReply)
	}

	var replies []gw.Reply
	if len(notes) == 0 {
		replies = append(replies, reply("Travel has no notes, you can add one"))
	} else {
		var b strings.Builder
		b.WriteString("Travel notes: \n")
		for i, n := range notes {
			b.WriteString(fmt.Sprintf("%d. %s: %s\n", i+1, noteAuthor(r.Store, n), n.Text))
		}
		replies = append(replies, reply(b.String()))
	}
	replies = append(replies,
		reply("You can add new note using 'add', remove one using 'remove' or finish editing using 'end'", notesActionMenu...))
	return engine.Advance(stateNotesAction, replies...)
}

var notesAction = engine.Switch{
	"add": func(r *engine.Request) engine.Outcome {
		return engine.Advance(stateNotesVisibility,
			reply("Choose if note is public or not (type 'public' or 'private')", "public", "private"))
	},
	"remove": func(r *engine.Request) engine.Outcome {
		trip, err := selectedTrip(r)
		if err != nil {
			return engine.Terminate(errReply)
		}
		notes, err := visibleNotes(r.Store, trip.ID, r.UserID)
		if err != nil {
			return engine.Terminate(errReply)
		}
		if len(notes) == 0 {
			return engine.Stay(reply("Travel has no notes"))
		}
		mine := false
		for _, n := range notes {
			if n.AuthorID == r.UserID {
				mine = true
				break
			}
		}
		if !mine {
			return engine.Stay(reply("You don't have any notes in this travel"))
		}
		return engine.Advance(stateNotesRemove,
			reply("Choose note to remove by it's number. Note you can only delete your own notes"))
	},
	"end": func(r *engine.Request) engine.Outcome {
		return engine.Terminate(reply("Notes edited", MainMenu...))
	},
}.Dispatch(reply("Sorry, value is invalid", notesActionMenu...))

var notesVisibility = engine.Switch{
	"public": func(r *engine.Request) engine.Outcome {
		r.Scratch.Set("is_public", true)
		return engine.Advance(stateNotesAdd, reply("Enter your note"))
	},
	"private": func(r *engine.Request) engine.Outcome {
		r.Scratch.Set("is_public", false)
		return engine.Advance(stateNotesAdd, reply("Enter your note"))
	},
}.Dispatch(reply("Sorry, value is invalid", "public", "private"))

func notesAdd(r *engine.Request) engine.Outcome {
	trip, err := selectedTrip(r)
	if err != nil {
		return engine.Terminate(errReply)
	}
	public, _ := r.Scratch.GetBool("is_public")
	note := &dbt.Note{
		ID:       uuid.New(),
		TripID:   trip.ID,
		AuthorID: r.UserID,
		Public:   public,
		Text:     r.Text,
	}
	if err := r.Store.AddNote(note); err != nil {
		return engine.Terminate(errReply)
	}
	return engine.Advance(stateNotesAction,
		reply("Note added. You can add new one using 'add', remove one using 'remove' or finish editing using 'end'", notesActionMenu...))
}

func notesRemove(r *engine.Request) engine.Outcome {
	trip, err := selectedTrip(r)
	if err != nil {
		return engine.Terminate(errReply)
	}
	notes, err := visibleNotes(r.Store, trip.ID, r.UserID)
	if err != nil {
		return engine.Terminate(errReply)
	}

	idx, err := strconv.Atoi(r.Text)
	if err != nil || idx < 1 || idx > len(notes) {
		return engine.Stay(reply("Sorry, index is invalid"))
	}
	target := notes[idx-1]
	if target.AuthorID != r.UserID {
		return engine.Stay(reply("Sorry, you can only delete your own notes. Choose another one or exit using /stop"))
	}

	if err := r.Store.DeleteNote(target.ID); err != nil {
		return engine.Terminate(errReply)
	}
	return engine.Advance(stateNotesAction,
		reply("Note removed. You can add new one using 'add', remove one using 'remove' or finish editing using 'end'", notesActionMenu...))
}
