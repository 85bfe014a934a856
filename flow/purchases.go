package flow

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	dbt "tripbot/db/db"
	"tripbot/engine"
	"tripbot/ledger"
)

const (
	statePurchasesChooseTrip engine.State = "choose_trip"
	statePurchasesAction     engine.State = "action"
	statePurchasesPrice      engine.State = "price"
	statePurchasesNote       engine.State = "note"
)

var purchasesActionMenu = []string{"add", "see", "end"}

// PurchasesFlow appends to and displays the purchase ledger around a
// trip. Entries are append-only; the "see" view aggregates per person.
func PurchasesFlow() *engine.Flow {
	return &engine.Flow{
		Name:    "travel_purchases",
		Trigger: TriggerPurchases,
		Entry:   engine.RequireSignUp(purchasesEntry),
		States: map[engine.State]engine.Handler{
			statePurchasesChooseTrip: purchasesChooseTrip,
			statePurchasesAction:     purchasesAction,
			statePurchasesPrice:      purchasesPrice,
			statePurchasesNote:       purchasesNote,
		},
	}
}

func purchasesEntry(r *engine.Request) engine.Outcome {
	trips, err := accessibleTrips(r.Store, r.UserID)
	if err != nil {
		return engine.Terminate(errReply)
	}
	if len(trips) == 0 {
		return engine.Terminate(reply("You don't have any travels", MainMenu...))
	}
	return engine.Advance(statePurchasesChooseTrip,
		tripListReply("Choose travel (type travel's name): ", trips))
}

func purchasesChooseTrip(r *engine.Request) engine.Outcome {
	trip, err := r.Store.GetAccessibleTrip(r.Text, r.UserID)
	if err != nil {
		return engine.Stay(reply("Sorry, travel name is invalid"))
	}
	r.Scratch.Set("trip_name", trip.Name)
	return engine.Advance(statePurchasesAction,
		reply("Choose action (type action's name): see purchases or add new purchase", purchasesActionMenu...))
}

var purchasesAction = engine.Switch{
	"add": func(r *engine.Request) engine.Outcome {
		return engine.Advance(statePurchasesPrice, reply("Enter purchase summary"))
	},
	"see": seePurchases,
	"end": func(r *engine.Request) engine.Outcome {
		return engine.Terminate(reply("Purchases edited", MainMenu...))
	},
}.Dispatch(reply("Sorry, action is invalid", purchasesActionMenu...))

func seePurchases(r *engine.Request) engine.Outcome {
	trip, err := selectedTrip(r)
	if err != nil {
		return engine.Terminate(errReply)
	}
	people, err := ledger.Collect(r.Store, trip)
	if err != nil {
		return engine.Terminate(errReply)
	}
	if len(people) == 0 {
		return engine.Stay(reply("Travel has no purchases, you can add one", purchasesActionMenu...))
	}

	var b strings.Builder
	b.WriteString("Travel purchases: \n")
	for _, person := range people {
		b.WriteString(fmt.Sprintf("\n%s purchases: \n", person.User.Username))
		for i, p := range person.Purchases {
			b.WriteString(fmt.Sprintf("%d. %d (%s) on %s\n", i+1, p.Price, p.Note, p.OnDate.Format("02-01-2006")))
		}
		b.WriteString(fmt.Sprintf("%s total: %d \n", person.User.Username, person.Total))
	}
	return engine.Stay(reply(b.String(), purchasesActionMenu...))
}

func purchasesPrice(r *engine.Request) engine.Outcome {
	if !ValidatePurchase(r.Text) {
		return engine.Stay(reply("Sorry, purchase is invalid"))
	}
	price, _ := strconv.Atoi(r.Text)
	r.Scratch.Set("price", price)
	return engine.Advance(statePurchasesNote, reply("Now add note"))
}

func purchasesNote(r *engine.Request) engine.Outcome {
	trip, err := selectedTrip(r)
	if err != nil {
		return engine.Terminate(errReply)
	}
	price, _ := r.Scratch.GetInt("price")
	purchase := &dbt.Purchase{
		ID:     uuid.New(),
		TripID: trip.ID,
		UserID: r.UserID,
		Price:  price,
		Note:   r.Text,
		OnDate: time.Now(),
	}
	if err := r.Store.AddPurchase(purchase); err != nil {
		return engine.Terminate(errReply)
	}
	return engine.Advance(statePurchasesAction, reply("Purchase added", purchasesActionMenu...))
}
