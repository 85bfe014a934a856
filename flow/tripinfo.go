package flow

import (
	"errors"
	"fmt"
	"math"
	"strings"

	dbt "tripbot/db/db"
	"tripbot/engine"
	gw "tripbot/gateway/gateway"
	"tripbot/provider"
)

const stateInfoChooseTrip engine.State = "choose_trip"

// TripInfoFlow renders everything known about one trip: its fields, a
// route map from the user's home city through the itinerary, visible
// notes, top hotels and a short weather summary. Each provider failure
// degrades to its own "not available" line.
func TripInfoFlow(deps Deps) *engine.Flow {
	return &engine.Flow{
		Name:    "travel_info",
		Trigger: TriggerTripInfo,
		Entry:   engine.RequireSignUp(infoEntry),
		States: map[engine.State]engine.Handler{
			stateInfoChooseTrip: infoChooseTrip(deps),
		},
	}
}

func infoEntry(r *engine.Request) engine.Outcome {
	trips, err := accessibleTrips(r.Store, r.UserID)
	if err != nil {
		return engine.Terminate(errReply)
	}
	if len(trips) == 0 {
		return engine.Terminate(reply("You don't have any travels", MainMenu...))
	}
	return engine.Advance(stateInfoChooseTrip,
		tripListReply("Choose travel (type travel's name): ", trips))
}

func infoChooseTrip(deps Deps) engine.Handler {
	return func(r *engine.Request) engine.Outcome {
		trip, err := r.Store.GetAccessibleTrip(r.Text, r.UserID)
		if err != nil {
			return engine.Stay(reply("Sorry, travel name is invalid"))
		}
		cities, err := r.Store.GetTripCities(trip.ID)
		if err != nil {
			return engine.Terminate(errReply)
		}
		invited, err := r.Store.GetTripUsers(trip.ID)
		if err != nil {
			return engine.Terminate(errReply)
		}

		replies := []gw.Reply{tripDetailsReply(trip, cities, invited)}
		replies = append(replies, routeReplies(r, deps, cities)...)

		if notesReply, ok := tripNotesReply(r, trip); ok {
			replies = append(replies, notesReply)
		}
		replies = append(replies, hotelsReply(r, deps, trip, cities))
		replies = append(replies, weatherReply(r, deps, trip, cities))

		return engine.Terminate(replies...)
	}
}

func tripDetailsReply(trip *dbt.Trip, cities []dbt.City, invited []dbt.User) gw.Reply {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Travel name: %s\n", trip.Name))
	b.WriteString(fmt.Sprintf("Travel description: %s\n", trip.Description))
	b.WriteString(fmt.Sprintf("Travel start date: %s\n", trip.StartDate.Format(DateLayout)))
	b.WriteString(fmt.Sprintf("Travel end date: %s\n", trip.EndDate.Format(DateLayout)))
	b.WriteString("Travel locations: \n")
	for _, c := range cities {
		b.WriteString(fmt.Sprintf("\t• %s\n", c.Name))
	}
	if len(invited) > 0 {
		b.WriteString("Invited users: \n")
		for _, u := range invited {
			b.WriteString(fmt.Sprintf("\t• %s\n", u.Username))
		}
	}
	return reply(b.String())
}

// routeReplies renders the driving route starting from the user's home
// city when it is known.
func routeReplies(r *engine.Request, deps Deps, cities []dbt.City) []gw.Reply {
	route := cities
	if user, err := r.Store.GetUser(r.UserID); err == nil {
		if home, err := r.Store.GetCity(user.CityID); err == nil {
			route = append([]dbt.City{*home}, cities...)
		}
	}

	img, err := deps.Route.MapPNG(r.Ctx, route)
	if err != nil {
		return []gw.Reply{reply("Sorry, route data is not available")}
	}

	names := make([]string, len(route))
	for i, c := range route {
		names[i] = c.Name
	}
	return []gw.Reply{
		reply("Travel route (might take a moment): "),
		{Text: strings.Join(names, " - "), Image: img},
	}
}

func tripNotesReply(r *engine.Request, trip *dbt.Trip) (gw.Reply, bool) {
	notes, err := visibleNotes(r.Store, trip.ID, r.UserID)
	if err != nil || len(notes) == 0 {
		return gw.Reply{}, false
	}
	var b strings.Builder
	b.WriteString("Travel notes: ")
	for _, n := range notes {
		b.WriteString(fmt.Sprintf("\n• %s: %s", noteAuthor(r.Store, n), n.Text))
	}
	return reply(b.String()), true
}

func hotelsReply(r *engine.Request, deps Deps, trip *dbt.Trip, cities []dbt.City) gw.Reply {
	hotels, err := deps.Hotels.TopHotels(r.Ctx, cities, trip.StartDate, trip.EndDate)
	if err != nil {
		return reply("Sorry, hotels data is not available")
	}

	var b strings.Builder
	b.WriteString("Most popular hotels: \n")
	for _, c := range cities {
		b.WriteString(fmt.Sprintf("\n• Hotels in %s: \n", c.Name))
		for _, h := range hotels[c.Name] {
			stars := "'no star rating'"
			if h.Stars != nil {
				stars = fmt.Sprintf("%v", *h.Stars)
			}
			b.WriteString(fmt.Sprintf("\nHotel: '%s' with %s stars and '%v' user rating. Price of one night: %s. %v miles away from city center\n",
				h.Name, stars, h.UserRating, h.Price, h.Distance))
		}
	}
	return reply(b.String())
}

func weatherReply(r *engine.Request, deps Deps, trip *dbt.Trip, cities []dbt.City) gw.Reply {
	summaries, err := deps.Weather.Summary(r.Ctx, cities, trip.StartDate, trip.EndDate)
	if err != nil {
		if errors.Is(err, provider.ErrUnavailable) {
			return reply("Weather data is not available yet", MainMenu...)
		}
		return reply("Sorry, weather data is not available", MainMenu...)
	}

	var b strings.Builder
	b.WriteString("Travel weather: \n")
	for _, c := range cities {
		s, ok := summaries[c.Name]
		if !ok {
			continue
		}
		b.WriteString(fmt.Sprintf("\nWeather in %s: \n", c.Name))
		b.WriteString(fmt.Sprintf("• Average day temperature: %d °C\n", int(math.Round(s.AvgDayTemp))))
		b.WriteString(fmt.Sprintf("• Average night temperature: %d °C\n", int(math.Round(s.AvgNightTemp))))
		if len(s.RainyDays) > 0 {
			b.WriteString(fmt.Sprintf("• Rainy days: %s\n", strings.Join(s.RainyDays, ", ")))
		}
	}
	return reply(b.String(), MainMenu...)
}
