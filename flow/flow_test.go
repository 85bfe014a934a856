package flow_test

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbt "tripbot/db/db"
	"tripbot/db/mem"
	"tripbot/engine"
	"tripbot/flow"
	gw "tripbot/gateway/gateway"
	"tripbot/provider"
	"tripbot/session"
)

func newUUID(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.New()
}

// Provider stubs with canned results; the zero values fail every call so
// non-info flows never depend on them.

type stubWeather struct {
	summaries map[string]provider.WeatherSummary
	err       error
}

func (s stubWeather) Summary(context.Context, []dbt.City, time.Time, time.Time) (map[string]provider.WeatherSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.summaries == nil {
		return nil, provider.ErrProvider
	}
	return s.summaries, nil
}

type stubHotels struct {
	hotels map[string][]provider.Hotel
	err    error
}

func (s stubHotels) TopHotels(context.Context, []dbt.City, time.Time, time.Time) (map[string][]provider.Hotel, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.hotels == nil {
		return nil, provider.ErrProvider
	}
	return s.hotels, nil
}

type stubRoute struct {
	png []byte
	err error
}

func (s stubRoute) MapPNG(context.Context, []dbt.City) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.png == nil {
		return nil, provider.ErrProvider
	}
	return s.png, nil
}

type env struct {
	store *mem.Store
	e     *engine.Engine
}

func newEnv(t *testing.T) *env {
	return newEnvWithDeps(t, flow.Deps{Weather: stubWeather{}, Hotels: stubHotels{}, Route: stubRoute{}})
}

func newEnvWithDeps(t *testing.T, deps flow.Deps) *env {
	t.Helper()
	store := mem.NewInMemoryStore()
	seedGeo(store)
	e := engine.New(store, session.NewMemoryStore(), nil)
	require.NoError(t, flow.RegisterAll(e, deps))
	return &env{store: store, e: e}
}

func seedGeo(store *mem.Store) {
	store.AddCountry(dbt.Country{ID: 1, Name: "France"})
	store.AddCountry(dbt.Country{ID: 2, Name: "United Kingdom"})
	store.AddCountry(dbt.Country{ID: 3, Name: "United States"})

	store.AddCity(dbt.City{ID: 1, Name: "Paris", StateName: "Ile-de-France", CountryName: "France", CountryID: 1, Latitude: 48.85, Longitude: 2.35})
	store.AddCity(dbt.City{ID: 2, Name: "Lyon", StateName: "Auvergne-Rhone-Alpes", CountryName: "France", CountryID: 1, Latitude: 45.76, Longitude: 4.83})
	store.AddCity(dbt.City{ID: 3, Name: "London", StateName: "England", CountryName: "United Kingdom", CountryID: 2, Latitude: 51.50, Longitude: -0.12})
	store.AddCity(dbt.City{ID: 4, Name: "Springfield", StateName: "Illinois", CountryName: "United States", CountryID: 3})
	store.AddCity(dbt.City{ID: 5, Name: "Springfield", StateName: "Missouri", CountryName: "United States", CountryID: 3})
}

// chat drives one user's side of a conversation.
type chat struct {
	t        *testing.T
	e        *engine.Engine
	userID   int64
	username string
}

func (e *env) chatAs(t *testing.T, userID int64, username string) *chat {
	return &chat{t: t, e: e.e, userID: userID, username: username}
}

func (c *chat) send(text string) []gw.Reply {
	c.t.Helper()
	return c.e.Handle(context.Background(), gw.Inbound{UserID: c.userID, Username: c.username, Text: text})
}

// say sends text and asserts the exact reply texts.
func (c *chat) say(text string, want ...string) {
	c.t.Helper()
	require.Equal(c.t, want, replyTexts(c.send(text)))
}

// sayContains sends text and asserts each fragment appears somewhere in
// the replies.
func (c *chat) sayContains(text string, fragments ...string) []gw.Reply {
	c.t.Helper()
	replies := c.send(text)
	joined := strings.Join(replyTexts(replies), "\n")
	for _, f := range fragments {
		require.Contains(c.t, joined, f)
	}
	return replies
}

func replyTexts(replies []gw.Reply) []string {
	out := make([]string, len(replies))
	for i, r := range replies {
		out[i] = r.Text
	}
	return out
}

// signUp walks a user through the whole registration conversation.
func signUp(c *chat, city, country string) {
	c.t.Helper()
	c.send("/sign_up")
	c.send(city)
	c.send(country)
	c.send("30")
	c.send("/skip")
}

// createTrip walks an already registered user through trip creation.
func createTrip(c *chat, name string, cities []string, start, end string, invites ...string) {
	c.t.Helper()
	c.send("/new_travel")
	c.send(name)
	c.send("trip description")
	for _, city := range cities {
		c.send(city)
	}
	c.send("end")
	c.send(start)
	c.send(end)
	for _, u := range invites {
		c.send(u)
	}
	c.say("end", "Travel created")
}

func TestStartFlow(t *testing.T) {
	env := newEnv(t)
	c := env.chatAs(t, 1, "ann")

	c.say("/start", "Hi, ann. Before we start, we need some info about you. Type /sign_up to get started")

	signUp(c, "Paris", "France")
	c.say("/start", "Hi ann! Type /new_travel to add new travel")
}

func TestSignUpFlow(t *testing.T) {
	env := newEnv(t)
	c := env.chatAs(t, 1, "ann")

	c.say("/sign_up", "Input your city (It will be used as start point for your new adventures)")
	c.say("Paris", "Got your city: Paris", "Now, please, input your country")
	c.say("France", "Got your country: France", "Now, please, input your age")
	c.say("25", "Got your age: 25", "Now, you can add some bio or skip it (with /skip command)")
	c.say("I like trains", "Got your bio: I like trains",
		"Thanks for all info. You can now add your first travel using /new_travel!")

	u, err := env.store.GetUser(1)
	require.NoError(t, err)
	assert.Equal(t, "ann", u.Username)
	assert.Equal(t, 1, u.CityID)
	assert.Equal(t, "Paris", u.CityName)
	assert.Equal(t, "France", u.CountryName)
	assert.Equal(t, 25, u.Age)
	assert.Equal(t, "I like trains", u.Bio)
	assert.False(t, u.Registered.IsZero())

	// Running sign-up again short-circuits.
	c.say("/sign_up", "Hi ann! You are already registered!")
}

func TestSignUpRejectsInvalidAnswers(t *testing.T) {
	env := newEnv(t)
	c := env.chatAs(t, 1, "ann")

	c.send("/sign_up")
	c.sayContains("Pa", "Sorry, location is invalid", "Did you mean one of these locations?", "1. Paris in France, Ile-de-France")
	c.send("Paris")
	c.say("Narnia", "Sorry, country is invalid")
	c.send("France")
	c.say("old", "Sorry, age is invalid")
	c.say("120", "Sorry, age is invalid")
	c.send("25")
	c.say("/skip", "Thanks for all info. You can now add your first travel using /new_travel!")
}

func TestSignUpCityDisambiguation(t *testing.T) {
	env := newEnv(t)
	c := env.chatAs(t, 1, "ann")

	c.send("/sign_up")
	c.sayContains("Springfield",
		"There are multiple locations with this name. Please choose one by its number: ",
		"1. Springfield in United States, Illinois",
		"2. Springfield in United States, Missouri")
	c.say("7", "Sorry, index is invalid")
	c.say("two", "Sorry, index is invalid")
	c.say("2", "Now, please, input your country")
	c.send("United States")
	c.send("41")
	c.send("/skip")

	u, err := env.store.GetUser(1)
	require.NoError(t, err)
	assert.Equal(t, 5, u.CityID)
	assert.Equal(t, "Springfield", u.CityName)
}

func TestNewTripRequiresSignUp(t *testing.T) {
	env := newEnv(t)
	c := env.chatAs(t, 1, "ann")

	c.say("/new_travel", "Please /sign_up first")
}

func TestNewTripFlow(t *testing.T) {
	env := newEnv(t)
	ann := env.chatAs(t, 1, "ann")
	bob := env.chatAs(t, 2, "bob")
	signUp(ann, "Paris", "France")
	signUp(bob, "Lyon", "France")

	ann.say("/new_travel", "Hi, let's add new travel", "First, input name of your travel. Note: name should be unique")
	ann.say("Summer25", "Great, now add description of your travel.")
	ann.say("two weeks in France", "Great, now add cities of your travel. Send 'end' when you're done")
	ann.say("end", "Sorry, you should add at least one location")
	ann.say("Lyon", "Location added")

	// Nothing committed until the invite loop closes.
	_, err := env.store.GetOwnedTrip("Summer25", 1)
	assert.ErrorIs(t, err, dbt.ErrNotFound)

	ann.say("end", "Great, now input start date of your travel (in format DD.MM.YYYY)")
	ann.send("01.08.2099")
	ann.say("10.08.2099",
		"Now you can invite other users (by their username) to your travel. Note, that users have to be registered first",
		"Type 'end' to stop inviting")
	ann.say("ghost", "Sorry user is not found. Maybe user is not registered")
	ann.say("bob", "User invited")
	ann.say("bob", "User is already invited")
	ann.say("end", "Travel created")

	trip, err := env.store.GetOwnedTrip("Summer25", 1)
	require.NoError(t, err)
	assert.Equal(t, "two weeks in France", trip.Description)
	assert.Equal(t, "01.08.2099", trip.StartDate.Format(flow.DateLayout))
	assert.Equal(t, "10.08.2099", trip.EndDate.Format(flow.DateLayout))

	cities, err := env.store.GetTripCities(trip.ID)
	require.NoError(t, err)
	require.Len(t, cities, 1)
	assert.Equal(t, "Lyon", cities[0].Name)

	users, err := env.store.GetTripUsers(trip.ID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].Username)
}

func TestNewTripRejectsDuplicateNamePerOwner(t *testing.T) {
	env := newEnv(t)
	ann := env.chatAs(t, 1, "ann")
	bob := env.chatAs(t, 2, "bob")
	signUp(ann, "Paris", "France")
	signUp(bob, "Lyon", "France")
	createTrip(ann, "Summer25", []string{"Lyon"}, "01.08.2099", "10.08.2099")

	ann.send("/new_travel")
	ann.say("Summer25", "Sorry, name is invalid")
	ann.say("/stop", "Hope you'll come back later!")

	// Another owner may reuse the name.
	bob.send("/new_travel")
	bob.say("Summer25", "Great, now add description of your travel.")
	bob.send("/stop")
}

func TestNewTripInvalidDatesReturnToStartDate(t *testing.T) {
	env := newEnv(t)
	ann := env.chatAs(t, 1, "ann")
	signUp(ann, "Paris", "France")

	ann.send("/new_travel")
	ann.send("Summer25")
	ann.send("desc")
	ann.send("Lyon")
	ann.send("end")
	ann.send("10.08.2099")
	// End before start: both dates are re-collected.
	ann.say("01.08.2099", "Sorry, dates are invalid")
	ann.send("01.08.2099")
	ann.sayContains("10.08.2099", "Now you can invite other users")
	ann.say("end", "Travel created")
}

func TestNewTripCancelLeavesNothing(t *testing.T) {
	env := newEnv(t)
	ann := env.chatAs(t, 1, "ann")
	signUp(ann, "Paris", "France")

	ann.send("/new_travel")
	ann.send("Summer25")
	ann.send("desc")
	ann.send("Lyon")
	ann.say("/stop", "Hope you'll come back later!")

	_, err := env.store.GetOwnedTrip("Summer25", 1)
	assert.ErrorIs(t, err, dbt.ErrNotFound)
}

func TestMyTrips(t *testing.T) {
	env := newEnv(t)
	ann := env.chatAs(t, 1, "ann")
	bob := env.chatAs(t, 2, "bob")
	signUp(ann, "Paris", "France")
	signUp(bob, "Lyon", "France")

	ann.say("/my_travels", "You don't have any travels")

	createTrip(ann, "Summer25", []string{"Lyon"}, "01.08.2099", "10.08.2099", "bob")

	ann.sayContains("/my_travels",
		"Your travels: ", "Name: Summer25", "Locations: Lyon", "Dates: from 01.08.2099 to 10.08.2099")
	bob.sayContains("/my_travels", "You are invited to: ", "Name: Summer25")
}

func TestEditTripGuards(t *testing.T) {
	env := newEnv(t)
	ann := env.chatAs(t, 1, "ann")

	ann.say("/edit_travel", "Please /sign_up first")
	signUp(ann, "Paris", "France")
	ann.say("/edit_travel", "You don't have any travels", "Let's fix it! Type /new_travel to add new travel")
}

func TestEditTripRename(t *testing.T) {
	env := newEnv(t)
	ann := env.chatAs(t, 1, "ann")
	signUp(ann, "Paris", "France")
	createTrip(ann, "Summer25", []string{"Lyon"}, "01.08.2099", "10.08.2099")

	ann.sayContains("/edit_travel", "Choose travel (type travel's name): ", "• Summer25")
	ann.say("nope", "Sorry, travel name is invalid")
	ann.sayContains("Summer25", "Choose value to edit: name, description, locations, dates, invited users. ")
	ann.say("name", "Current name: Summer25. Enter new name")
	ann.say("Autumn", "Travel name changed. Choose new value to edit or type 'end' to finish editing")

	// The renamed trip stays editable in the same session.
	ann.say("description", "Current description: trip description. Enter new description")
	ann.say("longer description", "Travel description changed. Choose new value to edit or type 'end' to finish editing")

	ann.sayContains("end",
		"Changes made: ",
		"name: Summer25 is now Autumn",
		"description: trip description is now longer description",
		"Travel editing finished")

	trip, err := env.store.GetOwnedTrip("Autumn", 1)
	require.NoError(t, err)
	assert.Equal(t, "longer description", trip.Description)
	_, err = env.store.GetOwnedTrip("Summer25", 1)
	assert.ErrorIs(t, err, dbt.ErrNotFound)
}

func TestEditTripReplacesLocations(t *testing.T) {
	env := newEnv(t)
	ann := env.chatAs(t, 1, "ann")
	signUp(ann, "Paris", "France")
	createTrip(ann, "Summer25", []string{"Lyon"}, "01.08.2099", "10.08.2099")

	ann.send("/edit_travel")
	ann.send("Summer25")
	ann.say("locations", "Current locations (Lyon) will be replaced. Enter new locations. Send 'end' when you're done")
	ann.say("London", "Location added")
	ann.say("Paris", "Location added")
	ann.say("end", "Locations changed. Choose new value to edit or type 'end' to finish editing")
	ann.sayContains("end", "Changes made: ", "locations", "Travel editing finished")

	trip, err := env.store.GetOwnedTrip("Summer25", 1)
	require.NoError(t, err)
	cities, err := env.store.GetTripCities(trip.ID)
	require.NoError(t, err)
	require.Len(t, cities, 2)
	assert.Equal(t, "London", cities[0].Name)
	assert.Equal(t, "Paris", cities[1].Name)
}

func TestEditTripDelete(t *testing.T) {
	env := newEnv(t)
	ann := env.chatAs(t, 1, "ann")
	signUp(ann, "Paris", "France")
	createTrip(ann, "Summer25", []string{"Lyon"}, "01.08.2099", "10.08.2099")

	ann.send("/edit_travel")
	ann.send("Summer25")
	ann.say("delete", "Are you sure you want to delete travel Summer25? Type 'yes' to confirm or 'no' to cancel")
	ann.say("no", "Travel not deleted. Choose new value to edit or type 'end' to finish editing")
	ann.send("delete")
	ann.say("yes", "Travel deleted")

	_, err := env.store.GetOwnedTrip("Summer25", 1)
	assert.ErrorIs(t, err, dbt.ErrNotFound)
}

func TestLeaveTrip(t *testing.T) {
	env := newEnv(t)
	ann := env.chatAs(t, 1, "ann")
	bob := env.chatAs(t, 2, "bob")
	signUp(ann, "Paris", "France")
	signUp(bob, "Lyon", "France")

	bob.say("/leave_travel", "You don't have any invites")

	createTrip(ann, "Summer25", []string{"Lyon"}, "01.08.2099", "10.08.2099", "bob")

	bob.sayContains("/leave_travel", "Which travel you want to leave (type travel's name): ", "• Summer25")
	bob.say("Winter", "Sorry, travel name is invalid")
	bob.say("Summer25", "Travel left")

	trip, err := env.store.GetOwnedTrip("Summer25", 1)
	require.NoError(t, err)
	users, err := env.store.GetTripUsers(trip.ID)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestNotesFlow(t *testing.T) {
	env := newEnv(t)
	ann := env.chatAs(t, 1, "ann")
	bob := env.chatAs(t, 2, "bob")
	signUp(ann, "Paris", "France")
	signUp(bob, "Lyon", "France")
	createTrip(ann, "Summer25", []string{"Lyon"}, "01.08.2099", "10.08.2099", "bob")

	// Owner adds one public and one private note.
	ann.send("/edit_notes")
	ann.sayContains("Summer25", "Travel has no notes, you can add one")
	ann.say("add", "Choose if note is public or not (type 'public' or 'private')")
	ann.say("public", "Enter your note")
	ann.sayContains("pack sunscreen", "Note added. ")
	ann.send("add")
	ann.send("private")
	ann.send("renew passport")
	ann.say("end", "Notes edited")

	// The invitee sees only the public note and cannot delete it.
	bob.send("/edit_notes")
	replies := bob.sayContains("Summer25", "Travel notes: ", "1. ann: pack sunscreen")
	assert.NotContains(t, strings.Join(replyTexts(replies), "\n"), "renew passport")
	bob.say("remove", "You don't have any notes in this travel")

	// The invitee's own note can be removed, but not someone else's. The
	// listing is ordered by note ID, so look the positions up.
	bob.send("add")
	bob.send("private")
	bob.send("my own note")
	bob.say("remove", "Choose note to remove by it's number. Note you can only delete your own notes")

	trip, err := env.store.GetOwnedTrip("Summer25", 1)
	require.NoError(t, err)
	notes, err := env.store.GetTripNotes(trip.ID)
	require.NoError(t, err)
	annIdx, bobIdx := 0, 0
	visible := 0
	for _, n := range notes {
		if !n.Public && n.AuthorID != 2 {
			continue
		}
		visible++
		if n.AuthorID == 1 {
			annIdx = visible
		} else {
			bobIdx = visible
		}
	}
	require.NotZero(t, annIdx)
	require.NotZero(t, bobIdx)

	bob.say(strconv.Itoa(annIdx), "Sorry, you can only delete your own notes. Choose another one or exit using /stop")
	bob.sayContains(strconv.Itoa(bobIdx), "Note removed. ")
	bob.say("end", "Notes edited")
}

func TestPurchasesFlow(t *testing.T) {
	env := newEnv(t)
	ann := env.chatAs(t, 1, "ann")
	signUp(ann, "Paris", "France")
	createTrip(ann, "Summer25", []string{"Lyon"}, "01.08.2099", "10.08.2099")

	ann.send("/travel_purchases")
	ann.say("Summer25", "Choose action (type action's name): see purchases or add new purchase")
	ann.say("see", "Travel has no purchases, you can add one")
	ann.say("add", "Enter purchase summary")
	ann.say("twelve", "Sorry, purchase is invalid")
	ann.say("120", "Now add note")
	ann.say("train tickets", "Purchase added")
	ann.sayContains("see",
		"Travel purchases: ", "ann purchases: ", "1. 120 (train tickets) on "+time.Now().Format("02-01-2006"),
		"ann total: 120")
	ann.say("end", "Purchases edited")
}

func TestTripInfoDegradesPerProvider(t *testing.T) {
	deps := flow.Deps{
		Weather: stubWeather{err: provider.ErrUnavailable},
		Hotels:  stubHotels{err: provider.ErrProvider},
		Route:   stubRoute{err: provider.ErrProvider},
	}
	env := newEnvWithDeps(t, deps)
	ann := env.chatAs(t, 1, "ann")
	signUp(ann, "Paris", "France")
	createTrip(ann, "Summer25", []string{"Lyon"}, "01.08.2099", "10.08.2099")

	ann.send("/travel_info")
	ann.sayContains("Summer25",
		"Travel name: Summer25",
		"Sorry, route data is not available",
		"Sorry, hotels data is not available",
		"Weather data is not available yet")
}

func TestTripInfoRendersProviderData(t *testing.T) {
	stars := 4.0
	deps := flow.Deps{
		Weather: stubWeather{summaries: map[string]provider.WeatherSummary{
			"Lyon": {AvgDayTemp: 24.6, AvgNightTemp: 15.2, RainyDays: []string{"2099-08-03"}},
		}},
		Hotels: stubHotels{hotels: map[string][]provider.Hotel{
			"Lyon": {
				{Name: "Grand Lyon", Stars: &stars, UserRating: 8.8, Price: "$120", Distance: 0.4},
				{Name: "Petit Lyon", UserRating: 7.1, Price: "$60", Distance: 2.1},
			},
		}},
		Route: stubRoute{png: []byte("png-bytes")},
	}
	env := newEnvWithDeps(t, deps)
	ann := env.chatAs(t, 1, "ann")
	signUp(ann, "Paris", "France")
	createTrip(ann, "Summer25", []string{"Lyon"}, "01.08.2099", "10.08.2099")

	ann.send("/travel_info")
	replies := ann.sayContains("Summer25",
		"Travel name: Summer25",
		"Travel route (might take a moment): ",
		"Hotel: 'Grand Lyon' with 4 stars and '8.8' user rating. Price of one night: $120. 0.4 miles away from city center",
		"Hotel: 'Petit Lyon' with 'no star rating' stars and '7.1' user rating. Price of one night: $60. 2.1 miles away from city center",
		"Weather in Lyon: ",
		"• Average day temperature: 25 °C",
		"• Average night temperature: 15 °C",
		"• Rainy days: 2099-08-03")

	// The home city leads the rendered route.
	var routeReply *gw.Reply
	for i := range replies {
		if len(replies[i].Image) > 0 {
			routeReply = &replies[i]
		}
	}
	require.NotNil(t, routeReply, "expected a reply carrying the route image")
	assert.Equal(t, "Paris - Lyon", routeReply.Text)
	assert.Equal(t, []byte("png-bytes"), routeReply.Image)
}

func TestUnknownCommandHint(t *testing.T) {
	env := newEnv(t)
	ann := env.chatAs(t, 1, "ann")

	replies := ann.send("hello?")
	require.Len(t, replies, 1)
	assert.Equal(t, "Sorry, I don't understand. Choose a command to continue", replies[0].Text)
	assert.Equal(t, flow.MainMenu, replies[0].QuickReplies)
}
