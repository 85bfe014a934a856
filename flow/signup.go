package flow

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	dbt "tripbot/db/db"
	"tripbot/engine"
	gw "tripbot/gateway/gateway"
)

// SkipTrigger skips the optional bio question inside sign-up.
const SkipTrigger = "/skip"

const (
	stateSignUpCity        engine.State = "city"
	stateSignUpSpecifyCity engine.State = "specify_city"
	stateSignUpCountry     engine.State = "country"
	stateSignUpAge         engine.State = "age"
	stateSignUpBio         engine.State = "bio"
)

// SignUpFlow registers a new user: home city (with disambiguation),
// country, age and an optional bio. The user row is created once, at the
// end.
func SignUpFlow() *engine.Flow {
	return &engine.Flow{
		Name:    "sign_up",
		Trigger: TriggerSignUp,
		Entry:   signUpEntry,
		States: map[engine.State]engine.Handler{
			stateSignUpCity:        signUpCity,
			stateSignUpSpecifyCity: signUpSpecifyCity,
			stateSignUpCountry:     signUpCountry,
			stateSignUpAge:         signUpAge,
			stateSignUpBio:         signUpBio,
		},
	}
}

func signUpEntry(r *engine.Request) engine.Outcome {
	if _, err := r.Store.GetUser(r.UserID); err == nil {
		return engine.Terminate(reply(fmt.Sprintf("Hi %s! You are already registered!", r.Username), MainMenu...))
	} else if !errors.Is(err, dbt.ErrNotFound) {
		return engine.Terminate(errReply)
	}
	return engine.Advance(stateSignUpCity,
		reply("Input your city (It will be used as start point for your new adventures)"))
}

func signUpCity(r *engine.Request) engine.Outcome {
	ok, hints := ValidateCity(r.Store, r.Text)
	if !ok {
		return engine.Stay(invalidCityReply(hints))
	}

	found, err := r.Store.GetCitiesByName(r.Text)
	if err != nil {
		return engine.Stay(errReply)
	}
	if len(found) == 1 {
		r.Scratch.Set("city_id", found[0].ID)
		r.Scratch.Set("city_name", found[0].Name)
		return engine.Advance(stateSignUpCountry,
			reply(fmt.Sprintf("Got your city: %s", found[0].Name)),
			reply("Now, please, input your country"))
	}

	r.Scratch.Set("found_locations", found)
	return engine.Advance(stateSignUpSpecifyCity, cityChoicesReplies(found)...)
}

func signUpSpecifyCity(r *engine.Request) engine.Outcome {
	var found []dbt.City
	if err := r.Scratch.Decode("found_locations", &found); err != nil {
		return engine.Terminate(errReply)
	}
	idx, err := strconv.Atoi(r.Text)
	if err != nil || idx < 1 || idx > len(found) {
		return engine.Stay(reply("Sorry, index is invalid"))
	}

	chosen := found[idx-1]
	r.Scratch.Set("city_id", chosen.ID)
	r.Scratch.Set("city_name", chosen.Name)
	r.Scratch.Delete("found_locations")
	return engine.Advance(stateSignUpCountry, reply("Now, please, input your country"))
}

func signUpCountry(r *engine.Request) engine.Outcome {
	if !ValidateCountry(r.Store, r.Text) {
		return engine.Stay(reply("Sorry, country is invalid"))
	}
	country, err := r.Store.GetCountryByName(r.Text)
	if err != nil {
		return engine.Stay(errReply)
	}

	r.Scratch.Set("country_id", country.ID)
	r.Scratch.Set("country_name", country.Name)
	return engine.Advance(stateSignUpAge,
		reply(fmt.Sprintf("Got your country: %s", country.Name)),
		reply("Now, please, input your age"))
}

func signUpAge(r *engine.Request) engine.Outcome {
	if !ValidateAge(r.Text) {
		return engine.Stay(reply("Sorry, age is invalid"))
	}
	age, _ := strconv.Atoi(r.Text)
	r.Scratch.Set("age", age)
	return engine.Advance(stateSignUpBio,
		reply(fmt.Sprintf("Got your age: %d", age)),
		reply("Now, you can add some bio or skip it (with /skip command)"))
}

func signUpBio(r *engine.Request) engine.Outcome {
	if r.Text != SkipTrigger {
		r.Scratch.Set("bio", r.Text)
		return createUser(r, reply(fmt.Sprintf("Got your bio: %s", r.Text)))
	}
	return createUser(r)
}

func createUser(r *engine.Request, extra ...gw.Reply) engine.Outcome {
	cityID, _ := r.Scratch.GetInt("city_id")
	cityName, _ := r.Scratch.GetString("city_name")
	countryID, _ := r.Scratch.GetInt("country_id")
	countryName, _ := r.Scratch.GetString("country_name")
	age, _ := r.Scratch.GetInt("age")
	bio, _ := r.Scratch.GetString("bio")

	u := &dbt.User{
		ID:          r.UserID,
		Username:    r.Username,
		CityID:      cityID,
		CityName:    cityName,
		CountryID:   countryID,
		CountryName: countryName,
		Age:         age,
		Bio:         bio,
		Registered:  time.Now(),
	}
	if err := r.Store.CreateUser(u); err != nil {
		return engine.Terminate(errReply)
	}

	replies := append(extra,
		reply("Thanks for all info. You can now add your first travel using /new_travel!", MainMenu...))
	return engine.Terminate(replies...)
}
