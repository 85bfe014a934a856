package mem

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	dbt "tripbot/db/db"
)

// Store is an in-memory implementation of dbt.Store. It backs the
// conversation tests and the local chat mode; city/country reference data
// is seeded through AddCity/AddCountry.
type Store struct {
	users     map[int64]*dbt.User
	cities    map[int]*dbt.City
	countries map[int]*dbt.Country
	trips     map[uuid.UUID]*dbt.Trip
	// association rows, keyed by trip
	tripCities map[uuid.UUID][]int
	tripUsers  map[uuid.UUID][]int64
	notes      map[uuid.UUID]*dbt.Note
	purchases  map[uuid.UUID]*dbt.Purchase

	mu sync.RWMutex
}

// NewInMemoryStore creates and returns a new empty in-memory store.
func NewInMemoryStore() *Store {
	return &Store{
		users:      make(map[int64]*dbt.User),
		cities:     make(map[int]*dbt.City),
		countries:  make(map[int]*dbt.Country),
		trips:      make(map[uuid.UUID]*dbt.Trip),
		tripCities: make(map[uuid.UUID][]int),
		tripUsers:  make(map[uuid.UUID][]int64),
		notes:      make(map[uuid.UUID]*dbt.Note),
		purchases:  make(map[uuid.UUID]*dbt.Purchase),
	}
}

// AddCity seeds a reference city row.
func (s *Store) AddCity(c dbt.City) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cities[c.ID] = &c
}

// AddCountry seeds a reference country row.
func (s *Store) AddCountry(c dbt.Country) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countries[c.ID] = &c
}

// --- UserDB ---

func (s *Store) CreateUser(u *dbt.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[u.ID]; exists {
		return fmt.Errorf("user %d: %w", u.ID, dbt.ErrDuplicate)
	}
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return fmt.Errorf("username %q: %w", u.Username, dbt.ErrDuplicate)
		}
	}

	userCopy := *u
	s.users[u.ID] = &userCopy
	return nil
}

func (s *Store) GetUser(id int64) (*dbt.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, exists := s.users[id]
	if !exists {
		return nil, fmt.Errorf("user %d: %w", id, dbt.ErrNotFound)
	}
	userCopy := *u
	return &userCopy, nil
}

func (s *Store) GetUserByUsername(username string) (*dbt.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			userCopy := *u
			return &userCopy, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, dbt.ErrNotFound)
}

// --- GeoDB ---

func (s *Store) GetCity(id int) (*dbt.City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.cities[id]
	if !exists {
		return nil, fmt.Errorf("city %d: %w", id, dbt.ErrNotFound)
	}
	cityCopy := *c
	return &cityCopy, nil
}

func (s *Store) GetCitiesByName(name string) ([]dbt.City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cities []dbt.City
	for _, c := range s.cities {
		if c.Name == name {
			cities = append(cities, *c)
		}
	}
	sortCities(cities)
	return cities, nil
}

func (s *Store) GetSimilarCities(name string, limit int) ([]dbt.City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(name)
	var cities []dbt.City
	for _, c := range s.cities {
		if strings.Contains(strings.ToLower(c.Name), needle) {
			cities = append(cities, *c)
		}
	}
	sortCities(cities)
	if limit > 0 && len(cities) > limit {
		cities = cities[:limit]
	}
	return cities, nil
}

func sortCities(cities []dbt.City) {
	sort.Slice(cities, func(i, j int) bool { return cities[i].ID < cities[j].ID })
}

func (s *Store) GetCountryByName(name string) (*dbt.Country, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.countries {
		if c.Name == name {
			countryCopy := *c
			return &countryCopy, nil
		}
	}
	return nil, fmt.Errorf("country %q: %w", name, dbt.ErrNotFound)
}

// --- TripDB ---

func (s *Store) CreateTrip(t *dbt.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.trips[t.ID]; exists {
		return fmt.Errorf("trip %s: %w", t.ID, dbt.ErrDuplicate)
	}

	tripCopy := *t
	s.trips[t.ID] = &tripCopy
	s.tripCities[t.ID] = []int{}
	s.tripUsers[t.ID] = []int64{}
	return nil
}

func (s *Store) GetOwnedTrip(name string, ownerID int64) (*dbt.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.trips {
		if t.Name == name && t.OwnerID == ownerID {
			tripCopy := *t
			return &tripCopy, nil
		}
	}
	return nil, fmt.Errorf("trip %q of user %d: %w", name, ownerID, dbt.ErrNotFound)
}

func (s *Store) GetAccessibleTrip(name string, userID int64) (*dbt.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, t := range s.trips {
		if t.Name != name {
			continue
		}
		if t.OwnerID == userID {
			tripCopy := *t
			return &tripCopy, nil
		}
		for _, invited := range s.tripUsers[id] {
			if invited == userID {
				tripCopy := *t
				return &tripCopy, nil
			}
		}
	}
	return nil, fmt.Errorf("trip %q for user %d: %w", name, userID, dbt.ErrNotFound)
}

func (s *Store) GetOwnedTrips(ownerID int64) ([]dbt.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var trips []dbt.Trip
	for _, t := range s.trips {
		if t.OwnerID == ownerID {
			trips = append(trips, *t)
		}
	}
	sortTrips(trips)
	return trips, nil
}

func (s *Store) GetInvitedTrips(userID int64) ([]dbt.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var trips []dbt.Trip
	for id, t := range s.trips {
		for _, invited := range s.tripUsers[id] {
			if invited == userID {
				trips = append(trips, *t)
				break
			}
		}
	}
	sortTrips(trips)
	return trips, nil
}

func sortTrips(trips []dbt.Trip) {
	sort.Slice(trips, func(i, j int) bool { return trips[i].Name < trips[j].Name })
}

func (s *Store) SetTripName(id uuid.UUID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.trips[id]
	if !exists {
		return fmt.Errorf("trip %s: %w", id, dbt.ErrNotFound)
	}
	t.Name = name
	return nil
}

func (s *Store) SetTripDescription(id uuid.UUID, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.trips[id]
	if !exists {
		return fmt.Errorf("trip %s: %w", id, dbt.ErrNotFound)
	}
	t.Description = description
	return nil
}

func (s *Store) SetTripDates(id uuid.UUID, start, end time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.trips[id]
	if !exists {
		return fmt.Errorf("trip %s: %w", id, dbt.ErrNotFound)
	}
	t.StartDate = start
	t.EndDate = end
	return nil
}

func (s *Store) DeleteTrip(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.trips[id]; !exists {
		return fmt.Errorf("trip %s: %w", id, dbt.ErrNotFound)
	}
	delete(s.trips, id)
	delete(s.tripCities, id)
	delete(s.tripUsers, id)
	for noteID, n := range s.notes {
		if n.TripID == id {
			delete(s.notes, noteID)
		}
	}
	for purchaseID, p := range s.purchases {
		if p.TripID == id {
			delete(s.purchases, purchaseID)
		}
	}
	return nil
}

func (s *Store) AddTripCity(tripID uuid.UUID, cityID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.trips[tripID]; !exists {
		return fmt.Errorf("trip %s: %w", tripID, dbt.ErrNotFound)
	}
	s.tripCities[tripID] = append(s.tripCities[tripID], cityID)
	return nil
}

func (s *Store) RemoveTripCities(tripID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.trips[tripID]; !exists {
		return fmt.Errorf("trip %s: %w", tripID, dbt.ErrNotFound)
	}
	s.tripCities[tripID] = []int{}
	return nil
}

func (s *Store) GetTripCities(tripID uuid.UUID) ([]dbt.City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.trips[tripID]; !exists {
		return nil, fmt.Errorf("trip %s: %w", tripID, dbt.ErrNotFound)
	}
	var cities []dbt.City
	for _, cityID := range s.tripCities[tripID] {
		if c, ok := s.cities[cityID]; ok {
			cities = append(cities, *c)
		}
	}
	return cities, nil
}

func (s *Store) InviteUser(tripID uuid.UUID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.trips[tripID]; !exists {
		return fmt.Errorf("trip %s: %w", tripID, dbt.ErrNotFound)
	}
	for _, invited := range s.tripUsers[tripID] {
		if invited == userID {
			return fmt.Errorf("user %d in trip %s: %w", userID, tripID, dbt.ErrDuplicate)
		}
	}
	s.tripUsers[tripID] = append(s.tripUsers[tripID], userID)
	return nil
}

func (s *Store) RemoveTripUser(tripID uuid.UUID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.trips[tripID]; !exists {
		return fmt.Errorf("trip %s: %w", tripID, dbt.ErrNotFound)
	}
	for i, invited := range s.tripUsers[tripID] {
		if invited == userID {
			s.tripUsers[tripID] = append(s.tripUsers[tripID][:i], s.tripUsers[tripID][i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("user %d in trip %s: %w", userID, tripID, dbt.ErrNotFound)
}

func (s *Store) RemoveTripUsers(tripID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.trips[tripID]; !exists {
		return fmt.Errorf("trip %s: %w", tripID, dbt.ErrNotFound)
	}
	s.tripUsers[tripID] = []int64{}
	return nil
}

func (s *Store) GetTripUsers(tripID uuid.UUID) ([]dbt.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.trips[tripID]; !exists {
		return nil, fmt.Errorf("trip %s: %w", tripID, dbt.ErrNotFound)
	}
	var users []dbt.User
	for _, userID := range s.tripUsers[tripID] {
		if u, ok := s.users[userID]; ok {
			users = append(users, *u)
		}
	}
	return users, nil
}

// --- NoteDB ---

func (s *Store) AddNote(n *dbt.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.trips[n.TripID]; !exists {
		return fmt.Errorf("trip %s: %w", n.TripID, dbt.ErrNotFound)
	}
	noteCopy := *n
	s.notes[n.ID] = &noteCopy
	return nil
}

func (s *Store) GetTripNotes(tripID uuid.UUID) ([]dbt.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var notes []dbt.Note
	for _, n := range s.notes {
		if n.TripID == tripID {
			notes = append(notes, *n)
		}
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].ID.String() < notes[j].ID.String() })
	return notes, nil
}

func (s *Store) DeleteNote(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notes[id]; !exists {
		return fmt.Errorf("note %s: %w", id, dbt.ErrNotFound)
	}
	delete(s.notes, id)
	return nil
}

// --- PurchaseDB ---

func (s *Store) AddPurchase(p *dbt.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.trips[p.TripID]; !exists {
		return fmt.Errorf("trip %s: %w", p.TripID, dbt.ErrNotFound)
	}
	purchaseCopy := *p
	s.purchases[p.ID] = &purchaseCopy
	return nil
}

func (s *Store) GetUserPurchases(userID int64) ([]dbt.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var purchases []dbt.Purchase
	for _, p := range s.purchases {
		if p.UserID == userID {
			purchases = append(purchases, *p)
		}
	}
	sort.Slice(purchases, func(i, j int) bool { return purchases[i].OnDate.Before(purchases[j].OnDate) })
	return purchases, nil
}

func (s *Store) GetUserPurchaseTotal(userID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, p := range s.purchases {
		if p.UserID == userID {
			total += p.Price
		}
	}
	return total, nil
}
