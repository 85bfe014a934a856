package pg

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbt "tripbot/db/db"
)

// GORMStore is a GORM-based PostgreSQL implementation of dbt.Store.
type GORMStore struct {
	db *gorm.DB
}

// NewGORMStore creates and returns a new instance of GORMStore.
func NewGORMStore(db *gorm.DB) dbt.Store {
	return &GORMStore{
		db: db,
	}
}

func isDuplicateErr(err error) bool {
	return strings.Contains(err.Error(), "duplicate key value violates unique constraint")
}

// --- UserDB ---

func (s *GORMStore) CreateUser(u *dbt.User) error {
	model := UserModel{
		ID:          u.ID,
		Username:    u.Username,
		CityID:      u.CityID,
		CityName:    u.CityName,
		CountryID:   u.CountryID,
		CountryName: u.CountryName,
		Age:         u.Age,
		Bio:         u.Bio,
		Registered:  u.Registered,
	}
	result := s.db.Create(&model)
	if result.Error != nil {
		if isDuplicateErr(result.Error) {
			return fmt.Errorf("user %d: %w", u.ID, dbt.ErrDuplicate)
		}
		return fmt.Errorf("failed to create user %d: %w", u.ID, result.Error)
	}
	return nil
}

func userFromModel(m *UserModel) *dbt.User {
	return &dbt.User{
		ID:          m.ID,
		Username:    m.Username,
		CityID:      m.CityID,
		CityName:    m.CityName,
		CountryID:   m.CountryID,
		CountryName: m.CountryName,
		Age:         m.Age,
		Bio:         m.Bio,
		Registered:  m.Registered,
	}
}

func (s *GORMStore) GetUser(id int64) (*dbt.User, error) {
	var model UserModel
	result := s.db.First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", id, dbt.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, result.Error)
	}
	return userFromModel(&model), nil
}

func (s *GORMStore) GetUserByUsername(username string) (*dbt.User, error) {
	var model UserModel
	result := s.db.First(&model, "username = ?", username)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %q: %w", username, dbt.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user %q: %w", username, result.Error)
	}
	return userFromModel(&model), nil
}

// --- GeoDB ---

func cityFromModel(m *CityModel) dbt.City {
	return dbt.City{
		ID:          m.ID,
		Name:        m.Name,
		StateName:   m.StateName,
		StateCode:   m.StateCode,
		CountryName: m.CountryName,
		CountryCode: m.CountryCode,
		CountryID:   m.CountryID,
		Latitude:    m.Latitude,
		Longitude:   m.Longitude,
	}
}

func (s *GORMStore) GetCity(id int) (*dbt.City, error) {
	var model CityModel
	result := s.db.First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("city %d: %w", id, dbt.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get city %d: %w", id, result.Error)
	}
	city := cityFromModel(&model)
	return &city, nil
}

func (s *GORMStore) GetCitiesByName(name string) ([]dbt.City, error) {
	var models []CityModel
	result := s.db.Where("name = ?", name).Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get cities named %q: %w", name, result.Error)
	}

	var cities []dbt.City
	for i := range models {
		cities = append(cities, cityFromModel(&models[i]))
	}
	return cities, nil
}

func (s *GORMStore) GetSimilarCities(name string, limit int) ([]dbt.City, error) {
	var models []CityModel
	result := s.db.Where("name ILIKE ?", "%"+name+"%").Limit(limit).Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to search cities like %q: %w", name, result.Error)
	}

	var cities []dbt.City
	for i := range models {
		cities = append(cities, cityFromModel(&models[i]))
	}
	return cities, nil
}

func (s *GORMStore) GetCountryByName(name string) (*dbt.Country, error) {
	var model CountryModel
	result := s.db.First(&model, "name = ?", name)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("country %q: %w", name, dbt.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get country %q: %w", name, result.Error)
	}
	return &dbt.Country{
		ID:           model.ID,
		Name:         model.Name,
		ISO3:         model.ISO3,
		ISO2:         model.ISO2,
		Capital:      model.Capital,
		Currency:     model.Currency,
		CurrencyName: model.CurrencyName,
		Region:       model.Region,
		Subregion:    model.Subregion,
		Latitude:     model.Latitude,
		Longitude:    model.Longitude,
	}, nil
}

// --- TripDB ---

func tripFromModel(m *TripModel) dbt.Trip {
	return dbt.Trip{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Name:        m.Name,
		Description: m.Description,
		StartDate:   dbt.Date(m.StartDate),
		EndDate:     dbt.Date(m.EndDate),
	}
}

func (s *GORMStore) CreateTrip(t *dbt.Trip) error {
	model := TripModel{
		ID:          t.ID,
		OwnerID:     t.OwnerID,
		Name:        t.Name,
		Description: t.Description,
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
	}
	result := s.db.Create(&model)
	if result.Error != nil {
		if isDuplicateErr(result.Error) {
			return fmt.Errorf("trip %s: %w", t.ID, dbt.ErrDuplicate)
		}
		return fmt.Errorf("failed to create trip: %w", result.Error)
	}
	return nil
}

func (s *GORMStore) GetOwnedTrip(name string, ownerID int64) (*dbt.Trip, error) {
	var model TripModel
	result := s.db.First(&model, "name = ? AND owner_id = ?", name, ownerID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("trip %q of user %d: %w", name, ownerID, dbt.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get trip %q: %w", name, result.Error)
	}
	trip := tripFromModel(&model)
	return &trip, nil
}

func (s *GORMStore) GetAccessibleTrip(name string, userID int64) (*dbt.Trip, error) {
	var model TripModel
	result := s.db.
		Joins("LEFT JOIN trip_to_user ON trip_to_user.trip_id = trips.id").
		Where("trips.name = ? AND (trips.owner_id = ? OR trip_to_user.user_id = ?)", name, userID, userID).
		First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("trip %q for user %d: %w", name, userID, dbt.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get accessible trip %q: %w", name, result.Error)
	}
	trip := tripFromModel(&model)
	return &trip, nil
}

func (s *GORMStore) GetOwnedTrips(ownerID int64) ([]dbt.Trip, error) {
	var models []TripModel
	result := s.db.Where("owner_id = ?", ownerID).Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get trips of user %d: %w", ownerID, result.Error)
	}

	var trips []dbt.Trip
	for i := range models {
		trips = append(trips, tripFromModel(&models[i]))
	}
	return trips, nil
}

func (s *GORMStore) GetInvitedTrips(userID int64) ([]dbt.Trip, error) {
	var models []TripModel
	result := s.db.
		Joins("JOIN trip_to_user ON trip_to_user.trip_id = trips.id").
		Where("trip_to_user.user_id = ?", userID).
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get invited trips of user %d: %w", userID, result.Error)
	}

	var trips []dbt.Trip
	for i := range models {
		trips = append(trips, tripFromModel(&models[i]))
	}
	return trips, nil
}

func (s *GORMStore) updateTrip(id uuid.UUID, fields map[string]interface{}) error {
	result := s.db.Model(&TripModel{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to update trip %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("trip %s: %w", id, dbt.ErrNotFound)
	}
	return nil
}

func (s *GORMStore) SetTripName(id uuid.UUID, name string) error {
	return s.updateTrip(id, map[string]interface{}{"name": name})
}

func (s *GORMStore) SetTripDescription(id uuid.UUID, description string) error {
	return s.updateTrip(id, map[string]interface{}{"description": description})
}

func (s *GORMStore) SetTripDates(id uuid.UUID, start, end time.Time) error {
	return s.updateTrip(id, map[string]interface{}{"start_date": start, "end_date": end})
}

// DeleteTrip removes a trip. Notes, purchases and association rows go with
// it via ON DELETE CASCADE in the schema.
func (s *GORMStore) DeleteTrip(id uuid.UUID) error {
	result := s.db.Delete(&TripModel{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete trip %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("trip %s: %w", id, dbt.ErrNotFound)
	}
	return nil
}

func (s *GORMStore) AddTripCity(tripID uuid.UUID, cityID int) error {
	model := TripCityModel{
		TripID: tripID,
		CityID: cityID,
	}
	result := s.db.Create(&model)
	if result.Error != nil {
		if isDuplicateErr(result.Error) {
			return fmt.Errorf("city %d in trip %s: %w", cityID, tripID, dbt.ErrDuplicate)
		}
		return fmt.Errorf("failed to add city %d to trip %s: %w", cityID, tripID, result.Error)
	}
	return nil
}

func (s *GORMStore) RemoveTripCities(tripID uuid.UUID) error {
	result := s.db.Where("trip_id = ?", tripID).Delete(&TripCityModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove cities from trip %s: %w", tripID, result.Error)
	}
	return nil
}

func (s *GORMStore) GetTripCities(tripID uuid.UUID) ([]dbt.City, error) {
	var models []CityModel
	result := s.db.
		Joins("JOIN trip_to_city ON trip_to_city.city_id = cities.id").
		Where("trip_to_city.trip_id = ?", tripID).
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get cities of trip %s: %w", tripID, result.Error)
	}

	var cities []dbt.City
	for i := range models {
		cities = append(cities, cityFromModel(&models[i]))
	}
	return cities, nil
}

func (s *GORMStore) InviteUser(tripID uuid.UUID, userID int64) error {
	model := TripUserModel{
		TripID: tripID,
		UserID: userID,
	}
	result := s.db.Create(&model)
	if result.Error != nil {
		if isDuplicateErr(result.Error) {
			return fmt.Errorf("user %d in trip %s: %w", userID, tripID, dbt.ErrDuplicate)
		}
		return fmt.Errorf("failed to invite user %d to trip %s: %w", userID, tripID, result.Error)
	}
	return nil
}

func (s *GORMStore) RemoveTripUser(tripID uuid.UUID, userID int64) error {
	result := s.db.Where("trip_id = ? AND user_id = ?", tripID, userID).Delete(&TripUserModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove user %d from trip %s: %w", userID, tripID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user %d in trip %s: %w", userID, tripID, dbt.ErrNotFound)
	}
	return nil
}

func (s *GORMStore) RemoveTripUsers(tripID uuid.UUID) error {
	result := s.db.Where("trip_id = ?", tripID).Delete(&TripUserModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove users from trip %s: %w", tripID, result.Error)
	}
	return nil
}

func (s *GORMStore) GetTripUsers(tripID uuid.UUID) ([]dbt.User, error) {
	var models []UserModel
	result := s.db.
		Joins("JOIN trip_to_user ON trip_to_user.user_id = users.id").
		Where("trip_to_user.trip_id = ?", tripID).
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get users of trip %s: %w", tripID, result.Error)
	}

	var users []dbt.User
	for i := range models {
		users = append(users, *userFromModel(&models[i]))
	}
	return users, nil
}

// --- NoteDB ---

func (s *GORMStore) AddNote(n *dbt.Note) error {
	model := NoteModel{
		ID:       n.ID,
		TripID:   n.TripID,
		AuthorID: n.AuthorID,
		Public:   n.Public,
		Text:     n.Text,
	}
	result := s.db.Create(&model)
	if result.Error != nil {
		return fmt.Errorf("failed to add note to trip %s: %w", n.TripID, result.Error)
	}
	return nil
}

func (s *GORMStore) GetTripNotes(tripID uuid.UUID) ([]dbt.Note, error) {
	var models []NoteModel
	result := s.db.Where("trip_id = ?", tripID).Order("created_at").Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get notes of trip %s: %w", tripID, result.Error)
	}

	var notes []dbt.Note
	for _, m := range models {
		notes = append(notes, dbt.Note{
			ID:       m.ID,
			TripID:   m.TripID,
			AuthorID: m.AuthorID,
			Public:   m.Public,
			Text:     m.Text,
		})
	}
	return notes, nil
}

func (s *GORMStore) DeleteNote(id uuid.UUID) error {
	result := s.db.Delete(&NoteModel{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete note %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("note %s: %w", id, dbt.ErrNotFound)
	}
	return nil
}

// --- PurchaseDB ---

func (s *GORMStore) AddPurchase(p *dbt.Purchase) error {
	model := PurchaseModel{
		ID:     p.ID,
		TripID: p.TripID,
		UserID: p.UserID,
		Price:  p.Price,
		Note:   p.Note,
		OnDate: p.OnDate,
	}
	result := s.db.Create(&model)
	if result.Error != nil {
		return fmt.Errorf("failed to add purchase to trip %s: %w", p.TripID, result.Error)
	}
	return nil
}

func (s *GORMStore) GetUserPurchases(userID int64) ([]dbt.Purchase, error) {
	var models []PurchaseModel
	result := s.db.Where("user_id = ?", userID).Order("on_date").Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get purchases of user %d: %w", userID, result.Error)
	}

	var purchases []dbt.Purchase
	for _, m := range models {
		purchases = append(purchases, dbt.Purchase{
			ID:     m.ID,
			TripID: m.TripID,
			UserID: m.UserID,
			Price:  m.Price,
			Note:   m.Note,
			OnDate: m.OnDate,
		})
	}
	return purchases, nil
}

func (s *GORMStore) GetUserPurchaseTotal(userID int64) (int, error) {
	var total int64
	result := s.db.Model(&PurchaseModel{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(price), 0)").
		Scan(&total)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to total purchases of user %d: %w", userID, result.Error)
	}
	return int(total), nil
}
