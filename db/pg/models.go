package pg

import (
	"time"

	"github.com/google/uuid"
)

type UserModel struct {
	ID          int64  `gorm:"primaryKey"`
	Username    string `gorm:"size:255;uniqueIndex;not null"`
	CityID      int    `gorm:"not null"`
	CityName    string `gorm:"size:255;not null"`
	CountryID   int    `gorm:"not null"`
	CountryName string `gorm:"size:255"`
	Age         int    `gorm:"not null"`
	Bio         string
	Registered  time.Time `gorm:"not null"`
	// meta data
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (UserModel) TableName() string {
	return "users"
}

type CityModel struct {
	ID          int    `gorm:"primaryKey"`
	Name        string `gorm:"size:255;index;not null"`
	StateName   string `gorm:"size:255;not null"`
	StateCode   string `gorm:"size:255;not null"`
	CountryName string `gorm:"size:255;not null"`
	CountryCode string `gorm:"size:2;not null"`
	CountryID   int
	Latitude    float64 `gorm:"not null"`
	Longitude   float64 `gorm:"not null"`
}

func (CityModel) TableName() string {
	return "cities"
}

type CountryModel struct {
	ID           int    `gorm:"primaryKey"`
	Name         string `gorm:"size:100;index;not null"`
	ISO3         string `gorm:"size:3"`
	ISO2         string `gorm:"size:2"`
	Capital      string `gorm:"size:255"`
	Currency     string `gorm:"size:255"`
	CurrencyName string `gorm:"size:255"`
	Region       string `gorm:"size:255"`
	Subregion    string `gorm:"size:255"`
	Latitude     float64
	Longitude    float64
}

func (CountryModel) TableName() string {
	return "countries"
}

type TripModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID     int64     `gorm:"not null;index"`
	Name        string    `gorm:"size:255;not null;index"`
	Description string
	StartDate   time.Time `gorm:"type:date;not null"`
	EndDate     time.Time `gorm:"type:date;not null"`
	// meta data
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (TripModel) TableName() string {
	return "trips"
}

type TripCityModel struct {
	TripID uuid.UUID `gorm:"type:uuid;primaryKey"`
	CityID int       `gorm:"primaryKey"`
	// meta data
	CreatedAt time.Time
}

func (TripCityModel) TableName() string {
	return "trip_to_city"
}

type TripUserModel struct {
	TripID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID int64     `gorm:"primaryKey"`
	// meta data
	CreatedAt time.Time
}

func (TripUserModel) TableName() string {
	return "trip_to_user"
}

type NoteModel struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TripID   uuid.UUID `gorm:"type:uuid;not null;index"`
	AuthorID int64     `gorm:"not null"`
	Public   bool      `gorm:"not null"`
	Text     string    `gorm:"not null"`
	// meta data
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (NoteModel) TableName() string {
	return "travel_notes"
}

type PurchaseModel struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	TripID uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID int64     `gorm:"not null;index"`
	Price  int       `gorm:"not null"`
	Note   string
	OnDate time.Time `gorm:"not null"`
	// meta data
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PurchaseModel) TableName() string {
	return "purchases"
}
