package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upInitTables, downInitTables)
}

func upInitTables(ctx context.Context, tx *sql.Tx) error {
	// Create countries table
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE countries (
			id INTEGER PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			iso3 VARCHAR(3),
			iso2 VARCHAR(2),
			capital VARCHAR(255),
			currency VARCHAR(255),
			currency_name VARCHAR(255),
			region VARCHAR(255),
			subregion VARCHAR(255),
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION
		);
	`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `CREATE INDEX idx_countries_name ON countries(name);`)
	if err != nil {
		return err
	}

	// Create cities table
	_, err = tx.ExecContext(ctx, `
		CREATE TABLE cities (
			id INTEGER PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			state_name VARCHAR(255) NOT NULL,
			state_code VARCHAR(255) NOT NULL,
			country_name VARCHAR(255) NOT NULL,
			country_code VARCHAR(2) NOT NULL,
			country_id INTEGER,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			CONSTRAINT fk_cities_country
				FOREIGN KEY(country_id)
				REFERENCES countries(id)
				ON UPDATE CASCADE
		);
	`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `CREATE INDEX idx_cities_name ON cities(name);`)
	if err != nil {
		return err
	}

	// Create users table
	_, err = tx.ExecContext(ctx, `
		CREATE TABLE users (
			id BIGINT PRIMARY KEY,
			username VARCHAR(255) NOT NULL UNIQUE,
			city_id INTEGER NOT NULL,
			city_name VARCHAR(255) NOT NULL,
			country_id INTEGER NOT NULL,
			country_name VARCHAR(255),
			age INTEGER NOT NULL,
			bio TEXT,
			registered TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return err
	}

	// Create trips table
	_, err = tx.ExecContext(ctx, `
		CREATE TABLE trips (
			id UUID PRIMARY KEY,
			owner_id BIGINT NOT NULL,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT fk_trips_owner
				FOREIGN KEY(owner_id)
				REFERENCES users(id)
				ON UPDATE CASCADE
				ON DELETE CASCADE,
			CONSTRAINT uq_trips_owner_name UNIQUE (owner_id, name)
		);
	`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `CREATE INDEX idx_trips_owner_id ON trips(owner_id);`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `CREATE INDEX idx_trips_name ON trips(name);`)
	if err != nil {
		return err
	}

	// Create trip_to_city table
	_, err = tx.ExecContext(ctx, `
		CREATE TABLE trip_to_city (
			trip_id UUID NOT NULL,
			city_id INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (trip_id, city_id),
			CONSTRAINT fk_trip_to_city_trip
				FOREIGN KEY(trip_id)
				REFERENCES trips(id)
				ON UPDATE CASCADE
				ON DELETE CASCADE,
			CONSTRAINT fk_trip_to_city_city
				FOREIGN KEY(city_id)
				REFERENCES cities(id)
				ON UPDATE CASCADE
		);
	`)
	if err != nil {
		return err
	}

	// Create trip_to_user table
	_, err = tx.ExecContext(ctx, `
		CREATE TABLE trip_to_user (
			trip_id UUID NOT NULL,
			user_id BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (trip_id, user_id),
			CONSTRAINT fk_trip_to_user_trip
				FOREIGN KEY(trip_id)
				REFERENCES trips(id)
				ON UPDATE CASCADE
				ON DELETE CASCADE,
			CONSTRAINT fk_trip_to_user_user
				FOREIGN KEY(user_id)
				REFERENCES users(id)
				ON UPDATE CASCADE
				ON DELETE CASCADE
		);
	`)
	if err != nil {
		return err
	}

	// Create travel_notes table
	_, err = tx.ExecContext(ctx, `
		CREATE TABLE travel_notes (
			id UUID PRIMARY KEY,
			trip_id UUID NOT NULL,
			author_id BIGINT NOT NULL,
			public BOOLEAN NOT NULL,
			text TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT fk_travel_notes_trip
				FOREIGN KEY(trip_id)
				REFERENCES trips(id)
				ON UPDATE CASCADE
				ON DELETE CASCADE,
			CONSTRAINT fk_travel_notes_author
				FOREIGN KEY(author_id)
				REFERENCES users(id)
				ON UPDATE CASCADE
				ON DELETE CASCADE
		);
	`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `CREATE INDEX idx_travel_notes_trip_id ON travel_notes(trip_id);`)
	if err != nil {
		return err
	}

	// Create purchases table
	_, err = tx.ExecContext(ctx, `
		CREATE TABLE purchases (
			id UUID PRIMARY KEY,
			trip_id UUID NOT NULL,
			user_id BIGINT NOT NULL,
			price INTEGER NOT NULL,
			note TEXT,
			on_date TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT fk_purchases_trip
				FOREIGN KEY(trip_id)
				REFERENCES trips(id)
				ON UPDATE CASCADE
				ON DELETE CASCADE,
			CONSTRAINT fk_purchases_user
				FOREIGN KEY(user_id)
				REFERENCES users(id)
				ON UPDATE CASCADE
				ON DELETE CASCADE
		);
	`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `CREATE INDEX idx_purchases_trip_id ON purchases(trip_id);`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `CREATE INDEX idx_purchases_trip_id_user_id ON purchases(trip_id, user_id);`)
	if err != nil {
		return err
	}

	return nil
}

func downInitTables(ctx context.Context, tx *sql.Tx) error {
	// Foreign key constraints ensure correct drop order or will fail.
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS purchases;`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `DROP TABLE IF EXISTS travel_notes;`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `DROP TABLE IF EXISTS trip_to_user;`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `DROP TABLE IF EXISTS trip_to_city;`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `DROP TABLE IF EXISTS trips;`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `DROP TABLE IF EXISTS users;`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `DROP TABLE IF EXISTS cities;`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `DROP TABLE IF EXISTS countries;`)
	if err != nil {
		return err
	}

	return nil
}
