package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateProperties, downCreateProperties)
}

func upCreateProperties(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE properties (
	  id BIGSERIAL PRIMARY KEY,
	  owner_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	  title TEXT NOT NULL,
	  address TEXT NOT NULL,
	  city TEXT NOT NULL,
	  property_type TEXT NOT NULL CHECK (property_type IN ('residential', 'commercial', 'land')),
	  price_cents BIGINT NOT NULL CHECK (price_cents > 0),
	  bedrooms INT NOT NULL DEFAULT 0,
	  bathrooms INT NOT NULL DEFAULT 0,
	  area_sqft INT NOT NULL,
	  description TEXT,
	  image_urls TEXT[] NOT NULL DEFAULT '{}',
	  listing_code TEXT NOT NULL DEFAULT '',
	  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);

	CREATE INDEX idx_properties_city ON properties (city);
	`

	_, err := tx.ExecContext(ctx, query)
	return err
}

func downCreateProperties(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS properties;`)
	return err
}
