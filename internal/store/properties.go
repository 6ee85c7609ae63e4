package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"estates/internal/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Property is one listing in the catalog.
type Property struct {
	ID           int64     `json:"id"`
	OwnerID      int64     `json:"owner_id"`
	Title        string    `json:"title"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	PropertyType string    `json:"property_type"` // residential | commercial | land
	PriceCents   int64     `json:"price_cents"`
	Bedrooms     int       `json:"bedrooms"`
	Bathrooms    int       `json:"bathrooms"`
	AreaSqft     int       `json:"area_sqft"`
	Description  *string   `json:"description,omitempty"`
	ImageURLs    []string  `json:"image_urls,omitempty"`
	ListingCode  string    `json:"listing_code"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Aggregates joined by List for the browsing index
	AvgRating   float64 `json:"avg_rating"`
	ReviewCount int     `json:"review_count"`
}

type PropertiesStore struct {
	db    *pgxpool.Pool
	coder *listingCoder
}

// Create inserts the listing and stamps its reference code in the same
// transaction, since the code is derived from the assigned id.
func (s *PropertiesStore) Create(ctx context.Context, p *Property) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return database.WithTx(s.db, ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO properties
				(owner_id, title, address, city, property_type, price_cents,
				 bedrooms, bathrooms, area_sqft, description, image_urls)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id, created_at, updated_at
		`
		err := tx.QueryRow(ctx, query,
			p.OwnerID,
			p.Title,
			p.Address,
			p.City,
			p.PropertyType,
			p.PriceCents,
			p.Bedrooms,
			p.Bathrooms,
			p.AreaSqft,
			p.Description,
			p.ImageURLs,
		).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create property: %w", err)
		}

		code, err := s.coder.Code(p.ID)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE properties SET listing_code = $1 WHERE id = $2`, code, p.ID); err != nil {
			return fmt.Errorf("set listing code: %w", err)
		}
		p.ListingCode = code
		return nil
	})
}

func (s *PropertiesStore) GetByID(ctx context.Context, propertyID int64) (*Property, error) {
	query := `
		SELECT id, owner_id, title, address, city, property_type, price_cents,
		       bedrooms, bathrooms, area_sqft, description, image_urls,
		       listing_code, created_at, updated_at
		FROM properties
		WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var p Property
	err := s.db.QueryRow(ctx, query, propertyID).Scan(
		&p.ID,
		&p.OwnerID,
		&p.Title,
		&p.Address,
		&p.City,
		&p.PropertyType,
		&p.PriceCents,
		&p.Bedrooms,
		&p.Bathrooms,
		&p.AreaSqft,
		&p.Description,
		&p.ImageURLs,
		&p.ListingCode,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get property: %w", err)
	}
	return &p, nil
}

// List returns all listings, newest first, each with its review count and
// mean rating so the browsing index renders without a second round trip.
func (s *PropertiesStore) List(ctx context.Context) ([]Property, error) {
	query := `
		SELECT p.id, p.owner_id, p.title, p.address, p.city, p.property_type,
		       p.price_cents, p.bedrooms, p.bathrooms, p.area_sqft, p.description,
		       p.image_urls, p.listing_code, p.created_at, p.updated_at,
		       COALESCE(AVG(r.rating), 0) AS avg_rating,
		       COUNT(r.id)                AS review_count
		FROM properties p
		LEFT JOIN reviews r ON r.property_id = p.id
		GROUP BY p.id
		ORDER BY p.created_at DESC
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	var properties []Property
	for rows.Next() {
		var p Property
		err := rows.Scan(
			&p.ID,
			&p.OwnerID,
			&p.Title,
			&p.Address,
			&p.City,
			&p.PropertyType,
			&p.PriceCents,
			&p.Bedrooms,
			&p.Bathrooms,
			&p.AreaSqft,
			&p.Description,
			&p.ImageURLs,
			&p.ListingCode,
			&p.CreatedAt,
			&p.UpdatedAt,
			&p.AvgRating,
			&p.ReviewCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		properties = append(properties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return properties, nil
}

// Update applies a partial update built from the allowed fields only.
func (s *PropertiesStore) Update(ctx context.Context, propertyID int64, updates map[string]interface{}) error {
	query := "UPDATE properties SET "
	args := []interface{}{}
	argCounter := 1

	for key, value := range updates {
		switch key {
		case "title", "address", "city", "property_type", "description":
			query += fmt.Sprintf("%s = $%d, ", key, argCounter)
			args = append(args, value)
			argCounter++
		case "price_cents", "bedrooms", "bathrooms", "area_sqft":
			query += fmt.Sprintf("%s = $%d, ", key, argCounter)
			args = append(args, value)
			argCounter++
		default:
			return fmt.Errorf("unsupported field: %s", key)
		}
	}
	if len(args) == 0 {
		return errors.New("no fields to update")
	}

	query += fmt.Sprintf("updated_at = NOW() WHERE id = $%d", argCounter)
	args = append(args, propertyID)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update property: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PropertiesStore) Delete(ctx context.Context, propertyID, ownerID int64) error {
	query := `
		DELETE FROM properties
		WHERE id = $1 AND owner_id = $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, query, propertyID, ownerID)
	if err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddPhotoURL appends a photo URL to the listing's image_urls array.
func (s *PropertiesStore) AddPhotoURL(ctx context.Context, propertyID int64, photoURL string) error {
	query := `
		UPDATE properties
		SET image_urls = array_append(image_urls, $1)
		WHERE id = $2
	`
	_, err := s.db.Exec(ctx, query, photoURL, propertyID)
	if err != nil {
		return fmt.Errorf("failed to add photo URL: %w", err)
	}
	return nil
}

// RemovePhotoURL removes a photo URL from the listing's image_urls array.
func (s *PropertiesStore) RemovePhotoURL(ctx context.Context, propertyID int64, photoURL string) error {
	query := `
		UPDATE properties
		SET image_urls = array_remove(image_urls, $1)
		WHERE id = $2
	`
	_, err := s.db.Exec(ctx, query, photoURL, propertyID)
	if err != nil {
		return fmt.Errorf("failed to remove photo URL: %w", err)
	}
	return nil
}

// IsOwner checks whether the user owns the listing. A missing listing
// is ErrNotFound, not an internal failure.
func (s *PropertiesStore) IsOwner(ctx context.Context, propertyID, userID int64) (bool, error) {
	var ownerID int64
	err := s.db.QueryRow(ctx, `SELECT owner_id FROM properties WHERE id = $1`, propertyID).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return ownerID == userID, nil
}
