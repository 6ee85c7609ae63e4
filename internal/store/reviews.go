package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Review is a user's rating and written feedback for one property.
// AuthorName is a snapshot of the display name at submission time; it is
// deliberately not re-joined to the live profile.
type Review struct {
	ID           int64     `json:"id"`
	PropertyID   int64     `json:"property_id"`
	UserID       int64     `json:"user_id"`
	AuthorName   string    `json:"author_name"`
	Rating       int       `json:"rating"` // 1-5
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	Verified     bool      `json:"verified"`
	HelpfulCount int       `json:"helpful_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Joined tallies
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
}

type ReviewsStore struct {
	db *pgxpool.Pool
}

func (s *ReviewsStore) Create(ctx context.Context, review *Review) error {
	query := `
		INSERT INTO reviews (property_id, user_id, author_name, rating, title, body)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, query,
		review.PropertyID,
		review.UserID,
		review.AuthorName,
		review.Rating,
		review.Title,
		review.Body,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

// GetByProperty returns a property's reviews newest first, with like and
// dislike tallies joined in.
func (s *ReviewsStore) GetByProperty(ctx context.Context, propertyID int64) ([]Review, error) {
	query := `
		SELECT r.id, r.property_id, r.user_id, r.author_name, r.rating, r.title, r.body,
		       r.verified, r.helpful_count, r.created_at, r.updated_at,
		       COUNT(v.id) FILTER (WHERE v.kind = 'like')    AS likes,
		       COUNT(v.id) FILTER (WHERE v.kind = 'dislike') AS dislikes
		FROM reviews r
		LEFT JOIN review_votes v ON v.review_id = r.id
		WHERE r.property_id = $1
		GROUP BY r.id
		ORDER BY r.created_at DESC
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, propertyID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		var r Review
		err := rows.Scan(
			&r.ID,
			&r.PropertyID,
			&r.UserID,
			&r.AuthorName,
			&r.Rating,
			&r.Title,
			&r.Body,
			&r.Verified,
			&r.HelpfulCount,
			&r.CreatedAt,
			&r.UpdatedAt,
			&r.Likes,
			&r.Dislikes,
		)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (s *ReviewsStore) GetByID(ctx context.Context, reviewID int64) (*Review, error) {
	query := `
		SELECT id, property_id, user_id, author_name, rating, title, body,
		       verified, helpful_count, created_at, updated_at
		FROM reviews
		WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var r Review
	err := s.db.QueryRow(ctx, query, reviewID).Scan(
		&r.ID,
		&r.PropertyID,
		&r.UserID,
		&r.AuthorName,
		&r.Rating,
		&r.Title,
		&r.Body,
		&r.Verified,
		&r.HelpfulCount,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	return &r, nil
}

// Delete removes a review a user owns. Replies and votes cascade at the
// database level.
func (s *ReviewsStore) Delete(ctx context.Context, reviewID, userID int64) error {
	query := `
		DELETE FROM reviews
		WHERE id = $1 AND user_id = $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, query, reviewID, userID)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ReviewsStore) Stats(ctx context.Context, propertyID int64) (total int, average float64, err error) {
	query := `
		SELECT
			COUNT(id) AS total_reviews,
			COALESCE(AVG(rating), 0) AS average_rating
		FROM reviews
		WHERE property_id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err = s.db.QueryRow(ctx, query, propertyID).Scan(&total, &average)
	return total, average, err
}

// HasReview reports whether this user already reviewed this property.
func (s *ReviewsStore) HasReview(ctx context.Context, propertyID, userID int64) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
		  SELECT 1 FROM reviews
		  WHERE property_id = $1 AND user_id = $2
		)
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, query, propertyID, userID).Scan(&exists)
	return exists, err
}
