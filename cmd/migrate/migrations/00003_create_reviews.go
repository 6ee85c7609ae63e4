package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateReviews, downCreateReviews)
}

func upCreateReviews(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE reviews (
	  id BIGSERIAL PRIMARY KEY,
	  property_id BIGINT NOT NULL REFERENCES properties (id) ON DELETE CASCADE,
	  user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	  author_name TEXT NOT NULL,
	  rating INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
	  title TEXT NOT NULL,
	  body TEXT NOT NULL,
	  verified BOOLEAN NOT NULL DEFAULT false,
	  helpful_count INT NOT NULL DEFAULT 0,
	  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);

	CREATE INDEX idx_reviews_property ON reviews (property_id, created_at DESC);

	CREATE TABLE review_replies (
	  id BIGSERIAL PRIMARY KEY,
	  review_id BIGINT NOT NULL REFERENCES reviews (id) ON DELETE CASCADE,
	  user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	  author_name TEXT NOT NULL,
	  body TEXT NOT NULL,
	  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);

	CREATE INDEX idx_review_replies_review ON review_replies (review_id, created_at ASC);

	CREATE TABLE review_votes (
	  id BIGSERIAL PRIMARY KEY,
	  review_id BIGINT NOT NULL REFERENCES reviews (id) ON DELETE CASCADE,
	  user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	  kind TEXT NOT NULL CHECK (kind IN ('like', 'dislike')),
	  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	  UNIQUE (review_id, user_id)
	);
	`

	_, err := tx.ExecContext(ctx, query)
	return err
}

func downCreateReviews(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	DROP TABLE IF EXISTS review_votes;
	DROP TABLE IF EXISTS review_replies;
	DROP TABLE IF EXISTS reviews;
	`)
	return err
}
