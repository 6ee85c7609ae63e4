package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Reply is a threaded comment on a review. Immutable once created;
// AuthorName is snapshotted like on Review.
type Reply struct {
	ID         int64     `json:"id"`
	ReviewID   int64     `json:"review_id"`
	UserID     int64     `json:"user_id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

type RepliesStore struct {
	db *pgxpool.Pool
}

func (s *RepliesStore) Create(ctx context.Context, reply *Reply) error {
	query := `
		INSERT INTO review_replies (review_id, user_id, author_name, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, query,
		reply.ReviewID,
		reply.UserID,
		reply.AuthorName,
		reply.Body,
	).Scan(&reply.ID, &reply.CreatedAt)
	if err != nil {
		return fmt.Errorf("create reply: %w", err)
	}
	return nil
}

// GetByReview returns a review's replies oldest first, reading as a
// conversation regardless of fetch timing.
func (s *RepliesStore) GetByReview(ctx context.Context, reviewID int64) ([]Reply, error) {
	query := `
		SELECT id, review_id, user_id, author_name, body, created_at
		FROM review_replies
		WHERE review_id = $1
		ORDER BY created_at ASC
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, reviewID)
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	defer rows.Close()

	var replies []Reply
	for rows.Next() {
		var r Reply
		if err := rows.Scan(
			&r.ID,
			&r.ReviewID,
			&r.UserID,
			&r.AuthorName,
			&r.Body,
			&r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan reply: %w", err)
		}
		replies = append(replies, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return replies, nil
}
