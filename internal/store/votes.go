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

type VoteKind string

const (
	VoteLike    VoteKind = "like"
	VoteDislike VoteKind = "dislike"
)

func (k VoteKind) Valid() bool {
	return k == VoteLike || k == VoteDislike
}

// VoteState is the resulting state of a (review, voter) pair after a toggle.
type VoteState string

const (
	VoteStateNone     VoteState = "none"
	VoteStateLiked    VoteState = "liked"
	VoteStateDisliked VoteState = "disliked"
)

// Vote records a user's like or dislike on a review. At most one row
// exists per (review, user); the toggle below maintains that.
type Vote struct {
	ID        int64     `json:"id"`
	ReviewID  int64     `json:"review_id"`
	UserID    int64     `json:"user_id"`
	Kind      VoteKind  `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// VoteOp is the single write the toggle performs for a given transition.
type VoteOp int

const (
	VoteOpInsert VoteOp = iota // no current vote: insert the new kind
	VoteOpDelete               // same kind pressed again: remove the vote
	VoteOpSwitch               // opposite kind pressed: update kind in place
)

// NextVoteOp decides the transition for a voter's action given their
// current vote (nil when none). Switching kinds updates the existing row
// rather than delete+insert, so the pair never has zero-then-two rows.
func NextVoteOp(current *Vote, kind VoteKind) (VoteOp, VoteState) {
	switch {
	case current == nil:
		if kind == VoteLike {
			return VoteOpInsert, VoteStateLiked
		}
		return VoteOpInsert, VoteStateDisliked
	case current.Kind == kind:
		return VoteOpDelete, VoteStateNone
	default:
		if kind == VoteLike {
			return VoteOpSwitch, VoteStateLiked
		}
		return VoteOpSwitch, VoteStateDisliked
	}
}

type VotesStore struct {
	db *pgxpool.Pool
}

// Get returns the voter's current vote on a review, or nil when they
// have not voted. Absence is a normal state, not an error.
func (s *VotesStore) Get(ctx context.Context, reviewID, userID int64) (*Vote, error) {
	query := `
		SELECT id, review_id, user_id, kind, created_at
		FROM review_votes
		WHERE review_id = $1 AND user_id = $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var v Vote
	err := s.db.QueryRow(ctx, query, reviewID, userID).Scan(
		&v.ID,
		&v.ReviewID,
		&v.UserID,
		&v.Kind,
		&v.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vote: %w", err)
	}
	return &v, nil
}

// Toggle applies one press of the like/dislike control as a single
// transaction: the existing row is locked, the transition from NextVoteOp
// is applied, and the review's helpful counter is adjusted alongside it.
// The unique index on (review_id, user_id) backs the one-row invariant;
// an insert that loses a race lands on ON CONFLICT and becomes a switch.
func (s *VotesStore) Toggle(ctx context.Context, reviewID, userID int64, kind VoteKind) (VoteState, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var state VoteState
	err := database.WithTx(s.db, ctx, func(tx pgx.Tx) error {
		var current *Vote
		var v Vote
		err := tx.QueryRow(ctx, `
			SELECT id, kind FROM review_votes
			WHERE review_id = $1 AND user_id = $2
			FOR UPDATE
		`, reviewID, userID).Scan(&v.ID, &v.Kind)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			current = nil
		case err != nil:
			return fmt.Errorf("lock vote: %w", err)
		default:
			current = &v
		}

		op, next := NextVoteOp(current, kind)
		state = next

		switch op {
		case VoteOpInsert:
			_, err = tx.Exec(ctx, `
				INSERT INTO review_votes (review_id, user_id, kind)
				VALUES ($1, $2, $3)
				ON CONFLICT (review_id, user_id) DO UPDATE SET kind = EXCLUDED.kind
			`, reviewID, userID, kind)
		case VoteOpDelete:
			_, err = tx.Exec(ctx, `DELETE FROM review_votes WHERE id = $1`, v.ID)
		case VoteOpSwitch:
			_, err = tx.Exec(ctx, `UPDATE review_votes SET kind = $1 WHERE id = $2`, kind, v.ID)
		}
		if err != nil {
			return fmt.Errorf("apply vote: %w", err)
		}

		if delta := helpfulDelta(current, op, kind); delta != 0 {
			_, err = tx.Exec(ctx, `
				UPDATE reviews
				SET helpful_count = GREATEST(helpful_count + $1, 0)
				WHERE id = $2
			`, delta, reviewID)
			if err != nil {
				return fmt.Errorf("update helpful count: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return "", err
	}
	return state, nil
}

// helpfulDelta is the change to the review's like tally for a transition.
// The counter mirrors the current like tally, so removing or switching
// away from a like decrements it rather than accumulating forever.
func helpfulDelta(current *Vote, op VoteOp, kind VoteKind) int {
	switch op {
	case VoteOpInsert:
		if kind == VoteLike {
			return 1
		}
	case VoteOpDelete:
		if current != nil && current.Kind == VoteLike {
			return -1
		}
	case VoteOpSwitch:
		if kind == VoteLike {
			return 1
		}
		return -1
	}
	return 0
}
