// Package reviewfeed is the single query and mutation boundary for the
// review and engagement feature: submitting reviews, threaded replies,
// like/dislike voting, and the per-property snapshot the UI renders from.
package reviewfeed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"estates/internal/store"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrAuthRequired means the action needs a signed-in user. Callers
	// prompt for sign-in; nothing was written.
	ErrAuthRequired = errors.New("authentication required")

	// ErrValidation means the submitted fields were rejected before any
	// store write.
	ErrValidation = errors.New("validation failed")

	// ErrAlreadyReviewed fires only when the single-review-per-user
	// policy is enabled.
	ErrAlreadyReviewed = errors.New("you have already reviewed this property")
)

type Config struct {
	// SingleReviewPerUser rejects a second review by the same user on
	// the same property. Off by default.
	SingleReviewPerUser bool
}

type Service struct {
	store store.Storage
	cfg   Config
}

func NewService(storage store.Storage, cfg Config) *Service {
	return &Service{store: storage, cfg: cfg}
}

// ReviewThread is one review with its conversation and the acting
// user's own vote marker.
type ReviewThread struct {
	store.Review
	Replies  []store.Reply   `json:"replies"`
	UserVote store.VoteState `json:"user_vote"`
}

// Snapshot is the feed for one property as of a single load: reviews
// newest first, replies oldest first, plus the aggregate rating.
type Snapshot struct {
	PropertyID  int64          `json:"property_id"`
	Reviews     []ReviewThread `json:"reviews"`
	Average     float64        `json:"average"`
	ReviewCount int            `json:"review_count"`
}

// Load fetches the full feed for a property. Replies and the actor's
// votes are fetched concurrently per review, and the snapshot is
// all-or-nothing: any failure surfaces an error instead of a partial
// result. actor may be nil for anonymous viewers.
func (s *Service) Load(ctx context.Context, propertyID int64, actor *store.User) (*Snapshot, error) {
	reviews, err := s.store.Reviews.GetByProperty(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("load reviews: %w", err)
	}

	threads := make([]ReviewThread, len(reviews))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i := range reviews {
		g.Go(func() error {
			replies, err := s.store.Replies.GetByReview(gctx, reviews[i].ID)
			if err != nil {
				return fmt.Errorf("load replies for review %d: %w", reviews[i].ID, err)
			}

			thread := ReviewThread{
				Review:   reviews[i],
				Replies:  replies,
				UserVote: store.VoteStateNone,
			}
			if actor != nil {
				vote, err := s.store.Votes.Get(gctx, reviews[i].ID, actor.ID)
				if err != nil {
					return fmt.Errorf("load vote for review %d: %w", reviews[i].ID, err)
				}
				thread.UserVote = stateOf(vote)
			}

			threads[i] = thread
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	count, average, err := s.store.Reviews.Stats(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("load rating stats: %w", err)
	}

	return &Snapshot{
		PropertyID:  propertyID,
		Reviews:     threads,
		Average:     average,
		ReviewCount: count,
	}, nil
}

// SubmitReview validates and stores a new review. The author's display
// name is snapshotted onto the review at submission time.
func (s *Service) SubmitReview(ctx context.Context, actor *store.User, propertyID int64, rating int, title, body string) (*store.Review, error) {
	if actor == nil {
		return nil, ErrAuthRequired
	}

	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	if title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	if body == "" {
		return nil, fmt.Errorf("%w: review text must not be empty", ErrValidation)
	}

	if s.cfg.SingleReviewPerUser {
		exists, err := s.store.Reviews.HasReview(ctx, propertyID, actor.ID)
		if err != nil {
			return nil, fmt.Errorf("check existing review: %w", err)
		}
		if exists {
			return nil, ErrAlreadyReviewed
		}
	}

	review := &store.Review{
		PropertyID: propertyID,
		UserID:     actor.ID,
		AuthorName: actor.DisplayName(),
		Rating:     rating,
		Title:      title,
		Body:       body,
	}
	if err := s.store.Reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("submit review: %w", err)
	}
	return review, nil
}

// Vote applies one press of the like/dislike control and returns the
// resulting state for the (review, actor) pair.
func (s *Service) Vote(ctx context.Context, actor *store.User, reviewID int64, kind store.VoteKind) (store.VoteState, error) {
	if actor == nil {
		return "", ErrAuthRequired
	}
	if !kind.Valid() {
		return "", fmt.Errorf("%w: vote kind must be like or dislike", ErrValidation)
	}

	state, err := s.store.Votes.Toggle(ctx, reviewID, actor.ID, kind)
	if err != nil {
		return "", fmt.Errorf("vote on review %d: %w", reviewID, err)
	}
	return state, nil
}

// Reply appends to a review's thread. The parent review is returned
// alongside so callers can notify its author.
func (s *Service) Reply(ctx context.Context, actor *store.User, reviewID int64, body string) (*store.Reply, *store.Review, error) {
	if actor == nil {
		return nil, nil, ErrAuthRequired
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, nil, fmt.Errorf("%w: reply text must not be empty", ErrValidation)
	}

	review, err := s.store.Reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup review %d: %w", reviewID, err)
	}

	reply := &store.Reply{
		ReviewID:   reviewID,
		UserID:     actor.ID,
		AuthorName: actor.DisplayName(),
		Body:       body,
	}
	if err := s.store.Replies.Create(ctx, reply); err != nil {
		return nil, nil, fmt.Errorf("submit reply: %w", err)
	}
	return reply, review, nil
}

func stateOf(v *store.Vote) store.VoteState {
	if v == nil {
		return store.VoteStateNone
	}
	if v.Kind == store.VoteLike {
		return store.VoteStateLiked
	}
	return store.VoteStateDisliked
}
