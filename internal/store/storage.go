package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource already exists")
	QueryTimeoutDuration = time.Second * 5
)

type Storage struct {
	Users interface {
		GetByID(context.Context, int64) (*User, error)
		GetByEmail(context.Context, string) (*User, error)
		CreateAndInvite(ctx context.Context, user *User, token string, exp time.Duration) error
		Activate(context.Context, string) error
		Delete(context.Context, int64) error
		SaveRefreshToken(ctx context.Context, userID int64, refreshToken string) error
		GetRefreshToken(ctx context.Context, userID int64) (string, error)
		DeleteRefreshToken(ctx context.Context, userID int64) error
	}
	Properties interface {
		Create(context.Context, *Property) error
		Update(ctx context.Context, propertyID int64, updates map[string]interface{}) error
		Delete(ctx context.Context, propertyID, ownerID int64) error
		GetByID(context.Context, int64) (*Property, error)
		List(context.Context) ([]Property, error)
		AddPhotoURL(ctx context.Context, propertyID int64, url string) error
		RemovePhotoURL(ctx context.Context, propertyID int64, url string) error
		IsOwner(ctx context.Context, propertyID, userID int64) (bool, error)
	}
	Reviews interface {
		Create(context.Context, *Review) error
		GetByProperty(ctx context.Context, propertyID int64) ([]Review, error)
		GetByID(ctx context.Context, reviewID int64) (*Review, error)
		Delete(ctx context.Context, reviewID, userID int64) error
		Stats(ctx context.Context, propertyID int64) (int, float64, error)
		HasReview(ctx context.Context, propertyID, userID int64) (bool, error)
	}
	Replies interface {
		Create(context.Context, *Reply) error
		GetByReview(ctx context.Context, reviewID int64) ([]Reply, error)
	}
	Votes interface {
		Get(ctx context.Context, reviewID, userID int64) (*Vote, error)
		Toggle(ctx context.Context, reviewID, userID int64, kind VoteKind) (VoteState, error)
	}
	PushTokens interface {
		Upsert(ctx context.Context, userID int64, token string, deviceInfo json.RawMessage) error
		GetByUserIDs(ctx context.Context, userIDs []int64) (map[int64][]string, error)
	}
}

func NewStorage(db *pgxpool.Pool) Storage {
	return Storage{
		Users:      &UsersStore{db},
		Properties: &PropertiesStore{db: db, coder: newListingCoder()},
		Reviews:    &ReviewsStore{db},
		Replies:    &RepliesStore{db},
		Votes:      &VotesStore{db},
		PushTokens: &PushTokensStore{db},
	}
}
