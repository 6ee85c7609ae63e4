package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"estates/internal/reviewfeed"
	"estates/internal/store"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler tests run against in-memory stubs of the store interfaces,
// with chi route params and the authenticated user injected directly
// into the request context.

type stubProperties struct {
	ownerID    int64
	isOwnerErr error
}

func (s *stubProperties) Create(context.Context, *store.Property) error { return nil }
func (s *stubProperties) Update(context.Context, int64, map[string]interface{}) error {
	return nil
}
func (s *stubProperties) Delete(context.Context, int64, int64) error { return nil }
func (s *stubProperties) GetByID(context.Context, int64) (*store.Property, error) {
	return nil, store.ErrNotFound
}
func (s *stubProperties) List(context.Context) ([]store.Property, error)       { return nil, nil }
func (s *stubProperties) AddPhotoURL(context.Context, int64, string) error     { return nil }
func (s *stubProperties) RemovePhotoURL(context.Context, int64, string) error  { return nil }
func (s *stubProperties) IsOwner(_ context.Context, _, userID int64) (bool, error) {
	if s.isOwnerErr != nil {
		return false, s.isOwnerErr
	}
	return s.ownerID == userID, nil
}

// flakyReviews accepts writes but fails reads, for exercising the
// mutation-saved-but-refresh-failed path.
type flakyReviews struct {
	nextID  int64
	created []store.Review
	loadErr error
}

func (f *flakyReviews) Create(_ context.Context, r *store.Review) error {
	f.nextID++
	r.ID = f.nextID
	f.created = append(f.created, *r)
	return nil
}

func (f *flakyReviews) GetByProperty(context.Context, int64) ([]store.Review, error) {
	return nil, f.loadErr
}

func (f *flakyReviews) GetByID(_ context.Context, reviewID int64) (*store.Review, error) {
	for _, r := range f.created {
		if r.ID == reviewID {
			cp := r
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *flakyReviews) Delete(context.Context, int64, int64) error { return nil }
func (f *flakyReviews) Stats(context.Context, int64) (int, float64, error) {
	return 0, 0, nil
}
func (f *flakyReviews) HasReview(context.Context, int64, int64) (bool, error) {
	return false, nil
}

type stubPushTokens struct {
	upserts int
}

func (s *stubPushTokens) Upsert(context.Context, int64, string, json.RawMessage) error {
	s.upserts++
	return nil
}
func (s *stubPushTokens) GetByUserIDs(context.Context, []int64) (map[int64][]string, error) {
	return nil, nil
}

func newTestApp(storage store.Storage) *application {
	return &application{
		store:  storage,
		feed:   reviewfeed.NewService(storage, reviewfeed.Config{}),
		logger: zap.NewNop().Sugar(),
	}
}

func authedRequest(method, target, body string, user *store.User, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if user != nil {
		ctx = context.WithValue(ctx, userCtx, user)
	}
	return req.WithContext(ctx)
}

func TestUpdatePropertyMissingListing(t *testing.T) {
	app := newTestApp(store.Storage{
		Properties: &stubProperties{isOwnerErr: store.ErrNotFound},
	})
	user := &store.User{ID: 7}

	req := authedRequest(http.MethodPatch, "/v1/properties/999999", `{"title":"New"}`, user,
		map[string]string{"propertyID": "999999"})
	rr := httptest.NewRecorder()

	app.updatePropertyHandler(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d for a missing listing", rr.Code, http.StatusNotFound)
	}
}

func TestUpdatePropertyNotOwner(t *testing.T) {
	app := newTestApp(store.Storage{
		Properties: &stubProperties{ownerID: 1},
	})
	user := &store.User{ID: 2}

	req := authedRequest(http.MethodPatch, "/v1/properties/5", `{"title":"New"}`, user,
		map[string]string{"propertyID": "5"})
	rr := httptest.NewRecorder()

	app.updatePropertyHandler(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d for another agent's listing", rr.Code, http.StatusForbidden)
	}
}

func TestSubmitReviewSavedWhenRefreshFails(t *testing.T) {
	reviews := &flakyReviews{loadErr: errors.New("connection reset")}
	app := newTestApp(store.Storage{Reviews: reviews})
	user := &store.User{ID: 3, FirstName: "Asha"}

	body := `{"rating":5,"title":"Great","body":"Lovely place"}`
	req := authedRequest(http.MethodPost, "/v1/properties/10/reviews", body, user,
		map[string]string{"propertyID": "10"})
	rr := httptest.NewRecorder()

	app.submitReviewHandler(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: the review was stored", rr.Code, http.StatusCreated)
	}
	if len(reviews.created) != 1 {
		t.Fatalf("%d reviews stored, want 1", len(reviews.created))
	}
	if !strings.Contains(rr.Body.String(), "saved, but refreshing the feed failed") {
		t.Errorf("body %q missing the refresh-failure notice", rr.Body.String())
	}
}

func TestRefreshTokenRejectsEmptyPayload(t *testing.T) {
	app := newTestApp(store.Storage{})

	req := authedRequest(http.MethodPost, "/v1/authentication/refresh", `{}`, nil, nil)
	rr := httptest.NewRecorder()

	app.refreshTokenHandler(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d for an empty payload", rr.Code, http.StatusBadRequest)
	}
}

func TestRegisterPushToken(t *testing.T) {
	tokens := &stubPushTokens{}
	app := newTestApp(store.Storage{PushTokens: tokens})
	user := &store.User{ID: 4}

	req := authedRequest(http.MethodPost, "/v1/users/push-token",
		`{"token":"ExponentPushToken[abc123]"}`, user, nil)
	rr := httptest.NewRecorder()

	app.registerPushTokenHandler(rr, req)

	if rr.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusCreated)
	}
	if tokens.upserts != 1 {
		t.Errorf("upserts = %d, want 1", tokens.upserts)
	}
}
