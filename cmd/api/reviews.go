package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"estates/internal/notifications"
	"estates/internal/reviewfeed"
	"estates/internal/store"

	"github.com/go-chi/chi/v5"
)

type submitReviewPayload struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Title  string `json:"title" validate:"required,max=120"`
	Body   string `json:"body" validate:"required,max=2000"`
}

type replyPayload struct {
	Body string `json:"body" validate:"required,max=1000"`
}

type votePayload struct {
	Kind store.VoteKind `json:"kind" validate:"required,oneof=like dislike"`
}

// feedError maps review feed failures onto the response helpers.
func (app *application) feedError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, reviewfeed.ErrAuthRequired):
		app.unauthorizedErrorResponse(w, r, err)
	case errors.Is(err, reviewfeed.ErrValidation):
		app.badRequestResponse(w, r, err)
	case errors.Is(err, reviewfeed.ErrAlreadyReviewed):
		app.conflictResponse(w, r, err)
	case errors.Is(err, store.ErrNotFound):
		app.notFoundResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}

// getReviewFeedHandler godoc
//
//	@Summary		Review feed for a property
//	@Description	Reviews newest first with replies, vote tallies, the caller's own vote when authenticated, and the aggregate rating
//	@Tags			reviews
//	@Produce		json
//	@Param			propertyID	path		int	true	"Property ID"
//	@Success		200			{object}	reviewfeed.Snapshot
//	@Failure		400			{object}	error
//	@Failure		500			{object}	error
//	@Router			/properties/{propertyID}/reviews [get]
func (app *application) getReviewFeedHandler(w http.ResponseWriter, r *http.Request) {
	propertyID, err := strconv.ParseInt(chi.URLParam(r, "propertyID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid property ID"))
		return
	}

	snapshot, err := app.feed.Load(r.Context(), propertyID, getUserFromContext(r))
	if err != nil {
		app.feedError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, snapshot); err != nil {
		app.internalServerError(w, r, err)
	}
}

// submitReviewHandler godoc
//
//	@Summary		Submit a review
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			propertyID	path		int					true	"Property ID"
//	@Param			payload		body		submitReviewPayload	true	"Review payload"
//	@Success		201			{object}	reviewfeed.Snapshot
//	@Failure		400			{object}	error
//	@Failure		401			{object}	error
//	@Failure		409			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/properties/{propertyID}/reviews [post]
func (app *application) submitReviewHandler(w http.ResponseWriter, r *http.Request) {
	propertyID, err := strconv.ParseInt(chi.URLParam(r, "propertyID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid property ID"))
		return
	}

	var payload submitReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)

	review, err := app.feed.SubmitReview(r.Context(), user, propertyID, payload.Rating, payload.Title, payload.Body)
	if err != nil {
		app.feedError(w, r, err)
		return
	}

	app.respondWithFreshFeed(w, r, http.StatusCreated, propertyID, review)
}

// voteReviewHandler godoc
//
//	@Summary		Like or dislike a review
//	@Description	One press of the like/dislike control: first press records the vote, pressing the same kind again removes it, pressing the other kind switches it
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			reviewID	path		int			true	"Review ID"
//	@Param			payload		body		votePayload	true	"Vote payload"
//	@Success		200			{object}	reviewfeed.Snapshot
//	@Failure		400			{object}	error
//	@Failure		401			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID}/vote [post]
func (app *application) voteReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := strconv.ParseInt(chi.URLParam(r, "reviewID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid review ID"))
		return
	}

	var payload votePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)

	review, err := app.store.Reviews.GetByID(r.Context(), reviewID)
	if err != nil {
		app.feedError(w, r, err)
		return
	}

	state, err := app.feed.Vote(r.Context(), user, reviewID, payload.Kind)
	if err != nil {
		app.feedError(w, r, err)
		return
	}

	app.respondWithFreshFeed(w, r, http.StatusOK, review.PropertyID, map[string]any{
		"review_id": reviewID,
		"state":     state,
	})
}

// replyReviewHandler godoc
//
//	@Summary		Reply to a review
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			reviewID	path		int				true	"Review ID"
//	@Param			payload		body		replyPayload	true	"Reply payload"
//	@Success		201			{object}	reviewfeed.Snapshot
//	@Failure		400			{object}	error
//	@Failure		401			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID}/replies [post]
func (app *application) replyReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := strconv.ParseInt(chi.URLParam(r, "reviewID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid review ID"))
		return
	}

	var payload replyPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)

	reply, review, err := app.feed.Reply(r.Context(), user, reviewID, payload.Body)
	if err != nil {
		app.feedError(w, r, err)
		return
	}

	// Replying to your own review should not ping yourself.
	if review.UserID != user.ID {
		replierName := user.DisplayName()
		notifications.CallAsync(func(ctx context.Context) error {
			return notifications.NotifyReviewReply(ctx, app.push, app.store, review, replierName)
		}, "NotifyReviewReply")
	}

	app.respondWithFreshFeed(w, r, http.StatusCreated, review.PropertyID, reply)
}

// deleteReviewHandler removes the caller's own review; replies and votes
// cascade in the database.
func (app *application) deleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := strconv.ParseInt(chi.URLParam(r, "reviewID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid review ID"))
		return
	}

	user := getUserFromContext(r)

	if err := app.store.Reviews.Delete(r.Context(), reviewID, user.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "review deleted"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// respondWithFreshFeed re-fetches the property's feed after a successful
// mutation. When the refresh itself fails the mutation's result is still
// reported as saved, with the refresh failure flagged separately.
func (app *application) respondWithFreshFeed(w http.ResponseWriter, r *http.Request, status int, propertyID int64, result any) {
	snapshot, err := app.feed.Load(r.Context(), propertyID, getUserFromContext(r))
	if err != nil {
		app.logger.Errorw("feed refresh after mutation failed", "property_id", propertyID, "error", err)
		if err := app.jsonResponse(w, status, map[string]any{
			"result":  result,
			"message": "saved, but refreshing the feed failed",
		}); err != nil {
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, status, map[string]any{
		"result":   result,
		"snapshot": snapshot,
	}); err != nil {
		app.internalServerError(w, r, err)
	}
}
