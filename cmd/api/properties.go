package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"estates/internal/store"

	"github.com/go-chi/chi/v5"
)

type CreatePropertyPayload struct {
	Title        string  `json:"title" validate:"required,max=150"`
	Address      string  `json:"address" validate:"required,max=255"`
	City         string  `json:"city" validate:"required,max=100"`
	PropertyType string  `json:"property_type" validate:"required,oneof=residential commercial land"`
	PriceCents   int64   `json:"price_cents" validate:"required,min=1"`
	Bedrooms     int     `json:"bedrooms" validate:"min=0,max=50"`
	Bathrooms    int     `json:"bathrooms" validate:"min=0,max=50"`
	AreaSqft     int     `json:"area_sqft" validate:"required,min=1"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

// ListProperties godoc
//
//	@Summary		List property listings
//	@Description	All listings newest first, each with its review count and average rating
//	@Tags			Property
//	@Produce		json
//	@Success		200	{array}		store.Property
//	@Failure		500	{object}	error
//	@Router			/properties [get]
func (app *application) listPropertiesHandler(w http.ResponseWriter, r *http.Request) {
	properties, err := app.store.Properties.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, properties); err != nil {
		app.internalServerError(w, r, err)
	}
}

// GetProperty godoc
//
//	@Summary		Get a single listing
//	@Tags			Property
//	@Produce		json
//	@Param			propertyID	path		int	true	"Property ID"
//	@Success		200			{object}	store.Property
//	@Failure		404			{object}	error
//	@Router			/properties/{propertyID} [get]
func (app *application) getPropertyHandler(w http.ResponseWriter, r *http.Request) {
	propertyID, err := strconv.ParseInt(chi.URLParam(r, "propertyID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid property ID"))
		return
	}

	property, err := app.store.Properties.GetByID(r.Context(), propertyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, property); err != nil {
		app.internalServerError(w, r, err)
	}
}

// CreateProperty godoc
//
//	@Summary		Create a listing
//	@Description	Registers a new property listing owned by the authenticated user. Photos are uploaded separately.
//	@Tags			Property
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreatePropertyPayload	true	"Listing details"
//	@Success		201		{object}	store.Property
//	@Failure		400		{object}	error
//	@Failure		401		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/properties [post]
func (app *application) createPropertyHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreatePropertyPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)

	property := &store.Property{
		OwnerID:      user.ID,
		Title:        payload.Title,
		Address:      payload.Address,
		City:         payload.City,
		PropertyType: payload.PropertyType,
		PriceCents:   payload.PriceCents,
		Bedrooms:     payload.Bedrooms,
		Bathrooms:    payload.Bathrooms,
		AreaSqft:     payload.AreaSqft,
		Description:  payload.Description,
	}

	if err := app.store.Properties.Create(r.Context(), property); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, property); err != nil {
		app.internalServerError(w, r, err)
	}
}

// UpdateProperty godoc
//
//	@Summary		Update listing information
//	@Description	Partial update of an owned listing
//	@Tags			Property
//	@Accept			json
//	@Produce		json
//	@Param			propertyID	path		int						true	"Property ID"
//	@Param			updateData	body		map[string]interface{}	true	"Fields to update"
//	@Success		200			{object}	map[string]string
//	@Failure		400			{object}	error
//	@Failure		403			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/properties/{propertyID} [patch]
func (app *application) updatePropertyHandler(w http.ResponseWriter, r *http.Request) {
	propertyID, err := strconv.ParseInt(chi.URLParam(r, "propertyID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid property ID"))
		return
	}

	user := getUserFromContext(r)
	if ok := app.requireListingOwner(w, r, propertyID, user.ID); !ok {
		return
	}

	var updateData map[string]interface{}
	if err := readJSON(w, r, &updateData); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Properties.Update(r.Context(), propertyID, updateData); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "listing updated successfully"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// DeleteProperty godoc
//
//	@Summary		Delete a listing
//	@Tags			Property
//	@Produce		json
//	@Param			propertyID	path		int	true	"Property ID"
//	@Success		200			{object}	map[string]string
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/properties/{propertyID} [delete]
func (app *application) deletePropertyHandler(w http.ResponseWriter, r *http.Request) {
	propertyID, err := strconv.ParseInt(chi.URLParam(r, "propertyID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid property ID"))
		return
	}

	user := getUserFromContext(r)

	if err := app.store.Properties.Delete(r.Context(), propertyID, user.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "listing deleted"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// UploadPropertyPhoto godoc
//
//	@Summary		Upload a listing photo
//	@Description	Uploads a photo to Cloudinary and appends its URL to the listing
//	@Tags			Property
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			propertyID	path		int					true	"Property ID"
//	@Param			photo		formData	[]file				true	"Photo files"
//	@Success		200			{object}	map[string][]string
//	@Failure		400			{object}	error
//	@Failure		403			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/properties/{propertyID}/photos [post]
func (app *application) uploadPropertyPhotoHandler(w http.ResponseWriter, r *http.Request) {
	propertyID, err := strconv.ParseInt(chi.URLParam(r, "propertyID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid property ID"))
		return
	}

	user := getUserFromContext(r)
	if ok := app.requireListingOwner(w, r, propertyID, user.ID); !ok {
		return
	}

	const maxBytes = 15 * 1024 * 1024 // 15MB
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("failed to parse form: %w", err))
		return
	}

	files := r.MultipartForm.File["photo"]
	if len(files) == 0 {
		app.badRequestResponse(w, r, errors.New("no photo files in form"))
		return
	}

	photoURLs, err := app.uploadImagesWithPropertyID(files, propertyID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	for _, photoURL := range photoURLs {
		if err := app.store.Properties.AddPhotoURL(r.Context(), propertyID, photoURL); err != nil {
			app.internalServerError(w, r, err)
			return
		}
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string][]string{"photo_urls": photoURLs}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// DeletePropertyPhoto godoc
//
//	@Summary		Delete a listing photo
//	@Description	Deletes the photo from Cloudinary and removes its URL from the listing
//	@Tags			Property
//	@Produce		json
//	@Param			propertyID	path		int		true	"Property ID"
//	@Param			photo_url	query		string	true	"Photo URL to delete"
//	@Success		200			{object}	map[string]string
//	@Failure		400			{object}	error
//	@Failure		403			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/properties/{propertyID}/photos [delete]
func (app *application) deletePropertyPhotoHandler(w http.ResponseWriter, r *http.Request) {
	propertyID, err := strconv.ParseInt(chi.URLParam(r, "propertyID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid property ID"))
		return
	}

	photoURL := r.URL.Query().Get("photo_url")
	if photoURL == "" {
		app.badRequestResponse(w, r, errors.New("photo URL is required"))
		return
	}

	user := getUserFromContext(r)
	if ok := app.requireListingOwner(w, r, propertyID, user.ID); !ok {
		return
	}

	if err := app.deletePhotoFromCloudinary(photoURL); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Properties.RemovePhotoURL(r.Context(), propertyID, photoURL); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "photo deleted successfully"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// requireListingOwner writes the error response itself when the check fails.
func (app *application) requireListingOwner(w http.ResponseWriter, r *http.Request, propertyID, userID int64) bool {
	isOwner, err := app.store.Properties.IsOwner(r.Context(), propertyID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return false
		}
		app.internalServerError(w, r, err)
		return false
	}
	if !isOwner {
		app.forbiddenResponse(w, r)
		return false
	}
	return true
}
