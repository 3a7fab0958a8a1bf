package review

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"eventmarket/internal/actor"
	"eventmarket/internal/api"
	"eventmarket/internal/booking"
)

type Handlers struct {
	Engine   *booking.Engine
	Reviews  *Repository
	Validate *validator.Validate
}

type createDTO struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	a := api.ActorFromContext(r.Context())
	if a == nil || a.Role != actor.RoleCustomer {
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "only customers may leave reviews")
		return
	}
	vendorID := chi.URLParam(r, "id")
	if vendorID == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing vendor id")
		return
	}

	var dto createDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if err := h.Validate.Struct(dto); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	// Completion is what makes a booking review-eligible.
	ok, err := h.Engine.HasCompletedBooking(r.Context(), a.ID, vendorID)
	if err != nil {
		booking.WriteDomainError(w, err)
		return
	}
	if !ok {
		api.WriteError(w, http.StatusForbidden, "REVIEW_NOT_ELIGIBLE", "a completed booking with this vendor is required")
		return
	}

	rev, err := h.Reviews.Create(r.Context(), a.ID, vendorID, dto.Rating, dto.Comment)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoQualifyingBooking):
			api.WriteError(w, http.StatusForbidden, "REVIEW_NOT_ELIGIBLE", "a completed booking with this vendor is required")
		case errors.Is(err, ErrAlreadyReviewed):
			api.WriteError(w, http.StatusConflict, "ALREADY_REVIEWED", "this booking already has a review")
		default:
			api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		}
		return
	}
	api.WriteJSON(w, http.StatusCreated, map[string]any{"review": rev})
}

func (h Handlers) ListByVendor(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "id")
	if vendorID == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing vendor id")
		return
	}
	items, err := h.Reviews.ListByVendor(r.Context(), vendorID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if items == nil {
		items = []Review{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}
