package booking

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"eventmarket/internal/actor"
	"eventmarket/internal/api"
	"eventmarket/internal/history"
	"eventmarket/internal/vendor"
)

type Handlers struct {
	Engine   *Engine
	DB       *pgxpool.Pool
	Validate *validator.Validate
}

// WriteDomainError maps engine error kinds onto the API error envelope.
// Every rejected transition carries a specific code so the UI can render
// an actionable message.
func WriteDomainError(w http.ResponseWriter, err error) {
	var (
		verr ValidationError
		aerr AuthorizationError
		serr StateError
		nerr NotFoundError
		derr StoreError
	)
	switch {
	case errors.As(err, &verr):
		api.WriteError(w, http.StatusBadRequest, verr.Code, verr.Message)
	case errors.As(err, &aerr):
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", aerr.Message)
	case errors.As(err, &serr):
		api.WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION", serr.Error())
	case errors.As(err, &nerr):
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", nerr.Error())
	case errors.As(err, &derr):
		api.WriteError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "persistence unavailable, retry later")
	default:
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

type createRequestDTO struct {
	ServiceType         string          `json:"serviceType" validate:"required"`
	EventType           string          `json:"eventType" validate:"required"`
	EventDate           string          `json:"eventDate" validate:"required"`
	EventTime           string          `json:"eventTime" validate:"required"`
	Location            string          `json:"location" validate:"required"`
	GuestCount          int             `json:"guestCount" validate:"gte=0"`
	Budget              decimal.Decimal `json:"budget" validate:"required"`
	SpecialRequirements string          `json:"specialRequirements"`
	PaymentMethod       string          `json:"paymentMethod" validate:"required,oneof=telebirr chapa"`
}

func (h Handlers) decodeRequest(w http.ResponseWriter, r *http.Request) (NewRequest, bool) {
	var dto createRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return NewRequest{}, false
	}
	if err := h.Validate.Struct(dto); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return NewRequest{}, false
	}
	return NewRequest{
		ServiceType:         vendor.ServiceType(dto.ServiceType),
		EventType:           EventType(dto.EventType),
		EventDate:           dto.EventDate,
		EventTime:           dto.EventTime,
		Location:            dto.Location,
		GuestCount:          dto.GuestCount,
		Budget:              dto.Budget,
		SpecialRequirements: dto.SpecialRequirements,
		PaymentMethod:       PaymentMethod(dto.PaymentMethod),
	}, true
}

// Create opens an admin-mediated service request.
func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	a := api.ActorFromContext(r.Context())
	if a == nil || a.Role != actor.RoleCustomer {
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "only customers may create requests")
		return
	}
	in, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	b, err := h.Engine.CreateRequest(r.Context(), a.ID, in)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, map[string]any{"booking": b})
}

// CreateDirect opens a direct request against the vendor in the URL.
func (h Handlers) CreateDirect(w http.ResponseWriter, r *http.Request) {
	a := api.ActorFromContext(r.Context())
	if a == nil || a.Role != actor.RoleCustomer {
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "only customers may create requests")
		return
	}
	vendorID := chi.URLParam(r, "id")
	if vendorID == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing vendor id")
		return
	}
	in, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	b, err := h.Engine.CreateDirectRequest(r.Context(), a.ID, vendorID, in)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, map[string]any{"booking": b})
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	a := api.ActorFromContext(r.Context())
	if a == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}
	var status Status
	if s := r.URL.Query().Get("status"); s != "" {
		parsed, err := ParseStatus(s)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid status filter")
			return
		}
		status = parsed
	}
	items, err := h.Engine.ListForActor(r.Context(), *a, status)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if items == nil {
		items = []Booking{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	a := api.ActorFromContext(r.Context())
	if a == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}
	b, err := h.Engine.GetForActor(r.Context(), chi.URLParam(r, "id"), *a)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"booking": b})
}

// Candidates lists matching candidates for a pending_match booking.
func (h Handlers) Candidates(w http.ResponseWriter, r *http.Request) {
	a := api.ActorFromContext(r.Context())
	if a == nil || a.Role != actor.RoleAdmin {
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "admin only")
		return
	}
	items, err := h.Engine.FindMatchCandidates(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	// Empty list is a valid result, distinct from a lookup failure.
	if items == nil {
		items = []vendor.Candidate{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

type assignDTO struct {
	VendorID string `json:"vendorId" validate:"required"`
}

func (h Handlers) Assign(w http.ResponseWriter, r *http.Request) {
	a := api.ActorFromContext(r.Context())
	if a == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}
	var dto assignDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if err := h.Validate.Struct(dto); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}
	b, err := h.Engine.AssignVendor(r.Context(), chi.URLParam(r, "id"), dto.VendorID, *a)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"booking": b})
}

type respondDTO struct {
	Decision string `json:"decision" validate:"required,oneof=accept decline"`
}

func (h Handlers) Respond(w http.ResponseWriter, r *http.Request) {
	a := api.ActorFromContext(r.Context())
	if a == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}
	var dto respondDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if err := h.Validate.Struct(dto); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}
	b, err := h.Engine.RespondToMatch(r.Context(), chi.URLParam(r, "id"), Decision(dto.Decision), *a)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"booking": b})
}

func (h Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	a := api.ActorFromContext(r.Context())
	if a == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}
	b, err := h.Engine.Cancel(r.Context(), chi.URLParam(r, "id"), *a)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"booking": b})
}

func (h Handlers) Complete(w http.ResponseWriter, r *http.Request) {
	a := api.ActorFromContext(r.Context())
	if a == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}
	b, err := h.Engine.MarkCompleted(r.Context(), chi.URLParam(r, "id"), *a)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"booking": b})
}

type paymentDTO struct {
	Status string `json:"status" validate:"required,oneof=paid refunded"`
}

func (h Handlers) Payment(w http.ResponseWriter, r *http.Request) {
	a := api.ActorFromContext(r.Context())
	if a == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}
	var dto paymentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if err := h.Validate.Struct(dto); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}
	b, err := h.Engine.SetPayment(r.Context(), chi.URLParam(r, "id"), PaymentStatus(dto.Status), *a)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"booking": b})
}

func (h Handlers) History(w http.ResponseWriter, r *http.Request) {
	a := api.ActorFromContext(r.Context())
	if a == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := h.Engine.GetForActor(r.Context(), id, *a); err != nil {
		WriteDomainError(w, err)
		return
	}
	evs, err := history.ListByBooking(r.Context(), h.DB, id)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if evs == nil {
		evs = []history.Event{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": evs})
}

// Dashboard returns the actor's booking snapshot plus stats recomputed
// over that same snapshot.
func (h Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	a := api.ActorFromContext(r.Context())
	if a == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}
	items, err := h.Engine.ListForActor(r.Context(), *a, "")
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if items == nil {
		items = []Booking{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"stats": ComputeStats(items, a.Role),
	})
}
