package booking

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"eventmarket/internal/actor"
	"eventmarket/internal/vendor"
)

type Decision string

const (
	DecisionAccept  Decision = "accept"
	DecisionDecline Decision = "decline"
)

func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionAccept, DecisionDecline:
		return Decision(s), nil
	default:
		return "", fmt.Errorf("unknown decision: %s", s)
	}
}

// Engine owns the booking lifecycle: transition legality, role-based
// authorization of each transition, and the matching step. It is the
// sole writer of status and vendor assignment.
type Engine struct {
	store Store
	dir   vendor.Directory
	log   *zap.Logger
}

func NewEngine(store Store, dir vendor.Directory, log *zap.Logger) *Engine {
	return &Engine{store: store, dir: dir, log: log}
}

// CreateRequest opens an admin-mediated service request in pending_match.
func (e *Engine) CreateRequest(ctx context.Context, customerID string, in NewRequest) (*Booking, error) {
	return e.create(ctx, customerID, nil, OriginAdminMediated, in)
}

// CreateDirectRequest opens a direct request against a specific vendor.
// The vendor id is carried from creation at status pending; this is the
// one place a non-matched booking holds a vendor id.
func (e *Engine) CreateDirectRequest(ctx context.Context, customerID, vendorID string, in NewRequest) (*Booking, error) {
	if _, err := e.dir.GetByID(ctx, vendorID); err != nil {
		if errors.Is(err, vendor.ErrNotFound) {
			return nil, NotFoundError{Kind: "vendor", ID: vendorID}
		}
		return nil, StoreError{Err: err}
	}
	return e.create(ctx, customerID, &vendorID, OriginDirect, in)
}

func (e *Engine) create(ctx context.Context, customerID string, vendorID *string, origin Origin, in NewRequest) (*Booking, error) {
	if customerID == "" {
		return nil, ValidationError{Code: "CUSTOMER_REQUIRED", Message: "customer id is required"}
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	b := &Booking{
		Origin:              origin,
		CustomerID:          customerID,
		VendorID:            vendorID,
		ServiceType:         in.ServiceType,
		EventType:           in.EventType,
		EventDate:           in.EventDate,
		EventTime:           in.EventTime,
		Location:            in.Location,
		GuestCount:          in.GuestCount,
		Budget:              in.Budget,
		SpecialRequirements: in.SpecialRequirements,
		Status:              initialStatus(origin),
		PaymentStatus:       PaymentPending,
		PaymentMethod:       in.PaymentMethod,
	}
	if err := e.store.Create(ctx, b); err != nil {
		return nil, StoreError{Err: err}
	}

	e.log.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("origin", string(origin)),
		zap.String("status", string(b.Status)),
	)
	return b, nil
}

// FindMatchCandidates filters the directory snapshot by the booking's
// requested service type. An empty list is a valid result; only a
// booking that does not resolve to pending_match is an error.
func (e *Engine) FindMatchCandidates(ctx context.Context, bookingID string) ([]vendor.Candidate, error) {
	b, err := e.get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != StatusPendingMatch {
		return nil, NotFoundError{Kind: "booking", ID: bookingID}
	}

	snapshot, err := e.dir.Snapshot(ctx)
	if err != nil {
		return nil, StoreError{Err: err}
	}
	return vendor.MatchCandidates(snapshot, b.ServiceType), nil
}

// AssignVendor transitions pending_match -> matched. Admin only.
func (e *Engine) AssignVendor(ctx context.Context, bookingID, vendorID string, by actor.Actor) (*Booking, error) {
	if by.Role != actor.RoleAdmin {
		return nil, AuthorizationError{Message: "only admins may assign vendors"}
	}
	if _, err := e.dir.GetByID(ctx, vendorID); err != nil {
		if errors.Is(err, vendor.ErrNotFound) {
			return nil, NotFoundError{Kind: "vendor", ID: vendorID}
		}
		return nil, StoreError{Err: err}
	}

	b, err := e.get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(b.Origin, b.Status, StatusMatched) {
		return nil, StateError{Current: b.Status, Message: "booking is not awaiting matching"}
	}

	return e.apply(ctx, bookingID, Transition{
		Prev: StatusPendingMatch, Next: StatusMatched,
		SetVendor: true, VendorID: vendorID,
		Event: "VENDOR_ASSIGNED", Summary: "Vendor assigned by admin",
		Actor: by, Audit: true,
	})
}

// RespondToMatch records the assigned vendor's decision. Accept confirms
// the booking. Decline returns an admin-mediated booking to the pool
// (vendor cleared, so it can be offered the same vendor again) and
// cancels a direct booking, which has no pool to return to.
func (e *Engine) RespondToMatch(ctx context.Context, bookingID string, decision Decision, by actor.Actor) (*Booking, error) {
	b, err := e.get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if by.Role != actor.RoleVendor || !b.AssignedTo(by.ID) {
		return nil, AuthorizationError{Message: "only the assigned vendor may respond"}
	}

	awaiting := StatusMatched
	if b.Origin == OriginDirect {
		awaiting = StatusPending
	}
	if b.Status != awaiting {
		return nil, StateError{Current: b.Status, Message: "booking is not awaiting a vendor decision"}
	}

	t := Transition{Prev: awaiting, Actor: by}
	switch decision {
	case DecisionAccept:
		t.Next = StatusConfirmed
		t.Event, t.Summary = "MATCH_ACCEPTED", "Vendor accepted the request"
	case DecisionDecline:
		if b.Origin == OriginDirect {
			t.Next = StatusCancelled
			t.Event, t.Summary = "MATCH_DECLINED", "Vendor declined the direct request"
		} else {
			t.Next = StatusPendingMatch
			t.SetVendor = true // empty VendorID clears the assignment
			t.Event, t.Summary = "MATCH_DECLINED", "Vendor declined; returned to matching"
		}
	default:
		return nil, ValidationError{Code: "DECISION_INVALID", Message: "decision must be accept or decline"}
	}

	return e.apply(ctx, bookingID, t)
}

// Cancel moves any non-terminal booking to cancelled. Authorized for
// admins and the booking's own customer. Repeated cancels fail: terminal
// states reject further transitions.
func (e *Engine) Cancel(ctx context.Context, bookingID string, by actor.Actor) (*Booking, error) {
	b, err := e.get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if by.Role != actor.RoleAdmin && !(by.Role == actor.RoleCustomer && by.ID == b.CustomerID) {
		return nil, AuthorizationError{Message: "only the customer or an admin may cancel"}
	}
	if !CanTransition(b.Origin, b.Status, StatusCancelled) {
		return nil, StateError{Current: b.Status, Message: "booking can no longer be cancelled"}
	}

	return e.apply(ctx, bookingID, Transition{
		Prev: b.Status, Next: StatusCancelled,
		RefundPayment: b.PaymentStatus == PaymentPaid,
		Event:         "BOOKING_CANCELLED", Summary: "Booking cancelled",
		Actor: by, Audit: by.Role == actor.RoleAdmin,
	})
}

// MarkCompleted transitions confirmed -> completed. Admin only; this is
// the transition that makes the booking review-eligible.
func (e *Engine) MarkCompleted(ctx context.Context, bookingID string, by actor.Actor) (*Booking, error) {
	if by.Role != actor.RoleAdmin {
		return nil, AuthorizationError{Message: "only admins may mark bookings completed"}
	}
	b, err := e.get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != StatusConfirmed {
		return nil, StateError{Current: b.Status, Message: "only confirmed bookings can be completed"}
	}

	return e.apply(ctx, bookingID, Transition{
		Prev: StatusConfirmed, Next: StatusCompleted,
		Event: "BOOKING_COMPLETED", Summary: "Booking marked completed",
		Actor: by, Audit: true,
	})
}

// SetPayment records a payment status flag. Admin only; no gateway
// interaction happens here.
func (e *Engine) SetPayment(ctx context.Context, bookingID string, status PaymentStatus, by actor.Actor) (*Booking, error) {
	if by.Role != actor.RoleAdmin {
		return nil, AuthorizationError{Message: "only admins may update payment status"}
	}
	if status != PaymentPaid && status != PaymentRefunded {
		return nil, ValidationError{Code: "PAYMENT_STATUS_INVALID", Message: "payment status must be paid or refunded"}
	}
	b, err := e.store.SetPaymentStatus(ctx, bookingID, status, by)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, NotFoundError{Kind: "booking", ID: bookingID}
		}
		return nil, StoreError{Err: err}
	}
	return b, nil
}

// ListForActor is the role-scoped read query: customers see their own
// bookings, vendors the ones assigned to them, admins everything (with
// an optional status filter).
func (e *Engine) ListForActor(ctx context.Context, by actor.Actor, status Status) ([]Booking, error) {
	var (
		out []Booking
		err error
	)
	switch by.Role {
	case actor.RoleCustomer:
		out, err = e.store.ListByCustomer(ctx, by.ID)
	case actor.RoleVendor:
		out, err = e.store.ListByVendor(ctx, by.ID)
	case actor.RoleAdmin:
		return e.listAll(ctx, status)
	default:
		return nil, AuthorizationError{Message: "unknown role"}
	}
	if err != nil {
		return nil, StoreError{Err: err}
	}
	if status != "" {
		filtered := out[:0]
		for _, b := range out {
			if b.Status == status {
				filtered = append(filtered, b)
			}
		}
		out = filtered
	}
	return out, nil
}

func (e *Engine) listAll(ctx context.Context, status Status) ([]Booking, error) {
	out, err := e.store.ListAll(ctx, status)
	if err != nil {
		return nil, StoreError{Err: err}
	}
	return out, nil
}

// GetForActor returns a single booking if the actor may see it.
func (e *Engine) GetForActor(ctx context.Context, bookingID string, by actor.Actor) (*Booking, error) {
	b, err := e.get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	switch {
	case by.Role == actor.RoleAdmin:
	case by.Role == actor.RoleCustomer && by.ID == b.CustomerID:
	case by.Role == actor.RoleVendor && b.AssignedTo(by.ID):
	default:
		return nil, AuthorizationError{Message: "not allowed to view this booking"}
	}
	return b, nil
}

// HasCompletedBooking is exposed for the review collaborator.
func (e *Engine) HasCompletedBooking(ctx context.Context, customerID, vendorID string) (bool, error) {
	ok, err := e.store.HasCompletedBooking(ctx, customerID, vendorID)
	if err != nil {
		return false, StoreError{Err: err}
	}
	return ok, nil
}

func (e *Engine) get(ctx context.Context, bookingID string) (*Booking, error) {
	b, err := e.store.Get(ctx, bookingID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, NotFoundError{Kind: "booking", ID: bookingID}
		}
		return nil, StoreError{Err: err}
	}
	return b, nil
}

// apply runs the conditional update and translates a lost race into a
// StateError carrying the status the row holds now.
func (e *Engine) apply(ctx context.Context, bookingID string, t Transition) (*Booking, error) {
	b, err := e.store.ApplyTransition(ctx, bookingID, t)
	if err == nil {
		e.log.Info("booking transition",
			zap.String("booking_id", bookingID),
			zap.String("from", string(t.Prev)),
			zap.String("to", string(t.Next)),
			zap.String("actor_role", string(t.Actor.Role)),
		)
		return b, nil
	}
	if errors.Is(err, ErrStaleTransition) {
		cur, gerr := e.store.Get(ctx, bookingID)
		if gerr != nil {
			if errors.Is(gerr, ErrNotFound) {
				return nil, NotFoundError{Kind: "booking", ID: bookingID}
			}
			return nil, StoreError{Err: gerr}
		}
		return nil, StateError{Current: cur.Status, Message: "booking was modified concurrently"}
	}
	return nil, StoreError{Err: err}
}
