package booking

import (
	"context"

	"eventmarket/internal/actor"
)

// Transition is one atomic status update. The store applies it only if
// the stored status still equals Prev; a lost race surfaces as
// ErrStaleTransition and leaves the row untouched.
type Transition struct {
	Prev Status
	Next Status

	// SetVendor replaces the vendor assignment: empty VendorID clears it.
	SetVendor bool
	VendorID  string

	// RefundPayment flips a paid booking's payment status to refunded
	// (flag only; settlement is out of scope).
	RefundPayment bool

	// Timeline/audit metadata.
	Event   string
	Summary string
	Actor   actor.Actor
	Audit   bool
}

// Store is the persistence contract of the lifecycle engine. The single
// required synchronization primitive is the conditional update inside
// ApplyTransition; there is no cross-row transaction requirement.
type Store interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id string) (*Booking, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Booking, error)
	ListByVendor(ctx context.Context, vendorID string) ([]Booking, error)
	ListAll(ctx context.Context, status Status) ([]Booking, error)
	ApplyTransition(ctx context.Context, id string, t Transition) (*Booking, error)
	SetPaymentStatus(ctx context.Context, id string, status PaymentStatus, by actor.Actor) (*Booking, error)
	HasCompletedBooking(ctx context.Context, customerID, vendorID string) (bool, error)
}
