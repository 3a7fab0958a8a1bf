package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"eventmarket/internal/actor"
	"eventmarket/internal/audit"
	"eventmarket/internal/history"
	"eventmarket/pkg/db"
)

// Repository is the Postgres-backed Store.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

var _ Store = (*Repository)(nil)

const bookingColumns = `
id, origin, customer_id, vendor_id, service_type, event_type, event_date::text, event_time,
location, guest_count, budget::text, COALESCE(special_requirements, ''),
status, payment_status, payment_method, created_at, updated_at
`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var budget string
	if err := row.Scan(
		&b.ID, &b.Origin, &b.CustomerID, &b.VendorID, &b.ServiceType, &b.EventType,
		&b.EventDate, &b.EventTime, &b.Location, &b.GuestCount, &budget,
		&b.SpecialRequirements, &b.Status, &b.PaymentStatus, &b.PaymentMethod,
		&b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	var err error
	if b.Budget, err = decimal.NewFromString(budget); err != nil {
		return nil, fmt.Errorf("booking %s: budget: %w", b.ID, err)
	}
	return &b, nil
}

func (r *Repository) Create(ctx context.Context, b *Booking) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		const q = `
INSERT INTO bookings (id, origin, customer_id, vendor_id, service_type, event_type, event_date,
                      event_time, location, guest_count, budget, special_requirements,
                      status, payment_status, payment_method)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''), $13, $14, $15)
RETURNING created_at, updated_at
`
		if err := tx.QueryRow(ctx, q,
			b.ID, string(b.Origin), b.CustomerID, b.VendorID, string(b.ServiceType),
			string(b.EventType), b.EventDate, b.EventTime, b.Location, b.GuestCount,
			b.Budget.StringFixed(2), b.SpecialRequirements,
			string(b.Status), string(b.PaymentStatus), string(b.PaymentMethod),
		).Scan(&b.CreatedAt, &b.UpdatedAt); err != nil {
			return err
		}
		return history.Insert(ctx, tx, b.ID, "REQUEST_CREATED", "Service request created",
			b.CustomerID, time.Now(), map[string]any{"origin": b.Origin, "status": b.Status})
	})
}

func (r *Repository) Get(ctx context.Context, id string) (*Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	b, err := scanBooking(r.db.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *Repository) list(ctx context.Context, q string, args ...any) ([]Booking, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *Repository) ListByCustomer(ctx context.Context, customerID string) ([]Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE customer_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, q, customerID)
}

func (r *Repository) ListByVendor(ctx context.Context, vendorID string) ([]Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE vendor_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, q, vendorID)
}

func (r *Repository) ListAll(ctx context.Context, status Status) ([]Booking, error) {
	if status == "" {
		q := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC`
		return r.list(ctx, q)
	}
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE status = $1 ORDER BY created_at DESC`
	return r.list(ctx, q, string(status))
}

// ApplyTransition performs the compare-and-set status update and appends
// the timeline (and, for privileged actions, audit) rows in one
// transaction. The WHERE status = prev guard is what resolves concurrent
// transitions on the same booking: the loser matches zero rows.
func (r *Repository) ApplyTransition(ctx context.Context, id string, t Transition) (*Booking, error) {
	var out *Booking
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		q := `
UPDATE bookings
SET status = $1,
    vendor_id = CASE WHEN $2 THEN NULLIF($3, '')::uuid ELSE vendor_id END,
    payment_status = CASE WHEN $4 AND payment_status = 'paid' THEN 'refunded' ELSE payment_status END,
    updated_at = NOW()
WHERE id = $5 AND status = $6
RETURNING ` + bookingColumns
		b, err := scanBooking(tx.QueryRow(ctx, q,
			string(t.Next), t.SetVendor, t.VendorID, t.RefundPayment, id, string(t.Prev),
		))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrStaleTransition
			}
			return err
		}

		now := time.Now()
		data := map[string]any{"from": t.Prev, "to": t.Next}
		if t.SetVendor {
			data["vendorId"] = t.VendorID
		}
		if err := history.Insert(ctx, tx, id, t.Event, t.Summary, t.Actor.ID, now, data); err != nil {
			return err
		}
		if t.Audit {
			if err := audit.Insert(ctx, tx, &id, t.Event, t.Actor.ID, string(t.Actor.Role), data); err != nil {
				return err
			}
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) SetPaymentStatus(ctx context.Context, id string, status PaymentStatus, by actor.Actor) (*Booking, error) {
	var out *Booking
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		q := `
UPDATE bookings
SET payment_status = $1, updated_at = NOW()
WHERE id = $2
RETURNING ` + bookingColumns
		b, err := scanBooking(tx.QueryRow(ctx, q, string(status), id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		data := map[string]any{"paymentStatus": status}
		if err := history.Insert(ctx, tx, id, "PAYMENT_UPDATED", "Payment status updated", by.ID, time.Now(), data); err != nil {
			return err
		}
		if err := audit.Insert(ctx, tx, &id, "PAYMENT_UPDATED", by.ID, string(by.Role), data); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// HasCompletedBooking is the review-eligibility query: completion is the
// transition that links a customer and vendor for review purposes.
func (r *Repository) HasCompletedBooking(ctx context.Context, customerID, vendorID string) (bool, error) {
	const q = `
SELECT EXISTS (
  SELECT 1 FROM bookings
  WHERE customer_id = $1 AND vendor_id = $2 AND status = 'completed'
)
`
	var ok bool
	if err := r.db.QueryRow(ctx, q, customerID, vendorID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}
