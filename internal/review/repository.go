package review

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"eventmarket/pkg/db"
)

// ErrNoQualifyingBooking means no completed booking links the customer
// and vendor, so there is nothing to review.
var ErrNoQualifyingBooking = errors.New("no completed booking with this vendor")

// ErrAlreadyReviewed means the qualifying booking already carries a review.
var ErrAlreadyReviewed = errors.New("booking already reviewed")

type Review struct {
	ID         string    `json:"id"`
	BookingID  string    `json:"bookingId"`
	CustomerID string    `json:"customerId"`
	VendorID   string    `json:"vendorId"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Create appends a review keyed by the customer's completed booking with
// the vendor, and refreshes the vendor's cached rating aggregate in the
// same transaction.
func (r *Repository) Create(ctx context.Context, customerID, vendorID string, rating int, comment string) (*Review, error) {
	rev := &Review{
		ID:         uuid.New().String(),
		CustomerID: customerID,
		VendorID:   vendorID,
		Rating:     rating,
		Comment:    comment,
	}
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		// Latest completed booking linking the pair that has no review yet.
		const qBooking = `
SELECT b.id
FROM bookings b
WHERE b.customer_id = $1 AND b.vendor_id = $2 AND b.status = 'completed'
  AND NOT EXISTS (SELECT 1 FROM reviews rv WHERE rv.booking_id = b.id)
ORDER BY b.updated_at DESC
LIMIT 1
`
		if err := tx.QueryRow(ctx, qBooking, customerID, vendorID).Scan(&rev.BookingID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// Distinguish "never completed" from "already reviewed".
				const qAny = `
SELECT EXISTS (
  SELECT 1 FROM bookings
  WHERE customer_id = $1 AND vendor_id = $2 AND status = 'completed'
)
`
				var completed bool
				if qerr := tx.QueryRow(ctx, qAny, customerID, vendorID).Scan(&completed); qerr != nil {
					return qerr
				}
				if completed {
					return ErrAlreadyReviewed
				}
				return ErrNoQualifyingBooking
			}
			return err
		}

		const qInsert = `
INSERT INTO reviews (id, booking_id, customer_id, vendor_id, rating, comment)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
RETURNING created_at
`
		if err := tx.QueryRow(ctx, qInsert,
			rev.ID, rev.BookingID, customerID, vendorID, rating, comment,
		).Scan(&rev.CreatedAt); err != nil {
			return err
		}

		const qAggregate = `
UPDATE vendors v
SET rating = sub.avg_rating,
    review_count = sub.cnt,
    updated_at = NOW()
FROM (
  SELECT ROUND(AVG(rating)::numeric, 1) AS avg_rating, COUNT(*) AS cnt
  FROM reviews
  WHERE vendor_id = $1
) sub
WHERE v.id = $1
`
		_, err := tx.Exec(ctx, qAggregate, vendorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rev, nil
}

func (r *Repository) ListByVendor(ctx context.Context, vendorID string) ([]Review, error) {
	const q = `
SELECT id, booking_id, customer_id, vendor_id, rating, COALESCE(comment, ''), created_at
FROM reviews
WHERE vendor_id = $1
ORDER BY created_at DESC
`
	rows, err := r.db.Query(ctx, q, vendorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Review
	for rows.Next() {
		var rev Review
		if err := rows.Scan(&rev.ID, &rev.BookingID, &rev.CustomerID, &rev.VendorID, &rev.Rating, &rev.Comment, &rev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}
