package history

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Event is one entry of a booking's timeline. Entries are appended in
// the same transaction as the transition that caused them.
type Event struct {
	ID         string `json:"id"`
	BookingID  string `json:"bookingId"`
	EventType  string `json:"eventType"`
	Summary    string `json:"summary"`
	Actor      string `json:"actor"`
	OccurredAt string `json:"occurredAt"`
	Data       any    `json:"data,omitempty"`
}

func Insert(ctx context.Context, tx pgx.Tx, bookingID, eventType, summary, actor string, occurredAt time.Time, data any) error {
	var s *string
	if data != nil {
		b, _ := json.Marshal(data)
		str := string(b)
		s = &str
	}
	const q = `
INSERT INTO booking_events (booking_id, event_type, summary, actor, occurred_at, data)
VALUES ($1, $2, $3, $4, $5, CAST($6 AS jsonb))
`
	_, err := tx.Exec(ctx, q, bookingID, eventType, summary, actor, occurredAt, s)
	return err
}

func ListByBooking(ctx context.Context, db *pgxpool.Pool, bookingID string) ([]Event, error) {
	const q = `
SELECT id, booking_id, event_type, summary, actor, occurred_at::text, COALESCE(data, '{}'::jsonb)
FROM booking_events
WHERE booking_id = $1
ORDER BY occurred_at ASC, created_at ASC
`
	rows, err := db.Query(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.BookingID, &e.EventType, &e.Summary, &e.Actor, &e.OccurredAt, &e.Data); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
