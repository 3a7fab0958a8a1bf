package booking

import (
	"github.com/shopspring/decimal"

	"eventmarket/internal/actor"
)

// Stats is the dashboard aggregate. It is a pure projection of a fetched
// booking snapshot: recompute after every refetch, never patch a prior
// value after a single transition (that is how dashboards drift).
type Stats struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"byStatus"`

	// PendingAction counts the bookings waiting on the viewing role:
	// admins on matching, vendors on a decision, customers on anything
	// still in flight.
	PendingAction int `json:"pendingAction"`

	// Revenue is the budget sum over confirmed and completed bookings.
	Revenue decimal.Decimal `json:"revenue"`
}

func ComputeStats(bookings []Booking, role actor.Role) Stats {
	s := Stats{
		Total:    len(bookings),
		ByStatus: make(map[Status]int),
		Revenue:  decimal.Zero,
	}
	for i := range bookings {
		b := &bookings[i]
		s.ByStatus[b.Status]++

		if b.Status == StatusConfirmed || b.Status == StatusCompleted {
			s.Revenue = s.Revenue.Add(b.Budget)
		}

		switch role {
		case actor.RoleAdmin:
			if b.Status == StatusPendingMatch {
				s.PendingAction++
			}
		case actor.RoleVendor:
			if b.Status == StatusMatched || b.Status == StatusPending {
				s.PendingAction++
			}
		default:
			if !b.Status.Terminal() {
				s.PendingAction++
			}
		}
	}
	return s
}
