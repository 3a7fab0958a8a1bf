package booking

import "fmt"

type Status string

const (
	// Admin-mediated path.
	StatusPendingMatch Status = "pending_match"
	StatusMatched      Status = "matched"

	// Direct path: customer booked a specific vendor, awaiting that
	// vendor's decision. No matching step.
	StatusPending Status = "pending"

	// Shared.
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPendingMatch, StatusMatched, StatusPending,
		StatusConfirmed, StatusCompleted, StatusCancelled:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown status: %s", s)
	}
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Origin selects which transition subset is legal for a booking. The two
// creation flows share terminal states but never each other's
// intermediate ones.
type Origin string

const (
	OriginAdminMediated Origin = "admin"
	OriginDirect        Origin = "direct"
)

func ParseOrigin(s string) (Origin, error) {
	switch Origin(s) {
	case OriginAdminMediated, OriginDirect:
		return Origin(s), nil
	default:
		return "", fmt.Errorf("unknown origin: %s", s)
	}
}

// matched -> pending_match is the single permitted regression (vendor
// decline); everything else moves forward or terminates.
var adminMediatedTransitions = map[Status]map[Status]bool{
	StatusPendingMatch: {StatusMatched: true, StatusCancelled: true},
	StatusMatched:      {StatusConfirmed: true, StatusPendingMatch: true, StatusCancelled: true},
	StatusConfirmed:    {StatusCompleted: true, StatusCancelled: true},
	StatusCompleted:    {},
	StatusCancelled:    {},
}

var directTransitions = map[Status]map[Status]bool{
	StatusPending:   {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed: {StatusCompleted: true, StatusCancelled: true},
	StatusCompleted: {},
	StatusCancelled: {},
}

func CanTransition(origin Origin, from, to Status) bool {
	table := adminMediatedTransitions
	if origin == OriginDirect {
		table = directTransitions
	}
	m, ok := table[from]
	if !ok {
		return false
	}
	return m[to]
}

func initialStatus(origin Origin) Status {
	if origin == OriginDirect {
		return StatusPending
	}
	return StatusPendingMatch
}
