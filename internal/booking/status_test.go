package booking

import "testing"

func TestCanTransition_AdminMediatedPath(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPendingMatch, StatusMatched, true},
		{StatusPendingMatch, StatusCancelled, true},
		{StatusPendingMatch, StatusConfirmed, false},
		{StatusMatched, StatusConfirmed, true},
		{StatusMatched, StatusPendingMatch, true}, // the single permitted regression
		{StatusMatched, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusMatched, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPendingMatch, false},
		// Direct-path statuses are illegal on this origin.
		{StatusPending, StatusConfirmed, false},
	}
	for _, c := range cases {
		if got := CanTransition(OriginAdminMediated, c.from, c.to); got != c.want {
			t.Errorf("admin %s -> %s: got %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestCanTransition_DirectPath(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusCompleted, StatusCancelled, false},
		// Matching statuses never appear on the direct origin.
		{StatusPending, StatusMatched, false},
		{StatusPendingMatch, StatusMatched, false},
	}
	for _, c := range cases {
		if got := CanTransition(OriginDirect, c.from, c.to); got != c.want {
			t.Errorf("direct %s -> %s: got %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"pending_match", "matched", "pending", "confirmed", "completed", "cancelled"} {
		if _, err := ParseStatus(s); err != nil {
			t.Errorf("ParseStatus(%q): unexpected error %v", s, err)
		}
	}
	if _, err := ParseStatus("booked"); err == nil {
		t.Errorf("ParseStatus accepted unknown status")
	}
}

func TestStatusTerminal(t *testing.T) {
	if !StatusCompleted.Terminal() || !StatusCancelled.Terminal() {
		t.Fatalf("completed and cancelled must be terminal")
	}
	for _, s := range []Status{StatusPendingMatch, StatusMatched, StatusPending, StatusConfirmed} {
		if s.Terminal() {
			t.Errorf("%s must not be terminal", s)
		}
	}
}
