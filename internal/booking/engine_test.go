package booking

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"eventmarket/internal/actor"
	"eventmarket/internal/vendor"
)

// fakeStore is an in-memory Store with the same compare-and-set
// semantics as the Postgres repository. beforeApply, when set, runs
// between the engine's pre-check and the conditional update, standing in
// for a concurrent writer.
type fakeStore struct {
	mu          sync.Mutex
	bookings    map[string]*Booking
	beforeApply func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{bookings: make(map[string]*Booking)}
}

func (s *fakeStore) Create(_ context.Context, b *Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	cp := *b
	s.bookings[b.ID] = &cp
	return nil
}

func (s *fakeStore) Get(_ context.Context, id string) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *fakeStore) ListByCustomer(_ context.Context, customerID string) ([]Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Booking
	for _, b := range s.bookings {
		if b.CustomerID == customerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *fakeStore) ListByVendor(_ context.Context, vendorID string) ([]Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Booking
	for _, b := range s.bookings {
		if b.AssignedTo(vendorID) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *fakeStore) ListAll(_ context.Context, status Status) ([]Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Booking
	for _, b := range s.bookings {
		if status == "" || b.Status == status {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *fakeStore) ApplyTransition(_ context.Context, id string, t Transition) (*Booking, error) {
	if s.beforeApply != nil {
		s.beforeApply()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.Status != t.Prev {
		return nil, ErrStaleTransition
	}
	b.Status = t.Next
	if t.SetVendor {
		if t.VendorID == "" {
			b.VendorID = nil
		} else {
			v := t.VendorID
			b.VendorID = &v
		}
	}
	if t.RefundPayment && b.PaymentStatus == PaymentPaid {
		b.PaymentStatus = PaymentRefunded
	}
	cp := *b
	return &cp, nil
}

func (s *fakeStore) SetPaymentStatus(_ context.Context, id string, status PaymentStatus, _ actor.Actor) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	b.PaymentStatus = status
	cp := *b
	return &cp, nil
}

func (s *fakeStore) HasCompletedBooking(_ context.Context, customerID, vendorID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.CustomerID == customerID && b.AssignedTo(vendorID) && b.Status == StatusCompleted {
			return true, nil
		}
	}
	return false, nil
}

type fakeDirectory struct {
	vendors []vendor.Vendor
}

func (d *fakeDirectory) GetByID(_ context.Context, id string) (*vendor.Vendor, error) {
	for i := range d.vendors {
		if d.vendors[i].ID == id {
			cp := d.vendors[i]
			return &cp, nil
		}
	}
	return nil, vendor.ErrNotFound
}

func (d *fakeDirectory) Snapshot(_ context.Context) ([]vendor.Vendor, error) {
	out := make([]vendor.Vendor, len(d.vendors))
	copy(out, d.vendors)
	return out, nil
}

func caterer(id, name string, rating float64) vendor.Vendor {
	return vendor.Vendor{
		ID:           id,
		BusinessName: name,
		ServiceTypes: []vendor.ServiceType{vendor.ServiceCatering},
		Rating:       rating,
		PriceMin:     decimal.NewFromInt(1000),
		PriceMax:     decimal.NewFromInt(50000),
	}
}

func newTestEngine(t *testing.T, vendors ...vendor.Vendor) (*Engine, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	dir := &fakeDirectory{vendors: vendors}
	return NewEngine(store, dir, zap.NewNop()), store
}

func validRequest() NewRequest {
	return NewRequest{
		ServiceType:   vendor.ServiceCatering,
		EventType:     EventWedding,
		EventDate:     "2026-10-20",
		EventTime:     "18:00",
		Location:      "Addis Ababa",
		GuestCount:    150,
		Budget:        decimal.NewFromInt(10000),
		PaymentMethod: PayTelebirr,
	}
}

var (
	admin    = actor.Actor{ID: "admin-1", Role: actor.RoleAdmin}
	customer = actor.Actor{ID: "cust-1", Role: actor.RoleCustomer}
)

func TestCreateRequest_RoundTrip(t *testing.T) {
	e, store := newTestEngine(t)

	b, err := e.CreateRequest(context.Background(), customer.ID, validRequest())
	require.NoError(t, err)

	got, err := store.Get(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingMatch, got.Status)
	assert.Nil(t, got.VendorID)
	assert.Equal(t, OriginAdminMediated, got.Origin)
	assert.Equal(t, PaymentPending, got.PaymentStatus)
}

func TestCreateRequest_Validation(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*NewRequest)
	}{
		{"missing location", func(in *NewRequest) { in.Location = "" }},
		{"negative guests", func(in *NewRequest) { in.GuestCount = -1 }},
		{"zero budget", func(in *NewRequest) { in.Budget = decimal.Zero }},
		{"negative budget", func(in *NewRequest) { in.Budget = decimal.NewFromInt(-5) }},
		{"bad service type", func(in *NewRequest) { in.ServiceType = "plumbing" }},
		{"bad event type", func(in *NewRequest) { in.EventType = "festival" }},
		{"bad date", func(in *NewRequest) { in.EventDate = "20/10/2026" }},
		{"bad time", func(in *NewRequest) { in.EventTime = "6pm" }},
		{"bad payment method", func(in *NewRequest) { in.PaymentMethod = "cash" }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			in := validRequest()
			c.mutate(&in)
			_, err := e.CreateRequest(ctx, customer.ID, in)
			var verr ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
}

func TestLifecycle_MatchDeclineReassignComplete(t *testing.T) {
	vndV := caterer("vend-v", "Habesha Catering", 4.8)
	vndW := caterer("vend-w", "Addis Catering", 4.5)
	e, _ := newTestEngine(t, vndV, vndW)
	ctx := context.Background()

	b, err := e.CreateRequest(ctx, customer.ID, validRequest())
	require.NoError(t, err)

	cands, err := e.FindMatchCandidates(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, "vend-v", cands[0].VendorID, "higher rating first")

	b, err = e.AssignVendor(ctx, b.ID, "vend-v", admin)
	require.NoError(t, err)
	assert.Equal(t, StatusMatched, b.Status)
	require.NotNil(t, b.VendorID)
	assert.Equal(t, "vend-v", *b.VendorID)

	// Decline reverts to pending_match with the assignment cleared.
	b, err = e.RespondToMatch(ctx, b.ID, DecisionDecline, actor.Actor{ID: "vend-v", Role: actor.RoleVendor})
	require.NoError(t, err)
	assert.Equal(t, StatusPendingMatch, b.Status)
	assert.Nil(t, b.VendorID)

	// No permanent exclusion: the declined vendor is offered again.
	cands, err = e.FindMatchCandidates(ctx, b.ID)
	require.NoError(t, err)
	ids := []string{cands[0].VendorID, cands[1].VendorID}
	assert.Contains(t, ids, "vend-v")

	b, err = e.AssignVendor(ctx, b.ID, "vend-w", admin)
	require.NoError(t, err)

	b, err = e.RespondToMatch(ctx, b.ID, DecisionAccept, actor.Actor{ID: "vend-w", Role: actor.RoleVendor})
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, b.Status)

	b, err = e.MarkCompleted(ctx, b.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, b.Status)

	stats := ComputeStats([]Booking{*b}, actor.RoleVendor)
	assert.True(t, stats.Revenue.Equal(decimal.NewFromInt(10000)), "revenue = %s", stats.Revenue)

	ok, err := e.HasCompletedBooking(ctx, customer.ID, "vend-w")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAssignVendor_Authorization(t *testing.T) {
	e, _ := newTestEngine(t, caterer("vend-v", "Habesha Catering", 4.8))
	ctx := context.Background()

	b, err := e.CreateRequest(ctx, customer.ID, validRequest())
	require.NoError(t, err)

	_, err = e.AssignVendor(ctx, b.ID, "vend-v", customer)
	var aerr AuthorizationError
	require.ErrorAs(t, err, &aerr)

	_, err = e.AssignVendor(ctx, b.ID, "vend-unknown", admin)
	var nerr NotFoundError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "vendor", nerr.Kind)
}

func TestAssignVendor_WrongState(t *testing.T) {
	e, _ := newTestEngine(t, caterer("vend-v", "V", 4), caterer("vend-w", "W", 4))
	ctx := context.Background()

	b, err := e.CreateRequest(ctx, customer.ID, validRequest())
	require.NoError(t, err)
	_, err = e.AssignVendor(ctx, b.ID, "vend-v", admin)
	require.NoError(t, err)

	_, err = e.AssignVendor(ctx, b.ID, "vend-w", admin)
	var serr StateError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StatusMatched, serr.Current)
}

func TestRespondToMatch_OnlyAssignedVendor(t *testing.T) {
	e, store := newTestEngine(t, caterer("vend-v", "V", 4), caterer("vend-w", "W", 4))
	ctx := context.Background()

	b, err := e.CreateRequest(ctx, customer.ID, validRequest())
	require.NoError(t, err)
	_, err = e.AssignVendor(ctx, b.ID, "vend-w", admin)
	require.NoError(t, err)

	_, err = e.RespondToMatch(ctx, b.ID, DecisionAccept, actor.Actor{ID: "vend-v", Role: actor.RoleVendor})
	var aerr AuthorizationError
	require.ErrorAs(t, err, &aerr)

	// State unchanged by the rejected attempt.
	got, err := store.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusMatched, got.Status)
	assert.Equal(t, "vend-w", *got.VendorID)
}

func TestCancel_AuthorizationAndTerminality(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	b, err := e.CreateRequest(ctx, customer.ID, validRequest())
	require.NoError(t, err)

	_, err = e.Cancel(ctx, b.ID, actor.Actor{ID: "cust-other", Role: actor.RoleCustomer})
	var aerr AuthorizationError
	require.ErrorAs(t, err, &aerr)

	b, err = e.Cancel(ctx, b.ID, customer)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, b.Status)

	// Terminal states reject further transitions; no idempotent no-op.
	_, err = e.Cancel(ctx, b.ID, customer)
	var serr StateError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StatusCancelled, serr.Current)
}

func TestCancel_CompletedFails(t *testing.T) {
	e, _ := newTestEngine(t, caterer("vend-v", "V", 4))
	ctx := context.Background()

	b, err := e.CreateRequest(ctx, customer.ID, validRequest())
	require.NoError(t, err)
	_, err = e.AssignVendor(ctx, b.ID, "vend-v", admin)
	require.NoError(t, err)
	_, err = e.RespondToMatch(ctx, b.ID, DecisionAccept, actor.Actor{ID: "vend-v", Role: actor.RoleVendor})
	require.NoError(t, err)
	_, err = e.MarkCompleted(ctx, b.ID, admin)
	require.NoError(t, err)

	_, err = e.Cancel(ctx, b.ID, admin)
	var serr StateError
	require.ErrorAs(t, err, &serr)
}

func TestCancel_RefundsPaidBooking(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	b, err := e.CreateRequest(ctx, customer.ID, validRequest())
	require.NoError(t, err)
	_, err = e.SetPayment(ctx, b.ID, PaymentPaid, admin)
	require.NoError(t, err)

	b, err = e.Cancel(ctx, b.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, PaymentRefunded, b.PaymentStatus)
}

func TestAssignVendor_StaleRace(t *testing.T) {
	e, store := newTestEngine(t, caterer("vend-v", "V", 4), caterer("vend-w", "W", 4))
	ctx := context.Background()

	b, err := e.CreateRequest(ctx, customer.ID, validRequest())
	require.NoError(t, err)

	// A concurrent admin wins the conditional update between this call's
	// pre-check and its own update.
	store.beforeApply = func() {
		store.beforeApply = nil
		_, aerr := e.AssignVendor(ctx, b.ID, "vend-w", admin)
		require.NoError(t, aerr)
	}

	_, err = e.AssignVendor(ctx, b.ID, "vend-v", admin)
	var serr StateError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StatusMatched, serr.Current)

	got, err := store.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "vend-w", *got.VendorID, "exactly one assignment wins")
}

func TestDirectBooking_AcceptAndDecline(t *testing.T) {
	e, _ := newTestEngine(t, caterer("vend-v", "V", 4))
	ctx := context.Background()

	b, err := e.CreateDirectRequest(ctx, customer.ID, "vend-v", validRequest())
	require.NoError(t, err)
	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, OriginDirect, b.Origin)
	require.NotNil(t, b.VendorID)

	b, err = e.RespondToMatch(ctx, b.ID, DecisionAccept, actor.Actor{ID: "vend-v", Role: actor.RoleVendor})
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, b.Status)

	// A declined direct request has no matching pool to return to.
	b2, err := e.CreateDirectRequest(ctx, customer.ID, "vend-v", validRequest())
	require.NoError(t, err)
	b2, err = e.RespondToMatch(ctx, b2.ID, DecisionDecline, actor.Actor{ID: "vend-v", Role: actor.RoleVendor})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, b2.Status)

	_, err = e.CreateDirectRequest(ctx, customer.ID, "vend-unknown", validRequest())
	var nerr NotFoundError
	require.ErrorAs(t, err, &nerr)
}

func TestFindMatchCandidates_States(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	// Empty candidate list is a result, not a failure.
	b, err := e.CreateRequest(ctx, customer.ID, validRequest())
	require.NoError(t, err)
	cands, err := e.FindMatchCandidates(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, cands)

	// A booking that is not pending_match does not resolve.
	_, err = e.Cancel(ctx, b.ID, customer)
	require.NoError(t, err)
	_, err = e.FindMatchCandidates(ctx, b.ID)
	var nerr NotFoundError
	require.ErrorAs(t, err, &nerr)

	_, err = e.FindMatchCandidates(ctx, "no-such-booking")
	require.ErrorAs(t, err, &nerr)
}

func TestListForActor_RoleScoping(t *testing.T) {
	e, _ := newTestEngine(t, caterer("vend-v", "V", 4))
	ctx := context.Background()

	b1, err := e.CreateRequest(ctx, customer.ID, validRequest())
	require.NoError(t, err)
	_, err = e.CreateRequest(ctx, "cust-2", validRequest())
	require.NoError(t, err)
	_, err = e.AssignVendor(ctx, b1.ID, "vend-v", admin)
	require.NoError(t, err)

	own, err := e.ListForActor(ctx, customer, "")
	require.NoError(t, err)
	assert.Len(t, own, 1)

	assigned, err := e.ListForActor(ctx, actor.Actor{ID: "vend-v", Role: actor.RoleVendor}, "")
	require.NoError(t, err)
	assert.Len(t, assigned, 1)

	all, err := e.ListForActor(ctx, admin, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := e.ListForActor(ctx, admin, StatusPendingMatch)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
