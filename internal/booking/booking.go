package booking

import (
	"time"

	"github.com/shopspring/decimal"

	"eventmarket/internal/vendor"
)

type EventType string

const (
	EventWedding     EventType = "wedding"
	EventBirthday    EventType = "birthday"
	EventCorporate   EventType = "corporate"
	EventConference  EventType = "conference"
	EventGraduation  EventType = "graduation"
	EventAnniversary EventType = "anniversary"
	EventOther       EventType = "other"
)

func validEventType(t EventType) bool {
	switch t {
	case EventWedding, EventBirthday, EventCorporate, EventConference,
		EventGraduation, EventAnniversary, EventOther:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// The two supported payment rails.
type PaymentMethod string

const (
	PayTelebirr PaymentMethod = "telebirr"
	PayChapa    PaymentMethod = "chapa"
)

func validPaymentMethod(m PaymentMethod) bool {
	return m == PayTelebirr || m == PayChapa
}

// Booking is the central workflow entity. The engine is the sole writer
// of Status and VendorID; event descriptors are written once at creation.
type Booking struct {
	ID         string  `json:"id"`
	Origin     Origin  `json:"origin"`
	CustomerID string  `json:"customerId"`
	VendorID   *string `json:"vendorId,omitempty"`

	ServiceType         vendor.ServiceType `json:"serviceType"`
	EventType           EventType          `json:"eventType"`
	EventDate           string             `json:"eventDate"`
	EventTime           string             `json:"eventTime"`
	Location            string             `json:"location"`
	GuestCount          int                `json:"guestCount"`
	Budget              decimal.Decimal    `json:"budget"`
	SpecialRequirements string             `json:"specialRequirements,omitempty"`

	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AssignedTo reports whether the booking's vendor id equals vendorID.
func (b *Booking) AssignedTo(vendorID string) bool {
	return b.VendorID != nil && *b.VendorID == vendorID
}

// NewRequest carries the customer-authored event descriptors of a new
// service request.
type NewRequest struct {
	ServiceType         vendor.ServiceType
	EventType           EventType
	EventDate           string // YYYY-MM-DD
	EventTime           string // HH:MM
	Location            string
	GuestCount          int
	Budget              decimal.Decimal
	SpecialRequirements string
	PaymentMethod       PaymentMethod
}

func (in NewRequest) validate() error {
	if _, err := vendor.ParseServiceType(string(in.ServiceType)); err != nil {
		return ValidationError{Code: "SERVICE_TYPE_INVALID", Message: "unknown service type"}
	}
	if !validEventType(in.EventType) {
		return ValidationError{Code: "EVENT_TYPE_INVALID", Message: "unknown event type"}
	}
	if _, err := time.Parse("2006-01-02", in.EventDate); err != nil {
		return ValidationError{Code: "EVENT_DATE_INVALID", Message: "event date must be YYYY-MM-DD"}
	}
	if _, err := time.Parse("15:04", in.EventTime); err != nil {
		return ValidationError{Code: "EVENT_TIME_INVALID", Message: "event time must be HH:MM"}
	}
	if in.Location == "" {
		return ValidationError{Code: "LOCATION_REQUIRED", Message: "location is required"}
	}
	if in.GuestCount < 0 {
		return ValidationError{Code: "GUEST_COUNT_INVALID", Message: "guest count must be >= 0"}
	}
	if in.Budget.LessThanOrEqual(decimal.Zero) {
		return ValidationError{Code: "BUDGET_INVALID", Message: "budget must be > 0"}
	}
	if !validPaymentMethod(in.PaymentMethod) {
		return ValidationError{Code: "PAYMENT_METHOD_INVALID", Message: "unsupported payment method"}
	}
	return nil
}
