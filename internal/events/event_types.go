package events

import (
	"time"

	"github.com/spec-kit/event-registration/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventGuestRegistered      EventType = "guest_registered"
	EventSPHRegistered        EventType = "sph_registered"
	EventPaymentAccepted      EventType = "payment_accepted"
	EventPaymentRejected      EventType = "payment_rejected"
	EventParticipantCheckedIn EventType = "participant_checked_in"
	EventTicketQueued         EventType = "ticket_queued"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID            string       `json:"id"`
	Type          EventType    `json:"type"`
	Track         domain.Track `json:"track"`
	ParticipantID string       `json:"participant_id"`
	Timestamp     time.Time    `json:"timestamp"`
	Payload       interface{}  `json:"payload"`
}

// GuestRegisteredPayload payload.
type GuestRegisteredPayload struct {
	Email     string `json:"email"`
	QRPayload string `json:"qr_payload"`
}

// SPHRegisteredPayload payload.
type SPHRegisteredPayload struct {
	Email           string                 `json:"email"`
	PaymentCode     string                 `json:"payment_code"`
	ExperienceLevel domain.ExperienceLevel `json:"experience_level"`
	Amount          int64                  `json:"amount"`
	PaymentStatus   domain.PaymentStatus   `json:"payment_status"`
}

// PaymentChangedPayload payload for accept/reject transitions.
type PaymentChangedPayload struct {
	PaymentCode string               `json:"payment_code"`
	OldStatus   domain.PaymentStatus `json:"old_status"`
	NewStatus   domain.PaymentStatus `json:"new_status"`
}

// CheckedInPayload payload.
type CheckedInPayload struct {
	QRPayload   string    `json:"qr_payload"`
	CheckedInAt time.Time `json:"checked_in_at"`
}

// TicketQueuedPayload payload.
type TicketQueuedPayload struct {
	OutboxID string              `json:"outbox_id"`
	Reason   domain.OutboxReason `json:"reason"`
}
