package domain

import "time"

// OutboxStatus enumerates dispatch states for queued ticket emails.
type OutboxStatus string

const (
	OutboxPending OutboxStatus = "PENDING"
	OutboxSending OutboxStatus = "SENDING"
	OutboxSent    OutboxStatus = "SENT"
	OutboxFailed  OutboxStatus = "FAILED"
)

// OutboxReason records why a ticket email was queued.
type OutboxReason string

const (
	OutboxReasonRegistered      OutboxReason = "REGISTERED"
	OutboxReasonPaymentAccepted OutboxReason = "PAYMENT_ACCEPTED"
	OutboxReasonResend          OutboxReason = "RESEND"
)

// TicketOutboxEntry is a durable "send this ticket" task. It is written in
// the same transaction as the state change that triggered it so a crash
// between the transition and the send never drops a ticket.
type TicketOutboxEntry struct {
	ID            string
	Track         Track
	ParticipantID string
	Reason        OutboxReason
	Status        OutboxStatus
	Attempts      int
	LastError     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	SentAt        *time.Time
}
