package dto

import (
	"time"

	"github.com/spec-kit/event-registration/internal/domain"
)

// RegisterParticipantRequest payload for Guest-track registration.
type RegisterParticipantRequest struct {
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Phone        string  `json:"phone"`
	Organization *string `json:"organization"`
}

// ParticipantResponse is the Guest-track record projection. The QR image
// itself is produced lazily by the dispatch pipeline, never inline here.
type ParticipantResponse struct {
	ID                string                  `json:"id"`
	Name              string                  `json:"name"`
	Email             string                  `json:"email"`
	Phone             string                  `json:"phone"`
	Organization      *string                 `json:"organization"`
	VerificationToken string                  `json:"verificationToken"`
	QRPayload         string                  `json:"qrPayload"`
	AttendanceStatus  domain.AttendanceStatus `json:"attendanceStatus"`
	IsVerified        bool                    `json:"isVerified"`
	CheckedInAt       *time.Time              `json:"checkedInAt"`
	CreatedAt         time.Time               `json:"createdAt"`
}

// ResendTicketResponse acknowledges a queued resend.
type ResendTicketResponse struct {
	OutboxID string              `json:"outboxId"`
	Reason   domain.OutboxReason `json:"reason"`
	Status   domain.OutboxStatus `json:"status"`
}
