package dto

import (
	"time"

	"github.com/spec-kit/event-registration/internal/domain"
)

// RegisterSPHRequest payload for Workshop-track registration.
type RegisterSPHRequest struct {
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone"`
	Organization    *string `json:"organization"`
	ExperienceLevel string  `json:"experienceLevel"`
	PaymentMethod   *string `json:"paymentMethod"`
}

// RegisterSPHResponse is the minimal confirmation returned at intake.
type RegisterSPHResponse struct {
	ID          string               `json:"id"`
	PaymentCode string               `json:"paymentCode"`
	Status      domain.PaymentStatus `json:"status"`
	Amount      int64                `json:"amount"`
}

// AcceptPaymentRequest payload.
type AcceptPaymentRequest struct {
	PaymentMethod *string `json:"paymentMethod"`
}

// SPHParticipantResponse is the full Workshop-track projection.
type SPHParticipantResponse struct {
	ID              string                 `json:"id"`
	Name            string                 `json:"name"`
	Email           string                 `json:"email"`
	Phone           string                 `json:"phone"`
	Organization    *string                `json:"organization"`
	ExperienceLevel domain.ExperienceLevel `json:"experienceLevel"`
	Amount          int64                  `json:"amount"`
	PaymentCode     string                 `json:"paymentCode"`
	PaymentStatus   domain.PaymentStatus   `json:"paymentStatus"`
	PaymentMethod   *string                `json:"paymentMethod"`
	Notes           string                 `json:"notes"`
	CheckedInAt     *time.Time             `json:"checkedInAt"`
	CreatedAt       time.Time              `json:"createdAt"`
}
