package domain

import "time"

// PaymentStatus enumerates workshop payment lifecycle states.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

// ExperienceLevel selects the workshop pricing tier.
type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "BEGINNER"
	ExperienceIntermediate ExperienceLevel = "INTERMEDIATE"
	ExperienceAdvanced     ExperienceLevel = "ADVANCED"
)

// SPHParticipant is the Workshop (SPH) track registration record. The
// payment code is the only identifier ever embedded in the QR payload;
// the primary key never leaves the database.
type SPHParticipant struct {
	ID              string
	Name            string
	Email           string
	Phone           string
	Organization    *string
	ExperienceLevel ExperienceLevel
	Amount          int64
	PaymentCode     string
	PaymentStatus   PaymentStatus
	PaymentMethod   *string
	Notes           string
	CheckedInAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
