package domain

import "time"

// AttendanceStatus enumerates door check-in states for guest participants.
type AttendanceStatus string

const (
	AttendancePending AttendanceStatus = "PENDING"
	AttendancePresent AttendanceStatus = "PRESENT"
)

// Participant is the Guest (MUSDA) track registration record.
type Participant struct {
	ID                string
	Name              string
	Email             string
	Phone             string
	Organization      *string
	VerificationToken string
	QRPayload         string
	AttendanceStatus  AttendanceStatus
	IsVerified        bool
	CheckedInAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
