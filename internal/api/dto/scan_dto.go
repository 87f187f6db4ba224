package dto

import (
	"time"

	"github.com/spec-kit/event-registration/internal/domain"
)

// ScanRequest payload from the door scanner.
type ScanRequest struct {
	QRCode string `json:"qrCode"`
}

// ScanResponse reports a successful check-in. Exactly one of Guest/SPH
// is populated depending on the resolved track.
type ScanResponse struct {
	Track       domain.Track            `json:"track"`
	CheckedInAt time.Time               `json:"checkedInAt"`
	Guest       *ParticipantResponse    `json:"guest,omitempty"`
	SPH         *SPHParticipantResponse `json:"sph,omitempty"`
}

// AttendanceStatsResponse for the committee dashboard.
type AttendanceStatsResponse struct {
	GuestTotal   int64 `json:"guestTotal"`
	GuestPresent int64 `json:"guestPresent"`
	SPHTotal     int64 `json:"sphTotal"`
	SPHPaid      int64 `json:"sphPaid"`
	SPHPresent   int64 `json:"sphPresent"`
	LiveGuest    int64 `json:"liveGuest"`
	LiveSPH      int64 `json:"liveSph"`
}
