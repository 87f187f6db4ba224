package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/event-registration/internal/domain"
	"github.com/spec-kit/event-registration/internal/events"
	"github.com/spec-kit/event-registration/internal/persistence"
	"github.com/spec-kit/event-registration/internal/repository"
	"github.com/spec-kit/event-registration/internal/ticket"
	apperrors "github.com/spec-kit/event-registration/pkg/util/errorutil"
)

// Redis keys for the live door counters.
const (
	counterKeyGuest = "attendance:guest"
	counterKeySPH   = "attendance:sph"
)

// AttendanceService resolves scanned QR payloads and performs the
// at-most-once check-in for both tracks.
type AttendanceService struct {
	guests     repository.GuestRepository
	sph        repository.SPHRepository
	redis      *persistence.Redis
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// AttendanceDependencies bundles collaborators for the service.
type AttendanceDependencies struct {
	GuestRepo  repository.GuestRepository
	SPHRepo    repository.SPHRepository
	Redis      *persistence.Redis
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// ScanResult reports a successful check-in.
type ScanResult struct {
	Track       domain.Track
	Guest       *domain.Participant
	SPH         *domain.SPHParticipant
	CheckedInAt time.Time
}

// AttendanceStats summarizes door progress for the committee dashboard.
type AttendanceStats struct {
	GuestTotal   int64
	GuestPresent int64
	SPHTotal     int64
	SPHPaid      int64
	SPHPresent   int64
}

// NewAttendanceService constructs the service.
func NewAttendanceService(deps AttendanceDependencies) *AttendanceService {
	return &AttendanceService{
		guests:     deps.GuestRepo,
		sph:        deps.SPHRepo,
		redis:      deps.Redis,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// Scan resolves a payload against the Guest table first (exact payload or
// bare token), then the Workshop table by payment code. Check-in policy
// is symmetric across tracks: the first scan wins, any repeat gets a
// distinct already-present rejection and changes nothing.
func (s *AttendanceService) Scan(ctx context.Context, rawPayload string) (*ScanResult, error) {
	payload := strings.TrimSpace(rawPayload)
	if payload == "" {
		return nil, apperrors.NewValidationError("qrCode required", nil)
	}

	guest, err := s.guests.GetByPayload(ctx, payload)
	switch {
	case err == nil:
		return s.checkInGuest(ctx, guest)
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, err
	}

	if namespace, opaqueID, ok := ticket.Split(payload); ok && namespace == ticket.NamespaceSPH {
		participant, err := s.sph.GetByPaymentCode(ctx, opaqueID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("ticket", nil)
			}
			return nil, err
		}
		return s.checkInSPH(ctx, participant)
	}

	return nil, apperrors.NewNotFound("ticket", nil)
}

func (s *AttendanceService) checkInGuest(ctx context.Context, guest *domain.Participant) (*ScanResult, error) {
	at := s.now()
	ok, err := s.guests.CheckIn(ctx, guest.ID, at)
	if err != nil {
		return nil, err
	}
	if !ok {
		// the pre-CAS read can be stale when a concurrent scan won the
		// race; re-read so the rejection reports the real first scan time
		if fresh, readErr := s.guests.GetByID(ctx, guest.ID); readErr == nil {
			guest = fresh
		}
		return nil, alreadyPresent(guest.CheckedInAt)
	}

	guest.AttendanceStatus = domain.AttendancePresent
	guest.CheckedInAt = &at
	s.publishCheckedIn(ctx, domain.TrackGuest, guest.ID, guest.QRPayload, at)
	return &ScanResult{Track: domain.TrackGuest, Guest: guest, CheckedInAt: at}, nil
}

func (s *AttendanceService) checkInSPH(ctx context.Context, participant *domain.SPHParticipant) (*ScanResult, error) {
	// payment gate first: an unsettled or rejected ticket never enters,
	// no matter how valid the QR is
	switch participant.PaymentStatus {
	case domain.PaymentPending:
		return nil, apperrors.NewScanRejected(apperrors.CodePaymentPending, "payment not settled", map[string]any{
			"paymentCode": participant.PaymentCode,
		})
	case domain.PaymentCancelled:
		return nil, apperrors.NewScanRejected(apperrors.CodePaymentCancelled, "registration was cancelled", map[string]any{
			"paymentCode": participant.PaymentCode,
		})
	}

	at := s.now()
	ok, err := s.sph.CheckIn(ctx, participant.ID, at, checkInMarker(at))
	if err != nil {
		return nil, err
	}
	if !ok {
		if fresh, readErr := s.sph.GetByID(ctx, participant.ID); readErr == nil {
			participant = fresh
		}
		return nil, alreadyPresent(participant.CheckedInAt)
	}

	participant.CheckedInAt = &at
	s.publishCheckedIn(ctx, domain.TrackSPH, participant.ID, ticket.SPHPayload(participant.PaymentCode), at)
	return &ScanResult{Track: domain.TrackSPH, SPH: participant, CheckedInAt: at}, nil
}

// Stats combines authoritative DB counts with nothing else; the Redis
// counters exist for cheap polling from the door dashboard and are
// reconciled against these totals.
func (s *AttendanceService) Stats(ctx context.Context) (*AttendanceStats, error) {
	guestTotal, guestPresent, err := s.guests.Counts(ctx)
	if err != nil {
		return nil, err
	}
	sphTotal, sphPaid, sphPresent, err := s.sph.Counts(ctx)
	if err != nil {
		return nil, err
	}
	return &AttendanceStats{
		GuestTotal:   guestTotal,
		GuestPresent: guestPresent,
		SPHTotal:     sphTotal,
		SPHPaid:      sphPaid,
		SPHPresent:   sphPresent,
	}, nil
}

// alreadyPresent builds the repeat-scan rejection. The detail is omitted
// when the first scan time could not be read back.
func alreadyPresent(checkedInAt *time.Time) error {
	details := map[string]any{}
	if checkedInAt != nil {
		details["checkedInAt"] = *checkedInAt
	}
	return apperrors.NewScanRejected(apperrors.CodeAlreadyPresent, "participant already checked in", details)
}

func (s *AttendanceService) publishCheckedIn(ctx context.Context, track domain.Track, id, payload string, at time.Time) {
	s.incrementCounter(ctx, track)
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:          events.EventParticipantCheckedIn,
		Track:         track,
		ParticipantID: id,
		Payload: events.CheckedInPayload{
			QRPayload:   payload,
			CheckedInAt: at,
		},
	})
}

func (s *AttendanceService) incrementCounter(ctx context.Context, track domain.Track) {
	if s.redis == nil || s.redis.Client == nil {
		return
	}
	key := counterKeyGuest
	if track == domain.TrackSPH {
		key = counterKeySPH
	}
	if err := s.redis.Client.Incr(ctx, key).Err(); err != nil {
		s.logger.Warn("attendance counter increment failed", zap.String("key", key), zap.Error(err))
	}
}

// LiveCounters reads the Redis door counters. Zero values when Redis is
// down; the DB counts in Stats stay authoritative.
func (s *AttendanceService) LiveCounters(ctx context.Context) (guest, sph int64) {
	if s.redis == nil || s.redis.Client == nil {
		return 0, 0
	}
	guest, _ = s.redis.Client.Get(ctx, counterKeyGuest).Int64()
	sph, _ = s.redis.Client.Get(ctx, counterKeySPH).Int64()
	return guest, sph
}
