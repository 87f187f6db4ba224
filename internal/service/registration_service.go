package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/event-registration/internal/config"
	"github.com/spec-kit/event-registration/internal/domain"
	"github.com/spec-kit/event-registration/internal/events"
	"github.com/spec-kit/event-registration/internal/repository"
	"github.com/spec-kit/event-registration/internal/ticket"
	apperrors "github.com/spec-kit/event-registration/pkg/util/errorutil"
)

// RegistrationService handles intake for both tracks: validation, dedup,
// identifier issuance and, for instantly-settled records, the ticket
// dispatch enqueue.
type RegistrationService struct {
	guests     repository.GuestRepository
	sph        repository.SPHRepository
	outbox     repository.OutboxRepository
	tx         repository.TxManager
	pricing    config.PricingConfig
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// RegistrationDependencies bundles collaborators for the service.
type RegistrationDependencies struct {
	GuestRepo  repository.GuestRepository
	SPHRepo    repository.SPHRepository
	OutboxRepo repository.OutboxRepository
	Tx         repository.TxManager
	Pricing    config.PricingConfig
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// GuestRegistrationInput describes the Guest-track payload.
type GuestRegistrationInput struct {
	Name         string
	Email        string
	Phone        string
	Organization *string
}

// SPHRegistrationInput describes the Workshop-track payload.
type SPHRegistrationInput struct {
	Name            string
	Email           string
	Phone           string
	Organization    *string
	ExperienceLevel string
	PaymentMethod   *string
}

// NewRegistrationService constructs the service.
func NewRegistrationService(deps RegistrationDependencies) *RegistrationService {
	return &RegistrationService{
		guests:     deps.GuestRepo,
		sph:        deps.SPHRepo,
		outbox:     deps.OutboxRepo,
		tx:         deps.Tx,
		pricing:    deps.Pricing,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// RegisterGuest creates a Guest-track participant. The track is fee-less,
// so the ticket email is queued in the same transaction as the insert.
func (s *RegistrationService) RegisterGuest(ctx context.Context, input GuestRegistrationInput) (*domain.Participant, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" || strings.TrimSpace(input.Phone) == "" {
		return nil, apperrors.NewValidationError("name, email, phone required", nil)
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	phone, err := normalizePhone(input.Phone)
	if err != nil {
		return nil, err
	}

	if existing, err := s.guests.FindByEmailOrPhone(ctx, email, phone); err == nil {
		return nil, duplicateRegistration(existing.ID)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// issued exactly once; regenerating would invalidate printed tickets
	token := ticket.NewVerificationToken()
	participant := &domain.Participant{
		ID:                uuid.NewString(),
		Name:              name,
		Email:             email,
		Phone:             phone,
		Organization:      trimOptional(input.Organization),
		VerificationToken: token,
		QRPayload:         ticket.GuestPayload(token),
		AttendanceStatus:  domain.AttendancePending,
		IsVerified:        true,
	}

	entry := newOutboxEntry(domain.TrackGuest, participant.ID, domain.OutboxReasonRegistered)
	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.guests.Create(ctx, tx, participant); err != nil {
			return err
		}
		return s.outbox.Enqueue(ctx, tx, entry)
	})
	if err != nil {
		// a concurrent registration can slip past the lookup; the unique
		// constraint catches it and the loser is still a duplicate
		if apperrors.IsUniqueViolation(err) {
			return nil, s.guestDuplicate(ctx, email, phone)
		}
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:          events.EventGuestRegistered,
		Track:         domain.TrackGuest,
		ParticipantID: participant.ID,
		Payload: events.GuestRegisteredPayload{
			Email:     participant.Email,
			QRPayload: participant.QRPayload,
		},
	})
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:          events.EventTicketQueued,
		Track:         domain.TrackGuest,
		ParticipantID: participant.ID,
		Payload:       events.TicketQueuedPayload{OutboxID: entry.ID, Reason: entry.Reason},
	})
	return participant, nil
}

// RegisterSPH creates a Workshop-track participant. In free mode the
// payment settles instantly and the ticket is queued in the same
// transaction; otherwise the record waits for an admin to accept payment.
func (s *RegistrationService) RegisterSPH(ctx context.Context, input SPHRegistrationInput) (*domain.SPHParticipant, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" || strings.TrimSpace(input.Phone) == "" {
		return nil, apperrors.NewValidationError("name, email, phone required", nil)
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	phone, err := normalizePhone(input.Phone)
	if err != nil {
		return nil, err
	}
	level, err := parseExperienceLevel(input.ExperienceLevel)
	if err != nil {
		return nil, err
	}

	if existing, err := s.sph.FindByEmailOrPhone(ctx, email, phone); err == nil {
		return nil, duplicateRegistration(existing.ID)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	status := domain.PaymentPending
	if s.pricing.FreeMode {
		status = domain.PaymentPaid
	}
	participant := &domain.SPHParticipant{
		ID:              uuid.NewString(),
		Name:            name,
		Email:           email,
		Phone:           phone,
		Organization:    trimOptional(input.Organization),
		ExperienceLevel: level,
		Amount:          s.pricing.AmountFor(string(level)),
		PaymentCode:     ticket.NewPaymentCode(),
		PaymentStatus:   status,
		PaymentMethod:   trimOptional(input.PaymentMethod),
		Notes:           "",
	}

	var entry *domain.TicketOutboxEntry
	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.sph.Create(ctx, tx, participant); err != nil {
			return err
		}
		if status != domain.PaymentPaid {
			return nil
		}
		entry = newOutboxEntry(domain.TrackSPH, participant.ID, domain.OutboxReasonRegistered)
		return s.outbox.Enqueue(ctx, tx, entry)
	})
	if err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, s.sphDuplicate(ctx, email, phone)
		}
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:          events.EventSPHRegistered,
		Track:         domain.TrackSPH,
		ParticipantID: participant.ID,
		Payload: events.SPHRegisteredPayload{
			Email:           participant.Email,
			PaymentCode:     participant.PaymentCode,
			ExperienceLevel: participant.ExperienceLevel,
			Amount:          participant.Amount,
			PaymentStatus:   participant.PaymentStatus,
		},
	})
	if entry != nil {
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:          events.EventTicketQueued,
			Track:         domain.TrackSPH,
			ParticipantID: participant.ID,
			Payload:       events.TicketQueuedPayload{OutboxID: entry.ID, Reason: entry.Reason},
		})
	}
	return participant, nil
}

// ResendGuestTicket queues a fresh ticket email. The artifact is always
// regenerated at send time, so a corrected name reaches the new ticket.
func (s *RegistrationService) ResendGuestTicket(ctx context.Context, id string) (*domain.TicketOutboxEntry, error) {
	participant, err := s.guests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("participant", nil)
		}
		return nil, err
	}

	entry := newOutboxEntry(domain.TrackGuest, participant.ID, domain.OutboxReasonResend)
	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		return s.outbox.Enqueue(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:          events.EventTicketQueued,
		Track:         domain.TrackGuest,
		ParticipantID: participant.ID,
		Payload:       events.TicketQueuedPayload{OutboxID: entry.ID, Reason: entry.Reason},
	})
	return entry, nil
}

// guestDuplicate re-reads the winner after a unique violation so the
// conflict response still carries the resend hint.
func (s *RegistrationService) guestDuplicate(ctx context.Context, email, phone string) error {
	if existing, err := s.guests.FindByEmailOrPhone(ctx, email, phone); err == nil {
		return duplicateRegistration(existing.ID)
	}
	return apperrors.NewConflict("email or phone already registered", nil)
}

func (s *RegistrationService) sphDuplicate(ctx context.Context, email, phone string) error {
	if existing, err := s.sph.FindByEmailOrPhone(ctx, email, phone); err == nil {
		return duplicateRegistration(existing.ID)
	}
	return apperrors.NewConflict("email or phone already registered", nil)
}

func duplicateRegistration(existingID string) error {
	return apperrors.NewConflict("email or phone already registered", map[string]any{
		"canResendTicket": true,
		"participantId":   existingID,
	})
}

func parseExperienceLevel(raw string) (domain.ExperienceLevel, error) {
	switch domain.ExperienceLevel(strings.ToUpper(strings.TrimSpace(raw))) {
	case domain.ExperienceBeginner, "":
		return domain.ExperienceBeginner, nil
	case domain.ExperienceIntermediate:
		return domain.ExperienceIntermediate, nil
	case domain.ExperienceAdvanced:
		return domain.ExperienceAdvanced, nil
	default:
		return "", apperrors.NewValidationError("unknown experience level", map[string]any{"field": "experienceLevel"})
	}
}

func trimOptional(val *string) *string {
	if val == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*val)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
