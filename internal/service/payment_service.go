package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/event-registration/internal/domain"
	"github.com/spec-kit/event-registration/internal/events"
	"github.com/spec-kit/event-registration/internal/repository"
	apperrors "github.com/spec-kit/event-registration/pkg/util/errorutil"
)

// PaymentService governs the workshop payment state machine:
// pending → paid and pending → cancelled, both terminal. The transition
// guard lives in the UPDATE's WHERE clause so two concurrent accepts
// cannot both trigger a ticket send.
type PaymentService struct {
	sph        repository.SPHRepository
	outbox     repository.OutboxRepository
	tx         repository.TxManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// PaymentDependencies bundles collaborators for the service.
type PaymentDependencies struct {
	SPHRepo    repository.SPHRepository
	OutboxRepo repository.OutboxRepository
	Tx         repository.TxManager
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewPaymentService constructs the service.
func NewPaymentService(deps PaymentDependencies) *PaymentService {
	return &PaymentService{
		sph:        deps.SPHRepo,
		outbox:     deps.OutboxRepo,
		tx:         deps.Tx,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// AcceptPayment performs the pending→paid transition and queues the
// ticket email in the same transaction. Exactly one of two concurrent
// calls wins; the loser gets InvalidState.
func (s *PaymentService) AcceptPayment(ctx context.Context, id string, method *string) (*domain.SPHParticipant, error) {
	var entry *domain.TicketOutboxEntry
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		ok, err := s.sph.MarkPaid(ctx, tx, id, method)
		if err != nil {
			return err
		}
		if !ok {
			return s.transitionRejected(ctx, id, domain.PaymentPaid)
		}
		entry = newOutboxEntry(domain.TrackSPH, id, domain.OutboxReasonPaymentAccepted)
		return s.outbox.Enqueue(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}

	participant, err := s.sph.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:          events.EventPaymentAccepted,
		Track:         domain.TrackSPH,
		ParticipantID: participant.ID,
		Payload: events.PaymentChangedPayload{
			PaymentCode: participant.PaymentCode,
			OldStatus:   domain.PaymentPending,
			NewStatus:   domain.PaymentPaid,
		},
	})
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:          events.EventTicketQueued,
		Track:         domain.TrackSPH,
		ParticipantID: participant.ID,
		Payload:       events.TicketQueuedPayload{OutboxID: entry.ID, Reason: entry.Reason},
	})
	return participant, nil
}

// RejectPayment performs the pending→cancelled transition. This is the
// administrative rejection path, not a refund: a paid ticket cannot be
// cancelled.
func (s *PaymentService) RejectPayment(ctx context.Context, id string) (*domain.SPHParticipant, error) {
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		ok, err := s.sph.MarkCancelled(ctx, tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return s.transitionRejected(ctx, id, domain.PaymentCancelled)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	participant, err := s.sph.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:          events.EventPaymentRejected,
		Track:         domain.TrackSPH,
		ParticipantID: participant.ID,
		Payload: events.PaymentChangedPayload{
			PaymentCode: participant.PaymentCode,
			OldStatus:   domain.PaymentPending,
			NewStatus:   domain.PaymentCancelled,
		},
	})
	return participant, nil
}

// ResendSPHTicket queues a fresh ticket email for a settled workshop
// participant. Resending an unpaid record would mail an unusable QR, so
// the guard requires paid.
func (s *PaymentService) ResendSPHTicket(ctx context.Context, id string) (*domain.TicketOutboxEntry, error) {
	participant, err := s.sph.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("participant", nil)
		}
		return nil, err
	}
	if participant.PaymentStatus != domain.PaymentPaid {
		return nil, apperrors.NewInvalidState("ticket can only be resent for paid participants", map[string]any{
			"status": participant.PaymentStatus,
		})
	}

	entry := newOutboxEntry(domain.TrackSPH, participant.ID, domain.OutboxReasonResend)
	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		return s.outbox.Enqueue(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:          events.EventTicketQueued,
		Track:         domain.TrackSPH,
		ParticipantID: participant.ID,
		Payload:       events.TicketQueuedPayload{OutboxID: entry.ID, Reason: entry.Reason},
	})
	return entry, nil
}

// transitionRejected distinguishes "no such record" from "wrong state"
// after a zero-row CAS.
func (s *PaymentService) transitionRejected(ctx context.Context, id string, target domain.PaymentStatus) error {
	participant, err := s.sph.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("participant", nil)
		}
		return err
	}
	return apperrors.NewInvalidState("payment is not pending", map[string]any{
		"status":    participant.PaymentStatus,
		"requested": target,
	})
}
