package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/event-registration/internal/events"
)

// NotificationService mirrors domain events into the operational log so
// the committee can follow registrations and door activity without DB
// access.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventGuestRegistered, n.logEvent("GuestRegistered"))
	n.dispatcher.Subscribe(events.EventSPHRegistered, n.logEvent("SPHRegistered"))
	n.dispatcher.Subscribe(events.EventPaymentAccepted, n.logEvent("PaymentAccepted"))
	n.dispatcher.Subscribe(events.EventPaymentRejected, n.logEvent("PaymentRejected"))
	n.dispatcher.Subscribe(events.EventParticipantCheckedIn, n.logEvent("ParticipantCheckedIn"))
	n.dispatcher.Subscribe(events.EventTicketQueued, n.logEvent("TicketQueued"))
}

func (n *NotificationService) logEvent(name string) events.EventHandler {
	return func(ctx context.Context, event events.Event) error {
		n.logger.Info(name,
			zap.String("participant_id", event.ParticipantID),
			zap.String("track", string(event.Track)),
			zap.Any("payload", event.Payload))
		return nil
	}
}
