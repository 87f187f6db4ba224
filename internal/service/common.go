package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/event-registration/internal/domain"
	"github.com/spec-kit/event-registration/internal/events"
)

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}

func newOutboxEntry(track domain.Track, participantID string, reason domain.OutboxReason) *domain.TicketOutboxEntry {
	return &domain.TicketOutboxEntry{
		ID:            uuid.NewString(),
		Track:         track,
		ParticipantID: participantID,
		Reason:        reason,
		Status:        domain.OutboxPending,
	}
}

// checkInMarker is the human-readable audit line appended to workshop
// notes on first check-in.
func checkInMarker(at time.Time) string {
	return fmt.Sprintf("[CHECKED-IN %s]", at.Format("2006-01-02 15:04:05"))
}
