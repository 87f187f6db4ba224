package events

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/event-registration/internal/domain"
)

func TestPublishInvokesSubscribersInOrder(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())

	var calls []string
	d.Subscribe(EventGuestRegistered, func(ctx context.Context, e Event) error {
		calls = append(calls, "first")
		return nil
	})
	d.Subscribe(EventGuestRegistered, func(ctx context.Context, e Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventPaymentAccepted, func(ctx context.Context, e Event) error {
		calls = append(calls, "other-type")
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventGuestRegistered}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Errorf("calls = %v", calls)
	}
}

func TestPublishLogsHandlerErrorAndContinues(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := NewInMemoryDispatcher(zap.New(core))

	secondRan := false
	d.Subscribe(EventParticipantCheckedIn, func(ctx context.Context, e Event) error {
		return errors.New("counter unavailable")
	})
	d.Subscribe(EventParticipantCheckedIn, func(ctx context.Context, e Event) error {
		secondRan = true
		return nil
	})

	err := d.Publish(context.Background(), Event{
		Type:          EventParticipantCheckedIn,
		Track:         domain.TrackGuest,
		ParticipantID: "guest-1",
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !secondRan {
		t.Error("handler error blocked the next subscriber")
	}

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["participant_id"] != "guest-1" {
		t.Errorf("logged fields = %v", fields)
	}
}
