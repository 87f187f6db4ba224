package service

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/event-registration/internal/domain"
	"github.com/spec-kit/event-registration/internal/events"
	"github.com/spec-kit/event-registration/internal/repository"
)

// mockTxManager runs the callback without a real transaction; the repo
// mocks below ignore the tx handle.
type mockTxManager struct{}

func (mockTxManager) WithTx(ctx context.Context, fn func(pgx.Tx) error) error {
	return fn(nil)
}

type mockGuestRepo struct {
	createFn             func(ctx context.Context, tx pgx.Tx, p *domain.Participant) error
	getByIDFn            func(ctx context.Context, id string) (*domain.Participant, error)
	findByEmailOrPhoneFn func(ctx context.Context, email, phone string) (*domain.Participant, error)
	getByPayloadFn       func(ctx context.Context, payload string) (*domain.Participant, error)
	checkInFn            func(ctx context.Context, id string, at time.Time) (bool, error)
	listFn               func(ctx context.Context, filter repository.GuestFilter) ([]domain.Participant, error)
	countsFn             func(ctx context.Context) (int64, int64, error)
}

func (m *mockGuestRepo) Create(ctx context.Context, tx pgx.Tx, p *domain.Participant) error {
	if m.createFn != nil {
		return m.createFn(ctx, tx, p)
	}
	return nil
}

func (m *mockGuestRepo) GetByID(ctx context.Context, id string) (*domain.Participant, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, pgx.ErrNoRows
}

func (m *mockGuestRepo) FindByEmailOrPhone(ctx context.Context, email, phone string) (*domain.Participant, error) {
	if m.findByEmailOrPhoneFn != nil {
		return m.findByEmailOrPhoneFn(ctx, email, phone)
	}
	return nil, pgx.ErrNoRows
}

func (m *mockGuestRepo) GetByPayload(ctx context.Context, payload string) (*domain.Participant, error) {
	if m.getByPayloadFn != nil {
		return m.getByPayloadFn(ctx, payload)
	}
	return nil, pgx.ErrNoRows
}

func (m *mockGuestRepo) CheckIn(ctx context.Context, id string, at time.Time) (bool, error) {
	if m.checkInFn != nil {
		return m.checkInFn(ctx, id, at)
	}
	return false, nil
}

func (m *mockGuestRepo) List(ctx context.Context, filter repository.GuestFilter) ([]domain.Participant, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, nil
}

func (m *mockGuestRepo) Counts(ctx context.Context) (int64, int64, error) {
	if m.countsFn != nil {
		return m.countsFn(ctx)
	}
	return 0, 0, nil
}

type mockSPHRepo struct {
	createFn             func(ctx context.Context, tx pgx.Tx, p *domain.SPHParticipant) error
	getByIDFn            func(ctx context.Context, id string) (*domain.SPHParticipant, error)
	findByEmailOrPhoneFn func(ctx context.Context, email, phone string) (*domain.SPHParticipant, error)
	getByPaymentCodeFn   func(ctx context.Context, code string) (*domain.SPHParticipant, error)
	markPaidFn           func(ctx context.Context, tx pgx.Tx, id string, method *string) (bool, error)
	markCancelledFn      func(ctx context.Context, tx pgx.Tx, id string) (bool, error)
	checkInFn            func(ctx context.Context, id string, at time.Time, marker string) (bool, error)
	listFn               func(ctx context.Context, filter repository.SPHFilter) ([]domain.SPHParticipant, error)
	countsFn             func(ctx context.Context) (int64, int64, int64, error)
}

func (m *mockSPHRepo) Create(ctx context.Context, tx pgx.Tx, p *domain.SPHParticipant) error {
	if m.createFn != nil {
		return m.createFn(ctx, tx, p)
	}
	return nil
}

func (m *mockSPHRepo) GetByID(ctx context.Context, id string) (*domain.SPHParticipant, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, pgx.ErrNoRows
}

func (m *mockSPHRepo) FindByEmailOrPhone(ctx context.Context, email, phone string) (*domain.SPHParticipant, error) {
	if m.findByEmailOrPhoneFn != nil {
		return m.findByEmailOrPhoneFn(ctx, email, phone)
	}
	return nil, pgx.ErrNoRows
}

func (m *mockSPHRepo) GetByPaymentCode(ctx context.Context, code string) (*domain.SPHParticipant, error) {
	if m.getByPaymentCodeFn != nil {
		return m.getByPaymentCodeFn(ctx, code)
	}
	return nil, pgx.ErrNoRows
}

func (m *mockSPHRepo) MarkPaid(ctx context.Context, tx pgx.Tx, id string, method *string) (bool, error) {
	if m.markPaidFn != nil {
		return m.markPaidFn(ctx, tx, id, method)
	}
	return false, nil
}

func (m *mockSPHRepo) MarkCancelled(ctx context.Context, tx pgx.Tx, id string) (bool, error) {
	if m.markCancelledFn != nil {
		return m.markCancelledFn(ctx, tx, id)
	}
	return false, nil
}

func (m *mockSPHRepo) CheckIn(ctx context.Context, id string, at time.Time, marker string) (bool, error) {
	if m.checkInFn != nil {
		return m.checkInFn(ctx, id, at, marker)
	}
	return false, nil
}

func (m *mockSPHRepo) List(ctx context.Context, filter repository.SPHFilter) ([]domain.SPHParticipant, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, nil
}

func (m *mockSPHRepo) Counts(ctx context.Context) (int64, int64, int64, error) {
	if m.countsFn != nil {
		return m.countsFn(ctx)
	}
	return 0, 0, 0, nil
}

// mockOutboxRepo records enqueued entries.
type mockOutboxRepo struct {
	mu        sync.Mutex
	enqueued  []domain.TicketOutboxEntry
	enqueueFn func(ctx context.Context, tx pgx.Tx, entry *domain.TicketOutboxEntry) error
}

func (m *mockOutboxRepo) Enqueue(ctx context.Context, tx pgx.Tx, entry *domain.TicketOutboxEntry) error {
	if m.enqueueFn != nil {
		if err := m.enqueueFn(ctx, tx, entry); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enqueued = append(m.enqueued, *entry)
	return nil
}

func (m *mockOutboxRepo) ClaimBatch(ctx context.Context, limit int) ([]domain.TicketOutboxEntry, error) {
	return nil, nil
}

func (m *mockOutboxRepo) MarkSent(ctx context.Context, id string, at time.Time) error { return nil }

func (m *mockOutboxRepo) MarkRetry(ctx context.Context, id string, sendErr string) error { return nil }

func (m *mockOutboxRepo) MarkFailed(ctx context.Context, id string, sendErr string) error { return nil }

func (m *mockOutboxRepo) entries() []domain.TicketOutboxEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.TicketOutboxEntry{}, m.enqueued...)
}

// recordingDispatcher captures published events in order.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *recordingDispatcher) published() []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]events.Event{}, d.events...)
}

func (d *recordingDispatcher) typesSeen() []events.EventType {
	var types []events.EventType
	for _, e := range d.published() {
		types = append(types, e.Type)
	}
	return types
}
