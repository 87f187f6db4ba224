package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/event-registration/internal/domain"
	"github.com/spec-kit/event-registration/internal/events"
	apperrors "github.com/spec-kit/event-registration/pkg/util/errorutil"
)

func newPaymentFixture() (*PaymentService, *mockSPHRepo, *mockOutboxRepo, *recordingDispatcher) {
	sph := &mockSPHRepo{}
	outbox := &mockOutboxRepo{}
	dispatcher := &recordingDispatcher{}
	svc := NewPaymentService(PaymentDependencies{
		SPHRepo:    sph,
		OutboxRepo: outbox,
		Tx:         mockTxManager{},
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
	})
	return svc, sph, outbox, dispatcher
}

func TestAcceptPayment(t *testing.T) {
	svc, sph, outbox, dispatcher := newPaymentFixture()

	var gotMethod *string
	sph.markPaidFn = func(ctx context.Context, tx pgx.Tx, id string, method *string) (bool, error) {
		gotMethod = method
		return true, nil
	}
	sph.getByIDFn = func(ctx context.Context, id string) (*domain.SPHParticipant, error) {
		return &domain.SPHParticipant{ID: id, PaymentCode: "SPH-AAAA1111", PaymentStatus: domain.PaymentPaid}, nil
	}

	method := "bank_transfer"
	participant, err := svc.AcceptPayment(context.Background(), "sph-1", &method)
	if err != nil {
		t.Fatalf("AcceptPayment: %v", err)
	}
	if participant.PaymentStatus != domain.PaymentPaid {
		t.Errorf("status = %s, want PAID", participant.PaymentStatus)
	}
	if gotMethod == nil || *gotMethod != "bank_transfer" {
		t.Errorf("method = %v, want bank_transfer", gotMethod)
	}

	queued := outbox.entries()
	if len(queued) != 1 || queued[0].Reason != domain.OutboxReasonPaymentAccepted {
		t.Fatalf("outbox = %v, want one PAYMENT_ACCEPTED entry", queued)
	}

	types := dispatcher.typesSeen()
	if len(types) != 2 || types[0] != events.EventPaymentAccepted || types[1] != events.EventTicketQueued {
		t.Errorf("events = %v", types)
	}
}

func TestAcceptPaymentAlreadySettled(t *testing.T) {
	svc, sph, outbox, _ := newPaymentFixture()
	sph.markPaidFn = func(ctx context.Context, tx pgx.Tx, id string, method *string) (bool, error) {
		return false, nil
	}
	sph.getByIDFn = func(ctx context.Context, id string) (*domain.SPHParticipant, error) {
		return &domain.SPHParticipant{ID: id, PaymentStatus: domain.PaymentPaid}, nil
	}

	_, err := svc.AcceptPayment(context.Background(), "sph-1", nil)
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != apperrors.CodeInvalidState {
		t.Fatalf("err = %v, want INVALID_STATE", err)
	}
	if len(outbox.entries()) != 0 {
		t.Error("rejected transition queued a ticket")
	}
}

func TestAcceptPaymentUnknownParticipant(t *testing.T) {
	svc, sph, _, _ := newPaymentFixture()
	sph.markPaidFn = func(ctx context.Context, tx pgx.Tx, id string, method *string) (bool, error) {
		return false, nil
	}

	_, err := svc.AcceptPayment(context.Background(), "missing", nil)
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != apperrors.CodeNotFound {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestAcceptPaymentConcurrentSingleWinner(t *testing.T) {
	svc, sph, outbox, _ := newPaymentFixture()

	var settled atomic.Bool
	sph.markPaidFn = func(ctx context.Context, tx pgx.Tx, id string, method *string) (bool, error) {
		return settled.CompareAndSwap(false, true), nil
	}
	sph.getByIDFn = func(ctx context.Context, id string) (*domain.SPHParticipant, error) {
		return &domain.SPHParticipant{ID: id, PaymentStatus: domain.PaymentPaid}, nil
	}

	const workers = 8
	var wg sync.WaitGroup
	var wins, losses atomic.Int32
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AcceptPayment(context.Background(), "sph-1", nil); err == nil {
				wins.Add(1)
			} else {
				losses.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("wins = %d, want exactly 1", wins.Load())
	}
	if losses.Load() != workers-1 {
		t.Errorf("losses = %d, want %d", losses.Load(), workers-1)
	}
	if len(outbox.entries()) != 1 {
		t.Errorf("outbox entries = %d, want exactly 1", len(outbox.entries()))
	}
}

func TestRejectPayment(t *testing.T) {
	svc, sph, _, dispatcher := newPaymentFixture()
	sph.markCancelledFn = func(ctx context.Context, tx pgx.Tx, id string) (bool, error) {
		return true, nil
	}
	sph.getByIDFn = func(ctx context.Context, id string) (*domain.SPHParticipant, error) {
		return &domain.SPHParticipant{ID: id, PaymentStatus: domain.PaymentCancelled}, nil
	}

	participant, err := svc.RejectPayment(context.Background(), "sph-1")
	if err != nil {
		t.Fatalf("RejectPayment: %v", err)
	}
	if participant.PaymentStatus != domain.PaymentCancelled {
		t.Errorf("status = %s, want CANCELLED", participant.PaymentStatus)
	}

	types := dispatcher.typesSeen()
	if len(types) != 1 || types[0] != events.EventPaymentRejected {
		t.Errorf("events = %v", types)
	}
}

func TestRejectPaymentAfterPaid(t *testing.T) {
	svc, sph, _, _ := newPaymentFixture()
	sph.markCancelledFn = func(ctx context.Context, tx pgx.Tx, id string) (bool, error) {
		return false, nil
	}
	sph.getByIDFn = func(ctx context.Context, id string) (*domain.SPHParticipant, error) {
		return &domain.SPHParticipant{ID: id, PaymentStatus: domain.PaymentPaid}, nil
	}

	_, err := svc.RejectPayment(context.Background(), "sph-1")
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != apperrors.CodeInvalidState {
		t.Errorf("err = %v, want INVALID_STATE", err)
	}
}

func TestResendSPHTicketRequiresPaid(t *testing.T) {
	cases := []struct {
		name     string
		status   domain.PaymentStatus
		wantCode string
	}{
		{"pending", domain.PaymentPending, apperrors.CodeInvalidState},
		{"cancelled", domain.PaymentCancelled, apperrors.CodeInvalidState},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, sph, outbox, _ := newPaymentFixture()
			sph.getByIDFn = func(ctx context.Context, id string) (*domain.SPHParticipant, error) {
				return &domain.SPHParticipant{ID: id, PaymentStatus: tc.status}, nil
			}

			_, err := svc.ResendSPHTicket(context.Background(), "sph-1")
			var domainErr *apperrors.DomainError
			if !errors.As(err, &domainErr) || domainErr.Code != tc.wantCode {
				t.Errorf("err = %v, want %s", err, tc.wantCode)
			}
			if len(outbox.entries()) != 0 {
				t.Error("unpaid resend queued a ticket")
			}
		})
	}
}

func TestResendSPHTicketPaid(t *testing.T) {
	svc, sph, outbox, _ := newPaymentFixture()
	sph.getByIDFn = func(ctx context.Context, id string) (*domain.SPHParticipant, error) {
		return &domain.SPHParticipant{ID: id, PaymentStatus: domain.PaymentPaid}, nil
	}

	entry, err := svc.ResendSPHTicket(context.Background(), "sph-1")
	if err != nil {
		t.Fatalf("ResendSPHTicket: %v", err)
	}
	if entry.Reason != domain.OutboxReasonResend {
		t.Errorf("reason = %s, want RESEND", entry.Reason)
	}
	if len(outbox.entries()) != 1 {
		t.Errorf("outbox entries = %d, want 1", len(outbox.entries()))
	}
}
