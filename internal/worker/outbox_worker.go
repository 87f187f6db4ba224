package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/event-registration/internal/config"
	"github.com/spec-kit/event-registration/internal/domain"
	"github.com/spec-kit/event-registration/internal/mail"
	"github.com/spec-kit/event-registration/internal/repository"
	"github.com/spec-kit/event-registration/internal/ticket"
)

// Mailer is the delivery pipeline seam; tests plug a recorder in.
type Mailer interface {
	Send(ctx context.Context, msg *mail.Message) error
}

// OutboxWorker drains the ticket outbox: regenerates artifacts fresh and
// sends the email, off the request path. Rows survive process crashes,
// so a ticket queued by a committed transaction is eventually sent.
type OutboxWorker struct {
	outbox    repository.OutboxRepository
	guests    repository.GuestRepository
	sph       repository.SPHRepository
	generator *ticket.Generator
	mailer    Mailer
	cfg       config.OutboxConfig
	ticketCfg config.TicketConfig
	logger    *zap.Logger
}

// OutboxWorkerDependencies bundles collaborators for the worker.
type OutboxWorkerDependencies struct {
	OutboxRepo repository.OutboxRepository
	GuestRepo  repository.GuestRepository
	SPHRepo    repository.SPHRepository
	Generator  *ticket.Generator
	Mailer     Mailer
	Outbox     config.OutboxConfig
	Ticket     config.TicketConfig
	Logger     *zap.Logger
}

// NewOutboxWorker constructs the worker.
func NewOutboxWorker(deps OutboxWorkerDependencies) *OutboxWorker {
	return &OutboxWorker{
		outbox:    deps.OutboxRepo,
		guests:    deps.GuestRepo,
		sph:       deps.SPHRepo,
		generator: deps.Generator,
		mailer:    deps.Mailer,
		cfg:       deps.Outbox,
		ticketCfg: deps.Ticket,
		logger:    deps.Logger,
	}
}

// Start polls until the context is cancelled. Run it in its own
// goroutine from main.
func (w *OutboxWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval())
	defer ticker.Stop()

	w.logger.Info("outbox worker started",
		zap.Duration("poll_interval", w.cfg.PollInterval()),
		zap.Int("batch_size", w.cfg.BatchSize))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("outbox worker stopping")
			return
		case <-ticker.C:
			w.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch claims and processes one batch. Returns how many entries
// were handled.
func (w *OutboxWorker) ProcessBatch(ctx context.Context) int {
	entries, err := w.outbox.ClaimBatch(ctx, w.cfg.BatchSize)
	if err != nil {
		w.logger.Error("outbox claim failed", zap.Error(err))
		return 0
	}
	for i := range entries {
		w.processEntry(ctx, &entries[i])
	}
	return len(entries)
}

func (w *OutboxWorker) processEntry(ctx context.Context, entry *domain.TicketOutboxEntry) {
	logger := w.logger.With(
		zap.String("outbox_id", entry.ID),
		zap.String("track", string(entry.Track)),
		zap.String("participant_id", entry.ParticipantID),
		zap.Int("attempt", entry.Attempts))

	err := w.dispatch(ctx, entry)
	if err == nil {
		if markErr := w.outbox.MarkSent(ctx, entry.ID, time.Now()); markErr != nil {
			logger.Error("outbox mark sent failed", zap.Error(markErr))
		}
		logger.Info("ticket dispatched")
		return
	}

	var terminal *terminalError
	switch {
	case errors.As(err, &terminal):
		logger.Warn("ticket dispatch failed permanently", zap.Error(err))
		if markErr := w.outbox.MarkFailed(ctx, entry.ID, err.Error()); markErr != nil {
			logger.Error("outbox mark failed failed", zap.Error(markErr))
		}
	case entry.Attempts >= w.cfg.MaxAttempts:
		logger.Warn("ticket dispatch exhausted attempts", zap.Error(err))
		if markErr := w.outbox.MarkFailed(ctx, entry.ID, err.Error()); markErr != nil {
			logger.Error("outbox mark failed failed", zap.Error(markErr))
		}
	default:
		logger.Warn("ticket dispatch failed; will retry", zap.Error(err))
		if markErr := w.outbox.MarkRetry(ctx, entry.ID, err.Error()); markErr != nil {
			logger.Error("outbox mark retry failed", zap.Error(markErr))
		}
	}
}

func (w *OutboxWorker) dispatch(ctx context.Context, entry *domain.TicketOutboxEntry) error {
	info, email, name, err := w.loadTicketInfo(ctx, entry)
	if err != nil {
		return err
	}

	// artifacts are disposable and rebuilt per send, never read back
	// from disk, so a corrected name always reaches the next email
	artifacts, err := w.generator.Render(*info)
	if err != nil {
		return fmt.Errorf("render ticket: %w", err)
	}

	msg, err := mail.BuildTicketEmail(mail.TicketEmailData{
		EventName:    w.ticketCfg.EventName,
		Name:         info.Name,
		Code:         info.Code,
		StatusLabel:  info.StatusLabel,
		RegisteredAt: info.RegisteredAt,
		DownloadURL:  w.downloadURL(artifacts),
	}, email, name, artifacts.QRPNG, artifacts.TemplatePNG)
	if err != nil {
		return err
	}

	return w.mailer.Send(ctx, msg)
}

func (w *OutboxWorker) loadTicketInfo(ctx context.Context, entry *domain.TicketOutboxEntry) (*ticket.Info, string, string, error) {
	switch entry.Track {
	case domain.TrackGuest:
		guest, err := w.guests.GetByID(ctx, entry.ParticipantID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, "", "", terminal(fmt.Errorf("guest participant %s missing", entry.ParticipantID))
			}
			return nil, "", "", err
		}
		return &ticket.Info{
			Payload:      guest.QRPayload,
			Track:        domain.TrackGuest,
			Name:         guest.Name,
			Organization: deref(guest.Organization),
			Code:         guest.VerificationToken[:8],
			StatusLabel:  ticket.StatusLabel(domain.PaymentPaid),
			Paid:         true,
			RegisteredAt: guest.CreatedAt,
		}, guest.Email, guest.Name, nil

	case domain.TrackSPH:
		participant, err := w.sph.GetByID(ctx, entry.ParticipantID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, "", "", terminal(fmt.Errorf("sph participant %s missing", entry.ParticipantID))
			}
			return nil, "", "", err
		}
		if participant.PaymentStatus != domain.PaymentPaid {
			return nil, "", "", terminal(fmt.Errorf("sph participant %s is %s, not paid", participant.ID, participant.PaymentStatus))
		}
		return &ticket.Info{
			Payload:      ticket.SPHPayload(participant.PaymentCode),
			Track:        domain.TrackSPH,
			Name:         participant.Name,
			Organization: deref(participant.Organization),
			Code:         participant.PaymentCode,
			StatusLabel:  ticket.StatusLabel(participant.PaymentStatus),
			Paid:         true,
			RegisteredAt: participant.CreatedAt,
		}, participant.Email, participant.Name, nil
	}
	return nil, "", "", terminal(fmt.Errorf("unknown track %q", entry.Track))
}

func (w *OutboxWorker) downloadURL(artifacts *ticket.Artifacts) string {
	if w.ticketCfg.BaseURL == "" || artifacts.TemplatePath == "" {
		return ""
	}
	return w.ticketCfg.BaseURL + "/" + artifacts.TemplatePath
}

// terminalError marks failures no retry can fix.
type terminalError struct {
	err error
}

func (e *terminalError) Error() string { return e.err.Error() }
func (e *terminalError) Unwrap() error { return e.err }

func terminal(err error) error {
	return &terminalError{err: err}
}

func deref(val *string) string {
	if val == nil {
		return ""
	}
	return *val
}
