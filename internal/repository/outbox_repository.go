package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/event-registration/internal/domain"
)

// OutboxRepository persists durable ticket-email tasks. Enqueue takes the
// caller's transaction so the task commits atomically with the state
// change that triggered it.
type OutboxRepository interface {
	Enqueue(ctx context.Context, tx pgx.Tx, entry *domain.TicketOutboxEntry) error
	ClaimBatch(ctx context.Context, limit int) ([]domain.TicketOutboxEntry, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkRetry(ctx context.Context, id string, sendErr string) error
	MarkFailed(ctx context.Context, id string, sendErr string) error
}

type outboxRepository struct {
	pool *pgxpool.Pool
}

// NewOutboxRepository instantiates repository.
func NewOutboxRepository(pool *pgxpool.Pool) OutboxRepository {
	return &outboxRepository{pool: pool}
}

func (r *outboxRepository) Enqueue(ctx context.Context, tx pgx.Tx, entry *domain.TicketOutboxEntry) error {
	const query = `
        INSERT INTO ticket_outbox (id, track, participant_id, reason, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at, updated_at`
	return tx.QueryRow(ctx, query,
		entry.ID,
		entry.Track,
		entry.ParticipantID,
		entry.Reason,
		entry.Status,
	).Scan(&entry.CreatedAt, &entry.UpdatedAt)
}

// ClaimBatch atomically moves a batch of pending entries to SENDING so a
// second worker instance cannot pick them up. SKIP LOCKED keeps claimers
// from serializing on each other.
func (r *outboxRepository) ClaimBatch(ctx context.Context, limit int) ([]domain.TicketOutboxEntry, error) {
	const query = `
        UPDATE ticket_outbox
        SET status=$1, attempts=attempts+1, updated_at=NOW()
        WHERE id IN (
            SELECT id FROM ticket_outbox
            WHERE status=$2
            ORDER BY created_at
            LIMIT $3
            FOR UPDATE SKIP LOCKED
        )
        RETURNING id, track, participant_id, reason, status, attempts, last_error, created_at, updated_at, sent_at`
	rows, err := r.pool.Query(ctx, query, domain.OutboxSending, domain.OutboxPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.TicketOutboxEntry
	for rows.Next() {
		var e domain.TicketOutboxEntry
		if err := rows.Scan(
			&e.ID,
			&e.Track,
			&e.ParticipantID,
			&e.Reason,
			&e.Status,
			&e.Attempts,
			&e.LastError,
			&e.CreatedAt,
			&e.UpdatedAt,
			&e.SentAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *outboxRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	const query = `
        UPDATE ticket_outbox
        SET status=$2, sent_at=$3, last_error=NULL, updated_at=NOW()
        WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id, domain.OutboxSent, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// MarkRetry returns the entry to the pending pool for the next poll.
func (r *outboxRepository) MarkRetry(ctx context.Context, id string, sendErr string) error {
	const query = `
        UPDATE ticket_outbox
        SET status=$2, last_error=$3, updated_at=NOW()
        WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id, domain.OutboxPending, sendErr)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// MarkFailed parks the entry permanently; an operator can requeue via the
// resend endpoint.
func (r *outboxRepository) MarkFailed(ctx context.Context, id string, sendErr string) error {
	const query = `
        UPDATE ticket_outbox
        SET status=$2, last_error=$3, updated_at=NOW()
        WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id, domain.OutboxFailed, sendErr)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
