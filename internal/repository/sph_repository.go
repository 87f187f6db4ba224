package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/event-registration/internal/domain"
)

// SPHFilter captures admin listing parameters for the workshop track.
type SPHFilter struct {
	PaymentStatus *domain.PaymentStatus
	SearchTerm    *string
	Limit         int
	Offset        int
}

// SPHRepository encapsulates Workshop-track participant persistence.
type SPHRepository interface {
	Create(ctx context.Context, tx pgx.Tx, p *domain.SPHParticipant) error
	GetByID(ctx context.Context, id string) (*domain.SPHParticipant, error)
	FindByEmailOrPhone(ctx context.Context, email, phone string) (*domain.SPHParticipant, error)
	GetByPaymentCode(ctx context.Context, code string) (*domain.SPHParticipant, error)
	MarkPaid(ctx context.Context, tx pgx.Tx, id string, method *string) (bool, error)
	MarkCancelled(ctx context.Context, tx pgx.Tx, id string) (bool, error)
	CheckIn(ctx context.Context, id string, at time.Time, marker string) (bool, error)
	List(ctx context.Context, filter SPHFilter) ([]domain.SPHParticipant, error)
	Counts(ctx context.Context) (total, paid, present int64, err error)
}

type sphRepository struct {
	pool *pgxpool.Pool
}

// NewSPHRepository instantiates repository.
func NewSPHRepository(pool *pgxpool.Pool) SPHRepository {
	return &sphRepository{pool: pool}
}

const sphColumns = `id, name, email, phone, organization, experience_level, amount,
               payment_code, payment_status, payment_method, notes, checked_in_at, created_at, updated_at`

func (r *sphRepository) Create(ctx context.Context, tx pgx.Tx, p *domain.SPHParticipant) error {
	const query = `
        INSERT INTO sph_participants (id, name, email, phone, organization, experience_level, amount, payment_code, payment_status, payment_method, notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING created_at, updated_at`
	return tx.QueryRow(ctx, query,
		p.ID,
		p.Name,
		p.Email,
		p.Phone,
		p.Organization,
		p.ExperienceLevel,
		p.Amount,
		p.PaymentCode,
		p.PaymentStatus,
		p.PaymentMethod,
		p.Notes,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *sphRepository) GetByID(ctx context.Context, id string) (*domain.SPHParticipant, error) {
	query := fmt.Sprintf(`SELECT %s FROM sph_participants WHERE id=$1`, sphColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *sphRepository) FindByEmailOrPhone(ctx context.Context, email, phone string) (*domain.SPHParticipant, error) {
	query := fmt.Sprintf(`SELECT %s FROM sph_participants WHERE LOWER(email)=LOWER($1) OR phone=$2`, sphColumns)
	var p domain.SPHParticipant
	if err := r.scanOne(r.pool.QueryRow(ctx, query, email, phone), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *sphRepository) GetByPaymentCode(ctx context.Context, code string) (*domain.SPHParticipant, error) {
	query := fmt.Sprintf(`SELECT %s FROM sph_participants WHERE payment_code=$1`, sphColumns)
	return r.fetchSingle(ctx, query, code)
}

// MarkPaid is the pending→paid compare-and-swap. Two concurrent accepts
// race to exactly one affected row.
func (r *sphRepository) MarkPaid(ctx context.Context, tx pgx.Tx, id string, method *string) (bool, error) {
	const query = `
        UPDATE sph_participants
        SET payment_status=$2, payment_method=COALESCE($3, payment_method), updated_at=NOW()
        WHERE id=$1 AND payment_status=$4`
	cmd, err := tx.Exec(ctx, query, id, domain.PaymentPaid, method, domain.PaymentPending)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

// MarkCancelled is the pending→cancelled compare-and-swap.
func (r *sphRepository) MarkCancelled(ctx context.Context, tx pgx.Tx, id string) (bool, error) {
	const query = `
        UPDATE sph_participants
        SET payment_status=$2, updated_at=NOW()
        WHERE id=$1 AND payment_status=$3`
	cmd, err := tx.Exec(ctx, query, id, domain.PaymentCancelled, domain.PaymentPending)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

// CheckIn records attendance once and appends the human-readable marker
// the committee reads in the CMS notes field.
func (r *sphRepository) CheckIn(ctx context.Context, id string, at time.Time, marker string) (bool, error) {
	const query = `
        UPDATE sph_participants
        SET checked_in_at=$2,
            notes=CASE WHEN notes='' THEN $3 ELSE notes || E'\n' || $3 END,
            updated_at=NOW()
        WHERE id=$1 AND checked_in_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, id, at, marker)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *sphRepository) List(ctx context.Context, filter SPHFilter) ([]domain.SPHParticipant, error) {
	base := fmt.Sprintf(`SELECT %s FROM sph_participants`, sphColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.PaymentStatus != nil {
		args = append(args, *filter.PaymentStatus)
		clauses = append(clauses, fmt.Sprintf("payment_status=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(name) LIKE %s OR LOWER(email) LIKE %s OR payment_code LIKE %s)", placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanMany(rows)
}

func (r *sphRepository) Counts(ctx context.Context) (int64, int64, int64, error) {
	const query = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE payment_status=$1),
               COUNT(*) FILTER (WHERE checked_in_at IS NOT NULL)
        FROM sph_participants`
	var total, paid, present int64
	if err := r.pool.QueryRow(ctx, query, domain.PaymentPaid).Scan(&total, &paid, &present); err != nil {
		return 0, 0, 0, err
	}
	return total, paid, present, nil
}

func (r *sphRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.SPHParticipant, error) {
	var p domain.SPHParticipant
	if err := r.scanOne(r.pool.QueryRow(ctx, query, arg), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *sphRepository) scanOne(row pgx.Row, p *domain.SPHParticipant) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.Phone,
		&p.Organization,
		&p.ExperienceLevel,
		&p.Amount,
		&p.PaymentCode,
		&p.PaymentStatus,
		&p.PaymentMethod,
		&p.Notes,
		&p.CheckedInAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

func (r *sphRepository) scanMany(rows pgx.Rows) ([]domain.SPHParticipant, error) {
	var result []domain.SPHParticipant
	for rows.Next() {
		var p domain.SPHParticipant
		if err := r.scanOne(rows, &p); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
