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

// GuestFilter captures admin listing parameters.
type GuestFilter struct {
	AttendanceStatus *domain.AttendanceStatus
	SearchTerm       *string
	Limit            int
	Offset           int
}

// GuestRepository encapsulates Guest-track participant persistence.
type GuestRepository interface {
	Create(ctx context.Context, tx pgx.Tx, p *domain.Participant) error
	GetByID(ctx context.Context, id string) (*domain.Participant, error)
	FindByEmailOrPhone(ctx context.Context, email, phone string) (*domain.Participant, error)
	GetByPayload(ctx context.Context, payload string) (*domain.Participant, error)
	CheckIn(ctx context.Context, id string, at time.Time) (bool, error)
	List(ctx context.Context, filter GuestFilter) ([]domain.Participant, error)
	Counts(ctx context.Context) (total, present int64, err error)
}

type guestRepository struct {
	pool *pgxpool.Pool
}

// NewGuestRepository instantiates repository.
func NewGuestRepository(pool *pgxpool.Pool) GuestRepository {
	return &guestRepository{pool: pool}
}

const guestColumns = `id, name, email, phone, organization, verification_token, qr_payload,
               attendance_status, is_verified, checked_in_at, created_at, updated_at`

func (r *guestRepository) Create(ctx context.Context, tx pgx.Tx, p *domain.Participant) error {
	const query = `
        INSERT INTO participants (id, name, email, phone, organization, verification_token, qr_payload, attendance_status, is_verified)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING created_at, updated_at`
	return tx.QueryRow(ctx, query,
		p.ID,
		p.Name,
		p.Email,
		p.Phone,
		p.Organization,
		p.VerificationToken,
		p.QRPayload,
		p.AttendanceStatus,
		p.IsVerified,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *guestRepository) GetByID(ctx context.Context, id string) (*domain.Participant, error) {
	query := fmt.Sprintf(`SELECT %s FROM participants WHERE id=$1`, guestColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *guestRepository) FindByEmailOrPhone(ctx context.Context, email, phone string) (*domain.Participant, error) {
	query := fmt.Sprintf(`SELECT %s FROM participants WHERE LOWER(email)=LOWER($1) OR phone=$2`, guestColumns)
	var p domain.Participant
	if err := r.scanOne(r.pool.QueryRow(ctx, query, email, phone), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByPayload resolves a scanned code against either the persisted
// payload or the bare verification token.
func (r *guestRepository) GetByPayload(ctx context.Context, payload string) (*domain.Participant, error) {
	query := fmt.Sprintf(`SELECT %s FROM participants WHERE qr_payload=$1 OR verification_token=$1`, guestColumns)
	return r.fetchSingle(ctx, query, payload)
}

// CheckIn flips attendance exactly once; the WHERE guard makes concurrent
// scans race to a single winner.
func (r *guestRepository) CheckIn(ctx context.Context, id string, at time.Time) (bool, error) {
	const query = `
        UPDATE participants
        SET attendance_status=$2, checked_in_at=$3, updated_at=NOW()
        WHERE id=$1 AND checked_in_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, id, domain.AttendancePresent, at)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *guestRepository) List(ctx context.Context, filter GuestFilter) ([]domain.Participant, error) {
	base := fmt.Sprintf(`SELECT %s FROM participants`, guestColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.AttendanceStatus != nil {
		args = append(args, *filter.AttendanceStatus)
		clauses = append(clauses, fmt.Sprintf("attendance_status=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(name) LIKE %s OR LOWER(email) LIKE %s)", placeholder, placeholder))
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

func (r *guestRepository) Counts(ctx context.Context) (int64, int64, error) {
	const query = `
        SELECT COUNT(*), COUNT(*) FILTER (WHERE attendance_status=$1)
        FROM participants`
	var total, present int64
	if err := r.pool.QueryRow(ctx, query, domain.AttendancePresent).Scan(&total, &present); err != nil {
		return 0, 0, err
	}
	return total, present, nil
}

func (r *guestRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Participant, error) {
	var p domain.Participant
	if err := r.scanOne(r.pool.QueryRow(ctx, query, arg), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *guestRepository) scanOne(row pgx.Row, p *domain.Participant) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.Phone,
		&p.Organization,
		&p.VerificationToken,
		&p.QRPayload,
		&p.AttendanceStatus,
		&p.IsVerified,
		&p.CheckedInAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

func (r *guestRepository) scanMany(rows pgx.Rows) ([]domain.Participant, error) {
	var result []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := r.scanOne(rows, &p); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
