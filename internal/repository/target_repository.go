package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/gym-targets/internal/domain"
)

// TargetFilter captures listing predicates. Deleted targets are always excluded.
type TargetFilter struct {
	BranchID          *string
	CGMApproverUserID *string
	Statuses          []domain.TargetStatus
	StartFrom         *time.Time
	EndTo             *time.Time
	Limit             int
	Offset            int
}

// TargetUpdate carries the scalar fields of a partial target edit. Nil fields
// are left untouched.
type TargetUpdate struct {
	TargetValue         *decimal.Decimal
	StartDate           *time.Time
	EndDate             *time.Time
	CGMApproverUserID   *string
	RequestChangeReason *string
	UpdatedAt           time.Time
}

// TargetStatusUpdate is the payload of an approval transition. A nil reason
// keeps the stored one.
type TargetStatusUpdate struct {
	Status              domain.TargetStatus
	RequestChangeReason *string
	UpdatedAt           time.Time
}

// TargetRepository encapsulates target persistence.
type TargetRepository interface {
	Create(ctx context.Context, target *domain.Target) error
	Update(ctx context.Context, id string, upd TargetUpdate) error
	UpdateStatus(ctx context.Context, id string, upd TargetStatusUpdate) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
	GetByID(ctx context.Context, id string) (*domain.Target, error)
	List(ctx context.Context, filter TargetFilter) ([]domain.Target, error)
}

type targetRepository struct {
	db DBTX
}

// NewTargetRepository instantiates repository.
func NewTargetRepository(db DBTX) TargetRepository {
	return &targetRepository{db: db}
}

const targetColumns = `id, branch_id, target_value, start_date, end_date, status, assigned_by_user_id,
               cgm_approver_user_id, request_change_reason, is_deleted, created_at, updated_at, deleted_at`

func (r *targetRepository) Create(ctx context.Context, target *domain.Target) error {
	const query = `
        INSERT INTO targets (branch_id, target_value, start_date, end_date, status, assigned_by_user_id, cgm_approver_user_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		target.BranchID,
		target.TargetValue,
		target.StartDate,
		target.EndDate,
		target.Status,
		target.AssignedByUserID,
		target.CGMApproverUserID,
	).Scan(&target.ID, &target.CreatedAt, &target.UpdatedAt)
}

func (r *targetRepository) Update(ctx context.Context, id string, upd TargetUpdate) error {
	const query = `
        UPDATE targets SET
            target_value = COALESCE($1, target_value),
            start_date = COALESCE($2, start_date),
            end_date = COALESCE($3, end_date),
            cgm_approver_user_id = COALESCE($4, cgm_approver_user_id),
            request_change_reason = COALESCE($5, request_change_reason),
            updated_at = $6
        WHERE id=$7 AND is_deleted = FALSE`
	cmd, err := r.db.Exec(ctx, query,
		upd.TargetValue,
		upd.StartDate,
		upd.EndDate,
		upd.CGMApproverUserID,
		upd.RequestChangeReason,
		upd.UpdatedAt,
		id,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *targetRepository) UpdateStatus(ctx context.Context, id string, upd TargetStatusUpdate) error {
	const query = `
        UPDATE targets SET status=$1, request_change_reason = COALESCE($2, request_change_reason), updated_at=$3
        WHERE id=$4 AND is_deleted = FALSE`
	cmd, err := r.db.Exec(ctx, query, upd.Status, upd.RequestChangeReason, upd.UpdatedAt, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *targetRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	const query = `
        UPDATE targets SET is_deleted = TRUE, deleted_at=$1, updated_at=$1
        WHERE id=$2 AND is_deleted = FALSE`
	cmd, err := r.db.Exec(ctx, query, at, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *targetRepository) GetByID(ctx context.Context, id string) (*domain.Target, error) {
	query := `SELECT ` + targetColumns + ` FROM targets WHERE id=$1 AND is_deleted = FALSE`
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	targets, err := scanTargets(rows)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &targets[0], nil
}

func (r *targetRepository) List(ctx context.Context, filter TargetFilter) ([]domain.Target, error) {
	clauses := []string{"is_deleted = FALSE"}
	args := []any{}

	if filter.BranchID != nil {
		args = append(args, *filter.BranchID)
		clauses = append(clauses, fmt.Sprintf("branch_id=$%d", len(args)))
	}
	if filter.CGMApproverUserID != nil {
		args = append(args, *filter.CGMApproverUserID)
		clauses = append(clauses, fmt.Sprintf("cgm_approver_user_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.StartFrom != nil {
		args = append(args, *filter.StartFrom)
		clauses = append(clauses, fmt.Sprintf("start_date >= $%d", len(args)))
	}
	if filter.EndTo != nil {
		args = append(args, *filter.EndTo)
		clauses = append(clauses, fmt.Sprintf("end_date <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM targets WHERE %s ORDER BY start_date DESC, created_at DESC LIMIT %d OFFSET %d`,
		targetColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTargets(rows)
}

func scanTargets(rows pgx.Rows) ([]domain.Target, error) {
	var result []domain.Target
	for rows.Next() {
		var t domain.Target
		if err := rows.Scan(
			&t.ID,
			&t.BranchID,
			&t.TargetValue,
			&t.StartDate,
			&t.EndDate,
			&t.Status,
			&t.AssignedByUserID,
			&t.CGMApproverUserID,
			&t.RequestChangeReason,
			&t.IsDeleted,
			&t.CreatedAt,
			&t.UpdatedAt,
			&t.DeletedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}
