package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/gym-targets/internal/domain"
)

// DepartmentTargetRepository manages the department share of a target.
type DepartmentTargetRepository interface {
	Create(ctx context.Context, dt *domain.DepartmentTarget) error
	UpdateValue(ctx context.Context, id string, value decimal.Decimal, at time.Time) error
	GetByID(ctx context.Context, id string) (*domain.DepartmentTarget, error)
	ListByTargets(ctx context.Context, targetIDs []string) ([]domain.DepartmentTarget, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
	SoftDeleteByTarget(ctx context.Context, targetID string, at time.Time) error
}

type departmentTargetRepository struct {
	db DBTX
}

// NewDepartmentTargetRepository builds the repository.
func NewDepartmentTargetRepository(db DBTX) DepartmentTargetRepository {
	return &departmentTargetRepository{db: db}
}

func (r *departmentTargetRepository) Create(ctx context.Context, dt *domain.DepartmentTarget) error {
	const query = `
        INSERT INTO department_targets (target_id, department_id, target_value)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		dt.TargetID,
		dt.DepartmentID,
		dt.TargetValue,
	).Scan(&dt.ID, &dt.CreatedAt, &dt.UpdatedAt)
}

func (r *departmentTargetRepository) UpdateValue(ctx context.Context, id string, value decimal.Decimal, at time.Time) error {
	const query = `
        UPDATE department_targets SET target_value=$1, updated_at=$2
        WHERE id=$3 AND is_deleted = FALSE`
	cmd, err := r.db.Exec(ctx, query, value, at, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *departmentTargetRepository) GetByID(ctx context.Context, id string) (*domain.DepartmentTarget, error) {
	const query = `
        SELECT id, target_id, department_id, target_value, is_deleted, created_at, updated_at
        FROM department_targets WHERE id=$1 AND is_deleted = FALSE`
	var dt domain.DepartmentTarget
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&dt.ID,
		&dt.TargetID,
		&dt.DepartmentID,
		&dt.TargetValue,
		&dt.IsDeleted,
		&dt.CreatedAt,
		&dt.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &dt, nil
}

func (r *departmentTargetRepository) ListByTargets(ctx context.Context, targetIDs []string) ([]domain.DepartmentTarget, error) {
	if len(targetIDs) == 0 {
		return nil, nil
	}
	const query = `
        SELECT id, target_id, department_id, target_value, is_deleted, created_at, updated_at
        FROM department_targets WHERE target_id = ANY($1) AND is_deleted = FALSE
        ORDER BY created_at, id`
	rows, err := r.db.Query(ctx, query, targetIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.DepartmentTarget
	for rows.Next() {
		var dt domain.DepartmentTarget
		if err := rows.Scan(&dt.ID, &dt.TargetID, &dt.DepartmentID, &dt.TargetValue, &dt.IsDeleted, &dt.CreatedAt, &dt.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, dt)
	}
	return result, rows.Err()
}

func (r *departmentTargetRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM department_targets WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *departmentTargetRepository) SoftDeleteByTarget(ctx context.Context, targetID string, at time.Time) error {
	const query = `
        UPDATE department_targets SET is_deleted = TRUE, updated_at=$1
        WHERE target_id=$2 AND is_deleted = FALSE`
	_, err := r.db.Exec(ctx, query, at, targetID)
	return err
}
