package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/gym-targets/internal/domain"
)

// TrainerTargetRepository manages per-trainer KPI targets.
type TrainerTargetRepository interface {
	Create(ctx context.Context, tt *domain.TrainerTarget) error
	UpdateValue(ctx context.Context, id string, value decimal.Decimal, at time.Time) error
	ListByDepartmentTargets(ctx context.Context, departmentTargetIDs []string) ([]domain.TrainerTarget, error)
	DeleteByDepartmentTargets(ctx context.Context, departmentTargetIDs []string) (int64, error)
	SoftDeleteByDepartmentTargets(ctx context.Context, departmentTargetIDs []string, at time.Time) error
}

type trainerTargetRepository struct {
	db DBTX
}

// NewTrainerTargetRepository builds the repository.
func NewTrainerTargetRepository(db DBTX) TrainerTargetRepository {
	return &trainerTargetRepository{db: db}
}

func (r *trainerTargetRepository) Create(ctx context.Context, tt *domain.TrainerTarget) error {
	const query = `
        INSERT INTO trainer_targets (department_target_id, trainer_id, kpi_id, target_value, is_deleted)
        VALUES ($1,$2,$3,$4,FALSE)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		tt.DepartmentTargetID,
		tt.TrainerID,
		tt.KpiID,
		tt.TargetValue,
	).Scan(&tt.ID, &tt.CreatedAt, &tt.UpdatedAt)
}

func (r *trainerTargetRepository) UpdateValue(ctx context.Context, id string, value decimal.Decimal, at time.Time) error {
	const query = `
        UPDATE trainer_targets SET target_value=$1, updated_at=$2
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

func (r *trainerTargetRepository) ListByDepartmentTargets(ctx context.Context, departmentTargetIDs []string) ([]domain.TrainerTarget, error) {
	if len(departmentTargetIDs) == 0 {
		return nil, nil
	}
	const query = `
        SELECT id, department_target_id, trainer_id, kpi_id, target_value, is_deleted, created_at, updated_at
        FROM trainer_targets WHERE department_target_id = ANY($1) AND is_deleted = FALSE
        ORDER BY created_at, id`
	rows, err := r.db.Query(ctx, query, departmentTargetIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TrainerTarget
	for rows.Next() {
		var tt domain.TrainerTarget
		if err := rows.Scan(
			&tt.ID,
			&tt.DepartmentTargetID,
			&tt.TrainerID,
			&tt.KpiID,
			&tt.TargetValue,
			&tt.IsDeleted,
			&tt.CreatedAt,
			&tt.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, tt)
	}
	return result, rows.Err()
}

func (r *trainerTargetRepository) DeleteByDepartmentTargets(ctx context.Context, departmentTargetIDs []string) (int64, error) {
	if len(departmentTargetIDs) == 0 {
		return 0, nil
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM trainer_targets WHERE department_target_id = ANY($1)`, departmentTargetIDs)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *trainerTargetRepository) SoftDeleteByDepartmentTargets(ctx context.Context, departmentTargetIDs []string, at time.Time) error {
	if len(departmentTargetIDs) == 0 {
		return nil
	}
	const query = `
        UPDATE trainer_targets SET is_deleted = TRUE, updated_at=$1
        WHERE department_target_id = ANY($2) AND is_deleted = FALSE`
	_, err := r.db.Exec(ctx, query, at, departmentTargetIDs)
	return err
}
