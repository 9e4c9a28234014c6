package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/gym-targets/internal/domain"
)

// DepartmentRepository reads departments and their branch membership.
type DepartmentRepository interface {
	GetByIDs(ctx context.Context, ids []string) ([]domain.Department, error)
	ListByBranches(ctx context.Context, branchIDs []string) (map[string][]domain.Department, error)
}

type departmentRepository struct {
	db DBTX
}

// NewDepartmentRepository builds the repository.
func NewDepartmentRepository(db DBTX) DepartmentRepository {
	return &departmentRepository{db: db}
}

func (r *departmentRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Department, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `
        SELECT id, name, is_active, created_at, updated_at
        FROM departments WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDepartments(rows)
}

func (r *departmentRepository) ListByBranches(ctx context.Context, branchIDs []string) (map[string][]domain.Department, error) {
	result := make(map[string][]domain.Department, len(branchIDs))
	if len(branchIDs) == 0 {
		return result, nil
	}
	const query = `
        SELECT bd.branch_id, d.id, d.name, d.is_active, d.created_at, d.updated_at
        FROM branch_departments bd
        JOIN departments d ON d.id = bd.department_id
        WHERE bd.branch_id = ANY($1)
        ORDER BY d.name`
	rows, err := r.db.Query(ctx, query, branchIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var branchID string
		var dept domain.Department
		if err := rows.Scan(&branchID, &dept.ID, &dept.Name, &dept.IsActive, &dept.CreatedAt, &dept.UpdatedAt); err != nil {
			return nil, err
		}
		result[branchID] = append(result[branchID], dept)
	}
	return result, rows.Err()
}

func scanDepartments(rows pgx.Rows) ([]domain.Department, error) {
	var result []domain.Department
	for rows.Next() {
		var dept domain.Department
		if err := rows.Scan(&dept.ID, &dept.Name, &dept.IsActive, &dept.CreatedAt, &dept.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, dept)
	}
	return result, rows.Err()
}
