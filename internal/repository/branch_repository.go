package repository

import (
	"context"

	"github.com/spec-kit/gym-targets/internal/domain"
)

// BranchRepository reads gym branches.
type BranchRepository interface {
	GetByIDs(ctx context.Context, ids []string) ([]domain.Branch, error)
}

type branchRepository struct {
	db DBTX
}

// NewBranchRepository builds the repository.
func NewBranchRepository(db DBTX) BranchRepository {
	return &branchRepository{db: db}
}

func (r *branchRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Branch, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `
        SELECT id, name, created_at, updated_at
        FROM branches WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Branch
	for rows.Next() {
		var b domain.Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}
