package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/gym-targets/internal/domain"
	"github.com/spec-kit/gym-targets/internal/repository"
)

func fkViolation(constraint string) error {
	return &pgconn.PgError{
		Severity:       "ERROR",
		Code:           pgerrcode.ForeignKeyViolation,
		Message:        "insert or update violates foreign key constraint",
		ConstraintName: constraint,
	}
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

type targetRepo struct {
	v *view
}

func (r *targetRepo) Create(_ context.Context, target *domain.Target) error {
	if err := r.v.store.hit(OpTargetCreate); err != nil {
		return err
	}
	now := r.v.store.now()
	return r.v.do(func(st *state) error {
		target.ID = st.nextID()
		target.CreatedAt, target.UpdatedAt = now, now
		st.targets[target.ID] = stripTarget(*target)
		return nil
	})
}

func (r *targetRepo) Update(_ context.Context, id string, upd repository.TargetUpdate) error {
	if err := r.v.store.hit(OpTargetUpdate); err != nil {
		return err
	}
	return r.v.do(func(st *state) error {
		t, ok := st.targets[id]
		if !ok || t.IsDeleted {
			return pgx.ErrNoRows
		}
		if upd.TargetValue != nil {
			t.TargetValue = *upd.TargetValue
		}
		if upd.StartDate != nil {
			t.StartDate = *upd.StartDate
		}
		if upd.EndDate != nil {
			t.EndDate = *upd.EndDate
		}
		if upd.CGMApproverUserID != nil {
			v := *upd.CGMApproverUserID
			t.CGMApproverUserID = &v
		}
		if upd.RequestChangeReason != nil {
			v := *upd.RequestChangeReason
			t.RequestChangeReason = &v
		}
		t.UpdatedAt = upd.UpdatedAt
		st.targets[id] = t
		return nil
	})
}

func (r *targetRepo) UpdateStatus(_ context.Context, id string, upd repository.TargetStatusUpdate) error {
	if err := r.v.store.hit(OpTargetUpdateStatus); err != nil {
		return err
	}
	return r.v.do(func(st *state) error {
		t, ok := st.targets[id]
		if !ok || t.IsDeleted {
			return pgx.ErrNoRows
		}
		t.Status = upd.Status
		if upd.RequestChangeReason != nil {
			v := *upd.RequestChangeReason
			t.RequestChangeReason = &v
		}
		t.UpdatedAt = upd.UpdatedAt
		st.targets[id] = t
		return nil
	})
}

func (r *targetRepo) SoftDelete(_ context.Context, id string, at time.Time) error {
	if err := r.v.store.hit(OpTargetSoftDelete); err != nil {
		return err
	}
	return r.v.do(func(st *state) error {
		t, ok := st.targets[id]
		if !ok || t.IsDeleted {
			return pgx.ErrNoRows
		}
		t.IsDeleted = true
		deletedAt := at
		t.DeletedAt = &deletedAt
		t.UpdatedAt = at
		st.targets[id] = t
		return nil
	})
}

func (r *targetRepo) GetByID(_ context.Context, id string) (*domain.Target, error) {
	var out *domain.Target
	err := r.v.do(func(st *state) error {
		t, ok := st.targets[id]
		if !ok || t.IsDeleted {
			return pgx.ErrNoRows
		}
		out = &t
		return nil
	})
	return out, err
}

func (r *targetRepo) List(_ context.Context, filter repository.TargetFilter) ([]domain.Target, error) {
	var out []domain.Target
	err := r.v.do(func(st *state) error {
		for _, t := range st.targets {
			if matchTarget(t, filter) {
				out = append(out, t)
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			if !out[i].StartDate.Equal(out[j].StartDate) {
				return out[i].StartDate.After(out[j].StartDate)
			}
			return st.order[out[i].ID] > st.order[out[j].ID]
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func matchTarget(t domain.Target, filter repository.TargetFilter) bool {
	if t.IsDeleted {
		return false
	}
	if filter.BranchID != nil && t.BranchID != *filter.BranchID {
		return false
	}
	if filter.CGMApproverUserID != nil {
		if t.CGMApproverUserID == nil || *t.CGMApproverUserID != *filter.CGMApproverUserID {
			return false
		}
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, s := range filter.Statuses {
			if s == t.Status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.StartFrom != nil && t.StartDate.Before(*filter.StartFrom) {
		return false
	}
	if filter.EndTo != nil && t.EndDate.After(*filter.EndTo) {
		return false
	}
	return true
}

func stripTarget(t domain.Target) domain.Target {
	t.DepartmentTargets = nil
	t.Approver = nil
	t.Branch = nil
	return t
}

type departmentTargetRepo struct {
	v *view
}

func (r *departmentTargetRepo) Create(_ context.Context, dt *domain.DepartmentTarget) error {
	if err := r.v.store.hit(OpDepartmentTargetCreate); err != nil {
		return err
	}
	now := r.v.store.now()
	return r.v.do(func(st *state) error {
		if _, ok := st.targets[dt.TargetID]; !ok {
			return fkViolation("department_targets_target_id_fkey")
		}
		dt.ID = st.nextID()
		dt.CreatedAt, dt.UpdatedAt = now, now
		row := *dt
		row.Department, row.Target, row.TrainerTargets = nil, nil, nil
		st.departmentTargets[dt.ID] = row
		return nil
	})
}

func (r *departmentTargetRepo) UpdateValue(_ context.Context, id string, value decimal.Decimal, at time.Time) error {
	if err := r.v.store.hit(OpDepartmentTargetUpdate); err != nil {
		return err
	}
	return r.v.do(func(st *state) error {
		dt, ok := st.departmentTargets[id]
		if !ok || dt.IsDeleted {
			return pgx.ErrNoRows
		}
		dt.TargetValue = value
		dt.UpdatedAt = at
		st.departmentTargets[id] = dt
		return nil
	})
}

func (r *departmentTargetRepo) GetByID(_ context.Context, id string) (*domain.DepartmentTarget, error) {
	var out *domain.DepartmentTarget
	err := r.v.do(func(st *state) error {
		dt, ok := st.departmentTargets[id]
		if !ok || dt.IsDeleted {
			return pgx.ErrNoRows
		}
		out = &dt
		return nil
	})
	return out, err
}

func (r *departmentTargetRepo) ListByTargets(_ context.Context, targetIDs []string) ([]domain.DepartmentTarget, error) {
	var out []domain.DepartmentTarget
	err := r.v.do(func(st *state) error {
		for _, dt := range st.departmentTargets {
			if !dt.IsDeleted && contains(targetIDs, dt.TargetID) {
				out = append(out, dt)
			}
		}
		sortByOrder(st, out, func(dt domain.DepartmentTarget) string { return dt.ID })
		return nil
	})
	return out, err
}

func (r *departmentTargetRepo) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
	if err := r.v.store.hit(OpDepartmentTargetDelete); err != nil {
		return 0, err
	}
	var n int64
	err := r.v.do(func(st *state) error {
		for _, id := range ids {
			if _, ok := st.departmentTargets[id]; ok {
				delete(st.departmentTargets, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *departmentTargetRepo) SoftDeleteByTarget(_ context.Context, targetID string, at time.Time) error {
	if err := r.v.store.hit(OpDepartmentTargetSoftDelete); err != nil {
		return err
	}
	return r.v.do(func(st *state) error {
		for id, dt := range st.departmentTargets {
			if dt.TargetID == targetID && !dt.IsDeleted {
				dt.IsDeleted = true
				dt.UpdatedAt = at
				st.departmentTargets[id] = dt
			}
		}
		return nil
	})
}

type trainerTargetRepo struct {
	v *view
}

func (r *trainerTargetRepo) Create(_ context.Context, tt *domain.TrainerTarget) error {
	if err := r.v.store.hit(OpTrainerTargetCreate); err != nil {
		return err
	}
	now := r.v.store.now()
	return r.v.do(func(st *state) error {
		if _, ok := st.departmentTargets[tt.DepartmentTargetID]; !ok {
			return fkViolation("trainer_targets_department_target_id_fkey")
		}
		tt.ID = st.nextID()
		tt.IsDeleted = false
		tt.CreatedAt, tt.UpdatedAt = now, now
		row := *tt
		row.Trainer = nil
		st.trainerTargets[tt.ID] = row
		return nil
	})
}

func (r *trainerTargetRepo) UpdateValue(_ context.Context, id string, value decimal.Decimal, at time.Time) error {
	if err := r.v.store.hit(OpTrainerTargetUpdate); err != nil {
		return err
	}
	return r.v.do(func(st *state) error {
		tt, ok := st.trainerTargets[id]
		if !ok || tt.IsDeleted {
			return pgx.ErrNoRows
		}
		tt.TargetValue = value
		tt.UpdatedAt = at
		st.trainerTargets[id] = tt
		return nil
	})
}

func (r *trainerTargetRepo) ListByDepartmentTargets(_ context.Context, departmentTargetIDs []string) ([]domain.TrainerTarget, error) {
	var out []domain.TrainerTarget
	err := r.v.do(func(st *state) error {
		for _, tt := range st.trainerTargets {
			if !tt.IsDeleted && contains(departmentTargetIDs, tt.DepartmentTargetID) {
				out = append(out, tt)
			}
		}
		sortByOrder(st, out, func(tt domain.TrainerTarget) string { return tt.ID })
		return nil
	})
	return out, err
}

func (r *trainerTargetRepo) DeleteByDepartmentTargets(_ context.Context, departmentTargetIDs []string) (int64, error) {
	if err := r.v.store.hit(OpTrainerTargetDelete); err != nil {
		return 0, err
	}
	var n int64
	err := r.v.do(func(st *state) error {
		for id, tt := range st.trainerTargets {
			if contains(departmentTargetIDs, tt.DepartmentTargetID) {
				delete(st.trainerTargets, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *trainerTargetRepo) SoftDeleteByDepartmentTargets(_ context.Context, departmentTargetIDs []string, at time.Time) error {
	if err := r.v.store.hit(OpTrainerTargetSoftDelete); err != nil {
		return err
	}
	return r.v.do(func(st *state) error {
		for id, tt := range st.trainerTargets {
			if contains(departmentTargetIDs, tt.DepartmentTargetID) && !tt.IsDeleted {
				tt.IsDeleted = true
				tt.UpdatedAt = at
				st.trainerTargets[id] = tt
			}
		}
		return nil
	})
}

type userRepo struct {
	v *view
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	var out *domain.User
	err := r.v.do(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return pgx.ErrNoRows
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	var out *domain.User
	err := r.v.do(func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, email) {
				u := u
				out = &u
				return nil
			}
		}
		return pgx.ErrNoRows
	})
	return out, err
}

func (r *userRepo) ListByIDs(_ context.Context, ids []string) ([]domain.User, error) {
	var out []domain.User
	err := r.v.do(func(st *state) error {
		for _, id := range ids {
			if u, ok := st.users[id]; ok {
				out = append(out, u)
			}
		}
		return nil
	})
	return out, err
}

type branchRepo struct {
	v *view
}

func (r *branchRepo) GetByIDs(_ context.Context, ids []string) ([]domain.Branch, error) {
	var out []domain.Branch
	err := r.v.do(func(st *state) error {
		for _, id := range ids {
			if b, ok := st.branches[id]; ok {
				out = append(out, b)
			}
		}
		return nil
	})
	return out, err
}

type departmentRepo struct {
	v *view
}

func (r *departmentRepo) GetByIDs(_ context.Context, ids []string) ([]domain.Department, error) {
	var out []domain.Department
	err := r.v.do(func(st *state) error {
		for _, id := range ids {
			if d, ok := st.departments[id]; ok {
				out = append(out, d)
			}
		}
		return nil
	})
	return out, err
}

func (r *departmentRepo) ListByBranches(_ context.Context, branchIDs []string) (map[string][]domain.Department, error) {
	out := make(map[string][]domain.Department, len(branchIDs))
	err := r.v.do(func(st *state) error {
		for _, branchID := range branchIDs {
			for _, deptID := range st.branchDepartments[branchID] {
				if d, ok := st.departments[deptID]; ok {
					out[branchID] = append(out[branchID], d)
				}
			}
		}
		return nil
	})
	return out, err
}
