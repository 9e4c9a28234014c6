// Package memstore is an in-memory implementation of the repository
// interfaces. Transactions work on a copy of the data that replaces the
// shared state on commit, so readers never see a half-applied transaction.
// Faults can be injected per operation to exercise rollback and partial
// failure paths.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/gym-targets/internal/domain"
	"github.com/spec-kit/gym-targets/internal/repository"
)

// Operation names accepted by FailOn.
const (
	OpTargetCreate               = "targets.create"
	OpTargetUpdate               = "targets.update"
	OpTargetUpdateStatus         = "targets.update_status"
	OpTargetSoftDelete           = "targets.soft_delete"
	OpDepartmentTargetCreate     = "department_targets.create"
	OpDepartmentTargetUpdate     = "department_targets.update_value"
	OpDepartmentTargetDelete     = "department_targets.delete"
	OpDepartmentTargetSoftDelete = "department_targets.soft_delete"
	OpTrainerTargetCreate        = "trainer_targets.create"
	OpTrainerTargetUpdate        = "trainer_targets.update_value"
	OpTrainerTargetDelete        = "trainer_targets.delete"
	OpTrainerTargetSoftDelete    = "trainer_targets.soft_delete"
)

type fault struct {
	nth int
	err error
}

type state struct {
	seq               int64
	order             map[string]int64
	targets           map[string]domain.Target
	departmentTargets map[string]domain.DepartmentTarget
	trainerTargets    map[string]domain.TrainerTarget
	users             map[string]domain.User
	branches          map[string]domain.Branch
	departments       map[string]domain.Department
	branchDepartments map[string][]string
}

func newState() *state {
	return &state{
		order:             map[string]int64{},
		targets:           map[string]domain.Target{},
		departmentTargets: map[string]domain.DepartmentTarget{},
		trainerTargets:    map[string]domain.TrainerTarget{},
		users:             map[string]domain.User{},
		branches:          map[string]domain.Branch{},
		departments:       map[string]domain.Department{},
		branchDepartments: map[string][]string{},
	}
}

func (s *state) clone() *state {
	c := &state{
		seq:               s.seq,
		order:             make(map[string]int64, len(s.order)),
		targets:           make(map[string]domain.Target, len(s.targets)),
		departmentTargets: make(map[string]domain.DepartmentTarget, len(s.departmentTargets)),
		trainerTargets:    make(map[string]domain.TrainerTarget, len(s.trainerTargets)),
		users:             s.users,
		branches:          s.branches,
		departments:       s.departments,
		branchDepartments: s.branchDepartments,
	}
	for k, v := range s.order {
		c.order[k] = v
	}
	for k, v := range s.targets {
		c.targets[k] = v
	}
	for k, v := range s.departmentTargets {
		c.departmentTargets[k] = v
	}
	for k, v := range s.trainerTargets {
		c.trainerTargets[k] = v
	}
	return c
}

func (s *state) nextID() string {
	id := uuid.NewString()
	s.seq++
	s.order[id] = s.seq
	return id
}

// Store holds the data and hands out repositories over it.
type Store struct {
	mu      sync.Mutex
	data    *state
	faultMu sync.Mutex
	faults  map[string]fault
	calls   map[string]int
	now     func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		data:   newState(),
		faults: map[string]fault{},
		calls:  map[string]int{},
		now:    time.Now,
	}
}

// SetClock overrides the clock used for created_at/updated_at stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// FailOn makes the nth call (1-based) of op return err. Calls are counted
// across transactional and plain repositories.
func (s *Store) FailOn(op string, nth int, err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults[op] = fault{nth: nth, err: err}
	s.calls[op] = 0
}

func (s *Store) hit(op string) error {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.calls[op]++
	f, ok := s.faults[op]
	if ok && s.calls[op] == f.nth {
		return f.err
	}
	return nil
}

// WithinTx runs fn against a private copy of the data. The copy replaces the
// shared state only if fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepositories) error) error {
	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	v := &view{store: s, tx: snapshot}
	if err := fn(ctx, repository.TxRepositories{
		Targets:           &targetRepo{v: v},
		DepartmentTargets: &departmentTargetRepo{v: v},
		TrainerTargets:    &trainerTargetRepo{v: v},
	}); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = snapshot
	s.mu.Unlock()
	return nil
}

func (s *Store) plain() *view {
	return &view{store: s}
}

// Targets returns the non-transactional target repository.
func (s *Store) Targets() repository.TargetRepository {
	return &targetRepo{v: s.plain()}
}

// DepartmentTargets returns the non-transactional department target repository.
func (s *Store) DepartmentTargets() repository.DepartmentTargetRepository {
	return &departmentTargetRepo{v: s.plain()}
}

// TrainerTargets returns the non-transactional trainer target repository.
func (s *Store) TrainerTargets() repository.TrainerTargetRepository {
	return &trainerTargetRepo{v: s.plain()}
}

// Users returns the user repository.
func (s *Store) Users() repository.UserRepository {
	return &userRepo{v: s.plain()}
}

// Branches returns the branch repository.
func (s *Store) Branches() repository.BranchRepository {
	return &branchRepo{v: s.plain()}
}

// Departments returns the department repository.
func (s *Store) Departments() repository.DepartmentRepository {
	return &departmentRepo{v: s.plain()}
}

// AddUser seeds a user and returns it with its ID filled in.
func (s *Store) AddUser(user domain.User) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == "" {
		user.ID = s.data.nextID()
	}
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	s.data.users[user.ID] = user
	return user
}

// AddDepartment seeds a department.
func (s *Store) AddDepartment(dept domain.Department) domain.Department {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dept.ID == "" {
		dept.ID = s.data.nextID()
	}
	now := s.now()
	dept.CreatedAt, dept.UpdatedAt = now, now
	s.data.departments[dept.ID] = dept
	return dept
}

// AddBranch seeds a branch and links the given departments to it.
func (s *Store) AddBranch(branch domain.Branch, departmentIDs ...string) domain.Branch {
	s.mu.Lock()
	defer s.mu.Unlock()
	if branch.ID == "" {
		branch.ID = s.data.nextID()
	}
	now := s.now()
	branch.CreatedAt, branch.UpdatedAt = now, now
	branch.Departments = nil
	s.data.branches[branch.ID] = branch
	s.data.branchDepartments[branch.ID] = append([]string(nil), departmentIDs...)
	return branch
}

// TargetRows returns every stored target, deleted ones included.
func (s *Store) TargetRows() []domain.Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Target, 0, len(s.data.targets))
	for _, t := range s.data.targets {
		out = append(out, t)
	}
	sortByOrder(s.data, out, func(t domain.Target) string { return t.ID })
	return out
}

// DepartmentTargetRows returns every stored department target, deleted ones included.
func (s *Store) DepartmentTargetRows() []domain.DepartmentTarget {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.DepartmentTarget, 0, len(s.data.departmentTargets))
	for _, dt := range s.data.departmentTargets {
		out = append(out, dt)
	}
	sortByOrder(s.data, out, func(dt domain.DepartmentTarget) string { return dt.ID })
	return out
}

// TrainerTargetRows returns every stored trainer target, deleted ones included.
func (s *Store) TrainerTargetRows() []domain.TrainerTarget {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.TrainerTarget, 0, len(s.data.trainerTargets))
	for _, tt := range s.data.trainerTargets {
		out = append(out, tt)
	}
	sortByOrder(s.data, out, func(tt domain.TrainerTarget) string { return tt.ID })
	return out
}

func sortByOrder[T any](st *state, items []T, id func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return st.order[id(items[i])] < st.order[id(items[j])]
	})
}

// view binds repositories either to a transaction snapshot or to the shared
// state guarded by the store mutex.
type view struct {
	store *Store
	tx    *state
}

func (v *view) do(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.data)
}

var _ repository.Transactor = (*Store)(nil)
