package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/gym-targets/internal/domain"
	"github.com/spec-kit/gym-targets/internal/events"
	"github.com/spec-kit/gym-targets/internal/repository/memstore"
	apperrors "github.com/spec-kit/gym-targets/pkg/util/errorutil"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func (l *eventLog) handle(_ context.Context, e events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return nil
}

func (l *eventLog) ofType(t events.EventType) []events.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []events.Event
	for _, e := range l.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	store    *memstore.Store
	clock    *fakeClock
	events   *eventLog
	targets  *TargetService
	trainers *TrainerTargetService

	admin   domain.Caller
	cgmA    domain.Caller
	cgmB    domain.Caller
	hod     domain.Caller
	trainer domain.User

	branch domain.Branch
	deptA  domain.Department
	deptB  domain.Department
	deptC  domain.Department
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := memstore.New()
	store.SetClock(clock.Now)

	log := &eventLog{}
	dispatcher := events.NewInMemoryDispatcher(nil)
	for _, et := range events.AllEventTypes {
		dispatcher.Subscribe(et, log.handle)
	}

	f := &fixture{store: store, clock: clock, events: log}

	admin := store.AddUser(domain.User{Name: "Ada Admin", Email: "ada@gym.test", PasswordHash: "x", Permissions: []string{domain.PermissionAdmin}, Active: true})
	cgmA := store.AddUser(domain.User{Name: "Carl CGM", Email: "carl@gym.test", PasswordHash: "x", Permissions: []string{domain.PermissionCGM}, Active: true})
	cgmB := store.AddUser(domain.User{Name: "Cora CGM", Email: "cora@gym.test", PasswordHash: "x", Permissions: []string{domain.PermissionCGM}, Active: true})
	hod := store.AddUser(domain.User{Name: "Hal HOD", Email: "hal@gym.test", PasswordHash: "x", Permissions: []string{domain.PermissionHOD}, Active: true})
	f.trainer = store.AddUser(domain.User{Name: "Tia Trainer", Email: "tia@gym.test", PasswordHash: "x", Active: true})
	f.admin = domain.Caller{ID: admin.ID, Permissions: admin.Permissions}
	f.cgmA = domain.Caller{ID: cgmA.ID, Permissions: cgmA.Permissions}
	f.cgmB = domain.Caller{ID: cgmB.ID, Permissions: cgmB.Permissions}
	f.hod = domain.Caller{ID: hod.ID, Permissions: hod.Permissions}

	f.deptA = store.AddDepartment(domain.Department{Name: "Personal Training", IsActive: true})
	f.deptB = store.AddDepartment(domain.Department{Name: "Group Classes", IsActive: true})
	f.deptC = store.AddDepartment(domain.Department{Name: "Aquatics", IsActive: true})
	f.branch = store.AddBranch(domain.Branch{Name: "Downtown"}, f.deptA.ID, f.deptB.ID, f.deptC.ID)

	f.targets = NewTargetService(TargetDependencies{
		TargetRepo:           store.Targets(),
		DepartmentTargetRepo: store.DepartmentTargets(),
		TrainerTargetRepo:    store.TrainerTargets(),
		UserRepo:             store.Users(),
		BranchRepo:           store.Branches(),
		DepartmentRepo:       store.Departments(),
		Transactor:           store,
		Dispatcher:           dispatcher,
		Clock:                clock.Now,
	})
	f.trainers = NewTrainerTargetService(TrainerTargetDependencies{
		DepartmentTargetRepo: store.DepartmentTargets(),
		TrainerTargetRepo:    store.TrainerTargets(),
		Dispatcher:           dispatcher,
		Clock:                clock.Now,
	})
	return f
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func strPtr(s string) *string {
	return &s
}

func (f *fixture) createInput(approver *string, values ...string) TargetCreateInput {
	depts := []domain.Department{f.deptA, f.deptB, f.deptC}
	input := TargetCreateInput{
		BranchID:          f.branch.ID,
		TargetValue:       decimal.Zero,
		StartDate:         time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:           time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		CGMApproverUserID: approver,
	}
	for i, v := range values {
		input.TargetValue = input.TargetValue.Add(dec(v))
		input.DepartmentTargets = append(input.DepartmentTargets, DepartmentTargetInput{
			DepartmentID: depts[i%len(depts)].ID,
			TargetValue:  dec(v),
		})
	}
	return input
}

func (f *fixture) mustCreate(t *testing.T, approver *string, values ...string) *domain.Target {
	t.Helper()
	res, err := f.targets.CreateTargetWithDepartments(context.Background(), f.admin, f.createInput(approver, values...))
	require.NoError(t, err)
	return res.Target
}

func (f *fixture) targetRow(t *testing.T, id string) domain.Target {
	t.Helper()
	for _, row := range f.store.TargetRows() {
		if row.ID == id {
			return row
		}
	}
	t.Fatalf("target %s not stored", id)
	return domain.Target{}
}

func (f *fixture) activeDepartmentTargets(targetID string) []domain.DepartmentTarget {
	var out []domain.DepartmentTarget
	for _, row := range f.store.DepartmentTargetRows() {
		if row.TargetID == targetID && !row.IsDeleted {
			out = append(out, row)
		}
	}
	return out
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr), "expected DomainError, got %T: %v", err, err)
	require.Equal(t, code, domainErr.Code)
}
