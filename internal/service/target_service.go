package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/gym-targets/internal/auth"
	"github.com/spec-kit/gym-targets/internal/domain"
	"github.com/spec-kit/gym-targets/internal/events"
	"github.com/spec-kit/gym-targets/internal/observability"
	"github.com/spec-kit/gym-targets/internal/repository"
	apperrors "github.com/spec-kit/gym-targets/pkg/util/errorutil"
)

const (
	MessageTargetApproved        = "Target approved successfully"
	MessageTargetChangeRequested = "Target sent for changes"
)

// TargetService coordinates the target approval workflow.
type TargetService struct {
	targets           repository.TargetRepository
	departmentTargets repository.DepartmentTargetRepository
	trainerTargets    repository.TrainerTargetRepository
	users             repository.UserRepository
	branches          repository.BranchRepository
	departments       repository.DepartmentRepository
	tx                repository.Transactor
	dispatcher        events.Dispatcher
	metrics           *observability.Metrics
	logger            *zap.Logger
	now               func() time.Time
}

// TargetDependencies bundles collaborators for the target service.
type TargetDependencies struct {
	TargetRepo           repository.TargetRepository
	DepartmentTargetRepo repository.DepartmentTargetRepository
	TrainerTargetRepo    repository.TrainerTargetRepository
	UserRepo             repository.UserRepository
	BranchRepo           repository.BranchRepository
	DepartmentRepo       repository.DepartmentRepository
	Transactor           repository.Transactor
	Dispatcher           events.Dispatcher
	Metrics              *observability.Metrics
	Logger               *zap.Logger
	Clock                func() time.Time
}

// DepartmentTargetInput is one department share of a target. ID is only
// meaningful on update, where it pins the entry to an existing row.
type DepartmentTargetInput struct {
	ID           *string
	DepartmentID string
	TargetValue  decimal.Decimal
}

// TargetCreateInput describes target creation payload.
type TargetCreateInput struct {
	BranchID          string
	TargetValue       decimal.Decimal
	StartDate         time.Time
	EndDate           time.Time
	CGMApproverUserID *string
	DepartmentTargets []DepartmentTargetInput
}

// TargetCreateResult is returned by CreateTargetWithDepartments.
type TargetCreateResult struct {
	Target                   *domain.Target
	DepartmentTargetsCreated int
}

// TargetQuery carries caller supplied listing predicates.
type TargetQuery struct {
	BranchID  *string
	Statuses  []domain.TargetStatus
	StartFrom *time.Time
	EndTo     *time.Time
	Limit     int
	Offset    int
}

// TargetUpdateInput is a partial edit. A nil DepartmentTargets slice leaves
// the children alone; a non-nil one (even empty) replaces the child set.
type TargetUpdateInput struct {
	TargetValue         *decimal.Decimal
	StartDate           *time.Time
	EndDate             *time.Time
	Status              *domain.TargetStatus
	CGMApproverUserID   *string
	RequestChangeReason *string
	DepartmentTargets   []DepartmentTargetInput
}

// TargetUpdateResult reports the reconciled target and what changed.
type TargetUpdateResult struct {
	Target                *domain.Target
	Created               int
	Updated               int
	Removed               int
	TrainerTargetsRemoved int64
}

// StatusTransitionInput is an approval decision.
type StatusTransitionInput struct {
	Status              domain.TargetStatus
	ChangeRequestReason *string
}

// StatusTransitionResult is returned by TransitionTargetStatus.
type StatusTransitionResult struct {
	Message string
	Status  domain.TargetStatus
}

// DepartmentRollup compares one department share with its trainer targets.
type DepartmentRollup struct {
	DepartmentTargetID string
	DepartmentID       string
	TargetValue        decimal.Decimal
	TrainerSum         decimal.Decimal
	TrainerTargetCount int
}

// TargetRollup compares a target with the sum of its department shares.
type TargetRollup struct {
	TargetID      string
	TargetValue   decimal.Decimal
	DepartmentSum decimal.Decimal
	Balanced      bool
	Departments   []DepartmentRollup
}

// NewTargetService constructs the service.
func NewTargetService(deps TargetDependencies) *TargetService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TargetService{
		targets:           deps.TargetRepo,
		departmentTargets: deps.DepartmentTargetRepo,
		trainerTargets:    deps.TrainerTargetRepo,
		users:             deps.UserRepo,
		branches:          deps.BranchRepo,
		departments:       deps.DepartmentRepo,
		tx:                deps.Transactor,
		dispatcher:        deps.Dispatcher,
		metrics:           deps.Metrics,
		logger:            logger,
		now:               clock,
	}
}

// CreateTargetWithDepartments inserts a target and its department shares in
// one transaction. The department sum is not checked against the target value.
func (s *TargetService) CreateTargetWithDepartments(ctx context.Context, caller domain.Caller, input TargetCreateInput) (*TargetCreateResult, error) {
	if err := authorize(auth.CanCreateTarget(caller)); err != nil {
		return nil, err
	}

	target := &domain.Target{
		BranchID:          input.BranchID,
		TargetValue:       input.TargetValue,
		StartDate:         input.StartDate,
		EndDate:           input.EndDate,
		Status:            domain.TargetStatusPending,
		AssignedByUserID:  caller.ID,
		CGMApproverUserID: input.CGMApproverUserID,
	}

	created := 0
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		if err := repos.Targets.Create(ctx, target); err != nil {
			return fmt.Errorf("create target: %w", err)
		}
		for _, in := range input.DepartmentTargets {
			dt := &domain.DepartmentTarget{
				TargetID:     target.ID,
				DepartmentID: in.DepartmentID,
				TargetValue:  in.TargetValue,
			}
			if err := repos.DepartmentTargets.Create(ctx, dt); err != nil {
				return fmt.Errorf("create department target for department %s: %w", in.DepartmentID, err)
			}
			target.DepartmentTargets = append(target.DepartmentTargets, *dt)
			created++
		}
		return nil
	})
	s.record("create_target", err)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTargetCreated,
		TargetID: target.ID,
		ActorID:  caller.ID,
		Payload: events.TargetCreatedPayload{
			BranchID:                 target.BranchID,
			TargetValue:              target.TargetValue,
			CGMApproverUserID:        target.CGMApproverUserID,
			DepartmentTargetsCreated: created,
		},
	})
	return &TargetCreateResult{Target: target, DepartmentTargetsCreated: created}, nil
}

// FindTargets lists the targets visible to caller, hydrated with their
// department shares, approver and branch.
func (s *TargetService) FindTargets(ctx context.Context, caller domain.Caller, query TargetQuery) ([]domain.Target, error) {
	if err := authorize(auth.Authorize(caller, auth.OpReadTargets)); err != nil {
		return nil, err
	}
	filter := repository.TargetFilter{
		BranchID:  query.BranchID,
		Statuses:  query.Statuses,
		StartFrom: query.StartFrom,
		EndTo:     query.EndTo,
		Limit:     query.Limit,
		Offset:    query.Offset,
	}
	applyVisibility(&filter, caller)

	targets, err := s.targets.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := s.hydrateTargets(ctx, targets); err != nil {
		return nil, err
	}
	return targets, nil
}

// GetTarget returns one visible target. Targets outside the caller's scope
// are reported as missing.
func (s *TargetService) GetTarget(ctx context.Context, caller domain.Caller, id string) (*domain.Target, error) {
	if err := authorize(auth.Authorize(caller, auth.OpReadTargets)); err != nil {
		return nil, err
	}
	return s.loadVisibleTarget(ctx, caller, id)
}

// UpdateTarget edits scalar fields and, when given, reconciles the
// department shares to exactly the supplied set.
func (s *TargetService) UpdateTarget(ctx context.Context, caller domain.Caller, id string, input TargetUpdateInput) (*TargetUpdateResult, error) {
	if err := authorize(auth.CanUpdateTarget(caller)); err != nil {
		return nil, err
	}
	if input.Status != nil {
		return nil, apperrors.NewValidationError("status can only be changed through the status endpoint", map[string]any{
			"field": "status",
		})
	}

	result := &TargetUpdateResult{}
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		if input.StartDate != nil || input.EndDate != nil {
			if err := checkDateRange(ctx, repos.Targets, id, input.StartDate, input.EndDate); err != nil {
				return err
			}
		}
		now := s.now()
		err := repos.Targets.Update(ctx, id, repository.TargetUpdate{
			TargetValue:         input.TargetValue,
			StartDate:           input.StartDate,
			EndDate:             input.EndDate,
			CGMApproverUserID:   input.CGMApproverUserID,
			RequestChangeReason: input.RequestChangeReason,
			UpdatedAt:           now,
		})
		if err != nil {
			return notFound(err, "target", id)
		}
		if input.DepartmentTargets == nil {
			return nil
		}
		return reconcileDepartmentTargets(ctx, repos, id, input.DepartmentTargets, now, result)
	})
	s.record("update_target", err)
	if err != nil {
		return nil, err
	}

	target, err := s.loadVisibleTarget(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	result.Target = target

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTargetUpdated,
		TargetID: id,
		ActorID:  caller.ID,
		Payload: events.TargetUpdatedPayload{
			DepartmentTargetsCreated: result.Created,
			DepartmentTargetsUpdated: result.Updated,
			DepartmentTargetsRemoved: result.Removed,
			TrainerTargetsRemoved:    result.TrainerTargetsRemoved,
		},
	})
	return result, nil
}

// checkDateRange rejects an edit whose resulting end date falls before its
// start date, filling the side the edit leaves out from the stored row.
func checkDateRange(ctx context.Context, targets repository.TargetRepository, id string, start, end *time.Time) error {
	if start == nil || end == nil {
		current, err := targets.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "target", id)
		}
		if start == nil {
			start = &current.StartDate
		}
		if end == nil {
			end = &current.EndDate
		}
	}
	if end.Before(*start) {
		return apperrors.NewValidationError("endDate must not be before startDate", map[string]any{
			"startDate": start.Format(time.DateOnly),
			"endDate":   end.Format(time.DateOnly),
		})
	}
	return nil
}

// reconcileDepartmentTargets matches incoming entries to existing rows by ID,
// or by department when no ID is given. Matched rows are updated, unmatched
// entries inserted and leftover rows deleted together with their trainer
// targets.
func reconcileDepartmentTargets(ctx context.Context, repos repository.TxRepositories, targetID string, inputs []DepartmentTargetInput, now time.Time, result *TargetUpdateResult) error {
	existing, err := repos.DepartmentTargets.ListByTargets(ctx, []string{targetID})
	if err != nil {
		return fmt.Errorf("list department targets: %w", err)
	}

	byID := make(map[string]domain.DepartmentTarget, len(existing))
	byDepartment := make(map[string][]string, len(existing))
	for _, dt := range existing {
		byID[dt.ID] = dt
		byDepartment[dt.DepartmentID] = append(byDepartment[dt.DepartmentID], dt.ID)
	}
	matched := make(map[string]bool, len(existing))

	// Explicit IDs claim their rows before any entry is matched by department,
	// so the outcome does not depend on entry order.
	matchIDs := make([]string, len(inputs))
	for i, in := range inputs {
		if in.ID == nil {
			continue
		}
		dt, ok := byID[*in.ID]
		if !ok || matched[dt.ID] {
			return apperrors.NewNotFound("department target", map[string]any{"id": *in.ID, "targetId": targetID})
		}
		if dt.DepartmentID != in.DepartmentID {
			return apperrors.NewValidationError("department target belongs to another department", map[string]any{
				"id":           dt.ID,
				"departmentId": dt.DepartmentID,
			})
		}
		matched[dt.ID] = true
		matchIDs[i] = dt.ID
	}
	for i, in := range inputs {
		if in.ID != nil {
			continue
		}
		for _, candidate := range byDepartment[in.DepartmentID] {
			if !matched[candidate] {
				matched[candidate] = true
				matchIDs[i] = candidate
				break
			}
		}
	}

	for i, in := range inputs {
		if matchID := matchIDs[i]; matchID != "" {
			if err := repos.DepartmentTargets.UpdateValue(ctx, matchID, in.TargetValue, now); err != nil {
				return fmt.Errorf("update department target %s: %w", matchID, err)
			}
			result.Updated++
			continue
		}

		dt := &domain.DepartmentTarget{TargetID: targetID, DepartmentID: in.DepartmentID, TargetValue: in.TargetValue}
		if err := repos.DepartmentTargets.Create(ctx, dt); err != nil {
			return fmt.Errorf("create department target for department %s: %w", in.DepartmentID, err)
		}
		result.Created++
	}

	var removed []string
	for _, dt := range existing {
		if !matched[dt.ID] {
			removed = append(removed, dt.ID)
		}
	}
	if len(removed) == 0 {
		return nil
	}
	trainerRemoved, err := repos.TrainerTargets.DeleteByDepartmentTargets(ctx, removed)
	if err != nil {
		return fmt.Errorf("delete trainer targets: %w", err)
	}
	deleted, err := repos.DepartmentTargets.DeleteByIDs(ctx, removed)
	if err != nil {
		return fmt.Errorf("delete department targets: %w", err)
	}
	result.TrainerTargetsRemoved = trainerRemoved
	result.Removed = int(deleted)
	return nil
}

// TransitionTargetStatus approves a target or sends it back for changes. It
// is a single write with no read of the current state, so repeating a call
// rewrites the same status.
func (s *TargetService) TransitionTargetStatus(ctx context.Context, caller domain.Caller, id string, input StatusTransitionInput) (*StatusTransitionResult, error) {
	if err := authorize(auth.CanTransitionStatus(caller)); err != nil {
		return nil, err
	}

	upd := repository.TargetStatusUpdate{Status: input.Status, UpdatedAt: s.now()}
	var message string
	switch input.Status {
	case domain.TargetStatusApproved:
		message = MessageTargetApproved
	case domain.TargetStatusChangeRequested:
		message = MessageTargetChangeRequested
		if input.ChangeRequestReason != nil && strings.TrimSpace(*input.ChangeRequestReason) != "" {
			reason := *input.ChangeRequestReason
			upd.RequestChangeReason = &reason
		}
	default:
		return nil, apperrors.NewValidationError("status must be 1 (approved) or 2 (change requested)", map[string]any{
			"status": int(input.Status),
		})
	}

	if err := s.targets.UpdateStatus(ctx, id, upd); err != nil {
		s.record("transition_status", err)
		return nil, notFound(err, "target", id)
	}
	s.metrics.RecordWorkflow("transition_status", input.Status.String())

	payload := events.TargetStatusChangedPayload{Status: input.Status, RequestChangeReason: upd.RequestChangeReason}
	if target, err := s.targets.GetByID(ctx, id); err == nil {
		payload.AssignedByUserID = target.AssignedByUserID
		payload.CGMApproverUserID = target.CGMApproverUserID
		payload.RequestChangeReason = target.RequestChangeReason
	} else {
		s.logger.Warn("reload target after status change", zap.String("target_id", id), zap.Error(err))
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTargetStatusChanged,
		TargetID: id,
		ActorID:  caller.ID,
		Payload:  payload,
	})
	return &StatusTransitionResult{Message: message, Status: input.Status}, nil
}

// DeleteTarget soft deletes a target with its department and trainer targets.
func (s *TargetService) DeleteTarget(ctx context.Context, caller domain.Caller, id string) error {
	if err := authorize(auth.CanDeleteTarget(caller)); err != nil {
		return err
	}

	var branchID string
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		target, err := repos.Targets.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "target", id)
		}
		branchID = target.BranchID

		now := s.now()
		children, err := repos.DepartmentTargets.ListByTargets(ctx, []string{id})
		if err != nil {
			return fmt.Errorf("list department targets: %w", err)
		}
		childIDs := make([]string, 0, len(children))
		for _, dt := range children {
			childIDs = append(childIDs, dt.ID)
		}
		if err := repos.TrainerTargets.SoftDeleteByDepartmentTargets(ctx, childIDs, now); err != nil {
			return fmt.Errorf("delete trainer targets: %w", err)
		}
		if err := repos.DepartmentTargets.SoftDeleteByTarget(ctx, id, now); err != nil {
			return fmt.Errorf("delete department targets: %w", err)
		}
		if err := repos.Targets.SoftDelete(ctx, id, now); err != nil {
			return notFound(err, "target", id)
		}
		return nil
	})
	s.record("delete_target", err)
	if err != nil {
		return err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTargetDeleted,
		TargetID: id,
		ActorID:  caller.ID,
		Payload:  events.TargetDeletedPayload{BranchID: branchID},
	})
	return nil
}

// GetDepartmentTarget returns a department share with its department, parent
// target (with branch) and trainer targets (with trainer).
func (s *TargetService) GetDepartmentTarget(ctx context.Context, caller domain.Caller, id string) (*domain.DepartmentTarget, error) {
	if err := authorize(auth.Authorize(caller, auth.OpReadDepartmentTarget)); err != nil {
		return nil, err
	}

	dt, err := s.departmentTargets.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "department target", id)
	}

	depts, err := s.departments.GetByIDs(ctx, []string{dt.DepartmentID})
	if err != nil {
		return nil, err
	}
	if len(depts) > 0 {
		dt.Department = &depts[0]
	}

	target, err := s.targets.GetByID(ctx, dt.TargetID)
	if err != nil {
		return nil, notFound(err, "target", dt.TargetID)
	}
	branches, err := s.branches.GetByIDs(ctx, []string{target.BranchID})
	if err != nil {
		return nil, err
	}
	if len(branches) > 0 {
		target.Branch = &branches[0]
	}
	dt.Target = target

	trainerTargets, err := s.trainerTargets.ListByDepartmentTargets(ctx, []string{dt.ID})
	if err != nil {
		return nil, err
	}
	trainerIDs := make([]string, 0, len(trainerTargets))
	for _, tt := range trainerTargets {
		trainerIDs = append(trainerIDs, tt.TrainerID)
	}
	trainers, err := s.usersByID(ctx, trainerIDs)
	if err != nil {
		return nil, err
	}
	for i := range trainerTargets {
		if u, ok := trainers[trainerTargets[i].TrainerID]; ok {
			u := u
			trainerTargets[i].Trainer = &u
		}
	}
	dt.TrainerTargets = trainerTargets
	return dt, nil
}

// GetTargetRollup reports how a visible target's value compares with the sum
// of its department shares and how each share compares with its trainer
// targets. Mismatches are reported, not rejected.
func (s *TargetService) GetTargetRollup(ctx context.Context, caller domain.Caller, id string) (*TargetRollup, error) {
	if err := authorize(auth.Authorize(caller, auth.OpReadTargets)); err != nil {
		return nil, err
	}
	target, err := s.loadVisibleTarget(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	dtIDs := make([]string, 0, len(target.DepartmentTargets))
	for _, dt := range target.DepartmentTargets {
		dtIDs = append(dtIDs, dt.ID)
	}
	trainerTargets, err := s.trainerTargets.ListByDepartmentTargets(ctx, dtIDs)
	if err != nil {
		return nil, err
	}
	sums := make(map[string]decimal.Decimal, len(dtIDs))
	counts := make(map[string]int, len(dtIDs))
	for _, tt := range trainerTargets {
		sums[tt.DepartmentTargetID] = sums[tt.DepartmentTargetID].Add(tt.TargetValue)
		counts[tt.DepartmentTargetID]++
	}

	departmentSum := target.DepartmentSum()
	rollup := &TargetRollup{
		TargetID:      target.ID,
		TargetValue:   target.TargetValue,
		DepartmentSum: departmentSum,
		Balanced:      target.TargetValue.Equal(departmentSum),
		Departments:   make([]DepartmentRollup, 0, len(target.DepartmentTargets)),
	}
	for _, dt := range target.DepartmentTargets {
		rollup.Departments = append(rollup.Departments, DepartmentRollup{
			DepartmentTargetID: dt.ID,
			DepartmentID:       dt.DepartmentID,
			TargetValue:        dt.TargetValue,
			TrainerSum:         sums[dt.ID],
			TrainerTargetCount: counts[dt.ID],
		})
	}
	return rollup, nil
}

func (s *TargetService) loadVisibleTarget(ctx context.Context, caller domain.Caller, id string) (*domain.Target, error) {
	target, err := s.targets.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "target", id)
	}
	if !auth.TargetVisibility(caller).Admits(target) {
		return nil, apperrors.NewNotFound("target", map[string]any{"id": id})
	}
	targets := []domain.Target{*target}
	if err := s.hydrateTargets(ctx, targets); err != nil {
		return nil, err
	}
	return &targets[0], nil
}

// hydrateTargets attaches department targets (with department), approver and
// branch (with departments) to every target in place.
func (s *TargetService) hydrateTargets(ctx context.Context, targets []domain.Target) error {
	if len(targets) == 0 {
		return nil
	}

	targetIDs := make([]string, 0, len(targets))
	var approverIDs, branchIDs []string
	for _, t := range targets {
		targetIDs = append(targetIDs, t.ID)
		branchIDs = append(branchIDs, t.BranchID)
		if t.CGMApproverUserID != nil {
			approverIDs = append(approverIDs, *t.CGMApproverUserID)
		}
	}

	children, err := s.departmentTargets.ListByTargets(ctx, targetIDs)
	if err != nil {
		return fmt.Errorf("load department targets: %w", err)
	}
	deptIDs := make([]string, 0, len(children))
	for _, dt := range children {
		deptIDs = append(deptIDs, dt.DepartmentID)
	}
	depts, err := s.departments.GetByIDs(ctx, uniqueStrings(deptIDs))
	if err != nil {
		return fmt.Errorf("load departments: %w", err)
	}
	deptByID := make(map[string]domain.Department, len(depts))
	for _, d := range depts {
		deptByID[d.ID] = d
	}
	childrenByTarget := make(map[string][]domain.DepartmentTarget, len(targets))
	for _, dt := range children {
		if d, ok := deptByID[dt.DepartmentID]; ok {
			d := d
			dt.Department = &d
		}
		childrenByTarget[dt.TargetID] = append(childrenByTarget[dt.TargetID], dt)
	}

	approvers, err := s.usersByID(ctx, approverIDs)
	if err != nil {
		return fmt.Errorf("load approvers: %w", err)
	}

	branchIDs = uniqueStrings(branchIDs)
	branches, err := s.branches.GetByIDs(ctx, branchIDs)
	if err != nil {
		return fmt.Errorf("load branches: %w", err)
	}
	branchDepartments, err := s.departments.ListByBranches(ctx, branchIDs)
	if err != nil {
		return fmt.Errorf("load branch departments: %w", err)
	}
	branchByID := make(map[string]domain.Branch, len(branches))
	for _, b := range branches {
		b.Departments = branchDepartments[b.ID]
		branchByID[b.ID] = b
	}

	for i := range targets {
		t := &targets[i]
		t.DepartmentTargets = childrenByTarget[t.ID]
		if t.CGMApproverUserID != nil {
			if u, ok := approvers[*t.CGMApproverUserID]; ok {
				u := u
				t.Approver = &u
			}
		}
		if b, ok := branchByID[t.BranchID]; ok {
			b := b
			t.Branch = &b
		}
	}
	return nil
}

// usersByID loads users keyed by ID with password hashes stripped.
func (s *TargetService) usersByID(ctx context.Context, ids []string) (map[string]domain.User, error) {
	ids = uniqueStrings(ids)
	if len(ids) == 0 {
		return map[string]domain.User{}, nil
	}
	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.User, len(users))
	for _, u := range users {
		u.PasswordHash = ""
		out[u.ID] = u
	}
	return out, nil
}

func (s *TargetService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.Timestamp = s.now()
	_ = s.dispatcher.Publish(ctx, event)
}

func (s *TargetService) record(operation string, err error) {
	if err != nil {
		s.metrics.RecordWorkflow(operation, "error")
		return
	}
	s.metrics.RecordWorkflow(operation, "ok")
}

func applyVisibility(filter *repository.TargetFilter, caller domain.Caller) {
	scope := auth.TargetVisibility(caller)
	if !scope.Unrestricted() {
		filter.CGMApproverUserID = scope.CGMApproverUserID
	}
}

func authorize(decision auth.Decision) error {
	if decision.Allowed {
		return nil
	}
	return apperrors.NewForbidden(decision.Reason)
}

// notFound turns a missing-row error into a NOT_FOUND naming the resource.
func notFound(err error, resource, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return err
}

func uniqueStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
