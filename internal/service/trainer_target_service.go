package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/gym-targets/internal/auth"
	"github.com/spec-kit/gym-targets/internal/domain"
	"github.com/spec-kit/gym-targets/internal/events"
	"github.com/spec-kit/gym-targets/internal/observability"
	"github.com/spec-kit/gym-targets/internal/repository"
	apperrors "github.com/spec-kit/gym-targets/pkg/util/errorutil"
)

// AssignmentOutcome is what happened to one (trainer, kpi) pair.
type AssignmentOutcome string

const (
	AssignmentCreated AssignmentOutcome = "created"
	AssignmentUpdated AssignmentOutcome = "updated"
	AssignmentFailed  AssignmentOutcome = "failed"
	AssignmentSkipped AssignmentOutcome = "skipped"
)

// KpiTargetInput is one KPI value for a trainer. A set TrainerTargetID
// updates that row instead of creating a new one.
type KpiTargetInput struct {
	KpiID           string
	TargetValue     decimal.Decimal
	TrainerTargetID *string
}

// TrainerKpiTargetsInput groups the KPI values of one trainer.
type TrainerKpiTargetsInput struct {
	TrainerID  string
	KpiTargets []KpiTargetInput
}

// AssignTrainerTargetsInput is the batch payload.
type AssignTrainerTargetsInput struct {
	DepartmentTargetID string
	TrainerKpiTargets  []TrainerKpiTargetsInput
}

// AssignmentItem reports the outcome of one pair.
type AssignmentItem struct {
	TrainerID       string
	KpiID           string
	TrainerTargetID string
	Outcome         AssignmentOutcome
	Error           string
}

// AssignmentResult is the per-pair report of a batch. Count is the number of
// pairs written.
type AssignmentResult struct {
	DepartmentTargetID string
	Count              int
	Items              []AssignmentItem
}

// TrainerTargetService upserts trainer targets under a department target.
type TrainerTargetService struct {
	departmentTargets repository.DepartmentTargetRepository
	trainerTargets    repository.TrainerTargetRepository
	dispatcher        events.Dispatcher
	metrics           *observability.Metrics
	logger            *zap.Logger
	now               func() time.Time
}

// TrainerTargetDependencies bundles collaborators for the service.
type TrainerTargetDependencies struct {
	DepartmentTargetRepo repository.DepartmentTargetRepository
	TrainerTargetRepo    repository.TrainerTargetRepository
	Dispatcher           events.Dispatcher
	Metrics              *observability.Metrics
	Logger               *zap.Logger
	Clock                func() time.Time
}

// NewTrainerTargetService constructs the service.
func NewTrainerTargetService(deps TrainerTargetDependencies) *TrainerTargetService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TrainerTargetService{
		departmentTargets: deps.DepartmentTargetRepo,
		trainerTargets:    deps.TrainerTargetRepo,
		dispatcher:        deps.Dispatcher,
		metrics:           deps.Metrics,
		logger:            logger,
		now:               clock,
	}
}

// AssignTrainerTargets writes every (trainer, kpi) pair in input order, each
// as its own statement. The first failure stops the batch: earlier writes
// stay, later pairs are reported as skipped, and the failure is returned
// alongside the result.
func (s *TrainerTargetService) AssignTrainerTargets(ctx context.Context, caller domain.Caller, input AssignTrainerTargetsInput) (*AssignmentResult, error) {
	if err := authorize(auth.CanAssignTrainerTargets(caller)); err != nil {
		return nil, err
	}
	dt, err := s.departmentTargets.GetByID(ctx, input.DepartmentTargetID)
	if err != nil {
		return nil, notFound(err, "department target", input.DepartmentTargetID)
	}

	result := &AssignmentResult{DepartmentTargetID: input.DepartmentTargetID}
	var firstErr error
	for _, trainer := range input.TrainerKpiTargets {
		for _, kpi := range trainer.KpiTargets {
			item := AssignmentItem{TrainerID: trainer.TrainerID, KpiID: kpi.KpiID}
			if kpi.TrainerTargetID != nil {
				item.TrainerTargetID = *kpi.TrainerTargetID
			}
			if firstErr != nil {
				item.Outcome = AssignmentSkipped
				result.Items = append(result.Items, item)
				continue
			}

			if err := s.assignOne(ctx, input.DepartmentTargetID, trainer.TrainerID, kpi, &item); err != nil {
				firstErr = err
				item.Outcome = AssignmentFailed
				item.Error = apperrors.ToDomainError(err).Message
				s.logger.Warn("trainer target assignment failed",
					zap.String("department_target_id", input.DepartmentTargetID),
					zap.String("trainer_id", trainer.TrainerID),
					zap.String("kpi_id", kpi.KpiID),
					zap.Error(err))
			} else {
				result.Count++
			}
			s.metrics.RecordWorkflow("assign_trainer_target", string(item.Outcome))
			result.Items = append(result.Items, item)
		}
	}

	if result.Count > 0 {
		s.publishEvent(ctx, caller, dt.TargetID, result)
	}
	return result, firstErr
}

func (s *TrainerTargetService) assignOne(ctx context.Context, departmentTargetID, trainerID string, kpi KpiTargetInput, item *AssignmentItem) error {
	if kpi.TrainerTargetID != nil {
		id := *kpi.TrainerTargetID
		if err := s.trainerTargets.UpdateValue(ctx, id, kpi.TargetValue, s.now()); err != nil {
			return notFound(err, "trainer target", id)
		}
		item.Outcome = AssignmentUpdated
		return nil
	}

	tt := &domain.TrainerTarget{
		DepartmentTargetID: departmentTargetID,
		TrainerID:          trainerID,
		KpiID:              kpi.KpiID,
		TargetValue:        kpi.TargetValue,
	}
	if err := s.trainerTargets.Create(ctx, tt); err != nil {
		return err
	}
	item.TrainerTargetID = tt.ID
	item.Outcome = AssignmentCreated
	return nil
}

func (s *TrainerTargetService) publishEvent(ctx context.Context, caller domain.Caller, targetID string, result *AssignmentResult) {
	if s.dispatcher == nil {
		return
	}
	payload := events.TrainerTargetsAssignedPayload{DepartmentTargetID: result.DepartmentTargetID}
	for _, item := range result.Items {
		switch item.Outcome {
		case AssignmentCreated:
			payload.Created++
		case AssignmentUpdated:
			payload.Updated++
		case AssignmentFailed:
			payload.Failed++
		case AssignmentSkipped:
			payload.Skipped++
		}
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		Type:      events.EventTrainerTargetsAssigned,
		TargetID:  targetID,
		ActorID:   caller.ID,
		Timestamp: s.now(),
		Payload:   payload,
	})
}
