package service

import (
	"context"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/gym-targets/internal/domain"
	"github.com/spec-kit/gym-targets/internal/events"
	"github.com/spec-kit/gym-targets/internal/repository/memstore"
	apperrors "github.com/spec-kit/gym-targets/pkg/util/errorutil"
)

func (f *fixture) firstDepartmentTarget(t *testing.T) domain.DepartmentTarget {
	t.Helper()
	target := f.mustCreate(t, nil, "100")
	return f.activeDepartmentTargets(target.ID)[0]
}

func TestAssignTrainerTargets_CreatesThenUpdates(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	dt := f.firstDepartmentTarget(t)

	res, err := f.trainers.AssignTrainerTargets(ctx, f.hod, AssignTrainerTargetsInput{
		DepartmentTargetID: dt.ID,
		TrainerKpiTargets: []TrainerKpiTargetsInput{{
			TrainerID:  f.trainer.ID,
			KpiTargets: []KpiTargetInput{{KpiID: "kpi-sessions", TargetValue: dec("40")}, {KpiID: "kpi-sales", TargetValue: dec("12.5")}},
		}},
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.Count)
	require.Len(t, res.Items, 2)
	for _, item := range res.Items {
		require.Equal(t, AssignmentCreated, item.Outcome)
		require.NotEmpty(t, item.TrainerTargetID)
	}

	existing := res.Items[0].TrainerTargetID
	res, err = f.trainers.AssignTrainerTargets(ctx, f.hod, AssignTrainerTargetsInput{
		DepartmentTargetID: dt.ID,
		TrainerKpiTargets: []TrainerKpiTargetsInput{{
			TrainerID:  f.trainer.ID,
			KpiTargets: []KpiTargetInput{{KpiID: "kpi-sessions", TargetValue: dec("45"), TrainerTargetID: strPtr(existing)}},
		}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	require.Equal(t, AssignmentUpdated, res.Items[0].Outcome)

	rows := f.store.TrainerTargetRows()
	require.Len(t, rows, 2)
	require.Equal(t, existing, rows[0].ID)
	require.True(t, rows[0].TargetValue.Equal(dec("45")))

	assigned := f.events.ofType(events.EventTrainerTargetsAssigned)
	require.Len(t, assigned, 2)
	require.Equal(t, dt.TargetID, assigned[0].TargetID)
	payload := assigned[1].Payload.(events.TrainerTargetsAssignedPayload)
	require.Equal(t, 1, payload.Updated)
}

func TestAssignTrainerTargets_StopsAtFirstFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	dt := f.firstDepartmentTarget(t)
	f.store.FailOn(memstore.OpTrainerTargetCreate, 2, &pgconn.PgError{
		Code:           pgerrcode.ForeignKeyViolation,
		Message:        "insert or update violates foreign key constraint",
		ConstraintName: "trainer_targets_kpi_id_fkey",
	})

	res, err := f.trainers.AssignTrainerTargets(context.Background(), f.hod, AssignTrainerTargetsInput{
		DepartmentTargetID: dt.ID,
		TrainerKpiTargets: []TrainerKpiTargetsInput{
			{TrainerID: f.trainer.ID, KpiTargets: []KpiTargetInput{{KpiID: "kpi-1", TargetValue: dec("10")}, {KpiID: "kpi-missing", TargetValue: dec("10")}}},
			{TrainerID: f.trainer.ID, KpiTargets: []KpiTargetInput{{KpiID: "kpi-3", TargetValue: dec("10")}}},
		},
	})
	require.Error(t, err)
	require.Equal(t, "INVALID_REFERENCE", apperrors.ToDomainError(err).Code)

	require.NotNil(t, res)
	require.Equal(t, 1, res.Count)
	require.Len(t, res.Items, 3)
	require.Equal(t, AssignmentCreated, res.Items[0].Outcome)
	require.Equal(t, AssignmentFailed, res.Items[1].Outcome)
	require.Equal(t, "referenced record does not exist", res.Items[1].Error)
	require.Equal(t, AssignmentSkipped, res.Items[2].Outcome)
	require.Equal(t, "kpi-3", res.Items[2].KpiID)

	// Writes before the failure are kept.
	rows := f.store.TrainerTargetRows()
	require.Len(t, rows, 1)
	require.Equal(t, "kpi-1", rows[0].KpiID)

	assigned := f.events.ofType(events.EventTrainerTargetsAssigned)
	require.Len(t, assigned, 1)
	payload := assigned[0].Payload.(events.TrainerTargetsAssignedPayload)
	require.Equal(t, events.TrainerTargetsAssignedPayload{DepartmentTargetID: dt.ID, Created: 1, Failed: 1, Skipped: 1}, payload)
}

func TestAssignTrainerTargets_UnknownTrainerTargetID(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	dt := f.firstDepartmentTarget(t)

	res, err := f.trainers.AssignTrainerTargets(context.Background(), f.hod, AssignTrainerTargetsInput{
		DepartmentTargetID: dt.ID,
		TrainerKpiTargets: []TrainerKpiTargetsInput{{
			TrainerID: f.trainer.ID,
			KpiTargets: []KpiTargetInput{
				{KpiID: "kpi-1", TargetValue: dec("1"), TrainerTargetID: strPtr("gone")},
				{KpiID: "kpi-2", TargetValue: dec("2")},
			},
		}},
	})
	requireCode(t, err, "NOT_FOUND")
	require.Zero(t, res.Count)
	require.Equal(t, AssignmentFailed, res.Items[0].Outcome)
	require.Equal(t, "gone", res.Items[0].TrainerTargetID)
	require.Equal(t, AssignmentSkipped, res.Items[1].Outcome)
	require.Empty(t, f.store.TrainerTargetRows())
	require.Empty(t, f.events.ofType(events.EventTrainerTargetsAssigned))
}

func TestAssignTrainerTargets_MissingDepartmentTarget(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res, err := f.trainers.AssignTrainerTargets(context.Background(), f.hod, AssignTrainerTargetsInput{
		DepartmentTargetID: "missing",
		TrainerKpiTargets: []TrainerKpiTargetsInput{{
			TrainerID:  f.trainer.ID,
			KpiTargets: []KpiTargetInput{{KpiID: "kpi-1", TargetValue: dec("1")}},
		}},
	})
	requireCode(t, err, "NOT_FOUND")
	require.Nil(t, res)
	require.Empty(t, f.store.TrainerTargetRows())
}

func TestAssignTrainerTargets_RequiresAuthenticatedCaller(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	dt := f.firstDepartmentTarget(t)

	_, err := f.trainers.AssignTrainerTargets(context.Background(), domain.Caller{}, AssignTrainerTargetsInput{DepartmentTargetID: dt.ID})
	requireCode(t, err, "FORBIDDEN")
}
