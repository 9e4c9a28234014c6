package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/gym-targets/internal/config"
	"github.com/spec-kit/gym-targets/internal/domain"
	"github.com/spec-kit/gym-targets/internal/events"
)

type recordingMailer struct {
	mu    sync.Mutex
	mails []Mail
}

func (m *recordingMailer) Send(_ context.Context, mail Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mails = append(m.mails, mail)
	return nil
}

func (m *recordingMailer) sent() []Mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Mail(nil), m.mails...)
}

func TestNotificationService_MailsApproverAndAssigner(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	dispatcher := events.NewInMemoryDispatcher(nil)
	mailer := &recordingMailer{}
	NewNotificationService(dispatcher, f.store.Users(), mailer, zap.NewNop(), config.NotificationConfig{EmailFrom: "targets@gym.test"}).RegisterHandlers()

	targets := NewTargetService(TargetDependencies{
		TargetRepo:           f.store.Targets(),
		DepartmentTargetRepo: f.store.DepartmentTargets(),
		TrainerTargetRepo:    f.store.TrainerTargets(),
		UserRepo:             f.store.Users(),
		BranchRepo:           f.store.Branches(),
		DepartmentRepo:       f.store.Departments(),
		Transactor:           f.store,
		Dispatcher:           dispatcher,
		Clock:                f.clock.Now,
	})

	res, err := targets.CreateTargetWithDepartments(ctx, f.admin, f.createInput(strPtr(f.cgmA.ID), "100"))
	require.NoError(t, err)
	_, err = targets.TransitionTargetStatus(ctx, f.cgmA, res.Target.ID, StatusTransitionInput{
		Status:              domain.TargetStatusChangeRequested,
		ChangeRequestReason: strPtr("raise aquatics"),
	})
	require.NoError(t, err)

	mails := mailer.sent()
	require.Len(t, mails, 2)
	require.Equal(t, "carl@gym.test", mails[0].To)
	require.Equal(t, "Target awaiting approval", mails[0].Subject)
	require.Contains(t, mails[0].Body, "100.00")
	require.Equal(t, "ada@gym.test", mails[1].To)
	require.Equal(t, "Target changes requested", mails[1].Subject)
	require.Contains(t, mails[1].Body, "Reason: raise aquatics")
	for _, m := range mails {
		require.Equal(t, "targets@gym.test", m.From)
	}
}

func TestNotificationService_SkipsWithoutSender(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	mailer := &recordingMailer{}
	svc := NewNotificationService(nil, f.store.Users(), mailer, zap.NewNop(), config.NotificationConfig{})

	err := svc.handleTargetStatusChanged(context.Background(), events.Event{
		Type:    events.EventTargetStatusChanged,
		Payload: events.TargetStatusChangedPayload{Status: domain.TargetStatusApproved, AssignedByUserID: f.admin.ID},
	})
	require.NoError(t, err)
	require.Empty(t, mailer.sent())
}
