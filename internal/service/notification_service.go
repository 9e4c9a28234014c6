package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/gym-targets/internal/config"
	"github.com/spec-kit/gym-targets/internal/domain"
	"github.com/spec-kit/gym-targets/internal/events"
	"github.com/spec-kit/gym-targets/internal/repository"
)

// Mail is a message handed to the external mail service.
type Mail struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Mailer delivers mails.
type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}

// LogMailer only logs the mails it is given.
type LogMailer struct {
	Logger *zap.Logger
}

// Send logs the mail.
func (m LogMailer) Send(_ context.Context, mail Mail) error {
	m.Logger.Info("mail queued",
		zap.String("from", mail.From),
		zap.String("to", mail.To),
		zap.String("subject", mail.Subject))
	return nil
}

// NotificationService mails the people a workflow event concerns.
type NotificationService struct {
	dispatcher events.Dispatcher
	users      repository.UserRepository
	mailer     Mailer
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, users repository.UserRepository, mailer Mailer, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		users:      users,
		mailer:     mailer,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTargetCreated, n.handleTargetCreated)
	n.dispatcher.Subscribe(events.EventTargetStatusChanged, n.handleTargetStatusChanged)
}

// handleTargetCreated asks the CGM approver to review the new target.
func (n *NotificationService) handleTargetCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TargetCreatedPayload)
	if !ok || payload.CGMApproverUserID == nil {
		return nil
	}
	return n.mailUser(ctx, *payload.CGMApproverUserID,
		"Target awaiting approval",
		fmt.Sprintf("Target %s for branch %s (value %s) is waiting for your approval.",
			event.TargetID, payload.BranchID, payload.TargetValue.StringFixed(2)))
}

// handleTargetStatusChanged tells the assigner about the decision.
func (n *NotificationService) handleTargetStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TargetStatusChangedPayload)
	if !ok || payload.AssignedByUserID == "" {
		return nil
	}
	switch payload.Status {
	case domain.TargetStatusApproved:
		return n.mailUser(ctx, payload.AssignedByUserID,
			"Target approved",
			fmt.Sprintf("Target %s has been approved.", event.TargetID))
	case domain.TargetStatusChangeRequested:
		body := fmt.Sprintf("Changes were requested for target %s.", event.TargetID)
		if payload.RequestChangeReason != nil {
			body += " Reason: " + *payload.RequestChangeReason
		}
		return n.mailUser(ctx, payload.AssignedByUserID, "Target changes requested", body)
	}
	return nil
}

func (n *NotificationService) mailUser(ctx context.Context, userID, subject, body string) error {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" || n.mailer == nil {
		return nil
	}
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load recipient %s: %w", userID, err)
	}
	n.logger.Debug("sending notification",
		zap.String("user_id", userID),
		zap.String("subject", subject))
	return n.mailer.Send(ctx, Mail{
		From:    n.cfg.EmailFrom,
		To:      user.Email,
		Subject: subject,
		Body:    body,
	})
}
