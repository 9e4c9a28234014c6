package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/gym-targets/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTargetCreated          EventType = "target.created"
	EventTargetUpdated          EventType = "target.updated"
	EventTargetStatusChanged    EventType = "target.status_changed"
	EventTargetDeleted          EventType = "target.deleted"
	EventTrainerTargetsAssigned EventType = "trainer_targets.assigned"
)

// AllEventTypes lists every event the workflow emits.
var AllEventTypes = []EventType{
	EventTargetCreated,
	EventTargetUpdated,
	EventTargetStatusChanged,
	EventTargetDeleted,
	EventTrainerTargetsAssigned,
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TargetID  string      `json:"targetId,omitempty"`
	ActorID   string      `json:"actorId"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TargetCreatedPayload payload.
type TargetCreatedPayload struct {
	BranchID                 string          `json:"branchId"`
	TargetValue              decimal.Decimal `json:"targetValue"`
	CGMApproverUserID        *string         `json:"cgmApproverUserId,omitempty"`
	DepartmentTargetsCreated int             `json:"departmentTargetsCreated"`
}

// TargetUpdatedPayload payload.
type TargetUpdatedPayload struct {
	DepartmentTargetsCreated int   `json:"departmentTargetsCreated"`
	DepartmentTargetsUpdated int   `json:"departmentTargetsUpdated"`
	DepartmentTargetsRemoved int   `json:"departmentTargetsRemoved"`
	TrainerTargetsRemoved    int64 `json:"trainerTargetsRemoved"`
}

// TargetStatusChangedPayload payload.
type TargetStatusChangedPayload struct {
	Status              domain.TargetStatus `json:"status"`
	RequestChangeReason *string             `json:"requestChangeReason,omitempty"`
	CGMApproverUserID   *string             `json:"cgmApproverUserId,omitempty"`
	AssignedByUserID    string              `json:"assignedByUserId,omitempty"`
}

// TargetDeletedPayload payload.
type TargetDeletedPayload struct {
	BranchID string `json:"branchId"`
}

// TrainerTargetsAssignedPayload payload.
type TrainerTargetsAssignedPayload struct {
	DepartmentTargetID string `json:"departmentTargetId"`
	Created            int    `json:"created"`
	Updated            int    `json:"updated"`
	Failed             int    `json:"failed"`
	Skipped            int    `json:"skipped"`
}
