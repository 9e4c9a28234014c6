package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TargetStatus enumerates the approval states of a target.
type TargetStatus int

const (
	TargetStatusPending         TargetStatus = 0
	TargetStatusApproved        TargetStatus = 1
	TargetStatusChangeRequested TargetStatus = 2
)

// Valid reports whether the status is one of the known states.
func (s TargetStatus) Valid() bool {
	switch s {
	case TargetStatusPending, TargetStatusApproved, TargetStatusChangeRequested:
		return true
	}
	return false
}

func (s TargetStatus) String() string {
	switch s {
	case TargetStatusPending:
		return "pending"
	case TargetStatusApproved:
		return "approved"
	case TargetStatusChangeRequested:
		return "change_requested"
	default:
		return "unknown"
	}
}

// Target is a branch-level performance goal for a period.
type Target struct {
	ID                  string
	BranchID            string
	TargetValue         decimal.Decimal
	StartDate           time.Time
	EndDate             time.Time
	Status              TargetStatus
	AssignedByUserID    string
	CGMApproverUserID   *string
	RequestChangeReason *string
	IsDeleted           bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           *time.Time

	// Eagerly loaded relations; nil/empty when not hydrated.
	DepartmentTargets []DepartmentTarget
	Approver          *User
	Branch            *Branch
}

// DepartmentSum adds up the values of the loaded department targets.
func (t *Target) DepartmentSum() decimal.Decimal {
	sum := decimal.Zero
	for _, dt := range t.DepartmentTargets {
		sum = sum.Add(dt.TargetValue)
	}
	return sum
}

// DepartmentTarget is one department's share of a Target.
type DepartmentTarget struct {
	ID           string
	TargetID     string
	DepartmentID string
	TargetValue  decimal.Decimal
	IsDeleted    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Department     *Department
	Target         *Target
	TrainerTargets []TrainerTarget
}

// TrainerTarget assigns a per-KPI value to a trainer under a DepartmentTarget.
type TrainerTarget struct {
	ID                 string
	DepartmentTargetID string
	TrainerID          string
	KpiID              string
	TargetValue        decimal.Decimal
	IsDeleted          bool
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Trainer *User
}
