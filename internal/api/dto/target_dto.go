package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/gym-targets/internal/domain"
)

// DepartmentTargetRequest is one department share in a create or update body.
type DepartmentTargetRequest struct {
	ID           *string         `json:"id" validate:"omitempty,uuid"`
	DepartmentID string          `json:"departmentId" validate:"required,uuid"`
	TargetValue  decimal.Decimal `json:"targetValue" validate:"gte=0"`
}

// CreateTargetRequest payload.
type CreateTargetRequest struct {
	BranchID          string                    `json:"branchId" validate:"required,uuid"`
	TargetValue       decimal.Decimal           `json:"targetValue" validate:"gte=0"`
	StartDate         Date                      `json:"startDate" validate:"required"`
	EndDate           Date                      `json:"endDate" validate:"required,gtefield=StartDate"`
	CGMApproverUserID *string                   `json:"cgmApproverUserId" validate:"omitempty,uuid"`
	DepartmentTargets []DepartmentTargetRequest `json:"departmentTargets" validate:"dive"`
}

// UpdateTargetRequest payload. Every field is optional; a present
// departmentTargets array, even an empty one, replaces the department set.
// rejectedReason is accepted as an alias of requestChangeReason.
type UpdateTargetRequest struct {
	TargetValue         *decimal.Decimal          `json:"targetValue" validate:"omitempty,gte=0"`
	StartDate           *Date                     `json:"startDate"`
	EndDate             *Date                     `json:"endDate"`
	Status              *domain.TargetStatus      `json:"status"`
	CGMApproverUserID   *string                   `json:"cgmApproverUserId" validate:"omitempty,uuid"`
	RequestChangeReason *string                   `json:"requestChangeReason" validate:"omitempty,max=2000"`
	RejectedReason      *string                   `json:"rejectedReason" validate:"omitempty,max=2000"`
	DepartmentTargets   []DepartmentTargetRequest `json:"departmentTargets" validate:"omitempty,dive"`
}

// TransitionStatusRequest payload.
type TransitionStatusRequest struct {
	Status              *domain.TargetStatus `json:"status" validate:"required,oneof=1 2"`
	ChangeRequestReason *string              `json:"changeRequestReason" validate:"omitempty,max=2000"`
}

// TargetListQuery captures query filters for GET /targets.
type TargetListQuery struct {
	BranchID  *string
	Statuses  []domain.TargetStatus
	StartFrom *time.Time
	EndTo     *time.Time
	Page      int
	PageSize  int
}

// PageMeta tells a client where a list page sits and whether more follow.
type PageMeta struct {
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	HasMore  bool `json:"hasMore"`
}

// UserSummary is the public view of a user.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DepartmentResponse response.
type DepartmentResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BranchResponse response.
type BranchResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Departments []DepartmentResponse `json:"departments"`
}

// TargetResponse represents a target with its fixed expansion.
type TargetResponse struct {
	ID                  string                     `json:"id"`
	BranchID            string                     `json:"branchId"`
	TargetValue         decimal.Decimal            `json:"targetValue"`
	StartDate           Date                       `json:"startDate"`
	EndDate             Date                       `json:"endDate"`
	Status              domain.TargetStatus        `json:"status"`
	AssignedByUserID    string                     `json:"assignedByUserId"`
	CGMApproverUserID   *string                    `json:"cgmApproverUserId"`
	RequestChangeReason *string                    `json:"requestChangeReason"`
	CreatedAt           time.Time                  `json:"createdAt"`
	UpdatedAt           time.Time                  `json:"updatedAt"`
	DepartmentTargets   []DepartmentTargetResponse `json:"departmentTargets"`
	Approver            *UserSummary               `json:"approver,omitempty"`
	Branch              *BranchResponse            `json:"branch,omitempty"`
}

// DepartmentTargetResponse response.
type DepartmentTargetResponse struct {
	ID             string                  `json:"id"`
	TargetID       string                  `json:"targetId"`
	DepartmentID   string                  `json:"departmentId"`
	TargetValue    decimal.Decimal         `json:"targetValue"`
	CreatedAt      time.Time               `json:"createdAt"`
	UpdatedAt      time.Time               `json:"updatedAt"`
	Department     *DepartmentResponse     `json:"department,omitempty"`
	Target         *TargetResponse         `json:"target,omitempty"`
	TrainerTargets []TrainerTargetResponse `json:"trainerTargets,omitempty"`
}

// CreateTargetResponse response.
type CreateTargetResponse struct {
	Target                   TargetResponse `json:"target"`
	DepartmentTargetsCreated int            `json:"departmentTargetsCreated"`
}

// UpdateTargetResponse response.
type UpdateTargetResponse struct {
	Target                TargetResponse `json:"target"`
	Created               int            `json:"created"`
	Updated               int            `json:"updated"`
	Removed               int            `json:"removed"`
	TrainerTargetsRemoved int64          `json:"trainerTargetsRemoved"`
}

// TransitionStatusResponse is the data part of a status transition reply.
type TransitionStatusResponse struct {
	Status domain.TargetStatus `json:"status"`
}

// DepartmentRollupResponse response.
type DepartmentRollupResponse struct {
	DepartmentTargetID string          `json:"departmentTargetId"`
	DepartmentID       string          `json:"departmentId"`
	TargetValue        decimal.Decimal `json:"targetValue"`
	TrainerSum         decimal.Decimal `json:"trainerSum"`
	TrainerTargetCount int             `json:"trainerTargetCount"`
}

// TargetRollupResponse response.
type TargetRollupResponse struct {
	TargetID      string                     `json:"targetId"`
	TargetValue   decimal.Decimal            `json:"targetValue"`
	DepartmentSum decimal.Decimal            `json:"departmentSum"`
	Balanced      bool                       `json:"balanced"`
	Departments   []DepartmentRollupResponse `json:"departments"`
}
