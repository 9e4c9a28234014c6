package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// KpiTargetRequest is one KPI value for a trainer.
type KpiTargetRequest struct {
	KpiID           string          `json:"kpiId" validate:"required,uuid"`
	TargetValue     decimal.Decimal `json:"targetValue" validate:"gte=0"`
	TrainerTargetID *string         `json:"trainerTargetId" validate:"omitempty,uuid"`
}

// TrainerKpiTargetsRequest groups the KPI values of one trainer.
type TrainerKpiTargetsRequest struct {
	TrainerID  string             `json:"trainerId" validate:"required,uuid"`
	KpiTargets []KpiTargetRequest `json:"kpiTargets" validate:"required,min=1,dive"`
}

// AssignTrainerTargetsRequest payload.
type AssignTrainerTargetsRequest struct {
	DepartmentTargetID string                     `json:"departmentTargetId" validate:"required,uuid"`
	TrainerKpiTargets  []TrainerKpiTargetsRequest `json:"trainerKpiTargets" validate:"required,min=1,dive"`
}

// TrainerTargetResponse response.
type TrainerTargetResponse struct {
	ID                 string          `json:"id"`
	DepartmentTargetID string          `json:"departmentTargetId"`
	TrainerID          string          `json:"trainerId"`
	KpiID              string          `json:"kpiId"`
	TargetValue        decimal.Decimal `json:"targetValue"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
	Trainer            *UserSummary    `json:"trainer,omitempty"`
}

// AssignmentItemResponse reports one (trainer, kpi) pair.
type AssignmentItemResponse struct {
	TrainerID       string `json:"trainerId"`
	KpiID           string `json:"kpiId"`
	TrainerTargetID string `json:"trainerTargetId,omitempty"`
	Outcome         string `json:"outcome"`
	Created         bool   `json:"created,omitempty"`
	Updated         bool   `json:"updated,omitempty"`
	Error           string `json:"error,omitempty"`
}

// AssignTrainerTargetsResponse response.
type AssignTrainerTargetsResponse struct {
	DepartmentTargetID string                   `json:"departmentTargetId"`
	Count              int                      `json:"count"`
	Items              []AssignmentItemResponse `json:"items"`
}
