package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gym-targets/internal/api/dto"
	"github.com/spec-kit/gym-targets/internal/auth"
	"github.com/spec-kit/gym-targets/internal/service"
	apperrors "github.com/spec-kit/gym-targets/pkg/util/errorutil"
)

// TrainerTargetsHandler serves the trainer target batch endpoint.
type TrainerTargetsHandler struct {
	service *service.TrainerTargetService
}

// NewTrainerTargetsHandler constructs handler.
func NewTrainerTargetsHandler(trainerTargetService *service.TrainerTargetService) *TrainerTargetsHandler {
	return &TrainerTargetsHandler{service: trainerTargetService}
}

// Assign POST /trainer-targets/assign. A batch that stops part way answers
// with the error status and the per-item report in error.details.
func (h *TrainerTargetsHandler) Assign(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignTrainerTargetsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(&req); err != nil {
		return err
	}

	input := service.AssignTrainerTargetsInput{DepartmentTargetID: req.DepartmentTargetID}
	for _, trainer := range req.TrainerKpiTargets {
		group := service.TrainerKpiTargetsInput{TrainerID: trainer.TrainerID}
		for _, kpi := range trainer.KpiTargets {
			group.KpiTargets = append(group.KpiTargets, service.KpiTargetInput{
				KpiID:           kpi.KpiID,
				TargetValue:     kpi.TargetValue,
				TrainerTargetID: kpi.TrainerTargetID,
			})
		}
		input.TrainerKpiTargets = append(input.TrainerKpiTargets, group)
	}

	result, err := h.service.AssignTrainerTargets(c.UserContext(), caller, input)
	if result == nil {
		return err
	}
	resp := assignmentResponse(result)
	if err != nil {
		domainErr := *apperrors.ToDomainError(err)
		details := make(map[string]any, len(domainErr.Details)+1)
		for k, v := range domainErr.Details {
			details[k] = v
		}
		details["result"] = resp
		domainErr.Details = details
		return &domainErr
	}
	return c.JSON(fiber.Map{"data": resp})
}

func assignmentResponse(result *service.AssignmentResult) dto.AssignTrainerTargetsResponse {
	resp := dto.AssignTrainerTargetsResponse{
		DepartmentTargetID: result.DepartmentTargetID,
		Count:              result.Count,
		Items:              make([]dto.AssignmentItemResponse, 0, len(result.Items)),
	}
	for _, item := range result.Items {
		resp.Items = append(resp.Items, dto.AssignmentItemResponse{
			TrainerID:       item.TrainerID,
			KpiID:           item.KpiID,
			TrainerTargetID: item.TrainerTargetID,
			Outcome:         string(item.Outcome),
			Created:         item.Outcome == service.AssignmentCreated,
			Updated:         item.Outcome == service.AssignmentUpdated,
			Error:           item.Error,
		})
	}
	return resp
}
