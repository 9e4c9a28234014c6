package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gym-targets/internal/api/dto"
	"github.com/spec-kit/gym-targets/internal/auth"
	"github.com/spec-kit/gym-targets/internal/domain"
	"github.com/spec-kit/gym-targets/internal/service"
	apperrors "github.com/spec-kit/gym-targets/pkg/util/errorutil"
)

// TargetsHandler manages target workflow endpoints.
type TargetsHandler struct {
	service *service.TargetService
}

// NewTargetsHandler constructs handler.
func NewTargetsHandler(targetService *service.TargetService) *TargetsHandler {
	return &TargetsHandler{service: targetService}
}

// CreateTarget POST /targets.
func (h *TargetsHandler) CreateTarget(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTargetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(&req); err != nil {
		return err
	}

	input := service.TargetCreateInput{
		BranchID:          req.BranchID,
		TargetValue:       req.TargetValue,
		StartDate:         req.StartDate.Time,
		EndDate:           req.EndDate.Time,
		CGMApproverUserID: req.CGMApproverUserID,
		DepartmentTargets: departmentTargetInputs(req.DepartmentTargets),
	}
	result, err := h.service.CreateTargetWithDepartments(c.UserContext(), caller, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CreateTargetResponse{
		Target:                   targetResponse(result.Target),
		DepartmentTargetsCreated: result.DepartmentTargetsCreated,
	}})
}

// ListTargets GET /targets.
func (h *TargetsHandler) ListTargets(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	query, err := parseTargetQuery(c)
	if err != nil {
		return err
	}
	// One extra row tells whether another page exists.
	targets, err := h.service.FindTargets(c.UserContext(), caller, service.TargetQuery{
		BranchID:  query.BranchID,
		Statuses:  query.Statuses,
		StartFrom: query.StartFrom,
		EndTo:     query.EndTo,
		Limit:     query.PageSize + 1,
		Offset:    (query.Page - 1) * query.PageSize,
	})
	if err != nil {
		return err
	}
	hasMore := len(targets) > query.PageSize
	if hasMore {
		targets = targets[:query.PageSize]
	}
	items := make([]dto.TargetResponse, 0, len(targets))
	for i := range targets {
		items = append(items, targetResponse(&targets[i]))
	}
	return c.JSON(fiber.Map{
		"data": items,
		"meta": dto.PageMeta{Page: query.Page, PageSize: query.PageSize, HasMore: hasMore},
	})
}

// GetTarget GET /targets/:id.
func (h *TargetsHandler) GetTarget(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	target, err := h.service.GetTarget(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": targetResponse(target)})
}

// UpdateTarget PATCH /targets/:id.
func (h *TargetsHandler) UpdateTarget(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateTargetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(&req); err != nil {
		return err
	}

	input := service.TargetUpdateInput{
		TargetValue:         req.TargetValue,
		Status:              req.Status,
		CGMApproverUserID:   req.CGMApproverUserID,
		RequestChangeReason: req.RequestChangeReason,
	}
	if input.RequestChangeReason == nil {
		input.RequestChangeReason = req.RejectedReason
	}
	if req.StartDate != nil {
		input.StartDate = &req.StartDate.Time
	}
	if req.EndDate != nil {
		input.EndDate = &req.EndDate.Time
	}
	if req.DepartmentTargets != nil {
		input.DepartmentTargets = departmentTargetInputs(req.DepartmentTargets)
	}

	result, err := h.service.UpdateTarget(c.UserContext(), caller, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UpdateTargetResponse{
		Target:                targetResponse(result.Target),
		Created:               result.Created,
		Updated:               result.Updated,
		Removed:               result.Removed,
		TrainerTargetsRemoved: result.TrainerTargetsRemoved,
	}})
}

// TransitionStatus PATCH /targets/:id/status.
func (h *TargetsHandler) TransitionStatus(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.TransitionStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(&req); err != nil {
		return err
	}

	result, err := h.service.TransitionTargetStatus(c.UserContext(), caller, c.Params("id"), service.StatusTransitionInput{
		Status:              *req.Status,
		ChangeRequestReason: req.ChangeRequestReason,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": result.Message,
		"data":    dto.TransitionStatusResponse{Status: result.Status},
	})
}

// DeleteTarget DELETE /targets/:id.
func (h *TargetsHandler) DeleteTarget(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.DeleteTarget(c.UserContext(), caller, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// GetRollup GET /targets/:id/rollup.
func (h *TargetsHandler) GetRollup(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	rollup, err := h.service.GetTargetRollup(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	resp := dto.TargetRollupResponse{
		TargetID:      rollup.TargetID,
		TargetValue:   rollup.TargetValue,
		DepartmentSum: rollup.DepartmentSum,
		Balanced:      rollup.Balanced,
		Departments:   make([]dto.DepartmentRollupResponse, 0, len(rollup.Departments)),
	}
	for _, d := range rollup.Departments {
		resp.Departments = append(resp.Departments, dto.DepartmentRollupResponse{
			DepartmentTargetID: d.DepartmentTargetID,
			DepartmentID:       d.DepartmentID,
			TargetValue:        d.TargetValue,
			TrainerSum:         d.TrainerSum,
			TrainerTargetCount: d.TrainerTargetCount,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetDepartmentTarget GET /department-target/:id.
func (h *TargetsHandler) GetDepartmentTarget(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	dt, err := h.service.GetDepartmentTarget(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": departmentTargetResponse(dt)})
}

// GET /targets pages with pageSize (default 50, at most 200) and page
// (1-based); the response meta reports whether another page follows.
const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func parseTargetQuery(c *fiber.Ctx) (dto.TargetListQuery, error) {
	query := dto.TargetListQuery{}
	if branchID := strings.TrimSpace(c.Query("branchId")); branchID != "" {
		query.BranchID = &branchID
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || !domain.TargetStatus(n).Valid() {
				return query, apperrors.NewValidationError("invalid status filter", map[string]any{"status": part})
			}
			query.Statuses = append(query.Statuses, domain.TargetStatus(n))
		}
	}
	query.StartFrom = parseDate(c.Query("startFrom"))
	query.EndTo = parseDate(c.Query("endTo"))
	query.Page = parseInt(c.Query("page"), 1)
	query.PageSize = min(parseInt(c.Query("pageSize"), defaultPageSize), maxPageSize)
	return query, nil
}

func parseDate(val string) *time.Time {
	if val == "" {
		return nil
	}
	if t, err := time.Parse("2006-01-02", val); err == nil {
		return &t
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func departmentTargetInputs(reqs []dto.DepartmentTargetRequest) []service.DepartmentTargetInput {
	inputs := make([]service.DepartmentTargetInput, 0, len(reqs))
	for _, r := range reqs {
		inputs = append(inputs, service.DepartmentTargetInput{
			ID:           r.ID,
			DepartmentID: r.DepartmentID,
			TargetValue:  r.TargetValue,
		})
	}
	return inputs
}
