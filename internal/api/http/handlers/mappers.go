package handlers

import (
	"github.com/spec-kit/gym-targets/internal/api/dto"
	"github.com/spec-kit/gym-targets/internal/domain"
)

func targetResponse(t *domain.Target) dto.TargetResponse {
	resp := dto.TargetResponse{
		ID:                  t.ID,
		BranchID:            t.BranchID,
		TargetValue:         t.TargetValue,
		StartDate:           dto.NewDate(t.StartDate),
		EndDate:             dto.NewDate(t.EndDate),
		Status:              t.Status,
		AssignedByUserID:    t.AssignedByUserID,
		CGMApproverUserID:   t.CGMApproverUserID,
		RequestChangeReason: t.RequestChangeReason,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
		DepartmentTargets:   make([]dto.DepartmentTargetResponse, 0, len(t.DepartmentTargets)),
	}
	for i := range t.DepartmentTargets {
		resp.DepartmentTargets = append(resp.DepartmentTargets, departmentTargetResponse(&t.DepartmentTargets[i]))
	}
	if t.Approver != nil {
		summary := userSummary(*t.Approver)
		resp.Approver = &summary
	}
	if t.Branch != nil {
		branch := dto.BranchResponse{
			ID:          t.Branch.ID,
			Name:        t.Branch.Name,
			Departments: make([]dto.DepartmentResponse, 0, len(t.Branch.Departments)),
		}
		for _, d := range t.Branch.Departments {
			branch.Departments = append(branch.Departments, departmentResponse(d))
		}
		resp.Branch = &branch
	}
	return resp
}

func departmentTargetResponse(dt *domain.DepartmentTarget) dto.DepartmentTargetResponse {
	resp := dto.DepartmentTargetResponse{
		ID:           dt.ID,
		TargetID:     dt.TargetID,
		DepartmentID: dt.DepartmentID,
		TargetValue:  dt.TargetValue,
		CreatedAt:    dt.CreatedAt,
		UpdatedAt:    dt.UpdatedAt,
	}
	if dt.Department != nil {
		dept := departmentResponse(*dt.Department)
		resp.Department = &dept
	}
	if dt.Target != nil {
		target := targetResponse(dt.Target)
		resp.Target = &target
	}
	for _, tt := range dt.TrainerTargets {
		item := dto.TrainerTargetResponse{
			ID:                 tt.ID,
			DepartmentTargetID: tt.DepartmentTargetID,
			TrainerID:          tt.TrainerID,
			KpiID:              tt.KpiID,
			TargetValue:        tt.TargetValue,
			CreatedAt:          tt.CreatedAt,
			UpdatedAt:          tt.UpdatedAt,
		}
		if tt.Trainer != nil {
			summary := userSummary(*tt.Trainer)
			item.Trainer = &summary
		}
		resp.TrainerTargets = append(resp.TrainerTargets, item)
	}
	return resp
}

func departmentResponse(d domain.Department) dto.DepartmentResponse {
	return dto.DepartmentResponse{ID: d.ID, Name: d.Name}
}

func userSummary(u domain.User) dto.UserSummary {
	return dto.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}
