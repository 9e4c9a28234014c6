package auth

import (
	"strings"

	"github.com/spec-kit/gym-targets/internal/domain"
)

// Operation names a permission-gated workflow operation.
type Operation string

const (
	OpCreateTarget         Operation = "create_target"
	OpUpdateTarget         Operation = "update_target"
	OpTransitionStatus     Operation = "transition_target_status"
	OpDeleteTarget         Operation = "delete_target"
	OpReadTargets          Operation = "read_targets"
	OpReadDepartmentTarget Operation = "read_department_target"
	OpAssignTrainerTargets Operation = "assign_trainer_targets"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

// rules lists the permissions allowed to run each operation. An empty list
// admits any authenticated caller.
var rules = map[Operation][]string{
	OpCreateTarget:         {domain.PermissionAdmin, domain.PermissionSuperAdmin},
	OpUpdateTarget:         {domain.PermissionAdmin, domain.PermissionSuperAdmin},
	OpTransitionStatus:     {domain.PermissionCGM, domain.PermissionAdmin, domain.PermissionSuperAdmin},
	OpDeleteTarget:         {domain.PermissionAdmin, domain.PermissionSuperAdmin},
	OpReadTargets:          {},
	OpReadDepartmentTarget: {},
	OpAssignTrainerTargets: {},
}

// Authorize decides whether caller may run op.
func Authorize(caller domain.Caller, op Operation) Decision {
	allowed, known := rules[op]
	if !known {
		return Decision{Reason: "unknown operation " + string(op)}
	}
	if caller.ID == "" {
		return Decision{Reason: "authenticated caller required"}
	}
	if len(allowed) == 0 || caller.HasAny(allowed...) {
		return Decision{Allowed: true}
	}
	return Decision{Reason: "requires one of: " + strings.Join(allowed, ", ")}
}

// CanCreateTarget reports whether caller may create targets.
func CanCreateTarget(caller domain.Caller) Decision {
	return Authorize(caller, OpCreateTarget)
}

// CanUpdateTarget reports whether caller may edit target fields.
func CanUpdateTarget(caller domain.Caller) Decision {
	return Authorize(caller, OpUpdateTarget)
}

// CanTransitionStatus reports whether caller may approve or request changes.
func CanTransitionStatus(caller domain.Caller) Decision {
	return Authorize(caller, OpTransitionStatus)
}

// CanDeleteTarget reports whether caller may delete targets.
func CanDeleteTarget(caller domain.Caller) Decision {
	return Authorize(caller, OpDeleteTarget)
}

// CanAssignTrainerTargets reports whether caller may upsert trainer targets.
func CanAssignTrainerTargets(caller domain.Caller) Decision {
	return Authorize(caller, OpAssignTrainerTargets)
}

// VisibilityScope restricts which targets a caller can read.
type VisibilityScope struct {
	// CGMApproverUserID, when set, limits reads to targets naming this approver.
	CGMApproverUserID *string
}

// Unrestricted reports whether the scope admits every target.
func (s VisibilityScope) Unrestricted() bool {
	return s.CGMApproverUserID == nil
}

// Admits reports whether target falls inside the scope.
func (s VisibilityScope) Admits(target *domain.Target) bool {
	if s.CGMApproverUserID == nil {
		return true
	}
	return target.CGMApproverUserID != nil && *target.CGMApproverUserID == *s.CGMApproverUserID
}

// TargetVisibility returns the implicit read filter for caller. Admins see
// everything; a CGM sees only targets naming them as approver. Other roles
// are not restricted.
func TargetVisibility(caller domain.Caller) VisibilityScope {
	if caller.HasAny(domain.PermissionAdmin, domain.PermissionSuperAdmin) {
		return VisibilityScope{}
	}
	if caller.Has(domain.PermissionCGM) {
		id := caller.ID
		return VisibilityScope{CGMApproverUserID: &id}
	}
	return VisibilityScope{}
}
