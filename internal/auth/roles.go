package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/gym-targets/pkg/util/errorutil"
)

// RequireOperation rejects callers the policy does not allow to run op.
// The workflow services repeat the check; this keeps denied requests from
// reaching body parsing.
func RequireOperation(op Operation) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := CallerFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if decision := Authorize(caller, op); !decision.Allowed {
			return apperrors.NewForbidden(decision.Reason)
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures a caller was loaded by AuthMiddleware.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CallerFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
