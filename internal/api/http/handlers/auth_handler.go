package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gym-targets/internal/api/dto"
	"github.com/spec-kit/gym-targets/internal/service"
	apperrors "github.com/spec-kit/gym-targets/pkg/util/errorutil"
)

// AuthHandler issues access tokens.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(&req); err != nil {
		return err
	}
	user, token, exp, err := h.service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		AccessToken: token,
		ExpiresAt:   exp,
		User:        userSummary(*user),
		Permissions: user.Permissions,
	}})
}
