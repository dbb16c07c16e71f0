package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-sla-service/internal/api/dto"
	"github.com/spec-kit/ticket-sla-service/internal/auth"
	"github.com/spec-kit/ticket-sla-service/internal/domain"
	"github.com/spec-kit/ticket-sla-service/internal/repository"
	apperrors "github.com/spec-kit/ticket-sla-service/pkg/util"
)

// PushTokensHandler manages push-token registration endpoints.
type PushTokensHandler struct {
	tokens repository.PushTokenRepository
}

// NewPushTokensHandler constructs handler.
func NewPushTokensHandler(tokens repository.PushTokenRepository) *PushTokensHandler {
	return &PushTokensHandler{tokens: tokens}
}

// Register POST /push/register. The token is associated with the
// authenticated caller when one is present; anonymous device tokens are
// accepted too.
func (h *PushTokensHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterPushTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		return apperrors.NewValidationError("token required", nil)
	}

	token := &domain.PushToken{Token: req.Token, Device: req.Device}
	if principal, ok := auth.PrincipalFromContext(c); ok && principal.User != nil {
		token.OwnerID = &principal.User.ID
	}

	if err := h.tokens.Upsert(c.Context(), token); err != nil {
		return apperrors.MapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"data": fiber.Map{"registered": true}})
}

// Unregister POST /push/unregister.
func (h *PushTokensHandler) Unregister(c *fiber.Ctx) error {
	var req dto.UnregisterPushTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		return apperrors.NewValidationError("token required", nil)
	}

	if _, err := h.tokens.DeleteMany(c.Context(), []string{req.Token}); err != nil {
		return apperrors.MapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"data": fiber.Map{"unregistered": true}})
}
