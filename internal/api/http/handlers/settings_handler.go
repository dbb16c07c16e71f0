package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-sla-service/internal/api/dto"
	"github.com/spec-kit/ticket-sla-service/internal/auth"
	"github.com/spec-kit/ticket-sla-service/internal/domain"
	"github.com/spec-kit/ticket-sla-service/internal/repository"
	apperrors "github.com/spec-kit/ticket-sla-service/pkg/util"
)

// updatableSettingKeys are the runtime settings administrators may
// change over HTTP.
var updatableSettingKeys = map[string]struct{}{
	repository.SettingAutocloseValue:    {},
	repository.SettingAutocloseUnit:     {},
	repository.SettingEscalationManager: {},
	repository.SettingMailHost:          {},
	repository.SettingMailPort:          {},
	repository.SettingMailUsername:      {},
	repository.SettingMailPassword:      {},
	repository.SettingMailEncryption:    {},
	repository.SettingMailFromAddress:   {},
	repository.SettingMailFromName:      {},
}

// SettingsHandler lets administrators maintain the sweep and mail
// configuration stored in app_settings.
type SettingsHandler struct {
	settings repository.SettingsRepository
}

// NewSettingsHandler constructs handler.
func NewSettingsHandler(settings repository.SettingsRepository) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Update PUT /settings. Admin only.
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	if principal.User.Role != domain.UserRoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}

	var req dto.UpdateSettingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if _, known := updatableSettingKeys[req.Key]; !known {
		return apperrors.NewValidationError("unknown setting key", map[string]any{"key": req.Key})
	}

	if err := h.settings.Set(c.Context(), req.Key, req.Value); err != nil {
		return apperrors.MapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"data": dto.SettingResponse{
		Key:   req.Key,
		Value: req.Value,
	}})
}
