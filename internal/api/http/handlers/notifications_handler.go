package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-sla-service/internal/api/dto"
	"github.com/spec-kit/ticket-sla-service/internal/auth"
	"github.com/spec-kit/ticket-sla-service/internal/repository"
	apperrors "github.com/spec-kit/ticket-sla-service/pkg/util"
)

// NotificationsHandler manages the in-app notification feed.
type NotificationsHandler struct {
	notifications repository.NotificationRepository
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications repository.NotificationRepository) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

// List GET /notifications. Newest first, optionally unread only.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	filter := repository.NotificationFilter{
		UnreadOnly: c.Query("unread") == "true",
		Limit:      parseIntQuery(c, "limit", 20),
		Offset:     parseIntQuery(c, "offset", 0),
	}

	items, err := h.notifications.ListByRecipient(c.Context(), principal.User.ID, filter)
	if err != nil {
		return apperrors.MapError(err)
	}

	responses := make([]dto.NotificationResponse, 0, len(items))
	for _, n := range items {
		responses = append(responses, dto.NotificationResponse{
			ID:        n.ID,
			Feature:   n.Feature,
			Title:     n.Title,
			Body:      n.Body,
			Data:      n.Data,
			CreatedAt: n.CreatedAt,
			ReadAt:    n.ReadAt,
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"data": responses})
}

// MarkRead POST /notifications/read. Accepts a single id or all=true.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	var req dto.MarkReadRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	now := time.Now()
	if req.All {
		updated, err := h.notifications.MarkAllRead(c.Context(), principal.User.ID, now)
		if err != nil {
			return apperrors.MapError(err)
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{"data": fiber.Map{"marked": updated}})
	}

	if req.ID == "" {
		return apperrors.NewValidationError("id or all required", nil)
	}
	if err := h.notifications.MarkRead(c.Context(), principal.User.ID, req.ID, now); err != nil {
		return apperrors.MapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"data": fiber.Map{"marked": 1}})
}

func parseIntQuery(c *fiber.Ctx, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
