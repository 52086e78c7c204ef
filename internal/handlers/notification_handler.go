package handlers

import (
	"context"
	"net/http"

	"github.com/edulink/backend/internal/models"
	"github.com/edulink/backend/internal/services"
	"go.uber.org/zap"
)

// Inbox hands out an account's undelivered notifications once.
type Inbox interface {
	Drain(ctx context.Context, accountID string) ([]models.NotificationEvent, error)
}

type NotificationHandler struct {
	inbox  Inbox
	logger *zap.Logger
}

// NewNotificationHandler accepts a nil inbox when no Redis is configured.
func NewNotificationHandler(inbox Inbox, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{inbox: inbox, logger: logger}
}

// NotificationsResponse wraps drained events
// @Description Undelivered notifications, de-duplicated by eventId
type NotificationsResponse struct {
	Events []models.NotificationEvent `json:"events"`
}

// Drain returns the caller's pending notifications
// @Summary Drain notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} NotificationsResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /notifications [get]
func (h *NotificationHandler) Drain(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}
	if h.inbox == nil {
		services.SendErrorResponse(w, "Notification inbox unavailable", http.StatusServiceUnavailable, nil)
		return
	}

	accountID := caller.ID
	if caller.Role == models.RoleAdmin && r.URL.Query().Get("queue") == "admin" {
		accountID = models.AdminQueue
	}

	events, err := h.inbox.Drain(r.Context(), accountID)
	if err != nil {
		h.logger.Error("failed to drain inbox", zap.String("account_id", accountID), zap.Error(err))
		services.SendErrorResponse(w, "Notification inbox unavailable", http.StatusServiceUnavailable, nil)
		return
	}
	if events == nil {
		events = []models.NotificationEvent{}
	}
	writeJSON(w, http.StatusOK, NotificationsResponse{Events: events})
}
