package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/weiawesome/yaycha/internal/service"
	"github.com/weiawesome/yaycha/pkg/middleware"
	"github.com/weiawesome/yaycha/pkg/response"
)

// NotificationHandler serves the caller's notifications.
type NotificationHandler struct {
	notifications service.NotificationService
	auth          *middleware.AuthMiddleware
}

func NewNotificationHandler(notifications service.NotificationService, auth *middleware.AuthMiddleware) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, auth: auth}
}

// RegisterRoutes registers all routes.
func (h *NotificationHandler) RegisterRoutes(r gin.IRouter) {
	notis := r.Group("/content/notis")
	notis.Use(h.auth.RequireAuth())
	{
		notis.GET("", h.List)
		notis.PUT("/read", h.MarkAllRead)
		notis.PUT("/read/:id", h.MarkRead)
	}
}

func (h *NotificationHandler) List(c *gin.Context) {
	notis, err := h.notifications.List(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeError(c, err, "failed to list notifications")
		return
	}
	response.Success(c, notis)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.notifications.MarkAllRead(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		writeError(c, err, "failed to mark notifications read")
		return
	}
	response.Message(c, "Marked all notis read")
}

// MarkRead marks one of the caller's notifications read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	n, err := h.notifications.MarkRead(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		writeError(c, err, "failed to mark notification read")
		return
	}
	response.Success(c, n)
}
