package handler

import (
	"net/http"
	"strconv"

	"fms/internal/middleware"
	"fms/internal/service"
	"fms/pkg/response"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	notifications := router.Group("/notifications")
	{
		notifications.GET("", h.List)
		notifications.GET("/unread-count", h.UnreadCount)
		notifications.PUT("/read-all", h.MarkAllRead)
		notifications.PUT("/:id/read", h.MarkRead)
	}
}

// List returns the caller's notifications, newest first
// @Summary      List my notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        unread  query     bool  false  "Unread only"
// @Param        limit   query     int   false  "Maximum rows (default 50)"
// @Success      200     {object}  response.Response{data=[]model.Notification}
// @Router       /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	notes, err := h.notificationService.List(c.Request.Context(), middleware.ActorFrom(c), c.Query("unread") == "true", limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, notes))
}

// UnreadCount returns how many notifications are unread
// @Summary      Unread notification count
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	n, err := h.notificationService.UnreadCount(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"count": n}))
}

// MarkRead marks one of the caller's notifications as read
// @Summary      Mark a notification read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Notification ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.notificationService.MarkRead(c.Request.Context(), middleware.ActorFrom(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Notification marked as read"))
}

// MarkAllRead marks every unread notification of the caller as read
// @Summary      Mark all notifications read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.notificationService.MarkAllRead(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"updated": n}))
}
