package api

import (
	"net/http"

	"github.com/Domenick1991/servicebooking/internal/apperrors"
	"github.com/Domenick1991/servicebooking/internal/domain"
	"github.com/Domenick1991/servicebooking/internal/service/notification"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	service notification.NotificationUseCase
}

type listNotificationsQuery struct {
	Type       string `form:"type"`
	UnreadOnly bool   `form:"unreadOnly"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
}

func NewNotificationHandler(service notification.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.POST("", h.create)
	router.PUT("/read-all", h.markAllRead)
	router.GET("/preferences", h.getPreferences)
	router.PUT("/preferences", h.updatePreferences)
	router.PUT("/:id/read", h.markRead)
	router.DELETE("/:id", h.delete)
}

func (h *NotificationHandler) list(c *gin.Context) {
	var q listNotificationsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, apperrors.Validation("invalid query: "+err.Error()))
		return
	}

	page, err := h.service.List(c.Request.Context(), currentUser(c), notification.ListQuery{
		Type:       domain.NotificationType(q.Type),
		UnreadOnly: q.UnreadOnly,
		Page:       q.Page,
		Limit:      q.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// create is for system announcements and is limited to admins.
func (h *NotificationHandler) create(c *gin.Context) {
	if !currentUser(c).IsAdmin() {
		respondError(c, apperrors.Forbidden("only admins can send notifications"))
		return
	}

	var req notification.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("invalid request body: "+err.Error()))
		return
	}

	n, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (h *NotificationHandler) markRead(c *gin.Context) {
	n, err := h.service.MarkRead(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *NotificationHandler) markAllRead(c *gin.Context) {
	count, err := h.service.MarkAllRead(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": count})
}

func (h *NotificationHandler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) getPreferences(c *gin.Context) {
	pref, err := h.service.GetPreferences(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pref)
}

func (h *NotificationHandler) updatePreferences(c *gin.Context) {
	var req domain.Preference
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("invalid request body: "+err.Error()))
		return
	}

	pref, err := h.service.UpdatePreferences(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pref)
}
