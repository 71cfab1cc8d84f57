package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/donorlink/donorlink/internal/auth"
	"github.com/donorlink/donorlink/internal/httpx"
	"github.com/donorlink/donorlink/internal/models"
)

type NotificationHandler struct{ DB *gorm.DB }

func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{DB: db}
}

// List: GET /notifications — the caller's own, newest first.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	limit, offset := listParams(r)
	var total int64
	h.DB.Model(&models.Notification{}).Where("user_id = ?", identity.UserID).Count(&total)
	var items []models.Notification
	if err := h.DB.Where("user_id = ?", identity.UserID).
		Order("id desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_notifications", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": total, "limit": limit, "offset": offset})
}

// MarkRead: POST /notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	res := h.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, identity.UserID).
		Update("read", true)
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_notification", nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "notification_not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"read": true})
}
