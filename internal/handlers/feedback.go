package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/donorlink/donorlink/internal/auth"
	"github.com/donorlink/donorlink/internal/httpx"
	"github.com/donorlink/donorlink/internal/models"
	"github.com/donorlink/donorlink/internal/validation"
)

type FeedbackHandler struct{ DB *gorm.DB }

func NewFeedbackHandler(db *gorm.DB) *FeedbackHandler { return &FeedbackHandler{DB: db} }

func (h *FeedbackHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := listParams(r)
	var total int64
	h.DB.Model(&models.Feedback{}).Count(&total)
	var items []models.Feedback
	if err := h.DB.Order("id desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_feedback", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": total, "limit": limit, "offset": offset})
}

type feedbackReq struct {
	DonationID *uint  `json:"donation_id"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

// Create: POST /feedback. Rating bounds are inclusive 1..5.
func (h *FeedbackHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	var req feedbackReq
	if !decodeJSON(w, r, &req) {
		return
	}
	v := validation.Violations{}
	validation.IntRange("rating", req.Rating, 1, 5, v)
	if err := v.AsError(); err != nil {
		httpx.Error(w, err)
		return
	}
	if req.DonationID != nil {
		var donation models.Donation
		if err := h.DB.First(&donation, *req.DonationID).Error; err != nil {
			httpx.JSONError(w, http.StatusNotFound, "donation_not_found", nil)
			return
		}
	}
	fb := models.Feedback{UserID: identity.UserID, DonationID: req.DonationID, Rating: req.Rating, Comment: req.Comment}
	if err := h.DB.Create(&fb).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_feedback", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, fb)
}
