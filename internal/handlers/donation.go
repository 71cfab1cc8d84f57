package handlers

import (
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/donorlink/donorlink/internal/auth"
	"github.com/donorlink/donorlink/internal/httpx"
	"github.com/donorlink/donorlink/internal/models"
	"github.com/donorlink/donorlink/internal/services"
	"github.com/donorlink/donorlink/internal/validation"
)

type DonationHandler struct {
	DB        *gorm.DB
	Matcher   *services.MatchingService
	Lifecycle *services.LifecycleService
}

func NewDonationHandler(db *gorm.DB, matcher *services.MatchingService, lifecycle *services.LifecycleService) *DonationHandler {
	return &DonationHandler{DB: db, Matcher: matcher, Lifecycle: lifecycle}
}

// List: GET /donations with optional status/category filters.
func (h *DonationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := listParams(r)
	dbq := h.DB.Model(&models.Donation{})
	if s := r.URL.Query().Get("status"); s != "" {
		dbq = dbq.Where("status = ?", s)
	}
	if c := r.URL.Query().Get("category"); c != "" {
		dbq = dbq.Where("category = ?", c)
	}
	var total int64
	dbq.Count(&total)
	var donations []models.Donation
	if err := dbq.Preload("Donor").Preload("NGO").Order("id desc").Limit(limit).Offset(offset).Find(&donations).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_donations", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": donations, "total": total, "limit": limit, "offset": offset})
}

type donationReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Quantity    int    `json:"quantity"`
	ImageURL    string `json:"image_url"`
}

// Create: POST /donations (donor role). The donor profile is resolved from
// the authenticated user.
func (h *DonationHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	var donor models.Donor
	if err := h.DB.Where("user_id = ?", id.UserID).First(&donor).Error; err != nil {
		httpx.JSONError(w, http.StatusForbidden, "donor_profile_missing", nil)
		return
	}
	var req donationReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	v := validation.Violations{}
	validation.Required("title", req.Title, v)
	validation.Required("category", req.Category, v)
	validation.PositiveInt("quantity", req.Quantity, v)
	if err := v.AsError(); err != nil {
		httpx.Error(w, err)
		return
	}
	donation := models.Donation{
		DonorID:     donor.ID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Quantity:    req.Quantity,
		Status:      models.DonationPending,
		ImageURL:    req.ImageURL,
	}
	if err := h.DB.Create(&donation).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_donation", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, donation)
}

// Get: GET /donations/{id}
func (h *DonationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var donation models.Donation
	if err := h.DB.Preload("Donor").Preload("NGO").First(&donation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "donation_not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_donation", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, donation)
}

// Update: PUT /donations/{id} — owner only, pending only.
func (h *DonationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	donation, ok := h.ownPendingDonation(w, r, id)
	if !ok {
		return
	}
	var req donationReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = donation.Quantity
	}
	v := validation.Violations{}
	validation.Required("title", req.Title, v)
	validation.PositiveInt("quantity", req.Quantity, v)
	if err := v.AsError(); err != nil {
		httpx.Error(w, err)
		return
	}
	updates := map[string]any{
		"title": req.Title, "description": req.Description, "quantity": req.Quantity,
	}
	if req.Category != "" {
		updates["category"] = req.Category
	}
	if req.ImageURL != "" {
		updates["image_url"] = req.ImageURL
	}
	// Status guard repeated in the WHERE clause so a concurrent accept wins.
	res := h.DB.Model(&models.Donation{}).
		Where("id = ? AND status = ?", donation.ID, models.DonationPending).
		Updates(updates)
	if res.Error != nil || res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusConflict, "donation_not_pending", nil)
		return
	}
	h.DB.First(donation, donation.ID)
	httpx.JSON(w, http.StatusOK, donation)
}

// Delete: DELETE /donations/{id} — owner only, pending only.
func (h *DonationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	donation, ok := h.ownPendingDonation(w, r, id)
	if !ok {
		return
	}
	res := h.DB.Where("id = ? AND status = ?", donation.ID, models.DonationPending).Delete(&models.Donation{})
	if res.Error != nil || res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusConflict, "donation_not_pending", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// Match: POST /donations/{id}/match — runs the matching engine.
func (h *DonationHandler) Match(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := h.Matcher.MatchDonation(r.Context(), id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

type transitionReq struct {
	Action string `json:"action"`
}

// Transition: POST /donations/{id}/transition (NGO role).
func (h *DonationHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req transitionReq
	if !decodeJSON(w, r, &req) {
		return
	}
	ngoID, ok := actorNGO(h.DB, w, r)
	if !ok {
		return
	}
	result, err := h.Lifecycle.Transition(r.Context(), services.EntityDonation, id, services.Action(req.Action), ngoID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// ownPendingDonation loads the donation and checks the caller owns it and it
// is still pending. Writes the error response on failure.
func (h *DonationHandler) ownPendingDonation(w http.ResponseWriter, r *http.Request, id uint) (*models.Donation, bool) {
	var donation models.Donation
	if err := h.DB.First(&donation, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "donation_not_found", nil)
		return nil, false
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	var donor models.Donor
	if err := h.DB.Where("user_id = ?", identity.UserID).First(&donor).Error; err != nil || donor.ID != donation.DonorID {
		httpx.JSONError(w, http.StatusForbidden, "not_donation_owner", nil)
		return nil, false
	}
	if donation.Status != models.DonationPending {
		httpx.JSONError(w, http.StatusConflict, "donation_not_pending", nil)
		return nil, false
	}
	return &donation, true
}

// actorNGO resolves the NGO profile of the authenticated user.
func actorNGO(db *gorm.DB, w http.ResponseWriter, r *http.Request) (uint, bool) {
	identity, _ := auth.IdentityFromContext(r.Context())
	var ngo models.NGO
	if err := db.Where("user_id = ?", identity.UserID).First(&ngo).Error; err != nil {
		httpx.JSONError(w, http.StatusForbidden, "ngo_profile_missing", nil)
		return 0, false
	}
	return ngo.ID, true
}
