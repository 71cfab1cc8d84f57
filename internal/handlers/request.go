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

type RequestHandler struct {
	DB        *gorm.DB
	Lifecycle *services.LifecycleService
}

func NewRequestHandler(db *gorm.DB, lifecycle *services.LifecycleService) *RequestHandler {
	return &RequestHandler{DB: db, Lifecycle: lifecycle}
}

// List: GET /requests with optional status/category filters.
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := listParams(r)
	dbq := h.DB.Model(&models.Request{})
	if s := r.URL.Query().Get("status"); s != "" {
		dbq = dbq.Where("status = ?", s)
	}
	if c := r.URL.Query().Get("category"); c != "" {
		dbq = dbq.Where("category = ?", c)
	}
	var total int64
	dbq.Count(&total)
	var requests []models.Request
	if err := dbq.Preload("Recipient").Preload("NGO").Order("id desc").Limit(limit).Offset(offset).Find(&requests).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_requests", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": requests, "total": total, "limit": limit, "offset": offset})
}

type requestReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Quantity    int    `json:"quantity"`
	Urgency     string `json:"urgency"`
}

// Create: POST /requests (recipient role).
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	var recipient models.Recipient
	if err := h.DB.Where("user_id = ?", identity.UserID).First(&recipient).Error; err != nil {
		httpx.JSONError(w, http.StatusForbidden, "recipient_profile_missing", nil)
		return
	}
	var req requestReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Urgency == "" {
		req.Urgency = recipient.Urgency
	}
	v := validation.Violations{}
	validation.Required("title", req.Title, v)
	validation.Required("category", req.Category, v)
	validation.PositiveInt("quantity", req.Quantity, v)
	validation.OneOf("urgency", req.Urgency,
		[]string{models.UrgencyLow, models.UrgencyMedium, models.UrgencyHigh, models.UrgencyCritical}, v)
	if err := v.AsError(); err != nil {
		httpx.Error(w, err)
		return
	}
	request := models.Request{
		RecipientID: recipient.ID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Quantity:    req.Quantity,
		Urgency:     req.Urgency,
		Status:      models.RequestPending,
	}
	if err := h.DB.Create(&request).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_request", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, request)
}

// Get: GET /requests/{id}
func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var request models.Request
	if err := h.DB.Preload("Recipient").Preload("NGO").First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "request_not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_request", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, request)
}

// Update: PUT /requests/{id} — owner only, pending only.
func (h *RequestHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	request, ok := h.ownPendingRequest(w, r, id)
	if !ok {
		return
	}
	var req requestReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = request.Quantity
	}
	if req.Urgency == "" {
		req.Urgency = request.Urgency
	}
	v := validation.Violations{}
	validation.Required("title", req.Title, v)
	validation.PositiveInt("quantity", req.Quantity, v)
	validation.OneOf("urgency", req.Urgency,
		[]string{models.UrgencyLow, models.UrgencyMedium, models.UrgencyHigh, models.UrgencyCritical}, v)
	if err := v.AsError(); err != nil {
		httpx.Error(w, err)
		return
	}
	updates := map[string]any{
		"title": req.Title, "description": req.Description,
		"quantity": req.Quantity, "urgency": req.Urgency,
	}
	if req.Category != "" {
		updates["category"] = req.Category
	}
	// Status guard repeated in the WHERE clause so a concurrent accept wins.
	res := h.DB.Model(&models.Request{}).
		Where("id = ? AND status = ?", request.ID, models.RequestPending).
		Updates(updates)
	if res.Error != nil || res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusConflict, "request_not_pending", nil)
		return
	}
	h.DB.First(request, request.ID)
	httpx.JSON(w, http.StatusOK, request)
}

// Delete: DELETE /requests/{id} — owner only, pending only.
func (h *RequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	request, ok := h.ownPendingRequest(w, r, id)
	if !ok {
		return
	}
	res := h.DB.Where("id = ? AND status = ?", request.ID, models.RequestPending).Delete(&models.Request{})
	if res.Error != nil || res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusConflict, "request_not_pending", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// Transition: POST /requests/{id}/transition (NGO role).
func (h *RequestHandler) Transition(w http.ResponseWriter, r *http.Request) {
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
	result, err := h.Lifecycle.Transition(r.Context(), services.EntityRequest, id, services.Action(req.Action), ngoID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// ownPendingRequest loads the request and checks the caller owns it and it is
// still pending. Writes the error response on failure.
func (h *RequestHandler) ownPendingRequest(w http.ResponseWriter, r *http.Request, id uint) (*models.Request, bool) {
	var request models.Request
	if err := h.DB.First(&request, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "request_not_found", nil)
		return nil, false
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	var recipient models.Recipient
	if err := h.DB.Where("user_id = ?", identity.UserID).First(&recipient).Error; err != nil || recipient.ID != request.RecipientID {
		httpx.JSONError(w, http.StatusForbidden, "not_request_owner", nil)
		return nil, false
	}
	if request.Status != models.RequestPending {
		httpx.JSONError(w, http.StatusConflict, "request_not_pending", nil)
		return nil, false
	}
	return &request, true
}
