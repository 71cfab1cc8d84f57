package handlers

import (
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/donorlink/donorlink/internal/httpx"
	"github.com/donorlink/donorlink/internal/models"
	"github.com/donorlink/donorlink/internal/validation"
)

// DonorHandler serves the donor directory. Profiles are normally created by
// signup; the POST path exists for admin imports of unbound profiles.
type DonorHandler struct{ DB *gorm.DB }

func NewDonorHandler(db *gorm.DB) *DonorHandler { return &DonorHandler{DB: db} }

func (h *DonorHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := listParams(r)
	var total int64
	h.DB.Model(&models.Donor{}).Count(&total)
	var donors []models.Donor
	if err := h.DB.Order("id desc").Limit(limit).Offset(offset).Find(&donors).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_donors", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": donors, "total": total, "limit": limit, "offset": offset})
}

func (h *DonorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var donor models.Donor
	if err := h.DB.First(&donor, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "donor_not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_donor", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, donor)
}

type donorReq struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

func (h *DonorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req donorReq
	if !decodeJSON(w, r, &req) {
		return
	}
	v := validation.Violations{}
	validation.Required("name", req.Name, v)
	validation.Email("email", req.Email, v)
	if err := v.AsError(); err != nil {
		httpx.Error(w, err)
		return
	}
	donor := models.Donor{Name: req.Name, Email: req.Email, Phone: req.Phone,
		Address: req.Address, City: req.City, State: req.State, Pincode: req.Pincode}
	if err := h.DB.Create(&donor).Error; err != nil {
		httpx.JSONError(w, http.StatusConflict, "email_already_registered", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, donor)
}

// RecipientHandler mirrors the donor surface plus family size and urgency.
type RecipientHandler struct{ DB *gorm.DB }

func NewRecipientHandler(db *gorm.DB) *RecipientHandler { return &RecipientHandler{DB: db} }

func (h *RecipientHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := listParams(r)
	var total int64
	h.DB.Model(&models.Recipient{}).Count(&total)
	var recipients []models.Recipient
	if err := h.DB.Order("id desc").Limit(limit).Offset(offset).Find(&recipients).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_recipients", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": recipients, "total": total, "limit": limit, "offset": offset})
}

func (h *RecipientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var recipient models.Recipient
	if err := h.DB.First(&recipient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "recipient_not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_recipient", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, recipient)
}

type recipientReq struct {
	donorReq
	FamilySize int    `json:"family_size"`
	Urgency    string `json:"urgency"`
}

func (h *RecipientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req recipientReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.FamilySize == 0 {
		req.FamilySize = 1
	}
	if req.Urgency == "" {
		req.Urgency = models.UrgencyMedium
	}
	v := validation.Violations{}
	validation.Required("name", req.Name, v)
	validation.Email("email", req.Email, v)
	validation.PositiveInt("family_size", req.FamilySize, v)
	validation.OneOf("urgency", req.Urgency,
		[]string{models.UrgencyLow, models.UrgencyMedium, models.UrgencyHigh, models.UrgencyCritical}, v)
	if err := v.AsError(); err != nil {
		httpx.Error(w, err)
		return
	}
	recipient := models.Recipient{Name: req.Name, Email: req.Email, Phone: req.Phone,
		FamilySize: req.FamilySize, Urgency: req.Urgency,
		Address: req.Address, City: req.City, State: req.State, Pincode: req.Pincode}
	if err := h.DB.Create(&recipient).Error; err != nil {
		httpx.JSONError(w, http.StatusConflict, "email_already_registered", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, recipient)
}

// NGOHandler serves the NGO directory.
type NGOHandler struct{ DB *gorm.DB }

func NewNGOHandler(db *gorm.DB) *NGOHandler { return &NGOHandler{DB: db} }

func (h *NGOHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := listParams(r)
	dbq := h.DB.Model(&models.NGO{})
	if city := r.URL.Query().Get("city"); city != "" {
		dbq = dbq.Where("city = ?", city)
	}
	var total int64
	dbq.Count(&total)
	var ngos []models.NGO
	if err := dbq.Order("id asc").Limit(limit).Offset(offset).Find(&ngos).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_ngos", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": ngos, "total": total, "limit": limit, "offset": offset})
}

func (h *NGOHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var ngo models.NGO
	if err := h.DB.First(&ngo, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "ngo_not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_ngo", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, ngo)
}

type ngoReq struct {
	donorReq
	Website string `json:"website"`
}

func (h *NGOHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ngoReq
	if !decodeJSON(w, r, &req) {
		return
	}
	v := validation.Violations{}
	validation.Required("name", req.Name, v)
	validation.Email("email", req.Email, v)
	validation.Required("city", req.City, v)
	if err := v.AsError(); err != nil {
		httpx.Error(w, err)
		return
	}
	ngo := models.NGO{Name: req.Name, Email: req.Email, Phone: req.Phone, Website: req.Website,
		Address: req.Address, City: req.City, State: req.State, Pincode: req.Pincode}
	if err := h.DB.Create(&ngo).Error; err != nil {
		httpx.JSONError(w, http.StatusConflict, "email_already_registered", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, ngo)
}
