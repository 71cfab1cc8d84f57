package handlers

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/donorlink/donorlink/internal/auth"
	"github.com/donorlink/donorlink/internal/httpx"
	"github.com/donorlink/donorlink/internal/models"
	"github.com/donorlink/donorlink/internal/validation"
)

type AuthHandler struct{ DB *gorm.DB }

func NewAuthHandler(db *gorm.DB) *AuthHandler { return &AuthHandler{DB: db} }

type signupReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Website  string `json:"website"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
	// recipient only
	FamilySize int    `json:"family_size"`
	Urgency    string `json:"urgency"`
}

// Signup creates the account plus the role-specific profile in one
// transaction. POST /signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupReq
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	v := validation.Violations{}
	validation.Email("email", req.Email, v)
	validation.Required("password", req.Password, v)
	validation.Required("name", req.Name, v)
	validation.OneOf("role", req.Role, []string{models.RoleDonor, models.RoleRecipient, models.RoleNGO}, v)
	if req.Role == models.RoleNGO {
		validation.Required("city", req.City, v)
	}
	if req.Role == models.RoleRecipient {
		if req.FamilySize == 0 {
			req.FamilySize = 1
		}
		validation.PositiveInt("family_size", req.FamilySize, v)
		if req.Urgency == "" {
			req.Urgency = models.UrgencyMedium
		}
		validation.OneOf("urgency", req.Urgency,
			[]string{models.UrgencyLow, models.UrgencyMedium, models.UrgencyHigh, models.UrgencyCritical}, v)
	}
	if err := v.AsError(); err != nil {
		httpx.Error(w, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "hash_error", nil)
		return
	}
	user := models.User{Email: req.Email, PasswordHash: string(hash), Role: req.Role}
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		switch req.Role {
		case models.RoleDonor:
			return tx.Create(&models.Donor{
				UserID: &user.ID, Name: req.Name, Email: req.Email, Phone: req.Phone,
				Address: req.Address, City: req.City, State: req.State, Pincode: req.Pincode,
			}).Error
		case models.RoleRecipient:
			return tx.Create(&models.Recipient{
				UserID: &user.ID, Name: req.Name, Email: req.Email, Phone: req.Phone,
				FamilySize: req.FamilySize, Urgency: req.Urgency,
				Address: req.Address, City: req.City, State: req.State, Pincode: req.Pincode,
			}).Error
		case models.RoleNGO:
			return tx.Create(&models.NGO{
				UserID: &user.ID, Name: req.Name, Email: req.Email, Phone: req.Phone,
				Website: req.Website, Address: req.Address, City: req.City,
				State: req.State, Pincode: req.Pincode,
			}).Error
		}
		return nil
	})
	if err != nil {
		httpx.JSONError(w, http.StatusConflict, "email_already_registered", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"id": user.PublicID, "email": user.Email, "role": user.Role,
	})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials, sets the session cookie, and returns a Bearer
// token for API clients. POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if !decodeJSON(w, r, &req) {
		return
	}
	var user models.User
	if err := h.DB.Where("email = ?", strings.TrimSpace(req.Email)).First(&user).Error; err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	token, err := auth.IssueToken(user.ID, user.Role)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "token_error", nil)
		return
	}
	auth.CreateSession(w, user.ID)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  map[string]any{"id": user.PublicID, "email": user.Email, "role": user.Role},
	})
}

// Logout clears the session cookie. POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	auth.ClearSession(w)
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
