package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/donorlink/donorlink/internal/auth"
	"github.com/donorlink/donorlink/internal/models"
)

func TestSignupLoginRoundTrip(t *testing.T) {
	db := setupHandlerTestDB(t)
	h := NewAuthHandler(db)

	signup := `{"email":"jane@example.org","password":"s3cret","role":"donor","name":"Jane","city":"Springfield"}`
	w := httptest.NewRecorder()
	h.Signup(w, httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(signup)))
	if w.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	// The donor profile is created alongside the account.
	var donor models.Donor
	if err := db.Where("email = ?", "jane@example.org").First(&donor).Error; err != nil {
		t.Fatalf("donor profile missing: %v", err)
	}
	if donor.City != "Springfield" || donor.UserID == nil {
		t.Fatalf("profile wrong: %+v", donor)
	}

	// Duplicate email conflicts.
	dupW := httptest.NewRecorder()
	h.Signup(dupW, httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(signup)))
	if dupW.Code != http.StatusConflict {
		t.Fatalf("duplicate signup: expected 409 got %d", dupW.Code)
	}

	loginW := httptest.NewRecorder()
	h.Login(loginW, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"jane@example.org","password":"s3cret"}`)))
	if loginW.Code != http.StatusOK {
		t.Fatalf("login: expected 200 got %d body=%s", loginW.Code, loginW.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
		User  struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	if err := json.Unmarshal(loginW.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if resp.Token == "" || resp.User.Role != models.RoleDonor {
		t.Fatalf("unexpected login payload: %+v", resp)
	}
	identity, ok := auth.ParseToken(resp.Token)
	if !ok {
		t.Fatal("issued token must parse")
	}
	if identity.Role != models.RoleDonor {
		t.Fatalf("token role wrong: %+v", identity)
	}

	badW := httptest.NewRecorder()
	h.Login(badW, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"jane@example.org","password":"wrong"}`)))
	if badW.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401 got %d", badW.Code)
	}
}

func TestSignupValidation(t *testing.T) {
	db := setupHandlerTestDB(t)
	h := NewAuthHandler(db)

	cases := []struct {
		name string
		body string
	}{
		{"bad email", `{"email":"nope","password":"x","role":"donor","name":"N"}`},
		{"bad role", `{"email":"a@b.example","password":"x","role":"wizard","name":"N"}`},
		{"ngo without city", `{"email":"n@b.example","password":"x","role":"ngo","name":"N"}`},
		{"missing name", `{"email":"c@b.example","password":"x","role":"donor"}`},
	}
	for _, c := range cases {
		w := httptest.NewRecorder()
		h.Signup(w, httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(c.body)))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400 got %d body=%s", c.name, w.Code, w.Body.String())
		}
	}
	var count int64
	db.Model(&models.User{}).Count(&count)
	if count != 0 {
		t.Fatalf("rejected signups must not persist, found %d users", count)
	}
}
