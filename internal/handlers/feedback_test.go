package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/donorlink/donorlink/internal/models"
)

func TestFeedbackRatingBounds(t *testing.T) {
	db := setupHandlerTestDB(t)
	donorUser, _ := seedAccount(t, db, models.RoleDonor, "rater", "Springfield")
	h := NewFeedbackHandler(db)

	post := func(rating int) *httptest.ResponseRecorder {
		body := fmt.Sprintf(`{"rating":%d,"comment":"ok"}`, rating)
		req := asUser(httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader(body)), donorUser)
		w := httptest.NewRecorder()
		h.Create(w, req)
		return w
	}

	for _, rating := range []int{0, 6, -1} {
		w := post(rating)
		if w.Code != http.StatusBadRequest {
			t.Errorf("rating %d: expected 400 got %d", rating, w.Code)
			continue
		}
		var resp struct {
			Field string `json:"field"`
		}
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.Field != "rating" {
			t.Errorf("rating %d: expected field rating, got %q", rating, resp.Field)
		}
	}
	for _, rating := range []int{1, 5} {
		if w := post(rating); w.Code != http.StatusCreated {
			t.Errorf("rating %d: expected 201 got %d body=%s", rating, w.Code, w.Body.String())
		}
	}

	var count int64
	db.Model(&models.Feedback{}).Count(&count)
	if count != 2 {
		t.Fatalf("only the in-range ratings persist, got %d rows", count)
	}
}

func TestFeedbackUnknownDonation(t *testing.T) {
	db := setupHandlerTestDB(t)
	donorUser, _ := seedAccount(t, db, models.RoleDonor, "fb-donor", "Springfield")
	h := NewFeedbackHandler(db)

	req := asUser(httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader(`{"rating":4,"donation_id":999}`)), donorUser)
	w := httptest.NewRecorder()
	h.Create(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d body=%s", w.Code, w.Body.String())
	}
}
