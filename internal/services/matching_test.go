package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/donorlink/donorlink/internal/apperr"
	"github.com/donorlink/donorlink/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Donor{}, &models.Recipient{}, &models.NGO{},
		&models.Donation{}, &models.Request{}, &models.Match{}, &models.Feedback{}, &models.Notification{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedDonor(t *testing.T, db *gorm.DB, name, city string) models.Donor {
	t.Helper()
	donor := models.Donor{Name: name, Email: name + "@test.example", City: city}
	if err := db.Create(&donor).Error; err != nil {
		t.Fatalf("donor: %v", err)
	}
	return donor
}

func seedNGO(t *testing.T, db *gorm.DB, id uint, name, city string) models.NGO {
	t.Helper()
	ngo := models.NGO{ID: id, Name: name, Email: name + "@ngo.example", City: city}
	if err := db.Create(&ngo).Error; err != nil {
		t.Fatalf("ngo: %v", err)
	}
	return ngo
}

func seedDonation(t *testing.T, db *gorm.DB, donorID uint, title, category, status string) models.Donation {
	t.Helper()
	donation := models.Donation{DonorID: donorID, Title: title, Category: category, Quantity: 3, Status: status}
	if err := db.Create(&donation).Error; err != nil {
		t.Fatalf("donation: %v", err)
	}
	return donation
}

func TestMatchDonationSameCityLowestID(t *testing.T) {
	db := setupTestDB(t)
	donor := seedDonor(t, db, "springfield-donor", "Springfield")
	seedNGO(t, db, 2, "shelbyville-relief", "Shelbyville")
	seedNGO(t, db, 7, "helping-hands", "Springfield")
	donation := seedDonation(t, db, donor.ID, "Winter Coats", "Clothing", models.DonationPending)

	svc := NewMatchingService(db, nil)
	res, err := svc.MatchDonation(context.Background(), donation.ID)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if !res.Matched || res.NGOID != 7 {
		t.Fatalf("expected match with ngo 7, got %+v", res)
	}

	var got models.Donation
	if err := db.First(&got, donation.ID).Error; err != nil {
		t.Fatal(err)
	}
	if got.Status != models.DonationAccepted {
		t.Fatalf("expected accepted, got %s", got.Status)
	}
	if got.NGOID == nil || *got.NGOID != 7 {
		t.Fatalf("expected ngo_id=7, got %v", got.NGOID)
	}

	var match models.Match
	if err := db.Where("donation_id = ?", donation.ID).First(&match).Error; err != nil {
		t.Fatalf("match row missing: %v", err)
	}
	if match.NGOID != 7 || match.Status != models.MatchMatched {
		t.Fatalf("unexpected match row: %+v", match)
	}
	if match.MatchedAt.IsZero() {
		t.Fatal("matched_at not set")
	}
}

func TestMatchDonationTieBreak(t *testing.T) {
	db := setupTestDB(t)
	donor := seedDonor(t, db, "tiebreak-donor", "Springfield")
	seedNGO(t, db, 9, "later-ngo", "Springfield")
	seedNGO(t, db, 5, "earlier-ngo", "Springfield")
	donation := seedDonation(t, db, donor.ID, "Books", "Books", models.DonationPending)

	svc := NewMatchingService(db, nil)
	res, err := svc.MatchDonation(context.Background(), donation.ID)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if res.NGOID != 5 {
		t.Fatalf("tie-break must pick lowest id, got %d", res.NGOID)
	}
}

func TestMatchDonationNoNGOInCity(t *testing.T) {
	db := setupTestDB(t)
	donor := seedDonor(t, db, "nowhere-donor", "Nowhere")
	seedNGO(t, db, 1, "elsewhere", "Springfield")
	donation := seedDonation(t, db, donor.ID, "Food Box", "Food", models.DonationPending)

	svc := NewMatchingService(db, nil)
	res, err := svc.MatchDonation(context.Background(), donation.ID)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if res.Matched {
		t.Fatalf("expected no match, got %+v", res)
	}

	var got models.Donation
	db.First(&got, donation.ID)
	if got.Status != models.DonationPending || got.NGOID != nil {
		t.Fatalf("failure path must not mutate: status=%s ngo=%v", got.Status, got.NGOID)
	}
	var count int64
	db.Model(&models.Match{}).Count(&count)
	if count != 0 {
		t.Fatalf("no match row expected, got %d", count)
	}
}

func TestMatchDonationNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMatchingService(db, nil)
	_, err := svc.MatchDonation(context.Background(), 12345)
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestMatchDonationNotPending(t *testing.T) {
	db := setupTestDB(t)
	donor := seedDonor(t, db, "done-donor", "Springfield")
	seedNGO(t, db, 1, "hh", "Springfield")
	donation := seedDonation(t, db, donor.ID, "Toys", "Toys", models.DonationDelivered)

	svc := NewMatchingService(db, nil)
	_, err := svc.MatchDonation(context.Background(), donation.ID)
	if apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("expected invalid_state, got %v", err)
	}
	var got models.Donation
	db.First(&got, donation.ID)
	if got.Status != models.DonationDelivered || got.NGOID != nil {
		t.Fatalf("precondition failure must not mutate: %+v", got)
	}
}

func TestMatchDonationGuardsRematch(t *testing.T) {
	db := setupTestDB(t)
	donor := seedDonor(t, db, "rematch-donor", "Springfield")
	seedNGO(t, db, 1, "hh2", "Springfield")
	donation := seedDonation(t, db, donor.ID, "Lamps", "Furniture", models.DonationPending)

	svc := NewMatchingService(db, nil)
	if _, err := svc.MatchDonation(context.Background(), donation.ID); err != nil {
		t.Fatalf("first match: %v", err)
	}
	_, err := svc.MatchDonation(context.Background(), donation.ID)
	if apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("second match must fail with invalid_state, got %v", err)
	}
	var count int64
	db.Model(&models.Match{}).Where("donation_id = ?", donation.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected a single match row, got %d", count)
	}
}

func TestMatchDonationLinksPendingRequest(t *testing.T) {
	db := setupTestDB(t)
	donor := seedDonor(t, db, "linking-donor", "Springfield")
	ngo := seedNGO(t, db, 3, "linker", "Springfield")
	recipient := models.Recipient{Name: "family", Email: "family@test.example", City: "Springfield", FamilySize: 4, Urgency: models.UrgencyHigh}
	if err := db.Create(&recipient).Error; err != nil {
		t.Fatal(err)
	}
	// Two candidate requests; the older one (lowest id) must win.
	older := models.Request{RecipientID: recipient.ID, Title: "Need coats", Category: "Clothing", Quantity: 2, Urgency: models.UrgencyHigh, Status: models.RequestPending}
	newer := models.Request{RecipientID: recipient.ID, Title: "More coats", Category: "Clothing", Quantity: 1, Urgency: models.UrgencyLow, Status: models.RequestPending}
	if err := db.Create(&older).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(&newer).Error; err != nil {
		t.Fatal(err)
	}
	donation := seedDonation(t, db, donor.ID, "Winter Coats", "Clothing", models.DonationPending)

	svc := NewMatchingService(db, nil)
	res, err := svc.MatchDonation(context.Background(), donation.ID)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if res.RequestID == nil || *res.RequestID != older.ID {
		t.Fatalf("expected linked request %d, got %v", older.ID, res.RequestID)
	}

	var linked models.Request
	db.First(&linked, older.ID)
	if linked.Status != models.RequestAccepted || linked.NGOID == nil || *linked.NGOID != ngo.ID {
		t.Fatalf("linked request not accepted by ngo: %+v", linked)
	}
	var untouched models.Request
	db.First(&untouched, newer.ID)
	if untouched.Status != models.RequestPending {
		t.Fatalf("other request must stay pending, got %s", untouched.Status)
	}

	var match models.Match
	db.Where("donation_id = ?", donation.ID).First(&match)
	if match.RequestID == nil || *match.RequestID != older.ID {
		t.Fatalf("match row must reference the request: %+v", match)
	}
}

func TestMatchResultErrorShape(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMatchingService(db, nil)
	_, err := svc.MatchDonation(context.Background(), 999)
	var de *apperr.Error
	if !errors.As(err, &de) || de.Code != "donation_not_found" {
		t.Fatalf("expected donation_not_found, got %v", err)
	}
}
