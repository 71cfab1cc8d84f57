package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/donorlink/donorlink/internal/auth"
	"github.com/donorlink/donorlink/internal/models"
)

func setupHandlerTestDB(t *testing.T) *gorm.DB {
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

// seedAccount creates a user plus its role profile and returns both ids.
func seedAccount(t *testing.T, db *gorm.DB, role, name, city string) (user models.User, profileID uint) {
	t.Helper()
	user = models.User{Email: name + "@test.example", PasswordHash: "x", Role: role}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	switch role {
	case models.RoleDonor:
		donor := models.Donor{UserID: &user.ID, Name: name, Email: user.Email, City: city}
		if err := db.Create(&donor).Error; err != nil {
			t.Fatalf("donor: %v", err)
		}
		profileID = donor.ID
	case models.RoleRecipient:
		recipient := models.Recipient{UserID: &user.ID, Name: name, Email: user.Email, City: city, FamilySize: 2, Urgency: models.UrgencyMedium}
		if err := db.Create(&recipient).Error; err != nil {
			t.Fatalf("recipient: %v", err)
		}
		profileID = recipient.ID
	case models.RoleNGO:
		ngo := models.NGO{UserID: &user.ID, Name: name, Email: user.Email, City: city}
		if err := db.Create(&ngo).Error; err != nil {
			t.Fatalf("ngo: %v", err)
		}
		profileID = ngo.ID
	}
	return user, profileID
}

// asUser attaches the authenticated identity the way auth.Middleware would.
func asUser(r *http.Request, user models.User) *http.Request {
	return r.WithContext(auth.WithIdentity(r.Context(), auth.Identity{UserID: user.ID, Role: user.Role}))
}
