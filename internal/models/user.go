package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Actor roles
const (
	RoleDonor     = "donor"
	RoleRecipient = "recipient"
	RoleNGO       = "ngo"
	RoleAdmin     = "admin"
)

// User & auth related models
type User struct {
	ID           uint      `gorm:"primaryKey"`
	PublicID     uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	Email        string    `gorm:"unique;not null;index"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"not null;index"` // donor, recipient, ngo, admin
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.PublicID == uuid.Nil {
		u.PublicID = uuid.New()
	}
	return nil
}

type Notification struct {
	ID        uint      `gorm:"primaryKey"`
	PublicID  uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	UserID    uint      `gorm:"not null;index"`
	User      User      `gorm:"foreignKey:UserID"`
	Type      string    // ex: "donation.matched", "request.status.accepted"
	Title     string
	Message   string
	Read      bool
	SentAt    time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	if n.PublicID == uuid.Nil {
		n.PublicID = uuid.New()
	}
	return nil
}
