package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Urgency levels for recipients and requests
const (
	UrgencyLow      = "low"
	UrgencyMedium   = "medium"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

// Donor offers items. UserID is nullable so profiles can exist before an
// account is bound to them (admin imports).
type Donor struct {
	ID        uint      `gorm:"primaryKey"`
	PublicID  uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	UserID    *uint     `gorm:"index"`
	Name      string    `gorm:"not null;index"`
	Email     string    `gorm:"unique;not null"`
	Phone     string
	Address   string
	City      string `gorm:"index"`
	State     string
	Pincode   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (d *Donor) BeforeCreate(_ *gorm.DB) error {
	if d.PublicID == uuid.Nil {
		d.PublicID = uuid.New()
	}
	return nil
}

// Recipient posts requests for needed items.
type Recipient struct {
	ID         uint      `gorm:"primaryKey"`
	PublicID   uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	UserID     *uint     `gorm:"index"`
	Name       string    `gorm:"not null;index"`
	Email      string    `gorm:"unique;not null"`
	Phone      string
	FamilySize int    `gorm:"not null;default:1"`
	Urgency    string `gorm:"not null;default:'medium'"` // low, medium, high, critical
	Address    string
	City       string `gorm:"index"`
	State      string
	Pincode    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (r *Recipient) BeforeCreate(_ *gorm.DB) error {
	if r.PublicID == uuid.Nil {
		r.PublicID = uuid.New()
	}
	return nil
}

// NGO triages donations and requests for its city.
type NGO struct {
	ID        uint      `gorm:"primaryKey"`
	PublicID  uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	UserID    *uint     `gorm:"index"`
	Name      string    `gorm:"not null;index"`
	Email     string    `gorm:"unique;not null"`
	Phone     string
	Website   string
	Address   string
	City      string `gorm:"not null;index"`
	State     string
	Pincode   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (n *NGO) BeforeCreate(_ *gorm.DB) error {
	if n.PublicID == uuid.Nil {
		n.PublicID = uuid.New()
	}
	return nil
}
