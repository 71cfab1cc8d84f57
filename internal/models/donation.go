package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Donation statuses. Delivered and cancelled are terminal.
const (
	DonationPending   = "pending"
	DonationAccepted  = "accepted"
	DonationDelivered = "delivered"
	DonationCancelled = "cancelled"
)

// Request statuses. Fulfilled and cancelled are terminal.
const (
	RequestPending   = "pending"
	RequestAccepted  = "accepted"
	RequestFulfilled = "fulfilled"
	RequestCancelled = "cancelled"
)

// Match statuses
const (
	MatchMatched   = "matched"
	MatchDelivered = "delivered"
	MatchCancelled = "cancelled"
)

// Donation is an item offer submitted by a Donor. NGOID is denormalized from
// the authoritative Match row when the matching engine runs, or set directly
// by an NGO accept.
type Donation struct {
	ID          uint      `gorm:"primaryKey"`
	PublicID    uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	DonorID     uint      `gorm:"not null;index"`
	Donor       Donor     `gorm:"foreignKey:DonorID;constraint:OnDelete:CASCADE"`
	NGOID       *uint     `gorm:"index"`
	NGO         *NGO      `gorm:"foreignKey:NGOID;constraint:OnDelete:SET NULL"`
	Title       string    `gorm:"not null"`
	Description string
	Category    string `gorm:"not null;index"`
	Quantity    int    `gorm:"not null;default:1"`
	Status      string `gorm:"not null;default:'pending';index"`
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (d *Donation) BeforeCreate(_ *gorm.DB) error {
	if d.PublicID == uuid.Nil {
		d.PublicID = uuid.New()
	}
	return nil
}

// Request is a need submitted by a Recipient.
type Request struct {
	ID          uint      `gorm:"primaryKey"`
	PublicID    uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	RecipientID uint      `gorm:"not null;index"`
	Recipient   Recipient `gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE"`
	NGOID       *uint     `gorm:"index"`
	NGO         *NGO      `gorm:"foreignKey:NGOID;constraint:OnDelete:SET NULL"`
	Title       string    `gorm:"not null"`
	Description string
	Category    string `gorm:"not null;index"`
	Quantity    int    `gorm:"not null;default:1"`
	Urgency     string `gorm:"not null;default:'medium'"`
	Status      string `gorm:"not null;default:'pending';index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r *Request) BeforeCreate(_ *gorm.DB) error {
	if r.PublicID == uuid.Nil {
		r.PublicID = uuid.New()
	}
	return nil
}

// Match is the authoritative association of a Donation, an optional Request,
// and the brokering NGO.
type Match struct {
	ID          uint      `gorm:"primaryKey"`
	PublicID    uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	DonationID  uint      `gorm:"not null;index"`
	Donation    Donation  `gorm:"foreignKey:DonationID;constraint:OnDelete:CASCADE"`
	RequestID   *uint     `gorm:"index"`
	Request     *Request  `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE"`
	NGOID       uint      `gorm:"not null;index"`
	NGO         NGO       `gorm:"foreignKey:NGOID"`
	Status      string    `gorm:"not null;default:'matched'"`
	MatchedAt   time.Time
	DeliveredAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (m *Match) BeforeCreate(_ *gorm.DB) error {
	if m.PublicID == uuid.Nil {
		m.PublicID = uuid.New()
	}
	return nil
}

// Feedback left by a user, optionally tied to a donation.
type Feedback struct {
	ID         uint      `gorm:"primaryKey"`
	PublicID   uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	UserID     uint      `gorm:"not null;index"`
	User       User      `gorm:"foreignKey:UserID"`
	DonationID *uint     `gorm:"index"`
	Donation   *Donation `gorm:"foreignKey:DonationID"`
	Rating     int       `gorm:"not null"` // 1..5 inclusive
	Comment    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (f *Feedback) BeforeCreate(_ *gorm.DB) error {
	if f.PublicID == uuid.Nil {
		f.PublicID = uuid.New()
	}
	return nil
}
