package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/donorlink/donorlink/internal/apperr"
	"github.com/donorlink/donorlink/internal/events"
	"github.com/donorlink/donorlink/internal/models"
)

// MatchingService brokers pending donations to NGOs. Policy: the NGO in the
// donor's city with the lowest identifier wins (explicit ORDER BY, never
// insertion order). The Match row is the authoritative linkage; Donation.NGOID
// is denormalized from it inside the same transaction.
type MatchingService struct {
	DB  *gorm.DB
	Bus events.Publisher
}

func NewMatchingService(db *gorm.DB, bus events.Publisher) *MatchingService {
	return &MatchingService{DB: db, Bus: bus}
}

type MatchResult struct {
	Matched   bool  `json:"matched"`
	NGOID     uint  `json:"ngo_id,omitempty"`
	MatchID   uint  `json:"match_id,omitempty"`
	RequestID *uint `json:"request_id,omitempty"`
}

// MatchDonation finds a same-city NGO for a pending donation and records the
// match. The failure paths (absent donation, non-pending status, no NGO in
// the donor's city) are side-effect-free.
func (s *MatchingService) MatchDonation(ctx context.Context, donationID uint) (MatchResult, error) {
	var donation models.Donation
	if err := s.DB.WithContext(ctx).Preload("Donor").First(&donation, donationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MatchResult{}, apperr.NotFound("donation_not_found")
		}
		return MatchResult{}, err
	}
	if donation.Status != models.DonationPending {
		return MatchResult{}, apperr.InvalidState("donation_not_pending", donation.Status, "match")
	}

	var ngo models.NGO
	err := s.DB.WithContext(ctx).
		Where("city = ?", donation.Donor.City).
		Order("id ASC").
		First(&ngo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return MatchResult{Matched: false}, nil
	}
	if err != nil {
		return MatchResult{}, err
	}

	var match models.Match
	var linkedReq *models.Request
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Guarded write: a concurrent matcher or accept loses here.
		res := tx.Model(&models.Donation{}).
			Where("id = ? AND status = ?", donation.ID, models.DonationPending).
			Updates(map[string]any{"ngo_id": ngo.ID, "status": models.DonationAccepted})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.InvalidState("donation_not_pending", models.DonationAccepted, "match")
		}

		linkedReq = s.linkRequest(tx, &donation, ngo.ID)

		match = models.Match{
			DonationID: donation.ID,
			NGOID:      ngo.ID,
			Status:     models.MatchMatched,
			MatchedAt:  time.Now(),
		}
		if linkedReq != nil {
			match.RequestID = &linkedReq.ID
		}
		return tx.Create(&match).Error
	})
	if err != nil {
		return MatchResult{}, err
	}

	s.publishMatched(&donation, &ngo, linkedReq)
	return MatchResult{Matched: true, NGOID: ngo.ID, MatchID: match.ID, RequestID: match.RequestID}, nil
}

// linkRequest picks the oldest pending request with the same category in the
// donor's city and moves it to accepted under the same guard. A missing or
// contested request never blocks the NGO match.
func (s *MatchingService) linkRequest(tx *gorm.DB, donation *models.Donation, ngoID uint) *models.Request {
	var req models.Request
	err := tx.Joins("JOIN recipients ON recipients.id = requests.recipient_id").
		Where("requests.status = ? AND requests.category = ? AND recipients.city = ?",
			models.RequestPending, donation.Category, donation.Donor.City).
		Order("requests.id ASC").
		First(&req).Error
	if err != nil {
		return nil
	}
	res := tx.Model(&models.Request{}).
		Where("id = ? AND status = ?", req.ID, models.RequestPending).
		Updates(map[string]any{"ngo_id": ngoID, "status": models.RequestAccepted})
	if res.Error != nil || res.RowsAffected == 0 {
		return nil
	}
	return &req
}

func (s *MatchingService) publishMatched(donation *models.Donation, ngo *models.NGO, linkedReq *models.Request) {
	if s.Bus == nil {
		return
	}
	ev := events.Event{
		Entity:     "donation",
		EntityID:   donation.ID,
		NGOID:      ngo.ID,
		Status:     models.DonationAccepted,
		Title:      donation.Title,
		OccurredAt: time.Now(),
	}
	if donation.Donor.UserID != nil {
		ev.OwnerUser = *donation.Donor.UserID
	}
	s.Bus.Publish(events.SubjectDonationMatched, ev)

	if linkedReq == nil {
		return
	}
	rev := events.Event{
		Entity:     "request",
		EntityID:   linkedReq.ID,
		NGOID:      ngo.ID,
		Status:     models.RequestAccepted,
		Title:      linkedReq.Title,
		OccurredAt: time.Now(),
	}
	var recipient models.Recipient
	if err := s.DB.First(&recipient, linkedReq.RecipientID).Error; err == nil && recipient.UserID != nil {
		rev.OwnerUser = *recipient.UserID
	}
	s.Bus.Publish(events.RequestStatusSubject(models.RequestAccepted), rev)
}
