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

type EntityType string

const (
	EntityDonation EntityType = "donation"
	EntityRequest  EntityType = "request"
)

type Action string

const (
	ActionAccept  Action = "accept"
	ActionDecline Action = "decline"
	ActionDeliver Action = "deliver"
	ActionFulfill Action = "fulfill"
)

type rule struct{ from, to string }

var donationRules = map[Action]rule{
	ActionAccept:  {models.DonationPending, models.DonationAccepted},
	ActionDecline: {models.DonationPending, models.DonationCancelled},
	ActionDeliver: {models.DonationAccepted, models.DonationDelivered},
}

var requestRules = map[Action]rule{
	ActionAccept:  {models.RequestPending, models.RequestAccepted},
	ActionDecline: {models.RequestPending, models.RequestCancelled},
	ActionFulfill: {models.RequestAccepted, models.RequestFulfilled},
}

// LifecycleService enforces the legal state transitions for donations and
// requests when an NGO actor acts on them. Delivered, fulfilled, and
// cancelled are terminal: no rule leads out of them.
type LifecycleService struct {
	DB  *gorm.DB
	Bus events.Publisher
}

func NewLifecycleService(db *gorm.DB, bus events.Publisher) *LifecycleService {
	return &LifecycleService{DB: db, Bus: bus}
}

type TransitionResult struct {
	OK        bool   `json:"ok"`
	NewStatus string `json:"new_status,omitempty"`
}

// Transition applies one action to one entity as a single guarded write.
// Two concurrent callers cannot both succeed: the UPDATE carries the source
// state in its WHERE clause and the loser sees zero rows affected.
func (s *LifecycleService) Transition(ctx context.Context, et EntityType, id uint, action Action, actorNGOID uint) (TransitionResult, error) {
	if actorNGOID == 0 {
		return TransitionResult{}, apperr.Unauthorized("ngo_actor_required")
	}
	var ngo models.NGO
	if err := s.DB.WithContext(ctx).First(&ngo, actorNGOID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TransitionResult{}, apperr.Unauthorized("unknown_ngo_actor")
		}
		return TransitionResult{}, err
	}

	switch et {
	case EntityDonation:
		return s.transitionDonation(ctx, id, action, actorNGOID)
	case EntityRequest:
		return s.transitionRequest(ctx, id, action, actorNGOID)
	default:
		return TransitionResult{}, apperr.Validation("entity_type", "unknown_entity_type")
	}
}

func (s *LifecycleService) transitionDonation(ctx context.Context, id uint, action Action, actorNGOID uint) (TransitionResult, error) {
	r, ok := donationRules[action]
	if !ok {
		return TransitionResult{}, apperr.Validation("action", "unsupported_action")
	}
	var donation models.Donation
	if err := s.DB.WithContext(ctx).Preload("Donor").First(&donation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TransitionResult{}, apperr.NotFound("donation_not_found")
		}
		return TransitionResult{}, err
	}
	if donation.Status != r.from {
		return TransitionResult{}, apperr.InvalidState("illegal_donation_transition", donation.Status, string(action))
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fields := map[string]any{"status": r.to}
		if action == ActionAccept {
			fields["ngo_id"] = actorNGOID
		}
		res := tx.Model(&models.Donation{}).
			Where("id = ? AND status = ?", id, r.from).
			Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost a race since the precondition read.
			return apperr.InvalidState("illegal_donation_transition", currentDonationStatus(tx, id), string(action))
		}
		if action == ActionDeliver {
			// Keep the authoritative Match row consistent with the entity.
			now := time.Now()
			if err := tx.Model(&models.Match{}).
				Where("donation_id = ? AND status = ?", id, models.MatchMatched).
				Updates(map[string]any{"status": models.MatchDelivered, "delivered_at": now}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return TransitionResult{}, err
	}

	s.publish(events.DonationStatusSubject(r.to), events.Event{
		Entity:     "donation",
		EntityID:   donation.ID,
		OwnerUser:  derefUser(donation.Donor.UserID),
		NGOID:      actorNGOID,
		Status:     r.to,
		Title:      donation.Title,
		OccurredAt: time.Now(),
	})
	return TransitionResult{OK: true, NewStatus: r.to}, nil
}

func (s *LifecycleService) transitionRequest(ctx context.Context, id uint, action Action, actorNGOID uint) (TransitionResult, error) {
	r, ok := requestRules[action]
	if !ok {
		return TransitionResult{}, apperr.Validation("action", "unsupported_action")
	}
	var request models.Request
	if err := s.DB.WithContext(ctx).Preload("Recipient").First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TransitionResult{}, apperr.NotFound("request_not_found")
		}
		return TransitionResult{}, err
	}
	if request.Status != r.from {
		return TransitionResult{}, apperr.InvalidState("illegal_request_transition", request.Status, string(action))
	}

	fields := map[string]any{"status": r.to}
	if action == ActionAccept {
		fields["ngo_id"] = actorNGOID
	}
	res := s.DB.WithContext(ctx).Model(&models.Request{}).
		Where("id = ? AND status = ?", id, r.from).
		Updates(fields)
	if res.Error != nil {
		return TransitionResult{}, res.Error
	}
	if res.RowsAffected == 0 {
		return TransitionResult{}, apperr.InvalidState("illegal_request_transition", currentRequestStatus(s.DB, id), string(action))
	}

	s.publish(events.RequestStatusSubject(r.to), events.Event{
		Entity:     "request",
		EntityID:   request.ID,
		OwnerUser:  derefUser(request.Recipient.UserID),
		NGOID:      actorNGOID,
		Status:     r.to,
		Title:      request.Title,
		OccurredAt: time.Now(),
	})
	return TransitionResult{OK: true, NewStatus: r.to}, nil
}

func (s *LifecycleService) publish(subject string, ev events.Event) {
	if s.Bus != nil {
		s.Bus.Publish(subject, ev)
	}
}

func currentDonationStatus(tx *gorm.DB, id uint) string {
	var status string
	tx.Model(&models.Donation{}).Where("id = ?", id).Pluck("status", &status)
	return status
}

func currentRequestStatus(tx *gorm.DB, id uint) string {
	var status string
	tx.Model(&models.Request{}).Where("id = ?", id).Pluck("status", &status)
	return status
}

func derefUser(uid *uint) uint {
	if uid == nil {
		return 0
	}
	return *uid
}
