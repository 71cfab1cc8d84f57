package events

import (
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"gorm.io/gorm"

	"github.com/donorlink/donorlink/internal/models"
)

// Notifier consumes lifecycle events and persists a Notification row for the
// owning user. Events for unbound profiles (no user account) are dropped.
type Notifier struct {
	DB   *gorm.DB
	subs []*nats.Subscription
}

func NewNotifier(db *gorm.DB) *Notifier { return &Notifier{DB: db} }

func (n *Notifier) Start(bus *Bus) error {
	for _, pattern := range []string{"donation.>", "request.>"} {
		sub, err := bus.Subscribe(pattern, n.handle)
		if err != nil {
			return err
		}
		n.subs = append(n.subs, sub)
	}
	return nil
}

func (n *Notifier) Stop() {
	for _, sub := range n.subs {
		if err := sub.Drain(); err != nil {
			log.Printf("[notifier] drain: %v", err)
		}
	}
}

func (n *Notifier) handle(subject string, ev Event) {
	if ev.OwnerUser == 0 {
		return
	}
	note := models.Notification{
		UserID:  ev.OwnerUser,
		Type:    subject,
		Title:   notificationTitle(subject, ev),
		Message: fmt.Sprintf("Your %s %q is now %s.", ev.Entity, ev.Title, ev.Status),
		SentAt:  time.Now(),
	}
	if err := n.DB.Create(&note).Error; err != nil {
		log.Printf("[notifier] persist %s: %v", subject, err)
	}
}

func notificationTitle(subject string, ev Event) string {
	if subject == SubjectDonationMatched {
		return "Donation matched with an NGO"
	}
	return fmt.Sprintf("%s %s", ev.Entity, ev.Status)
}
