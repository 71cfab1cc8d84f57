package events

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/donorlink/donorlink/internal/models"
)

func startTestBus(t *testing.T) *Bus {
	t.Helper()
	bus, err := Start(-1)
	if err != nil {
		t.Fatalf("start bus: %v", err)
	}
	t.Cleanup(bus.Close)
	return bus
}

func TestBusPublishRoundTrip(t *testing.T) {
	bus := startTestBus(t)

	received := make(chan Event, 1)
	if _, err := bus.Subscribe("donation.>", func(subject string, ev Event) {
		received <- ev
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	sent := Event{
		Entity:     "donation",
		EntityID:   12,
		OwnerUser:  3,
		NGOID:      7,
		Status:     "accepted",
		Title:      "Winter Coats",
		OccurredAt: time.Now(),
	}
	bus.Publish(SubjectDonationMatched, sent)
	if err := bus.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	select {
	case got := <-received:
		if got.EntityID != sent.EntityID || got.OwnerUser != sent.OwnerUser || got.Status != sent.Status {
			t.Fatalf("payload mismatch: %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestNotifierPersistsNotification(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:notifiertest?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Notification{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	bus := startTestBus(t)

	notifier := NewNotifier(db)
	if err := notifier.Start(bus); err != nil {
		t.Fatalf("start notifier: %v", err)
	}
	defer notifier.Stop()

	bus.Publish(DonationStatusSubject("delivered"), Event{
		Entity: "donation", EntityID: 4, OwnerUser: 11, Status: "delivered", Title: "Chairs", OccurredAt: time.Now(),
	})
	// Unbound profile: must be dropped.
	bus.Publish(DonationStatusSubject("delivered"), Event{
		Entity: "donation", EntityID: 5, OwnerUser: 0, Status: "delivered", OccurredAt: time.Now(),
	})
	if err := bus.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		var notes []models.Notification
		db.Find(&notes)
		if len(notes) == 1 {
			if notes[0].UserID != 11 || notes[0].Read {
				t.Fatalf("unexpected notification: %+v", notes[0])
			}
			return
		}
		if len(notes) > 1 {
			t.Fatalf("owner-less event must be dropped, got %d rows", len(notes))
		}
		if time.Now().After(deadline) {
			t.Fatal("notification never persisted")
		}
		time.Sleep(20 * time.Millisecond)
	}
}
