// Package events carries lifecycle events over an embedded NATS server.
// Core operations never depend on delivery: when the server cannot start
// the bus degrades to a no-op.
package events

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// Subjects published by the matching engine and lifecycle manager.
const (
	SubjectDonationMatched = "donation.matched"
	donationStatusPrefix   = "donation.status."
	requestStatusPrefix    = "request.status."
)

func DonationStatusSubject(status string) string { return donationStatusPrefix + status }
func RequestStatusSubject(status string) string  { return requestStatusPrefix + status }

// Event is the JSON payload carried on every subject.
type Event struct {
	Entity     string    `json:"entity"` // "donation" or "request"
	EntityID   uint      `json:"entity_id"`
	OwnerUser  uint      `json:"owner_user,omitempty"` // user to notify, 0 when profile is unbound
	NGOID      uint      `json:"ngo_id,omitempty"`
	Status     string    `json:"status"`
	Title      string    `json:"title,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher is the narrow interface services depend on.
type Publisher interface {
	Publish(subject string, ev Event)
}

// Bus wraps an embedded NATS server plus a client connection.
type Bus struct {
	srv *server.Server
	nc  *nats.Conn
}

// Start runs an in-process NATS server on the given port (-1 picks a random
// free port) and connects to it.
func Start(port int) (*Bus, error) {
	opts := &server.Options{Port: port, NoSigs: true}
	srv, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("nats server: %w", err)
	}
	go srv.Start()
	if !srv.ReadyForConnections(5 * time.Second) {
		srv.Shutdown()
		return nil, fmt.Errorf("nats server not ready")
	}
	nc, err := nats.Connect(srv.ClientURL())
	if err != nil {
		srv.Shutdown()
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Bus{srv: srv, nc: nc}, nil
}

func (b *Bus) Publish(subject string, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[events] marshal %s: %v", subject, err)
		return
	}
	if err := b.nc.Publish(subject, data); err != nil {
		log.Printf("[events] publish %s: %v", subject, err)
	}
}

// Subscribe registers a handler for a subject pattern.
func (b *Bus) Subscribe(subject string, handler func(subject string, ev Event)) (*nats.Subscription, error) {
	return b.nc.Subscribe(subject, func(msg *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			log.Printf("[events] bad payload on %s: %v", msg.Subject, err)
			return
		}
		handler(msg.Subject, ev)
	})
}

// Flush blocks until published messages have been processed by the server.
func (b *Bus) Flush() error { return b.nc.Flush() }

func (b *Bus) Close() {
	if b.nc != nil {
		b.nc.Close()
	}
	if b.srv != nil {
		b.srv.Shutdown()
	}
}

// Noop is the fallback publisher used when the embedded server fails to start.
type Noop struct{}

func (Noop) Publish(string, Event) {}
