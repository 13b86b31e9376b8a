package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
)

// Publisher is the subset of *nats.Conn used by the forwarder.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSForwarder republishes local events on NATS subjects "<prefix>.<event name>".
type NATSForwarder struct {
	pub    Publisher
	prefix string
}

// NewNATSForwarder creates a forwarder. An empty prefix publishes bare event names.
func NewNATSForwarder(pub Publisher, prefix string) *NATSForwarder {
	return &NATSForwarder{pub: pub, prefix: strings.TrimSuffix(prefix, ".")}
}

// Subject returns the NATS subject for an event name.
func (f *NATSForwarder) Subject(eventName string) string {
	if f.prefix == "" {
		return eventName
	}
	return f.prefix + "." + eventName
}

// Handle implements Handler.
func (f *NATSForwarder) Handle(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event.EventName(), err)
	}
	if err := f.pub.Publish(f.Subject(event.EventName()), data); err != nil {
		return fmt.Errorf("nats publish %s: %w", event.EventName(), err)
	}
	return nil
}

// ConnectNATS dials url with a client name and unlimited reconnects.
func ConnectNATS(url, name string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return nc, nil
}
