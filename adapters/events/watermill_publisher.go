// Package events publishes session lifecycle events on a watermill bus so
// other services can react to logouts.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/layer-3/authsvc/core"
	"github.com/layer-3/authsvc/ports"
)

const (
	// DefaultLogoutTopic is the topic logout events are published to.
	DefaultLogoutTopic = "authsvc.logout"

	// EventTypeKey is the metadata key carrying the event type.
	EventTypeKey = "event_type"

	eventTypeLogout = "session.logout"
)

// LogoutEvent announces that a session token was revoked.
type LogoutEvent struct {
	Email      string    `json:"email"`
	TokenID    string    `json:"token_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// WatermillPublisher implements ports.EventPublisher on any watermill
// publisher (Redis streams in production, gochannel in tests).
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
	clock     core.Clock
}

// NewWatermillPublisher publishes to topic, or DefaultLogoutTopic when empty.
func NewWatermillPublisher(publisher message.Publisher, topic string) ports.EventPublisher {
	if topic == "" {
		topic = DefaultLogoutTopic
	}
	return &WatermillPublisher{
		publisher: publisher,
		topic:     topic,
		clock:     core.SystemClock{},
	}
}

// PublishLogout emits a LogoutEvent keyed by the token id.
func (p *WatermillPublisher) PublishLogout(ctx context.Context, email core.Email, tokenID string) error {
	payload, err := json.Marshal(LogoutEvent{
		Email:      email.String(),
		TokenID:    tokenID,
		OccurredAt: p.clock.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal logout event: %w", err)
	}

	msg := message.NewMessage(tokenID, payload)
	msg.Metadata.Set(EventTypeKey, eventTypeLogout)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("publish logout event to %s: %w", p.topic, err)
	}
	return nil
}

// DecodeLogoutEvent parses a message produced by PublishLogout.
func DecodeLogoutEvent(msg *message.Message) (LogoutEvent, error) {
	if t := msg.Metadata.Get(EventTypeKey); t != eventTypeLogout {
		return LogoutEvent{}, fmt.Errorf("unexpected event type %q", t)
	}
	var event LogoutEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return LogoutEvent{}, fmt.Errorf("decode logout event: %w", err)
	}
	return event, nil
}

// NopPublisher drops every event. Used when no message bus is configured.
type NopPublisher struct{}

func (NopPublisher) PublishLogout(context.Context, core.Email, string) error { return nil }
