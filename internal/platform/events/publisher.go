// Package events provides a fire-and-forget NATS publisher for comment
// change notifications. Downstream consumers (dashboards, audit trails)
// subscribe to the comments.* subjects.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subject constants for every change-notification type.
const (
	SubjectStoreChanged        = "comments.store_changed"
	SubjectSelectionChanged    = "comments.selection_changed"
	SubjectPresentationChanged = "comments.presentation_changed"
	SubjectNotice              = "comments.notice"
)

// Envelope is the canonical message sent to all comments.* subjects.
type Envelope struct {
	EventID    string         `json:"event_id"`
	ScopeID    string         `json:"scope_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Publisher publishes change notifications to NATS JetStream.
// The zero value and a nil pointer are both safe no-op stubs.
type Publisher struct {
	js  nats.JetStreamContext
	log *zap.Logger
}

// New creates a Publisher using an existing JetStream context.
// Pass js=nil to get a no-op stub (useful in tests and deployments without NATS).
func New(js nats.JetStreamContext, log *zap.Logger) *Publisher {
	return &Publisher{js: js, log: log}
}

// Publish sends a notification asynchronously (fire-and-forget).
// Failures are logged as warnings and never surface to the caller.
// The publisher is safe to call with a nil receiver.
func (p *Publisher) Publish(subject, scopeID string, props map[string]any) {
	if p == nil || p.js == nil {
		return
	}
	ev := Envelope{
		EventID:    uuid.NewString(),
		ScopeID:    scopeID,
		OccurredAt: time.Now().UTC(),
		Properties: props,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("events: marshal failed", zap.String("subject", subject), zap.Error(err))
		return
	}
	if _, err := p.js.PublishAsync(subject, data); err != nil {
		p.log.Warn("events: publish failed", zap.String("subject", subject), zap.Error(err))
	}
}
