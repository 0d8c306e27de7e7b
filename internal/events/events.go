// Package events carries mutation notifications between running vcadmin processes.
//
// Every successful mutation publishes an Event on `<prefix>.<entity>.<action>`.
// Browse and watch screens subscribe to `<prefix>.<entity>.>` and refresh their
// controller when something changes.
package events

import (
	"context"
	"strings"
	"time"
)

// DefaultPrefix is the subject prefix used when none is configured.
const DefaultPrefix = "vcadmin"

// Entities that emit events.
const (
	EntityIngredient   = "ingredient"
	EntityProduct      = "product"
	EntitySubscription = "subscription"
	EntityProfile      = "profile"
)

// Actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Publisher sends events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Event describes one completed mutation.
type Event struct {
	Entity     string         `json:"entity"`
	Action     string         `json:"action"`
	Key        string         `json:"key"`
	Changes    map[string]any `json:"changes,omitempty"`
	TraceID    string         `json:"trace_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Topic builds the subject for an entity action.
func Topic(prefix, entity, action string) string {
	return join(prefix, entity, action)
}

// EntityTopic builds the wildcard subject matching every action on entity.
func EntityTopic(prefix, entity string) string {
	return join(prefix, entity, ">")
}

func join(prefix string, parts ...string) string {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + "." + strings.Join(parts, ".")
}
