// Package domain defines the typed event model for the relay.
package domain

import "fmt"

// ObjectType identifies the kind of entity a webhook event concerns.
type ObjectType string

const (
	ObjectActivity ObjectType = "activity"
	ObjectAthlete  ObjectType = "athlete"
)

// Valid reports whether the value is one of the enumerated object types.
func (o ObjectType) Valid() bool {
	return o == ObjectActivity || o == ObjectAthlete
}

// AspectType is the verb of an event: what happened to the referenced object.
type AspectType string

const (
	AspectCreate AspectType = "create"
	AspectUpdate AspectType = "update"
	AspectDelete AspectType = "delete"
)

// Valid reports whether the value is one of the enumerated aspect types.
func (a AspectType) Valid() bool {
	return a == AspectCreate || a == AspectUpdate || a == AspectDelete
}

// ActivityEvent is the decoded Strava webhook notification. It is transient:
// constructed at the intake boundary, consumed once by the processor, discarded.
type ActivityEvent struct {
	ObjectType     ObjectType        `json:"object_type"`
	ObjectID       int64             `json:"object_id"`
	AspectType     AspectType        `json:"aspect_type"`
	OwnerID        int64             `json:"owner_id"`
	SubscriptionID int64             `json:"subscription_id,omitempty"`
	EventTime      int64             `json:"event_time,omitempty"`
	Updates        map[string]string `json:"updates,omitempty"`
}

// Validate checks the enumerated fields and the identifiers the processor
// depends on. An invalid shape is a typed decode error at the boundary, not a
// deep-key lookup failure later on.
func (e ActivityEvent) Validate() error {
	if !e.ObjectType.Valid() {
		return fmt.Errorf("invalid object_type %q", e.ObjectType)
	}
	if !e.AspectType.Valid() {
		return fmt.Errorf("invalid aspect_type %q", e.AspectType)
	}
	if e.ObjectID == 0 {
		return fmt.Errorf("missing object_id")
	}
	if e.OwnerID == 0 {
		return fmt.Errorf("missing owner_id")
	}
	return nil
}
