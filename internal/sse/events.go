// Package sse implements Server-Sent Events for pushing diary changes to
// connected pages.
package sse

import (
	"time"

	"github.com/daybookapp/daybook-server/internal/repository"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventEntryCreated represents a diary entry creation.
	EventEntryCreated EventType = "entry.created"
	// EventEntryUpdated represents a diary entry update.
	EventEntryUpdated EventType = "entry.updated"
	// EventEntryDeleted represents a diary entry deletion.
	EventEntryDeleted EventType = "entry.deleted"
	// EventEntriesLoaded represents the initial snapshot load completing.
	EventEntriesLoaded EventType = "entries.loaded"

	// EventPhotoImported represents a photo landing in the import folder.
	EventPhotoImported EventType = "photo.imported"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// EntryEventData is the data payload for entry events: the affected id
// and what happened to it. Pages re-read the views they care about.
type EntryEventData struct {
	EntryID string `json:"entryId"`
}

// PhotoImportedEventData is the data payload for photo import events.
type PhotoImportedEventData struct {
	Filename string `json:"filename"`
}

// NewEntryEvent builds the SSE event for a repository change.
func NewEntryEvent(change repository.Change) (Event, bool) {
	var eventType EventType
	switch change.Kind {
	case repository.ChangeCreated:
		eventType = EventEntryCreated
	case repository.ChangeUpdated:
		eventType = EventEntryUpdated
	case repository.ChangeDeleted:
		eventType = EventEntryDeleted
	case repository.ChangeLoaded:
		eventType = EventEntriesLoaded
	default:
		return Event{}, false
	}

	return Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      EntryEventData{EntryID: change.EntryID},
	}, true
}

// NewPhotoImportedEvent builds the SSE event for an imported photo file.
func NewPhotoImportedEvent(filename string) Event {
	return Event{
		Type:      EventPhotoImported,
		Timestamp: time.Now(),
		Data:      PhotoImportedEventData{Filename: filename},
	}
}

// NewHeartbeatEvent builds a keepalive event.
func NewHeartbeatEvent() Event {
	return Event{
		Type:      EventHeartbeat,
		Timestamp: time.Now(),
	}
}
