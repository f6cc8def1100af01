package types

import "time"

// EventKind is the kind of a file-change notification.
type EventKind string

const (
	EventAdded   EventKind = "added"
	EventChanged EventKind = "changed"
	EventRemoved EventKind = "removed"
)

// FileEvent is one file-change notification from the watcher collaborator.
// Content for added/changed files is read by the ingestion coordinator, not
// carried in the event.
type FileEvent struct {
	Kind EventKind
	Path string
	Time time.Time
}
