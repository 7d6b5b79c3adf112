// Package flow builds the chronological view: each event annotated with its
// offset from the capture's first event.
package flow

import (
	"time"

	"gattscope/internal/event"
)

// Entry is an event with its relative timestamp.
type Entry struct {
	event.Event
	Relative time.Duration
}

// Assemble annotates the event sequence with timestamps rebased against the
// first event. The input is already chronological (capture feeds are ordered
// by frame time) and is not reordered here. An empty input yields an empty
// flow, not an error.
func Assemble(events []event.Event) []Entry {
	if len(events) == 0 {
		return nil
	}

	baseline := events[0].Timestamp
	entries := make([]Entry, len(events))
	for i, ev := range events {
		entries[i] = Entry{Event: ev, Relative: ev.Timestamp.Sub(baseline)}
	}
	return entries
}
