// Package reassembly reconstructs logical attribute payloads: events are
// bucketed by (connection, handle, operation kind), sorted by frame number,
// and sequential-write buckets concatenate their values into one combined
// payload. This mirrors how large values are fragmented across multiple
// packets on the wire.
package reassembly

import (
	"sort"
	"strings"

	"gattscope/internal/event"
	"gattscope/internal/gatt"
)

// Key identifies one bucket. The connection is part of the key so that a
// handle reused by unrelated links never mixes payloads.
type Key struct {
	Conn   int
	Handle uint16
	Op     gatt.Opcode
}

// Group is one bucket's events in ascending frame-number order.
type Group struct {
	Key    Key
	Events []event.Event
}

// Combined returns the bucket's reconstructed payload for sequential-write
// kinds: the concatenation of every event's value in frame order, empty
// values contributing nothing. The result is a pure function of frame order,
// not arrival order. Non-sequential kinds report false.
func (g *Group) Combined() (string, bool) {
	if !g.Key.Op.SequentialWrite() {
		return "", false
	}
	var sb strings.Builder
	for _, ev := range g.Events {
		sb.WriteString(ev.Value)
	}
	return sb.String(), true
}

// Reconstruct buckets the event sequence and orders each bucket by frame
// number. An event whose frame number already occurs in its bucket is
// dropped and reported as malformed; the rest of the input keeps processing.
// Groups come back ordered for the detail view: handle ascending, then
// operation name, then connection.
func Reconstruct(events []event.Event) ([]Group, []*event.MalformedRecordError) {
	buckets := make(map[Key][]event.Event)
	seen := make(map[Key]map[uint32]bool)
	var malformed []*event.MalformedRecordError

	for _, ev := range events {
		key := Key{Conn: ev.Conn, Handle: ev.Handle, Op: ev.Opcode}
		frames := seen[key]
		if frames == nil {
			frames = make(map[uint32]bool)
			seen[key] = frames
		}
		if frames[ev.Frame] {
			malformed = append(malformed, &event.MalformedRecordError{
				Frame:  ev.Frame,
				Reason: "duplicate frame number in bucket",
			})
			continue
		}
		frames[ev.Frame] = true
		buckets[key] = append(buckets[key], ev)
	}

	groups := make([]Group, 0, len(buckets))
	for key, evs := range buckets {
		sort.Slice(evs, func(i, j int) bool { return evs[i].Frame < evs[j].Frame })
		groups = append(groups, Group{Key: key, Events: evs})
	}

	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i].Key, groups[j].Key
		if a.Handle != b.Handle {
			return a.Handle < b.Handle
		}
		if an, bn := a.Op.String(), b.Op.String(); an != bn {
			return an < bn
		}
		return a.Conn < b.Conn
	})

	return groups, malformed
}
