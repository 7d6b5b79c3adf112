// Package event defines the normalized GATT event model shared by every
// downstream stage. Raw dissector records are validated here: a record
// missing one of the mandatory fields (frame number, timestamp, attribute
// handle) fails normalization with MalformedRecordError and is skipped by
// the caller rather than aborting the run.
package event

import (
	"fmt"
	"strconv"
	"time"

	"gattscope/internal/gatt"
)

// ConnUnknown marks a record whose connection could not be determined.
const ConnUnknown = -1

// Record is one raw dissector record before validation. Presence flags
// distinguish "absent" from zero values for fields where zero is legal.
type Record struct {
	Frame        uint32
	Timestamp    time.Time
	HasTimestamp bool
	Conn         int
	Opcode       gatt.Opcode
	Handle       uint16
	HasHandle    bool
	Value        string
}

// Event is one normalized GATT protocol occurrence. Immutable after
// normalization.
type Event struct {
	Frame     uint32
	Timestamp time.Time
	Conn      int
	Opcode    gatt.Opcode
	Handle    uint16
	Value     string
}

// ConnString renders the connection identifier for reports, "N/A" when the
// connection is unknown.
func (e Event) ConnString() string {
	if e.Conn == ConnUnknown {
		return "N/A"
	}
	return strconv.Itoa(e.Conn)
}

// MalformedRecordError reports a record that cannot become an Event. Callers
// skip the record and keep processing; one corrupt frame must not discard an
// entire capture's analysis.
type MalformedRecordError struct {
	Frame  uint32
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record (frame %d): %s", e.Frame, e.Reason)
}

// Normalize produces exactly one Event from a raw record, or fails with
// MalformedRecordError when a mandatory field is absent. Unknown opcodes are
// not an error; they keep their raw value and render under a synthesized
// label.
func Normalize(rec Record) (Event, error) {
	if rec.Frame == 0 {
		return Event{}, &MalformedRecordError{Frame: rec.Frame, Reason: "missing frame number"}
	}
	if !rec.HasTimestamp || rec.Timestamp.IsZero() {
		return Event{}, &MalformedRecordError{Frame: rec.Frame, Reason: "missing timestamp"}
	}
	if !rec.HasHandle {
		return Event{}, &MalformedRecordError{Frame: rec.Frame, Reason: "missing attribute handle"}
	}
	return Event{
		Frame:     rec.Frame,
		Timestamp: rec.Timestamp,
		Conn:      rec.Conn,
		Opcode:    rec.Opcode,
		Handle:    rec.Handle,
		Value:     rec.Value,
	}, nil
}
