package flow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gattscope/internal/event"
	"gattscope/internal/gatt"
)

func eventAt(frame uint32, ts time.Time) event.Event {
	return event.Event{
		Frame:     frame,
		Timestamp: ts,
		Conn:      1,
		Opcode:    gatt.OpReadRequest,
		Handle:    0x0003,
	}
}

func TestAssemble_FirstEntryIsZero(t *testing.T) {
	base := time.Unix(10, 0)
	entries := Assemble([]event.Event{
		eventAt(100, base),
		eventAt(101, base.Add(10*time.Millisecond)),
	})

	require.Len(t, entries, 2)
	assert.Equal(t, time.Duration(0), entries[0].Relative)
	assert.Equal(t, 10*time.Millisecond, entries[1].Relative)
}

func TestAssemble_RelativeTimesAreNonDecreasing(t *testing.T) {
	base := time.Unix(100, 0)
	var events []event.Event
	for i := 0; i < 10; i++ {
		events = append(events, eventAt(uint32(i+1), base.Add(time.Duration(i*i)*time.Millisecond)))
	}

	entries := Assemble(events)
	require.Len(t, entries, 10)
	for i := 1; i < len(entries); i++ {
		assert.GreaterOrEqual(t, entries[i].Relative, entries[i-1].Relative,
			"entry %d must not move backwards", i)
	}
}

func TestAssemble_Empty(t *testing.T) {
	assert.Empty(t, Assemble(nil))
	assert.Empty(t, Assemble([]event.Event{}))
}

func TestAssemble_PreservesInputOrder(t *testing.T) {
	base := time.Unix(10, 0)
	entries := Assemble([]event.Event{
		eventAt(100, base),
		eventAt(101, base.Add(10*time.Millisecond)),
		eventAt(102, base.Add(250*time.Millisecond)),
	})

	require.Len(t, entries, 3)
	assert.Equal(t, uint32(100), entries[0].Frame)
	assert.Equal(t, uint32(101), entries[1].Frame)
	assert.Equal(t, uint32(102), entries[2].Frame)
}
