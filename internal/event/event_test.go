package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gattscope/internal/gatt"
)

func validRecord() Record {
	return Record{
		Frame:        102,
		Timestamp:    time.Unix(10, 0),
		HasTimestamp: true,
		Conn:         1,
		Opcode:       gatt.OpWriteRequest,
		Handle:       0x0004,
		HasHandle:    true,
		Value:        "Data1",
	}
}

func TestNormalize_Valid(t *testing.T) {
	ev, err := Normalize(validRecord())
	require.NoError(t, err)

	assert.Equal(t, uint32(102), ev.Frame)
	assert.Equal(t, 1, ev.Conn)
	assert.Equal(t, gatt.OpWriteRequest, ev.Opcode)
	assert.Equal(t, uint16(0x0004), ev.Handle)
	assert.Equal(t, "Data1", ev.Value)
}

func TestNormalize_MissingHandle(t *testing.T) {
	rec := validRecord()
	rec.HasHandle = false

	_, err := Normalize(rec)
	require.Error(t, err)

	var malformed *MalformedRecordError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, uint32(102), malformed.Frame)
	assert.Contains(t, malformed.Error(), "missing attribute handle")
}

func TestNormalize_MissingTimestamp(t *testing.T) {
	rec := validRecord()
	rec.HasTimestamp = false

	_, err := Normalize(rec)
	var malformed *MalformedRecordError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, malformed.Error(), "missing timestamp")
}

func TestNormalize_MissingFrameNumber(t *testing.T) {
	rec := validRecord()
	rec.Frame = 0

	_, err := Normalize(rec)
	var malformed *MalformedRecordError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, malformed.Error(), "missing frame number")
}

func TestNormalize_UnknownOpcodeIsNotAnError(t *testing.T) {
	rec := validRecord()
	rec.Opcode = gatt.Opcode(0x21)

	ev, err := Normalize(rec)
	require.NoError(t, err)
	assert.Equal(t, "Unknown: 0x21", ev.Opcode.String())
}

func TestEvent_ConnString(t *testing.T) {
	ev := Event{Conn: 1}
	assert.Equal(t, "1", ev.ConnString())

	ev.Conn = ConnUnknown
	assert.Equal(t, "N/A", ev.ConnString())
}
