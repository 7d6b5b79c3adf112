package transaction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gattscope/internal/event"
	"gattscope/internal/gatt"
)

func ev(frame uint32, conn int, op gatt.Opcode, handle uint16, value string) event.Event {
	return event.Event{
		Frame:     frame,
		Timestamp: time.Unix(100, int64(frame)*1e6),
		Conn:      conn,
		Opcode:    op,
		Handle:    handle,
		Value:     value,
	}
}

func TestPair_RequestResponsePair(t *testing.T) {
	txs := Pair([]event.Event{
		ev(1, 0, gatt.OpReadRequest, 0x0010, ""),
		ev(2, 0, gatt.OpReadResponse, 0x0010, "payload"),
	})
	require.Len(t, txs, 1)

	tx := txs[0]
	require.NotNil(t, tx.Request)
	require.NotNil(t, tx.Response)
	assert.Equal(t, uint32(1), tx.Request.Frame)
	assert.Equal(t, uint32(2), tx.Response.Frame)
	assert.Equal(t, gatt.OpReadRequest, tx.Kind())
	assert.True(t, tx.End().After(tx.Start()))
}

func TestPair_ErrorResponseClosesAnyRequest(t *testing.T) {
	txs := Pair([]event.Event{
		ev(1, 0, gatt.OpReadRequest, 0x0010, ""),
		ev(2, 0, gatt.OpErrorResponse, 0x0010, "Attribute Not Found"),
	})
	require.Len(t, txs, 1)
	require.NotNil(t, txs[0].Response)

	reason, failed := txs[0].Failed()
	assert.True(t, failed)
	assert.Equal(t, "Attribute Not Found", reason)
}

func TestPair_MismatchedResponseIsOrphan(t *testing.T) {
	txs := Pair([]event.Event{
		ev(1, 0, gatt.OpReadRequest, 0x0010, ""),
		ev(2, 0, gatt.OpWriteResponse, 0, ""),
	})
	require.Len(t, txs, 2)
	assert.Nil(t, txs[0].Response)
	assert.Nil(t, txs[1].Request)
	assert.Equal(t, gatt.OpWriteResponse, txs[1].Kind())
}

func TestPair_ConnectionsAreIndependent(t *testing.T) {
	txs := Pair([]event.Event{
		ev(1, 0, gatt.OpReadRequest, 0x0010, ""),
		ev(2, 1, gatt.OpReadRequest, 0x0020, ""),
		ev(3, 1, gatt.OpReadResponse, 0x0020, "b"),
		ev(4, 0, gatt.OpReadResponse, 0x0010, "a"),
	})
	require.Len(t, txs, 2)
	require.NotNil(t, txs[0].Response)
	require.NotNil(t, txs[1].Response)
	assert.Equal(t, uint32(4), txs[0].Response.Frame)
	assert.Equal(t, uint32(3), txs[1].Response.Frame)
}

func TestPair_NewRequestAbandonsUnanswered(t *testing.T) {
	txs := Pair([]event.Event{
		ev(1, 0, gatt.OpReadRequest, 0x0010, ""),
		ev(2, 0, gatt.OpReadRequest, 0x0020, ""),
		ev(3, 0, gatt.OpReadResponse, 0x0020, "x"),
	})
	require.Len(t, txs, 2)
	assert.Nil(t, txs[0].Response)
	require.NotNil(t, txs[1].Response)
	assert.Equal(t, uint32(3), txs[1].Response.Frame)
}

func TestPair_IndicationConfirmation(t *testing.T) {
	txs := Pair([]event.Event{
		ev(1, 0, gatt.OpHandleValueIndication, 0x002a, "temp"),
		ev(2, 0, gatt.OpReadRequest, 0x0010, ""),
		ev(3, 0, gatt.OpHandleValueConfirmation, 0, ""),
		ev(4, 0, gatt.OpReadResponse, 0x0010, "v"),
	})
	require.Len(t, txs, 2)

	require.NotNil(t, txs[0].Response)
	assert.Equal(t, gatt.OpHandleValueIndication, txs[0].Kind())
	assert.Equal(t, uint32(3), txs[0].Response.Frame)
	require.NotNil(t, txs[1].Response)
	assert.Equal(t, uint32(4), txs[1].Response.Frame)
}

func TestPair_CommandsStandAlone(t *testing.T) {
	txs := Pair([]event.Event{
		ev(1, 0, gatt.OpWriteCommand, 0x0004, "a"),
		ev(2, 0, gatt.OpHandleValueNotification, 0x000d, "b"),
		ev(3, 0, gatt.Opcode(0x21), 0, ""),
	})
	require.Len(t, txs, 3)
	for _, tx := range txs {
		require.NotNil(t, tx.Request)
		assert.Nil(t, tx.Response)
		assert.Equal(t, tx.Start(), tx.End())
	}
}

func TestPair_Empty(t *testing.T) {
	assert.Empty(t, Pair(nil))
}
