package gatt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpcode_String_Known(t *testing.T) {
	assert.Equal(t, "Error Response", OpErrorResponse.String())
	assert.Equal(t, "Read By Type Request", OpReadByTypeRequest.String())
	assert.Equal(t, "Write Request", OpWriteRequest.String())
	assert.Equal(t, "Handle Value Notification", OpHandleValueNotification.String())
	assert.Equal(t, "Signed Write Command", OpSignedWriteCommand.String())
}

func TestOpcode_String_Unknown(t *testing.T) {
	assert.Equal(t, "Unknown: 0x21", Opcode(0x21).String())
	assert.Equal(t, "Unknown: 0xff", Opcode(0xff).String())
	assert.False(t, Opcode(0x21).Known())
}

func TestOpcode_Response_Pairing(t *testing.T) {
	resp, ok := OpReadRequest.Response()
	require.True(t, ok)
	assert.Equal(t, OpReadResponse, resp)

	resp, ok = OpExchangeMTURequest.Response()
	require.True(t, ok)
	assert.Equal(t, OpExchangeMTUResponse, resp)

	// An indication is answered by a confirmation.
	resp, ok = OpHandleValueIndication.Response()
	require.True(t, ok)
	assert.Equal(t, OpHandleValueConfirmation, resp)
}

func TestOpcode_Response_NoneForCommands(t *testing.T) {
	_, ok := OpWriteCommand.Response()
	assert.False(t, ok)

	_, ok = OpHandleValueNotification.Response()
	assert.False(t, ok)

	_, ok = OpReadResponse.Response()
	assert.False(t, ok)
}

func TestOpcode_IsRequest(t *testing.T) {
	assert.True(t, OpWriteRequest.IsRequest())
	assert.True(t, OpHandleValueIndication.IsRequest())
	assert.False(t, OpWriteResponse.IsRequest())
	assert.False(t, OpErrorResponse.IsRequest())
}

func TestOpcode_IsResponse(t *testing.T) {
	assert.True(t, OpErrorResponse.IsResponse())
	assert.True(t, OpWriteResponse.IsResponse())
	assert.True(t, OpHandleValueConfirmation.IsResponse())
	assert.False(t, OpWriteRequest.IsResponse())
	assert.False(t, OpWriteCommand.IsResponse())
	assert.False(t, OpHandleValueNotification.IsResponse())
}

func TestOpcode_SequentialWrite_Policy(t *testing.T) {
	assert.True(t, OpWriteRequest.SequentialWrite())
	assert.True(t, OpWriteCommand.SequentialWrite())
	assert.True(t, OpSignedWriteCommand.SequentialWrite())
	assert.True(t, OpPrepareWriteRequest.SequentialWrite())
	assert.True(t, OpHandleValueNotification.SequentialWrite())

	assert.False(t, OpWriteResponse.SequentialWrite())
	assert.False(t, OpReadResponse.SequentialWrite())
	assert.False(t, OpExecuteWriteRequest.SequentialWrite())
	assert.False(t, OpHandleValueIndication.SequentialWrite())
}

func TestErrorName(t *testing.T) {
	assert.Equal(t, "Invalid Handle", ErrorName(0x01))
	assert.Equal(t, "Attribute Not Found", ErrorName(0x0a))
	assert.Equal(t, "Insufficient Resources", ErrorName(0x11))
	assert.Equal(t, "Reserved Error 0x80", ErrorName(0x80))
}
