// Package gatt defines the ATT opcode space and the classification tables the
// analyzer applies to it: display names, the request/response pairing table,
// and the sequential-write policy used for payload reconstruction.
package gatt

import "fmt"

// Opcode is an ATT protocol opcode [Vol 3, Part F, 3.4].
type Opcode uint8

const (
	OpErrorResponse Opcode = 0x01

	// MTU exchange
	OpExchangeMTURequest  Opcode = 0x02
	OpExchangeMTUResponse Opcode = 0x03

	// Information and service discovery
	OpFindInformationRequest   Opcode = 0x04
	OpFindInformationResponse  Opcode = 0x05
	OpFindByTypeValueRequest   Opcode = 0x06
	OpFindByTypeValueResponse  Opcode = 0x07
	OpReadByTypeRequest        Opcode = 0x08
	OpReadByTypeResponse       Opcode = 0x09
	OpReadByGroupTypeRequest   Opcode = 0x10
	OpReadByGroupTypeResponse  Opcode = 0x11

	// Reads
	OpReadRequest          Opcode = 0x0a
	OpReadResponse         Opcode = 0x0b
	OpReadBlobRequest      Opcode = 0x0c
	OpReadBlobResponse     Opcode = 0x0d
	OpReadMultipleRequest  Opcode = 0x0e
	OpReadMultipleResponse Opcode = 0x0f

	// Writes
	OpWriteRequest         Opcode = 0x12
	OpWriteResponse        Opcode = 0x13
	OpPrepareWriteRequest  Opcode = 0x16
	OpPrepareWriteResponse Opcode = 0x17
	OpExecuteWriteRequest  Opcode = 0x18
	OpExecuteWriteResponse Opcode = 0x19

	// Server-initiated
	OpHandleValueNotification Opcode = 0x1b
	OpHandleValueIndication   Opcode = 0x1d
	OpHandleValueConfirmation Opcode = 0x1e

	// Unacknowledged writes (command flag / authentication flag set)
	OpWriteCommand       Opcode = 0x52
	OpSignedWriteCommand Opcode = 0xd2
)

var opcodeNames = map[Opcode]string{
	OpErrorResponse:           "Error Response",
	OpExchangeMTURequest:      "Exchange MTU Request",
	OpExchangeMTUResponse:     "Exchange MTU Response",
	OpFindInformationRequest:  "Find Information Request",
	OpFindInformationResponse: "Find Information Response",
	OpFindByTypeValueRequest:  "Find By Type Value Request",
	OpFindByTypeValueResponse: "Find By Type Value Response",
	OpReadByTypeRequest:       "Read By Type Request",
	OpReadByTypeResponse:      "Read By Type Response",
	OpReadRequest:             "Read Request",
	OpReadResponse:            "Read Response",
	OpReadBlobRequest:         "Read Blob Request",
	OpReadBlobResponse:        "Read Blob Response",
	OpReadMultipleRequest:     "Read Multiple Request",
	OpReadMultipleResponse:    "Read Multiple Response",
	OpReadByGroupTypeRequest:  "Read By Group Type Request",
	OpReadByGroupTypeResponse: "Read By Group Type Response",
	OpWriteRequest:            "Write Request",
	OpWriteResponse:           "Write Response",
	OpPrepareWriteRequest:     "Prepare Write Request",
	OpPrepareWriteResponse:    "Prepare Write Response",
	OpExecuteWriteRequest:     "Execute Write Request",
	OpExecuteWriteResponse:    "Execute Write Response",
	OpHandleValueNotification: "Handle Value Notification",
	OpHandleValueIndication:   "Handle Value Indication",
	OpHandleValueConfirmation: "Handle Value Confirmation",
	OpWriteCommand:            "Write Command",
	OpSignedWriteCommand:      "Signed Write Command",
}

// respFor maps each request opcode to the response opcode that answers it.
// Commands and notifications are absent: nothing answers them.
var respFor = map[Opcode]Opcode{
	OpExchangeMTURequest:     OpExchangeMTUResponse,
	OpFindInformationRequest: OpFindInformationResponse,
	OpFindByTypeValueRequest: OpFindByTypeValueResponse,
	OpReadByTypeRequest:      OpReadByTypeResponse,
	OpReadRequest:            OpReadResponse,
	OpReadBlobRequest:        OpReadBlobResponse,
	OpReadMultipleRequest:    OpReadMultipleResponse,
	OpReadByGroupTypeRequest: OpReadByGroupTypeResponse,
	OpWriteRequest:           OpWriteResponse,
	OpPrepareWriteRequest:    OpPrepareWriteResponse,
	OpExecuteWriteRequest:    OpExecuteWriteResponse,
	OpHandleValueIndication:  OpHandleValueConfirmation,
}

// sequentialWrite marks the kinds whose payloads are fragments of one logical
// value on a handle. Responses are excluded (their values echo the request),
// as are Execute Write (no value) and Read Blob continuations (reported
// individually).
var sequentialWrite = map[Opcode]bool{
	OpWriteRequest:            true,
	OpWriteCommand:            true,
	OpSignedWriteCommand:      true,
	OpPrepareWriteRequest:     true,
	OpHandleValueNotification: true,
}

// Known reports whether the opcode has a display name.
func (o Opcode) Known() bool {
	_, ok := opcodeNames[o]
	return ok
}

// String returns the display name, or "Unknown: 0xNN" for opcodes outside the
// table so unrecognized protocol variants stay visible in reports.
func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Unknown: 0x%02x", uint8(o))
}

// Response returns the opcode that answers o, if o is a request.
func (o Opcode) Response() (Opcode, bool) {
	resp, ok := respFor[o]
	return resp, ok
}

// IsRequest reports whether o expects an answering PDU.
func (o Opcode) IsRequest() bool {
	_, ok := respFor[o]
	return ok
}

// IsResponse reports whether o answers a request. Error Response answers any
// outstanding request, not a specific one.
func (o Opcode) IsResponse() bool {
	if o == OpErrorResponse {
		return true
	}
	for _, resp := range respFor {
		if resp == o {
			return true
		}
	}
	return false
}

// SequentialWrite reports whether buckets of this kind get a combined value.
func (o Opcode) SequentialWrite() bool {
	return sequentialWrite[o]
}

// Error codes carried by an Error Response PDU [Vol 3, Part F, 3.4.1.1].
var errorNames = map[uint8]string{
	0x01: "Invalid Handle",
	0x02: "Read Not Permitted",
	0x03: "Write Not Permitted",
	0x04: "Invalid PDU",
	0x05: "Insufficient Authentication",
	0x06: "Request Not Supported",
	0x07: "Invalid Offset",
	0x08: "Insufficient Authorization",
	0x09: "Prepare Queue Full",
	0x0a: "Attribute Not Found",
	0x0b: "Attribute Not Long",
	0x0c: "Insufficient Encryption Key Size",
	0x0d: "Invalid Attribute Value Length",
	0x0e: "Unlikely Error",
	0x0f: "Insufficient Encryption",
	0x10: "Unsupported Group Type",
	0x11: "Insufficient Resources",
}

// ErrorName returns the description for an ATT error code.
func ErrorName(code uint8) string {
	if name, ok := errorNames[code]; ok {
		return name
	}
	return fmt.Sprintf("Reserved Error 0x%02x", code)
}
