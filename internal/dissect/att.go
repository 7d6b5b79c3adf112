package dissect

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"gattscope/internal/capture"
	"gattscope/internal/event"
	"gattscope/internal/gatt"
)

// Find Information Response formats [Vol 3, Part F, 3.4.3.2].
const (
	fmtHandleUUID16  = 0x01
	fmtHandleUUID128 = 0x02
)

// attRecord extracts one record from a complete ATT PDU. A PDU too short for
// its mandatory fields comes back with HasHandle=false so normalization can
// classify it as malformed without losing the frame number.
func (d *Dissector) attRecord(conn int, frame capture.RawFrame, pdu []byte) *event.Record {
	if len(pdu) == 0 {
		return nil
	}

	op := gatt.Opcode(pdu[0])
	t := d.conn(conn)
	rec := &event.Record{
		Frame:        frame.Number,
		Timestamp:    frame.Timestamp,
		HasTimestamp: true,
		Conn:         conn,
		Opcode:       op,
		HasHandle:    true,
	}
	truncated := func() *event.Record {
		rec.HasHandle = false
		return rec
	}

	switch op {
	case gatt.OpErrorResponse:
		if len(pdu) < 5 {
			return truncated()
		}
		rec.Handle = binary.LittleEndian.Uint16(pdu[2:])
		rec.Value = gatt.ErrorName(pdu[4])
		t.clearRequest()

	case gatt.OpExchangeMTURequest:
		if len(pdu) < 3 {
			return truncated()
		}
		rec.Value = fmt.Sprintf("MTU: %d", binary.LittleEndian.Uint16(pdu[1:]))
		t.setRequest(op, 0)

	case gatt.OpExchangeMTUResponse:
		if len(pdu) < 3 {
			return truncated()
		}
		rec.Handle = t.takeRequest(op)
		rec.Value = fmt.Sprintf("MTU: %d", binary.LittleEndian.Uint16(pdu[1:]))

	case gatt.OpFindInformationRequest:
		if len(pdu) < 5 {
			return truncated()
		}
		start := binary.LittleEndian.Uint16(pdu[1:])
		end := binary.LittleEndian.Uint16(pdu[3:])
		rec.Handle = start
		rec.Value = fmt.Sprintf("Range: 0x%04x-0x%04x", start, end)
		t.setRequest(op, start)

	case gatt.OpFindInformationResponse:
		entrySize := 4
		if len(pdu) >= 2 && pdu[1] == fmtHandleUUID128 {
			entrySize = 18
		}
		if len(pdu) < 2+entrySize || (pdu[1] != fmtHandleUUID16 && pdu[1] != fmtHandleUUID128) {
			return truncated()
		}
		for off := 2; off+entrySize <= len(pdu); off += entrySize {
			h := binary.LittleEndian.Uint16(pdu[off:])
			if off == 2 {
				rec.Handle = h
				rec.Value = uuidLabel(pdu[off+2 : off+entrySize])
			}
			if entrySize == 4 && d.sink != nil {
				d.sink.AddPair(conn, h, binary.LittleEndian.Uint16(pdu[off+2:]))
			}
		}
		t.clearRequest()

	case gatt.OpFindByTypeValueRequest:
		if len(pdu) < 7 {
			return truncated()
		}
		start := binary.LittleEndian.Uint16(pdu[1:])
		rec.Handle = start
		if len(pdu) > 7 {
			rec.Value = renderValue(pdu[7:])
		} else {
			rec.Value = uuidLabel(pdu[5:7])
		}
		t.setRequest(op, start)

	case gatt.OpFindByTypeValueResponse:
		if len(pdu) < 3 {
			return truncated()
		}
		rec.Handle = binary.LittleEndian.Uint16(pdu[1:])
		t.clearRequest()

	case gatt.OpReadByTypeRequest, gatt.OpReadByGroupTypeRequest:
		if len(pdu) < 7 {
			return truncated()
		}
		start := binary.LittleEndian.Uint16(pdu[1:])
		rec.Handle = start
		rec.Value = uuidLabel(pdu[5:])
		t.setRequest(op, start)

	case gatt.OpReadByTypeResponse:
		// [1] is the per-entry length; entries are handle + value.
		if len(pdu) < 4 {
			return truncated()
		}
		rec.Handle = binary.LittleEndian.Uint16(pdu[2:])
		if entry := int(pdu[1]); entry > 2 && len(pdu) >= 2+entry {
			rec.Value = renderValue(pdu[4 : 2+entry])
		}
		t.clearRequest()

	case gatt.OpReadByGroupTypeResponse:
		// [1] is the per-entry length; entries are start + end + value.
		if len(pdu) < 4 {
			return truncated()
		}
		rec.Handle = binary.LittleEndian.Uint16(pdu[2:])
		if entry := int(pdu[1]); entry > 4 && len(pdu) >= 2+entry {
			rec.Value = renderValue(pdu[6 : 2+entry])
		}
		t.clearRequest()

	case gatt.OpReadRequest:
		if len(pdu) < 3 {
			return truncated()
		}
		rec.Handle = binary.LittleEndian.Uint16(pdu[1:])
		t.setRequest(op, rec.Handle)

	case gatt.OpReadBlobRequest:
		if len(pdu) < 5 {
			return truncated()
		}
		rec.Handle = binary.LittleEndian.Uint16(pdu[1:])
		t.setRequest(op, rec.Handle)

	case gatt.OpReadMultipleRequest:
		// [Vol 3, Part F, 3.4.4.7] wants two or more handles, but a
		// single one is still attributable.
		if len(pdu) < 3 {
			return truncated()
		}
		rec.Handle = binary.LittleEndian.Uint16(pdu[1:])
		t.setRequest(op, rec.Handle)

	case gatt.OpReadResponse, gatt.OpReadBlobResponse, gatt.OpReadMultipleResponse:
		rec.Handle = t.takeRequest(op)
		rec.Value = renderValue(pdu[1:])

	case gatt.OpWriteRequest:
		if len(pdu) < 3 {
			return truncated()
		}
		rec.Handle = binary.LittleEndian.Uint16(pdu[1:])
		rec.Value = renderValue(pdu[3:])
		t.setRequest(op, rec.Handle)

	case gatt.OpWriteCommand:
		if len(pdu) < 3 {
			return truncated()
		}
		rec.Handle = binary.LittleEndian.Uint16(pdu[1:])
		rec.Value = renderValue(pdu[3:])

	case gatt.OpSignedWriteCommand:
		if len(pdu) < 3 {
			return truncated()
		}
		rec.Handle = binary.LittleEndian.Uint16(pdu[1:])
		val := pdu[3:]
		if len(val) >= 12 {
			// trailing 12-byte authentication signature
			val = val[:len(val)-12]
		}
		rec.Value = renderValue(val)

	case gatt.OpWriteResponse, gatt.OpExecuteWriteResponse:
		rec.Handle = t.takeRequest(op)

	case gatt.OpPrepareWriteRequest:
		if len(pdu) < 5 {
			return truncated()
		}
		rec.Handle = binary.LittleEndian.Uint16(pdu[1:])
		rec.Value = renderValue(pdu[5:])
		t.setRequest(op, rec.Handle)

	case gatt.OpPrepareWriteResponse:
		// echoes handle, offset and value of the request
		if len(pdu) < 5 {
			return truncated()
		}
		rec.Handle = binary.LittleEndian.Uint16(pdu[1:])
		rec.Value = renderValue(pdu[5:])
		t.clearRequest()

	case gatt.OpExecuteWriteRequest:
		if len(pdu) < 2 {
			return truncated()
		}
		t.setRequest(op, 0)

	case gatt.OpHandleValueNotification:
		if len(pdu) < 3 {
			return truncated()
		}
		rec.Handle = binary.LittleEndian.Uint16(pdu[1:])
		rec.Value = renderValue(pdu[3:])

	case gatt.OpHandleValueIndication:
		if len(pdu) < 3 {
			return truncated()
		}
		rec.Handle = binary.LittleEndian.Uint16(pdu[1:])
		rec.Value = renderValue(pdu[3:])
		t.setIndication(rec.Handle)

	case gatt.OpHandleValueConfirmation:
		rec.Handle = t.takeIndication()

	default:
		// Unrecognized opcode: keep it visible with whatever it carried.
		rec.Value = renderValue(pdu[1:])
	}

	return rec
}

// renderValue shows printable ASCII payloads as text and anything else as
// lowercase hex without separators, so text payloads concatenate naturally
// across write fragments.
func renderValue(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return hex.EncodeToString(b)
		}
	}
	return string(b)
}

// uuidLabel renders a little-endian UUID protocol field: 16-bit UUIDs as
// bare hex digits, 128-bit UUIDs in canonical dashed form.
func uuidLabel(b []byte) string {
	switch len(b) {
	case 2:
		return fmt.Sprintf("UUID: %04x", binary.LittleEndian.Uint16(b))
	case 16:
		var be [16]byte
		for i := range b {
			be[i] = b[15-i]
		}
		u, err := uuid.FromBytes(be[:])
		if err != nil {
			return ""
		}
		return "UUID: " + u.String()
	}
	return ""
}
