package dissect

import (
	"encoding/binary"

	"gattscope/internal/capture"
	"gattscope/internal/event"
)

// HCI UART (H4) packet indicators [Vol 4, Part A, 2].
const (
	pktTypeCommand uint8 = 0x01
	pktTypeACLData uint8 = 0x02
	pktTypeSCOData uint8 = 0x03
	pktTypeEvent   uint8 = 0x04
)

// Packet boundary flags of the HCI ACL data header [Vol 2, Part E, 5.4.2].
const (
	pbfHostToControllerStart = 0x00
	pbfContinuing            = 0x01
	pbfControllerToHostStart = 0x02
	pbfCompleteL2CAPPDU      = 0x03
)

// dissectH4 parses one H4 frame. Only ACL data packets can carry ATT;
// commands, events and SCO data are skipped without comment.
func (d *Dissector) dissectH4(frame capture.RawFrame, data []byte) *event.Record {
	if len(data) < 1 || data[0] != pktTypeACLData {
		return nil
	}

	acl := data[1:]
	if len(acl) < 4 {
		d.issue("frame %d: ACL header truncated", frame.Number)
		return nil
	}

	// Handle+flags word: bits 0-11 connection handle, 12-13 PB flag.
	hf := binary.LittleEndian.Uint16(acl[0:2])
	conn := int(hf & 0x0fff)
	pb := uint8(hf >> 12 & 0x03)

	payload := acl[4:]
	if dlen := int(binary.LittleEndian.Uint16(acl[2:4])); dlen < len(payload) {
		payload = payload[:dlen]
	}

	var (
		cid uint16
		pdu []byte
		ok  bool
	)
	if pb == pbfContinuing {
		cid, pdu, ok = d.asm.continueFragment(conn, frame.Number, payload)
	} else {
		cid, pdu, ok = d.asm.startFragment(conn, frame.Number, payload)
	}
	if !ok || cid != cidATT {
		return nil
	}
	return d.attRecord(conn, frame, pdu)
}
