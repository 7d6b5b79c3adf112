package dissect

import (
	"encoding/binary"

	"gattscope/internal/capture"
	"gattscope/internal/event"
)

// LE link-layer framing for raw air captures [Vol 6, Part B].
const (
	// advertisingAA is the fixed access address of the advertising
	// channels. Nothing on it carries ATT.
	advertisingAA = 0x8e89bed6

	llidContinuation = 0x01 // continuation of an L2CAP PDU (or empty keep-alive)
	llidStart        = 0x02 // start of (or complete) L2CAP PDU
	llidControl      = 0x03 // LL control PDU
)

// dissectLL parses one LE link-layer air packet: access address, 2-byte data
// channel header, payload, and a trailing 3-byte CRC when the sniffer kept
// it.
func (d *Dissector) dissectLL(frame capture.RawFrame) *event.Record {
	data := frame.Data
	if len(data) < 6 {
		return nil
	}

	aa := binary.LittleEndian.Uint32(data[0:4])
	if aa == advertisingAA {
		return nil
	}

	llid := data[4] & 0x03
	plen := int(data[5])
	payload := data[6:]
	if plen > len(payload) {
		// snipped by the sniffer's snap length, keep what is there
		plen = len(payload)
	}
	payload = payload[:plen]

	if llid == llidControl || plen == 0 {
		return nil
	}

	conn := d.llConn(aa)

	var (
		cid uint16
		pdu []byte
		ok  bool
	)
	switch llid {
	case llidStart:
		cid, pdu, ok = d.asm.startFragment(conn, frame.Number, payload)
	case llidContinuation:
		cid, pdu, ok = d.asm.continueFragment(conn, frame.Number, payload)
	default:
		return nil
	}
	if !ok || cid != cidATT {
		return nil
	}
	return d.attRecord(conn, frame, pdu)
}
