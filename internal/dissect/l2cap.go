package dissect

import (
	"encoding/binary"
	"fmt"
)

// L2CAP channel identifiers on LE-U [Vol 3, Part A, 2.1].
const (
	cidATT      uint16 = 0x0004
	cidLESignal uint16 = 0x0005
	cidLESMP    uint16 = 0x0006
)

// pendingPDU is an L2CAP PDU still waiting for continuation fragments.
type pendingPDU struct {
	cid   uint16
	need  int
	buf   []byte
	frame uint32
}

// l2capAssembler rebuilds L2CAP PDUs from transport fragments, one pending
// buffer per connection. Fragments of different PDUs cannot interleave on a
// connection, so a single slot is sufficient.
type l2capAssembler struct {
	pending map[int]*pendingPDU
	issues  []string
}

func newL2CAPAssembler() *l2capAssembler {
	return &l2capAssembler{pending: make(map[int]*pendingPDU)}
}

// startFragment opens a new PDU from a start fragment. It returns the
// complete PDU immediately when the fragment already carries all of it. A
// start while another PDU is pending discards the stale buffer with an
// issue.
func (a *l2capAssembler) startFragment(conn int, frame uint32, p []byte) (uint16, []byte, bool) {
	if stale := a.pending[conn]; stale != nil {
		a.issues = append(a.issues, fmt.Sprintf(
			"frame %d: new L2CAP start on connection %d discards %d buffered bytes from frame %d",
			frame, conn, len(stale.buf), stale.frame))
		delete(a.pending, conn)
	}

	if len(p) < 4 {
		a.issues = append(a.issues, fmt.Sprintf("frame %d: L2CAP header truncated on connection %d", frame, conn))
		return 0, nil, false
	}

	need := int(binary.LittleEndian.Uint16(p[0:2]))
	cid := binary.LittleEndian.Uint16(p[2:4])
	body := p[4:]
	if len(body) >= need {
		return cid, body[:need], true
	}

	// Detach from the frame's backing array before buffering.
	buf := make([]byte, len(body), need)
	copy(buf, body)
	a.pending[conn] = &pendingPDU{cid: cid, need: need, buf: buf, frame: frame}
	return 0, nil, false
}

// continueFragment appends to the pending PDU and returns it once the
// declared length is satisfied.
func (a *l2capAssembler) continueFragment(conn int, frame uint32, p []byte) (uint16, []byte, bool) {
	pdu := a.pending[conn]
	if pdu == nil {
		a.issues = append(a.issues, fmt.Sprintf("frame %d: L2CAP continuation with no pending start on connection %d", frame, conn))
		return 0, nil, false
	}

	pdu.buf = append(pdu.buf, p...)
	if len(pdu.buf) < pdu.need {
		return 0, nil, false
	}

	delete(a.pending, conn)
	return pdu.cid, pdu.buf[:pdu.need], true
}

func (a *l2capAssembler) drain() []string {
	issues := a.issues
	a.issues = nil
	return issues
}
