package dissect

import (
	"fmt"

	"github.com/google/gopacket/layers"

	"gattscope/internal/capture"
	"gattscope/internal/event"
	"gattscope/internal/gatt"
)

// HandleSink receives handle/UUID pairs discovered in Find Information
// Responses. Only 16-bit UUIDs are forwarded; vendor 128-bit UUIDs have no
// well-known names to resolve.
type HandleSink interface {
	AddPair(conn int, handle uint16, uuid16 uint16)
}

// connTrack is the per-connection ATT state. The protocol allows one
// outstanding request per direction, so a single slot each for the pending
// client request and the pending server indication is enough.
type connTrack struct {
	reqOp     gatt.Opcode
	reqHandle uint16
	hasReq    bool
	indHandle uint16
	hasInd    bool
}

func (t *connTrack) setRequest(op gatt.Opcode, handle uint16) {
	t.reqOp, t.reqHandle, t.hasReq = op, handle, true
}

// takeRequest consumes the outstanding request if resp answers it and
// returns the request's handle, 0 otherwise.
func (t *connTrack) takeRequest(resp gatt.Opcode) uint16 {
	if !t.hasReq {
		return 0
	}
	if want, ok := t.reqOp.Response(); !ok || want != resp {
		return 0
	}
	t.hasReq = false
	return t.reqHandle
}

func (t *connTrack) clearRequest() {
	t.hasReq = false
}

func (t *connTrack) setIndication(handle uint16) {
	t.indHandle, t.hasInd = handle, true
}

func (t *connTrack) takeIndication() uint16 {
	if !t.hasInd {
		return 0
	}
	t.hasInd = false
	return t.indHandle
}

// Dissector extracts ATT records from raw frames of one capture. It is not
// safe for concurrent use; feed it frames in file order.
type Dissector struct {
	link layers.LinkType
	sink HandleSink

	asm     *l2capAssembler
	track   map[int]*connTrack
	aaIndex map[uint32]int
	issues  []string
}

// NewDissector builds a dissector for the capture's link type. Unsupported
// link types are rejected here so the caller can fail before reading frames.
func NewDissector(link layers.LinkType, sink HandleSink) (*Dissector, error) {
	switch link {
	case capture.LinkTypeHCIH4, capture.LinkTypeHCIH4WithPhdr, capture.LinkTypeLELL:
	default:
		return nil, fmt.Errorf("unsupported link type %d (want Bluetooth HCI H4, H4 with pseudo-header, or LE LL)", link)
	}
	return &Dissector{
		link:    link,
		sink:    sink,
		asm:     newL2CAPAssembler(),
		track:   make(map[int]*connTrack),
		aaIndex: make(map[uint32]int),
	}, nil
}

// Dissect feeds one frame through the link-type framing, L2CAP reassembly
// and ATT extraction. It returns nil when the frame carries no complete ATT
// PDU (non-ACL traffic, control PDUs, other L2CAP channels, or a fragment
// still waiting for its continuation).
func (d *Dissector) Dissect(frame capture.RawFrame) *event.Record {
	switch d.link {
	case capture.LinkTypeHCIH4:
		return d.dissectH4(frame, frame.Data)
	case capture.LinkTypeHCIH4WithPhdr:
		// 4-byte big-endian direction word, then the H4 frame.
		if len(frame.Data) < 4 {
			return nil
		}
		return d.dissectH4(frame, frame.Data[4:])
	case capture.LinkTypeLELL:
		return d.dissectLL(frame)
	}
	return nil
}

// DrainIssues returns and clears the warnings accumulated since the last
// call (stale reassembly buffers, orphan continuations, truncated headers).
func (d *Dissector) DrainIssues() []string {
	issues := append(d.issues, d.asm.drain()...)
	d.issues = nil
	return issues
}

func (d *Dissector) conn(id int) *connTrack {
	t := d.track[id]
	if t == nil {
		t = &connTrack{}
		d.track[id] = t
	}
	return t
}

// Connections reports how many distinct connections produced ATT traffic.
func (d *Dissector) Connections() int {
	return len(d.track)
}

// llConn interns an access address as a small connection id, assigned in
// first-seen order starting at 0.
func (d *Dissector) llConn(aa uint32) int {
	if id, ok := d.aaIndex[aa]; ok {
		return id
	}
	id := len(d.aaIndex)
	d.aaIndex[aa] = id
	return id
}

func (d *Dissector) issue(format string, args ...any) {
	d.issues = append(d.issues, fmt.Sprintf(format, args...))
}
