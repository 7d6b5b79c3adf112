// Package transaction pairs requests with the responses that answer them.
// ATT permits one outstanding request and one outstanding indication per
// connection per direction, so correlation is two slots per connection: a
// response closes the slot whose pending opcode it answers, Error Response
// closes the request slot regardless of kind. Commands, notifications and
// unrecognized opcodes stand alone.
package transaction

import (
	"time"

	"gattscope/internal/event"
	"gattscope/internal/gatt"
)

// Transaction is one protocol exchange. Request is the initiating event
// (or a standalone one); Response is the event that answered it. Either
// side may be nil: unanswered requests keep a nil Response, responses that
// arrive with nothing outstanding keep a nil Request.
type Transaction struct {
	Request  *event.Event
	Response *event.Event
}

// Kind names the transaction: the request's opcode when present, otherwise
// the orphan response's.
func (t *Transaction) Kind() gatt.Opcode {
	if t.Request != nil {
		return t.Request.Opcode
	}
	return t.Response.Opcode
}

// Conn returns the transaction's connection id.
func (t *Transaction) Conn() int {
	if t.Request != nil {
		return t.Request.Conn
	}
	return t.Response.Conn
}

// Start returns the capture timestamp of the first event in the exchange.
func (t *Transaction) Start() time.Time {
	if t.Request != nil {
		return t.Request.Timestamp
	}
	return t.Response.Timestamp
}

// End returns the capture timestamp of the last event in the exchange.
func (t *Transaction) End() time.Time {
	if t.Response != nil {
		return t.Response.Timestamp
	}
	return t.Request.Timestamp
}

// Failed returns the ATT error description when the exchange ended in an
// Error Response.
func (t *Transaction) Failed() (string, bool) {
	if t.Response != nil && t.Response.Opcode == gatt.OpErrorResponse {
		return t.Response.Value, true
	}
	return "", false
}

// slot tracks one outstanding exchange: the index of its transaction in the
// output and the opcode that opened it.
type slot struct {
	idx int
	op  gatt.Opcode
}

// Pair walks events in capture order and groups them into transactions,
// ordered by their initiating event. A new request on a connection abandons
// any still-unanswered one there (its transaction keeps a nil Response).
func Pair(events []event.Event) []Transaction {
	var out []Transaction
	reqs := make(map[int]slot)
	inds := make(map[int]slot)

	open := func(slots map[int]slot, ev *event.Event) {
		out = append(out, Transaction{Request: ev})
		slots[ev.Conn] = slot{idx: len(out) - 1, op: ev.Opcode}
	}
	answer := func(slots map[int]slot, ev *event.Event) bool {
		s, ok := slots[ev.Conn]
		if !ok {
			return false
		}
		if ev.Opcode != gatt.OpErrorResponse {
			want, ok := s.op.Response()
			if !ok || want != ev.Opcode {
				return false
			}
		}
		out[s.idx].Response = ev
		delete(slots, ev.Conn)
		return true
	}

	for i := range events {
		ev := &events[i]
		switch {
		case ev.Opcode == gatt.OpHandleValueIndication:
			open(inds, ev)
		case ev.Opcode == gatt.OpHandleValueConfirmation:
			if !answer(inds, ev) {
				out = append(out, Transaction{Response: ev})
			}
		case ev.Opcode.IsRequest():
			open(reqs, ev)
		case ev.Opcode.IsResponse():
			if !answer(reqs, ev) {
				out = append(out, Transaction{Response: ev})
			}
		default:
			out = append(out, Transaction{Request: ev})
		}
	}
	return out
}
