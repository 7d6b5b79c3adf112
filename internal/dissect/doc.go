// Package dissect turns raw captured Bluetooth frames into ATT protocol
// records.
//
// Layering:
//
//	┌─────────────────────────────────────────┐
//	│      capture.RawFrame                   │
//	└─────────────────┬───────────────────────┘
//	                  │
//	        ┌─────────┴──────────┐
//	        ▼                    ▼
//	┌───────────────┐    ┌───────────────┐
//	│ HCI H4 / H4+  │    │ LE link layer │  ← link-type framing
//	│ phdr (187/201)│    │ (251)         │    commands, events and
//	└───────┬───────┘    └───────┬───────┘    control PDUs drop here
//	        │ ACL fragments      │ LLID fragments
//	        └─────────┬──────────┘
//	                  ▼
//	┌─────────────────────────────────────────┐
//	│  L2CAP reassembly (per connection)      │  ← start opens a buffer,
//	│                                         │    continuations append,
//	└─────────────────┬───────────────────────┘    complete PDUs pop out
//	                  │ CID 0x0004 only
//	                  ▼
//	┌─────────────────────────────────────────┐
//	│  ATT PDU field extraction               │  ← opcode, handle, value;
//	│                                         │    bare responses inherit
//	└─────────────────┬───────────────────────┘    the request's handle
//	                  ▼
//	            event.Record
//
// The dissector is stateful per connection: it remembers the outstanding
// request (so handle-less responses can be attributed to a handle), the
// outstanding indication, and the pending L2CAP buffer. Handle/UUID pairs
// seen in Find Information Responses are forwarded to a HandleSink for
// attribute naming.
package dissect
