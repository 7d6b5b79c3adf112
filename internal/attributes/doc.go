// Package attributes provides expression evaluation for event filters and
// custom span attributes, plus the deterministic per-capture trace ID.
//
// Expressions are written in the expr language and evaluated against a
// per-event environment:
//
//	frame   int     frame number in the capture
//	conn    int     connection id (-1 when unknown)
//	handle  int     attribute handle
//	op      string  operation display name, e.g. "Write Request"
//	value   string  extracted value field
//	ts      float   seconds since the first event of the capture
//
// Two evaluators:
//   - Filter: compiled boolean predicate selecting events
//   - Evaluator: evaluates NAME=EXPR custom attribute definitions per event
//
// Trace IDs are not evaluated, they are derived: SHA-256 of the capture path
// and the first frame timestamp, so re-running the same capture lands in the
// same trace.
package attributes
