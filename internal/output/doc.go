// Package output renders processed captures for consumption.
//
// Formatter writes the two-section text report (communication flow summary
// plus per-handle detail) to an io.Writer. OTELFormatter exports the same
// capture as OpenTelemetry spans, one per transaction under a root span.
//
// Both are pure presentation layers. They do NOT:
//   - Parse capture files or ATT payloads
//   - Pair requests with responses
//   - Reassemble sequential writes
//   - Evaluate filter or attribute expressions
//
// All of that is delegated to specialized packages:
//   - flow: relative-time flow entries
//   - reassembly: per-handle operation groups
//   - transaction: request/response pairing
//   - attributes: expression evaluation and trace ID derivation
package output
