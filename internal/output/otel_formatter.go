package output

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gattscope/internal/attributes"
	"gattscope/internal/gatt"
	"gattscope/internal/gattnames"
	"gattscope/internal/transaction"
)

// OTELFormatter exports transactions as OpenTelemetry spans: one root span
// covering the capture window, one child span per transaction with start and
// end taken from the capture timestamps rather than the wall clock.
type OTELFormatter struct {
	tracer    trace.Tracer
	resolver  *gattnames.Resolver
	evaluator *attributes.Evaluator
}

// NewOTELFormatter creates a span exporter. resolver and evaluator may be
// nil to skip handle names and custom attributes respectively.
func NewOTELFormatter(tracer trace.Tracer, resolver *gattnames.Resolver, evaluator *attributes.Evaluator) *OTELFormatter {
	return &OTELFormatter{
		tracer:    tracer,
		resolver:  resolver,
		evaluator: evaluator,
	}
}

// ExportCapture emits the capture's span tree. base is the first event's
// timestamp; it anchors the root span and the ts expression variable.
func (f *OTELFormatter) ExportCapture(ctx context.Context, path string, txs []transaction.Transaction, base time.Time) {
	rootCtx, root := f.tracer.Start(ctx, "gatt.capture",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(base),
	)
	root.SetAttributes(
		attribute.String("capture.path", path),
		attribute.Int("capture.transactions", len(txs)),
	)

	end := base
	for i := range txs {
		tx := &txs[i]
		f.exportTransaction(rootCtx, tx, base)
		if t := tx.End(); t.After(end) {
			end = t
		}
	}

	root.End(trace.WithTimestamp(end))
}

func (f *OTELFormatter) exportTransaction(ctx context.Context, tx *transaction.Transaction, base time.Time) {
	_, span := f.tracer.Start(ctx, spanName(tx.Kind()),
		trace.WithSpanKind(spanKind(tx)),
		trace.WithTimestamp(tx.Start()),
	)

	// The request side names the transaction; orphan responses stand in for
	// themselves.
	primary := tx.Request
	if primary == nil {
		primary = tx.Response
	}

	attrs := []attribute.KeyValue{
		attribute.String("att.opcode", tx.Kind().String()),
		attribute.String("att.handle", hexHandle(primary.Handle)),
		attribute.Int("att.conn", tx.Conn()),
	}
	if value := transactionValue(tx); value != "" {
		attrs = append(attrs, attribute.String("att.value", value))
	}
	if tx.Request != nil {
		attrs = append(attrs, attribute.Int("frame.request", int(tx.Request.Frame)))
	}
	if tx.Response != nil {
		attrs = append(attrs, attribute.Int("frame.response", int(tx.Response.Frame)))
	}
	if f.resolver != nil {
		if name := f.resolver.Lookup(primary.Conn, primary.Handle); name != "" {
			attrs = append(attrs, attribute.String("att.handle_name", name))
		}
	}
	if f.evaluator != nil {
		attrs = append(attrs, f.evaluator.EvaluateCustomAttributes(primary, base)...)
	}
	span.SetAttributes(attrs...)

	if reason, failed := tx.Failed(); failed {
		span.SetStatus(codes.Error, reason)
	} else if tx.Request != nil && tx.Response != nil {
		span.SetStatus(codes.Ok, "")
	}

	span.End(trace.WithTimestamp(tx.End()))
}

// transactionValue picks the span's att.value: the request's value when it
// has one, otherwise the response's (read exchanges carry theirs there).
func transactionValue(tx *transaction.Transaction) string {
	if tx.Request != nil && tx.Request.Value != "" {
		return tx.Request.Value
	}
	if tx.Response != nil {
		return tx.Response.Value
	}
	return ""
}

// spanName maps an operation kind to its span name, e.g. "Write Request"
// becomes att.write_request.
func spanName(op gatt.Opcode) string {
	var sb strings.Builder
	sb.WriteString("att.")
	for _, r := range strings.ToLower(op.String()) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ':
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// spanKind reflects the exchange's originator: notifications and indications
// come from the server, requests and commands from the client.
func spanKind(tx *transaction.Transaction) trace.SpanKind {
	if tx.Request == nil {
		return trace.SpanKindServer
	}
	switch tx.Request.Opcode {
	case gatt.OpHandleValueNotification, gatt.OpHandleValueIndication:
		return trace.SpanKindServer
	default:
		return trace.SpanKindClient
	}
}

func hexHandle(handle uint16) string {
	return fmt.Sprintf("0x%04x", handle)
}
