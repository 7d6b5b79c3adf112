package attributes

import (
	"crypto/sha256"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// CaptureTraceID derives the trace ID shared by every span of one run. It
// hashes the capture path and the first frame's timestamp, so re-running the
// same capture lands in the same trace while distinct captures stay apart.
func CaptureTraceID(path string, firstFrame time.Time) trace.TraceID {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", path, firstFrame.UnixNano())))
	var id trace.TraceID
	copy(id[:], sum[:16])
	return id
}
