package output

import (
	"fmt"
	"io"

	"gattscope/internal/flow"
	"gattscope/internal/gattnames"
	"gattscope/internal/reassembly"
)

// Formatter renders the two text report sections. Values in the flow section
// are truncated at maxValue characters (0 disables truncation); the detail
// section always shows full values.
type Formatter struct {
	w        io.Writer
	resolver *gattnames.Resolver
	maxValue int
}

// NewFormatter creates a text report formatter. resolver may be nil, in which
// case handle headers carry no name annotation.
func NewFormatter(w io.Writer, resolver *gattnames.Resolver, maxValue int) *Formatter {
	return &Formatter{w: w, resolver: resolver, maxValue: maxValue}
}

// Render writes the full report: flow summary, then per-handle detail.
func (f *Formatter) Render(entries []flow.Entry, groups []reassembly.Group) {
	f.WriteFlow(entries)
	f.WriteDetail(groups)
}

// WriteFlow renders the chronological flow section. An empty entry sequence
// renders the header alone.
func (f *Formatter) WriteFlow(entries []flow.Entry) {
	fmt.Fprintf(f.w, "\n=== Communication Flow Summary ===\n")
	for _, e := range entries {
		fmt.Fprintf(f.w, "+%.3fs Frame %d: Handle 0x%04x - %s%s\n",
			e.Relative.Seconds(), e.Frame, e.Handle, e.Opcode, f.valueSummary(e.Value))
	}
}

func (f *Formatter) valueSummary(value string) string {
	if value == "" {
		return ""
	}
	if f.maxValue > 0 && len(value) > f.maxValue {
		return fmt.Sprintf(": %s...", value[:f.maxValue])
	}
	return fmt.Sprintf(": %s", value)
}

// WriteDetail renders the per-handle breakdown. Groups arrive ordered by
// handle, operation name, connection; the handle header is emitted once per
// handle run.
func (f *Formatter) WriteDetail(groups []reassembly.Group) {
	fmt.Fprintf(f.w, "\n=== Detailed Analysis by Handle ===\n")

	haveHandle := false
	var lastHandle uint16
	for _, g := range groups {
		if !haveHandle || g.Key.Handle != lastHandle {
			f.writeHandleHeader(g.Key.Conn, g.Key.Handle)
			lastHandle = g.Key.Handle
			haveHandle = true
		}

		fmt.Fprintf(f.w, "\n%s (%d operations):\n", g.Key.Op, len(g.Events))
		for _, ev := range g.Events {
			if ev.Value != "" {
				fmt.Fprintf(f.w, "  Frame %d (Conn: %s): %s\n", ev.Frame, ev.ConnString(), ev.Value)
			} else {
				fmt.Fprintf(f.w, "  Frame %d (Conn: %s)\n", ev.Frame, ev.ConnString())
			}
		}

		if len(g.Events) > 1 {
			if combined, ok := g.Combined(); ok && combined != "" {
				fmt.Fprintf(f.w, "\n  Combined data: %s\n", combined)
			}
		}
	}
}

func (f *Formatter) writeHandleHeader(conn int, handle uint16) {
	if f.resolver != nil {
		if name := f.resolver.Lookup(conn, handle); name != "" {
			fmt.Fprintf(f.w, "\nHandle: 0x%04x (%s)\n", handle, name)
			return
		}
	}
	fmt.Fprintf(f.w, "\nHandle: 0x%04x\n", handle)
}
