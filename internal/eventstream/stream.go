// Package eventstream drives the capture pipeline: frames are read in one
// pass, dissected into raw records, normalized, filtered, and materialized
// as the event sequence the report and span views consume. Malformed records
// are skipped with a structured warning; only capture-level failures abort
// the run.
package eventstream

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"gattscope/internal/attributes"
	"gattscope/internal/capture"
	"gattscope/internal/dissect"
	"gattscope/internal/event"
)

// Stats summarizes one pipeline run for the end-of-run log line.
type Stats struct {
	FramesRead  int
	Events      int
	Skipped     int
	Connections int
}

// Result holds the materialized events of one run. Base is the timestamp of
// the first normalized event before filtering, so filter and attribute
// expressions see the same clock whether or not the first event matched.
type Result struct {
	Events []event.Event
	Base   time.Time
	Stats  Stats
}

// Stream reads frames from a capture and dispatches the surviving events.
type Stream struct {
	reader    *capture.Reader
	dissector *dissect.Dissector
	filter    *attributes.Filter
	log       *logrus.Logger
}

// New wires a pipeline over one capture. filter may be nil to keep every
// event. The logger receives skip warnings and dissection issues; it must
// not write to stdout, which belongs to the report.
func New(reader *capture.Reader, dissector *dissect.Dissector, filter *attributes.Filter, log *logrus.Logger) *Stream {
	return &Stream{
		reader:    reader,
		dissector: dissector,
		filter:    filter,
		log:       log,
	}
}

// Run drains the capture and returns the materialized events. It stops on
// context cancellation, on a capture read failure, or when the filter
// expression fails to evaluate; malformed records never abort the run.
func (s *Stream) Run(ctx context.Context) (Result, error) {
	var res Result
	haveBase := false

	for {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		frame, err := s.reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, err
		}
		res.Stats.FramesRead++

		rec := s.dissector.Dissect(frame)
		if rec == nil {
			continue
		}

		ev, err := event.Normalize(*rec)
		if err != nil {
			res.Stats.Skipped++
			s.warnSkipped(rec.Frame, err)
			continue
		}

		if !haveBase {
			res.Base = ev.Timestamp
			haveBase = true
		}

		if s.filter != nil {
			keep, err := s.filter.Match(&ev, res.Base)
			if err != nil {
				return res, err
			}
			if !keep {
				continue
			}
		}

		res.Events = append(res.Events, ev)
		res.Stats.Events++
	}

	for _, issue := range s.dissector.DrainIssues() {
		s.log.WithField("detail", issue).Warn("dissection issue")
	}
	res.Stats.Connections = s.dissector.Connections()
	return res, nil
}

func (s *Stream) warnSkipped(frame uint32, err error) {
	reason := err.Error()
	var malformed *event.MalformedRecordError
	if errors.As(err, &malformed) {
		reason = malformed.Reason
	}
	s.log.WithFields(logrus.Fields{
		"frame":  frame,
		"reason": reason,
	}).Warn("skipping malformed record")
}
