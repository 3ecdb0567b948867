package testutil

import (
	"context"

	"github.com/kbukum/etlkit/pipeline"
	"github.com/kbukum/etlkit/record"
)

// CaptureSink is an in-memory pipeline.Sink recording everything written
// to it. WriteErr fails the write whose 0-based position equals
// WriteErrAt (every write when WriteErrAt is negative); FlushErr and
// CloseErr fail the corresponding calls. Flushes and Closes count calls.
type CaptureSink struct {
	SinkName   string
	WriteErr   error
	WriteErrAt int
	FlushErr   error
	CloseErr   error

	Written []*record.Record
	Flushes int
	Closes  int
}

func (s *CaptureSink) Name() string {
	if s.SinkName == "" {
		return "capture"
	}
	return s.SinkName
}

func (s *CaptureSink) Write(_ context.Context, rec *record.Record) error {
	if s.WriteErr != nil && (s.WriteErrAt < 0 || len(s.Written) == s.WriteErrAt) {
		return s.WriteErr
	}
	s.Written = append(s.Written, rec)
	return nil
}

func (s *CaptureSink) Flush(context.Context) error {
	s.Flushes++
	return s.FlushErr
}

func (s *CaptureSink) Close(context.Context) error {
	s.Closes++
	return s.CloseErr
}

var _ pipeline.Sink = (*CaptureSink)(nil)
