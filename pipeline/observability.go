package pipeline

import (
	"context"
	"time"

	"github.com/kbukum/etlkit/logger"
	"github.com/kbukum/etlkit/observability"
	"github.com/kbukum/etlkit/record"
)

// WithSourceLogging wraps src so every Schema, Read, and Close call is
// logged with its duration. Failures log at error level, successes at
// debug.
func WithSourceLogging(src Source, log *logger.Logger) Source {
	return &loggingSource{inner: src, log: log.WithComponent(src.Name())}
}

type loggingSource struct {
	inner Source
	log   *logger.Logger
}

func (s *loggingSource) Name() string { return s.inner.Name() }

func (s *loggingSource) Schema(ctx context.Context) (record.Schema, error) {
	start := time.Now()
	schema, err := s.inner.Schema(ctx)
	fields := logger.DurationFields("schema", time.Since(start))
	if err != nil {
		s.log.Error("source schema failed", logger.MergeWithError(fields, err))
		return schema, err
	}
	fields["fields"] = schema.Len()
	s.log.Debug("source schema derived", fields)
	return schema, nil
}

func (s *loggingSource) Read(ctx context.Context) (Iterator[*record.Record], error) {
	start := time.Now()
	it, err := s.inner.Read(ctx)
	fields := logger.DurationFields("read", time.Since(start))
	if err != nil {
		s.log.Error("source read failed", logger.MergeWithError(fields, err))
		return nil, err
	}
	s.log.Debug("source stream opened", fields)
	return it, nil
}

func (s *loggingSource) Close(ctx context.Context) error {
	err := s.inner.Close(ctx)
	if err != nil {
		s.log.Error("source close failed", logger.ErrorFields("close", err))
		return err
	}
	s.log.Debug("source closed")
	return nil
}

// WithSinkLogging wraps snk so writes, flushes, and closes are logged.
// Per-record writes log at debug level only.
func WithSinkLogging(snk Sink, log *logger.Logger) Sink {
	return &loggingSink{inner: snk, log: log.WithComponent(snk.Name())}
}

type loggingSink struct {
	inner Sink
	log   *logger.Logger
}

func (s *loggingSink) Name() string { return s.inner.Name() }

func (s *loggingSink) Write(ctx context.Context, rec *record.Record) error {
	err := s.inner.Write(ctx, rec)
	if err != nil {
		s.log.Error("sink write failed", logger.MergeWithError(logger.Fields(
			logger.FieldRecords, rec.Len(),
		), err))
		return err
	}
	s.log.Debug("record written", logger.Fields("fields", rec.Len()))
	return nil
}

func (s *loggingSink) Flush(ctx context.Context) error {
	err := s.inner.Flush(ctx)
	if err != nil {
		s.log.Error("sink flush failed", logger.ErrorFields("flush", err))
		return err
	}
	s.log.Debug("sink flushed")
	return nil
}

func (s *loggingSink) Close(ctx context.Context) error {
	err := s.inner.Close(ctx)
	if err != nil {
		s.log.Error("sink close failed", logger.ErrorFields("close", err))
		return err
	}
	s.log.Debug("sink closed")
	return nil
}

// WithTransformLogging wraps tr so each Apply is logged with its output
// count and duration at debug level.
func WithTransformLogging(tr Transform, log *logger.Logger) Transform {
	return &loggingTransform{inner: tr, log: log.WithComponent(tr.Name())}
}

type loggingTransform struct {
	inner Transform
	log   *logger.Logger
}

func (t *loggingTransform) Name() string { return t.inner.Name() }

func (t *loggingTransform) Apply(ctx context.Context, rec *record.Record) ([]*record.Record, error) {
	start := time.Now()
	outs, err := t.inner.Apply(ctx, rec)
	fields := logger.DurationFields("apply", time.Since(start))
	if err != nil {
		t.log.Error("transform apply failed", logger.MergeWithError(fields, err))
		return nil, err
	}
	fields["outputs"] = len(outs)
	t.log.Debug("transform applied", fields)
	return outs, nil
}

func (t *loggingTransform) OutputSchema(input record.Schema) (record.Schema, error) {
	return t.inner.OutputSchema(input)
}

// WithSourceTracing wraps src so Schema and Read run inside spans named
// "{source}.schema" and "{source}.read".
func WithSourceTracing(src Source) Source {
	return &tracingSource{inner: src}
}

type tracingSource struct {
	inner Source
}

func (s *tracingSource) Name() string { return s.inner.Name() }

func (s *tracingSource) Schema(ctx context.Context) (record.Schema, error) {
	ctx, span := observability.StartSpan(ctx, s.inner.Name()+".schema")
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrComponentName, s.inner.Name())

	schema, err := s.inner.Schema(ctx)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return schema, err
}

func (s *tracingSource) Read(ctx context.Context) (Iterator[*record.Record], error) {
	ctx, span := observability.StartSpan(ctx, s.inner.Name()+".read")
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrComponentName, s.inner.Name())

	it, err := s.inner.Read(ctx)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return it, err
}

func (s *tracingSource) Close(ctx context.Context) error {
	return s.inner.Close(ctx)
}

// WithSinkTracing wraps snk so each Write, Flush, and Close runs inside
// a span named "{sink}.write", "{sink}.flush", or "{sink}.close".
func WithSinkTracing(snk Sink) Sink {
	return &tracingSink{inner: snk}
}

type tracingSink struct {
	inner Sink
}

func (s *tracingSink) Name() string { return s.inner.Name() }

func (s *tracingSink) Write(ctx context.Context, rec *record.Record) error {
	ctx, span := observability.StartSpan(ctx, s.inner.Name()+".write")
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrComponentName, s.inner.Name())

	err := s.inner.Write(ctx, rec)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return err
}

func (s *tracingSink) Flush(ctx context.Context) error {
	ctx, span := observability.StartSpan(ctx, s.inner.Name()+".flush")
	defer span.End()

	err := s.inner.Flush(ctx)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return err
}

func (s *tracingSink) Close(ctx context.Context) error {
	ctx, span := observability.StartSpan(ctx, s.inner.Name()+".close")
	defer span.End()

	err := s.inner.Close(ctx)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return err
}

// WithTransformTracing wraps tr so each Apply runs inside a span named
// "{transform}.apply".
func WithTransformTracing(tr Transform) Transform {
	return &tracingTransform{inner: tr}
}

type tracingTransform struct {
	inner Transform
}

func (t *tracingTransform) Name() string { return t.inner.Name() }

func (t *tracingTransform) Apply(ctx context.Context, rec *record.Record) ([]*record.Record, error) {
	ctx, span := observability.StartSpan(ctx, t.inner.Name()+".apply")
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrComponentName, t.inner.Name())

	outs, err := t.inner.Apply(ctx, rec)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return outs, err
}

func (t *tracingTransform) OutputSchema(input record.Schema) (record.Schema, error) {
	return t.inner.OutputSchema(input)
}
