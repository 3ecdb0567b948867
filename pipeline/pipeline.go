package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/etlkit/errors"
	"github.com/kbukum/etlkit/logger"
	"github.com/kbukum/etlkit/observability"
)

// State is the lifecycle state of a pipeline.
type State int32

const (
	// StateCreated is the initial state; Run has not been called.
	StateCreated State = iota
	// StateRunning means a run is in progress.
	StateRunning
	// StateCompleted means the run finished without error.
	StateCompleted
	// StateFailed means the run stopped on the first error.
	StateFailed
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Pipeline drives records from one source through an ordered transform
// chain into one sink. A pipeline executes at most once.
type Pipeline struct {
	name       string
	source     Source
	transforms []Transform
	sink       Sink

	log     *logger.Logger
	metrics *observability.Metrics

	state atomic.Int32
}

// Option configures a Pipeline during construction.
type Option func(*Pipeline)

// WithName sets the pipeline name used in logs, traces, and metrics.
func WithName(name string) Option {
	return func(p *Pipeline) { p.name = name }
}

// WithLogger sets the logger for the pipeline run.
func WithLogger(log *logger.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

// WithMetrics attaches metric instruments recorded during the run.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// New assembles a pipeline from a source, an ordered transform chain
// (may be empty or nil), and a sink.
func New(source Source, transforms []Transform, sink Sink, opts ...Option) *Pipeline {
	p := &Pipeline{
		name:       "pipeline",
		source:     source,
		transforms: transforms,
		sink:       sink,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.Get("pipeline")
	}
	return p
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string { return p.name }

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Run executes the pipeline to completion: it reads every record from
// the source, applies the transform chain in order, and writes the
// results to the sink. The first error from any stage stops the run and
// is returned after the state moves to Failed.
//
// Record flow per input record: each transform receives a clone of the
// current record and the first output record continues down the chain.
// A transform returning no outputs and no error passes the current
// record through unchanged.
//
// On success the sink is closed first, then the source; a sink close
// failure leaves the source open and fails the run. A canceled context
// stops the run between records. Run may be called once: subsequent
// calls return a CONFIG error and leave the state unchanged.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.state.CompareAndSwap(int32(StateCreated), int32(StateRunning)) {
		return errors.Newf(errors.KindConfig, "pipeline %q has already run (state: %s)", p.name, p.State())
	}

	runID := uuid.New().String()
	log := p.log.WithFields(map[string]interface{}{
		logger.FieldPipeline: p.name,
		logger.FieldRunID:    runID,
	})

	ctx, span := observability.StartSpan(ctx, observability.SpanPipelineRun)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrPipelineName, p.name)
	observability.SetSpanAttribute(ctx, observability.AttrRunID, runID)

	log.Info("pipeline run started", logger.Fields(
		logger.FieldSource, p.source.Name(),
		logger.FieldSink, p.sink.Name(),
		"transforms", len(p.transforms),
	))

	start := time.Now()
	read, written, err := p.process(ctx)
	elapsed := time.Since(start)

	observability.SetSpanAttribute(ctx, observability.AttrRecordsRead, read)
	observability.SetSpanAttribute(ctx, observability.AttrRecordsWritten, written)

	if p.metrics != nil {
		p.metrics.RecordRecords(ctx, p.name, "read", read)
		p.metrics.RecordRecords(ctx, p.name, "written", written)
	}

	if err != nil {
		p.state.Store(int32(StateFailed))
		observability.SetSpanError(ctx, err)
		observability.SetSpanAttribute(ctx, observability.AttrStatus, StateFailed.String())
		observability.SetSpanAttribute(ctx, observability.AttrErrorKind, errors.KindOf(err).String())
		if p.metrics != nil {
			p.metrics.RecordError(ctx, p.name, errors.KindOf(err).String())
			p.metrics.RecordRun(ctx, p.name, StateFailed.String(), elapsed)
		}
		log.Error("pipeline run failed", logger.MergeWithError(logger.Fields(
			logger.FieldRecordsRead, read,
			logger.FieldRecordsWritten, written,
			logger.FieldErrorKind, errors.KindOf(err).String(),
			logger.FieldDuration, elapsed.Milliseconds(),
		), err))
		return err
	}

	p.state.Store(int32(StateCompleted))
	observability.SetSpanAttribute(ctx, observability.AttrStatus, StateCompleted.String())
	if p.metrics != nil {
		p.metrics.RecordRun(ctx, p.name, StateCompleted.String(), elapsed)
	}
	log.Info("pipeline run completed", logger.Fields(
		logger.FieldRecordsRead, read,
		logger.FieldRecordsWritten, written,
		logger.FieldDuration, elapsed.Milliseconds(),
	))
	return nil
}

// process moves the records. It returns the number of records read from
// the source and written to the sink alongside the first error.
func (p *Pipeline) process(ctx context.Context) (read, written int64, err error) {
	iter, err := p.source.Read(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		_ = iter.Close()
	}()

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return read, written, ctxErr
		}
		rec, ok, nextErr := iter.Next(ctx)
		if nextErr != nil {
			return read, written, nextErr
		}
		if !ok {
			break
		}
		read++

		current := rec
		for _, tr := range p.transforms {
			outs, applyErr := tr.Apply(ctx, current.Clone())
			if applyErr != nil {
				return read, written, applyErr
			}
			// No outputs: the record passes through to the next stage
			// unchanged. With outputs, the first one continues.
			if len(outs) > 0 {
				current = outs[0]
			}
		}

		if writeErr := p.sink.Write(ctx, current); writeErr != nil {
			return read, written, writeErr
		}
		written++
	}

	if closeErr := p.sink.Close(ctx); closeErr != nil {
		return read, written, closeErr
	}
	if closeErr := p.source.Close(ctx); closeErr != nil {
		return read, written, closeErr
	}
	return read, written, nil
}
