package pipeline

import (
	"context"

	"github.com/kbukum/etlkit/record"
)

// Source produces a finite, ordered stream of records from an external
// resource. A source belongs to one pipeline run at a time; none of its
// methods need to be safe for concurrent use.
type Source interface {
	// Name returns the adapter type name (e.g. "csv").
	Name() string
	// Schema derives the source's record schema. It may inspect the
	// underlying resource and fails if the resource is unreadable or
	// carries no usable shape (for example an empty file).
	Schema(ctx context.Context) (record.Schema, error)
	// Read opens the stream. Each call returns a fresh iterator over the
	// full stream; the iterator owns the handles it opens.
	Read(ctx context.Context) (Iterator[*record.Record], error)
	// Close releases any resources held by the source itself. It must be
	// idempotent.
	Close(ctx context.Context) error
}

// Sink consumes records and persists them in call order. A sink belongs
// to one pipeline run at a time.
type Sink interface {
	// Name returns the adapter type name (e.g. "jsonlines").
	Name() string
	// Write persists a single record. Writing to a closed sink is a SINK
	// error.
	Write(ctx context.Context, rec *record.Record) error
	// Flush pushes buffered data to the underlying resource.
	Flush(ctx context.Context) error
	// Close flushes and releases the sink. It must be idempotent: closing
	// an already-closed sink returns nil.
	Close(ctx context.Context) error
}

// Transform maps one record to zero or more output records. Transforms
// must not mutate the input record; the driver hands each transform a
// clone, but programmatic callers may not.
type Transform interface {
	// Name returns the adapter type name (e.g. "project").
	Name() string
	// Apply maps rec to its outputs. An empty, non-error result means the
	// record produced nothing at this stage.
	Apply(ctx context.Context, rec *record.Record) ([]*record.Record, error)
	// OutputSchema describes the schema this transform produces for the
	// given input schema, without reading any records.
	OutputSchema(input record.Schema) (record.Schema, error)
}

// BatchSink is implemented by sinks with a native batch write that is
// more than a write loop (for example a transactional insert).
type BatchSink interface {
	Sink
	// WriteBatch persists records as one batch.
	WriteBatch(ctx context.Context, recs []*record.Record) error
}

// WriteBatch writes records to s, using the sink's native batch write
// when it implements BatchSink and a sequential write loop otherwise.
// In the sequential case the first failure aborts the batch; earlier
// writes are not rolled back.
func WriteBatch(ctx context.Context, s Sink, recs []*record.Record) error {
	if bs, ok := s.(BatchSink); ok {
		return bs.WriteBatch(ctx, recs)
	}
	for _, rec := range recs {
		if err := s.Write(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// OutputSchema threads the source schema through the transform chain
// without reading any records, returning the schema records will have
// when they reach the sink.
func OutputSchema(ctx context.Context, src Source, transforms ...Transform) (record.Schema, error) {
	schema, err := src.Schema(ctx)
	if err != nil {
		return record.Schema{}, err
	}
	for _, tr := range transforms {
		schema, err = tr.OutputSchema(schema)
		if err != nil {
			return record.Schema{}, err
		}
	}
	return schema, nil
}
