package transform

import (
	"context"

	"github.com/kbukum/etlkit/pipeline"
	"github.com/kbukum/etlkit/record"
)

// ApplyFunc is the mapping signature a Func transform wraps. Returning
// an empty slice means the record produced nothing at this stage.
type ApplyFunc func(ctx context.Context, rec *record.Record) ([]*record.Record, error)

// SchemaFunc derives the output schema for an input schema.
type SchemaFunc func(input record.Schema) (record.Schema, error)

// Func adapts a plain function into a Transform for programmatic
// pipelines. The output schema defaults to the input schema;
// WithOutputSchema overrides that.
//
// Func has no registry factory: functions cannot be declared in YAML.
type Func struct {
	name     string
	apply    ApplyFunc
	schemaFn SchemaFunc
}

// NewFunc wraps fn as a named transform.
func NewFunc(name string, fn ApplyFunc) *Func {
	return &Func{name: name, apply: fn}
}

// WithOutputSchema sets the schema derivation and returns the receiver
// for chaining.
func (t *Func) WithOutputSchema(fn SchemaFunc) *Func {
	t.schemaFn = fn
	return t
}

// Name returns the name given at construction.
func (t *Func) Name() string { return t.name }

// Apply invokes the wrapped function.
func (t *Func) Apply(ctx context.Context, rec *record.Record) ([]*record.Record, error) {
	return t.apply(ctx, rec)
}

// OutputSchema applies the configured derivation, or echoes the input
// schema when none was set.
func (t *Func) OutputSchema(input record.Schema) (record.Schema, error) {
	if t.schemaFn != nil {
		return t.schemaFn(input)
	}
	return input, nil
}

var _ pipeline.Transform = (*Func)(nil)
