package transform

import (
	"context"

	"github.com/kbukum/etlkit/pipeline"
	"github.com/kbukum/etlkit/record"
	"github.com/kbukum/etlkit/validation"
)

func init() {
	pipeline.RegisterTransform("rename", func(opts map[string]any) (pipeline.Transform, error) {
		var cfg renameConfig
		if err := pipeline.DecodeOptions(opts, &cfg); err != nil {
			return nil, err
		}
		if err := validation.Validate(cfg); err != nil {
			return nil, err
		}
		return NewRename(cfg.Mapping), nil
	})
}

type renameConfig struct {
	Mapping map[string]string `mapstructure:"mapping" validate:"required,min=1"`
}

// Rename renames fields in place, keeping their positions and values.
// Mapping keys absent from a record are skipped.
type Rename struct {
	mapping map[string]string
}

// NewRename creates a rename over an old-name to new-name mapping.
func NewRename(mapping map[string]string) *Rename {
	return &Rename{mapping: mapping}
}

// Name returns "rename".
func (t *Rename) Name() string { return "rename" }

// Apply returns one record with the mapped names swapped in. Metadata is
// carried over.
func (t *Rename) Apply(_ context.Context, rec *record.Record) ([]*record.Record, error) {
	out := record.New()
	for _, name := range rec.FieldNames() {
		value, _ := rec.Field(name)
		if to, ok := t.mapping[name]; ok {
			name = to
		}
		out.SetField(name, value)
	}
	for k, v := range rec.Metadata() {
		out.SetMetadata(k, v)
	}
	return []*record.Record{out}, nil
}

// OutputSchema renames the declarations. A mapping that leaves two
// fields sharing a name is a SCHEMA error.
func (t *Rename) OutputSchema(input record.Schema) (record.Schema, error) {
	fields := make([]record.Field, len(input.Fields))
	for i, f := range input.Fields {
		if to, ok := t.mapping[f.Name]; ok {
			f.Name = to
		}
		fields[i] = f
	}
	schema, err := record.NewSchema(fields...)
	if err != nil {
		return record.Schema{}, err
	}
	return schema.WithMetadata(input.Metadata), nil
}

var _ pipeline.Transform = (*Rename)(nil)
