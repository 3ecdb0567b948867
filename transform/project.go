package transform

import (
	"context"

	"github.com/kbukum/etlkit/errors"
	"github.com/kbukum/etlkit/pipeline"
	"github.com/kbukum/etlkit/record"
	"github.com/kbukum/etlkit/validation"
)

func init() {
	pipeline.RegisterTransform("project", func(opts map[string]any) (pipeline.Transform, error) {
		var cfg projectConfig
		if err := pipeline.DecodeOptions(opts, &cfg); err != nil {
			return nil, err
		}
		if err := validation.Validate(cfg); err != nil {
			return nil, err
		}
		return NewProject(cfg.Fields...), nil
	})
}

type projectConfig struct {
	Fields []string `mapstructure:"fields" validate:"required,min=1"`
}

// Project keeps only the listed fields, in list order. Fields absent
// from a record are skipped silently; names unknown to the input schema
// are caught when the output schema is derived.
type Project struct {
	fields []string
}

// NewProject creates a projection onto the given fields.
func NewProject(fields ...string) *Project {
	return &Project{fields: fields}
}

// Name returns "project".
func (t *Project) Name() string { return "project" }

// Apply returns one record holding the projected fields. Metadata is
// carried over.
func (t *Project) Apply(_ context.Context, rec *record.Record) ([]*record.Record, error) {
	out := record.New()
	for _, name := range t.fields {
		if value, ok := rec.Field(name); ok {
			out.SetField(name, value)
		}
	}
	for k, v := range rec.Metadata() {
		out.SetMetadata(k, v)
	}
	return []*record.Record{out}, nil
}

// OutputSchema keeps the declarations of the projected fields, reordered
// to the projection order. Projecting a field the input schema does not
// declare is a SCHEMA error.
func (t *Project) OutputSchema(input record.Schema) (record.Schema, error) {
	fields := make([]record.Field, 0, len(t.fields))
	for _, name := range t.fields {
		f, ok := input.Field(name)
		if !ok {
			return record.Schema{}, errors.Schema("projecting unknown field: " + name).WithDetail("field", name)
		}
		fields = append(fields, f)
	}
	schema, err := record.NewSchema(fields...)
	if err != nil {
		return record.Schema{}, err
	}
	return schema.WithMetadata(input.Metadata), nil
}

var _ pipeline.Transform = (*Project)(nil)
