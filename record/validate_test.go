package record

import (
	"encoding/json"
	"testing"

	"github.com/kbukum/etlkit/errors"
)

func mustSchema(t *testing.T, fields ...Field) Schema {
	t.Helper()
	schema, err := NewSchema(fields...)
	if err != nil {
		t.Fatalf("NewSchema failed: %v", err)
	}
	return schema
}

func TestValidate_CompatibilityMatrix(t *testing.T) {
	types := []DataType{TypeString, TypeInteger, TypeFloat, TypeBoolean, TypeDateTime, TypeJSON, TypeBytes}

	tests := []struct {
		name  string
		value any
		want  map[DataType]bool
	}{
		{
			name:  "string",
			value: "2024-01-01T00:00:00Z",
			want:  map[DataType]bool{TypeString: true, TypeDateTime: true, TypeBytes: true, TypeJSON: true},
		},
		{
			name:  "integer number",
			value: json.Number("42"),
			want:  map[DataType]bool{TypeInteger: true, TypeJSON: true},
		},
		{
			name:  "negative integer number",
			value: json.Number("-7"),
			want:  map[DataType]bool{TypeInteger: true, TypeJSON: true},
		},
		{
			name:  "float number",
			value: json.Number("3.25"),
			want:  map[DataType]bool{TypeFloat: true, TypeJSON: true},
		},
		{
			name:  "exponent number",
			value: json.Number("1e10"),
			want:  map[DataType]bool{TypeFloat: true, TypeJSON: true},
		},
		{
			name:  "whole-valued float literal",
			value: json.Number("5.0"),
			want:  map[DataType]bool{TypeFloat: true, TypeJSON: true},
		},
		{
			name:  "native int64",
			value: int64(42),
			want:  map[DataType]bool{TypeInteger: true, TypeJSON: true},
		},
		{
			name:  "native int",
			value: 42,
			want:  map[DataType]bool{TypeInteger: true, TypeJSON: true},
		},
		{
			name:  "native float64",
			value: 3.25,
			want:  map[DataType]bool{TypeFloat: true, TypeJSON: true},
		},
		{
			name:  "bool",
			value: true,
			want:  map[DataType]bool{TypeBoolean: true, TypeJSON: true},
		},
		{
			name:  "nil",
			value: nil,
			want:  map[DataType]bool{TypeJSON: true},
		},
		{
			name:  "nested object",
			value: map[string]any{"k": "v"},
			want:  map[DataType]bool{TypeJSON: true},
		},
		{
			name:  "array",
			value: []any{1, 2},
			want:  map[DataType]bool{TypeJSON: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, dt := range types {
				schema := mustSchema(t, Field{Name: "v", Type: dt})
				rec := New()
				rec.SetField("v", tt.value)

				err := rec.Validate(schema)
				if tt.want[dt] {
					if err != nil {
						t.Errorf("%v against %s: unexpected error %v", tt.value, dt, err)
					}
					continue
				}
				if err == nil {
					t.Errorf("%v against %s: expected incompatible type", tt.value, dt)
				} else if !errors.HasKind(err, errors.KindSchema) {
					t.Errorf("%v against %s: error kind = %q", tt.value, dt, errors.KindOf(err))
				}
			}
		})
	}
}

func TestValidate_MissingField(t *testing.T) {
	schema := mustSchema(t,
		Field{Name: "required", Type: TypeString},
		Field{Name: "optional", Type: TypeString, Nullable: true},
	)

	rec := New()
	rec.SetField("required", "here")
	if err := rec.Validate(schema); err != nil {
		t.Errorf("absent nullable field should validate, got %v", err)
	}

	empty := New()
	err := empty.Validate(schema)
	if err == nil {
		t.Fatal("absent required field should fail validation")
	}
	pe, ok := errors.AsPipelineError(err)
	if !ok || pe.Kind != errors.KindSchema {
		t.Fatalf("error = %v, want schema kind", err)
	}
	if pe.Details["field"] != "required" {
		t.Errorf("violating field = %v, want %q", pe.Details["field"], "required")
	}
}

func TestValidate_NullableDoesNotPermitExplicitNil(t *testing.T) {
	schema := mustSchema(t, Field{Name: "name", Type: TypeString, Nullable: true})

	rec := New()
	rec.SetField("name", nil)

	err := rec.Validate(schema)
	if err == nil {
		t.Fatal("explicit nil on a non-JSON field should be incompatible even when nullable")
	}

	jsonSchema := mustSchema(t, Field{Name: "name", Type: TypeJSON})
	if err := rec.Validate(jsonSchema); err != nil {
		t.Errorf("explicit nil should satisfy JSON, got %v", err)
	}
}

func TestValidate_FirstViolationWins(t *testing.T) {
	schema := mustSchema(t,
		Field{Name: "first", Type: TypeInteger},
		Field{Name: "second", Type: TypeBoolean},
	)

	rec := New()
	rec.SetField("first", "not a number")
	rec.SetField("second", "not a bool")

	err := rec.Validate(schema)
	if err == nil {
		t.Fatal("expected validation failure")
	}
	pe, _ := errors.AsPipelineError(err)
	if pe.Details["field"] != "first" {
		t.Errorf("violating field = %v, want first declared field", pe.Details["field"])
	}
}

func TestValidate_IgnoresUndeclaredFields(t *testing.T) {
	schema := mustSchema(t, Field{Name: "id", Type: TypeInteger})

	rec := New()
	rec.SetField("id", int64(1))
	rec.SetField("surplus", map[string]any{"anything": true})

	if err := rec.Validate(schema); err != nil {
		t.Errorf("undeclared fields should be ignored, got %v", err)
	}
}

func TestValidate_EmptySchema(t *testing.T) {
	rec := New()
	rec.SetField("whatever", 1)

	if err := rec.Validate(Schema{}); err != nil {
		t.Errorf("empty schema should accept any record, got %v", err)
	}
}
