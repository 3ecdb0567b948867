package record

import (
	"github.com/kbukum/etlkit/errors"
)

// DataType enumerates the declared types a schema field can take.
type DataType string

const (
	// TypeString accepts any string value.
	TypeString DataType = "string"
	// TypeInteger accepts integer-shaped numbers.
	TypeInteger DataType = "integer"
	// TypeFloat accepts float-shaped numbers.
	TypeFloat DataType = "float"
	// TypeBoolean accepts booleans.
	TypeBoolean DataType = "boolean"
	// TypeDateTime accepts timestamp strings. The declared intent is
	// RFC 3339; validation only requires the value to be a string.
	TypeDateTime DataType = "datetime"
	// TypeJSON accepts any value, including nil and nested structures.
	TypeJSON DataType = "json"
	// TypeBytes accepts strings carrying base64-encoded binary payloads.
	// The declared intent is base64; validation only requires the value
	// to be a string.
	TypeBytes DataType = "bytes"
)

// Valid reports whether dt is one of the declared data types.
func (dt DataType) Valid() bool {
	switch dt {
	case TypeString, TypeInteger, TypeFloat, TypeBoolean, TypeDateTime, TypeJSON, TypeBytes:
		return true
	}
	return false
}

// String returns the wire form of the data type.
func (dt DataType) String() string {
	return string(dt)
}

// ParseDataType converts a configuration string into a DataType.
func ParseDataType(s string) (DataType, error) {
	dt := DataType(s)
	if !dt.Valid() {
		return "", errors.Newf(errors.KindConfig, "unknown data type %q", s)
	}
	return dt, nil
}

// Field declares a single named column in a Schema.
type Field struct {
	// Name is the field name, unique within a schema.
	Name string `json:"name"`
	// Type is the declared data type.
	Type DataType `json:"type"`
	// Nullable permits the field to be absent from a record.
	Nullable bool `json:"nullable,omitempty"`
	// Description is free-form documentation, not used by validation.
	Description string `json:"description,omitempty"`
}

// Schema is an ordered set of field declarations plus free-form metadata.
// The zero value is an empty schema.
type Schema struct {
	Fields   []Field           `json:"fields"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NewSchema builds a Schema from the given fields. Field order is
// preserved. Duplicate field names are a schema error.
func NewSchema(fields ...Field) (Schema, error) {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, ok := seen[f.Name]; ok {
			return Schema{}, errors.Schema("duplicate field name: " + f.Name).
				WithDetail("field", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return Schema{Fields: fields}, nil
}

// WithMetadata returns a copy of the schema with its metadata replaced.
func (s Schema) WithMetadata(metadata map[string]string) Schema {
	out := Schema{Fields: s.Fields}
	if len(metadata) > 0 {
		out.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// Field returns the declaration for the named field.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns the declared field names in declaration order.
func (s Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Len returns the number of declared fields.
func (s Schema) Len() int {
	return len(s.Fields)
}
