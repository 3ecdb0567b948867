package record

import (
	"sort"
)

// Record is one unit of data moving through a pipeline: named fields in
// insertion order plus string metadata. Field values must stay within the
// JSON-compatible shapes documented in the package comment.
//
// A Record is owned by one pipeline stage at a time and is not safe for
// concurrent use. Stages that need isolation work on a Clone.
type Record struct {
	order    []string
	fields   map[string]any
	metadata map[string]string
}

// New creates an empty record.
func New() *Record {
	return &Record{
		fields: make(map[string]any),
	}
}

// FromMap creates a record from a plain map. Map iteration order is not
// deterministic, so fields are inserted in sorted-key order.
func FromMap(fields map[string]any) *Record {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	rec := New()
	for _, name := range names {
		rec.SetField(name, fields[name])
	}
	return rec
}

// SetField sets a field value. A new name is appended to the field order;
// overwriting an existing name keeps its original position.
func (r *Record) SetField(name string, value any) {
	if _, ok := r.fields[name]; !ok {
		r.order = append(r.order, name)
	}
	r.fields[name] = value
}

// Field returns the value of the named field and whether it is present.
// A stored nil value reports present.
func (r *Record) Field(name string) (any, bool) {
	v, ok := r.fields[name]
	return v, ok
}

// Has reports whether the named field is present.
func (r *Record) Has(name string) bool {
	_, ok := r.fields[name]
	return ok
}

// FieldNames returns the field names in insertion order.
func (r *Record) FieldNames() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.fields)
}

// SetMetadata sets a metadata entry.
func (r *Record) SetMetadata(key, value string) {
	if r.metadata == nil {
		r.metadata = make(map[string]string)
	}
	r.metadata[key] = value
}

// Metadata returns a copy of the record's metadata.
func (r *Record) Metadata() map[string]string {
	out := make(map[string]string, len(r.metadata))
	for k, v := range r.metadata {
		out[k] = v
	}
	return out
}

// Clone returns a deep copy of the record. Nested maps and slices are
// copied recursively, so mutating the clone never touches the original.
func (r *Record) Clone() *Record {
	out := &Record{
		order:  make([]string, len(r.order)),
		fields: make(map[string]any, len(r.fields)),
	}
	copy(out.order, r.order)
	for name, value := range r.fields {
		out.fields[name] = cloneValue(value)
	}
	if r.metadata != nil {
		out.metadata = make(map[string]string, len(r.metadata))
		for k, v := range r.metadata {
			out.metadata[k] = v
		}
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		// Scalars (string, json.Number, bool, numeric types, nil) are
		// immutable and safe to share.
		return v
	}
}
