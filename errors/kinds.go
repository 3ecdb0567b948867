package errors

// Kind identifies the pipeline component class an error originated from.
type Kind string

// The closed set of failure kinds.
const (
	// KindSource indicates a source could not be opened or produced bad data.
	KindSource Kind = "SOURCE"
	// KindSink indicates a sink could not be opened or written.
	KindSink Kind = "SINK"
	// KindTransform indicates a transform rejected or failed to map a record.
	KindTransform Kind = "TRANSFORM"
	// KindSchema indicates a schema violation or schema-derivation failure.
	KindSchema Kind = "SCHEMA"
	// KindConfig indicates invalid pipeline or adapter configuration.
	KindConfig Kind = "CONFIG"
	// KindIO indicates a low-level byte I/O failure.
	KindIO Kind = "IO"
	// KindSerialization indicates a structured encode/decode failure.
	KindSerialization Kind = "SERIALIZATION"
)

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindSource, KindSink, KindTransform, KindSchema, KindConfig, KindIO, KindSerialization:
		return true
	}
	return false
}

// String returns the wire form of the kind.
func (k Kind) String() string {
	return string(k)
}
