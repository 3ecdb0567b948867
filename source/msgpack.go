package source

import (
	"bufio"
	"context"
	"encoding/base64"
	"io"
	"math"
	"os"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/kbukum/etlkit/errors"
	"github.com/kbukum/etlkit/pipeline"
	"github.com/kbukum/etlkit/record"
	"github.com/kbukum/etlkit/validation"
)

func init() {
	pipeline.RegisterSource("msgpack", func(opts map[string]any) (pipeline.Source, error) {
		var cfg msgpackConfig
		if err := pipeline.DecodeOptions(opts, &cfg); err != nil {
			return nil, err
		}
		if err := validation.Validate(cfg); err != nil {
			return nil, err
		}
		var mpOpts []Option
		if cfg.BufferSize != "" {
			mpOpts = append(mpOpts, WithBufferSize(cfg.BufferSize))
		}
		return NewMessagePack(cfg.Path, mpOpts...), nil
	})
}

type msgpackConfig struct {
	Path       string `mapstructure:"path" validate:"required"`
	BufferSize string `mapstructure:"buffer_size"`
}

// MessagePack reads records from a file of concatenated MessagePack map
// documents, the format the matching sink writes. Documents are
// self-delimiting, so no framing separates them.
type MessagePack struct {
	path string
	opts options
}

// NewMessagePack creates a MessagePack source for the file at path.
// WithBufferSize applies.
func NewMessagePack(path string, opts ...Option) *MessagePack {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MessagePack{path: path, opts: o}
}

// Name returns "msgpack".
func (s *MessagePack) Name() string { return "msgpack" }

// Schema derives the schema from the first document: one field per key
// in encoded order, typed by the value's decoded shape and nullable.
// Values without a scalar mapping declare as JSON.
func (s *MessagePack) Schema(context.Context) (record.Schema, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return record.Schema{}, errors.IO("opening MessagePack file").WithCause(err).WithDetail("path", s.path)
	}
	defer f.Close()

	dec := msgpack.NewDecoder(bufio.NewReaderSize(f, s.opts.bufferSize))
	rec, err := decodeDocument(dec)
	if err == io.EOF {
		return record.Schema{}, errors.Source("empty MessagePack file").WithDetail("path", s.path)
	}
	if err != nil {
		return record.Schema{}, err
	}

	fields := make([]record.Field, 0, rec.Len())
	for _, name := range rec.FieldNames() {
		value, _ := rec.Field(name)
		fields = append(fields, record.Field{Name: name, Type: inferType(value), Nullable: true})
	}
	return record.NewSchema(fields...)
}

// Read opens the file and returns an iterator over its documents. An
// empty file fails outright, matching Schema.
func (s *MessagePack) Read(context.Context) (pipeline.Iterator[*record.Record], error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.IO("opening MessagePack file").WithCause(err).WithDetail("path", s.path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.IO("opening MessagePack file").WithCause(err).WithDetail("path", s.path)
	}
	if info.Size() == 0 {
		f.Close()
		return nil, errors.Source("empty MessagePack file").WithDetail("path", s.path)
	}
	return &msgpackIterator{
		file: f,
		dec:  msgpack.NewDecoder(bufio.NewReaderSize(f, s.opts.bufferSize)),
	}, nil
}

// Close is a no-op: the file handle belongs to the iterator Read returns.
func (s *MessagePack) Close(context.Context) error { return nil }

type msgpackIterator struct {
	file *os.File
	dec  *msgpack.Decoder
}

func (it *msgpackIterator) Next(context.Context) (*record.Record, bool, error) {
	rec, err := decodeDocument(it.dec)
	if err == io.EOF {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

func (it *msgpackIterator) Close() error {
	if it.file == nil {
		return nil
	}
	err := it.file.Close()
	it.file = nil
	return err
}

// decodeDocument reads one map document into a record, keeping key
// order. io.EOF reports a clean end of the stream.
func decodeDocument(dec *msgpack.Decoder) (*record.Record, error) {
	code, err := dec.PeekCode()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, errors.Serialization("reading MessagePack document").WithCause(err)
	}
	if !msgpcode.IsFixedMap(code) && code != msgpcode.Map16 && code != msgpcode.Map32 {
		return nil, errors.Schema("MessagePack document is not a map")
	}

	n, err := dec.DecodeMapLen()
	if err != nil {
		return nil, errors.Serialization("decoding MessagePack map").WithCause(err)
	}
	rec := record.New()
	for i := 0; i < n; i++ {
		key, err := dec.DecodeString()
		if err != nil {
			return nil, errors.Serialization("decoding MessagePack key").WithCause(err)
		}
		value, err := dec.DecodeInterface()
		if err != nil {
			return nil, errors.Serialization("decoding MessagePack value").WithCause(err)
		}
		rec.SetField(key, normalizeWireValue(value))
	}
	return rec, nil
}

// normalizeWireValue folds decoded values into the shapes records carry:
// all integer widths to int64, float32 to float64, raw bytes to base64
// text, containers recursively.
func normalizeWireValue(v any) any {
	switch val := v.(type) {
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case int:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint:
		if uint64(val) > math.MaxInt64 {
			return uint64(val)
		}
		return int64(val)
	case uint64:
		if val > math.MaxInt64 {
			return val
		}
		return int64(val)
	case float32:
		return float64(val)
	case []byte:
		return base64.StdEncoding.EncodeToString(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeWireValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeWireValue(item)
		}
		return out
	default:
		return v
	}
}

// inferType maps a decoded document value onto a declared data type.
func inferType(v any) record.DataType {
	switch v.(type) {
	case string:
		return record.TypeString
	case bool:
		return record.TypeBoolean
	case int64:
		return record.TypeInteger
	case float64:
		return record.TypeFloat
	default:
		return record.TypeJSON
	}
}

var _ pipeline.Source = (*MessagePack)(nil)
