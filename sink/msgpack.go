package sink

import (
	"bufio"
	"context"
	"os"
	"sort"

	json "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/kbukum/etlkit/errors"
	"github.com/kbukum/etlkit/pipeline"
	"github.com/kbukum/etlkit/record"
	"github.com/kbukum/etlkit/validation"
)

func init() {
	pipeline.RegisterSink("msgpack", func(opts map[string]any) (pipeline.Sink, error) {
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

// MessagePack writes each record as one MessagePack map document with
// keys in the record's field order. Documents are self-delimiting and
// simply concatenated, so the matching source can stream them back.
type MessagePack struct {
	path    string
	opts    options
	file    *os.File
	writer  *bufio.Writer
	encoder *msgpack.Encoder
	closed  bool
}

// NewMessagePack creates a MessagePack sink writing to path. The file
// is created (and truncated) on the first write. WithBufferSize applies.
func NewMessagePack(path string, opts ...Option) *MessagePack {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MessagePack{path: path, opts: o}
}

// Name returns "msgpack".
func (s *MessagePack) Name() string { return "msgpack" }

// Write appends one record as a map document.
func (s *MessagePack) Write(_ context.Context, rec *record.Record) error {
	if s.closed {
		return errors.Sink("write to closed MessagePack sink").WithDetail("path", s.path)
	}
	if err := s.ensureWriter(); err != nil {
		return err
	}

	names := rec.FieldNames()
	if err := s.encoder.EncodeMapLen(len(names)); err != nil {
		return errors.Serialization("encoding MessagePack document").WithCause(err)
	}
	for _, name := range names {
		if err := s.encoder.EncodeString(name); err != nil {
			return errors.Serialization("encoding MessagePack key").WithCause(err)
		}
		value, _ := rec.Field(name)
		if err := encodeValue(s.encoder, value); err != nil {
			return err
		}
	}
	return nil
}

// Flush drains the write buffer to the file.
func (s *MessagePack) Flush(context.Context) error {
	if s.writer == nil {
		return nil
	}
	if err := s.writer.Flush(); err != nil {
		return errors.IO("flushing MessagePack file").WithCause(err).WithDetail("path", s.path)
	}
	return nil
}

// Close flushes and releases the file. Closing an already-closed or
// never-written sink returns nil.
func (s *MessagePack) Close(context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.writer == nil {
		return nil
	}
	flushErr := s.writer.Flush()
	closeErr := s.file.Close()
	s.writer = nil
	s.file = nil
	s.encoder = nil
	if flushErr != nil {
		return errors.IO("flushing MessagePack file").WithCause(flushErr).WithDetail("path", s.path)
	}
	if closeErr != nil {
		return errors.IO("closing MessagePack file").WithCause(closeErr).WithDetail("path", s.path)
	}
	return nil
}

func (s *MessagePack) ensureWriter() error {
	if s.writer != nil {
		return nil
	}
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.IO("opening MessagePack file").WithCause(err).WithDetail("path", s.path)
	}
	s.file = f
	s.writer = bufio.NewWriterSize(f, s.opts.bufferSize)
	s.encoder = msgpack.NewEncoder(s.writer)
	return nil
}

// encodeValue encodes one record value. json.Number encodes by its
// intrinsic shape; nested maps encode with sorted keys so output is
// deterministic.
func encodeValue(enc *msgpack.Encoder, v any) error {
	var err error
	switch val := v.(type) {
	case nil:
		err = enc.EncodeNil()
	case string:
		err = enc.EncodeString(val)
	case bool:
		err = enc.EncodeBool(val)
	case json.Number:
		return encodeNumber(enc, val)
	case int:
		err = enc.EncodeInt(int64(val))
	case int8:
		err = enc.EncodeInt(int64(val))
	case int16:
		err = enc.EncodeInt(int64(val))
	case int32:
		err = enc.EncodeInt(int64(val))
	case int64:
		err = enc.EncodeInt(val)
	case uint:
		err = enc.EncodeUint(uint64(val))
	case uint8:
		err = enc.EncodeUint(uint64(val))
	case uint16:
		err = enc.EncodeUint(uint64(val))
	case uint32:
		err = enc.EncodeUint(uint64(val))
	case uint64:
		err = enc.EncodeUint(val)
	case float32:
		err = enc.EncodeFloat32(val)
	case float64:
		err = enc.EncodeFloat64(val)
	case map[string]any:
		return encodeMap(enc, val)
	case []any:
		if err := enc.EncodeArrayLen(len(val)); err != nil {
			return errors.Serialization("encoding MessagePack array").WithCause(err)
		}
		for _, item := range val {
			if err := encodeValue(enc, item); err != nil {
				return err
			}
		}
		return nil
	default:
		err = enc.Encode(val)
	}
	if err != nil {
		return errors.Serialization("encoding MessagePack value").WithCause(err)
	}
	return nil
}

func encodeMap(enc *msgpack.Encoder, m map[string]any) error {
	if err := enc.EncodeMapLen(len(m)); err != nil {
		return errors.Serialization("encoding MessagePack map").WithCause(err)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := enc.EncodeString(k); err != nil {
			return errors.Serialization("encoding MessagePack key").WithCause(err)
		}
		if err := encodeValue(enc, m[k]); err != nil {
			return err
		}
	}
	return nil
}

func encodeNumber(enc *msgpack.Encoder, n json.Number) error {
	if i, err := n.Int64(); err == nil {
		if err := enc.EncodeInt(i); err != nil {
			return errors.Serialization("encoding MessagePack value").WithCause(err)
		}
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return errors.Serialization("invalid number literal: " + n.String()).WithCause(err)
	}
	if err := enc.EncodeFloat64(f); err != nil {
		return errors.Serialization("encoding MessagePack value").WithCause(err)
	}
	return nil
}

var _ pipeline.Sink = (*MessagePack)(nil)
