package sink

import (
	"bufio"
	"bytes"
	"context"
	"os"

	json "github.com/goccy/go-json"

	"github.com/kbukum/etlkit/errors"
	"github.com/kbukum/etlkit/pipeline"
	"github.com/kbukum/etlkit/record"
	"github.com/kbukum/etlkit/validation"
)

func init() {
	pipeline.RegisterSink("jsonlines", func(opts map[string]any) (pipeline.Sink, error) {
		var cfg jsonLinesConfig
		if err := pipeline.DecodeOptions(opts, &cfg); err != nil {
			return nil, err
		}
		if err := validation.Validate(cfg); err != nil {
			return nil, err
		}
		var jlOpts []Option
		if cfg.BufferSize != "" {
			jlOpts = append(jlOpts, WithBufferSize(cfg.BufferSize))
		}
		return NewJSONLines(cfg.Path, jlOpts...), nil
	})
}

type jsonLinesConfig struct {
	Path       string `mapstructure:"path" validate:"required"`
	BufferSize string `mapstructure:"buffer_size"`
}

// JSONLines writes each record as one JSON object per line, with keys
// in the record's field order.
type JSONLines struct {
	path   string
	opts   options
	file   *os.File
	writer *bufio.Writer
	closed bool
}

// NewJSONLines creates a JSON Lines sink writing to path. The file is
// created (and truncated) on the first write. WithBufferSize applies.
func NewJSONLines(path string, opts ...Option) *JSONLines {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &JSONLines{path: path, opts: o}
}

// Name returns "jsonlines".
func (s *JSONLines) Name() string { return "jsonlines" }

// Write appends one record as a JSON object line.
func (s *JSONLines) Write(_ context.Context, rec *record.Record) error {
	if s.closed {
		return errors.Sink("write to closed JSON Lines sink").WithDetail("path", s.path)
	}
	if err := s.ensureWriter(); err != nil {
		return err
	}
	line, err := encodeObjectLine(rec)
	if err != nil {
		return err
	}
	if _, err := s.writer.Write(line); err != nil {
		return errors.IO("writing JSON line").WithCause(err).WithDetail("path", s.path)
	}
	if err := s.writer.WriteByte('\n'); err != nil {
		return errors.IO("writing JSON line").WithCause(err).WithDetail("path", s.path)
	}
	return nil
}

// Flush drains the write buffer to the file.
func (s *JSONLines) Flush(context.Context) error {
	if s.writer == nil {
		return nil
	}
	if err := s.writer.Flush(); err != nil {
		return errors.IO("flushing JSON Lines file").WithCause(err).WithDetail("path", s.path)
	}
	return nil
}

// Close flushes and releases the file. Closing an already-closed or
// never-written sink returns nil.
func (s *JSONLines) Close(context.Context) error {
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
	if flushErr != nil {
		return errors.IO("flushing JSON Lines file").WithCause(flushErr).WithDetail("path", s.path)
	}
	if closeErr != nil {
		return errors.IO("closing JSON Lines file").WithCause(closeErr).WithDetail("path", s.path)
	}
	return nil
}

func (s *JSONLines) ensureWriter() error {
	if s.writer != nil {
		return nil
	}
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.IO("opening JSON Lines file").WithCause(err).WithDetail("path", s.path)
	}
	s.file = f
	s.writer = bufio.NewWriterSize(f, s.opts.bufferSize)
	return nil
}

// encodeObjectLine assembles the object by hand so keys keep the
// record's field order; values are individually JSON-encoded.
func encodeObjectLine(rec *record.Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range rec.FieldNames() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, errors.Serialization("encoding JSON field name").WithCause(err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, _ := rec.Field(name)
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, errors.Serialization("encoding JSON field " + name).WithCause(err)
		}
		buf.Write(encoded)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

var _ pipeline.Sink = (*JSONLines)(nil)
