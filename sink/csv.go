package sink

import (
	"bufio"
	"context"
	"os"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/kbukum/etlkit/errors"
	"github.com/kbukum/etlkit/pipeline"
	"github.com/kbukum/etlkit/record"
	"github.com/kbukum/etlkit/util"
	"github.com/kbukum/etlkit/validation"
)

func init() {
	pipeline.RegisterSink("csv", func(opts map[string]any) (pipeline.Sink, error) {
		var cfg csvConfig
		if err := pipeline.DecodeOptions(opts, &cfg); err != nil {
			return nil, err
		}
		if err := validation.Validate(cfg); err != nil {
			return nil, err
		}
		delim, err := util.ParseDelimiter(cfg.Delimiter, ',')
		if err != nil {
			return nil, errors.Config("csv sink: " + err.Error())
		}
		csvOpts := []Option{WithDelimiter(delim)}
		if len(cfg.Headers) > 0 {
			csvOpts = append(csvOpts, WithHeaders(cfg.Headers))
		}
		if cfg.BufferSize != "" {
			csvOpts = append(csvOpts, WithBufferSize(cfg.BufferSize))
		}
		return NewCSV(cfg.Path, csvOpts...), nil
	})
}

type csvConfig struct {
	Path       string   `mapstructure:"path" validate:"required"`
	Delimiter  string   `mapstructure:"delimiter"`
	Headers    []string `mapstructure:"headers"`
	BufferSize string   `mapstructure:"buffer_size"`
}

// CSV writes one delimiter-separated line per record. The header line
// and column order come from the explicit header option or, failing
// that, from the first written record; later records render against
// that column list, with missing fields empty and extra fields dropped.
//
// Cells are joined naively: no quoting or escaping is applied, so values
// containing the delimiter corrupt the line.
type CSV struct {
	path    string
	opts    options
	file    *os.File
	writer  *bufio.Writer
	columns []string
	closed  bool
}

// NewCSV creates a CSV sink writing to path. The file is created (and
// truncated) on the first write, so a run that writes nothing leaves no
// file behind. WithDelimiter, WithHeaders, and WithBufferSize apply.
func NewCSV(path string, opts ...Option) *CSV {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &CSV{path: path, opts: o}
}

// Name returns "csv".
func (s *CSV) Name() string { return "csv" }

// Write appends one record as a CSV line, writing the header line first
// when this is the first record.
func (s *CSV) Write(_ context.Context, rec *record.Record) error {
	if s.closed {
		return errors.Sink("write to closed CSV sink").WithDetail("path", s.path)
	}
	if err := s.ensureWriter(); err != nil {
		return err
	}
	if s.columns == nil {
		if len(s.opts.headers) > 0 {
			s.columns = s.opts.headers
		} else {
			s.columns = rec.FieldNames()
		}
		if err := s.writeLine(s.columns); err != nil {
			return err
		}
	}

	cells := make([]string, len(s.columns))
	for i, col := range s.columns {
		value, ok := rec.Field(col)
		if !ok {
			continue
		}
		cell, err := renderCell(value)
		if err != nil {
			return err
		}
		cells[i] = cell
	}
	return s.writeLine(cells)
}

// Flush drains the write buffer to the file.
func (s *CSV) Flush(context.Context) error {
	if s.writer == nil {
		return nil
	}
	if err := s.writer.Flush(); err != nil {
		return errors.IO("flushing CSV file").WithCause(err).WithDetail("path", s.path)
	}
	return nil
}

// Close flushes and releases the file. Closing an already-closed or
// never-written sink returns nil.
func (s *CSV) Close(context.Context) error {
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
		return errors.IO("flushing CSV file").WithCause(flushErr).WithDetail("path", s.path)
	}
	if closeErr != nil {
		return errors.IO("closing CSV file").WithCause(closeErr).WithDetail("path", s.path)
	}
	return nil
}

func (s *CSV) ensureWriter() error {
	if s.writer != nil {
		return nil
	}
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.IO("opening CSV file").WithCause(err).WithDetail("path", s.path)
	}
	s.file = f
	s.writer = bufio.NewWriterSize(f, s.opts.bufferSize)
	return nil
}

func (s *CSV) writeLine(cells []string) error {
	if _, err := s.writer.WriteString(strings.Join(cells, string(s.opts.delimiter))); err != nil {
		return errors.IO("writing CSV line").WithCause(err).WithDetail("path", s.path)
	}
	if err := s.writer.WriteByte('\n'); err != nil {
		return errors.IO("writing CSV line").WithCause(err).WithDetail("path", s.path)
	}
	return nil
}

// renderCell renders one value as CSV cell text: nil empty, strings
// verbatim, numbers as their literal, everything else as its JSON form.
func renderCell(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return "", errors.Serialization("encoding CSV cell").WithCause(err)
		}
		return string(b), nil
	}
}

var _ pipeline.Sink = (*CSV)(nil)
