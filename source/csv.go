package source

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/kbukum/etlkit/errors"
	"github.com/kbukum/etlkit/pipeline"
	"github.com/kbukum/etlkit/record"
	"github.com/kbukum/etlkit/util"
	"github.com/kbukum/etlkit/validation"
)

func init() {
	pipeline.RegisterSource("csv", func(opts map[string]any) (pipeline.Source, error) {
		var cfg csvConfig
		if err := pipeline.DecodeOptions(opts, &cfg); err != nil {
			return nil, err
		}
		if err := validation.Validate(cfg); err != nil {
			return nil, err
		}
		delim, err := util.ParseDelimiter(cfg.Delimiter, ',')
		if err != nil {
			return nil, errors.Config("csv source: " + err.Error())
		}
		csvOpts := []Option{WithDelimiter(delim)}
		if cfg.HasHeader != nil {
			csvOpts = append(csvOpts, WithHeader(*cfg.HasHeader))
		}
		if cfg.BufferSize != "" {
			csvOpts = append(csvOpts, WithBufferSize(cfg.BufferSize))
		}
		return NewCSV(cfg.Path, csvOpts...), nil
	})
}

type csvConfig struct {
	Path       string `mapstructure:"path" validate:"required"`
	Delimiter  string `mapstructure:"delimiter"`
	HasHeader  *bool  `mapstructure:"has_header"`
	BufferSize string `mapstructure:"buffer_size"`
}

// CSV reads delimiter-separated records from a file, one per line.
//
// Parsing is a plain delimiter split with whitespace trimmed per cell;
// quoting is not interpreted, so quote characters are data. The first
// line names the fields when the header option is set (the default),
// otherwise fields are named column_0, column_1, ... and every line is
// data. All values are strings and every field is nullable: a row
// shorter than the header leaves its trailing fields absent, and cells
// beyond the header width are dropped.
type CSV struct {
	path string
	opts options
}

// NewCSV creates a CSV source for the file at path. WithDelimiter,
// WithHeader, and WithBufferSize apply.
func NewCSV(path string, opts ...Option) *CSV {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &CSV{path: path, opts: o}
}

// Name returns "csv".
func (s *CSV) Name() string { return "csv" }

// Schema derives the schema from the file's first line. The file is
// opened and released on every call; an empty file is a SOURCE error.
func (s *CSV) Schema(context.Context) (record.Schema, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return record.Schema{}, errors.IO("opening CSV file").WithCause(err).WithDetail("path", s.path)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(nil, s.opts.bufferSize)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return record.Schema{}, errors.IO("reading CSV header").WithCause(err).WithDetail("path", s.path)
		}
		return record.Schema{}, errors.Source("empty CSV file").WithDetail("path", s.path)
	}

	cells := strings.Split(sc.Text(), string(s.opts.delimiter))
	fields := make([]record.Field, len(cells))
	for i, cell := range cells {
		name := fmt.Sprintf("column_%d", i)
		if s.opts.hasHeader {
			name = strings.TrimSpace(cell)
		}
		fields[i] = record.Field{Name: name, Type: record.TypeString, Nullable: true}
	}
	return record.NewSchema(fields...)
}

// Read opens the file and returns an iterator over its data lines. Each
// call re-opens the file and yields the stream from the beginning.
func (s *CSV) Read(ctx context.Context) (pipeline.Iterator[*record.Record], error) {
	schema, err := s.Schema(ctx)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.IO("opening CSV file").WithCause(err).WithDetail("path", s.path)
	}
	sc := bufio.NewScanner(f)
	sc.Buffer(nil, s.opts.bufferSize)

	return &csvIterator{
		file:       f,
		scanner:    sc,
		names:      schema.FieldNames(),
		delimiter:  s.opts.delimiter,
		skipHeader: s.opts.hasHeader,
	}, nil
}

// Close is a no-op: the file handle belongs to the iterator Read returns.
func (s *CSV) Close(context.Context) error { return nil }

type csvIterator struct {
	file       *os.File
	scanner    *bufio.Scanner
	names      []string
	delimiter  byte
	skipHeader bool
}

func (it *csvIterator) Next(context.Context) (*record.Record, bool, error) {
	for it.scanner.Scan() {
		if it.skipHeader {
			it.skipHeader = false
			continue
		}
		cells := strings.Split(it.scanner.Text(), string(it.delimiter))
		rec := record.New()
		for i, cell := range cells {
			if i >= len(it.names) {
				break
			}
			rec.SetField(it.names[i], strings.TrimSpace(cell))
		}
		return rec, true, nil
	}
	if err := it.scanner.Err(); err != nil {
		return nil, false, errors.IO("reading CSV line").WithCause(err)
	}
	return nil, false, nil
}

func (it *csvIterator) Close() error {
	if it.file == nil {
		return nil
	}
	err := it.file.Close()
	it.file = nil
	return err
}

var _ pipeline.Source = (*CSV)(nil)
