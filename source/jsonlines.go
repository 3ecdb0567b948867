package source

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
	pipeline.RegisterSource("jsonlines", func(opts map[string]any) (pipeline.Source, error) {
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

// JSONLines reads one JSON object per line. Blank lines are skipped.
// Numbers decode as json.Number so the integer/float distinction
// survives; top-level key order is preserved in each record.
type JSONLines struct {
	path string
	opts options
}

// NewJSONLines creates a JSON Lines source for the file at path.
// WithBufferSize applies.
func NewJSONLines(path string, opts ...Option) *JSONLines {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &JSONLines{path: path, opts: o}
}

// Name returns "jsonlines".
func (s *JSONLines) Name() string { return "jsonlines" }

// Schema derives the schema from the first non-blank line, which must
// be a JSON object. Fields carry the object's keys in document order,
// all typed JSON and nullable: later lines are free to carry different
// value shapes or miss keys entirely.
func (s *JSONLines) Schema(context.Context) (record.Schema, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return record.Schema{}, errors.IO("opening JSON Lines file").WithCause(err).WithDetail("path", s.path)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(nil, s.opts.bufferSize)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		keys, err := objectKeys(line)
		if err != nil {
			return record.Schema{}, err
		}
		fields := make([]record.Field, len(keys))
		for i, key := range keys {
			fields[i] = record.Field{Name: key, Type: record.TypeJSON, Nullable: true}
		}
		return record.NewSchema(fields...)
	}
	if err := sc.Err(); err != nil {
		return record.Schema{}, errors.IO("reading JSON Lines file").WithCause(err).WithDetail("path", s.path)
	}
	return record.Schema{}, errors.Source("empty JSON Lines file").WithDetail("path", s.path)
}

// Read opens the file and returns an iterator over its lines. A file
// with no data lines fails outright, matching Schema.
func (s *JSONLines) Read(context.Context) (pipeline.Iterator[*record.Record], error) {
	if err := s.probe(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.IO("opening JSON Lines file").WithCause(err).WithDetail("path", s.path)
	}
	sc := bufio.NewScanner(f)
	sc.Buffer(nil, s.opts.bufferSize)
	return &jsonLinesIterator{file: f, scanner: sc}, nil
}

// probe fails when the file is missing, unreadable, or holds no
// non-blank lines. It does not parse anything: bad lines are per-item
// errors, not read failures.
func (s *JSONLines) probe() error {
	f, err := os.Open(s.path)
	if err != nil {
		return errors.IO("opening JSON Lines file").WithCause(err).WithDetail("path", s.path)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(nil, s.opts.bufferSize)
	for sc.Scan() {
		if len(bytes.TrimSpace(sc.Bytes())) > 0 {
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		return errors.IO("reading JSON Lines file").WithCause(err).WithDetail("path", s.path)
	}
	return errors.Source("empty JSON Lines file").WithDetail("path", s.path)
}

// Close is a no-op: the file handle belongs to the iterator Read returns.
func (s *JSONLines) Close(context.Context) error { return nil }

type jsonLinesIterator struct {
	file    *os.File
	scanner *bufio.Scanner
	line    int
}

// Next decodes the next non-blank line. A line that fails to decode is
// a per-item error carrying its line number; the following call moves
// on to the next line.
func (it *jsonLinesIterator) Next(context.Context) (*record.Record, bool, error) {
	for it.scanner.Scan() {
		it.line++
		data := bytes.TrimSpace(it.scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		rec, err := decodeObjectLine(data)
		if err != nil {
			if pe, ok := errors.AsPipelineError(err); ok {
				return nil, false, pe.WithDetail("line", it.line)
			}
			return nil, false, err
		}
		return rec, true, nil
	}
	if err := it.scanner.Err(); err != nil {
		return nil, false, errors.IO("reading JSON Lines file").WithCause(err)
	}
	return nil, false, nil
}

func (it *jsonLinesIterator) Close() error {
	if it.file == nil {
		return nil
	}
	err := it.file.Close()
	it.file = nil
	return err
}

// objectKeys returns the top-level keys of a JSON object in document
// order without materializing the values.
func objectKeys(line []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Serialization("decoding JSON line").WithCause(err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.Schema("first line is not a JSON object")
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Serialization("decoding JSON line").WithCause(err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.Serialization("decoding JSON line: non-string object key")
		}
		keys = append(keys, key)
		if err := skipValue(dec); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// skipValue consumes one JSON value, descending through nested
// structures without building them.
func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return errors.Serialization("decoding JSON line").WithCause(err)
	}
	d, ok := tok.(json.Delim)
	if !ok || (d != '{' && d != '[') {
		return nil
	}
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return errors.Serialization("decoding JSON line").WithCause(err)
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}

// decodeObjectLine builds a record from one JSON object line, keeping
// the document's top-level key order.
func decodeObjectLine(data []byte) (*record.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Serialization("decoding JSON line").WithCause(err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.Schema("line is not a JSON object")
	}

	rec := record.New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Serialization("decoding JSON line").WithCause(err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.Serialization("decoding JSON line: non-string object key")
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, errors.Serialization("decoding JSON line").WithCause(err)
		}
		rec.SetField(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, errors.Serialization("decoding JSON line").WithCause(err)
	}
	return rec, nil
}

var _ pipeline.Source = (*JSONLines)(nil)
