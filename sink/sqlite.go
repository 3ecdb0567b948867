package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/kbukum/etlkit/errors"
	"github.com/kbukum/etlkit/pipeline"
	"github.com/kbukum/etlkit/record"
	"github.com/kbukum/etlkit/validation"
)

func init() {
	pipeline.RegisterSink("sqlite", func(opts map[string]any) (pipeline.Sink, error) {
		var cfg sqliteConfig
		if err := pipeline.DecodeOptions(opts, &cfg); err != nil {
			return nil, err
		}
		if err := validation.Validate(cfg); err != nil {
			return nil, err
		}
		return NewSQLite(cfg.Path, cfg.Table), nil
	})
}

type sqliteConfig struct {
	Path  string `mapstructure:"path" validate:"required"`
	Table string `mapstructure:"table" validate:"required"`
}

// SQLite appends records as rows of one table, creating the database
// file and the table on the first write. The column list and column
// affinities come from the first written record; later records render
// against that column list, with missing fields stored as NULL and
// extra fields dropped.
//
// WriteBatch runs inside a single transaction: a failing batch leaves
// no rows behind, unlike the sequential write loop.
type SQLite struct {
	path      string
	table     string
	db        *sql.DB
	columns   []string
	insertSQL string
	closed    bool
}

// NewSQLite creates a SQLite sink writing to the named table of the
// database file at path.
func NewSQLite(path, table string) *SQLite {
	return &SQLite{path: path, table: table}
}

// Name returns "sqlite".
func (s *SQLite) Name() string { return "sqlite" }

// Write inserts one record as a row, creating the table first when this
// is the first record.
func (s *SQLite) Write(ctx context.Context, rec *record.Record) error {
	if s.closed {
		return errors.Sink("write to closed SQLite sink").WithDetail("path", s.path)
	}
	if err := s.ensureTable(ctx, rec); err != nil {
		return err
	}
	args, err := s.bindArgs(rec)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.insertSQL, args...); err != nil {
		return errors.Sink("inserting SQLite row").WithCause(err).WithDetail("table", s.table)
	}
	return nil
}

// WriteBatch inserts records in one transaction: either every record
// lands or none does.
func (s *SQLite) WriteBatch(ctx context.Context, recs []*record.Record) error {
	if s.closed {
		return errors.Sink("write to closed SQLite sink").WithDetail("path", s.path)
	}
	if len(recs) == 0 {
		return nil
	}
	if err := s.ensureTable(ctx, recs[0]); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Sink("starting SQLite transaction").WithCause(err)
	}
	for _, rec := range recs {
		args, err := s.bindArgs(rec)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.ExecContext(ctx, s.insertSQL, args...); err != nil {
			_ = tx.Rollback()
			return errors.Sink("inserting SQLite row").WithCause(err).WithDetail("table", s.table)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Sink("committing SQLite transaction").WithCause(err)
	}
	return nil
}

// Flush is a no-op: inserts are durable per statement.
func (s *SQLite) Flush(context.Context) error { return nil }

// Close releases the database handle. Closing an already-closed or
// never-written sink returns nil.
func (s *SQLite) Close(context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return errors.Sink("closing SQLite database").WithCause(err)
	}
	return nil
}

// ensureTable opens the database and creates the target table from the
// first record's shape. The resolved column list drives every later
// insert.
func (s *SQLite) ensureTable(ctx context.Context, rec *record.Record) error {
	if s.db == nil {
		db, err := sql.Open("sqlite", s.path)
		if err != nil {
			return errors.IO("opening SQLite database").WithCause(err).WithDetail("path", s.path)
		}
		s.db = db
	}
	if s.columns != nil {
		return nil
	}

	columns := rec.FieldNames()
	defs := make([]string, len(columns))
	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, col := range columns {
		value, _ := rec.Field(col)
		quoted[i] = quoteIdent(col)
		defs[i] = quoted[i] + " " + columnAffinity(value)
		marks[i] = "?"
	}

	createSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		quoteIdent(s.table), strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, createSQL); err != nil {
		return errors.Sink("creating SQLite table").WithCause(err).WithDetail("table", s.table)
	}

	s.insertSQL = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(s.table), strings.Join(quoted, ", "), strings.Join(marks, ", "))
	s.columns = columns
	return nil
}

func (s *SQLite) bindArgs(rec *record.Record) ([]any, error) {
	args := make([]any, len(s.columns))
	for i, col := range s.columns {
		value, ok := rec.Field(col)
		if !ok {
			continue
		}
		bound, err := bindValue(value)
		if err != nil {
			return nil, err
		}
		args[i] = bound
	}
	return args, nil
}

// columnAffinity picks the declared column type for a first-record value.
func columnAffinity(v any) string {
	switch val := v.(type) {
	case bool:
		return "BOOLEAN"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "INTEGER"
	case float32, float64:
		return "REAL"
	case json.Number:
		if _, err := val.Int64(); err == nil {
			return "INTEGER"
		}
		return "REAL"
	default:
		return "TEXT"
	}
}

// bindValue converts a record value into a driver argument. Nested
// values are stored as JSON text.
func bindValue(v any) (any, error) {
	switch val := v.(type) {
	case nil, string, bool, int64, uint64, float64:
		return val, nil
	case int:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case uint:
		return int64(val), nil
	case uint8:
		return int64(val), nil
	case uint16:
		return int64(val), nil
	case uint32:
		return int64(val), nil
	case float32:
		return float64(val), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, errors.Serialization("invalid number literal: " + val.String()).WithCause(err)
		}
		return f, nil
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return nil, errors.Serialization("encoding SQLite value").WithCause(err)
		}
		return string(b), nil
	default:
		return val, nil
	}
}

// quoteIdent quotes a SQLite identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

var (
	_ pipeline.Sink      = (*SQLite)(nil)
	_ pipeline.BatchSink = (*SQLite)(nil)
)
