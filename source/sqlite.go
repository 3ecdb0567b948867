package source

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kbukum/etlkit/errors"
	"github.com/kbukum/etlkit/pipeline"
	"github.com/kbukum/etlkit/record"
	"github.com/kbukum/etlkit/validation"
)

func init() {
	pipeline.RegisterSource("sqlite", func(opts map[string]any) (pipeline.Source, error) {
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

// SQLite reads every row of one table from a SQLite database file, in
// the order the database returns them.
type SQLite struct {
	path  string
	table string
	db    *sql.DB
}

// NewSQLite creates a SQLite source reading the named table of the
// database file at path.
func NewSQLite(path, table string) *SQLite {
	return &SQLite{path: path, table: table}
}

// Name returns "sqlite".
func (s *SQLite) Name() string { return "sqlite" }

// ensureDB opens the database handle on first use. Sources never create
// database files, so a missing path is an IO error rather than a fresh
// empty database.
func (s *SQLite) ensureDB() (*sql.DB, error) {
	if s.db != nil {
		return s.db, nil
	}
	if _, err := os.Stat(s.path); err != nil {
		return nil, errors.IO("opening SQLite database").WithCause(err).WithDetail("path", s.path)
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, errors.IO("opening SQLite database").WithCause(err).WithDetail("path", s.path)
	}
	s.db = db
	return db, nil
}

// Schema derives the schema from the table's column metadata: declared
// type affinity maps onto the record data types, and NOT NULL columns
// declare as non-nullable.
func (s *SQLite) Schema(ctx context.Context) (record.Schema, error) {
	db, err := s.ensureDB()
	if err != nil {
		return record.Schema{}, err
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(s.table)))
	if err != nil {
		return record.Schema{}, errors.Source("reading SQLite table metadata").WithCause(err).WithDetail("table", s.table)
	}
	defer rows.Close()

	var fields []record.Field
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, declType   string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &declType, &notNull, &dflt, &pk); err != nil {
			return record.Schema{}, errors.Source("scanning SQLite table metadata").WithCause(err)
		}
		fields = append(fields, record.Field{
			Name:     name,
			Type:     typeFromDecl(declType),
			Nullable: notNull == 0,
		})
	}
	if err := rows.Err(); err != nil {
		return record.Schema{}, errors.Source("reading SQLite table metadata").WithCause(err)
	}
	if len(fields) == 0 {
		return record.Schema{}, errors.Source("SQLite table not found: " + s.table).WithDetail("path", s.path)
	}
	return record.NewSchema(fields...)
}

// Read selects every row of the table. Integer columns arrive as int64
// and REAL columns as float64; BOOLEAN columns surface as bools, BLOB
// columns as base64 strings, and NULL columns as absent fields.
func (s *SQLite) Read(ctx context.Context) (pipeline.Iterator[*record.Record], error) {
	schema, err := s.Schema(ctx)
	if err != nil {
		return nil, err
	}
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s", quoteIdent(s.table)))
	if err != nil {
		return nil, errors.Source("querying SQLite table").WithCause(err).WithDetail("table", s.table)
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, errors.Source("reading SQLite columns").WithCause(err)
	}

	types := make([]record.DataType, len(cols))
	for i, col := range cols {
		if f, ok := schema.Field(col); ok {
			types[i] = f.Type
		} else {
			types[i] = record.TypeJSON
		}
	}
	return &sqliteIterator{rows: rows, columns: cols, types: types}, nil
}

// Close releases the database handle. Safe to call before Read and more
// than once.
func (s *SQLite) Close(context.Context) error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return errors.Source("closing SQLite database").WithCause(err)
	}
	return nil
}

type sqliteIterator struct {
	rows    *sql.Rows
	columns []string
	types   []record.DataType
}

func (it *sqliteIterator) Next(context.Context) (*record.Record, bool, error) {
	if !it.rows.Next() {
		if err := it.rows.Err(); err != nil {
			return nil, false, errors.Source("iterating SQLite rows").WithCause(err)
		}
		return nil, false, nil
	}

	values := make([]any, len(it.columns))
	ptrs := make([]any, len(it.columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := it.rows.Scan(ptrs...); err != nil {
		return nil, false, errors.Source("scanning SQLite row").WithCause(err)
	}

	rec := record.New()
	for i, col := range it.columns {
		value := columnValue(values[i], it.types[i])
		if value == nil {
			continue
		}
		rec.SetField(col, value)
	}
	return rec, true, nil
}

func (it *sqliteIterator) Close() error {
	if it.rows == nil {
		return nil
	}
	err := it.rows.Close()
	it.rows = nil
	return err
}

// typeFromDecl maps a declared SQLite column type onto a record data
// type following SQLite's affinity rules. BOOL and date/time
// declarations are recognized before the plain numeric affinities.
func typeFromDecl(decl string) record.DataType {
	d := strings.ToUpper(decl)
	switch {
	case strings.Contains(d, "BOOL"):
		return record.TypeBoolean
	case strings.Contains(d, "INT"):
		return record.TypeInteger
	case strings.Contains(d, "CHAR"), strings.Contains(d, "CLOB"), strings.Contains(d, "TEXT"):
		return record.TypeString
	case strings.Contains(d, "BLOB"):
		return record.TypeBytes
	case strings.Contains(d, "REAL"), strings.Contains(d, "FLOA"), strings.Contains(d, "DOUB"):
		return record.TypeFloat
	case strings.Contains(d, "DATE"), strings.Contains(d, "TIME"):
		return record.TypeDateTime
	default:
		return record.TypeJSON
	}
}

// columnValue converts one scanned column into a record value. NULL
// columns return nil and end up absent from the record.
func columnValue(v any, dt record.DataType) any {
	switch val := v.(type) {
	case nil:
		return nil
	case int64:
		if dt == record.TypeBoolean {
			return val != 0
		}
		return val
	case []byte:
		if dt == record.TypeBytes {
			return base64.StdEncoding.EncodeToString(val)
		}
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return val
	}
}

// quoteIdent quotes a SQLite identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

var _ pipeline.Source = (*SQLite)(nil)
