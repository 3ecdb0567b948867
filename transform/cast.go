package transform

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/kbukum/etlkit/errors"
	"github.com/kbukum/etlkit/pipeline"
	"github.com/kbukum/etlkit/record"
	"github.com/kbukum/etlkit/validation"
)

func init() {
	pipeline.RegisterTransform("cast", func(opts map[string]any) (pipeline.Transform, error) {
		var cfg castConfig
		if err := pipeline.DecodeOptions(opts, &cfg); err != nil {
			return nil, err
		}
		if err := validation.Validate(cfg); err != nil {
			return nil, err
		}
		targets := make(map[string]record.DataType, len(cfg.Fields))
		for field, typeName := range cfg.Fields {
			dt, err := record.ParseDataType(typeName)
			if err != nil {
				return nil, err
			}
			targets[field] = dt
		}
		return NewCast(targets), nil
	})
}

type castConfig struct {
	Fields map[string]string `mapstructure:"fields" validate:"required,min=1"`
}

// Cast converts field values to declared target types: numbers and
// numeric strings to integer/float, boolean strings to boolean, scalars
// to their string form, RFC 3339 strings to datetime, base64 strings to
// bytes, and JSON text to parsed JSON values. Target fields absent from
// a record are skipped; a value that cannot convert is a TRANSFORM error
// naming the field.
type Cast struct {
	targets map[string]record.DataType
}

// NewCast creates a cast over a field-name to target-type mapping.
func NewCast(targets map[string]record.DataType) *Cast {
	return &Cast{targets: targets}
}

// Name returns "cast".
func (t *Cast) Name() string { return "cast" }

// Apply returns one record with the targeted fields converted. The
// input record is not touched.
func (t *Cast) Apply(_ context.Context, rec *record.Record) ([]*record.Record, error) {
	out := rec.Clone()
	for _, name := range out.FieldNames() {
		target, ok := t.targets[name]
		if !ok {
			continue
		}
		value, _ := out.Field(name)
		cast, err := castValue(value, target)
		if err != nil {
			if pe, ok := errors.AsPipelineError(err); ok {
				return nil, pe.WithDetail("field", name)
			}
			return nil, err
		}
		out.SetField(name, cast)
	}
	return []*record.Record{out}, nil
}

// OutputSchema retypes the targeted declarations. Casting a field the
// input schema does not declare is a SCHEMA error.
func (t *Cast) OutputSchema(input record.Schema) (record.Schema, error) {
	for name := range t.targets {
		if _, ok := input.Field(name); !ok {
			return record.Schema{}, errors.Schema("casting unknown field: " + name).WithDetail("field", name)
		}
	}
	fields := make([]record.Field, len(input.Fields))
	for i, f := range input.Fields {
		if dt, ok := t.targets[f.Name]; ok {
			f.Type = dt
		}
		fields[i] = f
	}
	schema, err := record.NewSchema(fields...)
	if err != nil {
		return record.Schema{}, err
	}
	return schema.WithMetadata(input.Metadata), nil
}

func castValue(v any, target record.DataType) (any, error) {
	if v == nil {
		if target == record.TypeJSON {
			return nil, nil
		}
		return nil, errors.Transform("cannot cast null value to " + target.String())
	}
	switch target {
	case record.TypeInteger:
		return castInteger(v)
	case record.TypeFloat:
		return castFloat(v)
	case record.TypeBoolean:
		return castBoolean(v)
	case record.TypeString:
		return castString(v)
	case record.TypeDateTime:
		return castDateTime(v)
	case record.TypeBytes:
		return castBytes(v)
	case record.TypeJSON:
		return castJSON(v)
	default:
		return nil, errors.Transform("unsupported cast target: " + target.String())
	}
}

func castInteger(v any) (any, error) {
	switch val := v.(type) {
	case int64:
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
	case uint64:
		if val > math.MaxInt64 {
			return nil, errors.Transform(fmt.Sprintf("integer overflow: %d", val))
		}
		return int64(val), nil
	case json.Number:
		i, err := val.Int64()
		if err != nil {
			return nil, errors.Transform("cannot cast number to integer: " + val.String()).WithCause(err)
		}
		return i, nil
	case float64:
		return floatToInt(val)
	case float32:
		return floatToInt(float64(val))
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return nil, errors.Transform("cannot cast string to integer: " + val).WithCause(err)
		}
		return i, nil
	default:
		return nil, errors.Transform(fmt.Sprintf("cannot cast %T to integer", v))
	}
}

// floatToInt converts only floats carrying a whole value; anything with
// a fractional part is a conversion failure, not a truncation.
func floatToInt(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, errors.Transform(fmt.Sprintf("cannot cast float to integer: %v", f))
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return nil, errors.Transform(fmt.Sprintf("integer overflow: %v", f))
	}
	return int64(f), nil
}

func castFloat(v any) (any, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int8:
		return float64(val), nil
	case int16:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case uint:
		return float64(val), nil
	case uint8:
		return float64(val), nil
	case uint16:
		return float64(val), nil
	case uint32:
		return float64(val), nil
	case uint64:
		return float64(val), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, errors.Transform("cannot cast number to float: " + val.String()).WithCause(err)
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, errors.Transform("cannot cast string to float: " + val).WithCause(err)
		}
		return f, nil
	default:
		return nil, errors.Transform(fmt.Sprintf("cannot cast %T to float", v))
	}
}

func castBoolean(v any) (any, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return nil, errors.Transform("cannot cast string to boolean: " + val).WithCause(err)
		}
		return b, nil
	default:
		return nil, errors.Transform(fmt.Sprintf("cannot cast %T to boolean", v))
	}
}

func castString(v any) (any, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case bool:
		return strconv.FormatBool(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case int:
		return strconv.Itoa(val), nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return nil, errors.Transform(fmt.Sprintf("cannot cast %T to string", v)).WithCause(err)
		}
		return string(b), nil
	}
}

func castDateTime(v any) (any, error) {
	str, ok := v.(string)
	if !ok {
		return nil, errors.Transform(fmt.Sprintf("cannot cast %T to datetime", v))
	}
	str = strings.TrimSpace(str)
	if _, err := time.Parse(time.RFC3339, str); err != nil {
		return nil, errors.Transform("cannot cast string to datetime: " + str).WithCause(err)
	}
	return str, nil
}

func castBytes(v any) (any, error) {
	str, ok := v.(string)
	if !ok {
		return nil, errors.Transform(fmt.Sprintf("cannot cast %T to bytes", v))
	}
	if _, err := base64.StdEncoding.DecodeString(str); err != nil {
		return nil, errors.Transform("cannot cast string to bytes: not base64").WithCause(err)
	}
	return str, nil
}

// castJSON parses string values as JSON documents; non-string values
// already satisfy the JSON type and pass through untouched.
func castJSON(v any) (any, error) {
	str, ok := v.(string)
	if !ok {
		return v, nil
	}
	dec := json.NewDecoder(strings.NewReader(str))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, errors.Transform("cannot cast string to JSON").WithCause(err)
	}
	return out, nil
}

var _ pipeline.Transform = (*Cast)(nil)
