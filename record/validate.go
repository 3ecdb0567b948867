package record

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/kbukum/etlkit/errors"
)

// Validate checks the record against a schema and returns the first
// violation in schema declaration order, or nil.
//
// An absent field is allowed only when the declaration is nullable. A
// present field must carry a value compatible with the declared type:
//
//	string  -> String, DateTime, Bytes
//	integer -> Integer
//	float   -> Float
//	bool    -> Boolean
//	any     -> JSON
//
// Numbers held as json.Number are classified by the shape of their
// literal: no fraction or exponent means integer, otherwise float. An
// explicit nil value satisfies only JSON; storing nil in a nullable
// non-JSON field is still an incompatible type. Record fields not named
// by the schema are ignored.
func (r *Record) Validate(schema Schema) error {
	for _, f := range schema.Fields {
		value, ok := r.fields[f.Name]
		if !ok {
			if !f.Nullable {
				return errors.MissingField(f.Name)
			}
			continue
		}
		if !compatible(value, f.Type) {
			return errors.IncompatibleType(f.Name)
		}
	}
	return nil
}

func compatible(value any, dt DataType) bool {
	if dt == TypeJSON {
		return true
	}
	switch v := value.(type) {
	case string:
		return dt == TypeString || dt == TypeDateTime || dt == TypeBytes
	case bool:
		return dt == TypeBoolean
	case json.Number:
		switch numberShape(v) {
		case TypeInteger:
			return dt == TypeInteger
		case TypeFloat:
			return dt == TypeFloat
		}
		return false
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return dt == TypeInteger
	case float32, float64:
		return dt == TypeFloat
	default:
		// nil and nested structures satisfy only JSON.
		return false
	}
}

// numberShape classifies a JSON number literal as integer or float. A
// literal that fits int64 is an integer; one carrying a fraction or
// exponent is a float; anything else (for example an out-of-range
// integer literal) is neither and reports the empty DataType.
func numberShape(n json.Number) DataType {
	s := string(n)
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return TypeInteger
	}
	if strings.ContainsAny(s, ".eE") {
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return TypeFloat
		}
	}
	return ""
}
