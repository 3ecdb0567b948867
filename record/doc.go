// Package record defines the data model flowing through etlkit pipelines:
// dynamically-typed records and the schemas that describe them.
//
// A Record is an insertion-ordered mapping of field names to values plus
// free-form string metadata. Values are limited to JSON-compatible shapes:
// strings, numbers, booleans, nil, and nested maps/slices thereof. Numbers
// decoded from text arrive as json.Number so integer and float shapes stay
// distinguishable.
//
// A Schema is an ordered list of field declarations. Validation of a record
// against a schema is explicit and never happens implicitly on construction
// or inside the pipeline driver.
//
// # Usage
//
//	schema, err := record.NewSchema(
//	    record.Field{Name: "id", Type: record.TypeInteger},
//	    record.Field{Name: "name", Type: record.TypeString, Nullable: true},
//	)
//
//	rec := record.New()
//	rec.SetField("id", int64(7))
//	rec.SetField("name", "amara")
//
//	if err := rec.Validate(schema); err != nil { ... }
package record
