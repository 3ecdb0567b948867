// Package sink provides the built-in record sinks: csv, jsonlines,
// msgpack, and sqlite.
//
// Each adapter registers a factory in the default pipeline registry from
// init(), so importing this package (usually for side effects) makes the
// adapters available to YAML pipeline definitions:
//
//	import _ "github.com/kbukum/etlkit/sink"
//
// Sinks are lazy: the output file, table, or connection is created on
// the first write, so a run that produces no records leaves no artifact
// behind. Write order is persistence order. Close flushes, releases the
// resource, and is idempotent; writing after Close is a SINK error.
//
// # Usage
//
//	dst := sink.NewJSONLines("out.jsonl")
//	defer dst.Close(ctx)
//
//	if err := dst.Write(ctx, rec); err != nil { ... }
//	if err := dst.Flush(ctx); err != nil { ... }
package sink
