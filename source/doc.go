// Package source provides the built-in record sources: csv, jsonlines,
// msgpack, and sqlite.
//
// Each adapter registers a factory in the default pipeline registry from
// init(), so importing this package (usually for side effects) makes the
// adapters available to YAML pipeline definitions:
//
//	import _ "github.com/kbukum/etlkit/source"
//
// Sources derive their schema from the resource itself: the CSV header
// line, the first JSON Lines object, the first MessagePack document, or
// the SQLite table metadata. Read returns a fresh iterator over the full
// stream on every call; the iterator owns the handles it opens, and
// closing the source never invalidates an already-returned iterator.
//
// # Usage
//
//	src := source.NewCSV("orders.csv", source.WithDelimiter(';'))
//
//	iter, err := src.Read(ctx)
//	if err != nil { ... }
//	defer iter.Close()
package source
