// Package transform provides the built-in record transforms: project,
// rename, and cast, plus the Func adapter for inline functions.
//
// project, rename, and cast register factories in the default pipeline
// registry from init():
//
//	import _ "github.com/kbukum/etlkit/transform"
//
// Every built-in maps one input record to exactly one output record and
// never mutates its input. Func is the escape hatch for programmatic
// pipelines that need fan-out, filtering, or arbitrary reshaping.
package transform
