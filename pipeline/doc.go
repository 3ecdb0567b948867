// Package pipeline provides the etlkit execution core: the Source, Sink,
// and Transform contracts, the pull Iterator they exchange records
// through, and the single-shot driver that moves records from one source
// through an ordered transform chain into one sink.
//
// Adapters register factories under type names (see RegisterSource and
// friends), so pipelines can be built programmatically or declared in
// YAML definitions and resolved with Build.
//
// # Usage
//
//	src := source.NewCSV("in.csv")
//	dst := sink.NewJSONLines("out.jsonl")
//
//	p := pipeline.New(src, nil, dst, pipeline.WithName("orders"))
//	if err := p.Run(ctx); err != nil { ... }
//
// A pipeline runs at most once: Created -> Running -> Completed or
// Failed. Driving is strictly sequential; the first error stops the run.
package pipeline
