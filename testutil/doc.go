// Package testutil provides in-memory fakes and file helpers for
// testing etlkit pipelines.
//
// SliceSource serves a fixed schema and record list as a pipeline
// source, with per-item and structural failure injection. CaptureSink
// records everything written to it. Both count lifecycle calls so tests
// can assert close ordering and single-use semantics.
//
//	src := &testutil.SliceSource{
//	    SchemaVal: schema,
//	    Items:     testutil.Records(rec1, rec2),
//	}
//	dst := &testutil.CaptureSink{}
//
//	err := pipeline.New(src, nil, dst).Run(ctx)
package testutil
