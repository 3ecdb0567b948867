package pipeline_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/kbukum/etlkit/errors"
	"github.com/kbukum/etlkit/logger"
	"github.com/kbukum/etlkit/pipeline"
	"github.com/kbukum/etlkit/record"
	"github.com/kbukum/etlkit/testutil"
	"github.com/kbukum/etlkit/transform"
)

func makeRecord(t *testing.T, pairs ...any) *record.Record {
	t.Helper()
	if len(pairs)%2 != 0 {
		t.Fatal("makeRecord needs name/value pairs")
	}
	rec := record.New()
	for i := 0; i < len(pairs); i += 2 {
		rec.SetField(pairs[i].(string), pairs[i+1])
	}
	return rec
}

func newPipeline(src pipeline.Source, trs []pipeline.Transform, snk pipeline.Sink) *pipeline.Pipeline {
	return pipeline.New(src, trs, snk, pipeline.WithLogger(logger.Nop()))
}

func TestRun_MovesAllRecordsInOrder(t *testing.T) {
	r1 := makeRecord(t, "id", int64(1))
	r2 := makeRecord(t, "id", int64(2))
	r3 := makeRecord(t, "id", int64(3))
	src := &testutil.SliceSource{Items: testutil.Records(r1, r2, r3)}
	snk := &testutil.CaptureSink{}

	p := newPipeline(src, nil, snk)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(snk.Written) != 3 {
		t.Fatalf("wrote %d records, want 3", len(snk.Written))
	}
	for i, want := range []int64{1, 2, 3} {
		got, _ := snk.Written[i].Field("id")
		if got != want {
			t.Errorf("written[%d].id = %v, want %d", i, got, want)
		}
	}
	if p.State() != pipeline.StateCompleted {
		t.Errorf("state = %v, want completed", p.State())
	}
	if snk.Closes != 1 || src.Closes != 1 {
		t.Errorf("closes: sink=%d source=%d, want 1 each", snk.Closes, src.Closes)
	}
}

func TestRun_TransformChainAppliesInOrder(t *testing.T) {
	src := &testutil.SliceSource{Items: testutil.Records(makeRecord(t, "trail", ""))}
	snk := &testutil.CaptureSink{}

	appendMark := func(mark string) pipeline.Transform {
		return transform.NewFunc("mark-"+mark, func(_ context.Context, rec *record.Record) ([]*record.Record, error) {
			trail, _ := rec.Field("trail")
			rec.SetField("trail", trail.(string)+mark)
			return []*record.Record{rec}, nil
		})
	}

	p := newPipeline(src, []pipeline.Transform{appendMark("a"), appendMark("b"), appendMark("c")}, snk)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	trail, _ := snk.Written[0].Field("trail")
	if trail != "abc" {
		t.Errorf("trail = %q, want abc: transforms must run in declaration order", trail)
	}
}

func TestRun_TransformsReceiveClones(t *testing.T) {
	original := makeRecord(t, "id", int64(1))
	src := &testutil.SliceSource{Items: testutil.Records(original)}
	snk := &testutil.CaptureSink{}

	// Mutates the record it receives but produces nothing, so the
	// pre-transform record must flow on untouched.
	vandal := transform.NewFunc("vandal", func(_ context.Context, rec *record.Record) ([]*record.Record, error) {
		rec.SetField("id", int64(999))
		rec.SetField("tampered", true)
		return nil, nil
	})

	p := newPipeline(src, []pipeline.Transform{vandal}, snk)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := snk.Written[0]
	if id, _ := got.Field("id"); id != int64(1) {
		t.Errorf("id = %v, want 1: mutation of the clone leaked through", id)
	}
	if got.Has("tampered") {
		t.Error("mutation of the clone leaked through")
	}
	if id, _ := original.Field("id"); id != int64(1) {
		t.Errorf("source record mutated: id = %v", id)
	}
}

func TestRun_EmptyTransformOutputPassesRecordThrough(t *testing.T) {
	records := testutil.Records(
		makeRecord(t, "id", int64(1)),
		makeRecord(t, "id", int64(2)),
	)
	src := &testutil.SliceSource{Items: records}
	snk := &testutil.CaptureSink{}

	silent := transform.NewFunc("silent", func(context.Context, *record.Record) ([]*record.Record, error) {
		return nil, nil
	})

	p := newPipeline(src, []pipeline.Transform{silent}, snk)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// A transform that produces nothing does not drop the record: every
	// input still reaches the sink.
	if len(snk.Written) != 2 {
		t.Fatalf("wrote %d records, want 2", len(snk.Written))
	}
	for i, want := range []int64{1, 2} {
		if id, _ := snk.Written[i].Field("id"); id != want {
			t.Errorf("written[%d].id = %v, want %d", i, id, want)
		}
	}
}

func TestRun_FirstTransformOutputWins(t *testing.T) {
	src := &testutil.SliceSource{Items: testutil.Records(makeRecord(t, "id", int64(1)))}
	snk := &testutil.CaptureSink{}

	fanOut := transform.NewFunc("fan-out", func(_ context.Context, _ *record.Record) ([]*record.Record, error) {
		first := record.New()
		first.SetField("pick", "first")
		second := record.New()
		second.SetField("pick", "second")
		return []*record.Record{first, second}, nil
	})

	p := newPipeline(src, []pipeline.Transform{fanOut}, snk)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(snk.Written) != 1 {
		t.Fatalf("wrote %d records, want 1", len(snk.Written))
	}
	if pick, _ := snk.Written[0].Field("pick"); pick != "first" {
		t.Errorf("pick = %v, want first", pick)
	}
}

func TestRun_ItemErrorStopsRun(t *testing.T) {
	boom := errors.Serialization("bad line")
	src := &testutil.SliceSource{Items: []testutil.Item{
		{Record: makeRecord(t, "id", int64(1))},
		{Err: boom},
		{Record: makeRecord(t, "id", int64(3))},
	}}
	snk := &testutil.CaptureSink{}

	p := newPipeline(src, nil, snk)
	err := p.Run(context.Background())
	if err == nil {
		t.Fatal("Run should fail on a per-item error")
	}
	if !errors.HasKind(err, errors.KindSerialization) {
		t.Errorf("error kind = %v, want SERIALIZATION", errors.KindOf(err))
	}
	if len(snk.Written) != 1 {
		t.Errorf("wrote %d records before the error, want 1", len(snk.Written))
	}
	if p.State() != pipeline.StateFailed {
		t.Errorf("state = %v, want failed", p.State())
	}
}

func TestRun_ReadFailureLeavesSinkUntouched(t *testing.T) {
	src := &testutil.SliceSource{ReadErr: errors.Source("cannot open")}
	snk := &testutil.CaptureSink{}

	p := newPipeline(src, nil, snk)
	if err := p.Run(context.Background()); err == nil {
		t.Fatal("Run should fail when the source cannot open")
	}
	if len(snk.Written) != 0 || snk.Closes != 0 {
		t.Errorf("sink touched on read failure: written=%d closes=%d", len(snk.Written), snk.Closes)
	}
	if p.State() != pipeline.StateFailed {
		t.Errorf("state = %v, want failed", p.State())
	}
}

func TestRun_TransformErrorFailsRun(t *testing.T) {
	src := &testutil.SliceSource{Items: testutil.Records(makeRecord(t, "id", int64(1)))}
	snk := &testutil.CaptureSink{}

	failing := transform.NewFunc("failing", func(context.Context, *record.Record) ([]*record.Record, error) {
		return nil, errors.Transform("no can do")
	})

	p := newPipeline(src, []pipeline.Transform{failing}, snk)
	err := p.Run(context.Background())
	if !errors.HasKind(err, errors.KindTransform) {
		t.Fatalf("error = %v, want TRANSFORM kind", err)
	}
	if len(snk.Written) != 0 {
		t.Errorf("wrote %d records, want 0", len(snk.Written))
	}
}

func TestRun_SinkWriteErrorFailsRun(t *testing.T) {
	src := &testutil.SliceSource{Items: testutil.Records(
		makeRecord(t, "id", int64(1)),
		makeRecord(t, "id", int64(2)),
	)}
	snk := &testutil.CaptureSink{WriteErr: errors.Sink("disk full"), WriteErrAt: 1}

	p := newPipeline(src, nil, snk)
	err := p.Run(context.Background())
	if !errors.HasKind(err, errors.KindSink) {
		t.Fatalf("error = %v, want SINK kind", err)
	}
	if len(snk.Written) != 1 {
		t.Errorf("wrote %d records before the failure, want 1", len(snk.Written))
	}
}

func TestRun_SinkCloseFailureSkipsSourceClose(t *testing.T) {
	src := &testutil.SliceSource{Items: testutil.Records(makeRecord(t, "id", int64(1)))}
	snk := &testutil.CaptureSink{CloseErr: errors.Sink("close failed")}

	p := newPipeline(src, nil, snk)
	err := p.Run(context.Background())
	if !errors.HasKind(err, errors.KindSink) {
		t.Fatalf("error = %v, want the sink close error", err)
	}
	if src.Closes != 0 {
		t.Errorf("source closed %d times after sink close failed, want 0", src.Closes)
	}
	if p.State() != pipeline.StateFailed {
		t.Errorf("state = %v, want failed", p.State())
	}
}

func TestRun_SingleShot(t *testing.T) {
	src := &testutil.SliceSource{Items: testutil.Records(makeRecord(t, "id", int64(1)))}
	snk := &testutil.CaptureSink{}

	p := newPipeline(src, nil, snk)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}

	err := p.Run(context.Background())
	if err == nil {
		t.Fatal("second Run should fail")
	}
	if !errors.HasKind(err, errors.KindConfig) {
		t.Errorf("error kind = %v, want CONFIG", errors.KindOf(err))
	}
	if p.State() != pipeline.StateCompleted {
		t.Errorf("state = %v, want completed to survive the rejected rerun", p.State())
	}
	if src.Reads != 1 {
		t.Errorf("source read %d times, want 1", src.Reads)
	}
}

func TestRun_FailedPipelineStaysFailed(t *testing.T) {
	src := &testutil.SliceSource{ReadErr: stderrors.New("nope")}
	p := newPipeline(src, nil, &testutil.CaptureSink{})

	if err := p.Run(context.Background()); err == nil {
		t.Fatal("Run should fail")
	}
	if err := p.Run(context.Background()); !errors.HasKind(err, errors.KindConfig) {
		t.Errorf("rerun error = %v, want CONFIG", err)
	}
	if p.State() != pipeline.StateFailed {
		t.Errorf("state = %v, want failed", p.State())
	}
}

func TestRun_CanceledContextStopsBetweenRecords(t *testing.T) {
	src := &testutil.SliceSource{Items: testutil.Records(makeRecord(t, "id", int64(1)))}
	snk := &testutil.CaptureSink{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newPipeline(src, nil, snk)
	err := p.Run(ctx)
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if len(snk.Written) != 0 {
		t.Errorf("wrote %d records under a canceled context, want 0", len(snk.Written))
	}
	if p.State() != pipeline.StateFailed {
		t.Errorf("state = %v, want failed", p.State())
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state pipeline.State
		want  string
	}{
		{pipeline.StateCreated, "created"},
		{pipeline.StateRunning, "running"},
		{pipeline.StateCompleted, "completed"},
		{pipeline.StateFailed, "failed"},
		{pipeline.State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestOutputSchema_ThreadsTransformChain(t *testing.T) {
	schema, err := record.NewSchema(
		record.Field{Name: "id", Type: record.TypeInteger},
		record.Field{Name: "name", Type: record.TypeString},
		record.Field{Name: "total", Type: record.TypeFloat},
	)
	if err != nil {
		t.Fatalf("NewSchema failed: %v", err)
	}
	src := &testutil.SliceSource{SchemaVal: schema}

	got, err := pipeline.OutputSchema(context.Background(), src,
		transform.NewProject("total", "id"),
		transform.NewRename(map[string]string{"total": "amount"}),
	)
	if err != nil {
		t.Fatalf("OutputSchema failed: %v", err)
	}

	names := got.FieldNames()
	if len(names) != 2 || names[0] != "amount" || names[1] != "id" {
		t.Errorf("FieldNames() = %v, want [amount id]", names)
	}
	if f, _ := got.Field("amount"); f.Type != record.TypeFloat {
		t.Errorf("amount type = %v, want float", f.Type)
	}
}

func TestOutputSchema_TransformErrorPropagates(t *testing.T) {
	schema, _ := record.NewSchema(record.Field{Name: "id", Type: record.TypeInteger})
	src := &testutil.SliceSource{SchemaVal: schema}

	_, err := pipeline.OutputSchema(context.Background(), src, transform.NewProject("ghost"))
	if !errors.HasKind(err, errors.KindSchema) {
		t.Errorf("error = %v, want SCHEMA kind", err)
	}
}

func TestWriteBatch_SequentialPartialFailure(t *testing.T) {
	boom := errors.Sink("disk full")
	snk := &testutil.CaptureSink{WriteErr: boom, WriteErrAt: 1}

	recs := []*record.Record{
		makeRecord(t, "id", int64(1)),
		makeRecord(t, "id", int64(2)),
		makeRecord(t, "id", int64(3)),
	}
	err := pipeline.WriteBatch(context.Background(), snk, recs)
	if err == nil {
		t.Fatal("WriteBatch should propagate the write failure")
	}
	// Sequential fallback: the first record stays written, nothing after
	// the failure is attempted.
	if len(snk.Written) != 1 {
		t.Errorf("wrote %d records, want 1", len(snk.Written))
	}
}

type batchRecorder struct {
	testutil.CaptureSink
	batches [][]*record.Record
}

func (s *batchRecorder) WriteBatch(_ context.Context, recs []*record.Record) error {
	s.batches = append(s.batches, recs)
	return nil
}

func TestWriteBatch_PrefersBatchSink(t *testing.T) {
	snk := &batchRecorder{}
	recs := []*record.Record{makeRecord(t, "id", int64(1)), makeRecord(t, "id", int64(2))}

	if err := pipeline.WriteBatch(context.Background(), snk, recs); err != nil {
		t.Fatalf("WriteBatch failed: %v", err)
	}
	if len(snk.batches) != 1 || len(snk.batches[0]) != 2 {
		t.Errorf("batches = %v, want one batch of 2", snk.batches)
	}
	if len(snk.Written) != 0 {
		t.Errorf("sequential Write used despite BatchSink: %d writes", len(snk.Written))
	}
}
