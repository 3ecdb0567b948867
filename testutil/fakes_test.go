package testutil

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/kbukum/etlkit/pipeline"
	"github.com/kbukum/etlkit/record"
)

func TestSliceSource_YieldsItemsInOrder(t *testing.T) {
	r1 := record.New()
	r1.SetField("id", int64(1))
	r2 := record.New()
	r2.SetField("id", int64(2))

	src := &SliceSource{Items: Records(r1, r2)}

	iter, err := src.Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	got, err := pipeline.Collect(context.Background(), iter)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(got) != 2 || got[0] != r1 || got[1] != r2 {
		t.Errorf("collected %d records, want [r1 r2]", len(got))
	}
	if src.Reads != 1 {
		t.Errorf("Reads = %d, want 1", src.Reads)
	}
}

func TestSliceSource_ItemError(t *testing.T) {
	r1 := record.New()
	r1.SetField("id", int64(1))
	boom := stderrors.New("bad item")

	src := &SliceSource{Items: []Item{{Record: r1}, {Err: boom}}}

	iter, err := src.Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	got, err := pipeline.Collect(context.Background(), iter)
	if err != boom {
		t.Fatalf("Collect error = %v, want %v", err, boom)
	}
	if len(got) != 1 {
		t.Errorf("collected %d records before the error, want 1", len(got))
	}
}

func TestSliceSource_CountsCloses(t *testing.T) {
	src := &SliceSource{}
	if err := src.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := src.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if src.Closes != 2 {
		t.Errorf("Closes = %d, want 2", src.Closes)
	}
}

func TestCaptureSink_RecordsWrites(t *testing.T) {
	snk := &CaptureSink{}
	rec := record.New()
	rec.SetField("id", int64(1))

	if err := snk.Write(context.Background(), rec); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := snk.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if len(snk.Written) != 1 || snk.Written[0] != rec {
		t.Errorf("Written = %v, want the single record", snk.Written)
	}
	if snk.Flushes != 1 {
		t.Errorf("Flushes = %d, want 1", snk.Flushes)
	}
}

func TestCaptureSink_WriteErrAt(t *testing.T) {
	boom := stderrors.New("disk full")
	snk := &CaptureSink{WriteErr: boom, WriteErrAt: 1}

	r1 := record.New()
	r2 := record.New()

	if err := snk.Write(context.Background(), r1); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := snk.Write(context.Background(), r2); err != boom {
		t.Fatalf("second write error = %v, want %v", err, boom)
	}
	if len(snk.Written) != 1 {
		t.Errorf("Written = %d records, want 1", len(snk.Written))
	}
}
