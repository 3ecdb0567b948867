package sink

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/kbukum/etlkit/errors"
	"github.com/kbukum/etlkit/pipeline"
	"github.com/kbukum/etlkit/record"
	"github.com/kbukum/etlkit/source"
)

func readBack(t *testing.T, src pipeline.Source) []*record.Record {
	t.Helper()
	it, err := src.Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	recs, err := pipeline.Collect(context.Background(), it)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	return recs
}

func TestMessagePack_RoundTripThroughSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.msgpack")
	writeAll(t, NewMessagePack(path),
		sinkRecord(t,
			"id", json.Number("42"),
			"score", json.Number("2.5"),
			"name", "amara",
			"ok", true,
			"note", nil,
			"obj", map[string]any{"b": json.Number("1"), "a": "x"},
			"list", []any{json.Number("1"), "two"},
		),
		sinkRecord(t, "id", json.Number("43")),
	)

	recs := readBack(t, source.NewMessagePack(path))
	if len(recs) != 2 {
		t.Fatalf("read %d records, want 2", len(recs))
	}

	first := recs[0]
	names := first.FieldNames()
	if len(names) != 7 || names[0] != "id" || names[6] != "list" {
		t.Errorf("FieldNames() = %v, want written order", names)
	}
	if v, _ := first.Field("id"); v != int64(42) {
		t.Errorf("id = %v (%T), want int64(42)", v, v)
	}
	if v, _ := first.Field("score"); v != 2.5 {
		t.Errorf("score = %v (%T), want 2.5", v, v)
	}
	if v, _ := first.Field("name"); v != "amara" {
		t.Errorf("name = %v", v)
	}
	if v, _ := first.Field("ok"); v != true {
		t.Errorf("ok = %v", v)
	}
	if v, ok := first.Field("note"); !ok || v != nil {
		t.Errorf("note = %v present=%v, want present nil", v, ok)
	}
	if v, _ := first.Field("obj"); !reflect.DeepEqual(v, map[string]any{"a": "x", "b": int64(1)}) {
		t.Errorf("obj = %#v", v)
	}
	if v, _ := first.Field("list"); !reflect.DeepEqual(v, []any{int64(1), "two"}) {
		t.Errorf("list = %#v", v)
	}

	if v, _ := recs[1].Field("id"); v != int64(43) {
		t.Errorf("second id = %v", v)
	}
}

func TestMessagePack_NoWritesLeavesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.msgpack")
	snk := NewMessagePack(path)

	if err := snk.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Stat error = %v, want not-exist", err)
	}
}

func TestMessagePack_WriteAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.msgpack")
	snk := NewMessagePack(path)
	if err := snk.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	err := snk.Write(context.Background(), sinkRecord(t, "id", "1"))
	if !errors.HasKind(err, errors.KindSink) {
		t.Errorf("Write error = %v, want SINK kind", err)
	}
	if err := snk.Close(context.Background()); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
}

func TestMessagePack_Factory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.msgpack")
	snk, err := pipeline.NewSink("msgpack", map[string]any{"path": path})
	if err != nil {
		t.Fatalf("NewSink failed: %v", err)
	}
	writeAll(t, snk, sinkRecord(t, "id", json.Number("7")))

	recs := readBack(t, source.NewMessagePack(path))
	if len(recs) != 1 {
		t.Fatalf("read %d records, want 1", len(recs))
	}
	if v, _ := recs[0].Field("id"); v != int64(7) {
		t.Errorf("id = %v", v)
	}

	if _, err := pipeline.NewSink("msgpack", nil); !errors.HasKind(err, errors.KindConfig) {
		t.Errorf("missing path error = %v, want CONFIG kind", err)
	}
}
