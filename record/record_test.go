package record

import (
	"testing"
)

func TestRecord_InsertionOrder(t *testing.T) {
	rec := New()
	rec.SetField("zeta", 1)
	rec.SetField("alpha", 2)
	rec.SetField("mid", 3)

	want := []string{"zeta", "alpha", "mid"}
	got := rec.FieldNames()
	if len(got) != len(want) {
		t.Fatalf("FieldNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("FieldNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRecord_OverwriteKeepsPosition(t *testing.T) {
	rec := New()
	rec.SetField("a", 1)
	rec.SetField("b", 2)
	rec.SetField("a", 10)

	names := rec.FieldNames()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("FieldNames() = %v, want [a b]", names)
	}
	if v, _ := rec.Field("a"); v != 10 {
		t.Errorf("Field(a) = %v, want 10", v)
	}
	if rec.Len() != 2 {
		t.Errorf("Len() = %d, want 2", rec.Len())
	}
}

func TestRecord_FieldPresence(t *testing.T) {
	rec := New()
	rec.SetField("present", "x")
	rec.SetField("null", nil)

	if _, ok := rec.Field("present"); !ok {
		t.Error("Field(present) should report ok")
	}
	if v, ok := rec.Field("null"); !ok || v != nil {
		t.Error("an explicit nil value should report present")
	}
	if _, ok := rec.Field("absent"); ok {
		t.Error("Field(absent) should not report ok")
	}
	if !rec.Has("null") || rec.Has("absent") {
		t.Error("Has() disagrees with Field()")
	}
}

func TestFromMap_SortedOrder(t *testing.T) {
	rec := FromMap(map[string]any{
		"c": 3,
		"a": 1,
		"b": 2,
	})

	want := []string{"a", "b", "c"}
	got := rec.FieldNames()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("FieldNames() = %v, want %v", got, want)
		}
	}
}

func TestRecord_Clone_DeepCopies(t *testing.T) {
	rec := New()
	rec.SetField("scalar", "keep")
	rec.SetField("nested", map[string]any{
		"inner": []any{1, 2, 3},
	})
	rec.SetMetadata("origin", "test")

	clone := rec.Clone()

	clone.SetField("scalar", "changed")
	nested, _ := clone.Field("nested")
	nested.(map[string]any)["inner"].([]any)[0] = 99
	clone.SetMetadata("origin", "clone")
	clone.SetField("extra", true)

	if v, _ := rec.Field("scalar"); v != "keep" {
		t.Errorf("original scalar mutated: %v", v)
	}
	orig, _ := rec.Field("nested")
	if got := orig.(map[string]any)["inner"].([]any)[0]; got != 1 {
		t.Errorf("original nested value mutated: %v", got)
	}
	if rec.Metadata()["origin"] != "test" {
		t.Errorf("original metadata mutated: %v", rec.Metadata())
	}
	if rec.Has("extra") {
		t.Error("field added to clone leaked into original")
	}
	if clone.Len() != 3 {
		t.Errorf("clone Len() = %d, want 3", clone.Len())
	}
}

func TestRecord_MetadataCopy(t *testing.T) {
	rec := New()
	rec.SetMetadata("k", "v")

	md := rec.Metadata()
	md["k"] = "mutated"

	if rec.Metadata()["k"] != "v" {
		t.Error("Metadata() should return a copy")
	}
}
