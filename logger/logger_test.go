package logger

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Level != "info" {
		t.Errorf("Level = %q, want info", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("Format = %q, want console", cfg.Format)
	}
	if cfg.Output != "stdout" {
		t.Errorf("Output = %q, want stdout", cfg.Output)
	}
	if !cfg.Timestamp {
		t.Error("Timestamp should default to true")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid json", Config{Level: "debug", Format: "json"}, false},
		{"valid console", Config{Level: "info", Format: "console"}, false},
		{"bad level", Config{Level: "verbose", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	log := New(&Config{Level: "debug", Format: "json", Output: "stdout"})

	var buf bytes.Buffer
	zl := log.WithComponent("pipeline").GetLogger().Output(&buf)
	zl.Info().Str("run_id", "abc").Msg("run completed")

	out := buf.String()
	for _, want := range []string{`"component":"pipeline"`, `"run_id":"abc"`, `"message":"run completed"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestLogger_WithFields(t *testing.T) {
	log := New(&Config{Level: "debug", Format: "json", Output: "stdout"})

	var buf bytes.Buffer
	zl := log.WithFields(map[string]interface{}{
		FieldPipeline: "orders",
		FieldRecords:  3,
	}).GetLogger().Output(&buf)
	zl.Info().Msg("x")

	out := buf.String()
	if !strings.Contains(out, `"pipeline":"orders"`) || !strings.Contains(out, `"records":3`) {
		t.Errorf("output missing fields: %s", out)
	}
}

func TestFields_Builder(t *testing.T) {
	m := Fields(FieldOperation, "write", FieldRecords, 42)
	if m[FieldOperation] != "write" || m[FieldRecords] != 42 {
		t.Errorf("Fields() = %v", m)
	}

	// Odd trailing value is dropped; non-string keys are skipped.
	m = Fields("a", 1, "dangling")
	if len(m) != 1 || m["a"] != 1 {
		t.Errorf("Fields() with odd args = %v", m)
	}
	m = Fields(42, "value")
	if len(m) != 0 {
		t.Errorf("Fields() with non-string key = %v", m)
	}
}

func TestFieldHelpers(t *testing.T) {
	err := fmt.Errorf("boom")

	m := ErrorFields("read", err)
	if m[FieldOperation] != "read" || m[FieldError] != "boom" {
		t.Errorf("ErrorFields() = %v", m)
	}

	m = DurationFields("write", 1500*time.Millisecond)
	if m[FieldDuration] != int64(1500) {
		t.Errorf("DurationFields() = %v", m)
	}

	m = MergeWithError(nil, err)
	if m[FieldError] != "boom" {
		t.Errorf("MergeWithError(nil) = %v", m)
	}

	m = MergeWithDuration(map[string]interface{}{"keep": true}, time.Second)
	if m["keep"] != true || m[FieldDuration] != int64(1000) {
		t.Errorf("MergeWithDuration() = %v", m)
	}
}

func TestRegistry_GetFallsBack(t *testing.T) {
	if l := Get("unregistered-component"); l == nil {
		t.Fatal("Get should fall back to a component-tagged global logger")
	}

	named := Nop()
	Register("my-source", named)
	if got := Get("my-source"); got != named {
		t.Error("Get should return the registered logger")
	}
}

func TestNop_Discards(t *testing.T) {
	log := Nop()
	// Must not panic and must not write anywhere.
	log.Info("discarded", Fields("k", "v"))
	log.Error("also discarded")
}
