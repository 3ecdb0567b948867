package observability

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("SampleRate = %v", cfg.SampleRate)
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("Interval = %v", cfg.Interval)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"disabled skips checks", Config{Enabled: false}, false},
		{"valid", Config{Enabled: true, Endpoint: "localhost:4318", SampleRate: 0.5}, false},
		{"missing endpoint", Config{Enabled: true, SampleRate: 1}, true},
		{"bad sample rate", Config{Enabled: true, Endpoint: "x", SampleRate: 2}, true},
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

func TestConfig_DerivedConfigs(t *testing.T) {
	cfg := Config{Endpoint: "collector:4318", Insecure: true, SampleRate: 0.25, Interval: time.Minute}

	tc := cfg.TracerConfig("etlkit", "2.0.0", "staging")
	if tc.ServiceName != "etlkit" || tc.Endpoint != "collector:4318" || tc.SampleRate != 0.25 || !tc.Insecure {
		t.Errorf("TracerConfig = %+v", tc)
	}

	mc := cfg.MeterConfig("etlkit", "2.0.0", "staging")
	if mc.Interval != time.Minute || mc.Environment != "staging" {
		t.Errorf("MeterConfig = %+v", mc)
	}
}

func TestStartSpan_NoProvider(t *testing.T) {
	// Without an installed provider the global tracer is a no-op; spans
	// must still be usable.
	ctx, span := StartSpan(context.Background(), SpanPipelineRun)
	if span == nil {
		t.Fatal("StartSpan returned nil span")
	}
	SetSpanAttribute(ctx, AttrPipelineName, "orders")
	SetSpanAttribute(ctx, AttrRecordsRead, int64(3))
	SetSpanError(ctx, fmt.Errorf("boom"))
	span.End()
}

func TestNewMetrics_NoProvider(t *testing.T) {
	m, err := NewMetrics(Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	ctx := context.Background()
	m.RecordRun(ctx, "orders", "completed", 120*time.Millisecond)
	m.RecordRecords(ctx, "orders", "read", 10)
	m.RecordRecords(ctx, "orders", "written", 10)
	m.RecordError(ctx, "orders", "SINK")
}

func TestDefaultConfigs(t *testing.T) {
	tc := DefaultTracerConfig("etlkit")
	if tc.Endpoint != "localhost:4318" || tc.SampleRate != 1.0 || !tc.Insecure {
		t.Errorf("DefaultTracerConfig = %+v", tc)
	}

	mc := DefaultMeterConfig("etlkit")
	if mc.Interval != 15*time.Second {
		t.Errorf("DefaultMeterConfig = %+v", mc)
	}
}
