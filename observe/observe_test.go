package observe

import (
	"context"
	"errors"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name:    "missing service name",
			cfg:     Config{},
			wantErr: ErrMissingServiceName,
		},
		{
			name: "valid minimal",
			cfg:  Config{ServiceName: "chat-client"},
		},
		{
			name: "invalid tracing exporter",
			cfg: Config{
				ServiceName: "chat-client",
				Tracing:     TracingConfig{Enabled: true, Exporter: "carrier-pigeon"},
			},
			wantErr: ErrInvalidTracingExporter,
		},
		{
			name: "invalid sample pct",
			cfg: Config{
				ServiceName: "chat-client",
				Tracing:     TracingConfig{Enabled: true, Exporter: "none", SamplePct: 1.5},
			},
			wantErr: ErrInvalidSamplePct,
		},
		{
			name: "invalid metrics exporter",
			cfg: Config{
				ServiceName: "chat-client",
				Metrics:     MetricsConfig{Enabled: true, Exporter: "csv"},
			},
			wantErr: ErrInvalidMetricsExporter,
		},
		{
			name: "invalid log level",
			cfg: Config{
				ServiceName: "chat-client",
				Logging:     LoggingConfig{Enabled: true, Level: "loud"},
			},
			wantErr: ErrInvalidLogLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewObserver_Disabled(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{ServiceName: "chat-client"})
	if err != nil {
		t.Fatalf("NewObserver failed: %v", err)
	}
	defer func() {
		if err := obs.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown failed: %v", err)
		}
	}()

	// All subsystems disabled should still return usable primitives.
	if obs.Tracer() == nil {
		t.Error("Tracer should not be nil")
	}
	if obs.Meter() == nil {
		t.Error("Meter should not be nil")
	}
	if obs.Logger() == nil {
		t.Error("Logger should not be nil")
	}

	// Noop logger must be safe to use.
	obs.Logger().Info(context.Background(), "noop")
}

func TestCallMeta_SpanName(t *testing.T) {
	m := CallMeta{Component: "gateway", Operation: "fetch"}
	if got := m.SpanName(); got != "chat.call.gateway.fetch" {
		t.Errorf("SpanName = %q", got)
	}

	m = CallMeta{Operation: "heartbeat"}
	if got := m.SpanName(); got != "chat.call.heartbeat" {
		t.Errorf("SpanName = %q", got)
	}
}
