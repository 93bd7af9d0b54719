package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg := LoadConfig("/nonexistent/config.yaml")

	def := DefaultConfig()
	if cfg != def {
		t.Errorf("expected defaults for missing file:\n%+v\n%+v", cfg, def)
	}
}

func TestLoadConfig_EmptyPathUsesDefaults(t *testing.T) {
	cfg := LoadConfig("")

	if cfg.CANDevice != "vcan0" {
		t.Errorf("default CAN device: expected vcan0, got %s", cfg.CANDevice)
	}
	if cfg.Broadcast.Engine1Ms != 10 {
		t.Errorf("default engine1 period: expected 10 ms, got %d", cfg.Broadcast.Engine1Ms)
	}
	if !cfg.Telemetry.Enabled {
		t.Error("telemetry should default to enabled")
	}
}

func TestLoadConfig_FileOverrides(t *testing.T) {
	content := `
can_device: can1
log_level: 4
redis:
  server: 10.0.0.5
  port: 6380
broadcast:
  engine1_ms: 20
telemetry:
  enabled: false
  interval_ms: 500
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := LoadConfig(path)

	if cfg.CANDevice != "can1" {
		t.Errorf("can_device: expected can1, got %s", cfg.CANDevice)
	}
	if cfg.LogLevel != 4 {
		t.Errorf("log_level: expected 4, got %d", cfg.LogLevel)
	}
	if cfg.Redis.Server != "10.0.0.5" || cfg.Redis.Port != 6380 {
		t.Errorf("redis: expected 10.0.0.5:6380, got %s:%d", cfg.Redis.Server, cfg.Redis.Port)
	}
	if cfg.Broadcast.Engine1Ms != 20 {
		t.Errorf("engine1_ms: expected 20, got %d", cfg.Broadcast.Engine1Ms)
	}
	// Unset broadcast fields keep their defaults.
	if cfg.Broadcast.TransMs != 50 {
		t.Errorf("trans_ms: expected default 50, got %d", cfg.Broadcast.TransMs)
	}
	if cfg.Telemetry.Enabled {
		t.Error("telemetry should be disabled")
	}
	if cfg.Telemetry.IntervalMs != 500 {
		t.Errorf("interval_ms: expected 500, got %d", cfg.Telemetry.IntervalMs)
	}
}

func TestLoadConfig_InvalidValuesSanitized(t *testing.T) {
	content := `
log_level: 17
broadcast:
  engine1_ms: -5
telemetry:
  interval_ms: 0
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := LoadConfig(path)

	if cfg.LogLevel != int(LogLevelInfo) {
		t.Errorf("out-of-range log level should reset to default, got %d", cfg.LogLevel)
	}
	if cfg.Broadcast.Engine1Ms != 10 {
		t.Errorf("negative period should reset to default, got %d", cfg.Broadcast.Engine1Ms)
	}
	if cfg.Telemetry.IntervalMs != 1000 {
		t.Errorf("zero interval should reset to default, got %d", cfg.Telemetry.IntervalMs)
	}
}

func TestConfig_Options(t *testing.T) {
	cfg := DefaultConfig()
	opts := cfg.Options()

	if opts.Broadcast.Engine1 != 10*time.Millisecond {
		t.Errorf("engine1 period: expected 10ms, got %v", opts.Broadcast.Engine1)
	}
	if opts.Broadcast.Trans != 50*time.Millisecond {
		t.Errorf("trans period: expected 50ms, got %v", opts.Broadcast.Trans)
	}
	if opts.TelemetryInterval != time.Second {
		t.Errorf("telemetry interval: expected 1s, got %v", opts.TelemetryInterval)
	}
	if opts.LogLevel != LogLevelInfo {
		t.Errorf("log level: expected info, got %d", opts.LogLevel)
	}
}
