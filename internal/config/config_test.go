package config_test

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dantte-lp/alohamac/internal/config"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()

	if cfg.Node.Addr != "01:00" {
		t.Errorf("Node.Addr = %q, want %q", cfg.Node.Addr, "01:00")
	}

	if cfg.Radio.MediumAddr != "local" {
		t.Errorf("Radio.MediumAddr = %q, want %q", cfg.Radio.MediumAddr, "local")
	}

	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, ":9100")
	}

	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/metrics")
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}

	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "json")
	}

	// Defaults must pass validation.
	if err := config.Validate(cfg); err != nil {
		t.Errorf("DefaultConfig() failed validation: %v", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	t.Parallel()

	yamlContent := `
node:
  addr: "02:00"
radio:
  medium_addr: "testbed"
  channel: 3
metrics:
  addr: ":9200"
  path: "/custom-metrics"
log:
  level: "debug"
  format: "text"
mac:
  max_neighbor_queues: 4
rdc:
  channel_check_rate: 16
  strobe_time: "50ms"
`

	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Node.Addr != "02:00" {
		t.Errorf("Node.Addr = %q, want %q", cfg.Node.Addr, "02:00")
	}

	if cfg.Radio.MediumAddr != "testbed" {
		t.Errorf("Radio.MediumAddr = %q, want %q", cfg.Radio.MediumAddr, "testbed")
	}

	if cfg.Radio.Channel != 3 {
		t.Errorf("Radio.Channel = %d, want %d", cfg.Radio.Channel, 3)
	}

	if cfg.Metrics.Addr != ":9200" {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, ":9200")
	}

	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "text")
	}

	if cfg.MAC.MaxNeighborQueues != 4 {
		t.Errorf("MAC.MaxNeighborQueues = %d, want %d", cfg.MAC.MaxNeighborQueues, 4)
	}

	if cfg.RDC.ChannelCheckRate != 16 {
		t.Errorf("RDC.ChannelCheckRate = %d, want %d", cfg.RDC.ChannelCheckRate, 16)
	}

	if cfg.RDC.StrobeTime != 50*time.Millisecond {
		t.Errorf("RDC.StrobeTime = %v, want %v", cfg.RDC.StrobeTime, 50*time.Millisecond)
	}
}

func TestLoadMergesDefaults(t *testing.T) {
	t.Parallel()

	// Partial YAML: only override node.addr and log.level.
	// Everything else should inherit from defaults.
	yamlContent := `
node:
  addr: "05:00"
log:
  level: "warn"
`

	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Node.Addr != "05:00" {
		t.Errorf("Node.Addr = %q, want %q", cfg.Node.Addr, "05:00")
	}

	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "warn")
	}

	// Default values should be preserved.
	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("Metrics.Addr = %q, want default %q", cfg.Metrics.Addr, ":9100")
	}

	if cfg.Radio.MediumAddr != "local" {
		t.Errorf("Radio.MediumAddr = %q, want default %q", cfg.Radio.MediumAddr, "local")
	}

	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want default %q", cfg.Log.Format, "json")
	}
}

func TestToMACConfigFallsBackToPackageDefaults(t *testing.T) {
	t.Parallel()

	macCfg := config.MACConfig{MaxNeighborQueues: 10}
	got := macCfg.ToMACConfig()

	if got.MaxNeighborQueues != 10 {
		t.Errorf("MaxNeighborQueues = %d, want %d", got.MaxNeighborQueues, 10)
	}
	if got.MaxFrameRetries == 0 {
		t.Error("MaxFrameRetries should inherit a nonzero package default")
	}
}

func TestToRDCConfigRecomputesCycleTimeFromChannelCheckRate(t *testing.T) {
	t.Parallel()

	rdcCfg := config.RDCConfig{ChannelCheckRate: 4}
	got := rdcCfg.ToRDCConfig()

	if got.CycleTime != 250*time.Millisecond {
		t.Errorf("CycleTime = %v, want %v", got.CycleTime, 250*time.Millisecond)
	}
}

func TestValidateErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*config.Config)
		wantErr error
	}{
		{
			name: "empty node addr",
			modify: func(cfg *config.Config) {
				cfg.Node.Addr = ""
			},
			wantErr: config.ErrEmptyNodeAddr,
		},
		{
			name: "invalid node addr",
			modify: func(cfg *config.Config) {
				cfg.Node.Addr = "not-an-addr"
			},
			wantErr: config.ErrInvalidNodeAddr,
		},
		{
			name: "empty medium addr",
			modify: func(cfg *config.Config) {
				cfg.Radio.MediumAddr = ""
			},
			wantErr: config.ErrEmptyMediumAddr,
		},
		{
			name: "empty metrics addr",
			modify: func(cfg *config.Config) {
				cfg.Metrics.Addr = ""
			},
			wantErr: config.ErrEmptyMetricsAddr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			tt.modify(cfg)

			err := config.Validate(cfg)
			if err == nil {
				t.Fatal("Validate() returned nil, want error")
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateNeighborErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*config.Config)
		wantErr error
	}{
		{
			name: "invalid neighbor addr",
			modify: func(cfg *config.Config) {
				cfg.Neighbors = []config.NeighborConfig{{Addr: "not-an-addr"}}
			},
			wantErr: config.ErrInvalidNeighborAddr,
		},
		{
			name: "duplicate neighbor addr",
			modify: func(cfg *config.Config) {
				cfg.Neighbors = []config.NeighborConfig{
					{Addr: "02:00", Label: "a"},
					{Addr: "02:00", Label: "b"},
				}
			},
			wantErr: config.ErrDuplicateNeighborAddr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			tt.modify(cfg)

			err := config.Validate(cfg)
			if err == nil {
				t.Fatal("Validate() returned nil, want error")
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  slog.Level
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "DEBUG", want: slog.LevelDebug},
		{input: "info", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "unknown", want: slog.LevelInfo},
		{input: "", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got := config.ParseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadNonexistentFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load("/nonexistent/path/config.yml")
	if err == nil {
		t.Fatal("Load() returned nil error for nonexistent file")
	}
}
