// Package config manages alohad daemon configuration using koanf/v2.
//
// Supports YAML files and environment variables; command-line flags are
// not read by this package.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/dantte-lp/alohamac/internal/addr"
	"github.com/dantte-lp/alohamac/internal/mac"
	"github.com/dantte-lp/alohamac/internal/rdc"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete alohad configuration.
type Config struct {
	Node      NodeConfig       `koanf:"node"`
	Radio     RadioConfig      `koanf:"radio"`
	MAC       MACConfig        `koanf:"mac"`
	RDC       RDCConfig        `koanf:"rdc"`
	Metrics   MetricsConfig    `koanf:"metrics"`
	Log       LogConfig        `koanf:"log"`
	Neighbors []NeighborConfig `koanf:"neighbors"`
}

// NodeConfig identifies this node on the shared medium.
type NodeConfig struct {
	// Addr is this node's link address, formatted as colon-separated hex
	// bytes matching addr.Addr's width (e.g. "01:00").
	Addr string `koanf:"addr"`
}

// RadioConfig points at the shared in-process medium a MediumRadio dials
// (spec.md §6's radio driver contract, the internal/radio.Medium reference
// implementation).
type RadioConfig struct {
	// MediumAddr names the shared medium this node's radio listens on.
	// Nodes sharing a MediumAddr can exchange frames; this stands in for
	// tuning to the same RF channel.
	MediumAddr string `koanf:"medium_addr"`
	// Channel is reserved for a future Medium that partitions traffic by
	// channel number; the reference Medium in internal/radio has no such
	// concept today (every dialer on the same MediumAddr hears every frame),
	// so this field is currently accepted and stored but has no effect.
	Channel int `koanf:"channel"`
}

// MACConfig mirrors internal/mac.Config (the retry controller, spec.md
// §6's MinBE..MaxPacketPerNeighbor surface).
type MACConfig struct {
	MinBE                uint8 `koanf:"min_be"`
	MaxBE                uint8 `koanf:"max_be"`
	MaxBackoff           uint8 `koanf:"max_backoff"`
	MaxFrameRetries      uint8 `koanf:"max_frame_retries"`
	MaxNeighborQueues    int   `koanf:"max_neighbor_queues"`
	MaxPacketPerNeighbor int   `koanf:"max_packet_per_neighbor"`
}

// ToMACConfig converts the loaded fields onto internal/mac.DefaultConfig(),
// so a zero-value (unset) field inherits the package default rather than
// zeroing it out.
func (c MACConfig) ToMACConfig() mac.Config {
	cfg := mac.DefaultConfig()
	if c.MinBE != 0 {
		cfg.MinBE = c.MinBE
	}
	if c.MaxBE != 0 {
		cfg.MaxBE = c.MaxBE
	}
	if c.MaxBackoff != 0 {
		cfg.MaxBackoff = c.MaxBackoff
	}
	if c.MaxFrameRetries != 0 {
		cfg.MaxFrameRetries = c.MaxFrameRetries
	}
	if c.MaxNeighborQueues != 0 {
		cfg.MaxNeighborQueues = c.MaxNeighborQueues
	}
	if c.MaxPacketPerNeighbor != 0 {
		cfg.MaxPacketPerNeighbor = c.MaxPacketPerNeighbor
	}
	return cfg
}

// RDCConfig mirrors the overridable slice of internal/rdc.Config: the
// duty-cycle rate and the transmit/receive policy knobs spec.md §6 calls
// out by name. The CCA timing constants derived from RTIMER_ARCH_SECOND
// are left to internal/rdc.DefaultConfig and not exposed here.
type RDCConfig struct {
	// ChannelCheckRate is the number of channel samples per second;
	// CycleTime is derived from it (1/ChannelCheckRate).
	ChannelCheckRate      int           `koanf:"channel_check_rate"`
	MaxSilencePeriods     int           `koanf:"max_silence_periods"`
	MaxNonActivityPeriods int           `koanf:"max_nonactivity_periods"`
	WithFastSleep         bool          `koanf:"with_fast_sleep"`

	StrobeTime                  time.Duration `koanf:"strobe_time"`
	InterPacketInterval         time.Duration `koanf:"inter_packet_interval"`
	AfterAckDetectedWaitTime    time.Duration `koanf:"after_ack_detected_wait_time"`
	InterPacketDeadline         time.Duration `koanf:"inter_packet_deadline"`
	BroadcastRateLimitPerSecond int           `koanf:"broadcast_rate_limit_per_second"`

	// KeepRadioOnIdle tells alohad to call RDC.Off(keepRadioOn=true)
	// instead of letting the sampler duty-cycle once the node goes idle —
	// a deployment policy choice traded against power draw, not part of
	// the RDC state machine itself.
	KeepRadioOnIdle bool `koanf:"keep_radio_on_idle"`
}

// ToRDCConfig converts the loaded fields onto internal/rdc.DefaultConfig().
// ChannelCheckRate, if overridden, recomputes CycleTime to stay consistent
// with it.
func (c RDCConfig) ToRDCConfig() rdc.Config {
	cfg := rdc.DefaultConfig()
	if c.ChannelCheckRate != 0 {
		cfg.ChannelCheckRate = c.ChannelCheckRate
		cfg.CycleTime = time.Second / time.Duration(c.ChannelCheckRate)
	}
	if c.MaxSilencePeriods != 0 {
		cfg.MaxSilencePeriods = c.MaxSilencePeriods
	}
	if c.MaxNonActivityPeriods != 0 {
		cfg.MaxNonActivityPeriods = c.MaxNonActivityPeriods
	}
	cfg.WithFastSleep = c.WithFastSleep
	if c.StrobeTime != 0 {
		cfg.StrobeTime = c.StrobeTime
	}
	if c.InterPacketInterval != 0 {
		cfg.InterPacketInterval = c.InterPacketInterval
	}
	if c.AfterAckDetectedWaitTime != 0 {
		cfg.AfterAckDetectedWaitTime = c.AfterAckDetectedWaitTime
	}
	if c.InterPacketDeadline != 0 {
		cfg.InterPacketDeadline = c.InterPacketDeadline
	}
	cfg.BroadcastRateLimitPerSecond = c.BroadcastRateLimitPerSecond
	return cfg
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	// Addr is the HTTP listen address for the metrics endpoint (e.g., ":9100").
	Addr string `koanf:"addr"`
	// Path is the URL path for the metrics endpoint (e.g., "/metrics").
	Path string `koanf:"path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// NeighborConfig names a peer this node expects to exchange frames with.
// Declarative, reloaded on SIGHUP; alohad itself only logs how many are
// declared — MAC builds its neighbor queues lazily as traffic arrives.
type NeighborConfig struct {
	// Addr is the peer's link address in the same "01:00" hex form as
	// NodeConfig.Addr.
	Addr string `koanf:"addr"`
	// Label is a human-readable name for the peer. It is loaded and
	// validated with the rest of the entry; neither alohad's /status
	// output nor alohactl shows it.
	Label string `koanf:"label"`
}

// ParseAddr parses Addr as a colon-separated hex byte string into addr.Addr.
func (nc NeighborConfig) ParseAddr() (addr.Addr, error) {
	return addr.Parse(nc.Addr)
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Node: NodeConfig{
			Addr: "01:00",
		},
		Radio: RadioConfig{
			MediumAddr: "local",
			Channel:    0,
		},
		MAC:     MACConfig{},
		RDC:     RDCConfig{},
		Metrics: MetricsConfig{
			Addr: ":9100",
			Path: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for alohad configuration.
// Variables are named ALOHA_<section>_<key>, e.g., ALOHA_RADIO_CHANNEL.
const envPrefix = "ALOHA_"

// Load reads configuration from a YAML file at path, overlays environment
// variable overrides (ALOHA_ prefix), and merges on top of DefaultConfig().
// Missing fields inherit defaults.
//
// Environment variable mapping:
//
//	ALOHA_NODE_ADDR      -> node.addr
//	ALOHA_RADIO_CHANNEL  -> radio.channel
//	ALOHA_METRICS_ADDR   -> metrics.addr
//	ALOHA_LOG_LEVEL      -> log.level
//
// Uses koanf/v2 with file + env providers and YAML parser.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}

// envKeyMapper transforms ALOHA_RADIO_CHANNEL -> radio.channel.
// Strips the ALOHA_ prefix, lowercases, and replaces _ with .
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "_", ".")
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"node.addr":     defaults.Node.Addr,
		"radio.medium_addr": defaults.Radio.MediumAddr,
		"radio.channel": defaults.Radio.Channel,
		"metrics.addr":  defaults.Metrics.Addr,
		"metrics.path":  defaults.Metrics.Path,
		"log.level":     defaults.Log.Level,
		"log.format":    defaults.Log.Format,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

// Validation errors.
var (
	// ErrEmptyNodeAddr indicates the node's own link address is unset.
	ErrEmptyNodeAddr = errors.New("node.addr must not be empty")

	// ErrInvalidNodeAddr indicates the node's link address could not be parsed.
	ErrInvalidNodeAddr = errors.New("node.addr is not a valid link address")

	// ErrEmptyMediumAddr indicates the radio medium address is empty.
	ErrEmptyMediumAddr = errors.New("radio.medium_addr must not be empty")

	// ErrEmptyMetricsAddr indicates the metrics listen address is empty.
	ErrEmptyMetricsAddr = errors.New("metrics.addr must not be empty")

	// ErrInvalidNeighborAddr indicates a declared neighbor has an invalid address.
	ErrInvalidNeighborAddr = errors.New("neighbor address is invalid")

	// ErrDuplicateNeighborAddr indicates two neighbors share the same address.
	ErrDuplicateNeighborAddr = errors.New("duplicate neighbor address")
)

// Validate checks the configuration for logical errors.
// Returns the first validation error encountered.
func Validate(cfg *Config) error {
	if cfg.Node.Addr == "" {
		return ErrEmptyNodeAddr
	}
	if _, err := addr.Parse(cfg.Node.Addr); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidNodeAddr, err)
	}

	if cfg.Radio.MediumAddr == "" {
		return ErrEmptyMediumAddr
	}

	if cfg.Metrics.Addr == "" {
		return ErrEmptyMetricsAddr
	}

	if err := validateNeighbors(cfg.Neighbors); err != nil {
		return err
	}

	return nil
}

// validateNeighbors checks each declarative neighbor entry for correctness.
func validateNeighbors(neighbors []NeighborConfig) error {
	seen := make(map[string]struct{}, len(neighbors))

	for i, nc := range neighbors {
		if _, err := nc.ParseAddr(); err != nil {
			return fmt.Errorf("neighbors[%d]: %w: %w", i, ErrInvalidNeighborAddr, err)
		}

		if _, dup := seen[nc.Addr]; dup {
			return fmt.Errorf("neighbors[%d] addr %q: %w", i, nc.Addr, ErrDuplicateNeighborAddr)
		}
		seen[nc.Addr] = struct{}{}
	}

	return nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
//
// Recognized values: "debug", "info", "warn", "error" (case-insensitive).
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
