package main

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"vtu-service/vtu"
)

// Config is the YAML configuration file layout. Every field has a working
// default so the service runs without a file.
type Config struct {
	CANDevice string          `yaml:"can_device"`
	LogLevel  int             `yaml:"log_level"`
	Redis     RedisConfig     `yaml:"redis"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type RedisConfig struct {
	Server string `yaml:"server"`
	Port   uint16 `yaml:"port"`
}

// BroadcastConfig holds per-message cycle times in milliseconds.
type BroadcastConfig struct {
	Engine1Ms int `yaml:"engine1_ms"`
	Engine2Ms int `yaml:"engine2_ms"`
	TransMs   int `yaml:"trans_ms"`
	BCMMs     int `yaml:"bcm_ms"`
}

type TelemetryConfig struct {
	Enabled    bool `yaml:"enabled"`
	IntervalMs int  `yaml:"interval_ms"`
}

func DefaultConfig() Config {
	return Config{
		CANDevice: "vcan0",
		LogLevel:  int(LogLevelInfo),
		Redis: RedisConfig{
			Server: "127.0.0.1",
			Port:   6379,
		},
		Broadcast: BroadcastConfig{
			Engine1Ms: 10,
			Engine2Ms: 100,
			TransMs:   50,
			BCMMs:     100,
		},
		Telemetry: TelemetryConfig{
			Enabled:    true,
			IntervalMs: 1000,
		},
	}
}

// LoadConfig reads a YAML config file over the defaults. A missing or
// unreadable file is logged and the defaults are used; the flags can still
// override individual values afterwards.
func LoadConfig(path string) Config {
	cfg := DefaultConfig()

	if path == "" {
		return cfg
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Config file %s not loaded (%v), using defaults", path, err)
		return cfg
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Printf("Config file %s invalid (%v), using defaults", path, err)
		return DefaultConfig()
	}

	cfg.sanitize()
	return cfg
}

// sanitize clamps nonsensical values back to their defaults.
func (c *Config) sanitize() {
	def := DefaultConfig()

	if c.CANDevice == "" {
		c.CANDevice = def.CANDevice
	}
	if c.LogLevel < int(LogLevelNone) || c.LogLevel > int(LogLevelDebug) {
		c.LogLevel = def.LogLevel
	}
	if c.Redis.Server == "" {
		c.Redis.Server = def.Redis.Server
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = def.Redis.Port
	}
	if c.Broadcast.Engine1Ms <= 0 {
		c.Broadcast.Engine1Ms = def.Broadcast.Engine1Ms
	}
	if c.Broadcast.Engine2Ms <= 0 {
		c.Broadcast.Engine2Ms = def.Broadcast.Engine2Ms
	}
	if c.Broadcast.TransMs <= 0 {
		c.Broadcast.TransMs = def.Broadcast.TransMs
	}
	if c.Broadcast.BCMMs <= 0 {
		c.Broadcast.BCMMs = def.Broadcast.BCMMs
	}
	if c.Telemetry.IntervalMs <= 0 {
		c.Telemetry.IntervalMs = def.Telemetry.IntervalMs
	}
}

// Periods converts the broadcast cycle times to scheduler periods.
func (c BroadcastConfig) Periods() vtu.BroadcastPeriods {
	return vtu.BroadcastPeriods{
		Engine1: time.Duration(c.Engine1Ms) * time.Millisecond,
		Engine2: time.Duration(c.Engine2Ms) * time.Millisecond,
		Trans:   time.Duration(c.TransMs) * time.Millisecond,
		BCM:     time.Duration(c.BCMMs) * time.Millisecond,
	}
}

// Options builds the runtime options from the effective configuration.
func (c Config) Options() *Options {
	return &Options{
		LogLevel:          LogLevel(c.LogLevel),
		CANDevice:         c.CANDevice,
		RedisServerAddr:   c.Redis.Server,
		RedisServerPort:   c.Redis.Port,
		TelemetryEnabled:  c.Telemetry.Enabled,
		TelemetryInterval: time.Duration(c.Telemetry.IntervalMs) * time.Millisecond,
		Broadcast:         c.Broadcast.Periods(),
	}
}
