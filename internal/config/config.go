// Package config loads the scheduler's cycle-ratio and quantum-size knobs
// and the host's log level, from an optional config file, the environment,
// and CLI flags, in that increasing order of precedence. Real hardware runs
// with these as fixed compile-time constants; this package exists so a host
// process can tune them instead.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the full set of host-tunable knobs. The zero value is never
// valid on its own; use Default or Load.
type Config struct {
	// Quantum is the number of scalar-CPU-equivalent cycles the scheduler
	// advances before draining ready events, per spec §4.10 ("a fixed
	// small constant, 4096, in the reference").
	Quantum int64 `mapstructure:"quantum"`

	// MicroRatio, ScalarRatio, and SignalRatio are the proportional shares
	// of one quantum given to the microcontroller, the scalar CPU, and the
	// signal processor, respectively (1:6:3 in the reference).
	MicroRatio  int `mapstructure:"micro_ratio"`
	ScalarRatio int `mapstructure:"scalar_ratio"`
	SignalRatio int `mapstructure:"signal_ratio"`

	// LogLevel is a zap level name: debug, info, warn, or error.
	LogLevel string `mapstructure:"log_level"`
}

// Default returns the reference ratios and quantum from spec §4.10.
func Default() Config {
	return Config{
		Quantum:     4096,
		MicroRatio:  1,
		ScalarRatio: 6,
		SignalRatio: 3,
		LogLevel:    "info",
	}
}

// Load reads path (if non-empty) over the defaults, then overlays any
// N64_-prefixed environment variable (N64_QUANTUM, N64_LOG_LEVEL, ...), then
// whatever flags v has had bound onto it (cmd/n64 calls v.BindPFlag before
// calling Load, so flags win over both file and environment). v may be nil,
// in which case Load behaves as if no flags were bound.
func Load(path string, v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	def := Default()
	v.SetDefault("quantum", def.Quantum)
	v.SetDefault("micro_ratio", def.MicroRatio)
	v.SetDefault("scalar_ratio", def.ScalarRatio)
	v.SetDefault("signal_ratio", def.SignalRatio)
	v.SetDefault("log_level", def.LogLevel)

	v.SetEnvPrefix("n64")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Quantum <= 0 {
		return fmt.Errorf("config: quantum must be positive, got %d", c.Quantum)
	}
	if c.MicroRatio <= 0 || c.ScalarRatio <= 0 || c.SignalRatio <= 0 {
		return fmt.Errorf("config: ratios must all be positive, got %d:%d:%d",
			c.MicroRatio, c.ScalarRatio, c.SignalRatio)
	}
	return nil
}
