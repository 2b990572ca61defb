// Package config loads the tunables a Chord node needs beyond its address:
// ring size, maintenance periods, RPC timeout, and log level. Precedence is
// defaults, then an optional YAML file; the server command then sets
// HashBits from its positional <m> argument. No other field has a CLI flag.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of a running node.
type Config struct {
	// HashBits is `m`: the ring identifier space is [0, 2^HashBits).
	HashBits int `yaml:"hash_bits"`

	StabilizeInterval        time.Duration `yaml:"stabilize_interval"`
	FixFingersInterval       time.Duration `yaml:"fix_fingers_interval"`
	CheckPredecessorInterval time.Duration `yaml:"check_predecessor_interval"`

	// RPCTimeout bounds the outbound calls of each stabilize, fix_fingers
	// and check_predecessor round. Calls a node makes while serving an
	// inbound request (join, get, put, leave, notify-driven transfer) run
	// under that request's context instead.
	RPCTimeout time.Duration `yaml:"rpc_timeout"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when neither a file nor flags
// override a field.
func Default() Config {
	return Config{
		HashBits:                 7,
		StabilizeInterval:        300 * time.Millisecond,
		FixFingersInterval:       300 * time.Millisecond,
		CheckPredecessorInterval: time.Second,
		RPCTimeout:               2 * time.Second,
		LogLevel:                 "info",
	}
}

// LoadFile overlays YAML-encoded fields from path onto cfg. A missing file
// is not an error; the caller runs on defaults or flag overrides only.
func LoadFile(cfg Config, path string) (Config, error) {
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations that would corrupt the ring.
func (c Config) Validate() error {
	if c.HashBits <= 0 || c.HashBits > 63 {
		return fmt.Errorf("hash_bits must be in (0, 63], got %d", c.HashBits)
	}
	if c.StabilizeInterval <= 0 || c.FixFingersInterval <= 0 || c.CheckPredecessorInterval <= 0 {
		return fmt.Errorf("maintenance intervals must be positive")
	}
	if c.RPCTimeout <= 0 {
		return fmt.Errorf("rpc_timeout must be positive")
	}
	return nil
}
