// Package config loads iconjack's YAML configuration.
package config

import (
	"fmt"
)

// PID policies for the icon write sequence.
const (
	PIDPolicyRestore   = "restore"
	PIDPolicyRandomize = "randomize"
)

// Config is the effective configuration after defaults are applied.
type Config struct {
	// Display selects the X display; empty means $DISPLAY.
	Display string `yaml:"display"`
	// Synchronize makes every mutating request block for server
	// acknowledgement, so protocol errors point at the request that caused
	// them. Slower, useful for debugging.
	Synchronize bool `yaml:"synchronize"`
	// PIDPolicy decides whether the original _NET_WM_PID is restored after
	// an icon write ("restore") or left randomized ("randomize").
	PIDPolicy string `yaml:"pid_policy"`
	// IconSizes are the square icon sizes generated or rendered.
	IconSizes []int `yaml:"icon_sizes"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		PIDPolicy: PIDPolicyRestore,
		IconSizes: []int{16, 32, 64},
		LogLevel:  "info",
	}
}

// Validate checks the configuration for values no command can act on.
func (c *Config) Validate() error {
	switch c.PIDPolicy {
	case PIDPolicyRestore, PIDPolicyRandomize:
	default:
		return fmt.Errorf("pid_policy: %q is not %q or %q", c.PIDPolicy, PIDPolicyRestore, PIDPolicyRandomize)
	}
	if len(c.IconSizes) == 0 {
		return fmt.Errorf("icon_sizes: at least one size is required")
	}
	for _, size := range c.IconSizes {
		if size < 1 || size > 1024 {
			return fmt.Errorf("icon_sizes: %d is outside 1..1024", size)
		}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level: %q is not debug, info, warn or error", c.LogLevel)
	}
	return nil
}
