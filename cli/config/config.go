package config

import (
	"fmt"
	"time"
)

// Config represents a voxgate.yaml configuration file.
// All values are optional and act as defaults for voxgate run flags.
// CLI flags always override config values.
type Config struct {
	Transport TransportConfig `yaml:"transport"`
	Router    RouterConfig    `yaml:"router"`
	Bus       BusConfig       `yaml:"bus"`
	Journal   JournalConfig   `yaml:"journal"`
	Adapters  []AdapterConfig `yaml:"adapters"`
}

// TransportConfig holds backend connection defaults.
type TransportConfig struct {
	// PushEndpoint is the backend PULL address the gateway pushes to.
	PushEndpoint string `yaml:"push_endpoint"`
	// SubEndpoint is the backend PUB address the gateway subscribes to.
	SubEndpoint string `yaml:"sub_endpoint"`
	// PingInterval is the keepalive period (e.g. "30s"); empty disables.
	PingInterval Duration `yaml:"ping_interval,omitempty"`
}

// RouterConfig holds routing defaults.
type RouterConfig struct {
	// LedgerCapacity bounds the duplicate-suppression ledger.
	LedgerCapacity int `yaml:"ledger_capacity"`
}

// BusConfig holds event bus defaults.
type BusConfig struct {
	// QueueDepth is the per-subscription channel depth.
	QueueDepth int `yaml:"queue_depth"`
}

// JournalConfig holds event journal defaults.
type JournalConfig struct {
	// Path is the journal file; empty disables journaling.
	Path string `yaml:"path,omitempty"`
}

// AdapterConfig is one downstream notification adapter.
type AdapterConfig struct {
	Type    string            `yaml:"type"` // redis or webhook
	URL     string            `yaml:"url"`
	Prefix  string            `yaml:"prefix,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Validate checks adapter entries for unknown types and missing URLs.
func (c *Config) Validate() error {
	for i, a := range c.Adapters {
		switch a.Type {
		case "redis", "webhook":
		default:
			return fmt.Errorf("adapters[%d]: unknown type %q", i, a.Type)
		}
		if a.URL == "" {
			return fmt.Errorf("adapters[%d]: url is required", i)
		}
	}
	return nil
}
