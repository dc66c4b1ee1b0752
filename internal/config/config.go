package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the daemon configuration file.
type Config struct {
	LogLevel string          `yaml:"log_level,omitempty"`
	ClientID uint16          `yaml:"client_id,omitempty"`
	SD       SDConfig        `yaml:"sd"`
	Services []ServiceConfig `yaml:"services"`
	Monitor  MonitorConfig   `yaml:"monitor"`
}

// SDConfig configures the service discovery endpoint and liveness
// policy.
type SDConfig struct {
	MulticastGroup string `yaml:"multicast_group,omitempty"`
	Port           int    `yaml:"port,omitempty"`
	Interface      string `yaml:"interface,omitempty"` // network interface name; empty = default

	// TTLZeroPolicy selects what an Offer with TTL 0 means:
	// "expire" (immediate liveness loss, the default) or "untracked"
	// (valid until an explicit Stop).
	TTLZeroPolicy string `yaml:"ttl_zero_policy,omitempty"`

	// SendFind emits a FindService entry for every configured service
	// at startup.
	SendFind bool `yaml:"send_find,omitempty"`
}

// ServiceConfig names one remote service instance to track.
type ServiceConfig struct {
	ServiceID  uint16 `yaml:"service_id"`
	InstanceID uint16 `yaml:"instance_id"`
}

// MonitorConfig configures the monitoring HTTP server.
type MonitorConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Host    string `yaml:"host,omitempty"`
	Port    int    `yaml:"port,omitempty"`
}

// SD multicast defaults per the SOME/IP SD specification.
const (
	DefaultMulticastGroup = "224.244.224.245"
	DefaultSDPort         = 30490
	DefaultMonitorHost    = "127.0.0.1"
	DefaultMonitorPort    = 8730
)

// Default returns a configuration with all defaults applied and no
// services.
func Default() *Config {
	return &Config{
		SD: SDConfig{
			MulticastGroup: DefaultMulticastGroup,
			Port:           DefaultSDPort,
			TTLZeroPolicy:  "expire",
		},
		Monitor: MonitorConfig{
			Host: DefaultMonitorHost,
			Port: DefaultMonitorPort,
		},
	}
}

// Load reads and validates a configuration file. Omitted fields fall
// back to defaults before validation runs.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes, defaults, and validates raw YAML configuration.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.SD.MulticastGroup == "" {
		c.SD.MulticastGroup = DefaultMulticastGroup
	}
	if c.SD.Port == 0 {
		c.SD.Port = DefaultSDPort
	}
	if c.SD.TTLZeroPolicy == "" {
		c.SD.TTLZeroPolicy = "expire"
	}
	if c.Monitor.Host == "" {
		c.Monitor.Host = DefaultMonitorHost
	}
	if c.Monitor.Port == 0 {
		c.Monitor.Port = DefaultMonitorPort
	}
}
