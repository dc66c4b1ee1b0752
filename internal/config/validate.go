package config

import (
	"fmt"
	"net"
)

// Validate checks configuration correctness. It performs declarative
// validation only and does not mutate the configuration.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}

	ip := net.ParseIP(c.SD.MulticastGroup)
	if ip == nil {
		return fmt.Errorf("sd.multicast_group %q is not an IP address", c.SD.MulticastGroup)
	}
	if !ip.IsMulticast() {
		return fmt.Errorf("sd.multicast_group %q is not a multicast address", c.SD.MulticastGroup)
	}

	if c.SD.Port < 1 || c.SD.Port > 65535 {
		return fmt.Errorf("sd.port %d is out of range 1-65535", c.SD.Port)
	}

	switch c.SD.TTLZeroPolicy {
	case "expire", "untracked":
	default:
		return fmt.Errorf("sd.ttl_zero_policy %q is not one of expire, untracked", c.SD.TTLZeroPolicy)
	}

	seen := make(map[[2]uint16]bool)
	for i, svc := range c.Services {
		key := [2]uint16{svc.ServiceID, svc.InstanceID}
		if seen[key] {
			return fmt.Errorf("services[%d]: duplicate service 0x%04x/0x%04x",
				i, svc.ServiceID, svc.InstanceID)
		}
		seen[key] = true
	}

	if c.Monitor.Enabled {
		if c.Monitor.Port < 1 || c.Monitor.Port > 65535 {
			return fmt.Errorf("monitor.port %d is out of range 1-65535", c.Monitor.Port)
		}
	}

	return nil
}
