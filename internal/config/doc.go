// Package config loads and validates the daemon's YAML configuration.
//
// The file names the service instances to track, the SD multicast
// endpoint, the TTL-zero policy, and the optional monitoring server:
//
//	log_level: info
//	client_id: 0x2001
//	sd:
//	  multicast_group: 224.244.224.245
//	  port: 30490
//	  ttl_zero_policy: expire
//	  send_find: true
//	services:
//	  - service_id: 0x1234
//	    instance_id: 0x0001
//	monitor:
//	  enabled: true
//	  host: 127.0.0.1
//	  port: 8730
//
// Load applies defaults for omitted fields, then validates; validation
// is declarative and never mutates the configuration.
package config
