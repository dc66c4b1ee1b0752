// Package metrics counts discovery activity behind a small Recorder
// interface. The discovery manager records against it; the daemon
// injects the Prometheus implementation, and everything else gets the
// Noop default so tests and library use never touch a registry.
package metrics
