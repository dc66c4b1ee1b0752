// Package logging provides structured logging for the SOME/IP middleware.
//
// This package wraps zap with convenience functions for the logging
// patterns used throughout the daemon: general leveled logging plus
// domain helpers for service discovery traffic and state changes.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (datagram hex dumps, SD entries)
//   - Info: Normal operations (state transitions, endpoint lifecycle)
//   - Warn: Non-fatal issues (malformed datagrams, dropped events)
//   - Error: Fatal issues (startup failures, socket errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Service offered",
//	    zap.String("service", "0x1234"),
//	    zap.String("instance", "0x5678"),
//	    zap.Uint32("ttl", 3000),
//	)
//
// # Domain Helpers
//
// Discovery-specific events have dedicated helpers:
//
//	logging.LogStateTransition(serviceID, instanceID, "ServiceReady", "Stopped")
//	logging.LogSdEntry("received", "offer", serviceID, instanceID, ttl)
//	logging.LogDatagram("received", remoteAddr, payload)
//
// # Configuration
//
// Initialize logging at daemon startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// CLI commands that want silent-by-default behavior use
// InitializeFromEnv, which only enables output when SOMEIP_LOG_LEVEL
// is set.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap
// logger handles synchronization automatically.
package logging
