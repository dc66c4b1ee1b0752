// Package monitor implements the live terminal dashboard behind
// "someip-cli watch".
//
// The dashboard fetches an initial snapshot from the daemon's
// monitoring API, then follows the /ws transition stream, folding each
// event into a table of tracked services. It is a pure observer; it
// never drives discovery.
//
// # Logging Integration
//
// Like all CLI surfaces, the dashboard expects zap logging to be
// silent unless SOMEIP_LOG_LEVEL is set, so the curated TUI output
// stays clean.
package monitor
