// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: colored console output
//
// All output goes to stderr by default. Library packages accept a plain
// *zap.Logger and fall back to a no-op logger via OrNop. The level is shared
// by every component logger and can be raised or lowered with SetLevel.
//
// Example Usage:
//
//	logger, err := logging.New(logging.DefaultConfig())
//	registry := events.NewRegistry(b, events.WithLogger(logger.Component("events")))
package logging
