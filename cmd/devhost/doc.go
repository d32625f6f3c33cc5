// Package main runs a simulated window host behind a websocket bridge.
//
// The host answers the same plugin commands a desktop shell does, so the
// hostwin CLI and library can be exercised without one.
//
// Routes:
//   - GET /bridge: websocket bridge frames
//   - GET /healthz, GET /status: liveness and host state
//   - GET /metrics: Prometheus metrics
//   - PUT /log-level?level=debug: change the log level while running
//
// Configuration:
//   - Environment variables (HOSTWIN_DEVHOST_ADDR, HOSTWIN_DEVHOST_TOPOLOGY, HOSTWIN_DEVHOST_X11,
//     HOSTWIN_DEVHOST_ORIGINS for CORS)
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Default single 2880x1800 monitor
//	./devhost -addr 127.0.0.1:8765
//
//	# Monitors and windows from a file
//	./devhost -topology topology.toml -dev
//
//	# Mirror the real X11 monitor layout
//	./devhost -x11
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
