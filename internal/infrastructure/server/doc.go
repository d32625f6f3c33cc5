// Package server hosts the dev host's gin router: middleware setup, listen
// and graceful shutdown.
package server
