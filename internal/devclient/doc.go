// Package devclient reads the dev host's HTTP routes (/healthz, /status).
// Requests go through a retrying transport so a host that is still starting
// is polled rather than reported down.
package devclient
