// Package monitor queries the displays attached to the host.
//
// Every query is a fresh round-trip. Current and Primary return nil when the
// host cannot name a monitor; Available returns a snapshot that does not track
// later topology changes.
package monitor
