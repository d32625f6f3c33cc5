// Package appctl controls the host application: its metadata, visibility,
// process lifetime and window placement.
package appctl
