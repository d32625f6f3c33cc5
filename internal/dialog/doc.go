// Package dialog opens native file pickers and message boxes on the host.
package dialog
