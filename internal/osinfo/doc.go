// Package osinfo reports facts about the operating system the host runs on.
// Enumerated answers outside the known sets are decode failures.
package osinfo
