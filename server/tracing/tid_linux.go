//go:build linux

package tracing

import "golang.org/x/sys/unix"

// currentTID returns the OS thread id of the calling goroutine's current
// carrier thread (via gettid(2)), the closest Go analog of v8's
// base::OS::GetCurrentThreadId(). Goroutines can migrate between OS
// threads between calls, so this is a best-effort sample at append time,
// not a stable per-goroutine identity — acceptable here since tid is only
// ever used as an observability field on the emitted event, never as a key.
func currentTID() int {
	return unix.Gettid()
}
