//go:build !linux

package tracing

import "os"

// currentTID falls back to the process id on platforms with no portable
// thread-id syscall exposed by golang.org/x/sys/unix.
func currentTID() int {
	return os.Getpid()
}
