package tracing

import "os"

// currentPID is split out from controller.go's use of os.Getpid() only so
// agent.go's shutdown diagnostic doesn't need to reach into Controller for
// a pid it already captured at construction time.
func currentPID() int {
	return os.Getpid()
}
