// Package clock provides the monotonic time sources tracing.Controller
// captures at every event append: a wall-clock tick source and a "thread
// CPU time" source.
//
// Go has no portable per-goroutine CPU clock (unlike v8's
// base::ThreadTicks, backed by clock_gettime(CLOCK_THREAD_CPUTIME_ID) on
// POSIX). Per spec.md §6 ("may equal wall time if CPU clock is
// unavailable"), CPUMicros here is simply Micros; see SPEC_FULL.md
// §4.8a for the out-of-band process-level CPU sampling used instead at
// shutdown.
package clock

import "time"

// start anchors the monotonic tick source so ticks returned by Micros stay
// small and stable for the life of the process, rather than jumping around
// with wall-clock time. It is computed once at init and never mutated.
var start = time.Now()

// Micros returns monotonic microsecond ticks since process start.
func Micros() int64 {
	return time.Since(start).Microseconds()
}

// CPUMicros returns the thread-CPU-time equivalent used for a record's
// tts/cpu_duration fields. See the package doc: this is the wall clock,
// by design.
func CPUMicros() int64 {
	return Micros()
}
