// Package tracing implements an in-process event-tracing subsystem: a
// chunked bounded buffer that drops new events once full, a category-group
// enablement cache, and a background flush pipeline that streams JSON trace
// documents (one per output file, ending in a newline) to disk. See SPEC_FULL.md for the full contract.
package tracing

// Phase tags the temporal role of an Event, mirroring the single-character
// phase codes used by the Chrome/V8 trace event format.
type Phase byte

const (
	PhaseBegin           Phase = 'B'
	PhaseEnd             Phase = 'E'
	PhaseComplete        Phase = 'X'
	PhaseInstant         Phase = 'i'
	PhaseAsyncStart      Phase = 'S'
	PhaseAsyncEnd        Phase = 'F'
	PhaseAsyncStep       Phase = 'T'
	PhaseObjectCreated   Phase = 'N'
	PhaseObjectSnapshot  Phase = 'O'
	PhaseObjectDestroyed Phase = 'D'
)

// Category flag bits, stored one byte per interned category group in the
// CategoryRegistry.
const (
	EnabledForRecording     byte = 1 << 0
	EnabledForEventCallback byte = 1 << 2
	EnabledForETWExport     byte = 1 << 3
)

// Event is the fixed-shape value recorded for every trace call site. Its
// zero value is never itself valid: Name/Scope/CategoryFlag are only
// meaningful once populated by Controller.AddEvent.
type Event struct {
	Phase        Phase
	CategoryFlag *byte

	// Name and Scope are borrowed references: callers guarantee they
	// outlive the active recording session (they are either string
	// literals at call sites or interned category-group strings).
	Name  string
	Scope string

	ID      uint64
	BindID  uint64
	NumArgs int
	Flags   int

	PID int
	TID int

	TS  int64 // monotonic wall-clock ticks (microseconds) at append time
	TTS int64 // monotonic cpu-clock ticks (microseconds) at append time

	Duration    int64 // 0 until UpdateDuration is called
	CPUDuration int64
}

// NewTestEvent builds an Event with every field set explicitly, bypassing
// the clock and pid/tid sources. It exists for deterministic property
// tests, mirroring v8's TraceObject::InitializeForTesting.
func NewTestEvent(phase Phase, flag *byte, name, scope string, id, bindID uint64, numArgs, flags, pid, tid int, ts, tts, duration, cpuDuration int64) Event {
	return Event{
		Phase:        phase,
		CategoryFlag: flag,
		Name:         name,
		Scope:        scope,
		ID:           id,
		BindID:       bindID,
		NumArgs:      numArgs,
		Flags:        flags,
		PID:          pid,
		TID:          tid,
		TS:           ts,
		TTS:          tts,
		Duration:     duration,
		CPUDuration:  cpuDuration,
	}
}
