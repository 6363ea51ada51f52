package tracing

import (
	"os"
	"sync"
	"sync/atomic"

	"github.com/buildbuddy-io/tracehub/server/util/clock"
	"github.com/buildbuddy-io/tracehub/server/util/log"
	"github.com/buildbuddy-io/tracehub/server/util/status"
)

// state is the Controller's DISABLED <-> RECORDING state machine (§4.5).
type state int32

const (
	stateDisabled state = iota
	stateRecording
)

// Controller owns the active DoubleBuffer, the CategoryRegistry, and the
// current Config (C7). It is the only public surface trace-event call
// sites use.
type Controller struct {
	mu       sync.Mutex
	state    atomic.Int32
	registry *CategoryRegistry
	config   *Config
	buffer   *DoubleBuffer
	metrics  *Metrics
	pid      int
}

// NewController wires a Controller around an already-constructed
// DoubleBuffer. The buffer's maxChunks and writer/sink are assembled by the
// caller (normally Agent), since Controller itself has no opinion on the
// flush pipeline's mechanics, only on the data it feeds them.
func NewController(buffer *DoubleBuffer, metrics *Metrics) *Controller {
	cfg := DefaultConfig()
	c := &Controller{
		registry: NewCategoryRegistry(cfg),
		config:   cfg,
		buffer:   buffer,
		metrics:  metrics,
		pid:      os.Getpid(),
	}
	return c
}

// GetGroupFlag interns group (if not already known) and returns a stable
// pointer to its enablement flag byte (§4.3, §4.5).
func (c *Controller) GetGroupFlag(group string) *byte {
	return c.registry.LookupOrCreate(group)
}

// GroupName reverse-looks-up the category group string owning flag.
func (c *Controller) GroupName(flag *byte) string {
	return c.registry.NameOf(flag)
}

// IsRecording reports whether the Controller is currently in the RECORDING
// state.
func (c *Controller) IsRecording() bool {
	return state(c.state.Load()) == stateRecording
}

// Start adopts cfg, recomputes every registry flag against it, and
// transitions DISABLED -> RECORDING. Calling Start while already recording
// is a programmer error (§4.9): it is rejected with a FailedPrecondition
// status error and logged once, not panicked.
func (c *Controller) Start(cfg *Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if state(c.state.Load()) == stateRecording {
		err := status.FailedPreconditionError("tracing: Start called while already recording")
		log.Warningf("%s", err)
		return err
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c.config = cfg
	c.registry.UpdateConfig(cfg)
	c.state.Store(int32(stateRecording))
	return nil
}

// Stop transitions RECORDING -> DISABLED, then synchronously drains the
// active buffer (bypassing the writer's idle gate, since producers are
// assumed quiesced by the caller at this point — see §4.2/§4.5). Calling
// Stop while already disabled is a no-op programmer error, logged once.
func (c *Controller) Stop() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if state(c.state.Load()) == stateDisabled {
		log.Warningf("tracing: Stop called while not recording")
		return 0
	}
	c.state.Store(int32(stateDisabled))
	return c.buffer.DrainActiveSynchronously()
}

// AddEvent captures pid/tid/ts/tts and forwards to the DoubleBuffer,
// returning 0 on overflow (§4.5). Call sites are expected to have already
// consulted the group's flag byte (via GetGroupFlag) to decide whether to
// call AddEvent at all; AddEvent itself does not re-check enablement, to
// keep its cost to field assignment plus one mutex acquisition.
func (c *Controller) AddEvent(phase Phase, flag *byte, name, scope string, id, bindID uint64, numArgs, flags int) Handle {
	rec, h := c.buffer.AddEvent()
	if rec == nil {
		if c.metrics != nil {
			c.metrics.EventsDropped.Inc()
		}
		return 0
	}
	rec.Phase = phase
	rec.CategoryFlag = flag
	rec.Name = name
	rec.Scope = scope
	rec.ID = id
	rec.BindID = bindID
	rec.NumArgs = numArgs
	rec.Flags = flags
	rec.PID = c.pid
	rec.TID = currentTID()
	rec.TS = clock.Micros()
	rec.TTS = clock.CPUMicros()
	rec.Duration = 0
	rec.CPUDuration = 0

	if c.metrics != nil {
		c.metrics.EventsAppended.Inc()
	}
	return h
}

// UpdateDuration looks up handle and, if still valid, sets Duration and
// CPUDuration relative to the record's captured TS/TTS. A no-op if the
// handle's chunk has since been recycled (§4.5, §4.9).
func (c *Controller) UpdateDuration(handle Handle) {
	rec, ok := c.buffer.Lookup(handle)
	if !ok {
		return
	}
	rec.Duration = clock.Micros() - rec.TS
	rec.CPUDuration = clock.CPUMicros() - rec.TTS
}
