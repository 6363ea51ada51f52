package tracing

import (
	"context"
	"flag"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	procutil "github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sync/errgroup"

	"github.com/buildbuddy-io/tracehub/server/util/log"
	"github.com/buildbuddy-io/tracehub/server/util/status"
)

var (
	maxChunksPerBuffer = flag.Int("tracehub.max_chunks_per_buffer", 1<<13, "Chunk capacity of each of the DoubleBuffer's two internalBuffers (64 events/chunk).")
	flushPollInterval  = flag.Duration("tracehub.flush_poll_interval", 100*time.Millisecond, "Fallback interval the Agent's I/O goroutine wakes on even without a threshold-crossing signal, so a low-volume recording still reaches disk promptly.")
)

// Agent (C10) is the top-level object a process embeds to get tracing: one
// Agent owns one Controller, one DoubleBuffer, one CategoryRegistry (via the
// Controller), one JSONSink, and one FileWriter, and supervises the
// background goroutine that drains the DoubleBuffer to disk. This mirrors
// the teacher's server/janitor/janitor.go shape (flag-configured construction,
// explicit Start/Stop, one background goroutine per instance) generalized
// from a DB-cleanup loop to a trace-flush loop.
type Agent struct {
	sessionID  string
	dir        string
	metrics    *Metrics
	writer     *FileWriter
	sink       *JSONSink
	buffer     *DoubleBuffer
	controller *Controller

	flushSignal chan struct{}
	stopCh      chan struct{}
	eg          *errgroup.Group
	cancel      context.CancelFunc
}

// NewAgent wires together a complete flush pipeline rooted at dir (the
// directory node_trace.log.N files are written into). reg may be nil, in
// which case the Agent's Prometheus metrics are constructed but never
// registered with a collector.
func NewAgent(dir string, reg prometheus.Registerer) *Agent {
	metrics := NewMetrics(reg)
	a := &Agent{
		sessionID: uuid.NewString(),
		dir:       dir,
		metrics:   metrics,
	}
	a.writer = NewFileWriter(dir, metrics, a.resetSinkForNewFile)
	a.sink = NewJSONSink(a.writer, a.groupName)
	a.buffer = NewDoubleBuffer(*maxChunksPerBuffer, a.writer, a.sink, a.signalFlush)
	a.controller = NewController(a.buffer, metrics)
	a.flushSignal = make(chan struct{}, 1)
	return a
}

// resetSinkForNewFile is passed to FileWriter as its onRotate callback: a
// method value rather than a closure built in NewAgent, since a.sink isn't
// assigned yet at the point NewFileWriter is constructed.
func (a *Agent) resetSinkForNewFile() {
	if a.sink != nil {
		a.sink.ResetForNewFile()
	}
}

func (a *Agent) groupName(categoryFlag *byte) string {
	return a.controller.GroupName(categoryFlag)
}

// signalFlush is the DoubleBuffer's onThresholdCrossed callback. It coalesces
// bursts of threshold crossings into a single pending wakeup for the I/O
// goroutine, the same non-blocking-send-with-default idiom the teacher's
// change-notification channels use.
func (a *Agent) signalFlush() {
	select {
	case a.flushSignal <- struct{}{}:
	default:
	}
}

// Controller returns the Agent's Controller, the surface trace-event call
// sites use to obtain category flags and record events.
func (a *Agent) Controller() *Controller {
	return a.controller
}

// Start opens the first output file and launches the flush-loop goroutine.
// It returns an error if the output directory can't be opened for writing.
func (a *Agent) Start(cfg *Config) error {
	if err := a.writer.Start(); err != nil {
		return status.WrapErrorf(err, "tracing: starting agent %s", a.sessionID)
	}
	if err := a.controller.Start(cfg); err != nil {
		a.writer.Stop()
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	eg, egCtx := errgroup.WithContext(ctx)
	a.cancel = cancel
	a.eg = eg
	a.stopCh = make(chan struct{})

	eg.Go(func() error {
		a.flushLoop(egCtx)
		return nil
	})

	log.Infof("tracing: agent %s started, writing to %s", a.sessionID, a.dir)
	return nil
}

// flushLoop is the Agent's dedicated I/O-adjacent goroutine: it owns no file
// descriptors directly (FileWriter's own loop does) but decides when to ask
// the DoubleBuffer to swap and drain. It wakes on whichever comes first: a
// coalesced threshold-crossing signal, the fallback poll interval, or
// shutdown.
func (a *Agent) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(*flushPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.flushSignal:
			a.attemptFlush()
		case <-ticker.C:
			a.attemptFlush()
		case <-a.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// attemptFlush records the attempt/skip counters around a DoubleBuffer.Flush
// call; Flush itself has no metrics dependency, so the bookkeeping lives
// here instead.
func (a *Agent) attemptFlush() {
	a.metrics.FlushAttempts.Inc()
	if !a.buffer.Flush() {
		a.metrics.FlushSkipped.Inc()
	}
}

// Stop stops the Controller (synchronously draining whatever is left in the
// active buffer), then tears down the flush-loop goroutine and the
// FileWriter, in that order so no event capturing happens while the pipeline
// is being dismantled. It returns the number of events drained by the final
// synchronous flush.
func (a *Agent) Stop() int {
	drained := a.controller.Stop()

	close(a.stopCh)
	a.cancel()
	a.eg.Wait()

	a.writer.Stop()

	if cpu, err := processCPUSeconds(); err == nil {
		log.Infof("tracing: agent %s stopped after draining %d events (process CPU time %.2fs)", a.sessionID, drained, cpu)
	} else {
		log.Infof("tracing: agent %s stopped after draining %d events", a.sessionID, drained)
	}
	return drained
}

// processCPUSeconds is a shutdown-only diagnostic, not part of any
// per-event hot path: it samples the current process' cumulative user+system
// CPU time via gopsutil, the same library and Times() call the teacher's
// enterprise/server/util/procstats package uses to account for a process
// tree's CPU usage, applied here to a single process rather than a tree.
func processCPUSeconds() (float64, error) {
	p, err := procutil.NewProcess(int32(currentPID()))
	if err != nil {
		return 0, err
	}
	t, err := p.Times()
	if err != nil {
		return 0, err
	}
	return t.User + t.System, nil
}
