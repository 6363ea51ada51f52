package tracing

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/buildbuddy-io/tracehub/server/util/log"
	"github.com/buildbuddy-io/tracehub/server/util/status"
)

// TracesPerFile is the fixed event quantum after which the current output
// file is closed and a new one opened (§4.7, §6).
const TracesPerFile = 1 << 20

// filePathTemplate mirrors the original node_trace.log.<N> naming, rooted
// at an arbitrary directory so tests don't write into the working
// directory.
const filePathTemplate = "node_trace.log.%d"

type writeJob struct {
	data       []byte
	eventCount int
}

// FileWriter owns all output-file state on a single dedicated goroutine
// (C9). Producers and the flush path never touch os.File directly; they
// call AppendEvents (or AppendBytes), which enqueues the write and returns
// immediately.
type FileWriter struct {
	dir string

	writeCh chan writeJob
	stopCh  chan struct{}
	done    sync.WaitGroup

	isWriting atomic.Bool

	// onRotate is invoked (on the writer goroutine) every time a fresh
	// file is opened, including the very first one. It exists so the
	// JSONSink's per-file comma state can be reset without FileWriter
	// naming the JSONSink type directly — the same closure-over-strong-
	// coupling pattern used between Agent and internalBuffer.
	onRotate func()

	metrics *Metrics

	// State below is only ever touched from the writer goroutine.
	file         *os.File
	fileIndex    int
	eventsInFile int
}

// NewFileWriter constructs a FileWriter rooted at dir. It does not open a
// file or start its goroutine; call Start for that, since opening the
// first file can fail and Start's caller needs to see that failure (§4.9:
// "File open failure: Fatal at start").
func NewFileWriter(dir string, metrics *Metrics, onRotate func()) *FileWriter {
	return &FileWriter{
		dir:      dir,
		writeCh:  make(chan writeJob, 8),
		stopCh:   make(chan struct{}),
		onRotate: onRotate,
		metrics:  metrics,
	}
}

// IsReady reports whether the previous enqueued write has completed. This
// is the idle gate DoubleBuffer.Flush polls before swapping (§4.7's
// is_ready).
func (w *FileWriter) IsReady() bool {
	return !w.isWriting.Load()
}

// Start opens the first output file synchronously (so failures are visible
// to the caller per §7) and then launches the writer goroutine.
func (w *FileWriter) Start() error {
	if err := w.openNewFileLocked(); err != nil {
		return status.InternalErrorf("open initial trace output file: %s", err)
	}
	w.done.Add(1)
	go w.loop()
	return nil
}

// AppendBytes enqueues p (already-serialized JSON event bytes) for the
// writer goroutine to append to the current file, with no rotation
// accounting. JSONSink uses AppendEvents instead; this variant exists for
// callers that only need to push framing bytes.
func (w *FileWriter) AppendBytes(p []byte) {
	w.AppendEvents(p, 0)
}

// AppendEvents is like AppendBytes but also records how many trace events
// p represents, for rotation accounting (§4.7: rotate once the running
// per-file event count reaches TracesPerFile). Sets the busy flag
// immediately; the writer goroutine clears it once the write completes,
// matching §4.7's "completion callback clears is_writing".
func (w *FileWriter) AppendEvents(p []byte, eventCount int) {
	if len(p) == 0 && eventCount == 0 {
		return
	}
	w.isWriting.Store(true)
	buf := make([]byte, len(p))
	copy(buf, p)
	w.writeCh <- writeJob{data: buf, eventCount: eventCount}
}

func (w *FileWriter) loop() {
	defer w.done.Done()
	for {
		select {
		case job := <-w.writeCh:
			w.handleWrite(job)
		case <-w.stopCh:
			// Drain any writes queued before Stop was called.
			for {
				select {
				case job := <-w.writeCh:
					w.handleWrite(job)
					continue
				default:
				}
				break
			}
			w.shutdownLocked()
			return
		}
	}
}

func (w *FileWriter) handleWrite(job writeJob) {
	if len(job.data) > 0 && w.file != nil {
		if _, err := w.file.Write(job.data); err != nil {
			log.Errorf("tracing: write to %s failed: %s", w.file.Name(), err)
			if w.metrics != nil {
				w.metrics.WriteErrors.Inc()
			}
		} else if w.metrics != nil {
			w.metrics.BytesWritten.Add(float64(len(job.data)))
		}
	}
	if job.eventCount > 0 {
		w.eventsInFile += job.eventCount
		if w.metrics != nil {
			w.metrics.EventsWritten.Add(float64(job.eventCount))
		}
		if w.eventsInFile >= TracesPerFile {
			w.rotateLocked()
		}
	}
	w.isWriting.Store(false)
}

func (w *FileWriter) rotateLocked() {
	w.writeEpilogueLocked()
	if err := w.openNewFileLocked(); err != nil {
		log.Errorf("tracing: rotate trace output file: %s", err)
	}
	if w.metrics != nil {
		w.metrics.FilesRotated.Inc()
	}
}

func (w *FileWriter) openNewFileLocked() error {
	if w.file != nil {
		w.file.Close()
	}
	w.fileIndex++
	path := filepath.Join(w.dir, fmt.Sprintf(filePathTemplate, w.fileIndex))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	w.file = f
	w.eventsInFile = 0
	if _, err := w.file.WriteString(jsonPrologue); err != nil {
		log.Errorf("tracing: write prologue to %s failed: %s", path, err)
	}
	if w.metrics != nil {
		w.metrics.CurrentFile.Set(float64(w.fileIndex))
	}
	if w.onRotate != nil {
		w.onRotate()
	}
	return nil
}

func (w *FileWriter) writeEpilogueLocked() {
	if w.file == nil {
		return
	}
	if _, err := w.file.WriteString(jsonEpilogue); err != nil {
		log.Errorf("tracing: write epilogue to %s failed: %s", w.file.Name(), err)
	}
}

// shutdownLocked runs once, on the writer goroutine, when Stop is called.
// It writes the epilogue only if any events were ever written (the current
// file received one, or an earlier file was rotated out, which leaves the
// current file open with its prologue), matching NodeTraceWriter's
// destructor, which guards its closing "]}\n" write on total_traces_ > 0.
func (w *FileWriter) shutdownLocked() {
	if w.eventsInFile > 0 || w.fileIndex > 1 {
		w.writeEpilogueLocked()
	}
	if w.file != nil {
		w.file.Close()
		w.file = nil
	}
}

// Stop signals the writer goroutine to drain pending writes, emit the
// final epilogue, close the file, and exit, then blocks until it has.
func (w *FileWriter) Stop() {
	close(w.stopCh)
	w.done.Wait()
}
