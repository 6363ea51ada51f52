package tracing

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups the Prometheus collectors this package registers. None of
// this is required by spec.md — the spec's Non-goals rule out querying and
// indexing trace events, not instrumenting the tracing subsystem itself,
// and SPEC_FULL.md's ambient stack calls for the same observability
// conventions the rest of the teacher codebase uses.
type Metrics struct {
	EventsAppended prometheus.Counter
	EventsDropped  prometheus.Counter
	EventsWritten  prometheus.Counter
	BytesWritten   prometheus.Counter
	FlushAttempts  prometheus.Counter
	FlushSkipped   prometheus.Counter
	FilesRotated   prometheus.Counter
	WriteErrors    prometheus.Counter
	CurrentFile    prometheus.Gauge
}

// NewMetrics constructs a Metrics bound to reg. Pass prometheus.NewRegistry()
// in tests to avoid colliding with other registrations in the same process;
// pass prometheus.DefaultRegisterer in production wiring.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tracehub",
			Name:      "events_appended_total",
			Help:      "Trace events successfully appended to the active buffer.",
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tracehub",
			Name:      "events_dropped_total",
			Help:      "Trace events dropped because the active buffer was full.",
		}),
		EventsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tracehub",
			Name:      "events_written_total",
			Help:      "Trace events written to an output file.",
		}),
		BytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tracehub",
			Name:      "bytes_written_total",
			Help:      "Bytes written to trace output files.",
		}),
		FlushAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tracehub",
			Name:      "flush_attempts_total",
			Help:      "Times the agent attempted to flush the double buffer.",
		}),
		FlushSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tracehub",
			Name:      "flush_skipped_total",
			Help:      "Flush attempts skipped because the writer was still busy.",
		}),
		FilesRotated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tracehub",
			Name:      "files_rotated_total",
			Help:      "Output file rotations performed after the trace quantum.",
		}),
		WriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tracehub",
			Name:      "write_errors_total",
			Help:      "Errors returned by the underlying file write syscall.",
		}),
		CurrentFile: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tracehub",
			Name:      "current_file_index",
			Help:      "Index N of the currently open node_trace.log.N file.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.EventsAppended, m.EventsDropped, m.EventsWritten,
			m.BytesWritten, m.FlushAttempts, m.FlushSkipped, m.FilesRotated,
			m.WriteErrors, m.CurrentFile)
	}
	return m
}
