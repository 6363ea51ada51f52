package tracing

import (
	"encoding/json"
)

// jsonPrologue and jsonEpilogue are the fixed framing bytes for one trace
// output file (§4.6, §6). Ownership of when to write them belongs to
// FileWriter (open/rotate/shutdown); JSONSink only ever produces the
// per-event object bytes in between.
const (
	jsonPrologue = `{"traceEvents":[`
	jsonEpilogue = "]}\n"
)

// byteAppender is the capability JSONSink hands its accumulated bytes to
// once per Flush — FileWriter implements it.
type byteAppender interface {
	AppendEvents(p []byte, eventCount int)
}

// wireEvent is the on-disk shape of one trace event, field order matching
// §4.6 exactly (pid, tid, ts, tts, ph, cat, name, scope, args, dur, tdur).
// encoding/json.Marshal preserves a struct's declaration order (unlike a
// map, which it sorts by key), the same technique the teacher's
// cli/bbmake/bbmake.go uses to emit its own Chrome-tracing-format
// TraceEvent JSON.
type wireEvent struct {
	PID   int    `json:"pid"`
	TID   int    `json:"tid"`
	TS    int64  `json:"ts"`
	TTS   int64  `json:"tts"`
	Ph    string `json:"ph"`
	Cat   string `json:"cat"`
	Name  string `json:"name"`
	Scope string `json:"scope,omitempty"`

	// Args is always an empty object: §4.6/Non-goals — no argument schema.
	Args struct{} `json:"args"`

	Dur  int64 `json:"dur"`
	TDur int64 `json:"tdur"`
}

// JSONSink serializes Events into the comma-separated-array JSON shape
// described in §4.6 (C8). It buffers bytes across AppendEvent calls and
// only forwards them to its byteAppender on Flush, matching the "buffered
// form" the spec describes for JsonSink.append/flush.
type JSONSink struct {
	writer       byteAppender
	categoryName func(*byte) string

	buf          []byte
	appendComma  bool
	pendingCount int
}

// NewJSONSink builds a sink writing through writer. categoryName resolves
// an Event's CategoryFlag pointer back to its interned group string —
// JSONSink never stores category strings itself, only the shared
// CategoryRegistry does (§4.3's NameOf).
func NewJSONSink(writer byteAppender, categoryName func(*byte) string) *JSONSink {
	return &JSONSink{writer: writer, categoryName: categoryName}
}

// AppendEvent serializes one Event into the sink's buffer via encoding/json,
// in the field order specified by §4.6.
func (s *JSONSink) AppendEvent(e *Event) {
	data, err := json.Marshal(wireEvent{
		PID:   e.PID,
		TID:   e.TID,
		TS:    e.TS,
		TTS:   e.TTS,
		Ph:    string(e.Phase),
		Cat:   s.categoryName(e.CategoryFlag),
		Name:  e.Name,
		Scope: e.Scope,
		Dur:   e.Duration,
		TDur:  e.CPUDuration,
	})
	if err != nil {
		// wireEvent has no field type json.Marshal can fail to encode.
		return
	}

	if s.appendComma {
		s.buf = append(s.buf, ',')
	}
	s.appendComma = true
	s.buf = append(s.buf, data...)
	s.pendingCount++
}

// Flush hands the accumulated bytes, and the count of events they encode,
// to the underlying writer and clears the local buffer. It does not reset
// the leading-comma state: that state spans the whole output file, not a
// single drain, and is only reset by ResetForNewFile.
func (s *JSONSink) Flush() {
	if s.pendingCount == 0 {
		return
	}
	s.writer.AppendEvents(s.buf, s.pendingCount)
	s.buf = s.buf[:0]
	s.pendingCount = 0
}

// ResetForNewFile clears the leading-comma state. FileWriter calls this
// whenever it opens a fresh output file (initial open or after rotation),
// since the new file's "traceEvents" array starts empty again.
func (s *JSONSink) ResetForNewFile() {
	s.appendComma = false
	s.buf = s.buf[:0]
	s.pendingCount = 0
}
