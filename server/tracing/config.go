package tracing

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/buildbuddy-io/tracehub/server/util/status"
)

// RecordMode is the recording-mode switch from the config document (C6).
// Only ModeUntilFull changes buffer behavior in this port (overflow drops
// new events); the others are stored but otherwise inert placeholders, per
// the open question recorded in spec.md §9 and DESIGN.md.
type RecordMode int

const (
	ModeUntilFull RecordMode = iota
	ModeContinuously
	ModeAsMuchAsPossible
	ModeEchoToConsole
)

const (
	recordUntilFullJSON        = "record-until-full"
	recordContinuouslyJSON     = "record-continuously"
	recordAsMuchAsPossibleJSON = "record-as-much-as-possible"
)

func (m RecordMode) String() string {
	switch m {
	case ModeContinuously:
		return recordContinuouslyJSON
	case ModeAsMuchAsPossible:
		return recordAsMuchAsPossibleJSON
	case ModeEchoToConsole:
		return "echo-to-console"
	default:
		return recordUntilFullJSON
	}
}

// Config is the record of recording mode, boolean switches, and
// included/excluded category lists (C6).
type Config struct {
	RecordMode         RecordMode
	EnableSampling     bool
	EnableSystrace     bool
	EnableArgFilter    bool
	IncludedCategories []string
	ExcludedCategories []string
}

// DefaultConfig matches v8's TraceConfig::CreateDefaultTraceConfig: one
// included category, "v8", and every switch off.
func DefaultConfig() *Config {
	return &Config{
		RecordMode:         ModeUntilFull,
		IncludedCategories: []string{"v8"},
	}
}

// IsGroupEnabled implements §4.4's exact-match rule: excluded wins over
// included, and the default (neither list mentions the group) is disabled.
// No glob matching, despite the dotted-segment look of category groups.
func (c *Config) IsGroupEnabled(group string) bool {
	for _, excluded := range c.ExcludedCategories {
		if excluded == group {
			return false
		}
	}
	for _, included := range c.IncludedCategories {
		if included == group {
			return true
		}
	}
	return false
}

// configJSON mirrors the wire shape documented in §4.4. enable_* fields are
// decoded as json.Number (not bool) so that the "truthy iff a nonzero
// number" rule — including the documented bug where JSON boolean literals
// read as false — can be reproduced exactly rather than guessed at.
type configJSON struct {
	RecordMode         string          `json:"record_mode"`
	EnableSampling     json.RawMessage `json:"enable_sampling"`
	EnableSystrace     json.RawMessage `json:"enable_systrace"`
	EnableArgFilter    json.RawMessage `json:"enable_argument_filter"`
	IncludedCategories []string        `json:"included_categories"`
	ExcludedCategories []string        `json:"excluded_categories"`
}

// truthyNumber implements GetBoolean from trace-config.cc: true only if the
// raw JSON value decodes as a nonzero number. true/false literals, strings,
// objects, arrays, and null are all false. This is documented in spec.md
// §9 as a likely source bug that this port preserves rather than "fixes".
func truthyNumber(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return false
	}
	f, err := n.Float64()
	if err != nil {
		return false
	}
	return f != 0
}

func parseRecordMode(s string) RecordMode {
	switch s {
	case recordContinuouslyJSON:
		return ModeContinuously
	case recordAsMuchAsPossibleJSON:
		return ModeAsMuchAsPossible
	default:
		return ModeUntilFull
	}
}

// ParseConfig decodes a trace-config JSON document per §4.4. Unknown
// top-level keys are ignored (the zero value of configJSON's unused
// fields is simply never read). A malformed document returns an
// InvalidArgument status error; per §7, this core treats a parse failure
// as "use default" at the call site, not as a fatal condition.
func ParseConfig(r io.Reader) (*Config, error) {
	var raw configJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, status.InvalidArgumentErrorf("malformed trace config: %s", err)
	}

	cfg := &Config{
		RecordMode:         parseRecordMode(raw.RecordMode),
		EnableSampling:     truthyNumber(raw.EnableSampling),
		EnableSystrace:     truthyNumber(raw.EnableSystrace),
		EnableArgFilter:    truthyNumber(raw.EnableArgFilter),
		IncludedCategories: append([]string(nil), raw.IncludedCategories...),
		ExcludedCategories: append([]string(nil), raw.ExcludedCategories...),
	}
	return cfg, nil
}
