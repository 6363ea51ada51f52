package tracing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/buildbuddy-io/tracehub/server/util/status"
)

func TestParseConfigTruthyNumberRule(t *testing.T) {
	doc := `{
		"record_mode": "record-continuously",
		"enable_sampling": 1,
		"enable_systrace": true,
		"enable_argument_filter": 0,
		"included_categories": ["v8", "node"],
		"excluded_categories": ["node.async_hooks"]
	}`
	cfg, err := ParseConfig(strings.NewReader(doc))
	require.NoError(t, err)

	require.Equal(t, ModeContinuously, cfg.RecordMode)
	require.True(t, cfg.EnableSampling, "a nonzero JSON number must be truthy")
	require.False(t, cfg.EnableSystrace, "a JSON boolean literal is never truthy, even `true`")
	require.False(t, cfg.EnableArgFilter)
	require.Equal(t, []string{"v8", "node"}, cfg.IncludedCategories)
	require.Equal(t, []string{"node.async_hooks"}, cfg.ExcludedCategories)
}

func TestParseConfigMalformedJSONIsInvalidArgument(t *testing.T) {
	_, err := ParseConfig(strings.NewReader(`{not json`))
	require.Error(t, err)
	require.True(t, status.IsInvalidArgumentError(err))
}

func TestParseConfigDefaultsUnknownRecordMode(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(`{"record_mode": "bogus-mode"}`))
	require.NoError(t, err)
	require.Equal(t, ModeUntilFull, cfg.RecordMode)
}

func TestConfigIsGroupEnabledExcludedWins(t *testing.T) {
	cfg := &Config{
		IncludedCategories: []string{"v8", "node"},
		ExcludedCategories: []string{"node"},
	}
	require.True(t, cfg.IsGroupEnabled("v8"))
	require.False(t, cfg.IsGroupEnabled("node"), "excluded must win over included")
	require.False(t, cfg.IsGroupEnabled("unrelated"))
}

func TestConfigIsGroupEnabledIsExactMatchNotPrefix(t *testing.T) {
	cfg := &Config{IncludedCategories: []string{"node"}}
	require.False(t, cfg.IsGroupEnabled("node.async_hooks"), "category matching is exact, not a glob/prefix match")
}
