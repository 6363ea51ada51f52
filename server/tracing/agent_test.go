package tracing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAgentStartRecordStopProducesValidJSONFile(t *testing.T) {
	dir := t.TempDir()
	a := NewAgent(dir, nil)
	require.NoError(t, a.Start(nil))

	ctrl := a.Controller()
	flag := ctrl.GetGroupFlag("v8")
	h := ctrl.AddEvent(PhaseComplete, flag, "op", "", 0, 0, 0, int(EnabledForRecording))
	ctrl.UpdateDuration(h)

	drained := a.Stop()
	require.Equal(t, 1, drained)

	data, err := os.ReadFile(filepath.Join(dir, "node_trace.log.1"))
	require.NoError(t, err)
	require.Contains(t, string(data), `"name":"op"`)
	require.True(t, len(data) > len(jsonPrologue+jsonEpilogue))
}

func TestAgentStopWithNoEventsWritesOnlyPrologue(t *testing.T) {
	dir := t.TempDir()
	a := NewAgent(dir, nil)
	require.NoError(t, a.Start(nil))

	drained := a.Stop()
	require.Equal(t, 0, drained)

	data, err := os.ReadFile(filepath.Join(dir, "node_trace.log.1"))
	require.NoError(t, err)
	require.Equal(t, jsonPrologue, string(data))
}

func TestAgentSessionIDIsUniquePerInstance(t *testing.T) {
	a1 := NewAgent(t.TempDir(), nil)
	a2 := NewAgent(t.TempDir(), nil)
	require.NotEqual(t, a1.sessionID, a2.sessionID)
}
