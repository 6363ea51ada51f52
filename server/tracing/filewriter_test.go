package tracing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileWriterStartWritesPrologueToFirstFile(t *testing.T) {
	dir := t.TempDir()
	w := NewFileWriter(dir, nil, nil)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.True(t, w.IsReady())

	path := filepath.Join(dir, "node_trace.log.1")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, jsonPrologue, string(data))
}

func TestFileWriterStopSkipsEpilogueWhenNoEventsWereWritten(t *testing.T) {
	dir := t.TempDir()
	w := NewFileWriter(dir, nil, nil)
	require.NoError(t, w.Start())
	w.Stop()

	data, err := os.ReadFile(filepath.Join(dir, "node_trace.log.1"))
	require.NoError(t, err)
	require.Equal(t, jsonPrologue, string(data))
}

func TestFileWriterAppendEventsWritesBytesAndClearsIsWriting(t *testing.T) {
	dir := t.TempDir()
	w := NewFileWriter(dir, nil, nil)
	require.NoError(t, w.Start())

	w.AppendEvents([]byte(`{"a":1}`), 1)
	require.Eventually(t, w.IsReady, timeoutForTest, tickForTest)

	w.Stop()
	data, err := os.ReadFile(filepath.Join(dir, "node_trace.log.1"))
	require.NoError(t, err)
	require.Equal(t, jsonPrologue+`{"a":1}`+jsonEpilogue, string(data))
}

func TestFileWriterRotatesAfterTracesPerFileEvents(t *testing.T) {
	dir := t.TempDir()
	rotated := 0
	w := NewFileWriter(dir, nil, func() { rotated++ })
	require.NoError(t, w.Start())
	defer w.Stop()

	// rotated is incremented once for the initial file open too.
	require.Equal(t, 1, rotated)

	w.AppendEvents([]byte(`{}`), TracesPerFile)
	require.Eventually(t, func() bool { return rotated == 2 }, timeoutForTest, tickForTest)

	_, err := os.Stat(filepath.Join(dir, "node_trace.log.2"))
	require.NoError(t, err)
}

func TestFileWriterOnRotateCallbackFiresOnInitialOpen(t *testing.T) {
	dir := t.TempDir()
	fired := false
	w := NewFileWriter(dir, nil, func() { fired = true })
	require.NoError(t, w.Start())
	defer w.Stop()
	require.True(t, fired)
}
