package tape

import (
	"path/filepath"
	"testing"

	"github.com/agentchaos/chaosproxy/internal/flowmodel"
	"github.com/stretchr/testify/require"
)

func flowWithResponse(status int) *flowmodel.Flow {
	f := flowmodel.NewFlow(&flowmodel.Request{Method: "GET", URL: "http://x/y"})
	f.Response = &flowmodel.Response{Status: status, BodyBytes: []byte("ok")}
	f.Metadata.AddStrategy("latency")
	return f
}

func TestRecorder_AppendAndFlushRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.tape.json")

	r := NewRecorder(path)
	r.Append("fp-1", flowWithResponse(200))
	r.Append("fp-2", flowWithResponse(500))
	require.Equal(t, 2, r.Len())

	require.NoError(t, r.Flush())

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Len(t, loaded.Entries, 2)
	require.Equal(t, "fp-1", loaded.Entries[0].Fingerprint)
	require.Equal(t, 200, loaded.Entries[0].Response.Status)
	require.True(t, loaded.Entries[1].Sequence > loaded.Entries[0].Sequence)
}

func TestRecorder_SkipsFlowsWithoutResponse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.tape.json")

	r := NewRecorder(path)
	f := flowmodel.NewFlow(&flowmodel.Request{Method: "GET", URL: "http://x/y"})
	r.Append("fp-1", f)
	require.Equal(t, 0, r.Len())
}

func TestRecorder_EncryptsWhenTapeKeySet(t *testing.T) {
	t.Setenv("CHAOS_TAPE_KEY", "test-secret-key")

	dir := t.TempDir()
	path := filepath.Join(dir, "session.tape.json")

	r := NewRecorder(path)
	r.Append("fp-1", flowWithResponse(200))
	require.NoError(t, r.Flush())

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Len(t, loaded.Entries, 1)
}
