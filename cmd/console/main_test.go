package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sagiri-relay/backend/app/relay"
	"sagiri-relay/backend/app/repo"
	"sagiri-relay/backend/router"
	"sagiri-relay/network"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) string {
	t.Helper()
	blobs, err := repo.NewDiskBlobRepository(t.TempDir())
	require.NoError(t, err)
	r, err := relay.New(relay.Options{Blobs: blobs, Logger: zerolog.Nop()})
	require.NoError(t, err)
	srv := httptest.NewServer(router.NewRouter(router.NewControllers(r)))
	t.Cleanup(func() {
		srv.Close()
		_ = r.Close()
	})
	return srv.URL
}

func run(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--server", server}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestSendAndStatus(t *testing.T) {
	server := newServer(t)
	out, err := run(t, server, "send", "-d", "dev-1", "uname", "-a")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	agent, err := network.New(server, network.WithDeviceID("dev-1"))
	require.NoError(t, err)
	pending, err := agent.PendingCommands(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "uname -a", pending[0].Text)
	require.NoError(t, agent.CompleteCommand(context.Background(), id, network.CommandOutput{Stdout: "Linux\n"}))

	out, err = run(t, server, "status", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Status:  completed")
	assert.Contains(t, out, "Linux")

	out, err = run(t, server, "send", "--wait", "1s", "--poll", "10ms", "hostname")
	require.Error(t, err, "nobody completes it")
	assert.Empty(t, out)
}

func TestFileCommands(t *testing.T) {
	server := newServer(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "report.txt")
	require.NoError(t, os.WriteFile(src, []byte("quarterly numbers"), 0o644))

	out, err := run(t, server, "files")
	require.NoError(t, err)
	assert.Equal(t, "No files available\n", out)

	out, err = run(t, server, "upload", src)
	require.NoError(t, err)
	require.Contains(t, out, "File ID: ")
	id := strings.Fields(strings.SplitN(out, "File ID: ", 2)[1])[0]

	out, err = run(t, server, "files")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "report.txt")

	dest := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(dest, 0o755))
	_, err = run(t, server, "download", id, dest)
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(dest, "report.txt"))
	require.NoError(t, err)
	assert.Equal(t, "quarterly numbers", string(b))

	_, err = run(t, server, "download", "missing", dest)
	assert.True(t, network.IsNotFound(err))
}

func TestAudioPushAndSweep(t *testing.T) {
	server := newServer(t)
	pcm := filepath.Join(t.TempDir(), "tone.pcm")
	require.NoError(t, os.WriteFile(pcm, make([]byte, 10000), 0o644))

	out, err := run(t, server, "audio", "push", "dev-1", pcm, "--chunk", "4096")
	require.NoError(t, err)
	assert.Equal(t, "Pushed 3 chunks\n", out)

	agent, err := network.New(server)
	require.NoError(t, err)
	chunk, err := agent.PopAudio(context.Background(), "dev-1", network.Speaker)
	require.NoError(t, err)
	require.NotNil(t, chunk)
	assert.Equal(t, 48000, chunk.Rate)

	out, err = run(t, server, "sweep")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 0 entries")

	out, err = run(t, server, "info")
	require.NoError(t, err)
	assert.Contains(t, out, "Status:")
}

func TestScreenErrors(t *testing.T) {
	server := newServer(t)
	_, err := run(t, server, "screen", "ghost")
	assert.True(t, network.IsNotFound(err))

	_, err = run(t, server, "quality", "dev-1", "high")
	assert.Error(t, err)
	_, err = run(t, server, "quality", "dev-1", "500")
	assert.Equal(t, 400, network.StatusCode(err))

	out, err := run(t, server, "quality", "dev-1", "40")
	require.NoError(t, err)
	assert.Contains(t, out, "Quality 40 queued")
}
