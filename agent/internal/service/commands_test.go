package service

import (
	"context"
	"path/filepath"
	"testing"

	"sagiri-relay/agent/internal/command"
	"sagiri-relay/agent/internal/db"
	"sagiri-relay/network"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedger(t *testing.T) *db.Ledger {
	t.Helper()
	gdb, err := db.Init(filepath.Join(t.TempDir(), "agent.db"))
	require.NoError(t, err)
	return db.NewLedger(gdb)
}

func countingAgent(t *testing.T, relay *fakeRelay, ledger *db.Ledger) (*Agent, *int) {
	t.Helper()
	a := New(Options{DeviceID: "dev-1", Relay: relay, Ledger: ledger})
	runs := new(int)
	a.Dispatcher().Register("count", command.HandlerFunc{Fn: func(context.Context, []string) command.Output {
		*runs++
		return command.Output{Stdout: "counted"}
	}})
	return a, runs
}

func TestCommandRunsOnceAndReports(t *testing.T) {
	relay := newFakeRelay()
	relay.pending = []network.Command{{ID: "c1", Text: "!count"}}
	ledger := newLedger(t)
	a, runs := countingAgent(t, relay, ledger)

	a.pollCommands(context.Background())
	assert.Equal(t, 1, *runs)
	assert.Equal(t, "counted", relay.completed["c1"].Stdout)

	e, ok, err := ledger.Lookup("c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, e.Reported)
}

func TestLostReportIsRetriedWithoutRerunning(t *testing.T) {
	relay := newFakeRelay()
	relay.pending = []network.Command{{ID: "c1", Text: "!count"}}
	relay.completeErr = &network.APIError{StatusCode: 503, Message: "busy"}
	ledger := newLedger(t)
	a, runs := countingAgent(t, relay, ledger)

	a.pollCommands(context.Background())
	assert.Equal(t, 1, *runs)
	e, ok, err := ledger.Lookup("c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, e.Reported)

	relay.completeErr = nil
	a.pollCommands(context.Background())
	assert.Equal(t, 1, *runs, "recorded output is re-reported, not re-executed")
	assert.Equal(t, "counted", relay.completed["c1"].Stdout)
}

func TestAlreadyCompletedCountsAsReported(t *testing.T) {
	relay := newFakeRelay()
	relay.pending = []network.Command{{ID: "c1", Text: "!count"}}
	relay.completeErr = &network.APIError{StatusCode: 409, Message: "already completed"}
	ledger := newLedger(t)
	a, _ := countingAgent(t, relay, ledger)

	a.pollCommands(context.Background())
	e, ok, err := ledger.Lookup("c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, e.Reported)
}

func TestCommandWithoutLedger(t *testing.T) {
	relay := newFakeRelay()
	relay.pending = []network.Command{{ID: "c1", Text: "!nope"}}
	a, _ := countingAgent(t, relay, nil)

	a.pollCommands(context.Background())
	out := relay.completed["c1"]
	assert.Equal(t, 1, out.ReturnCode)
	assert.Contains(t, out.Stderr, "Unknown command !nope")
}
