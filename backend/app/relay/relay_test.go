package relay

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"sagiri-relay/backend/app/models"
	"sagiri-relay/backend/app/repo"
	"sagiri-relay/backend/app/services"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestRelay(t *testing.T, clk *stepClock) *Relay {
	t.Helper()
	blobs, err := repo.NewDiskBlobRepository(t.TempDir())
	require.NoError(t, err)
	r, err := New(Options{Clock: clk, Horizon: time.Hour, Blobs: blobs, Logger: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRelay_Defaults(t *testing.T) {
	clk := &stepClock{now: time.Unix(1_700_000_000, 0)}
	r := newTestRelay(t, clk)
	assert.Equal(t, time.Hour, r.Horizon())
	assert.Equal(t, 50, r.Audio.Capacity(models.AudioMicrophone))
	assert.Equal(t, int64(DefaultMaxUpload), r.Files.MaxUpload())

	clk.Advance(time.Minute)
	assert.Equal(t, time.Minute, r.Uptime())
}

func TestRelay_SweepUsesSharedHorizon(t *testing.T) {
	clk := &stepClock{now: time.Unix(1_700_000_000, 0)}
	r := newTestRelay(t, clk)
	ctx := context.Background()

	cmd, err := r.Commands.Submit("ls", "")
	require.NoError(t, err)
	rec, err := r.Files.Store(ctx, "x.txt", strings.NewReader("x"))
	require.NoError(t, err)

	clk.Advance(20 * time.Minute)
	assert.Equal(t, 0, r.Sweeper.Sweep(ctx).Total())

	r.SetHorizon(10 * time.Minute)
	assert.Equal(t, 2, r.Sweeper.Sweep(ctx).Total())

	_, err = r.Commands.Status(cmd.ID)
	assert.Error(t, err)
	_, err = r.Files.Metadata(rec.ID)
	assert.Error(t, err)
}

func TestRelay_StartAndClose(t *testing.T) {
	blobs, err := repo.NewDiskBlobRepository(t.TempDir())
	require.NoError(t, err)
	r, err := New(Options{Blobs: blobs, SweepSchedule: "@every 1h", Logger: zerolog.Nop()})
	require.NoError(t, err)
	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, r.Close())

	bad, err := New(Options{Blobs: blobs, SweepSchedule: "sometimes", Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.Error(t, bad.Start(context.Background()))
}

func TestRelay_SharedRetention(t *testing.T) {
	blobs, err := repo.NewDiskBlobRepository(t.TempDir())
	require.NoError(t, err)
	retention := services.NewRetention(time.Hour)
	r, err := New(Options{Retention: retention, Horizon: time.Minute, Blobs: blobs, Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, time.Hour, r.Horizon())
	r.SetHorizon(5 * time.Hour)
	assert.Equal(t, 5*time.Hour, retention.Horizon())
}
