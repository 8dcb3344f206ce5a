package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManagerStartStop(t *testing.T) {
	m := NewManager(context.Background())
	started := make(chan struct{})
	exited := make(chan struct{})
	run := func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(exited)
	}

	assert.True(t, m.Start("loop", run))
	<-started
	assert.True(t, m.Running("loop"))
	assert.False(t, m.Start("loop", run), "second start is a no-op")

	assert.True(t, m.Stop("loop"))
	select {
	case <-exited:
	default:
		t.Fatal("Stop returned before the loop exited")
	}
	assert.False(t, m.Running("loop"))
	assert.False(t, m.Stop("loop"))
}

func TestManagerLoopExitsOnItsOwn(t *testing.T) {
	m := NewManager(context.Background())
	m.Start("once", func(context.Context) {})
	assert.Eventually(t, func() bool { return !m.Running("once") }, time.Second, 5*time.Millisecond)
	assert.True(t, m.Start("once", func(context.Context) {}))
}

func TestManagerStopAll(t *testing.T) {
	m := NewManager(context.Background())
	block := func(ctx context.Context) { <-ctx.Done() }
	m.Start("a", block)
	m.Start("b", block)
	m.StopAll()
	assert.False(t, m.Running("a"))
	assert.False(t, m.Running("b"))
}
