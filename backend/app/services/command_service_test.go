package services

import (
	"sync"
	"testing"
	"time"

	"sagiri-relay/backend/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandService_Liveness(t *testing.T) {
	clk := newFakeClock()
	s := NewCommandService(clk, NewRetention(time.Hour), 0)

	cmd, err := s.Submit("uname -a", "")
	require.NoError(t, err)
	assert.Equal(t, models.CommandPending, cmd.Status)

	// Pending commands stay visible until completed.
	for i := 0; i < 3; i++ {
		pending := s.Pending("dev-1")
		require.Len(t, pending, 1)
		assert.Equal(t, cmd.ID, pending[0].ID)
	}

	out := models.CommandOutput{Stdout: "Linux\n", ReturnCode: 0}
	_, err = s.Complete(cmd.ID, out)
	require.NoError(t, err)

	got, err := s.Status(cmd.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommandCompleted, got.Status)
	require.NotNil(t, got.Output)
	assert.Equal(t, out, *got.Output)
	assert.Empty(t, s.Pending("dev-1"))
}

func TestCommandService_CompletionIsTerminal(t *testing.T) {
	s := NewCommandService(newFakeClock(), NewRetention(time.Hour), 0)
	cmd, err := s.Submit("ls", "")
	require.NoError(t, err)

	_, err = s.Complete(cmd.ID, models.CommandOutput{Stdout: "first"})
	require.NoError(t, err)
	_, err = s.Complete(cmd.ID, models.CommandOutput{Stdout: "second"})
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	got, _ := s.Status(cmd.ID)
	assert.Equal(t, "first", got.Output.Stdout)
}

func TestCommandService_UnknownID(t *testing.T) {
	s := NewCommandService(newFakeClock(), NewRetention(time.Hour), 0)
	_, err := s.Complete("nope", models.CommandOutput{})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Status("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommandService_RejectsEmpty(t *testing.T) {
	s := NewCommandService(newFakeClock(), NewRetention(time.Hour), 0)
	_, err := s.Submit("   ", "")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestCommandService_TargetedCommands(t *testing.T) {
	s := NewCommandService(newFakeClock(), NewRetention(time.Hour), 0)
	anyAgent, _ := s.Submit("hostname", "")
	onlyA, _ := s.Submit("whoami", "dev-a")

	ids := func(cmds []models.Command) []string {
		var out []string
		for _, c := range cmds {
			out = append(out, c.ID)
		}
		return out
	}
	assert.Equal(t, []string{anyAgent.ID, onlyA.ID}, ids(s.Pending("dev-a")))
	assert.Equal(t, []string{anyAgent.ID}, ids(s.Pending("dev-b")))
	assert.Len(t, s.Pending(""), 2)
}

func TestCommandService_PendingInSubmissionOrder(t *testing.T) {
	s := NewCommandService(newFakeClock(), NewRetention(time.Hour), 0)
	var want []string
	for i := 0; i < 20; i++ {
		c, err := s.Submit("echo", "")
		require.NoError(t, err)
		want = append(want, c.ID)
	}
	var got []string
	for _, c := range s.Pending("") {
		got = append(got, c.ID)
	}
	assert.Equal(t, want, got)
}

func TestCommandService_IDsUniqueUnderConcurrency(t *testing.T) {
	s := NewCommandService(newFakeClock(), NewRetention(time.Hour), 0)
	var mu sync.Mutex
	seen := map[string]bool{}
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				c, err := s.Submit("true", "")
				assert.NoError(t, err)
				mu.Lock()
				seen[c.ID] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 400)
	assert.Equal(t, 400, s.Len())
}

func TestCommandService_BoundedWithPruneOnWrite(t *testing.T) {
	clk := newFakeClock()
	s := NewCommandService(clk, NewRetention(time.Hour), 2)

	a, err := s.Submit("a", "")
	require.NoError(t, err)
	_, err = s.Submit("b", "")
	require.NoError(t, err)

	_, err = s.Submit("c", "")
	assert.ErrorIs(t, err, ErrFull, "pending commands are never dropped for room")

	_, err = s.Complete(a.ID, models.CommandOutput{})
	require.NoError(t, err)
	_, err = s.Submit("c", "")
	require.NoError(t, err, "oldest completed command makes room")
	_, err = s.Status(a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	clk.Advance(2 * time.Hour)
	_, err = s.Submit("d", "")
	require.NoError(t, err, "expired entries are pruned on write")
	assert.Equal(t, 1, s.Len())
}

func TestCommandService_SetScreenQuality(t *testing.T) {
	s := NewCommandService(newFakeClock(), NewRetention(time.Hour), 0)
	cmd, err := s.SetScreenQuality("dev-1", 55)
	require.NoError(t, err)
	assert.Equal(t, "!screen quality=55", cmd.Text)
	assert.Equal(t, "dev-1", cmd.DeviceID)

	_, err = s.SetScreenQuality("dev-1", 5)
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = s.SetScreenQuality("", 50)
	assert.ErrorIs(t, err, ErrInvalid)
}
