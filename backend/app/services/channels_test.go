package services

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"sagiri-relay/backend/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScreenService_LatestWins(t *testing.T) {
	clk := newFakeClock()
	s := NewScreenService(clk)

	_, err := s.Latest("dev")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Publish("dev", models.ScreenFrame{Image: "frame-1", Width: 10, Height: 10})
	require.NoError(t, err)
	clk.Advance(time.Second)
	_, err = s.Publish("dev", models.ScreenFrame{Image: "frame-2", Width: 10, Height: 10, CursorX: 3, CursorY: 4})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		f, err := s.Latest("dev")
		require.NoError(t, err)
		assert.Equal(t, "frame-2", f.Image, "read is non-destructive and never goes back")
		assert.Equal(t, 3, f.CursorX)
		assert.Equal(t, clk.Now(), f.UpdatedAt)
	}
	assert.Equal(t, []string{"dev"}, s.Devices())
}

func TestScreenService_Validation(t *testing.T) {
	s := NewScreenService(newFakeClock())
	_, err := s.Publish("", models.ScreenFrame{Image: "x"})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = s.Publish("dev", models.ScreenFrame{})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestPointerService_Overwrite(t *testing.T) {
	clk := newFakeClock()
	screens := NewScreenService(clk)
	_, err := screens.Publish("dev", models.ScreenFrame{Image: "f"})
	require.NoError(t, err)
	s := NewPointerService(clk, screens)

	replaced, err := s.Request("dev", models.PointerRequest{Action: models.PointerMove, X: intp(1), Y: intp(1)})
	require.NoError(t, err)
	assert.False(t, replaced)
	replaced, err = s.Request("dev", models.PointerRequest{Action: models.PointerClick, Button: "right"})
	require.NoError(t, err)
	assert.True(t, replaced)

	got, ok := s.ConsumeRequest("dev")
	require.True(t, ok)
	assert.Equal(t, models.PointerClick, got.Action)
	assert.Equal(t, "right", got.Button)

	_, ok = s.ConsumeRequest("dev")
	assert.False(t, ok, "the first request is unrecoverable")
}

func TestPointerService_RequiresKnownDevice(t *testing.T) {
	clk := newFakeClock()
	s := NewPointerService(clk, NewScreenService(clk))
	_, err := s.Request("ghost", models.PointerRequest{Action: models.PointerClick})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPointerService_Validation(t *testing.T) {
	clk := newFakeClock()
	screens := NewScreenService(clk)
	screens.Publish("dev", models.ScreenFrame{Image: "f"})
	s := NewPointerService(clk, screens)

	_, err := s.Request("dev", models.PointerRequest{Action: "teleport"})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = s.Request("dev", models.PointerRequest{Action: models.PointerMove, X: intp(1)})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = s.Request("dev", models.PointerRequest{Action: models.PointerClick})
	require.NoError(t, err)
	got, _ := s.ConsumeRequest("dev")
	assert.Equal(t, "left", got.Button)
}

func TestPointerService_ResultsAreOneShot(t *testing.T) {
	clk := newFakeClock()
	s := NewPointerService(clk, NewScreenService(clk))

	_, ok := s.ConsumeResult("dev")
	assert.False(t, ok)

	require.NoError(t, s.ReportResult("dev", json.RawMessage(`{"status":"success","action":"move"}`)))
	require.NoError(t, s.ReportResult("dev", json.RawMessage(`{"status":"success","action":"click"}`)))
	res, ok := s.ConsumeResult("dev")
	require.True(t, ok)
	assert.JSONEq(t, `{"status":"success","action":"click"}`, string(res.Result))
	_, ok = s.ConsumeResult("dev")
	assert.False(t, ok)

	assert.ErrorIs(t, s.ReportResult("dev", json.RawMessage(`not json`)), ErrInvalid)
}

func TestKeyboardService_QueueNonLoss(t *testing.T) {
	s := NewKeyboardService(newFakeClock(), NewRetention(time.Hour), 0)
	k1, err := s.Request("dev", models.KeyboardText, "hello")
	require.NoError(t, err)
	k2, err := s.Request("dev", models.KeyboardShortcut, "ctrl+c")
	require.NoError(t, err)
	other, err := s.Request("other", models.KeyboardText, "x")
	require.NoError(t, err)

	got := s.Pending("dev")
	require.Len(t, got, 2)
	assert.Equal(t, k1.ID, got[0].ID)
	assert.Equal(t, k2.ID, got[1].ID)
	for _, r := range got {
		assert.Equal(t, models.KeyboardProcessing, r.Status)
	}
	assert.Empty(t, s.Pending("dev"), "polling takes the requests")

	_, done, err := s.FetchResult(k1.ID)
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, s.ReportResult(k2.ID, json.RawMessage(`{"status":"success"}`)))
	require.NoError(t, s.ReportResult(k1.ID, json.RawMessage(`{"status":"error","message":"no display"}`)))
	assert.ErrorIs(t, s.ReportResult(k1.ID, json.RawMessage(`{}`)), ErrAlreadyCompleted)

	r1, done, err := s.FetchResult(k1.ID)
	require.NoError(t, err)
	require.True(t, done)
	assert.JSONEq(t, `{"status":"error","message":"no display"}`, string(r1.Result))
	_, _, err = s.FetchResult(k1.ID)
	assert.ErrorIs(t, err, ErrNotFound, "a fetched result is consumed")

	r2, done, err := s.FetchResult(k2.ID)
	require.NoError(t, err)
	assert.True(t, done)
	assert.JSONEq(t, `{"status":"success"}`, string(r2.Result))

	assert.Len(t, s.Pending("other"), 1)
	assert.Equal(t, "other", other.DeviceID)
}

func TestKeyboardService_Validation(t *testing.T) {
	s := NewKeyboardService(newFakeClock(), NewRetention(time.Hour), 0)
	_, err := s.Request("", models.KeyboardText, "a")
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = s.Request("dev", "chord", "a")
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = s.Request("dev", models.KeyboardText, "")
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorIs(t, s.ReportResult("nope", json.RawMessage(`{}`)), ErrNotFound)
	_, _, err = s.FetchResult("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKeyboardService_Bounded(t *testing.T) {
	s := NewKeyboardService(newFakeClock(), NewRetention(time.Hour), 1)
	k1, err := s.Request("dev", models.KeyboardText, "a")
	require.NoError(t, err)
	_, err = s.Request("dev", models.KeyboardText, "b")
	assert.ErrorIs(t, err, ErrFull)

	s.Pending("dev")
	require.NoError(t, s.ReportResult(k1.ID, json.RawMessage(`{}`)))
	_, err = s.Request("dev", models.KeyboardText, "b")
	require.NoError(t, err)
}

func TestAudioService_BoundedFIFO(t *testing.T) {
	const capacity = 5
	s := NewAudioService(newFakeClock(), capacity, capacity)

	dropped := 0
	for i := 1; i <= capacity+1; i++ {
		n, err := s.Push("dev", models.AudioMicrophone, models.AudioChunk{Payload: fmt.Sprintf("chunk-%d", i), Format: "pcm", Rate: 48000, Channels: 1})
		require.NoError(t, err)
		dropped += n
	}
	assert.Equal(t, 1, dropped)

	for i := 2; i <= capacity+1; i++ {
		c, ok, err := s.Pop("dev", models.AudioMicrophone)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("chunk-%d", i), c.Payload)
	}
	_, ok, err := s.Pop("dev", models.AudioMicrophone)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAudioService_DirectionsAreIndependent(t *testing.T) {
	s := NewAudioService(newFakeClock(), 2, 3)
	assert.Equal(t, 2, s.Capacity(models.AudioMicrophone))
	assert.Equal(t, 3, s.Capacity(models.AudioSpeaker))

	_, err := s.Push("dev", models.AudioSpeaker, models.AudioChunk{Payload: "to-agent"})
	require.NoError(t, err)

	_, ok, _ := s.Pop("dev", models.AudioMicrophone)
	assert.False(t, ok)
	c, ok, _ := s.Pop("dev", models.AudioSpeaker)
	require.True(t, ok)
	assert.Equal(t, "to-agent", c.Payload)
	assert.Equal(t, models.AudioSpeaker, c.Direction)

	_, err = s.Push("dev", "sideways", models.AudioChunk{Payload: "x"})
	assert.ErrorIs(t, err, ErrInvalid)
	_, _, err = s.Pop("dev", "sideways")
	assert.ErrorIs(t, err, ErrInvalid)
}
