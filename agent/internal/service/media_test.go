package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/jpeg"
	"io"
	"testing"
	"time"

	"sagiri-relay/agent/internal/state"
	"sagiri-relay/network"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func TestFitKeepsAspectRatio(t *testing.T) {
	cases := []struct {
		w, h, wantW, wantH int
	}{
		{3840, 2160, 1920, 1080},
		{1000, 3000, 360, 1080},
		{800, 600, 800, 600},
		{4000, 1000, 1920, 480},
	}
	for _, tc := range cases {
		img := fit(image.NewRGBA(image.Rect(0, 0, tc.w, tc.h)), 1920, 1080)
		assert.Equal(t, tc.wantW, img.Bounds().Dx(), "%dx%d", tc.w, tc.h)
		assert.Equal(t, tc.wantH, img.Bounds().Dy(), "%dx%d", tc.w, tc.h)
	}
}

func TestEncodeFrame(t *testing.T) {
	shot, err := PatternCapturer{Width: 400, Height: 200}.Capture(context.Background())
	require.NoError(t, err)
	shot.CursorX, shot.CursorY = 390, 10

	frame, err := encodeFrame(shot, 70, 200, 200)
	require.NoError(t, err)
	assert.Equal(t, 200, frame.Width)
	assert.Equal(t, 100, frame.Height)
	assert.Equal(t, 400, frame.ScreenWidth)
	assert.Equal(t, 200, frame.ScreenHeight)
	assert.Equal(t, 390, frame.CursorX)

	raw, err := base64.StdEncoding.DecodeString(frame.Image)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 200, 100), img.Bounds())
}

func TestPointerArgs(t *testing.T) {
	res, err := pointerArgs(network.PointerRequest{Action: "move", X: intp(10), Y: intp(20)})
	require.NoError(t, err)
	assert.Equal(t, Result{"status": "success", "action": "move", "x": 10, "y": 20}, res)

	res, err = pointerArgs(network.PointerRequest{Action: "click"})
	require.NoError(t, err)
	assert.Equal(t, "left", res["button"])

	res, err = pointerArgs(network.PointerRequest{Action: "scroll", Y: intp(-3)})
	require.NoError(t, err)
	assert.Equal(t, -3, res["amount"])

	_, err = pointerArgs(network.PointerRequest{Action: "move", X: intp(1)})
	assert.Error(t, err)
	_, err = pointerArgs(network.PointerRequest{Action: "click", Button: "middle"})
	assert.Error(t, err)
	_, err = pointerArgs(network.PointerRequest{Action: "drag"})
	assert.Error(t, err)
}

func TestScreenLoopPublishesAndServesPointer(t *testing.T) {
	relay := newFakeRelay()
	relay.pointer = &network.PointerRequest{Action: "click", Button: "right"}
	a := New(Options{
		DeviceID:    "dev-1",
		Relay:       relay,
		Capturer:    PatternCapturer{Width: 64, Height: 32},
		ScreenState: state.NewScreen(50, 10*time.Millisecond),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.runScreen(ctx)
		close(done)
	}()
	assert.Eventually(t, func() bool {
		relay.mu.Lock()
		defer relay.mu.Unlock()
		return len(relay.frames) >= 3
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	relay.mu.Lock()
	defer relay.mu.Unlock()
	require.Len(t, relay.pointerRes, 1, "a pointer request is applied once")
	assert.Equal(t, Result{"status": "success", "action": "click", "button": "right"}, relay.pointerRes[0])
	assert.Equal(t, 64, relay.frames[0].Width)
}

func TestKeyboardResults(t *testing.T) {
	relay := newFakeRelay()
	relay.keyboard = []network.KeyboardRequest{
		{ID: "k1", Kind: "text", Payload: "hello"},
		{ID: "k2", Kind: "shortcut", Payload: "ctrl+c"},
		{ID: "k3", Kind: "chord", Payload: "x"},
	}
	keys := &recordingKeys{}
	a := New(Options{DeviceID: "dev-1", Relay: relay, Keys: keys})

	a.pollKeyboard(context.Background())
	assert.Equal(t, []string{"hello"}, keys.typed)
	assert.Equal(t, Result{"status": "success", "kind": "text"}, relay.keyRes["k1"])
	assert.Equal(t, "error", relay.keyRes["k2"].(Result)["status"])
	assert.Equal(t, "error", relay.keyRes["k3"].(Result)["status"])
}

func TestMicrophoneChunks(t *testing.T) {
	relay := newFakeRelay()
	audio := &state.Audio{}
	audio.SetMicrophone(true)
	a := New(Options{
		DeviceID:   "dev-1",
		Relay:      relay,
		Mic:        readerSource{bytes.NewReader(make([]byte, 10000))},
		Audio:      AudioOptions{ChunkBytes: 4096},
		AudioState: audio,
	})

	a.runMicrophone(context.Background())
	require.Len(t, relay.pushed, 3)
	assert.Equal(t, "pcm", relay.pushed[0].Format)
	assert.Equal(t, 48000, relay.pushed[0].Rate)
	assert.Equal(t, 1, relay.pushed[0].Channels)
	last, err := base64.StdEncoding.DecodeString(relay.pushed[2].Payload)
	require.NoError(t, err)
	assert.Len(t, last, 10000-2*4096)
	assert.False(t, audio.Microphone(), "flag cleared when the source ends")
}

func TestSpeakerPlaysQueuedChunks(t *testing.T) {
	relay := newFakeRelay()
	relay.speaker = []network.AudioChunk{
		{Payload: base64.StdEncoding.EncodeToString([]byte("abc"))},
		{Payload: "%%%"},
		{Payload: base64.StdEncoding.EncodeToString([]byte("defg"))},
	}
	sink := &bufferSink{}
	a := New(Options{DeviceID: "dev-1", Relay: relay, Speaker: sink, Audio: AudioOptions{PollInterval: time.Millisecond}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.runSpeaker(ctx)
		close(done)
	}()
	assert.Eventually(t, func() bool { return sink.Len() == 7 }, time.Second, time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, "abcdefg", sink.buf.String())
}

func TestSilencePlayTime(t *testing.T) {
	const mono16 = 48000 * 2
	assert.Equal(t, time.Second, playTime(mono16, mono16))
	assert.Equal(t, 50*time.Millisecond, playTime(4800, mono16))

	// 30 hours of audio stays positive and in range
	long := int64(30*3600) * mono16
	assert.Equal(t, 30*time.Hour, playTime(long, mono16).Round(time.Second))
}

func TestSilenceSourceStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rc, err := SilenceSource{Rate: 8000}.Open(ctx)
	require.NoError(t, err)
	defer rc.Close()

	buf := []byte{1, 2, 3, 4}
	n, err := rc.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte{0, 0, 0, 0}, buf)

	cancel()
	_, err = rc.Read(buf)
	assert.ErrorIs(t, err, io.EOF)
}
