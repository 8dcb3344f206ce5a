package service

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"sagiri-relay/agent/internal/command"
	"sagiri-relay/agent/internal/db"
	"sagiri-relay/agent/internal/logger"
	"sagiri-relay/agent/internal/state"
	"sagiri-relay/network"

	"golang.org/x/sync/errgroup"
)

// Relay is the part of the relay client the agent talks to.
type Relay interface {
	command.FileClient
	PendingCommands(ctx context.Context) ([]network.Command, error)
	CompleteCommand(ctx context.Context, id string, output network.CommandOutput) error
	PublishScreen(ctx context.Context, deviceID string, frame network.ScreenFrame) error
	PollPointer(ctx context.Context, deviceID string) (*network.PointerRequest, error)
	ReportPointerResult(ctx context.Context, deviceID string, result interface{}) error
	PendingKeyboard(ctx context.Context, deviceID string) ([]network.KeyboardRequest, error)
	ReportKeyboardResult(ctx context.Context, id string, result interface{}) error
	PushAudio(ctx context.Context, deviceID string, dir network.AudioDirection, chunk network.AudioChunk) (int, error)
	PopAudio(ctx context.Context, deviceID string, dir network.AudioDirection) (*network.AudioChunk, error)
}

type ScreenOptions struct {
	MaxWidth  int
	MaxHeight int
	AutoStart bool
}

type AudioOptions struct {
	Rate         int
	Channels     int
	ChunkBytes   int
	PollInterval time.Duration
}

type Options struct {
	DeviceID        string
	CommandInterval time.Duration
	KeyInterval     time.Duration
	Screen          ScreenOptions
	Audio           AudioOptions

	Relay    Relay
	Ledger   *db.Ledger
	Capturer Capturer
	Pointer  PointerInjector
	Keys     KeyInjector
	Mic      AudioSource
	Speaker  AudioSink

	ScreenState *state.Screen
	AudioState  *state.Audio
}

// Agent runs the polling loops for one device.
type Agent struct {
	opts       Options
	dispatcher *command.Dispatcher
	streams    *command.Manager
}

func New(opts Options) *Agent {
	if opts.CommandInterval <= 0 {
		opts.CommandInterval = 2 * time.Second
	}
	if opts.KeyInterval <= 0 {
		opts.KeyInterval = 500 * time.Millisecond
	}
	if opts.Screen.MaxWidth <= 0 {
		opts.Screen.MaxWidth = 1920
	}
	if opts.Screen.MaxHeight <= 0 {
		opts.Screen.MaxHeight = 1080
	}
	if opts.Audio.Rate <= 0 {
		opts.Audio.Rate = 48000
	}
	if opts.Audio.Channels <= 0 {
		opts.Audio.Channels = 1
	}
	if opts.Audio.ChunkBytes <= 0 {
		opts.Audio.ChunkBytes = 4096
	}
	if opts.Audio.PollInterval <= 0 {
		opts.Audio.PollInterval = 50 * time.Millisecond
	}
	if opts.ScreenState == nil {
		opts.ScreenState = state.NewScreen(70, 500*time.Millisecond)
	}
	if opts.AudioState == nil {
		opts.AudioState = &state.Audio{}
	}
	if opts.Capturer == nil {
		opts.Capturer = PatternCapturer{}
	}
	if opts.Pointer == nil || opts.Keys == nil {
		inj := LogInjector{}
		if opts.Pointer == nil {
			opts.Pointer = inj
		}
		if opts.Keys == nil {
			opts.Keys = inj
		}
	}
	if opts.Mic == nil {
		opts.Mic = SilenceSource{Rate: opts.Audio.Rate, Channels: opts.Audio.Channels}
	}
	if opts.Speaker == nil {
		opts.Speaker = DiscardSink{}
	}
	a := &Agent{opts: opts, dispatcher: command.NewDispatcher(), streams: command.NewManager(context.Background())}
	a.register()
	return a
}

// Dispatcher exposes the command table, mostly for tests.
func (a *Agent) Dispatcher() *command.Dispatcher { return a.dispatcher }

// Streams reports which optional loops are running.
func (a *Agent) Streams() *command.Manager { return a.streams }

func (a *Agent) register() {
	o := a.opts
	a.dispatcher.Register("download", command.DownloadHandler{Files: o.Relay})
	a.dispatcher.Register("upload", command.UploadHandler{Files: o.Relay})
	a.dispatcher.Register("listfiles", command.ListFilesHandler{Files: o.Relay})
	a.dispatcher.Register("screen", command.ScreenHandler{
		Streams:  a.streams,
		Screen:   o.ScreenState,
		Run:      a.runScreen,
		DeviceID: o.DeviceID,
	})
	a.dispatcher.Register("audio", command.AudioHandler{
		Streams:    a.streams,
		Audio:      o.AudioState,
		Microphone: a.runMicrophone,
		Speaker:    a.runSpeaker,
	})
}

// Run blocks until ctx is cancelled. The command and keyboard loops always
// run; screen and audio run while a command has them started.
func (a *Agent) Run(ctx context.Context) error {
	defer a.streams.StopAll()

	if a.opts.Screen.AutoStart {
		a.dispatcher.Execute(ctx, "!screen start")
	}

	g, gctx := errgroup.WithContext(ctx)
	goSafe(gctx, g, "command loop", a.runCommands)
	goSafe(gctx, g, "keyboard loop", a.runKeyboard)
	logger.Infof("agent %s polling every %s", a.opts.DeviceID, a.opts.CommandInterval)
	return g.Wait()
}

// goSafe runs fn in the group and restarts it with backoff when it panics.
func goSafe(ctx context.Context, g *errgroup.Group, name string, fn func(context.Context) error) {
	g.Go(func() (err error) {
		backoff := 200 * time.Millisecond
		const maxBackoff = 30 * time.Second
		for {
			if ctx.Err() != nil {
				return nil
			}
			var recovered any
			func() {
				defer func() { recovered = recover() }()
				err = fn(ctx)
			}()
			if recovered == nil {
				return err
			}
			// logger may be what panicked
			fmt.Fprintf(os.Stderr, "WARN: %s panicked: %v\n%s\n", name, recovered, debug.Stack())
			if !sleep(ctx, backoff) {
				return nil
			}
			backoff = min(backoff*2, maxBackoff)
		}
	})
}

// sleep waits d or until ctx ends; it reports whether the loop should go on.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
