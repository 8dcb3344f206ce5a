package service

import (
	"context"
	"io"
	"os/exec"
	"runtime"
	"time"
)

// AudioSource yields raw PCM from the microphone until ctx ends.
type AudioSource interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// AudioSink plays raw PCM until ctx ends.
type AudioSink interface {
	Open(ctx context.Context) (io.WriteCloser, error)
}

func shellCommand(ctx context.Context, line string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", line)
	}
	return exec.CommandContext(ctx, "/bin/sh", "-c", line)
}

// CommandSource reads PCM from a recorder's stdout, e.g.
// "arecord -q -f S16_LE -r 48000 -c 1 -t raw".
type CommandSource struct{ Command string }

type cmdReader struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (r cmdReader) Close() error {
	r.ReadCloser.Close()
	return r.cmd.Wait()
}

func (s CommandSource) Open(ctx context.Context) (io.ReadCloser, error) {
	cmd := shellCommand(ctx, s.Command)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmdReader{ReadCloser: out, cmd: cmd}, nil
}

// CommandSink writes PCM to a player's stdin, e.g.
// "aplay -q -f S16_LE -r 48000 -c 1 -t raw".
type CommandSink struct{ Command string }

type cmdWriter struct {
	io.WriteCloser
	cmd *exec.Cmd
}

func (w cmdWriter) Close() error {
	w.WriteCloser.Close()
	return w.cmd.Wait()
}

func (s CommandSink) Open(ctx context.Context) (io.WriteCloser, error) {
	cmd := shellCommand(ctx, s.Command)
	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmdWriter{WriteCloser: in, cmd: cmd}, nil
}

// SilenceSource produces zeroed 16-bit PCM in real time.
type SilenceSource struct {
	Rate     int
	Channels int
}

type silence struct {
	ctx         context.Context
	bytesPerSec int
	started     time.Time
	sent        int64
}

func (s SilenceSource) Open(ctx context.Context) (io.ReadCloser, error) {
	rate, ch := s.Rate, s.Channels
	if rate <= 0 {
		rate = 48000
	}
	if ch <= 0 {
		ch = 1
	}
	return &silence{ctx: ctx, bytesPerSec: rate * ch * 2, started: time.Now()}, nil
}

func (s *silence) Read(p []byte) (int, error) {
	if err := s.ctx.Err(); err != nil {
		return 0, io.EOF
	}
	// pace to wall time so pushes look like a real microphone
	due := s.started.Add(playTime(s.sent+int64(len(p)), s.bytesPerSec))
	select {
	case <-s.ctx.Done():
		return 0, io.EOF
	case <-time.After(time.Until(due)):
	}
	clear(p)
	s.sent += int64(len(p))
	return len(p), nil
}

// playTime is how long n bytes last at bytesPerSec. Float math keeps it
// from overflowing on long-running streams.
func playTime(n int64, bytesPerSec int) time.Duration {
	return time.Duration(float64(n) / float64(bytesPerSec) * float64(time.Second))
}

func (s *silence) Close() error { return nil }

// DiscardSink drops everything it is given.
type DiscardSink struct{}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func (DiscardSink) Open(context.Context) (io.WriteCloser, error) {
	return nopWriteCloser{io.Discard}, nil
}
