package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sagiri-relay/agent/internal/state"
)

const (
	StreamScreen     = "screen sharing"
	StreamMicrophone = "microphone streaming"
	StreamSpeaker    = "speaker streaming"

	minQuality  = 10
	maxQuality  = 100
	minInterval = 100 * time.Millisecond
	maxInterval = 5 * time.Second
)

// ScreenHandler implements "!screen start|stop|status|quality=N|interval=S".
type ScreenHandler struct {
	Streams  *Manager
	Screen   *state.Screen
	Run      func(ctx context.Context)
	DeviceID string
}

func (ScreenHandler) Usage() string { return "!screen start|stop|status|quality=N|interval=S" }

func (h ScreenHandler) Handle(_ context.Context, args []string) Output {
	action := "status"
	if len(args) > 0 {
		action = strings.ToLower(args[0])
	}
	switch {
	case action == "start":
		h.Screen.SetActive(true)
		if !h.Streams.Start(StreamScreen, h.Run) {
			return stdoutf("Screen sharing already active")
		}
		return stdoutf("Screen sharing started")
	case action == "stop":
		h.Screen.SetActive(false)
		if !h.Streams.Stop(StreamScreen) {
			return stdoutf("Screen sharing not active")
		}
		return stdoutf("Screen sharing stopped")
	case action == "status":
		status := "inactive"
		if h.Streams.Running(StreamScreen) {
			status = "active"
		}
		return stdoutf("Screen sharing: %s\nDevice ID: %s\nQuality: %d\nInterval: %s",
			status, h.DeviceID, h.Screen.Quality(), h.Screen.Interval())
	case strings.HasPrefix(action, "quality="):
		q, err := strconv.Atoi(strings.TrimPrefix(action, "quality="))
		if err != nil || q < minQuality || q > maxQuality {
			return stderrf("Invalid quality value. Must be between %d and %d", minQuality, maxQuality)
		}
		h.Screen.SetQuality(q)
		return stdoutf("Screen quality set to %d", q)
	case strings.HasPrefix(action, "interval="):
		d, err := parseSeconds(strings.TrimPrefix(action, "interval="))
		if err != nil || d < minInterval || d > maxInterval {
			return stderrf("Invalid interval value. Must be between %s and %s", minInterval, maxInterval)
		}
		h.Screen.SetInterval(d)
		return stdoutf("Screen capture interval set to %s", d)
	}
	return stderrf("Unknown screen command. Available: start, stop, status, quality=N, interval=N")
}

// parseSeconds accepts "0.5" (seconds) as well as Go durations ("500ms").
func parseSeconds(s string) (time.Duration, error) {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(f * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}

// AudioHandler implements "!audio start|stop|status [microphone|speaker]".
// Without a direction both are affected.
type AudioHandler struct {
	Streams    *Manager
	Audio      *state.Audio
	Microphone func(ctx context.Context)
	Speaker    func(ctx context.Context)
}

func (AudioHandler) Usage() string { return "!audio start|stop|status [microphone|speaker]" }

func (h AudioHandler) Handle(_ context.Context, args []string) Output {
	action := "status"
	if len(args) > 0 {
		action = strings.ToLower(args[0])
	}
	streams := []struct {
		dir  string
		name string
		run  func(ctx context.Context)
		set  func(bool) bool
	}{
		{"microphone", StreamMicrophone, h.Microphone, h.Audio.SetMicrophone},
		{"speaker", StreamSpeaker, h.Speaker, h.Audio.SetSpeaker},
	}
	if len(args) > 1 {
		dir := strings.ToLower(args[1])
		if dir != "microphone" && dir != "speaker" {
			return stderrf("Unknown audio direction %q. Use microphone or speaker", args[1])
		}
		for _, s := range streams {
			if s.dir == dir {
				streams = append(streams[:0], s)
				break
			}
		}
	}

	var b strings.Builder
	for _, s := range streams {
		switch action {
		case "start":
			s.set(true)
			if h.Streams.Start(s.name, s.run) {
				fmt.Fprintf(&b, "%s started\n", capitalize(s.name))
			} else {
				fmt.Fprintf(&b, "%s already active\n", capitalize(s.name))
			}
		case "stop":
			s.set(false)
			if h.Streams.Stop(s.name) {
				fmt.Fprintf(&b, "%s stopped\n", capitalize(s.name))
			} else {
				fmt.Fprintf(&b, "%s not active\n", capitalize(s.name))
			}
		case "status":
			status := "inactive"
			if h.Streams.Running(s.name) {
				status = "active"
			}
			fmt.Fprintf(&b, "%s: %s\n", capitalize(s.name), status)
		default:
			return stderrf("Unknown audio command. Available: start, stop, status")
		}
	}
	return Output{Stdout: b.String()}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
