package service

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"sagiri-relay/agent/internal/logger"
	"sagiri-relay/network"
)

// Result is reported back to the relay verbatim.
type Result map[string]interface{}

func errorResult(err error) Result {
	return Result{"status": "error", "message": err.Error()}
}

// PointerInjector performs a pointer request on the local display.
type PointerInjector interface {
	Pointer(ctx context.Context, req network.PointerRequest) (Result, error)
}

// KeyInjector types text or presses a shortcut such as "ctrl+c".
type KeyInjector interface {
	Type(ctx context.Context, text string) error
	Shortcut(ctx context.Context, keys string) error
}

// NewInjector picks an injector by name: "xdotool", "log", or "auto"
// (xdotool when it is on PATH).
func NewInjector(name string) interface {
	PointerInjector
	KeyInjector
} {
	switch name {
	case "xdotool":
		return XdotoolInjector{}
	case "log":
		return LogInjector{}
	}
	if _, err := exec.LookPath("xdotool"); err == nil {
		return XdotoolInjector{}
	}
	logger.Warn("xdotool not found, input requests will only be logged")
	return LogInjector{}
}

// pointerArgs validates req and describes it as the result to report.
func pointerArgs(req network.PointerRequest) (Result, error) {
	switch req.Action {
	case "move":
		if req.X == nil || req.Y == nil {
			return nil, fmt.Errorf("move needs x and y")
		}
		return Result{"status": "success", "action": "move", "x": *req.X, "y": *req.Y}, nil
	case "click":
		button := req.Button
		if button == "" {
			button = "left"
		}
		switch button {
		case "left", "right", "double":
		default:
			return nil, fmt.Errorf("unknown button %q", button)
		}
		return Result{"status": "success", "action": "click", "button": button}, nil
	case "scroll":
		amount := 0
		if req.Y != nil {
			amount = *req.Y
		}
		return Result{"status": "success", "action": "scroll", "amount": amount}, nil
	}
	return nil, fmt.Errorf("invalid mouse action %q", req.Action)
}

// XdotoolInjector drives X11 through the xdotool binary.
type XdotoolInjector struct{}

func (XdotoolInjector) run(ctx context.Context, args ...string) error {
	out, err := exec.CommandContext(ctx, "xdotool", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("xdotool %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (x XdotoolInjector) Pointer(ctx context.Context, req network.PointerRequest) (Result, error) {
	res, err := pointerArgs(req)
	if err != nil {
		return nil, err
	}
	switch req.Action {
	case "move":
		err = x.run(ctx, "mousemove", strconv.Itoa(*req.X), strconv.Itoa(*req.Y))
	case "click":
		switch res["button"] {
		case "right":
			err = x.run(ctx, "click", "3")
		case "double":
			err = x.run(ctx, "click", "--repeat", "2", "1")
		default:
			err = x.run(ctx, "click", "1")
		}
	case "scroll":
		// positive amount scrolls down (button 5), negative up (button 4)
		amount := res["amount"].(int)
		button := "5"
		if amount < 0 {
			button, amount = "4", -amount
		}
		if amount > 0 {
			err = x.run(ctx, "click", "--repeat", strconv.Itoa(amount), button)
		}
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (x XdotoolInjector) Type(ctx context.Context, text string) error {
	return x.run(ctx, "type", "--", text)
}

func (x XdotoolInjector) Shortcut(ctx context.Context, keys string) error {
	return x.run(ctx, "key", "--", keys)
}

// LogInjector only logs what it was asked to do.
type LogInjector struct{}

func (LogInjector) Pointer(_ context.Context, req network.PointerRequest) (Result, error) {
	res, err := pointerArgs(req)
	if err != nil {
		return nil, err
	}
	logger.Infof("pointer %v", res)
	return res, nil
}

func (LogInjector) Type(_ context.Context, text string) error {
	logger.Infof("type %d chars", len(text))
	return nil
}

func (LogInjector) Shortcut(_ context.Context, keys string) error {
	logger.Infof("shortcut %s", keys)
	return nil
}
