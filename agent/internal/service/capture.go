package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os/exec"
	"runtime"
	"time"
)

// Screenshot is one capture. Cursor is in screen coordinates.
type Screenshot struct {
	Image   image.Image
	CursorX int
	CursorY int
}

// Capturer grabs the current screen.
type Capturer interface {
	Capture(ctx context.Context) (Screenshot, error)
}

// CommandCapturer runs a shell command that writes a PNG or JPEG to stdout,
// e.g. "grim -" or "import -window root png:-".
type CommandCapturer struct {
	Command string
	// Cursor optionally reports the pointer position.
	Cursor func(ctx context.Context) (x, y int, err error)
}

func (c CommandCapturer) Capture(ctx context.Context) (Screenshot, error) {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", c.Command)
	} else {
		cmd = exec.CommandContext(ctx, "/bin/sh", "-c", c.Command)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return Screenshot{}, fmt.Errorf("capture %q: %w: %s", c.Command, err, bytes.TrimSpace(stderr.Bytes()))
	}
	img, _, err := image.Decode(&stdout)
	if err != nil {
		return Screenshot{}, fmt.Errorf("decode capture: %w", err)
	}
	shot := Screenshot{Image: img}
	if c.Cursor != nil {
		if x, y, err := c.Cursor(ctx); err == nil {
			shot.CursorX, shot.CursorY = x, y
		}
	}
	return shot, nil
}

// PatternCapturer renders a moving gradient. It stands in for a display on
// headless hosts.
type PatternCapturer struct {
	Width, Height int
	Now           func() time.Time
}

func (p PatternCapturer) Capture(context.Context) (Screenshot, error) {
	w, h := p.Width, p.Height
	if w <= 0 || h <= 0 {
		w, h = 640, 360
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	shift := int(now().UnixMilli()/40) % w
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x + shift) * 255 / w),
				G: uint8(y * 255 / h),
				B: 128,
				A: 255,
			})
		}
	}
	return Screenshot{Image: img, CursorX: shift, CursorY: h / 2}, nil
}
