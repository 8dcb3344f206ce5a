package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/jpeg"
	"time"

	"sagiri-relay/agent/internal/logger"
	"sagiri-relay/network"
)

func (a *Agent) runScreen(ctx context.Context) {
	for {
		if err := a.publishFrame(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Errorf("screen: %v", err)
		} else {
			a.servePointer(ctx)
		}
		if !sleep(ctx, a.opts.ScreenState.Interval()) {
			return
		}
	}
}

func (a *Agent) publishFrame(ctx context.Context) error {
	shot, err := a.opts.Capturer.Capture(ctx)
	if err != nil {
		return err
	}
	frame, err := encodeFrame(shot, a.opts.ScreenState.Quality(), a.opts.Screen.MaxWidth, a.opts.Screen.MaxHeight)
	if err != nil {
		return err
	}
	return a.opts.Relay.PublishScreen(ctx, a.opts.DeviceID, frame)
}

// servePointer applies at most one waiting pointer request. Errors are
// logged at debug so a slow control path never stalls the frames.
func (a *Agent) servePointer(ctx context.Context) {
	req, err := a.opts.Relay.PollPointer(ctx, a.opts.DeviceID)
	if err != nil {
		logger.Debugf("poll pointer: %v", err)
		return
	}
	if req == nil {
		return
	}
	res, err := a.opts.Pointer.Pointer(ctx, *req)
	if err != nil {
		res = errorResult(err)
	}
	if err := a.opts.Relay.ReportPointerResult(ctx, a.opts.DeviceID, res); err != nil {
		logger.Debugf("report pointer result: %v", err)
	}
}

func encodeFrame(shot Screenshot, quality, maxW, maxH int) (network.ScreenFrame, error) {
	b := shot.Image.Bounds()
	img := fit(shot.Image, maxW, maxH)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return network.ScreenFrame{}, err
	}
	return network.ScreenFrame{
		Image:        base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:        img.Bounds().Dx(),
		Height:       img.Bounds().Dy(),
		ScreenWidth:  b.Dx(),
		ScreenHeight: b.Dy(),
		CursorX:      shot.CursorX,
		CursorY:      shot.CursorY,
		CapturedAt:   time.Now(),
	}, nil
}

// fit scales img down (nearest neighbour) to fit maxW x maxH, keeping the
// aspect ratio. Smaller images are returned as is.
func fit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW && h <= maxH {
		return img
	}
	nw, nh := maxW, h*maxW/w
	if nh > maxH {
		nw, nh = w*maxH/h, maxH
	}
	nw, nh = max(nw, 1), max(nh, 1)
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	for y := 0; y < nh; y++ {
		sy := b.Min.Y + y*h/nh
		for x := 0; x < nw; x++ {
			dst.Set(x, y, img.At(b.Min.X+x*w/nw, sy))
		}
	}
	return dst
}
