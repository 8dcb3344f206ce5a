package service

import (
	"context"
	"encoding/base64"
	"io"

	"sagiri-relay/agent/internal/logger"
	"sagiri-relay/network"
)

const audioFormat = "pcm"

// runMicrophone pushes fixed-size PCM chunks until the source ends or ctx
// is cancelled.
func (a *Agent) runMicrophone(ctx context.Context) {
	defer a.opts.AudioState.SetMicrophone(false)
	src, err := a.opts.Mic.Open(ctx)
	if err != nil {
		logger.Errorf("open microphone: %v", err)
		return
	}
	defer src.Close()

	o := a.opts.Audio
	buf := make([]byte, o.ChunkBytes)
	for {
		n, err := io.ReadFull(src, buf)
		if n > 0 {
			chunk := network.AudioChunk{
				Payload:  base64.StdEncoding.EncodeToString(buf[:n]),
				Format:   audioFormat,
				Channels: o.Channels,
				Rate:     o.Rate,
			}
			dropped, perr := a.opts.Relay.PushAudio(ctx, a.opts.DeviceID, network.Microphone, chunk)
			if perr != nil && ctx.Err() == nil {
				logger.Debugf("push audio: %v", perr)
			} else if dropped > 0 {
				logger.Debugf("relay dropped %d microphone chunks", dropped)
			}
		}
		if err != nil {
			if ctx.Err() == nil && err != io.EOF && err != io.ErrUnexpectedEOF {
				logger.Errorf("read microphone: %v", err)
			}
			return
		}
	}
}

// runSpeaker plays chunks queued for this device until ctx is cancelled.
func (a *Agent) runSpeaker(ctx context.Context) {
	defer a.opts.AudioState.SetSpeaker(false)
	sink, err := a.opts.Speaker.Open(ctx)
	if err != nil {
		logger.Errorf("open speaker: %v", err)
		return
	}
	defer sink.Close()

	for {
		chunk, err := a.opts.Relay.PopAudio(ctx, a.opts.DeviceID, network.Speaker)
		if err != nil && ctx.Err() == nil {
			logger.Debugf("pop audio: %v", err)
		}
		if chunk == nil {
			if !sleep(ctx, a.opts.Audio.PollInterval) {
				return
			}
			continue
		}
		pcm, err := base64.StdEncoding.DecodeString(chunk.Payload)
		if err != nil {
			logger.Warnf("bad speaker chunk: %v", err)
			continue
		}
		if _, err := sink.Write(pcm); err != nil {
			logger.Errorf("write speaker: %v", err)
			return
		}
	}
}
