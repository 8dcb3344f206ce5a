package main

import (
	"encoding/base64"
	"errors"
	"io"
	"os"
	"time"

	"sagiri-relay/network"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newAudioCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audio",
		Short: "Move raw PCM audio through the relay",
	}
	cmd.AddCommand(newAudioPullCmd(opts), newAudioPushCmd(opts))
	return cmd
}

func newAudioPullCmd(opts *rootOptions) *cobra.Command {
	var (
		flagOut      string
		flagDuration time.Duration
		flagPoll     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "pull <device-id>",
		Short: "Record a device's microphone stream to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()
			ctx, stop := contextWithTimeout(ctx, flagDuration)
			defer stop()

			var out io.Writer = cmd.OutOrStdout()
			if flagOut != "" && flagOut != "-" {
				f, err := os.Create(flagOut)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			var total, chunks int
			for ctx.Err() == nil {
				chunk, err := c.PopAudio(ctx, args[0], network.Microphone)
				if err != nil {
					if ctx.Err() != nil {
						break
					}
					return err
				}
				if chunk == nil {
					select {
					case <-ctx.Done():
					case <-time.After(flagPoll):
					}
					continue
				}
				pcm, err := base64.StdEncoding.DecodeString(chunk.Payload)
				if err != nil {
					log.Warn().Err(err).Msg("skipping undecodable chunk")
					continue
				}
				if _, err := out.Write(pcm); err != nil {
					return err
				}
				chunks++
				total += len(pcm)
				log.Debug().Int("bytes", len(pcm)).Int("rate", chunk.Rate).Int("channels", chunk.Channels).Msg("chunk")
			}
			log.Info().Int("chunks", chunks).Str("size", humanize.IBytes(uint64(total))).Msg("audio pull finished")
			return nil
		},
	}
	cmd.Flags().StringVarP(&flagOut, "out", "o", "-", "output file for raw PCM (- for stdout)")
	cmd.Flags().DurationVar(&flagDuration, "duration", 10*time.Second, "how long to record")
	cmd.Flags().DurationVar(&flagPoll, "poll", 50*time.Millisecond, "poll interval while the queue is empty")
	return cmd
}

func newAudioPushCmd(opts *rootOptions) *cobra.Command {
	var (
		flagRate     int
		flagChannels int
		flagChunk    int
	)
	cmd := &cobra.Command{
		Use:   "push <device-id> <file>",
		Short: "Send a raw PCM file to a device's speaker",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			buf := make([]byte, flagChunk)
			var chunks, dropped int
			for {
				n, rerr := io.ReadFull(f, buf)
				if n > 0 {
					d, err := c.PushAudio(ctx, args[0], network.Speaker, network.AudioChunk{
						Payload:  base64.StdEncoding.EncodeToString(buf[:n]),
						Format:   "pcm",
						Channels: flagChannels,
						Rate:     flagRate,
					})
					if err != nil {
						return err
					}
					chunks++
					dropped += d
				}
				if errors.Is(rerr, io.EOF) || errors.Is(rerr, io.ErrUnexpectedEOF) {
					break
				}
				if rerr != nil {
					return rerr
				}
			}
			printf(cmd.OutOrStdout(), "Pushed %d chunks", chunks)
			if dropped > 0 {
				printf(cmd.OutOrStdout(), " (relay dropped %d old chunks)", dropped)
			}
			printf(cmd.OutOrStdout(), "\n")
			return nil
		},
	}
	cmd.Flags().IntVar(&flagRate, "rate", 48000, "sample rate")
	cmd.Flags().IntVar(&flagChannels, "channels", 1, "channel count")
	cmd.Flags().IntVar(&flagChunk, "chunk", 4096, "bytes per chunk")
	return cmd
}
