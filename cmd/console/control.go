package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"sagiri-relay/network"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newScreenCmd(opts *rootOptions) *cobra.Command {
	var flagOut string
	cmd := &cobra.Command{
		Use:   "screen <device-id>",
		Short: "Fetch the latest screen frame of a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()
			frame, err := c.LatestScreen(ctx, args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printf(w, "Frame %dx%d of %dx%d screen, cursor at (%d,%d), captured %s\n",
				frame.Width, frame.Height, frame.ScreenWidth, frame.ScreenHeight,
				frame.CursorX, frame.CursorY, humanize.Time(frame.CapturedAt))
			if flagOut == "" {
				return nil
			}
			img, err := base64.StdEncoding.DecodeString(frame.Image)
			if err != nil {
				return fmt.Errorf("decode frame: %w", err)
			}
			if err := os.WriteFile(flagOut, img, 0o644); err != nil {
				return err
			}
			printf(w, "Saved %s to %s\n", humanize.IBytes(uint64(len(img))), flagOut)
			return nil
		},
	}
	cmd.Flags().StringVarP(&flagOut, "out", "o", "", "write the JPEG to this file")
	return cmd
}

func newQualityCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "quality <device-id> <10-100>",
		Short: "Change a device's screen JPEG quality",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var q int
			if _, err := fmt.Sscanf(args[1], "%d", &q); err != nil {
				return fmt.Errorf("quality must be a number: %q", args[1])
			}
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()
			id, err := c.SetScreenQuality(ctx, args[0], q)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Quality %d queued as command %s\n", q, id)
			return nil
		},
	}
}

func newPointerCmd(opts *rootOptions) *cobra.Command {
	var (
		flagX      int
		flagY      int
		flagButton string
		flagWait   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "pointer <device-id> <move|click|scroll>",
		Short: "Send a pointer action to a device sharing its screen",
		Long:  "move uses --x/--y, click uses --button (left|right|double), scroll uses --y as the amount (positive scrolls down).",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			req := network.PointerRequest{Action: network.PointerAction(args[1]), Button: flagButton}
			if cmd.Flags().Changed("x") {
				req.X = &flagX
			}
			if cmd.Flags().Changed("y") {
				req.Y = &flagY
			}
			replaced, err := c.RequestPointer(ctx, args[0], req)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if replaced {
				printf(w, "Replaced an action the agent had not picked up yet\n")
			}
			if flagWait <= 0 {
				printf(w, "Pointer action queued\n")
				return nil
			}
			deadline := time.Now().Add(flagWait)
			for time.Now().Before(deadline) {
				res, ok, err := c.PointerResult(ctx, args[0])
				if err != nil {
					return err
				}
				if ok {
					printf(w, "%s\n", res)
					return nil
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(200 * time.Millisecond):
				}
			}
			return fmt.Errorf("no pointer result after %s", flagWait)
		},
	}
	cmd.Flags().IntVar(&flagX, "x", 0, "x coordinate")
	cmd.Flags().IntVar(&flagY, "y", 0, "y coordinate or scroll amount")
	cmd.Flags().StringVar(&flagButton, "button", "left", "click button")
	cmd.Flags().DurationVarP(&flagWait, "wait", "w", 0, "wait for the agent's result")
	return cmd
}

func newKeyboardCmd(opts *rootOptions) *cobra.Command {
	var flagWait time.Duration
	cmd := &cobra.Command{
		Use:   "keyboard <device-id> <text|shortcut> <payload>",
		Short: "Type text or press a shortcut on a device",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()
			id, err := c.RequestKeyboard(ctx, args[0], network.KeyboardKind(args[1]), args[2])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if flagWait <= 0 {
				printf(w, "%s\n", id)
				return nil
			}
			deadline := time.Now().Add(flagWait)
			for time.Now().Before(deadline) {
				res, err := c.KeyboardResult(ctx, id)
				if err != nil {
					return err
				}
				if res.Done() {
					printf(w, "%s\n", res.Result)
					return nil
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(200 * time.Millisecond):
				}
			}
			return fmt.Errorf("keyboard request %s not completed after %s", id, flagWait)
		},
	}
	cmd.Flags().DurationVarP(&flagWait, "wait", "w", 0, "wait for the agent's result")
	return cmd
}
