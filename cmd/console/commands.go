package main

import (
	"strings"
	"time"

	"sagiri-relay/cmd/console/ui"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newSendCmd(opts *rootOptions) *cobra.Command {
	var (
		flagDevice string
		flagWait   time.Duration
		flagPoll   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "send <command...>",
		Short: "Queue a command for an agent",
		Long:  "Queue a shell or ! command. Without --device any agent may pick it up. With --wait the output is printed once an agent reports it.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			text := strings.Join(args, " ")
			id, err := c.SubmitCommand(ctx, text, flagDevice)
			if err != nil {
				return err
			}
			if flagWait <= 0 {
				printf(cmd.OutOrStdout(), "%s\n", id)
				return nil
			}
			log.Debug().Str("id", id).Str("command", text).Msg("queued")
			printf(cmd.ErrOrStderr(), "%s\n", ui.StatusLine("Command sent. Waiting for output..."))
			wctx, wcancel := contextWithTimeout(ctx, flagWait)
			defer wcancel()
			res, err := c.WaitCommand(wctx, id, flagPoll)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "%s", ui.FormatOutput(res))
			return nil
		},
	}
	cmd.Flags().StringVarP(&flagDevice, "device", "d", "", "target device id")
	cmd.Flags().DurationVarP(&flagWait, "wait", "w", 0, "wait up to this long for the output (e.g. 60s)")
	cmd.Flags().DurationVar(&flagPoll, "poll", 2*time.Second, "status poll interval while waiting")
	return cmd
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <command-id>",
		Short: "Show a command's status and output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()
			res, err := c.CommandStatus(ctx, args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printf(w, "ID:      %s\nCommand: %s\nStatus:  %s\nCreated: %s\n", res.ID, res.Text, res.Status, humanize.Time(res.CreatedAt))
			if res.DeviceID != "" {
				printf(w, "Device:  %s\n", res.DeviceID)
			}
			if res.Output != nil {
				printf(w, "\n%s", ui.FormatOutput(res))
			}
			return nil
		},
	}
}

func newDevicesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List devices with a live screen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()
			ids, err := c.Devices(ctx)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				printf(cmd.OutOrStdout(), "No devices sharing their screen\n")
				return nil
			}
			for _, id := range ids {
				printf(cmd.OutOrStdout(), "%s\n", id)
			}
			return nil
		},
	}
}

func newSweepCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Evict expired entries now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()
			rep, err := c.Sweep(ctx)
			if err != nil {
				return err
			}
			total := 0
			for _, n := range rep.Removed {
				total += n
			}
			printf(cmd.OutOrStdout(), "Removed %d entries older than %s\n", total, humanize.Time(rep.Cutoff))
			for _, store := range []string{"commands", "files", "screens", "pointer", "keyboard", "audio"} {
				if n := rep.Removed[store]; n > 0 {
					printf(cmd.OutOrStdout(), "  %-9s %d\n", store, n)
				}
			}
			return nil
		},
	}
}

func newInfoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show relay status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()
			info, err := c.Info(ctx)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Status:   %s\nUptime:   %s\nHorizon:  %s\nCommands: %d\nKeyboard: %d\nFiles:    %d\nDevices:  %d\n",
				info.Status, info.Uptime, info.Horizon, info.Commands, info.Keyboard, info.Files, info.Devices)
			return nil
		},
	}
}

func newShellCmd(opts *rootOptions) *cobra.Command {
	var (
		flagDevice string
		flagWait   time.Duration
		flagPoll   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive command prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			return runShell(ui.NewShellModel(c, flagDevice, flagWait, flagPoll))
		},
	}
	cmd.Flags().StringVarP(&flagDevice, "device", "d", "", "target device id")
	cmd.Flags().DurationVar(&flagWait, "wait", 60*time.Second, "how long to wait for each output")
	cmd.Flags().DurationVar(&flagPoll, "poll", 2*time.Second, "status poll interval")
	return cmd
}
