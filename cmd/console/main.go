package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"sagiri-relay/network"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const defaultServer = "http://127.0.0.1:5000"

type rootOptions struct {
	server  string
	timeout time.Duration
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "relayctl",
		Short:         "Controller console for the relay",
		Long:          "relayctl queues commands for agents, moves files through the relay and drives screen, pointer, keyboard and audio channels.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.InfoLevel
			if opts.verbose {
				level = zerolog.DebugLevel
			}
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).Level(level).With().Timestamp().Logger()
		},
	}
	cmd.PersistentFlags().StringVar(&opts.server, "server", "", "relay URL (default $RELAY_SERVER or "+defaultServer+")")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "overall deadline for the command (0 = none)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(
		newSendCmd(opts),
		newStatusCmd(opts),
		newDevicesCmd(opts),
		newSweepCmd(opts),
		newInfoCmd(opts),
		newFilesCmd(opts),
		newUploadCmd(opts),
		newDownloadCmd(opts),
		newScreenCmd(opts),
		newQualityCmd(opts),
		newPointerCmd(opts),
		newKeyboardCmd(opts),
		newAudioCmd(opts),
		newShellCmd(opts),
	)
	return cmd
}

func (o *rootOptions) client() (*network.Client, error) {
	return network.New(firstNonEmpty(o.server, os.Getenv("RELAY_SERVER"), defaultServer))
}

// context returns the command context bounded by --timeout.
func (o *rootOptions) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if o.timeout > 0 {
		return context.WithTimeout(ctx, o.timeout)
	}
	return context.WithCancel(ctx)
}

func contextWithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func runShell(m tea.Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func printf(w io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w, format, args...)
}

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("relayctl command failed")
	}
}
