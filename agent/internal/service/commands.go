package service

import (
	"context"
	"net/http"

	"sagiri-relay/agent/internal/command"
	"sagiri-relay/agent/internal/db"
	"sagiri-relay/agent/internal/logger"
	"sagiri-relay/network"
)

func (a *Agent) runCommands(ctx context.Context) error {
	for {
		a.pollCommands(ctx)
		if !sleep(ctx, a.opts.CommandInterval) {
			return nil
		}
	}
}

func (a *Agent) pollCommands(ctx context.Context) {
	cmds, err := a.opts.Relay.PendingCommands(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Errorf("poll commands: %v", err)
		}
		return
	}
	for _, cmd := range cmds {
		if ctx.Err() != nil {
			return
		}
		a.handleCommand(ctx, cmd)
	}
}

// handleCommand runs cmd at most once. A command that is still pending
// after we ran it only had its report lost, so the recorded output is
// reported again.
func (a *Agent) handleCommand(ctx context.Context, cmd network.Command) {
	out, seen := a.recorded(cmd.ID)
	if seen {
		logger.Infof("re-reporting command %s", cmd.ID)
	} else {
		logger.Infof("executing command %s: %s", cmd.ID, command.Format(cmd.Text))
		out = a.dispatcher.Execute(ctx, cmd.Text)
		a.record(cmd, out)
	}

	err := a.opts.Relay.CompleteCommand(ctx, cmd.ID, out)
	switch code := network.StatusCode(err); {
	case err == nil:
	case code == http.StatusConflict || code == http.StatusNotFound:
		// completed by someone else or already evicted; nothing left to report
		logger.Warnf("command %s no longer pending: %v", cmd.ID, err)
	default:
		logger.Errorf("report command %s: %v", cmd.ID, err)
		return
	}
	if a.opts.Ledger != nil {
		if err := a.opts.Ledger.MarkReported(cmd.ID); err != nil {
			logger.Errorf("mark %s reported: %v", cmd.ID, err)
		}
	}
}

func (a *Agent) recorded(id string) (network.CommandOutput, bool) {
	if a.opts.Ledger == nil {
		return network.CommandOutput{}, false
	}
	e, ok, err := a.opts.Ledger.Lookup(id)
	if err != nil {
		logger.Errorf("ledger lookup %s: %v", id, err)
		return network.CommandOutput{}, false
	}
	if !ok {
		return network.CommandOutput{}, false
	}
	return network.CommandOutput{Stdout: e.Stdout, Stderr: e.Stderr, ReturnCode: e.ReturnCode}, true
}

func (a *Agent) record(cmd network.Command, out network.CommandOutput) {
	if a.opts.Ledger == nil {
		return
	}
	err := a.opts.Ledger.Record(db.Execution{
		CommandID:  cmd.ID,
		Command:    cmd.Text,
		Stdout:     out.Stdout,
		Stderr:     out.Stderr,
		ReturnCode: out.ReturnCode,
	})
	if err != nil {
		logger.Errorf("ledger record %s: %v", cmd.ID, err)
	}
}
