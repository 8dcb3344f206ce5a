package service

import (
	"context"
	"fmt"

	"sagiri-relay/agent/internal/logger"
	"sagiri-relay/network"
)

func (a *Agent) runKeyboard(ctx context.Context) error {
	for {
		a.pollKeyboard(ctx)
		if !sleep(ctx, a.opts.KeyInterval) {
			return nil
		}
	}
}

func (a *Agent) pollKeyboard(ctx context.Context) {
	reqs, err := a.opts.Relay.PendingKeyboard(ctx, a.opts.DeviceID)
	if err != nil {
		if ctx.Err() == nil {
			logger.Debugf("poll keyboard: %v", err)
		}
		return
	}
	for _, req := range reqs {
		res := a.injectKeys(ctx, req)
		if err := a.opts.Relay.ReportKeyboardResult(ctx, req.ID, res); err != nil {
			logger.Errorf("report keyboard %s: %v", req.ID, err)
		}
	}
}

func (a *Agent) injectKeys(ctx context.Context, req network.KeyboardRequest) Result {
	var err error
	switch req.Kind {
	case "text":
		err = a.opts.Keys.Type(ctx, req.Payload)
	case "shortcut":
		err = a.opts.Keys.Shortcut(ctx, req.Payload)
	default:
		err = fmt.Errorf("unknown keyboard kind %q", req.Kind)
	}
	if err != nil {
		return errorResult(err)
	}
	return Result{"status": "success", "kind": string(req.Kind)}
}
