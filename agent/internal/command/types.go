package command

import (
	"context"

	"sagiri-relay/network"
)

// Output is what gets reported back for a command. Failures are data:
// a handler never returns an error, it fills Stderr and ReturnCode.
type Output = network.CommandOutput

// Handler runs one "!name" command. args are the whitespace-separated
// words after the name.
type Handler interface {
	Usage() string
	Handle(ctx context.Context, args []string) Output
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc struct {
	Use string
	Fn  func(ctx context.Context, args []string) Output
}

func (h HandlerFunc) Usage() string { return h.Use }
func (h HandlerFunc) Handle(ctx context.Context, args []string) Output {
	return h.Fn(ctx, args)
}

func stdoutf(format string, args ...interface{}) Output {
	return Output{Stdout: sprintf(format, args...)}
}

func stderrf(format string, args ...interface{}) Output {
	return Output{Stderr: sprintf(format, args...), ReturnCode: 1}
}
