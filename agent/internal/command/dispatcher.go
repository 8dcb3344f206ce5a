package command

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"sagiri-relay/agent/internal/logger"
)

// Dispatcher routes command text either to a registered "!" handler or to
// the system shell.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	shell    func(ctx context.Context, text string) Output
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: map[string]Handler{}, shell: RunShell}
}

// Register maps "!name" to h.
func (d *Dispatcher) Register(name string, h Handler) {
	d.mu.Lock()
	d.handlers[strings.TrimPrefix(name, "!")] = h
	d.mu.Unlock()
}

func (d *Dispatcher) Get(name string) (Handler, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.handlers[name]
	return h, ok
}

// SetShell replaces the shell runner.
func (d *Dispatcher) SetShell(fn func(ctx context.Context, text string) Output) { d.shell = fn }

// Format renders a short, loggable form of a command.
func Format(text string) string {
	const max = 80
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > max {
		return text[:max] + "..."
	}
	return text
}

func (d *Dispatcher) Execute(ctx context.Context, text string) Output {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "!") {
		return d.shell(ctx, text)
	}
	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return stderrf("Empty command")
	}
	h, ok := d.Get(fields[0])
	if !ok {
		logger.Warnf("unknown command %q", fields[0])
		return stderrf("Unknown command !%s. Available: %s", fields[0], d.names())
	}
	return h.Handle(ctx, fields[1:])
}

func (d *Dispatcher) names() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.handlers))
	for n := range d.handlers {
		names = append(names, "!"+n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func sprintf(format string, args ...interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
