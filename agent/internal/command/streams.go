package command

import (
	"context"
	"sync"

	"sagiri-relay/agent/internal/logger"
)

type stream struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager keeps long-running loops (screen sharing, audio) started by
// commands. Each name runs at most once.
type Manager struct {
	parent context.Context
	mu     sync.Mutex
	active map[string]*stream
}

func NewManager(parent context.Context) *Manager {
	return &Manager{parent: parent, active: map[string]*stream{}}
}

// Start runs fn under name unless it is already running.
func (m *Manager) Start(name string, fn func(ctx context.Context)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.active[name]; exists {
		return false
	}
	ctx, cancel := context.WithCancel(m.parent)
	s := &stream{cancel: cancel, done: make(chan struct{})}
	m.active[name] = s
	go func() {
		defer close(s.done)
		fn(ctx)
		m.mu.Lock()
		if m.active[name] == s {
			delete(m.active, name)
		}
		m.mu.Unlock()
	}()
	logger.Infof("%s started", name)
	return true
}

// Stop cancels name and waits for it to return.
func (m *Manager) Stop(name string) bool {
	m.mu.Lock()
	s, exists := m.active[name]
	if exists {
		delete(m.active, name)
	}
	m.mu.Unlock()
	if !exists {
		return false
	}
	s.cancel()
	<-s.done
	logger.Infof("%s stopped", name)
	return true
}

func (m *Manager) Running(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.active[name]
	return ok
}

func (m *Manager) StopAll() {
	m.mu.Lock()
	names := make([]string, 0, len(m.active))
	for n := range m.active {
		names = append(names, n)
	}
	m.mu.Unlock()
	for _, n := range names {
		m.Stop(n)
	}
}
