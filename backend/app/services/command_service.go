package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"sagiri-relay/backend/app/mailbox"
	"sagiri-relay/backend/app/models"
)

const (
	MinScreenQuality = 10
	MaxScreenQuality = 100
)

// CommandService is the command channel. Pending commands stay visible to
// every poll until an agent completes them, so agents may see a command
// more than once.
type CommandService struct {
	clock      Clock
	retention  *Retention
	maxEntries int

	admit sync.Mutex
	store *mailbox.Slot[string, models.Command]
}

func NewCommandService(clock Clock, retention *Retention, maxEntries int) *CommandService {
	return &CommandService{
		clock:      clock,
		retention:  retention,
		maxEntries: maxEntries,
		store:      mailbox.NewSlot[string, models.Command](),
	}
}

func (s *CommandService) Name() string { return "commands" }

// Submit queues text for execution. deviceID may be empty to let any agent
// run it.
func (s *CommandService) Submit(text, deviceID string) (models.Command, error) {
	if strings.TrimSpace(text) == "" {
		return models.Command{}, fmt.Errorf("%w: empty command", ErrInvalid)
	}
	now := s.clock.Now()

	s.admit.Lock()
	defer s.admit.Unlock()
	s.evict(s.retention.Cutoff(now))
	if s.maxEntries > 0 && s.store.Len() >= s.maxEntries && !s.dropOldestCompleted() {
		return models.Command{}, fmt.Errorf("%w: %d commands queued", ErrFull, s.store.Len())
	}
	cmd := models.Command{
		ID:        newID(),
		Text:      text,
		DeviceID:  deviceID,
		Status:    models.CommandPending,
		CreatedAt: now,
	}
	s.store.Put(cmd.ID, cmd)
	return cmd, nil
}

// SetScreenQuality asks the agent to change its JPEG quality by queueing a
// screen control command for it.
func (s *CommandService) SetScreenQuality(deviceID string, quality int) (models.Command, error) {
	if deviceID == "" {
		return models.Command{}, fmt.Errorf("%w: missing device id", ErrInvalid)
	}
	if quality < MinScreenQuality || quality > MaxScreenQuality {
		return models.Command{}, fmt.Errorf("%w: quality must be between %d and %d", ErrInvalid, MinScreenQuality, MaxScreenQuality)
	}
	return s.Submit(fmt.Sprintf("!screen quality=%d", quality), deviceID)
}

// Pending lists pending commands visible to deviceID, oldest first. An
// empty deviceID lists every pending command.
func (s *CommandService) Pending(deviceID string) []models.Command {
	var out []models.Command
	for _, c := range s.store.Values() {
		if c.Status != models.CommandPending {
			continue
		}
		if deviceID != "" && !c.VisibleTo(deviceID) {
			continue
		}
		out = append(out, c)
	}
	sortCommands(out)
	return out
}

func (s *CommandService) Complete(id string, output models.CommandOutput) (models.Command, error) {
	cmd, err := s.store.Update(id, func(c models.Command) (models.Command, error) {
		if c.Status == models.CommandCompleted {
			return c, ErrAlreadyCompleted
		}
		done := s.clock.Now()
		out := output
		c.Status = models.CommandCompleted
		c.Output = &out
		c.CompletedAt = &done
		return c, nil
	})
	if errors.Is(err, mailbox.ErrNotFound) {
		return models.Command{}, fmt.Errorf("command %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return cmd, fmt.Errorf("command %s: %w", id, err)
	}
	return cmd, nil
}

func (s *CommandService) Status(id string) (models.Command, error) {
	cmd, ok := s.store.Peek(id)
	if !ok {
		return models.Command{}, fmt.Errorf("command %s: %w", id, ErrNotFound)
	}
	return cmd, nil
}

func (s *CommandService) Len() int { return s.store.Len() }

func (s *CommandService) EvictBefore(_ context.Context, cutoff time.Time) int {
	return len(s.evict(cutoff))
}

func (s *CommandService) evict(cutoff time.Time) []models.Command {
	return s.store.Evict(func(_ string, c models.Command) bool {
		return c.CreatedAt.Before(cutoff)
	})
}

// dropOldestCompleted makes room for one entry. Pending commands are never
// dropped to make room.
func (s *CommandService) dropOldestCompleted() bool {
	var oldest *models.Command
	for _, c := range s.store.Values() {
		if c.Status != models.CommandCompleted {
			continue
		}
		if oldest == nil || c.CreatedAt.Before(oldest.CreatedAt) {
			c := c
			oldest = &c
		}
	}
	if oldest == nil {
		return false
	}
	id := oldest.ID
	return len(s.store.Evict(func(k string, c models.Command) bool {
		return k == id && c.Status == models.CommandCompleted
	})) == 1
}

func sortCommands(cmds []models.Command) {
	sort.Slice(cmds, func(i, j int) bool {
		if !cmds[i].CreatedAt.Equal(cmds[j].CreatedAt) {
			return cmds[i].CreatedAt.Before(cmds[j].CreatedAt)
		}
		return cmds[i].ID < cmds[j].ID
	})
}
