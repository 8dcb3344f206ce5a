package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"sagiri-relay/backend/app/mailbox"
	"sagiri-relay/backend/app/models"
)

// KeyboardService queues keyboard requests per device under their own ids,
// so several can be outstanding without loss. Polling hands each request
// out exactly once: an agent that crashes after polling loses it.
type KeyboardService struct {
	clock      Clock
	retention  *Retention
	maxEntries int

	admit   sync.Mutex
	pending *mailbox.Queue[string, string] // device id -> request ids
	entries *mailbox.Slot[string, models.KeyboardRequest]
}

func NewKeyboardService(clock Clock, retention *Retention, maxEntries int) *KeyboardService {
	return &KeyboardService{
		clock:      clock,
		retention:  retention,
		maxEntries: maxEntries,
		pending:    mailbox.NewQueue[string, string](0),
		entries:    mailbox.NewSlot[string, models.KeyboardRequest](),
	}
}

func (s *KeyboardService) Name() string { return "keyboard" }

func (s *KeyboardService) Request(deviceID string, kind models.KeyboardKind, payload string) (models.KeyboardRequest, error) {
	if deviceID == "" {
		return models.KeyboardRequest{}, fmt.Errorf("%w: missing device id", ErrInvalid)
	}
	if !kind.Valid() {
		return models.KeyboardRequest{}, fmt.Errorf("%w: unknown keyboard kind %q", ErrInvalid, kind)
	}
	if payload == "" {
		return models.KeyboardRequest{}, fmt.Errorf("%w: empty payload", ErrInvalid)
	}
	now := s.clock.Now()

	s.admit.Lock()
	defer s.admit.Unlock()
	s.evict(s.retention.Cutoff(now))
	if s.maxEntries > 0 && s.entries.Len() >= s.maxEntries && !s.dropOldestCompleted() {
		return models.KeyboardRequest{}, fmt.Errorf("%w: %d keyboard requests queued", ErrFull, s.entries.Len())
	}
	req := models.KeyboardRequest{
		ID:        newID(),
		DeviceID:  deviceID,
		Kind:      kind,
		Payload:   payload,
		Status:    models.KeyboardPending,
		CreatedAt: now,
	}
	s.entries.Put(req.ID, req)
	s.pending.Put(deviceID, req.ID)
	return req, nil
}

// Pending hands out every pending request for deviceID in submission order
// and marks them processing.
func (s *KeyboardService) Pending(deviceID string) []models.KeyboardRequest {
	ids := s.pending.TakeAll(deviceID)
	out := make([]models.KeyboardRequest, 0, len(ids))
	for _, id := range ids {
		req, err := s.entries.Update(id, func(r models.KeyboardRequest) (models.KeyboardRequest, error) {
			r.Status = models.KeyboardProcessing
			return r, nil
		})
		if err != nil {
			// evicted between enqueue and poll
			continue
		}
		out = append(out, req)
	}
	return out
}

func (s *KeyboardService) ReportResult(id string, result json.RawMessage) error {
	if len(result) == 0 || !json.Valid(result) {
		return fmt.Errorf("%w: result must be JSON", ErrInvalid)
	}
	_, err := s.entries.Update(id, func(r models.KeyboardRequest) (models.KeyboardRequest, error) {
		if r.Status == models.KeyboardCompleted {
			return r, ErrAlreadyCompleted
		}
		r.Status = models.KeyboardCompleted
		r.Result = result
		return r, nil
	})
	if errors.Is(err, mailbox.ErrNotFound) {
		return fmt.Errorf("keyboard request %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("keyboard request %s: %w", id, err)
	}
	return nil
}

// FetchResult returns the request and whether its result is ready. A ready
// result is removed by this call.
func (s *KeyboardService) FetchResult(id string) (models.KeyboardRequest, bool, error) {
	req, present, taken := s.entries.TakeIf(id, func(r models.KeyboardRequest) bool {
		return r.Status == models.KeyboardCompleted
	})
	if !present {
		return models.KeyboardRequest{}, false, fmt.Errorf("keyboard request %s: %w", id, ErrNotFound)
	}
	return req, taken, nil
}

func (s *KeyboardService) Len() int { return s.entries.Len() }

func (s *KeyboardService) EvictBefore(_ context.Context, cutoff time.Time) int {
	return s.evict(cutoff)
}

func (s *KeyboardService) evict(cutoff time.Time) int {
	gone := s.entries.Evict(func(_ string, r models.KeyboardRequest) bool {
		return r.CreatedAt.Before(cutoff)
	})
	if len(gone) == 0 {
		return 0
	}
	ids := make(map[string]struct{}, len(gone))
	for _, r := range gone {
		ids[r.ID] = struct{}{}
	}
	s.pending.Evict(func(_ string, id string) bool {
		_, ok := ids[id]
		return ok
	})
	return len(gone)
}

func (s *KeyboardService) dropOldestCompleted() bool {
	var oldest *models.KeyboardRequest
	for _, r := range s.entries.Values() {
		if r.Status != models.KeyboardCompleted {
			continue
		}
		if oldest == nil || r.CreatedAt.Before(oldest.CreatedAt) {
			r := r
			oldest = &r
		}
	}
	if oldest == nil {
		return false
	}
	id := oldest.ID
	return len(s.entries.Evict(func(k string, r models.KeyboardRequest) bool {
		return k == id && r.Status == models.KeyboardCompleted
	})) == 1
}
