package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sagiri-relay/backend/app/mailbox"
	"sagiri-relay/backend/app/models"
)

// PointerService is a single request slot and a single result slot per
// device. A new request replaces one the agent has not picked up yet, so a
// click can be lost if two arrive within one agent poll.
type PointerService struct {
	clock    Clock
	screens  *ScreenService
	requests *mailbox.Slot[string, models.PointerRequest]
	results  *mailbox.Slot[string, models.PointerResult]
}

func NewPointerService(clock Clock, screens *ScreenService) *PointerService {
	return &PointerService{
		clock:    clock,
		screens:  screens,
		requests: mailbox.NewSlot[string, models.PointerRequest](),
		results:  mailbox.NewSlot[string, models.PointerResult](),
	}
}

func (s *PointerService) Name() string { return "pointer" }

// Request stores req for deviceID. Only devices that are sharing their
// screen accept pointer control. The returned bool reports whether an
// unconsumed request was overwritten.
func (s *PointerService) Request(deviceID string, req models.PointerRequest) (bool, error) {
	if !req.Action.Valid() {
		return false, fmt.Errorf("%w: unknown pointer action %q", ErrInvalid, req.Action)
	}
	if req.Action == models.PointerMove && (req.X == nil || req.Y == nil) {
		return false, fmt.Errorf("%w: move needs x and y", ErrInvalid)
	}
	if s.screens != nil && !s.screens.Known(deviceID) {
		return false, fmt.Errorf("device %s: %w", deviceID, ErrNotFound)
	}
	if req.Action == models.PointerClick && req.Button == "" {
		req.Button = "left"
	}
	req.DeviceID = deviceID
	req.CreatedAt = s.clock.Now()
	return s.requests.Put(deviceID, req), nil
}

func (s *PointerService) ConsumeRequest(deviceID string) (models.PointerRequest, bool) {
	return s.requests.Take(deviceID)
}

func (s *PointerService) ReportResult(deviceID string, result json.RawMessage) error {
	if deviceID == "" {
		return fmt.Errorf("%w: missing device id", ErrInvalid)
	}
	if len(result) == 0 || !json.Valid(result) {
		return fmt.Errorf("%w: result must be JSON", ErrInvalid)
	}
	s.results.Put(deviceID, models.PointerResult{
		DeviceID:  deviceID,
		Result:    result,
		CreatedAt: s.clock.Now(),
	})
	return nil
}

func (s *PointerService) ConsumeResult(deviceID string) (models.PointerResult, bool) {
	return s.results.Take(deviceID)
}

func (s *PointerService) EvictBefore(_ context.Context, cutoff time.Time) int {
	n := len(s.requests.Evict(func(_ string, r models.PointerRequest) bool {
		return r.CreatedAt.Before(cutoff)
	}))
	n += len(s.results.Evict(func(_ string, r models.PointerResult) bool {
		return r.CreatedAt.Before(cutoff)
	}))
	return n
}
