package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"sagiri-relay/backend/app/mailbox"
	"sagiri-relay/backend/app/models"
)

// ScreenService keeps only the newest frame per device. Reads never
// consume the frame; a slow viewer skips frames instead of queueing them.
type ScreenService struct {
	clock  Clock
	frames *mailbox.Slot[string, models.ScreenFrame]
}

func NewScreenService(clock Clock) *ScreenService {
	return &ScreenService{clock: clock, frames: mailbox.NewSlot[string, models.ScreenFrame]()}
}

func (s *ScreenService) Name() string { return "screens" }

func (s *ScreenService) Publish(deviceID string, frame models.ScreenFrame) (models.ScreenFrame, error) {
	if deviceID == "" {
		return models.ScreenFrame{}, fmt.Errorf("%w: missing device id", ErrInvalid)
	}
	if frame.Image == "" {
		return models.ScreenFrame{}, fmt.Errorf("%w: missing image", ErrInvalid)
	}
	frame.DeviceID = deviceID
	frame.UpdatedAt = s.clock.Now()
	if frame.CapturedAt.IsZero() {
		frame.CapturedAt = frame.UpdatedAt
	}
	s.frames.Put(deviceID, frame)
	return frame, nil
}

func (s *ScreenService) Latest(deviceID string) (models.ScreenFrame, error) {
	frame, ok := s.frames.Peek(deviceID)
	if !ok {
		return models.ScreenFrame{}, fmt.Errorf("device %s: %w", deviceID, ErrNotFound)
	}
	return frame, nil
}

// Known reports whether deviceID currently has a live frame.
func (s *ScreenService) Known(deviceID string) bool {
	_, ok := s.frames.Peek(deviceID)
	return ok
}

// Devices lists devices with a live frame, sorted.
func (s *ScreenService) Devices() []string {
	ids := s.frames.Keys()
	sort.Strings(ids)
	return ids
}

func (s *ScreenService) EvictBefore(_ context.Context, cutoff time.Time) int {
	return len(s.frames.Evict(func(_ string, f models.ScreenFrame) bool {
		return f.UpdatedAt.Before(cutoff)
	}))
}
