package services

import (
	"context"
	"fmt"
	"time"

	"sagiri-relay/backend/app/mailbox"
	"sagiri-relay/backend/app/models"
)

const DefaultAudioCapacity = 50

// AudioService keeps one bounded FIFO per device and direction. When a
// FIFO is full the oldest chunk is discarded.
type AudioService struct {
	clock  Clock
	queues map[models.AudioDirection]*mailbox.Queue[string, models.AudioChunk]
}

func NewAudioService(clock Clock, micCapacity, speakerCapacity int) *AudioService {
	if micCapacity <= 0 {
		micCapacity = DefaultAudioCapacity
	}
	if speakerCapacity <= 0 {
		speakerCapacity = DefaultAudioCapacity
	}
	return &AudioService{
		clock: clock,
		queues: map[models.AudioDirection]*mailbox.Queue[string, models.AudioChunk]{
			models.AudioMicrophone: mailbox.NewQueue[string, models.AudioChunk](micCapacity),
			models.AudioSpeaker:    mailbox.NewQueue[string, models.AudioChunk](speakerCapacity),
		},
	}
}

func (s *AudioService) Name() string { return "audio" }

// Push appends chunk and returns how many old chunks overflow discarded.
func (s *AudioService) Push(deviceID string, dir models.AudioDirection, chunk models.AudioChunk) (int, error) {
	q, ok := s.queues[dir]
	if !ok {
		return 0, fmt.Errorf("%w: unknown audio direction %q", ErrInvalid, dir)
	}
	if deviceID == "" {
		return 0, fmt.Errorf("%w: missing device id", ErrInvalid)
	}
	if chunk.Payload == "" {
		return 0, fmt.Errorf("%w: missing audio data", ErrInvalid)
	}
	chunk.DeviceID = deviceID
	chunk.Direction = dir
	chunk.CreatedAt = s.clock.Now()
	return len(q.Put(deviceID, chunk)), nil
}

func (s *AudioService) Pop(deviceID string, dir models.AudioDirection) (models.AudioChunk, bool, error) {
	q, ok := s.queues[dir]
	if !ok {
		return models.AudioChunk{}, false, fmt.Errorf("%w: unknown audio direction %q", ErrInvalid, dir)
	}
	chunk, ok := q.Take(deviceID)
	return chunk, ok, nil
}

func (s *AudioService) Capacity(dir models.AudioDirection) int {
	if q, ok := s.queues[dir]; ok {
		return q.Capacity()
	}
	return 0
}

func (s *AudioService) EvictBefore(_ context.Context, cutoff time.Time) int {
	n := 0
	for _, q := range s.queues {
		n += len(q.Evict(func(_ string, c models.AudioChunk) bool {
			return c.CreatedAt.Before(cutoff)
		}))
	}
	return n
}
