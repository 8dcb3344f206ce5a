package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Evictor is a store the sweeper can age out.
type Evictor interface {
	Name() string
	EvictBefore(ctx context.Context, cutoff time.Time) int
}

type SweepReport struct {
	Cutoff  time.Time      `json:"cutoff"`
	Removed map[string]int `json:"removed"`
}

func (r SweepReport) Total() int {
	n := 0
	for _, v := range r.Removed {
		n += v
	}
	return n
}

// Sweeper is the only component that deletes entries purely because of
// their age. Sweeps are serialized.
type Sweeper struct {
	clock     Clock
	retention *Retention
	evictors  []Evictor
	log       zerolog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

func NewSweeper(clock Clock, retention *Retention, log zerolog.Logger, evictors ...Evictor) *Sweeper {
	return &Sweeper{clock: clock, retention: retention, evictors: evictors, log: log}
}

func (s *Sweeper) Retention() *Retention { return s.retention }

func (s *Sweeper) Sweep(ctx context.Context) SweepReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.retention.Cutoff(s.clock.Now())
	report := SweepReport{Cutoff: cutoff, Removed: make(map[string]int, len(s.evictors))}
	for _, e := range s.evictors {
		report.Removed[e.Name()] = s.evictOne(ctx, e, cutoff)
	}
	s.log.Info().Time("cutoff", cutoff).Int("removed", report.Total()).Interface("stores", report.Removed).Msg("sweep done")
	return report
}

// evictOne keeps a misbehaving store from aborting the rest of the sweep.
func (s *Sweeper) evictOne(ctx context.Context, e Evictor, cutoff time.Time) (n int) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("store", e.Name()).Interface("panic", r).Msg("evict failed")
			n = 0
		}
	}()
	return e.EvictBefore(ctx, cutoff)
}

// Schedule runs Sweep on a cron spec such as "@every 5m". Calling it again
// replaces the previous schedule.
func (s *Sweeper) Schedule(ctx context.Context, spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { s.Sweep(ctx) }); err != nil {
		return fmt.Errorf("sweep schedule %q: %w", spec, err)
	}
	s.Stop()
	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()
	c.Start()
	s.log.Info().Str("schedule", spec).Dur("horizon", s.retention.Horizon()).Msg("sweeper scheduled")
	return nil
}

// Stop cancels the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}
