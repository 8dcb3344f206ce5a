package services

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Clock is the only source of time for the relay stores so eviction can be
// driven deterministically in tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func RealClock() Clock { return realClock{} }

const DefaultHorizon = time.Hour

// Retention is the age horizon shared by every store. It can be changed
// while the relay is running.
type Retention struct {
	horizon atomic.Int64
}

func NewRetention(horizon time.Duration) *Retention {
	r := &Retention{}
	r.SetHorizon(horizon)
	return r
}

func (r *Retention) Horizon() time.Duration { return time.Duration(r.horizon.Load()) }

func (r *Retention) SetHorizon(h time.Duration) {
	if h <= 0 {
		h = DefaultHorizon
	}
	r.horizon.Store(int64(h))
}

// Cutoff returns the instant before which entries are expired.
func (r *Retention) Cutoff(now time.Time) time.Time { return now.Add(-r.Horizon()) }

// newID returns a time-ordered random id (UUIDv7). Ids created within the
// same millisecond still sort in creation order.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
