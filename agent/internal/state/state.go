package state

import (
	"sync/atomic"
	"time"
)

// Screen holds the screen-sharing settings the command loop changes and
// the screen loop reads.
type Screen struct {
	active   atomic.Bool
	quality  atomic.Int32
	interval atomic.Int64
}

func NewScreen(quality int, interval time.Duration) *Screen {
	s := &Screen{}
	s.quality.Store(int32(quality))
	s.interval.Store(int64(interval))
	return s
}

func (s *Screen) Active() bool                 { return s.active.Load() }
func (s *Screen) SetActive(on bool) (was bool) { return s.active.Swap(on) }
func (s *Screen) Quality() int                 { return int(s.quality.Load()) }
func (s *Screen) SetQuality(q int)             { s.quality.Store(int32(q)) }
func (s *Screen) Interval() time.Duration      { return time.Duration(s.interval.Load()) }
func (s *Screen) SetInterval(d time.Duration)  { s.interval.Store(int64(d)) }

// Audio tracks which audio directions are streaming.
type Audio struct {
	mic     atomic.Bool
	speaker atomic.Bool
}

func (a *Audio) Microphone() bool           { return a.mic.Load() }
func (a *Audio) Speaker() bool              { return a.speaker.Load() }
func (a *Audio) SetMicrophone(on bool) bool { return a.mic.Swap(on) }
func (a *Audio) SetSpeaker(on bool) bool    { return a.speaker.Swap(on) }

type appState struct {
	DeviceID atomic.Value // string
}

var s appState

func SetDeviceID(id string) { s.DeviceID.Store(id) }
func GetDeviceID() string {
	if v := s.DeviceID.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
