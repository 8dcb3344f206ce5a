package models

import (
	"encoding/json"
	"time"
)

type PointerAction string

const (
	PointerMove   PointerAction = "move"
	PointerClick  PointerAction = "click"
	PointerScroll PointerAction = "scroll"
)

func (a PointerAction) Valid() bool {
	switch a {
	case PointerMove, PointerClick, PointerScroll:
		return true
	}
	return false
}

type PointerRequest struct {
	DeviceID  string        `json:"device_id"`
	Action    PointerAction `json:"action"`
	X         *int          `json:"x"`
	Y         *int          `json:"y"`
	Button    string        `json:"button,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// PointerResult is opaque to the relay; agents report whatever their
// injector produced.
type PointerResult struct {
	DeviceID  string          `json:"device_id"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}
