package models

import (
	"encoding/json"
	"time"
)

type KeyboardKind string

const (
	KeyboardText     KeyboardKind = "text"
	KeyboardShortcut KeyboardKind = "shortcut"
)

func (k KeyboardKind) Valid() bool {
	return k == KeyboardText || k == KeyboardShortcut
}

type KeyboardStatus string

const (
	KeyboardPending    KeyboardStatus = "pending"
	KeyboardProcessing KeyboardStatus = "processing"
	KeyboardCompleted  KeyboardStatus = "completed"
)

type KeyboardRequest struct {
	ID        string          `json:"id"`
	DeviceID  string          `json:"device_id"`
	Kind      KeyboardKind    `json:"kind"`
	Payload   string          `json:"payload"`
	Status    KeyboardStatus  `json:"status"`
	Result    json.RawMessage `json:"result,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
