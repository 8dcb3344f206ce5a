package network

import (
	"encoding/json"
	"time"

	"sagiri-relay/backend/app/dto"
	"sagiri-relay/backend/app/models"
)

// Wire types shared with the relay.
type (
	Command         = models.Command
	CommandOutput   = models.CommandOutput
	ScreenFrame     = models.ScreenFrame
	PointerRequest  = models.PointerRequest
	KeyboardRequest = models.KeyboardRequest
	AudioChunk      = models.AudioChunk
	AudioDirection  = models.AudioDirection
	KeyboardKind    = models.KeyboardKind
	PointerAction   = models.PointerAction
	FileEntry       = dto.FileEntry
	Info            = dto.InfoResponse
)

const (
	Microphone = models.AudioMicrophone
	Speaker    = models.AudioSpeaker
)

type FileUpload struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Blake3   string `json:"blake3"`
}

// FileDownload describes a completed download.
type FileDownload struct {
	ID       string
	Filename string
	Size     int64
	Blake3   string
}

type KeyboardResult struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
}

// Done reports whether the agent has reported a result.
func (r KeyboardResult) Done() bool { return r.Status == string(models.KeyboardCompleted) }

type SweepReport struct {
	Status  string         `json:"status"`
	Cutoff  time.Time      `json:"cutoff"`
	Removed map[string]int `json:"removed"`
}
