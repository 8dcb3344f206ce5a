package dto

import (
	"encoding/json"
	"time"

	"sagiri-relay/backend/app/models"
)

type StatusResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type InfoResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Horizon  string `json:"horizon"`
	Commands int    `json:"commands"`
	Keyboard int    `json:"keyboard"`
	Files    int    `json:"files"`
	Devices  int    `json:"devices"`
}

// SubmitCommandRequest accepts the command under either "text" or
// "command". DeviceID is optional.
type SubmitCommandRequest struct {
	Text     string `json:"text"`
	Command  string `json:"command"`
	DeviceID string `json:"device_id,omitempty"`
}

func (r SubmitCommandRequest) CommandText() string {
	if r.Text != "" {
		return r.Text
	}
	return r.Command
}

type SubmitCommandResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type CompleteCommandRequest struct {
	Output *models.CommandOutput `json:"output"`
}

// PendingCommandsResponse maps command id to command.
type PendingCommandsResponse map[string]models.Command

type FileUploadResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Size     int64  `json:"size"`
	Blake3   string `json:"blake3"`
}

type FileEntry struct {
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	Blake3    string    `json:"blake3"`
	CreatedAt time.Time `json:"created_at"`
}

// FileListResponse maps file id to its metadata.
type FileListResponse map[string]FileEntry

// ScreenFrameRequest accepts the image under either "image" or "frame".
type ScreenFrameRequest struct {
	Image        string    `json:"image"`
	FrameData    string    `json:"frame"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	ScreenWidth  int       `json:"screen_width"`
	ScreenHeight int       `json:"screen_height"`
	MouseX       int       `json:"mouse_x"`
	MouseY       int       `json:"mouse_y"`
	CapturedAt   time.Time `json:"captured_at"`
}

func (r ScreenFrameRequest) Frame() models.ScreenFrame {
	image := r.Image
	if image == "" {
		image = r.FrameData
	}
	return models.ScreenFrame{
		Image:        image,
		Width:        r.Width,
		Height:       r.Height,
		ScreenWidth:  r.ScreenWidth,
		ScreenHeight: r.ScreenHeight,
		CursorX:      r.MouseX,
		CursorY:      r.MouseY,
		CapturedAt:   r.CapturedAt,
	}
}

// ScreenFrameResponse repeats the image under "frame" for clients that
// read that key.
type ScreenFrameResponse struct {
	models.ScreenFrame
	Frame string `json:"frame"`
}

func NewScreenFrameResponse(f models.ScreenFrame) ScreenFrameResponse {
	return ScreenFrameResponse{ScreenFrame: f, Frame: f.Image}
}

type ScreenQualityRequest struct {
	Quality int `json:"quality"`
}

type ScreenQualityResponse struct {
	Status    string `json:"status"`
	Quality   int    `json:"quality"`
	CommandID string `json:"command_id"`
}

type DevicesResponse struct {
	Devices []string `json:"devices"`
	Count   int      `json:"count"`
}

type PointerRequest struct {
	Action string `json:"action"`
	X      *int   `json:"x,omitempty"`
	Y      *int   `json:"y,omitempty"`
	Button string `json:"button,omitempty"`
}

type PointerRequestResponse struct {
	Status   string `json:"status"`
	Replaced bool   `json:"replaced"`
}

// ResultRequest carries an opaque JSON result from an agent.
type ResultRequest struct {
	Result json.RawMessage `json:"result"`
}

type ResultResponse struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
}

type KeyboardRequest struct {
	Kind    string `json:"kind"`
	Payload string `json:"payload"`
}

type KeyboardRequestResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// AudioChunkRequest accepts the samples under either "audio_data" or
// "payload".
type AudioChunkRequest struct {
	Data     string `json:"audio_data"`
	Payload  string `json:"payload"`
	Format   string `json:"format"`
	Channels int    `json:"channels"`
	Rate     int    `json:"rate"`
}

func (r AudioChunkRequest) AudioData() string {
	if r.Data != "" {
		return r.Data
	}
	return r.Payload
}

type AudioChunkResponse struct {
	models.AudioChunk
	Payload string `json:"payload"`
}

func NewAudioChunkResponse(c models.AudioChunk) AudioChunkResponse {
	return AudioChunkResponse{AudioChunk: c, Payload: c.Payload}
}

type AudioPushResponse struct {
	Status  string `json:"status"`
	Dropped int    `json:"dropped"`
}

type SweepResponse struct {
	Status  string         `json:"status"`
	Cutoff  time.Time      `json:"cutoff"`
	Removed map[string]int `json:"removed"`
}
