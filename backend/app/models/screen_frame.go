package models

import "time"

// ScreenFrame is the most recent capture of a device's screen. Image is a
// base64 JPEG; Width/Height describe the image, ScreenWidth/ScreenHeight
// the physical screen the cursor coordinates refer to.
type ScreenFrame struct {
	DeviceID     string    `json:"device_id"`
	Image        string    `json:"image"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	ScreenWidth  int       `json:"screen_width"`
	ScreenHeight int       `json:"screen_height"`
	CursorX      int       `json:"mouse_x"`
	CursorY      int       `json:"mouse_y"`
	CapturedAt   time.Time `json:"captured_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
