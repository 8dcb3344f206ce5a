package models

import "time"

type AudioDirection string

const (
	// AudioMicrophone flows agent -> controller.
	AudioMicrophone AudioDirection = "microphone"
	// AudioSpeaker flows controller -> agent.
	AudioSpeaker AudioDirection = "speaker"
)

func ParseAudioDirection(s string) (AudioDirection, bool) {
	switch AudioDirection(s) {
	case AudioMicrophone, AudioSpeaker:
		return AudioDirection(s), true
	}
	return "", false
}

type AudioChunk struct {
	DeviceID  string         `json:"device_id"`
	Direction AudioDirection `json:"direction"`
	Payload   string         `json:"audio_data"`
	Format    string         `json:"format"`
	Channels  int            `json:"channels"`
	Rate      int            `json:"rate"`
	CreatedAt time.Time      `json:"created_at"`
}
