package controllers

import (
	"fmt"
	"net/http"

	"sagiri-relay/backend/app/dto"
	"sagiri-relay/backend/app/models"
	"sagiri-relay/backend/app/services"
	"sagiri-relay/backend/global"
)

type AudioController struct {
	Audio *services.AudioService
}

func NewAudioController(audio *services.AudioService) *AudioController {
	return &AudioController{Audio: audio}
}

// Push handles POST /devices/{id}/audio/{direction}.
func (c *AudioController) Push(w http.ResponseWriter, r *http.Request) {
	dir, ok := models.ParseAudioDirection(r.PathValue("direction"))
	if !ok {
		writeServiceError(w, fmt.Errorf("%w: unknown audio direction %q", services.ErrInvalid, r.PathValue("direction")))
		return
	}
	var req dto.AudioChunkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	deviceID := r.PathValue("id")
	dropped, err := c.Audio.Push(deviceID, dir, models.AudioChunk{
		Payload:  req.AudioData(),
		Format:   req.Format,
		Channels: req.Channels,
		Rate:     req.Rate,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if dropped > 0 {
		global.Logger.Debug().Str("device", deviceID).Str("direction", string(dir)).Int("dropped", dropped).Msg("audio overflow")
	}
	writeJSON(w, http.StatusOK, dto.AudioPushResponse{Status: "success", Dropped: dropped})
}

// Pop handles GET /devices/{id}/audio/{direction}.
func (c *AudioController) Pop(w http.ResponseWriter, r *http.Request) {
	dir, ok := models.ParseAudioDirection(r.PathValue("direction"))
	if !ok {
		writeServiceError(w, fmt.Errorf("%w: unknown audio direction %q", services.ErrInvalid, r.PathValue("direction")))
		return
	}
	chunk, ok, err := c.Audio.Pop(r.PathValue("id"), dir)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, dto.StatusResponse{Status: "no_data"})
		return
	}
	writeJSON(w, http.StatusOK, dto.NewAudioChunkResponse(chunk))
}
