package controllers

import (
	"net/http"

	"sagiri-relay/backend/app/dto"
	"sagiri-relay/backend/app/services"
)

type ScreenController struct {
	Screens  *services.ScreenService
	Commands *services.CommandService
}

func NewScreenController(screens *services.ScreenService, commands *services.CommandService) *ScreenController {
	return &ScreenController{Screens: screens, Commands: commands}
}

// Publish handles POST /devices/{id}/screen.
func (c *ScreenController) Publish(w http.ResponseWriter, r *http.Request) {
	var req dto.ScreenFrameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, err := c.Screens.Publish(r.PathValue("id"), req.Frame()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, success())
}

// Latest handles GET /devices/{id}/screen.
func (c *ScreenController) Latest(w http.ResponseWriter, r *http.Request) {
	frame, err := c.Screens.Latest(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewScreenFrameResponse(frame))
}

// Quality handles POST /devices/{id}/screen/quality by queueing a screen
// control command for the device.
func (c *ScreenController) Quality(w http.ResponseWriter, r *http.Request) {
	var req dto.ScreenQualityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cmd, err := c.Commands.SetScreenQuality(r.PathValue("id"), req.Quality)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ScreenQualityResponse{Status: "success", Quality: req.Quality, CommandID: cmd.ID})
}

// Devices handles GET /devices.
func (c *ScreenController) Devices(w http.ResponseWriter, r *http.Request) {
	ids := c.Screens.Devices()
	writeJSON(w, http.StatusOK, dto.DevicesResponse{Devices: ids, Count: len(ids)})
}
