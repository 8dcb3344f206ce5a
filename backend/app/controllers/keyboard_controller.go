package controllers

import (
	"net/http"

	"sagiri-relay/backend/app/dto"
	"sagiri-relay/backend/app/models"
	"sagiri-relay/backend/app/services"
)

type KeyboardController struct {
	Keyboard *services.KeyboardService
}

func NewKeyboardController(keyboard *services.KeyboardService) *KeyboardController {
	return &KeyboardController{Keyboard: keyboard}
}

// Request handles POST /devices/{id}/keyboard.
func (c *KeyboardController) Request(w http.ResponseWriter, r *http.Request) {
	var req dto.KeyboardRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	kr, err := c.Keyboard.Request(r.PathValue("id"), models.KeyboardKind(req.Kind), req.Payload)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.KeyboardRequestResponse{ID: kr.ID, Status: string(kr.Status)})
}

// Pending handles GET /devices/{id}/keyboard/pending. Each request is
// handed out once.
func (c *KeyboardController) Pending(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.Keyboard.Pending(r.PathValue("id")))
}

// ReportResult handles POST /keyboard/{id}/result.
func (c *KeyboardController) ReportResult(w http.ResponseWriter, r *http.Request) {
	var req dto.ResultRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := c.Keyboard.ReportResult(r.PathValue("id"), req.Result); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, success())
}

// FetchResult handles GET /keyboard/{id}/result. A completed result is
// returned once.
func (c *KeyboardController) FetchResult(w http.ResponseWriter, r *http.Request) {
	kr, done, err := c.Keyboard.FetchResult(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !done {
		writeJSON(w, http.StatusOK, dto.ResultResponse{Status: string(kr.Status)})
		return
	}
	writeJSON(w, http.StatusOK, dto.ResultResponse{Status: string(kr.Status), Result: kr.Result})
}
