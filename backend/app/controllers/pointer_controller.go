package controllers

import (
	"net/http"

	"sagiri-relay/backend/app/dto"
	"sagiri-relay/backend/app/models"
	"sagiri-relay/backend/app/services"
)

type PointerController struct {
	Pointer *services.PointerService
}

func NewPointerController(pointer *services.PointerService) *PointerController {
	return &PointerController{Pointer: pointer}
}

// Request handles POST /devices/{id}/pointer.
func (c *PointerController) Request(w http.ResponseWriter, r *http.Request) {
	var req dto.PointerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	replaced, err := c.Pointer.Request(r.PathValue("id"), models.PointerRequest{
		Action: models.PointerAction(req.Action),
		X:      req.X,
		Y:      req.Y,
		Button: req.Button,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.PointerRequestResponse{Status: "success", Replaced: replaced})
}

// Consume handles GET /devices/{id}/pointer. An empty object means no
// request is waiting.
func (c *PointerController) Consume(w http.ResponseWriter, r *http.Request) {
	req, ok := c.Pointer.ConsumeRequest(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// ReportResult handles POST /devices/{id}/pointer/result.
func (c *PointerController) ReportResult(w http.ResponseWriter, r *http.Request) {
	var req dto.ResultRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := c.Pointer.ReportResult(r.PathValue("id"), req.Result); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, success())
}

// ConsumeResult handles GET /devices/{id}/pointer/result.
func (c *PointerController) ConsumeResult(w http.ResponseWriter, r *http.Request) {
	res, ok := c.Pointer.ConsumeResult(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusOK, dto.ResultResponse{Status: "pending"})
		return
	}
	writeJSON(w, http.StatusOK, dto.ResultResponse{Status: "completed", Result: res.Result})
}
