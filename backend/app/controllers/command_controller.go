package controllers

import (
	"net/http"

	"sagiri-relay/backend/app/dto"
	"sagiri-relay/backend/app/services"
)

type CommandController struct {
	Commands *services.CommandService
}

func NewCommandController(commands *services.CommandService) *CommandController {
	return &CommandController{Commands: commands}
}

// Submit handles POST /commands.
func (c *CommandController) Submit(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitCommandRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cmd, err := c.Commands.Submit(req.CommandText(), req.DeviceID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SubmitCommandResponse{ID: cmd.ID, Status: string(cmd.Status)})
}

// Pending handles GET /commands/pending. Agents identify themselves with
// device_id so they also see commands addressed to them.
func (c *CommandController) Pending(w http.ResponseWriter, r *http.Request) {
	cmds := c.Commands.Pending(deviceIDFromRequest(r))
	out := make(dto.PendingCommandsResponse, len(cmds))
	for _, cmd := range cmds {
		out[cmd.ID] = cmd
	}
	writeJSON(w, http.StatusOK, out)
}

// Complete handles POST /commands/{id}/complete.
func (c *CommandController) Complete(w http.ResponseWriter, r *http.Request) {
	var req dto.CompleteCommandRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Output == nil {
		writeJSONError(w, http.StatusBadRequest, "missing output")
		return
	}
	if _, err := c.Commands.Complete(r.PathValue("id"), *req.Output); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, success())
}

// Status handles GET /commands/{id}.
func (c *CommandController) Status(w http.ResponseWriter, r *http.Request) {
	cmd, err := c.Commands.Status(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cmd)
}
