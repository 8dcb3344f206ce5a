package controllers

import (
	"net/http"
	"time"

	"sagiri-relay/backend/app/dto"
	"sagiri-relay/backend/app/relay"
)

type HTTPController struct {
	Relay *relay.Relay
}

func NewHTTPController(r *relay.Relay) *HTTPController {
	return &HTTPController{Relay: r}
}

func (c *HTTPController) Ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

func (c *HTTPController) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.InfoResponse{
		Status:   "online",
		Uptime:   c.Relay.Uptime().Round(time.Second).String(),
		Horizon:  c.Relay.Horizon().String(),
		Commands: c.Relay.Commands.Len(),
		Keyboard: c.Relay.Keyboard.Len(),
		Files:    len(c.Relay.Files.List()),
		Devices:  len(c.Relay.Screens.Devices()),
	})
}

func (c *HTTPController) Sweep(w http.ResponseWriter, r *http.Request) {
	report := c.Relay.Sweeper.Sweep(r.Context())
	writeJSON(w, http.StatusOK, dto.SweepResponse{Status: "cleaned", Cutoff: report.Cutoff, Removed: report.Removed})
}
