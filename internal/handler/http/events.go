package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/sse"
)

const sseHeartbeat = 25 * time.Second

type EventHandler interface {
	Stream(w http.ResponseWriter, r *http.Request)
}

type eventHandlerImpl struct {
	hub *sse.Hub
}

func NewEventHandler(hub *sse.Hub) EventHandler {
	return &eventHandlerImpl{hub: hub}
}

// Stream handles GET /workflows/events. Each employee receives the
// transitions of requests they raised, acted on, or are next to approve.
func (h *eventHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming is not supported")
		return
	}

	events, cleanup := h.hub.Subscribe(id.EmployeeID)
	defer cleanup()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case event, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				slog.Error("Failed to encode event", "event", event.Name, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Name, data)
			flusher.Flush()
		}
	}
}
