package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pratik-mahalle/altseo/internal/access"
	"github.com/pratik-mahalle/altseo/internal/pkg/logger"
)

const defaultHeartbeat = 25 * time.Second

// AccountEvent is one message on the account event stream
type AccountEvent struct {
	Type      string    `json:"type"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventsHandler streams account changes (plan or role) to the signed-in user
// as server-sent events, so a dashboard can refetch quota and plan state.
type EventsHandler struct {
	hub       *access.Hub
	logger    *logger.Logger
	heartbeat time.Duration
}

// NewEventsHandler creates an events handler
func NewEventsHandler(hub *access.Hub, log *logger.Logger) *EventsHandler {
	return &EventsHandler{hub: hub, logger: log, heartbeat: defaultHeartbeat}
}

// Stream handles GET /api/v1/events
// @Summary Account event stream
// @Tags Usage
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200 {object} AccountEvent
// @Router /events [get]
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	rc := http.NewResponseController(w)
	// The stream outlives the server write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	changes, unsubscribe := h.hub.Subscribe(userID)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	log := h.logger.WithFields(map[string]interface{}{"user_id": userID})
	log.Debug("Event stream opened")
	defer log.Debug("Event stream closed")

	if err := writeEvent(w, rc, AccountEvent{Type: "connected", Timestamp: time.Now().UTC()}); err != nil {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case c := <-changes:
			ev := AccountEvent{Type: "account_changed", Reason: c.Reason, Timestamp: time.Now().UTC()}
			if err := writeEvent(w, rc, ev); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, rc *http.ResponseController, ev AccountEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return err
	}
	return rc.Flush()
}
