package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/eleven-am/live-gateway/internal/shared"
	"github.com/labstack/echo/v4"
)

const sseKeepAliveInterval = 30 * time.Second

// StreamEvents godoc
// @Summary      Tail session events
// @Description  Server-sent events stream of everything the session emits, mirrored through redis so any node can serve it. The stream ends when the session does.
// @Tags         live
// @Produce      text/event-stream
// @Param        id  path  string  true  "session ID"
// @Success      200
// @Failure      401  {object}  shared.APIError
// @Failure      404  {object}  shared.APIError
// @Failure      503  {object}  shared.APIError
// @Security     APIKeyAuth
// @Security     SessionAuth
// @Router       /live/sessions/{id}/events [get]
func (h *Handler) StreamEvents(c echo.Context) error {
	rec, err := h.ownedSession(c)
	if err != nil {
		return err
	}

	events, stop, err := h.hub.Subscribe(rec.ID)
	if err != nil {
		h.logger.Warn("failed to open event stream", "error", err, "session_id", rec.ID)
		return shared.ServiceUnavailable("stream_capacity", "event stream capacity reached")
	}
	defer stop()

	var w http.ResponseWriter = c.Response()
	flusher, ok := w.(http.Flusher)
	if !ok {
		return shared.InternalError("streaming_unsupported", "streaming not supported")
	}

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(sseKeepAliveInterval)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil

		case msg, open := <-events:
			if !open {
				return nil
			}
			data, err := json.Marshal(msg)
			if err != nil {
				h.logger.Error("failed to marshal event", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return nil
			}
			flusher.Flush()
			if msg.Type == MessageTypeEnded {
				return nil
			}

		case <-ticker.C:
			if _, err := fmt.Fprint(w, ":keepalive\n\n"); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}
