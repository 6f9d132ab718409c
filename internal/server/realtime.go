package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/veridianip/veridian/backend/internal/accounts"
	"github.com/veridianip/veridian/backend/internal/realtime"
)

const heartbeatInterval = 30 * time.Second

type eventPayload struct {
	Reference string    `json:"reference"`
	Status    string    `json:"status,omitempty"`
	OwnerID   string    `json:"owner_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// handleEventStream serves server-sent events for the caller's submissions.
// Admins receive every event. The subscription lives exactly as long as the
// request: client disconnect cancels the request context, which tears the
// listener down.
func (h *httpHandler) handleEventStream(c *gin.Context) {
	if h.events == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming_unsupported"})
		return
	}

	ctx := c.Request.Context()
	var (
		stream <-chan realtime.Message
		cancel func()
	)
	if c.GetString(roleContextKey) == accounts.RoleAdmin {
		stream, cancel = h.events.SubscribeAll(ctx)
	} else {
		stream, cancel = h.events.Subscribe(ctx, c.GetString(userIDContextKey))
	}
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(c.Writer, "event: heartbeat\ndata: {}\n\n")
			flusher.Flush()
		case message, open := <-stream:
			if !open {
				return
			}
			data, err := json.Marshal(eventPayload{
				Reference: message.Reference,
				Status:    message.Status,
				OwnerID:   message.OwnerID,
				Timestamp: message.Timestamp,
			})
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", message.EventType, data)
			flusher.Flush()
		}
	}
}
