package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetOccupancy handles GET /api/occupancy: one freshly derived
// snapshot of every machine's state.
func (h *Handler) GetOccupancy(c *gin.Context) {
	states, err := h.occupancy.States(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve machine states"})
		return
	}
	c.JSON(http.StatusOK, states)
}

// StreamOccupancy handles GET /api/occupancy/stream: a server-sent
// event feed of occupancy snapshots. Subscribers get the last known
// snapshot immediately, then every refresh until they disconnect.
func (h *Handler) StreamOccupancy(c *gin.Context) {
	ch, cancel := h.hub.Subscribe()
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case states, ok := <-ch:
			if !ok {
				return false
			}
			payload, err := json.Marshal(states)
			if err != nil {
				return false
			}
			c.SSEvent("occupancy", string(payload))
			return true
		case <-ctx.Done():
			return false
		}
	})
}
