package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type checkInRequest struct {
	CustomerName    string `json:"customerName"`
	DurationMinutes int    `json:"durationMinutes"`
}

// PostCheckIn handles POST /api/machines/:id/checkin. The reserved
// path links the session to the machine's nearest confirmed booking;
// the walk-in path promotes the first waiting queue entry or takes an
// explicit customer name.
func (h *Handler) PostCheckIn(c *gin.Context) {
	machineID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid machine id"})
		return
	}

	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	sess, err := h.sessions.CheckIn(ctx, machineID, req.CustomerName, req.DurationMinutes)
	if err != nil {
		respondError(c, err)
		return
	}
	h.monitor.Refresh(ctx)
	c.JSON(http.StatusCreated, sess)
}

// PostEndSession handles POST /api/sessions/:id/end.
func (h *Handler) PostEndSession(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.sessions.End(ctx, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	h.monitor.Refresh(ctx)
	c.JSON(http.StatusOK, gin.H{"ended": true})
}
