package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type joinQueueRequest struct {
	MachineID       int64  `json:"machineId" binding:"required"`
	CustomerName    string `json:"customerName" binding:"required"`
	CustomerPhone   string `json:"customerPhone"`
	DurationMinutes int    `json:"durationMinutes" binding:"required"`
}

// PostQueue handles POST /api/queue: a walk-in joins the line.
func (h *Handler) PostQueue(c *gin.Context) {
	var req joinQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	entry, err := h.queue.Join(ctx, req.MachineID, req.CustomerName, req.CustomerPhone, req.DurationMinutes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// GetQueue handles GET /api/queue?machine_id=: the live line with
// per-entry waits plus the estimate a new arrival would get.
func (h *Handler) GetQueue(c *gin.Context) {
	machineID, err := strconv.ParseInt(c.Query("machine_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "machine_id is required"})
		return
	}

	entries, estimate, err := h.queue.Line(c.Request.Context(), machineID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "estimate": estimate})
}

// DeleteQueueEntry handles DELETE /api/queue/:id: leaving the line.
// Positions behind the leaver recompact immediately.
func (h *Handler) DeleteQueueEntry(c *gin.Context) {
	if err := h.queue.Leave(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}
