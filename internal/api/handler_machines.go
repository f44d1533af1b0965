package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"simrig-booking-backend/internal/model"
)

// GetMachines handles GET /api/machines: the staff board, every
// machine with its derived occupancy state.
func (h *Handler) GetMachines(c *gin.Context) {
	states, err := h.occupancy.States(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve machine states"})
		return
	}
	c.JSON(http.StatusOK, states)
}

type createMachineRequest struct {
	DisplayName string `json:"displayName" binding:"required"`
	Position    int    `json:"position"`
}

// PostMachine handles POST /api/machines.
func (h *Handler) PostMachine(c *gin.Context) {
	var req createMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m := model.Machine{
		DisplayName: req.DisplayName,
		Position:    req.Position,
		IsActive:    true,
		Status:      model.MachineAvailable,
	}
	if err := h.store.CreateMachine(c.Request.Context(), &m); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create machine"})
		return
	}
	c.JSON(http.StatusCreated, m)
}

type patchMachineRequest struct {
	DisplayName *string `json:"displayName"`
	Position    *int    `json:"position"`
	IsActive    *bool   `json:"isActive"`
	Status      *string `json:"status"`
}

// PatchMachine handles PATCH /api/machines/:id. Machines are edited
// and deactivated here, never deleted.
func (h *Handler) PatchMachine(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid machine id"})
		return
	}

	var req patchMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	m, err := h.store.GetMachine(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "machine not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load machine"})
		}
		return
	}

	if req.DisplayName != nil {
		m.DisplayName = *req.DisplayName
	}
	if req.Position != nil {
		m.Position = *req.Position
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}
	if req.Status != nil {
		status := model.MachineStatus(*req.Status)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown machine status"})
			return
		}
		m.Status = status
	}

	if err := h.store.SaveMachine(ctx, m); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save machine"})
		return
	}
	h.monitor.Refresh(ctx)
	c.JSON(http.StatusOK, m)
}
