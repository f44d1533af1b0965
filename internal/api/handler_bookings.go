package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"simrig-booking-backend/internal/booking"
	"simrig-booking-backend/internal/model"
)

type createBookingRequest struct {
	MachineID       int64  `json:"machineId" binding:"required"`
	Date            string `json:"date" binding:"required"`
	StartTime       string `json:"startTime" binding:"required"`
	DurationMinutes int    `json:"durationMinutes" binding:"required"`
	CustomerName    string `json:"customerName" binding:"required"`
	CustomerPhone   string `json:"customerPhone"`
	Notes           string `json:"notes"`
	Confirmed       bool   `json:"confirmed"`
}

// PostBooking handles POST /api/bookings. Conflicting intervals come
// back as 409 with the interval that is in the way.
func (h *Handler) PostBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	b, err := h.ledger.Create(ctx, booking.CreateParams{
		MachineID:       req.MachineID,
		Date:            req.Date,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		Notes:           req.Notes,
		Confirmed:       req.Confirmed,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.monitor.Refresh(ctx)
	c.JSON(http.StatusCreated, b)
}

// GetBookings handles GET /api/bookings?machine_id=&date=.
func (h *Handler) GetBookings(c *gin.Context) {
	machineID, err := strconv.ParseInt(c.Query("machine_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "machine_id is required"})
		return
	}
	date := c.Query("date")
	if date == "" {
		date = h.clock.Today()
	}

	bookings, err := h.ledger.GetByMachineAndDate(c.Request.Context(), machineID, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

type patchBookingRequest struct {
	CustomerName    *string `json:"customerName"`
	CustomerPhone   *string `json:"customerPhone"`
	Notes           *string `json:"notes"`
	Status          *string `json:"status"`
	MachineID       *int64  `json:"machineId"`
	Date            *string `json:"date"`
	StartTime       *string `json:"startTime"`
	DurationMinutes *int    `json:"durationMinutes"`
}

// PatchBooking handles PATCH /api/bookings/:id. Reschedules re-run the
// conflict check against the new interval.
func (h *Handler) PatchBooking(c *gin.Context) {
	var req patchBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	params := booking.UpdateParams{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		Notes:           req.Notes,
		MachineID:       req.MachineID,
		Date:            req.Date,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
	}
	if req.Status != nil {
		status := model.BookingStatus(*req.Status)
		params.Status = &status
	}

	ctx := c.Request.Context()
	b, err := h.ledger.Update(ctx, c.Param("id"), params)
	if err != nil {
		respondError(c, err)
		return
	}
	h.monitor.Refresh(ctx)
	c.JSON(http.StatusOK, b)
}

// DeleteBooking handles DELETE /api/bookings/:id: cancellation.
// Cancelling twice is fine; the interval frees immediately.
func (h *Handler) DeleteBooking(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.ledger.Cancel(ctx, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	h.monitor.Refresh(ctx)
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}

// GetDaySchedule handles GET /api/machines/:id/schedule?date=.
func (h *Handler) GetDaySchedule(c *gin.Context) {
	machineID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid machine id"})
		return
	}
	date := c.Query("date")
	if date == "" {
		date = h.clock.Today()
	}

	sched, err := h.ledger.GetDaySchedule(c.Request.Context(), machineID, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sched)
}

// GetDurations handles GET /api/durations: the offered catalog.
func (h *Handler) GetDurations(c *gin.Context) {
	c.JSON(http.StatusOK, h.cfg.Durations)
}
