package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"simrig-booking-backend/config"
	"simrig-booking-backend/internal/booking"
	"simrig-booking-backend/internal/occupancy"
	"simrig-booking-backend/internal/queue"
	"simrig-booking-backend/internal/session"
	"simrig-booking-backend/internal/shopclock"
	"simrig-booking-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	cfg       *config.Config
	clock     shopclock.Clock
	ledger    *booking.Ledger
	occupancy *occupancy.Service
	hub       *occupancy.Hub
	monitor   *occupancy.Monitor
	queue     *queue.Service
	sessions  *session.Service
	webpush   *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(
	s store.Store,
	cfg *config.Config,
	clock shopclock.Clock,
	ledger *booking.Ledger,
	occupancySvc *occupancy.Service,
	hub *occupancy.Hub,
	monitor *occupancy.Monitor,
	queueSvc *queue.Service,
	sessionSvc *session.Service,
	webpushOptions *webpush.Options,
) *Handler {
	return &Handler{
		store:     s,
		cfg:       cfg,
		clock:     clock,
		ledger:    ledger,
		occupancy: occupancySvc,
		hub:       hub,
		monitor:   monitor,
		queue:     queueSvc,
		sessions:  sessionSvc,
		webpush:   webpushOptions,
	}
}

// respondError maps domain errors onto HTTP statuses. Conflicts carry
// the conflicting interval so a client can offer the next free slot.
func respondError(c *gin.Context, err error) {
	var (
		validation *booking.ValidationError
		notFound   *booking.NotFoundError
		conflict   *booking.ConflictError
	)
	switch {
	case errors.As(err, &conflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": conflict.Error(), "conflict": conflict})
	case errors.As(err, &notFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &validation):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validation.Error()})
	case errors.Is(err, session.ErrMachineOccupied), errors.Is(err, session.ErrMaintenance):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
