package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"simrig-booking-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(h.cfg.Server.RateLimitPerSec), h.cfg.Server.RateLimitBurst)

	cacheTTL := time.Duration(h.cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/machines", h.GetMachines)
		api.POST("/machines", h.PostMachine)
		api.PATCH("/machines/:id", h.PatchMachine)
		api.GET("/machines/:id/schedule", caching, h.GetDaySchedule)
		api.POST("/machines/:id/checkin", h.PostCheckIn)

		api.POST("/bookings", h.PostBooking)
		api.GET("/bookings", h.GetBookings)
		api.PATCH("/bookings/:id", h.PatchBooking)
		api.DELETE("/bookings/:id", h.DeleteBooking)

		api.POST("/sessions/:id/end", h.PostEndSession)

		api.POST("/queue", h.PostQueue)
		api.GET("/queue", h.GetQueue)
		api.DELETE("/queue/:id", h.DeleteQueueEntry)

		api.GET("/occupancy", h.GetOccupancy)
		api.GET("/occupancy/stream", h.StreamOccupancy)

		api.GET("/durations", caching, h.GetDurations)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
