package mw

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newCachedRouter(hits *int) *gin.Engine {
	store := cache.New(time.Minute, 2*time.Minute)
	r := gin.New()
	r.GET("/counted", Cache(store, time.Minute), func(c *gin.Context) {
		*hits++
		c.JSON(http.StatusOK, gin.H{"hits": *hits})
	})
	r.GET("/failing", Cache(store, time.Minute), func(c *gin.Context) {
		*hits++
		c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
	})
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestCacheServesSecondGetFromCache(t *testing.T) {
	hits := 0
	r := newCachedRouter(&hits)

	first := get(r, "/counted")
	require.Equal(t, http.StatusOK, first.Code)
	second := get(r, "/counted")
	require.Equal(t, http.StatusOK, second.Code)

	assert.Equal(t, 1, hits, "second request must not reach the handler")
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestCacheKeysOnFullRequestURI(t *testing.T) {
	hits := 0
	r := newCachedRouter(&hits)

	get(r, "/counted?date=2025-06-10")
	get(r, "/counted?date=2025-06-11")

	assert.Equal(t, 2, hits, "different query strings cache independently")
}

func TestCacheSkipsErrorResponses(t *testing.T) {
	hits := 0
	r := newCachedRouter(&hits)

	get(r, "/failing")
	get(r, "/failing")

	assert.Equal(t, 2, hits, "error responses are not cached")
}

func TestRateLimiterRejectsBurstOverflow(t *testing.T) {
	r := gin.New()
	r.GET("/limited", RateLimiter(1, 2), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, get(r, "/limited").Code)
	}

	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Equal(t, http.StatusTooManyRequests, codes[2])
}

func TestRateLimiterTracksClientsSeparately(t *testing.T) {
	limiter := NewIPRateLimiter(1, 1)

	for i := 0; i < 3; i++ {
		ip := fmt.Sprintf("10.0.0.%d", i)
		assert.True(t, limiter.GetLimiter(ip).Allow(), "fresh client gets its own burst")
	}
}
