package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cjenolov/route-service/internal/database"
)

// PoolHealth summarizes the catalog database connection pool.
type PoolHealth struct {
	TotalConns    int32 `json:"totalConns"`
	IdleConns     int32 `json:"idleConns"`
	AcquiredConns int32 `json:"acquiredConns"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status       string      `json:"status"`
	Database     string      `json:"database"`
	Pool         *PoolHealth `json:"pool,omitempty"`
	CacheEntries int         `json:"cacheEntries"`
}

// HealthCheck handles the health check endpoint
func HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status: "ok",
	}

	// Check database connection
	if database.Pool() != nil {
		if err := database.Ping(c.Request.Context()); err != nil {
			response.Database = "disconnected"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
		response.Database = "connected"
		if stats := database.PoolStats(); stats != nil {
			response.Pool = &PoolHealth{
				TotalConns:    stats.TotalConns(),
				IdleConns:     stats.IdleConns(),
				AcquiredConns: stats.AcquiredConns(),
			}
		}
	} else {
		response.Database = "not configured"
	}

	if routeService != nil {
		response.CacheEntries = routeService.CacheSize()
	}

	c.JSON(http.StatusOK, response)
}
