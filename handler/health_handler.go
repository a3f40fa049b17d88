package handler

import (
	"database/sql"
	"time"

	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	DB        *sql.DB
	Cache     *services.SessionCache
	StartTime time.Time
}

func NewHealthHandler(db *sql.DB, cache *services.SessionCache) *HealthHandler {
	return &HealthHandler{DB: db, Cache: cache, StartTime: time.Now()}
}

func (h *HealthHandler) Health(c *gin.Context) {
	dbStatus := "ok"
	if h.DB != nil {
		if err := h.DB.PingContext(c.Request.Context()); err != nil {
			dbStatus = "unreachable"
		}
	}

	cacheStatus := "disabled"
	if h.Cache.IsConnected() {
		cacheStatus = "ok"
	}

	utils.Success(c, gin.H{
		"status":         "ok",
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"uptime":         time.Since(h.StartTime).String(),
		"database":       dbStatus,
		"session_cache":  cacheStatus,
		"cpu_percent":    utils.GetCPUUsage(),
		"memory_percent": utils.GetMemoryUsage(),
	})
}
