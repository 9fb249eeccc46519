package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"meela-intake/models"
	"meela-intake/utils"
)

type HealthHandler struct {
	repo  models.Repository
	cache utils.RedisClient
}

func NewHealthHandler(repo models.Repository, cache utils.RedisClient) *HealthHandler {
	return &HealthHandler{repo: repo, cache: cache}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	details := gin.H{"database": "available"}
	status := http.StatusOK

	if err := h.repo.Ping(ctx); err != nil {
		details["database"] = "unavailable"
		status = http.StatusServiceUnavailable
	}

	if h.cache != nil {
		details["redis"] = "available"
		if err := h.cache.Ping(ctx); err != nil {
			details["redis"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "details": details})
}
