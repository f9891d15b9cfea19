package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	appName string
	driver  string
}

func NewHealthHandler(appName, driver string) *HealthHandler {
	return &HealthHandler{appName: appName, driver: driver}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   h.appName + " API is running",
		"storage":   h.driver,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func NotFound(c *gin.Context) {
	respondMessage(c, http.StatusNotFound, "route not found")
}
