package handlers

import (
	"net/http"

	"sponsorly/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler returns the latest dependency snapshot. It answers 503 when
// any dependency failed its last probe.
func HealthHandler(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	state := "ok"
	if !status.Healthy() {
		code, state = http.StatusServiceUnavailable, "degraded"
	}
	c.JSON(code, gin.H{"status": state, "dependencies": status})
}
