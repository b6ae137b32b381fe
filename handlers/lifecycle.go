package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-healthwatch/lifecycle"
	"go-healthwatch/outbreak"
)

// LifecycleStats exposes the aggregate lifecycle counts.
func LifecycleStats(c *gin.Context, m *lifecycle.Manager) {
	stats, err := m.GetStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// RunLifecycle triggers an aging pass outside the schedule. Admin hook.
func RunLifecycle(c *gin.Context, m *lifecycle.Manager) {
	if err := m.Run(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "lifecycle run complete"})
}

// TriggerScan runs the outbreak detector on demand and returns any alerts it
// created. Admin hook.
func TriggerScan(c *gin.Context, d *outbreak.Detector) {
	created, err := d.Scan(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alertsCreated": len(created), "alerts": created})
}
