package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-healthwatch/db"
)

// ListAlerts returns outbreak alerts, newest first. Pass ?active=true for
// the active feed only.
func ListAlerts(c *gin.Context, repo *db.AlertRepo) {
	activeOnly := c.Query("active") == "true"

	alerts, err := repo.List(c.Request.Context(), activeOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, alerts)
}
