package routes

import (
	"github.com/gin-gonic/gin"

	"go-healthwatch/db"
	"go-healthwatch/handlers"
	"go-healthwatch/lifecycle"
	"go-healthwatch/outbreak"
	"go-healthwatch/processor"
)

func SetupRouter(
	proc *processor.Processor,
	reportRepo *db.ReportRepo,
	alertRepo *db.AlertRepo,
	manager *lifecycle.Manager,
	detector *outbreak.Detector,
) *gin.Engine {
	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "Hello, welcome to HealthWatch!",
		})
	})

	api := r.Group("/api/healthwatch")
	{
		api.POST("/reports", func(c *gin.Context) {
			handlers.CreateReport(c, proc)
		})
		api.GET("/reports", func(c *gin.Context) {
			handlers.ListReports(c, reportRepo)
		})
		api.PATCH("/reports/:id/approval", func(c *gin.Context) {
			handlers.UpdateApproval(c, reportRepo)
		})

		api.GET("/alerts", func(c *gin.Context) {
			handlers.ListAlerts(c, alertRepo)
		})

		api.GET("/lifecycle/stats", func(c *gin.Context) {
			handlers.LifecycleStats(c, manager)
		})
		api.POST("/lifecycle/run", func(c *gin.Context) {
			handlers.RunLifecycle(c, manager)
		})
		api.POST("/scan", func(c *gin.Context) {
			handlers.TriggerScan(c, detector)
		})
	}

	return r
}
