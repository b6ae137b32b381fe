package cronjobs

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"go-healthwatch/lifecycle"
	"go-healthwatch/outbreak"
)

// InitCronJobs schedules the periodic detection work: the outbreak window
// re-scan and the daily lifecycle aging pass. Both jobs are idempotent, so
// an overlapping run is harmless.
func InitCronJobs(detector *outbreak.Detector, manager *lifecycle.Manager, log *logrus.Entry) *cron.Cron {
	log.Info("starting cron jobs")
	c := cron.New()

	// Outbreak scan: every 10 minutes
	_, err := c.AddFunc("*/10 * * * *", func() {
		log.Info("cronjob: outbreak scan running")
		if _, err := detector.Scan(context.Background()); err != nil {
			log.WithError(err).Error("cronjob: outbreak scan failed")
		}
	})
	if err != nil {
		log.WithError(err).Error("error scheduling outbreak scan")
	}

	// Lifecycle aging: daily at midnight
	_, err = c.AddFunc("0 0 * * *", func() {
		log.Info("cronjob: lifecycle aging running")
		if err := manager.Run(context.Background()); err != nil {
			log.WithError(err).Error("cronjob: lifecycle aging failed")
		}
	})
	if err != nil {
		log.WithError(err).Error("error scheduling lifecycle aging")
	}

	c.Start()
	return c
}
