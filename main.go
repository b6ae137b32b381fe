package main

import (
	"github.com/joho/godotenv"

	"go-healthwatch/config"
	"go-healthwatch/cronjobs"
	"go-healthwatch/db"
	"go-healthwatch/emergency"
	"go-healthwatch/lifecycle"
	"go-healthwatch/logger"
	"go-healthwatch/messaging"
	"go-healthwatch/outbreak"
	"go-healthwatch/processor"
	"go-healthwatch/routes"
)

func main() {
	log := logger.New("healthwatch")

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.WithError(err).Warn("no .env file loaded")
	}

	cfg := config.Load()

	// Init firestore
	firestoreClient, err := db.InitFirestore()
	if err != nil {
		log.WithError(err).Fatal("failed to initialize Firestore")
	}
	defer db.CloseFirestore() // Firestore client is closed on exit

	reportRepo := db.NewReportRepo(firestoreClient)
	alertRepo := db.NewAlertRepo(firestoreClient)

	// Notification fan-out over AMQP. The server still comes up without it;
	// detection decisions are durable before any notification attempt.
	var notifier processor.Notifier
	var broadcaster outbreak.Broadcaster
	rmq, err := messaging.NewRabbitMQ(cfg.AMQPURL, log)
	if err != nil {
		log.WithError(err).Warn("RabbitMQ unavailable, notifications disabled")
	} else {
		defer rmq.Close()
		notifier = rmq
		broadcaster = rmq
	}

	engine := emergency.NewEngine(reportRepo, cfg, log)
	detector := outbreak.NewDetector(reportRepo, alertRepo, broadcaster, cfg, log)
	manager := lifecycle.NewManager(reportRepo, cfg, log)
	proc := processor.New(reportRepo, engine, detector, notifier, log)

	// Initialize cron jobs
	cronjobs.InitCronJobs(detector, manager, log)

	r := routes.SetupRouter(proc, reportRepo, alertRepo, manager, detector)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("failed to start server")
	}
}
