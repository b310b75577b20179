// cmd/worker/main.go
package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/mcgboard/permits-backend/internal/config"
	"github.com/mcgboard/permits-backend/internal/database"
	"github.com/mcgboard/permits-backend/internal/jobs"
	"github.com/mcgboard/permits-backend/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close(db)

	// The worker only transitions existing rows; it never notifies.
	permitService := services.NewPermitService(db, nil, services.SystemClock(), logger)
	handlers := jobs.NewTaskHandlers(permitService, logger)

	redisOpts := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	worker, err := jobs.NewWorker(redisOpts, handlers, cfg.Permits.ExpirySweepSchedule, logger)
	if err != nil {
		log.Fatal("Failed to initialize worker:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("worker started")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("Worker stopped:", err)
	}
	logger.Info("worker exited")
}
