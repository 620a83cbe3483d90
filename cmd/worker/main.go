package main

import (
	"StudyVault/config"
	"StudyVault/internal/repo"
	"StudyVault/internal/worker"
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	config.InitConfig()
	repo.InitMysql()
	repo.InitRedis()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go worker.RunAutoCancelSweeper(ctx)

	log.Println("notify worker started")
	if err := worker.RunNotifyWorker(ctx); err != nil {
		log.Fatalf("notify worker stopped: %v", err)
	}
}
