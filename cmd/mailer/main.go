// Command mailer drains the email notification queue.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"fms/internal/config"
	"fms/internal/logger"
	"fms/internal/queue"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config: %v", err)
	}
	zlog, err := logger.New(cfg.Server.Mode, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zlog.Info("mailer started", zap.String("queue", cfg.AMQP.Queue))
	err = queue.Consume(ctx, cfg.AMQP.URL, cfg.AMQP.Queue, queue.LogSender{Log: zlog}, zlog)
	if err != nil && !errors.Is(err, context.Canceled) {
		zlog.Fatal("mailer stopped", zap.Error(err))
	}
	zlog.Info("mailer stopped")
}
