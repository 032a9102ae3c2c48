package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"note-backend/internal/bootstrap"
	"note-backend/internal/queue"
	"note-backend/internal/shared/config"
	"note-backend/internal/shared/telemetry"
)

const (
	defaultWorkerConcurrency  = 4
	defaultShutdownTimeoutSec = 30
)

func main() {
	cfg := config.Load()

	if strings.TrimSpace(cfg.AMQPURL) == "" {
		log.Fatal("AMQP_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	concurrency := envInt("NB_WORKER_CONCURRENCY", defaultWorkerConcurrency)
	shutdownTimeout := time.Duration(envInt("NB_SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	consumer, err := queue.NewConsumer(ctx, cfg.AMQPURL, concurrency)
	if err != nil {
		log.Fatalf("connect broker: %v", err)
	}
	defer consumer.Close()

	deliveries, err := consumer.Deliveries()
	if err != nil {
		log.Fatalf("start consuming: %v", err)
	}

	sem := make(chan struct{}, max(1, concurrency))
	var wg sync.WaitGroup

	log.Printf("worker started queue=%s concurrency=%d", queue.ResultQueue, concurrency)

consumeLoop:
	for {
		select {
		case <-ctx.Done():
			break consumeLoop
		case d, ok := <-deliveries:
			if !ok {
				log.Printf("delivery channel closed")
				break consumeLoop
			}
			select {
			case <-ctx.Done():
				requeue(d)
				break consumeLoop
			case sem <- struct{}{}:
			}
			wg.Add(1)
			go func(d amqp.Delivery) {
				defer wg.Done()
				defer func() { <-sem }()
				handleDelivery(ctx, app, d)
			}(d)
		}
	}

	log.Printf("shutdown requested, waiting up to %s for in-flight results", shutdownTimeout)
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		log.Printf("shutdown timeout reached; exiting with in-flight results")
	}
}

func handleDelivery(ctx context.Context, app *bootstrap.App, d amqp.Delivery) {
	out := app.Processor.Handle(ctx, d.Body)

	// Every message is acked exactly once; outcomes are reflected in the
	// record's status, never in redelivery.
	if err := d.Ack(false); err != nil {
		telemetry.Error("worker.result.ack_failed", map[string]any{
			"note_image_id": out.NoteImageID,
			"error":         err.Error(),
		})
	}
}

func requeue(d amqp.Delivery) {
	if err := d.Nack(false, true); err != nil {
		telemetry.Error("worker.result.requeue_failed", map[string]any{
			"error": err.Error(),
		})
	}
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
