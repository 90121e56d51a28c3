package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"reelforge/internal/api"
	"reelforge/internal/artifact"
	"reelforge/internal/config"
	"reelforge/internal/images"
	"reelforge/internal/jobs"
	"reelforge/internal/media"
	"reelforge/internal/queue"
	"reelforge/internal/ratelimit"
	"reelforge/internal/render"
	"reelforge/internal/speech"
	"reelforge/internal/telemetry"
	"reelforge/internal/worker"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
		log.Fatalf("create work dir: %v", err)
	}

	var q queue.Queue
	var limiter *ratelimit.Limiter
	switch strings.ToLower(cfg.QueueBackend) {
	case "redis":
		q = queue.NewRedis(cfg)
		if cfg.RateLimitCapacity > 0 {
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			limiter = ratelimit.New(client, cfg.RateLimitCapacity, cfg.RateLimitRefill, time.Hour)
		}
	default:
		q = queue.NewMemory(cfg.QueueCapacity)
	}

	st := jobs.NewStore()
	slots := jobs.NewSlots(cfg.MaxConcurrent)
	ff := media.New(cfg)
	tts := speech.NewClient(cfg)
	if !tts.Configured() {
		log.Print("GEMINI_API_KEY not set, product videos will be rendered silent")
	}

	art, err := artifact.New(ctx, cfg)
	if err != nil {
		log.Fatalf("artifact store: %v", err)
	}

	pipeline := render.New(cfg, ff, tts, images.NewFetcher(cfg))
	handlers := worker.NewHandlers(cfg, ff, pipeline, st, art)
	for i := 0; i < cfg.WorkerCount; i++ {
		p := worker.NewProcessor(cfg, q, st, slots)
		handlers.Register(p)
		go func(id int) {
			if err := p.Run(ctx); err != nil && ctx.Err() == nil {
				log.Printf("worker %d stopped: %v", id, err)
			}
		}(i)
	}

	go func() {
		if err := http.ListenAndServe(cfg.MetricsAddr, telemetry.Handler()); err != nil {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	server := api.New(cfg, st, q, ff, art, limiter)
	httpServer := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: server.Router(),
	}

	log.Printf("server listening on :%s (%d workers, %d slots)", cfg.HTTPPort, cfg.WorkerCount, slots.Cap())
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(shutdownCtx)
}
