// cmd/fitbud/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mibgheda/fitbud-bot/internal/ai"
	"github.com/mibgheda/fitbud-bot/internal/bot"
	"github.com/mibgheda/fitbud-bot/internal/config"
	"github.com/mibgheda/fitbud-bot/internal/media"
	"github.com/mibgheda/fitbud-bot/internal/server"
	"github.com/mibgheda/fitbud-bot/internal/session"
	"github.com/mibgheda/fitbud-bot/internal/storage"
)

var (
	configPath = flag.String("config", "", "Path to YAML config file (optional)")
	port       = flag.Int("port", 0, "Port for HTTP transport (overrides config)")
	host       = flag.String("host", "", "Host address (overrides config)")
	version    = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("fitbud version 1.0.0")
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *port != 0 {
		cfg.Port = *port
	}

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer store.Close()

	mediaStore, err := media.NewStore(cfg.MediaDir)
	if err != nil {
		log.Fatalf("create media store: %v", err)
	}

	sessions := session.NewStore(cfg.SessionTTL.Std())
	defer sessions.Close()

	gateway := ai.NewClient(ai.Config{
		BaseURL:         cfg.AI.BaseURL,
		APIKey:          cfg.AI.APIKey,
		Model:           cfg.AI.Model,
		AdviceModel:     cfg.AI.AdviceModel,
		TranscribeModel: cfg.AI.TranscribeModel,
		Language:        cfg.AI.Language,
		Timeout:         cfg.AI.Timeout.Std(),
	})

	controller := bot.NewController(gateway, store, sessions, mediaStore)

	srv, err := server.NewFitbudServer(&server.Config{Host: cfg.Host, Port: cfg.Port}, controller)
	if err != nil {
		log.Fatalf("create server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-sigCh:
		log.Println("received shutdown signal")
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down...")
	cancel()
	if err := srv.Stop(); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
