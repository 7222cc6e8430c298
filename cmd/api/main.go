package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docsearch/config"
	"docsearch/internal/server"
	"docsearch/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Error(err, "%v: load config", config.ModuleServer)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := server.NewStore(ctx, cfg)
	if err != nil {
		logger.Error(err, "%v: storage unavailable", config.ModuleServer)
		os.Exit(1)
	}
	logger.Info("%v: storing documents in %s", config.ModuleServer, store.Name())

	app := server.New(cfg, store)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error(err, "%v: shutdown", config.ModuleServer)
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	if err := app.Listen(addr); err != nil {
		logger.Error(err, "%v: server error", config.ModuleServer)
		os.Exit(1)
	}
}
