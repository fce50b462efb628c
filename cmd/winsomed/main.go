package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/winsomenet/winsome/config"
	"github.com/winsomenet/winsome/notify"
	"github.com/winsomenet/winsome/persist"
	"github.com/winsomenet/winsome/reward"
	"github.com/winsomenet/winsome/server"
	"github.com/winsomenet/winsome/store"
)

func main() {
	godotenv.Load()
	configPath := flag.String("config", os.Getenv("WINSOME_CONFIG"), "path to JSON configuration")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load[config.Config](*configPath)
		if err != nil {
			slog.Error("configuration rejected", "error", err)
			os.Exit(1)
		}
		cfg = *loaded
	}
	if listen := os.Getenv("WINSOME_LISTEN"); listen != "" {
		cfg.Listen = listen
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}

	entities := store.New()
	saver, err := persist.Open(cfg.DataPath, entities)
	if err != nil {
		slog.Error("could not open state database", "path", cfg.DataPath, "error", err)
		os.Exit(1)
	}
	defer saver.Close()
	if err := saver.Load(); err != nil {
		slog.Error("could not load persisted state", "error", err)
		os.Exit(1)
	}

	side := notify.NewSideChannel(entities)
	entities.SetNotifier(side)

	multicast, err := notify.NewMulticast(cfg.Multicast)
	if err != nil {
		slog.Error("could not join multicast group", "group", cfg.Multicast, "error", err)
		os.Exit(1)
	}
	defer multicast.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := reward.NewEngine(entities, time.Duration(cfg.RewardIntervalSeconds)*time.Second, cfg.AuthorPercent, multicast)
	srv := server.NewServer(entities, cfg.Workers, cfg.QueueDepth, cfg.Multicast)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		engine.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		saver.Run(ctx, time.Duration(cfg.SaveIntervalSeconds)*time.Second)
	}()
	go func() {
		defer wg.Done()
		if err := side.Serve(ctx, cfg.SideChannel); err != nil {
			slog.Error("side channel failed", "error", err)
			stop()
		}
	}()

	if err := srv.Serve(ctx, cfg.Listen); err != nil {
		slog.Error("server failed", "error", err)
	}
	stop()
	wg.Wait()
}
