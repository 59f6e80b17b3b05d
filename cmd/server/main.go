package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/channels"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/config"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/engine"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/server"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/store"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/version"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/world"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/logger"
)

func init() {
	logger.Init()
}

func main() {
	// 1. Парсинг конфигурации
	var seed int64
	var configPath string
	// Флаг -seed перекрывает сид из файла. 0 = сгенерировать случайно.
	flag.Int64Var(&seed, "seed", 0, "Master world seed (0 for random)")
	flag.StringVar(&configPath, "config", "", "Path to config.yaml (optional)")
	flag.Parse()

	logger.Log.Info("Starting world server...")
	logger.Log.Info(version.String())

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Log.Fatal("Failed to load config:", err)
	}

	if seed != 0 {
		cfg.Seed = seed
	}
	if cfg.Seed == 0 {
		cfg.Seed = rand.New(rand.NewSource(time.Now().UnixNano())).Int63()
		logger.Log.Infof("🎲 Using random Master Seed: %d", cfg.Seed)
	} else {
		logger.Log.Infof("🎲 Using explicit Master Seed: %d", cfg.Seed)
	}

	if port := os.Getenv("WORLD_PORT"); port != "" {
		cfg.Port = port
	}

	// 2. Инициализация ядра
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Log.Fatal("Failed to open store:", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Log.WithError(err).Warn("store close failed")
		}
	}()

	hub := channels.NewHub()
	registry := world.NewRegistry(cfg.Seed, cfg.MapWidth, cfg.MapHeight)
	gameService := engine.NewService(st, hub, registry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gameService.StartSweeper(ctx)

	// Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 3. Запуск сервера
	srv := server.New(gameService, cfg.Port)

	go func() {
		if err := srv.Run(); err != nil {
			logger.Log.Fatal("Server start error:", err)
		}
	}()

	<-stop
	logger.Log.Info("Shutting down...")

	cancel()
	if err := hub.Close(); err != nil {
		logger.Log.WithError(err).Warn("hub close failed")
	}

	logger.Log.Info("Done.")
}
