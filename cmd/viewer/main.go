//go:build !js

// Package main is the entry point for the veggie scene viewer.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/veggieview/internal/config"
	"github.com/Faultbox/veggieview/internal/engine/app"
	"github.com/Faultbox/veggieview/internal/engine/assets"
	"github.com/Faultbox/veggieview/internal/engine/ebitenhost"
	"github.com/Faultbox/veggieview/internal/engine/glhost"
	"github.com/Faultbox/veggieview/internal/engine/window"
	"github.com/Faultbox/veggieview/internal/logger"
	"github.com/Faultbox/veggieview/internal/viewer"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Veggie View ===",
		zap.String("backend", cfg.Graphics.Backend),
		zap.String("assets", cfg.Scene.AssetRoot),
	)
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("viewer error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("viewer closed normally")
}

func run(cfg *config.Config) error {
	fsys, err := assets.DefaultSource(cfg.Scene.AssetRoot)
	if err != nil {
		return err
	}

	a, err := viewer.NewApp(cfg, fsys)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.Run(ctx, newRunner(cfg.Graphics))
}

func newRunner(g config.GraphicsConfig) app.Runner {
	if g.Backend == config.BackendEbiten {
		return &ebitenhost.Runner{
			Title:       g.Title,
			Width:       g.Width,
			Height:      g.Height,
			Fullscreen:  g.Fullscreen,
			VSync:       g.VSync,
			OwnsSurface: true,
		}
	}
	return &glhost.Runner{
		Window: window.Config{
			Title:      g.Title,
			Width:      g.Width,
			Height:     g.Height,
			Fullscreen: g.Fullscreen,
			VSync:      g.VSync,
		},
		ScreenshotDir: g.ScreenshotDir,
	}
}
