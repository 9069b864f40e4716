//go:build js && wasm

// Package main is the browser entry point. The canvas follows the page
// viewport and models are fetched relative to the page.
package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/Faultbox/veggieview/internal/config"
	"github.com/Faultbox/veggieview/internal/engine/assets"
	"github.com/Faultbox/veggieview/internal/engine/ebitenhost"
	"github.com/Faultbox/veggieview/internal/logger"
	"github.com/Faultbox/veggieview/internal/viewer"
)

func main() {
	cfg := config.Default()
	cfg.Graphics.Backend = config.BackendEbiten

	if err := logger.Init(cfg.Logging.Level, ""); err != nil {
		panic(err)
	}
	defer logger.Sync()

	fsys, err := assets.DefaultSource(cfg.Scene.AssetRoot)
	if err != nil {
		logger.Fatal("asset source unavailable", zap.Error(err))
	}

	a, err := viewer.NewApp(cfg, fsys)
	if err != nil {
		logger.Fatal("failed to build viewer", zap.Error(err))
	}

	runner := &ebitenhost.Runner{
		Title:  cfg.Graphics.Title,
		Width:  cfg.Graphics.Width,
		Height: cfg.Graphics.Height,
		VSync:  cfg.Graphics.VSync,
	}
	if err := a.Run(context.Background(), runner); err != nil {
		logger.Fatal("viewer error", zap.Error(err))
	}
}
