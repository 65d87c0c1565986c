// cmd/viewer/main.go
package main

import (
	"context"
	"flag"
	"os"

	"github.com/EngoEngine/engo"

	"github.com/opd-ai/go-arena/pkg/config"
	"github.com/opd-ai/go-arena/pkg/engine"
	"github.com/opd-ai/go-arena/pkg/logging"
	"github.com/opd-ai/go-arena/pkg/network"
	engorender "github.com/opd-ai/go-arena/pkg/render/engo"
)

func main() {
	logger := logging.NewLogger()
	ctx := logging.WithRunID(context.Background(), "")

	configPath := flag.String("config", "arena.json", "Path to configuration file (.json or .yaml)")
	connect := flag.String("connect", "", "Watch the frame stream at this address instead of simulating locally")
	fullscreen := flag.Bool("fullscreen", false, "Run in fullscreen mode")
	width := flag.Int("width", 1024, "Window width")
	height := flag.Int("height", 768, "Window height")
	flag.Parse()

	cfg := config.DefaultConfig()
	if _, err := os.Stat(*configPath); os.IsNotExist(err) {
		logger.Info(ctx, "Configuration file not found, using default configuration",
			"config_path", *configPath,
		)
	} else if cfg, err = config.LoadConfig(*configPath); err != nil {
		logger.Error(ctx, "Failed to load configuration", err, "config_path", *configPath)
		os.Exit(1)
	}
	cfg, err := config.WithOverrides(cfg)
	if err != nil {
		logger.Error(ctx, "Failed to apply environment configuration", err)
		os.Exit(1)
	}

	var source engorender.Source
	title := "Go Arena"
	if *connect != "" {
		client, err := network.Dial(ctx, *connect, cfg.Stream.CircuitBreaker, logger)
		if err != nil {
			logger.Error(ctx, "Failed to connect to frame stream", err, "address", *connect)
			os.Exit(1)
		}
		defer client.Close()
		go func() {
			if err := client.Run(ctx); err != nil {
				logger.Error(ctx, "Frame stream failed", err)
			}
		}()

		hello := client.Hello()
		logger.Info(ctx, "Connected to frame stream",
			"address", *connect,
			"stream_run_id", hello.RunID,
			"tick_rate", hello.TickRate,
		)
		source = engorender.NewRemoteSource(client)
		title += " - " + *connect
	} else {
		world, err := engine.NewWorldFromConfig(cfg, engine.WithContext(ctx), engine.WithLogger(logger))
		if err != nil {
			logger.Error(ctx, "Failed to build world", err)
			os.Exit(1)
		}
		source = engorender.NewLocalSource(world, float64(cfg.Simulation.TickRate), nil)
	}

	engo.Run(engo.RunOptions{
		Title:      title,
		Width:      *width,
		Height:     *height,
		Fullscreen: *fullscreen,
		VSync:      true,
	}, engorender.NewArenaScene(source, logger))
}
