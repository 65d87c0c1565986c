// cmd/arena/main.go
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/opd-ai/go-arena/pkg/config"
	"github.com/opd-ai/go-arena/pkg/engine"
	"github.com/opd-ai/go-arena/pkg/event"
	"github.com/opd-ai/go-arena/pkg/health"
	"github.com/opd-ai/go-arena/pkg/logging"
	"github.com/opd-ai/go-arena/pkg/network"
	"github.com/opd-ai/go-arena/pkg/render"
	"github.com/opd-ai/go-arena/pkg/resource"
)

func main() {
	logger := logging.NewLogger()
	ctx := logging.WithRunID(context.Background(), "")

	configPath := flag.String("config", "arena.json", "Path to configuration file (.json or .yaml)")
	createDefault := flag.Bool("default", false, "Create default configuration file")
	ticks := flag.Uint64("ticks", 0, "Stop after this many ticks (overrides simulation.maxTicks)")
	renderMode := flag.String("render", "none", "Renderer: none, terminal or screen")
	cols := flag.Int("cols", 80, "Terminal renderer columns")
	rows := flag.Int("rows", 30, "Terminal renderer rows")
	showCells := flag.Bool("cells", false, "Draw quad-tree leaf cells")
	streamAddr := flag.String("stream", "", "Serve frames on this address (overrides stream.address)")
	fast := flag.Bool("fast", false, "Tick as fast as possible instead of in real time")
	flag.Parse()

	if *createDefault {
		if err := config.SaveConfig(config.DefaultConfig(), *configPath); err != nil {
			logger.Error(ctx, "Failed to create default configuration", err,
				"config_path", *configPath,
			)
			os.Exit(1)
		}
		logger.Info(ctx, "Created default configuration file",
			"config_path", *configPath,
		)
		return
	}

	cfg, err := loadConfig(ctx, logger, *configPath)
	if err != nil {
		logger.Error(ctx, "Failed to load configuration", err,
			"config_path", *configPath,
		)
		os.Exit(1)
	}
	if *ticks > 0 {
		cfg.Simulation.MaxTicks = *ticks
	}
	if *streamAddr != "" {
		cfg.Stream.Address = *streamAddr
		if err := cfg.Validate(); err != nil {
			logger.Error(ctx, "Invalid stream configuration", err)
			os.Exit(1)
		}
	}

	bus := event.NewEventBus()
	var inert, collisions int
	bus.Subscribe(event.BodyInert, func(e event.Event) {
		inert++
		logger.Info(ctx, "Body went inert", "id", e.(*event.BodyInertEvent).ID)
	})
	bus.Subscribe(event.BodyCollision, func(event.Event) { collisions++ })

	world, err := engine.NewWorldFromConfig(cfg,
		engine.WithContext(ctx),
		engine.WithLogger(logger),
		engine.WithEventBus(bus),
	)
	if err != nil {
		logger.Error(ctx, "Failed to build world", err)
		os.Exit(1)
	}

	resources := resource.NewResourceManager(cfg.Resources, logger)
	if err := resources.Start(); err != nil {
		logger.Error(ctx, "Failed to start resource manager", err)
		os.Exit(1)
	}

	progress := &health.Progress{}
	healthChecker := health.NewHealthChecker()
	healthChecker.AddCheck(health.NewSimulationHealthCheck(progress,
		time.Duration(cfg.Simulation.StallSeconds)*time.Second,
	))
	healthChecker.AddCheck(resource.NewResourceHealthCheck(resources))

	d := &driver{
		world:      world,
		logger:     logger,
		progress:   progress,
		tickRate:   cfg.Simulation.TickRate,
		maxTicks:   cfg.Simulation.MaxTicks,
		fast:       *fast,
		frameEvery: cfg.Stream.FrameEvery,
		showCells:  *showCells,
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Stream.Address != "" {
		server := network.NewFrameServer(cfg.Stream, network.Hello{
			RunID:    logging.RunID(ctx),
			Width:    cfg.Width,
			Height:   cfg.Height,
			TickRate: cfg.Simulation.TickRate,
		}, logger)
		if err := server.Start(runCtx); err != nil {
			logger.Error(ctx, "Failed to start frame server", err,
				"address", cfg.Stream.Address,
			)
			os.Exit(1)
		}
		defer server.Close()
		healthChecker.AddCheck(health.NewStreamHealthCheck(server.Addr))
		d.stream = server
	}

	var screen tcell.Screen
	switch *renderMode {
	case "none":
	case "terminal":
		d.renderer = render.NewTerminalRenderer(os.Stdout, *cols, *rows, true)
	case "screen":
		screen, err = tcell.NewScreen()
		if err != nil {
			logger.Error(ctx, "Failed to create screen", err)
			os.Exit(1)
		}
		if err := screen.Init(); err != nil {
			logger.Error(ctx, "Failed to initialize screen", err)
			os.Exit(1)
		}
		if err := resources.StartGoroutine(runCtx, "screen-input", func(context.Context) {
			pollScreen(screen, stop)
		}); err != nil {
			screen.Fini()
			logger.Error(ctx, "Failed to start screen input", err)
			os.Exit(1)
		}
		d.renderer = render.NewScreenRenderer(screen)
	default:
		logger.Error(ctx, "Unknown renderer", nil, "render", *renderMode)
		os.Exit(1)
	}

	healthPort := "8080"
	if envPort := os.Getenv("ARENA_HEALTH_PORT"); envPort != "" {
		if _, err := strconv.Atoi(envPort); err == nil {
			healthPort = envPort
		}
	}
	healthServer := &http.Server{
		Addr:         ":" + healthPort,
		Handler:      healthChecker.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	if err := resources.StartGoroutine(ctx, "health-server", func(ctx context.Context) {
		logger.Info(ctx, "Starting health check server", "port", healthPort)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "Health check server failed", err)
		}
	}); err != nil {
		logger.Error(ctx, "Failed to start health check server", err)
		os.Exit(1)
	}

	logger.Info(ctx, "Starting simulation",
		"bodies", world.Len(),
		"tick_rate", cfg.Simulation.TickRate,
		"max_ticks", cfg.Simulation.MaxTicks,
		"render", *renderMode,
	)
	started := time.Now()
	runErr := d.run(runCtx)
	stop()
	if screen != nil {
		screen.Fini()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Resources.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Health check server shutdown failed", err)
	}
	if err := resources.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Resource manager shutdown failed", err)
	}

	logger.Info(ctx, "Simulation finished",
		"ticks", world.CurrentTick(),
		"alive", world.Alive(),
		"inert", inert,
		"collisions", collisions,
		"elapsed", time.Since(started).Round(time.Millisecond).String(),
	)
	if runErr != nil {
		logger.Error(ctx, "Simulation stopped on error", runErr)
		os.Exit(1)
	}
}

// loadConfig reads path, falling back to the defaults when it does not
// exist, then applies ARENA_* environment overrides
func loadConfig(ctx context.Context, logger *logging.Logger, path string) (*config.ArenaConfig, error) {
	cfg := config.DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info(ctx, "Configuration file not found, using default configuration",
			"config_path", path,
		)
	} else {
		cfg, err = config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}
	return config.WithOverrides(cfg)
}

// pollScreen calls quit on Escape, q or Ctrl-C
func pollScreen(screen tcell.Screen, quit func()) {
	for {
		switch ev := screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
				(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
				quit()
				return
			}
		case *tcell.EventResize:
			screen.Sync()
		}
	}
}
