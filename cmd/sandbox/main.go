// cmd/sandbox/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/opd-ai/go-physics2d/pkg/config"
	"github.com/opd-ai/go-physics2d/pkg/engine"
	"github.com/opd-ai/go-physics2d/pkg/event"
	"github.com/opd-ai/go-physics2d/pkg/health"
	"github.com/opd-ai/go-physics2d/pkg/logging"
	"github.com/opd-ai/go-physics2d/pkg/physics"
	"github.com/opd-ai/go-physics2d/pkg/render"
	"github.com/opd-ai/go-physics2d/pkg/scene"
)

func main() {
	logger := logging.NewLogger()
	ctx := context.Background()

	configPath := flag.String("config", "physics2d.yaml", "Path to configuration file (YAML or JSON)")
	createDefault := flag.Bool("default", false, "Create default configuration file and exit")
	scenePath := flag.String("scene", "", "Path to a scene file; overrides -generate")
	generate := flag.String("generate", "default", "Generated scene kind: "+strings.Join(scene.Kinds(), ", "))
	count := flag.Int("count", 20, "Number of dynamic bodies in a generated scene")
	seed := flag.Uint64("seed", 1, "Seed for generated scenes")
	ticks := flag.Int("ticks", -1, "Number of ticks to run; overrides the configuration when >= 0")
	realtime := flag.Bool("realtime", false, "Step at the configured tick rate instead of as fast as possible")
	renderFrames := flag.Bool("render", false, "Render terminal frames; overrides the configuration")
	pngDir := flag.String("png", "", "Directory to write one PNG per rendered frame")
	healthAddr := flag.String("health", "", "Address for the health and state endpoints, e.g. :8080")
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

	cfg, err := loadConfig(*configPath, logger)
	if err != nil {
		logger.Error(ctx, "Failed to load configuration", err, "config_path", *configPath)
		os.Exit(1)
	}
	if err := config.ApplyEnvironmentOverrides(cfg); err != nil {
		logger.Error(ctx, "Failed to apply environment configuration", err)
		os.Exit(1)
	}
	if *ticks >= 0 {
		cfg.Simulation.Ticks = *ticks
	}
	if *renderFrames {
		cfg.Simulation.Render.Enabled = true
	}

	sc, err := loadScene(*scenePath, *generate, *count, *seed)
	if err != nil {
		logger.Error(ctx, "Failed to load scene", err,
			"scene", *scenePath,
			"generate", *generate,
		)
		os.Exit(1)
	}
	sc.ApplyTo(&cfg.Physics)

	sim, err := engine.NewSimulation(cfg, logger)
	if err != nil {
		logger.Error(ctx, "Failed to create simulation", err)
		os.Exit(1)
	}

	bodies, err := sc.Build(cfg.Physics.DefaultMass)
	if err != nil {
		logger.Error(ctx, "Failed to build scene", err, "scene", sc.Name)
		os.Exit(1)
	}
	for _, b := range bodies {
		if err := sim.AddBody(b); err != nil {
			logger.Error(ctx, "Failed to add body", err, "body", b.ID())
			os.Exit(1)
		}
	}
	logger.Info(ctx, "Scene loaded",
		"scene", sc.Name,
		"bodies", len(bodies),
		"broad_phase", cfg.Physics.BroadPhase.String(),
		"resolution", cfg.Physics.Resolution.String(),
	)

	sim.EventBus.Subscribe(event.CollisionStart, func(e event.Event) {
		ce := e.(*event.CollisionEvent)
		logger.Debug(ctx, "Collision started", "tick", ce.Tick, "body_a", ce.BodyA, "body_b", ce.BodyB)
	})
	sim.EventBus.Subscribe(event.CollisionEnd, func(e event.Event) {
		ce := e.(*event.CollisionEvent)
		logger.Debug(ctx, "Collision ended", "tick", ce.Tick, "body_a", ce.BodyA, "body_b", ce.BodyB)
	})

	if rc := cfg.Simulation.Render; rc.Enabled || *pngDir != "" {
		if err := attachRenderers(sim, rc, *pngDir, logger); err != nil {
			logger.Error(ctx, "Failed to set up rendering", err, "png_dir", *pngDir)
			os.Exit(1)
		}
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var healthServer *http.Server
	if *healthAddr != "" {
		healthServer = startHealthServer(*healthAddr, sim, logger)
	}

	if *realtime || cfg.Simulation.Ticks == 0 {
		err = sim.Run(runCtx, cfg.Simulation.Ticks)
	} else {
		err = sim.Advance(cfg.Simulation.Ticks)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(ctx, "Simulation failed", err)
	}

	if healthServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			logger.Error(ctx, "Health check server shutdown failed", err)
		}
		cancel()
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sim.GetState()); err != nil {
		logger.Error(ctx, "Failed to write final state", err)
		os.Exit(1)
	}
}

// loadConfig falls back to defaults when path does not exist
func loadConfig(path string, logger *logging.Logger) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info(context.Background(), "Configuration file not found, using default configuration",
			"config_path", path,
		)
		return config.DefaultConfig(), nil
	}
	return config.LoadConfig(path)
}

func loadScene(path, kind string, count int, seed uint64) (*scene.Scene, error) {
	if path != "" {
		return scene.LoadSceneFromFile(path)
	}
	return scene.Generate(kind, count, seed)
}

// attachRenderers draws a frame every rc.Every ticks to the terminal and,
// when pngDir is set, to numbered PNG files
func attachRenderers(sim *engine.Simulation, rc config.RenderConfig, pngDir string, logger *logging.Logger) error {
	var term *render.TerminalRenderer
	if rc.Enabled {
		term = render.NewTerminalRenderer(rc.Width, rc.Height, rc.Scale)
		term.SetCenter(rc.Center)
		term.ClearScreen = true
	}

	var img *render.ImageRenderer
	var sink *render.FrameSink
	if pngDir != "" {
		var err error
		if sink, err = render.NewFrameSink(pngDir, render.DefaultFrameSinkConfig(), logger); err != nil {
			return err
		}
		// eight pixels per character cell
		img = render.NewImageRenderer(rc.Width*8, rc.Height*8, rc.Scale/8)
		img.SetCenter(rc.Center)
	}

	every := uint64(max(rc.Every, 1))
	sim.OnTick(func(tick uint64, w *physics.World) {
		if tick%every != 0 {
			return
		}
		if term != nil {
			term.Clear()
			render.DrawWorld(term, w, false)
			if err := term.Present(os.Stderr); err != nil {
				logger.Warn(context.Background(), "Failed to present frame", "tick", tick, "error", err)
			}
		}
		if img != nil {
			img.Clear()
			render.DrawWorld(img, w, true)
			// the sink logs failed and dropped frames
			sink.Write(tick, img)
		}
	})
	return nil
}

func startHealthServer(addr string, sim *engine.Simulation, logger *logging.Logger) *http.Server {
	ctx := context.Background()

	checker := health.NewChecker()
	checker.AddCheck(health.NewSimulationCheck(func() bool {
		sim.Lock.RLock()
		defer sim.Lock.RUnlock()
		return sim.Status == engine.StatusRunning
	}))
	checker.AddCheck(health.NewTickProgressCheck(func() uint64 {
		sim.Lock.RLock()
		defer sim.Lock.RUnlock()
		return sim.CurrentTick
	}, 5*time.Second))
	checker.AddCheck(health.NewMemoryCheck(500, nil))

	server := &http.Server{
		Addr:         addr,
		Handler:      checker.NewServeMux(func() any { return sim.GetState() }),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info(ctx, "Starting health check server", "address", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "Health check server failed", err)
		}
	}()
	return server
}
