// Package main is the entry point for ASCII Tactics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/samdwyer/asciitactics/data"
	"github.com/samdwyer/asciitactics/internal/config"
	"github.com/samdwyer/asciitactics/internal/entity"
	"github.com/samdwyer/asciitactics/internal/game"
	"github.com/samdwyer/asciitactics/internal/gamedata"
	"github.com/samdwyer/asciitactics/internal/observability"
	"github.com/samdwyer/asciitactics/internal/scenario"
	"github.com/samdwyer/asciitactics/internal/spectate"
	"github.com/samdwyer/asciitactics/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	scenarioName := flag.String("scenario", "", "scenario to play; overrides content.scenario")
	flag.Parse()

	// Load .env file for local development
	// This makes HONEYCOMB_ASCIITACTICS_API_KEY available
	if err := godotenv.Load(); err != nil {
		// Not fatal - env vars might be set directly
		log.Printf("Note: .env file not loaded: %v", err)
	}

	// Set up OTEL environment variables from our .env variables
	setupOTelEnv()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *scenarioName != "" {
		cfg.Content.Scenario = *scenarioName
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Setup(ctx)
		if err != nil {
			logger.Warn("telemetry setup failed, running without observability", zap.Error(err))
			telemetry.Disable()
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Warn("shutting down telemetry", zap.Error(err))
				}
			}()
		}
	} else {
		telemetry.Disable()
	}

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("game error", zap.Error(err))
		log.Fatalf("Game error: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	content := contentFS(cfg.Content.Dir)
	reg, err := gamedata.LoadRegistries(content)
	if err != nil {
		return fmt.Errorf("loading content: %w", err)
	}
	logger.Info("content loaded",
		zap.Int("abilities", reg.Abilities.Count()),
		zap.Int("templates", reg.Templates.Count()),
	)

	s, err := loadScenario(ctx, cfg, content, reg, logger)
	if err != nil {
		return err
	}
	units, err := s.Units()
	if err != nil {
		return err
	}

	gameCfg := game.Config{
		Rules:    entity.MoveRules{Cost: cfg.Rules.MoveCost, MaxClimb: cfg.Rules.MaxClimb},
		LogSize:  cfg.Rules.LogSize,
		NPCDelay: cfg.Rules.NPCDelay,
	}
	engine, err := game.NewEngine(s.Map, units, gameCfg, logger)
	if err != nil {
		return fmt.Errorf("scenario %q: %w", s.Name, err)
	}

	var publisher game.Publisher
	if cfg.Spectate.Addr != "" {
		hub := spectate.NewHub(logger)
		defer hub.Close()
		srv := startSpectator(cfg.Spectate.Addr, hub, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		publisher = hub
	}

	g, err := game.New(engine, gameCfg, logger, publisher)
	if err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	return g.Run(ctx)
}

// contentFS returns the content directory, or the embedded data when dir is empty.
func contentFS(dir string) fs.FS {
	if dir == "" {
		return data.FS()
	}
	return os.DirFS(dir)
}

// loadScenario loads the configured scenario or generates an arena.
func loadScenario(ctx context.Context, cfg config.Config, content fs.FS, reg *gamedata.Registries, logger *zap.Logger) (*scenario.Scenario, error) {
	opts := scenario.Options{
		MaxElevation:     cfg.Rules.MaxElevation,
		CautiousDistance: cfg.Rules.CautiousDistance,
		GuardRadius:      cfg.Rules.GuardRadius,
	}

	if cfg.Content.Scenario != "" {
		s, err := scenario.Load(content, cfg.Content.Scenario, reg, opts)
		if err != nil {
			return nil, fmt.Errorf("loading scenario: %w", err)
		}
		logger.Info("scenario loaded", zap.String("name", s.Name), zap.Int("entities", len(s.Placements)))
		return s, nil
	}

	seed := cfg.Generate.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	s, err := scenario.Generate(ctx, reg, cfg.Generate.Width, cfg.Generate.Height, cfg.Generate.Enemies, rng, opts)
	if err != nil {
		return nil, fmt.Errorf("generating arena: %w", err)
	}
	logger.Info("arena generated", zap.Int64("seed", seed), zap.Int("entities", len(s.Placements)))
	return s, nil
}

// startSpectator serves the hub at /ws in the background.
func startSpectator(addr string, hub *spectate.Hub, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("spectator server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("spectator server failed", zap.Error(err))
		}
	}()
	return srv
}

// setupOTelEnv configures OTEL environment variables from our custom env vars.
func setupOTelEnv() {
	// Default the endpoint to Honeycomb; an operator's own collector wins
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "https://api.honeycomb.io")
	}

	// Always set headers from our API key - the .env file may have an unexpanded
	// variable reference that doesn't work, so we construct it properly here
	apiKey := os.Getenv("HONEYCOMB_ASCIITACTICS_API_KEY")
	dataset := os.Getenv("HONEYCOMB_ASCIITACTICS_DATASET")
	if dataset == "" {
		dataset = "asciitactics" // default dataset name
	}
	if apiKey != "" {
		os.Setenv("OTEL_EXPORTER_OTLP_HEADERS",
			fmt.Sprintf("x-honeycomb-team=%s,x-honeycomb-dataset=%s", apiKey, dataset))
	}
}
