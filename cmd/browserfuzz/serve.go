package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"browserfuzz/internal/api"
	"browserfuzz/internal/config"
	"browserfuzz/internal/metrics"
	"browserfuzz/internal/mutator"
	"browserfuzz/internal/payload"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a freshly synthesized payload to every HTTP request",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.String("config", "", "path to a TOML config file")
	f.String("addr", "", "listen address (overrides config)")
	f.String("metrics-addr", "", "optional address for the Prometheus endpoint")
	f.String("mode", "", `fragment mode: "generate" or "mutate"`)
	f.String("seed", "", "seed file for mutate mode (built-in seed when empty)")
	f.Int("length-min", 0, "minimum fragment length for generate mode")
	f.Int("length-max", 0, "maximum fragment length for generate mode")
	f.String("alphabet", "", `replacement alphabet: "printable" or "bytes"`)
	f.Bool("debug", false, "log every delivery session")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadServeConfig(cmd)
	if err != nil {
		return err
	}

	debug, _ := cmd.Flags().GetBool("debug")
	logger, err := newLogger(debug)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	synth, err := buildSynthesizer(cfg, logger)
	if err != nil {
		return err
	}

	m := metrics.New()
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewServer(logger, synth, m, cfg.Server.ContentType),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var metricsSrv *http.Server
	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		metricsSrv = &http.Server{
			Addr:              cfg.Server.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("serving fuzz payloads",
			zap.String("addr", cfg.Server.Addr),
			zap.String("mode", cfg.Payload.Mode),
			zap.String("alphabet", cfg.Payload.Alphabet))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("fuzz listener: %w", err)
		}
		return nil
	})
	if metricsSrv != nil {
		g.Go(func() error {
			logger.Info("serving metrics", zap.String("addr", metricsSrv.Addr))
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics listener: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(shutCtx)
		}
		return nil
	})
	return g.Wait()
}

// loadServeConfig layers flag overrides on top of the file (or defaults).
// Only flags the user actually set participate.
func loadServeConfig(cmd *cobra.Command) (config.Config, error) {
	f := cmd.Flags()

	cfg := config.Default()
	if path, _ := f.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	// Test harnesses point the binary at a free port via the environment.
	if v := os.Getenv("FUZZ_HTTP_ADDR"); v != "" && !f.Changed("addr") {
		cfg.Server.Addr = v
	}
	if f.Changed("addr") {
		cfg.Server.Addr, _ = f.GetString("addr")
	}
	if f.Changed("metrics-addr") {
		cfg.Server.MetricsAddr, _ = f.GetString("metrics-addr")
	}
	if f.Changed("mode") {
		cfg.Payload.Mode, _ = f.GetString("mode")
	}
	if f.Changed("seed") {
		cfg.Mutate.SeedFile, _ = f.GetString("seed")
	}
	if f.Changed("length-min") {
		cfg.Payload.LengthMin, _ = f.GetInt("length-min")
	}
	if f.Changed("length-max") {
		cfg.Payload.LengthMax, _ = f.GetInt("length-max")
	}
	if f.Changed("alphabet") {
		cfg.Payload.Alphabet, _ = f.GetString("alphabet")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func buildSynthesizer(cfg config.Config, logger *zap.Logger) (*payload.Synthesizer, error) {
	alphabet, err := mutator.ParseAlphabet(cfg.Payload.Alphabet)
	if err != nil {
		return nil, err
	}

	switch cfg.Payload.Mode {
	case config.ModeGenerate:
		gen, err := payload.NewGenerator(cfg.Payload.LengthMin, cfg.Payload.LengthMax, alphabet)
		if err != nil {
			return nil, err
		}
		return payload.NewSynthesizer(gen), nil

	case config.ModeMutate:
		seed, err := loadSeed(cfg.Mutate.SeedFile)
		if err != nil {
			return nil, err
		}
		logger.Info("loaded seed", zap.Int("bytes", len(seed)))
		mut, err := mutator.New(alphabet, mutator.CountBounds{Min: cfg.Mutate.CountMin, Max: cfg.Mutate.CountMax})
		if err != nil {
			return nil, err
		}
		src, err := payload.NewSeedMutation(mut, seed)
		if err != nil {
			return nil, err
		}
		return payload.NewSynthesizer(src), nil
	}
	return nil, fmt.Errorf("unknown payload mode %q", cfg.Payload.Mode)
}

func loadSeed(path string) ([]byte, error) {
	if path == "" {
		return []byte(payload.DefaultSeed), nil
	}
	seed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	if len(seed) == 0 {
		return nil, fmt.Errorf("seed file %s is empty", path)
	}
	return seed, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if debug {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zcfg.Build()
}
