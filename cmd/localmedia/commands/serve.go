package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/localmedia/internal/cli/output"
	"github.com/marmos91/localmedia/internal/logger"
	"github.com/marmos91/localmedia/internal/telemetry"
	"github.com/marmos91/localmedia/pkg/api"
	"github.com/marmos91/localmedia/pkg/config"
	"github.com/marmos91/localmedia/pkg/content/cipher"
	"github.com/marmos91/localmedia/pkg/metrics"
	metricsprom "github.com/marmos91/localmedia/pkg/metrics/prometheus"
	"github.com/marmos91/localmedia/pkg/server"
)

var (
	serveDecrypt        bool
	serveMaxConnections int
	serveWatch          bool
	serveMetrics        bool
	serveDecryption     decryptionFlags
)

var serveCmd = &cobra.Command{
	Use:   "serve <file>",
	Short: "Serve a file to a media player",
	Long: `Prepare a file and serve it over loopback HTTP until interrupted.

The URL to hand to the player is printed on stdout once the server is
accepting connections.

Examples:
  # Serve a plain file
  localmedia serve ./movie.mp4

  # Serve a file encrypted with 'localmedia encrypt'
  localmedia serve ./movie.mp4.enc --decrypt --cipher chacha20

  # Expose health and Prometheus metrics on :9090
  localmedia serve ./movie.mp4 --metrics

  # Environment variable overrides
  LOCALMEDIA_LOGGING_LEVEL=DEBUG localmedia serve ./movie.mp4`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveDecrypt, "decrypt", false, "decrypt the file while serving it")
	serveCmd.Flags().IntVar(&serveMaxConnections, "max-connections", 0, "maximum concurrent sessions (0 = unlimited)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "warn when the file changes on disk while being served")
	serveCmd.Flags().BoolVar(&serveMetrics, "metrics", false, "expose /health and /metrics")
	serveDecryption.register(serveCmd)
}

// loadServeConfig loads configuration and applies serve flags on top.
func loadServeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("decrypt") {
		cfg.Decryption.Enabled = serveDecrypt
	}
	if cmd.Flags().Changed("max-connections") {
		cfg.Server.MaxConnections = serveMaxConnections
	}
	if cmd.Flags().Changed("watch") {
		cfg.Server.WatchContent = serveWatch
	}
	if cmd.Flags().Changed("metrics") {
		cfg.Metrics.Enabled = serveMetrics
	}
	serveDecryption.apply(cmd, &cfg.Decryption)

	if cfg.Decryption.Enabled {
		if err := ensureKey(&cfg.Decryption, false); err != nil {
			return nil, err
		}
	}

	config.ApplyDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// providerFactory returns the factory for cfg and a function releasing the
// key material it holds.
func providerFactory(cfg *config.Config) (server.ProviderFactory, func(), error) {
	chunkSize := cfg.Server.ChunkSize.Int()
	if !cfg.Decryption.Enabled {
		return server.RawProviderFactory(chunkSize), func() {}, nil
	}

	c, key, err := cfg.Decryption.Resolve()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve decryption key: %w", err)
	}
	return server.DecryptingProviderFactory(c, key, chunkSize), func() { cipher.Wipe(key) }, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadServeConfig(cmd)
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, cfg.Telemetry.TelemetryConfig(Version))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(cfg.Telemetry.Profiling.ProfilingConfig(Version))
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}
	if cfg.Telemetry.Profiling.Enabled {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	}

	// Metrics must be initialized before the server so its recorder is live.
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	factory, release, err := providerFactory(cfg)
	if err != nil {
		return err
	}
	defer release()

	srv := server.New(cfg.Server.ServerConfig(),
		server.WithProviderFactory(factory),
		server.WithMetrics(metricsprom.New()),
	)

	url, err := srv.Prepare(args[0])
	if err != nil {
		return fmt.Errorf("failed to prepare %s: %w", args[0], err)
	}
	if err := srv.Start(); err != nil {
		srv.Stop()
		return fmt.Errorf("failed to start server: %w", err)
	}

	apiDone := make(chan error, 1)
	apiRunning := cfg.Metrics.Enabled
	if apiRunning {
		apiServer := api.NewServer(api.APIConfig{
			BindAddress: cfg.Metrics.BindAddress,
			Port:        cfg.Metrics.Port,
		}, srv, metrics.GetRegistry())
		go func() { apiDone <- apiServer.Start(ctx) }()
		logger.Info("Metrics enabled", "address", cfg.Metrics.BindAddress, "port", cfg.Metrics.Port)
	}

	if err := printServing(cmd, url, cfg); err != nil {
		logger.Warn("Failed to print serving summary", "error", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	var runErr error
	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown")
	case err := <-apiDone:
		apiRunning = false
		if err != nil {
			logger.Error("API server error", "error", err)
			runErr = err
		}
	}

	srv.Stop()
	cancel()
	if apiRunning {
		if err := <-apiDone; err != nil {
			logger.Error("API server shutdown error", "error", err)
		}
	}

	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer waitCancel()
	if err := srv.Wait(waitCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("Shutdown timeout exceeded, abandoning sessions", "active_sessions", srv.ActiveSessions())
		} else {
			logger.Error("Server shutdown error", "error", err)
		}
	} else {
		logger.Info("Server stopped gracefully")
	}

	return runErr
}

// printServing writes the URL, alone on a line in table mode so scripts can
// capture it, or as a structured document otherwise.
func printServing(cmd *cobra.Command, url string, cfg *config.Config) error {
	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	mode := "raw"
	if cfg.Decryption.Enabled {
		mode = "decrypting (" + cfg.Decryption.Cipher + ")"
	}

	if printer.Format() == output.FormatTable {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), url)
		return err
	}
	return printer.Print(map[string]string{
		"url":  url,
		"mode": mode,
	})
}
