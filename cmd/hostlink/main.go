package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ZerkerEOD/hostlink/internal/agent"
	"github.com/ZerkerEOD/hostlink/internal/config"
	"github.com/ZerkerEOD/hostlink/internal/metrics"
	"github.com/ZerkerEOD/hostlink/internal/status"
	"github.com/ZerkerEOD/hostlink/internal/telemetry"
	"github.com/ZerkerEOD/hostlink/internal/version"
	"github.com/ZerkerEOD/hostlink/pkg/console"
	"github.com/ZerkerEOD/hostlink/pkg/debug"
)

// cliFlags holds values from the command line. Only flags that were
// actually passed override the environment.
type cliFlags struct {
	host        string
	port        string
	transport   string
	wsPath      string
	framing     string
	chunkSize   int
	dialTimeout time.Duration
	metricsAddr string
	debug       bool
	envFile     string
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		console.Error("%v", err)
		debug.Error("Fatal: %v", err)
		debug.Sync()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	f := &cliFlags{}

	cmd := &cobra.Command{
		Use:           "hostlink",
		Short:         "Serve file transfer and status commands for a remote peer",
		Long:          "hostlink dials a single peer and serves its UPLOAD, DOWNLOAD, STATUS and EXIT commands over that connection.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg)
		},
	}

	bindFlags(cmd.Flags(), f)

	cmd.AddCommand(versionCmd())
	cmd.AddCommand(statusCmd())

	return cmd
}

// bindFlags registers the client flags with config defaults.
func bindFlags(flags *pflag.FlagSet, f *cliFlags) {
	defaults := config.Default()
	flags.StringVar(&f.host, "host", defaults.Host, "Peer host")
	flags.StringVar(&f.port, "port", defaults.Port, "Peer port")
	flags.StringVar(&f.transport, "transport", string(defaults.Transport), "Transport: tcp or ws")
	flags.StringVar(&f.wsPath, "ws-path", defaults.WSPath, "Request path for the ws transport")
	flags.StringVar(&f.framing, "framing", string(defaults.Framing), "Command framing: line or legacy")
	flags.IntVar(&f.chunkSize, "chunk-size", defaults.ChunkSize, "Bytes per transfer read and write")
	flags.DurationVar(&f.dialTimeout, "dial-timeout", defaults.DialTimeout, "Connect timeout")
	flags.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9108)")
	flags.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	flags.StringVar(&f.envFile, "env-file", "", "Path to a .env file (default $"+config.EnvEnvFile+" or ./.env)")
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the local status report the peer would receive",
		RunE: func(cmd *cobra.Command, args []string) error {
			collector := metrics.New()
			defer collector.Close()

			if _, err := status.Report(collector, cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("collect status: %w", err)
			}
			return nil
		},
	}
}

// loadConfig resolves configuration with precedence flags > .env file >
// process environment > defaults, then validates it.
func loadConfig(cmd *cobra.Command, f *cliFlags) (*config.Config, error) {
	cfg := config.Default()
	if err := cfg.Apply(config.Environ()); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	envFile, explicit := f.envFile, cmd.Flags().Changed("env-file")
	if !explicit {
		if p := os.Getenv(config.EnvEnvFile); p != "" {
			envFile, explicit = p, true
		} else {
			envFile = ".env"
		}
	}
	if _, err := os.Stat(envFile); err == nil || explicit {
		env, err := config.ReadEnvFile(envFile)
		if err != nil {
			return nil, err
		}
		if err := cfg.Apply(env); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", envFile, err)
		}
		debug.Info("Loaded configuration from %s", envFile)
	}

	applyFlags(cmd, f, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.ExportLogging()
	return cfg, nil
}

// applyFlags copies explicitly passed flags onto cfg.
func applyFlags(cmd *cobra.Command, f *cliFlags, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("host") {
		cfg.Host = f.host
	}
	if changed("port") {
		cfg.Port = f.port
	}
	if changed("transport") {
		cfg.Transport = config.Transport(strings.ToLower(f.transport))
	}
	if changed("ws-path") {
		cfg.WSPath = f.wsPath
	}
	if changed("framing") {
		cfg.Framing = config.Framing(strings.ToLower(f.framing))
	}
	if changed("chunk-size") {
		cfg.ChunkSize = f.chunkSize
	}
	if changed("dial-timeout") {
		cfg.DialTimeout = f.dialTimeout
	}
	if changed("metrics-addr") {
		cfg.MetricsAddr = f.metricsAddr
	}
	if changed("debug") {
		cfg.Debug = f.debug
		if f.debug {
			cfg.LogLevel = "DEBUG"
		}
	}
}

// run dials the peer and serves one session. A cancelled context is a clean
// shutdown.
func run(ctx context.Context, cfg *config.Config) error {
	debug.Info("Starting %s", version.String())
	cfg.LogSummary()

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
		console.Info("Metrics available at http://%s/metrics", cfg.MetricsAddr)
	}

	console.Info("Connecting to %s (%s framing)", cfg.Endpoint(), cfg.Framing)
	conn, err := agent.Dial(ctx, cfg)
	if err != nil {
		console.Error("Could not connect to %s: %v", cfg.Endpoint(), err)
		return err
	}
	console.Success("Connected to %s", cfg.Endpoint())

	session := agent.NewSession(conn, cfg, metrics.New())
	err = session.Run(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		console.Status("Interrupted, connection closed")
		return nil
	case err != nil:
		return fmt.Errorf("session %s: %w", session.ID, err)
	}

	console.Status("Session ended after %d commands", session.Commands())
	return nil
}

// serveMetrics exposes the telemetry registry on addr until shut down.
func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		debug.Info("Serving metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			debug.Error("Metrics server failed: %v", err)
		}
	}()
	return srv
}
