package command

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/solace-dev/export-worker/internal/config"
	"github.com/solace-dev/export-worker/internal/obs"
	"github.com/solace-dev/export-worker/internal/obs/otel"
	"github.com/solace-dev/export-worker/internal/server"
	"github.com/solace-dev/export-worker/internal/server/middleware"
	"github.com/solace-dev/export-worker/internal/util"
)

const shutdownTimeout = 10 * time.Second

// ServeCommand starts the HTTP export service
func ServeCommand(info BuildInfo) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the export HTTP server",
		Long: `Start the export HTTP server.

Configuration is read from defaults, then the optional --config YAML file,
then EXPORT_WORKER_* environment variables, then the flags below.
EXPORT_WORKER_AUTH_TOKEN (or auth_token in the file) is required.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadServeConfig(cmd.Flags())
			if err != nil {
				return err
			}
			// inherited from the root command when present
			verbose, _ := cmd.Flags().GetBool("verbose")
			return runServe(cmd.Context(), cfg, info, verbose)
		},
	}

	cmd.Flags().String("config", "", "YAML configuration file")
	cmd.Flags().Int("port", config.DefaultPort, "Server port")
	cmd.Flags().String("host", config.DefaultHost, "Server host")
	cmd.Flags().String("log-file", "", "Also write logs to this file, with rotation")
	cmd.Flags().Bool("debug", false, "Enable debug logging")

	return cmd
}

// loadServeConfig applies only the flags the user actually set on top of the
// file and environment.
func loadServeConfig(flags *pflag.FlagSet) (*config.Config, error) {
	path, _ := flags.GetString("config")

	var overrides []config.Override
	if flags.Changed("port") {
		port, _ := flags.GetInt("port")
		overrides = append(overrides, func(c *config.Config) { c.Port = port })
	}
	if flags.Changed("host") {
		host, _ := flags.GetString("host")
		overrides = append(overrides, func(c *config.Config) { c.Host = host })
	}
	if flags.Changed("log-file") {
		logFile, _ := flags.GetString("log-file")
		overrides = append(overrides, func(c *config.Config) { c.LogFile = logFile })
	}
	if flags.Changed("debug") {
		debug, _ := flags.GetBool("debug")
		overrides = append(overrides, func(c *config.Config) { c.Debug = debug })
	}

	return config.Load(path, overrides...)
}

// ginMode keeps gin's route dump and debug warnings out of normal runs
func ginMode(debug bool) string {
	if debug {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}

func runServe(ctx context.Context, cfg *config.Config, info BuildInfo, verbose bool) error {
	logCloser := obs.SetupLogging(logrus.StandardLogger(), obs.LoggingOptions{
		Debug:   cfg.Debug,
		Verbose: verbose,
		LogFile: cfg.LogFile,
	})
	defer logCloser.Close()

	logrus.Infof("Configuration loaded: %s", cfg)

	meters, err := otel.NewMeterSetup(ctx, &otel.Config{
		Enabled:        cfg.Metrics.Enabled,
		Exporters:      cfg.Metrics.Exporters,
		OTLPEndpoint:   cfg.Metrics.OTLPEndpoint,
		ExportInterval: cfg.Metrics.Interval,
		ExportTimeout:  otel.DefaultConfig().ExportTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to set up metrics: %w", err)
	}

	opts := []server.ServerOption{
		server.WithVersion(info.Version),
		server.WithRecorder(meters.Recorder()),
	}
	if cfg.ErrorLogFile != "" {
		errorMW, err := middleware.NewErrorLogMiddleware(cfg.ErrorLogFile, cfg.ErrorLogFilter)
		if err != nil {
			return err
		}
		opts = append(opts, server.WithErrorLog(errorMW))
		logrus.Infof("Error log: %s (filter: %s)", cfg.ErrorLogFile, cfg.ErrorLogFilter)
	}

	gin.SetMode(ginMode(cfg.Debug))
	srv, err := server.NewServer(cfg, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Start()
	}()

	endpoint := util.EndpointURL(cfg.Host, cfg.Port)
	logrus.Infof("Export endpoint: POST %s/", endpoint)
	logrus.Infof("Health check: GET %s/health", endpoint)

	select {
	case err := <-serveErr:
		_ = meters.Shutdown(context.Background())
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}
	if err := meters.Shutdown(shutdownCtx); err != nil {
		logrus.Warnf("Metrics shutdown: %v", err)
	}
	if err := <-serveErr; err != nil {
		return err
	}

	logrus.Info("Server stopped")
	return nil
}
