package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/citusdata/membership-manager/pkg/config"
	"github.com/citusdata/membership-manager/pkg/database"
	"github.com/citusdata/membership-manager/pkg/log"
	"github.com/citusdata/membership-manager/pkg/metrics"
	"github.com/citusdata/membership-manager/pkg/readiness"
	"github.com/citusdata/membership-manager/pkg/runtime"
	"github.com/citusdata/membership-manager/pkg/supervisor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var v = config.NewViper()

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Logger.Error().Err(err).Msg("exiting")
		os.Exit(supervisor.ExitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "membership-manager",
	Short: "Keep Citus worker membership in sync with Docker Compose",
	Long: `membership-manager runs next to a Citus coordinator in a Docker Compose
project. It watches the Docker daemon for worker containers becoming healthy
or being destroyed and registers or removes them on the coordinator.

Configuration comes from the environment: CITUS_HOST, POSTGRES_USER,
POSTGRES_PASSWORD, POSTGRES_DB and HOSTNAME.`,
	Version:       Version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"membership-manager version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	flags := rootCmd.Flags()
	flags.String("log-level", string(config.DefaultLogLevel), "Log level (debug, info, warn, error)")
	flags.Bool("log-json", false, "Log as JSON instead of console text")
	flags.String("metrics-addr", "", "Serve /metrics and health endpoints on this address (disabled when empty)")
	flags.String("readiness-file", config.DefaultReadinessFile, "File created once the event subscription is open")

	bindFlag(v, config.ParamLogLevel, "log-level")
	bindFlag(v, config.ParamLogJSON, "log-json")
	bindFlag(v, config.ParamMetricsAddr, "metrics-addr")
	bindFlag(v, config.ParamReadinessFile, "readiness-file")
}

func bindFlag(v *viper.Viper, key, flag string) {
	if err := v.BindPFlag(key, rootCmd.Flags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	log.Init(log.Config{
		Level:      cfg.LogLevel,
		JSONOutput: cfg.LogJSON,
	})
	metrics.SetVersion(Version)
	logger := log.WithComponent("supervisor")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.NewServer(cfg.MetricsAddr).Run(ctx); err != nil {
				logger.Warn().Err(err).Msg("diagnostics listener stopped")
			}
		}()
	}

	rt, err := runtime.NewDockerRuntime("")
	if err != nil {
		return err
	}
	defer rt.Close()

	sup := supervisor.New(supervisor.Config{
		Connector: database.NewManager(cfg.Database, cfg.RetryInterval),
		Runtime:   rt,
		Marker:    readiness.NewMarker(cfg.ReadinessFile),
		Hostname:  cfg.Hostname,
	})

	logger.Info().
		Str("version", Version).
		Str("coordinator", cfg.Database.String()).
		Str("hostname", cfg.Hostname).
		Msg("starting")

	err = sup.Run(ctx)
	if supervisor.ExitCode(err) == 0 {
		logger.Info().Msg("shutting down...")
		return nil
	}
	return err
}
