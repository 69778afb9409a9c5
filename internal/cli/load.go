package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgload/internal/config"
	"github.com/vvka-141/pgload/internal/db"
	"github.com/vvka-141/pgload/internal/logging"
	"github.com/vvka-141/pgload/internal/metrics"
	"github.com/vvka-141/pgload/internal/metrics/prompush"
	"github.com/vvka-141/pgload/internal/services"
	"github.com/vvka-141/pgload/pkg/pgload"
)

type loadFlagValues struct {
	table       string
	logFile     string
	conflictKey string
	separator   string
	configPath  string
	envFile     string
	timeout     time.Duration
}

var loadFlags = loadFlagValues{envFile: ".env"}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&loadFlags.table, "table", "", "Target table (default \"people\")")
	f.StringVar(&loadFlags.logFile, "log-file", "", "Status log file (default \"logs/data_insertion.log\")")
	f.StringVar(&loadFlags.conflictKey, "conflict-key", "", "Upsert on this column instead of the surrogate id (e.g. email)")
	f.StringVar(&loadFlags.separator, "separator", "", "Separator for flattened nested keys (default \"_\")")
	f.StringVar(&loadFlags.configPath, "config", "", "Config file (default \"pgload.yaml\" if present)")
	f.StringVar(&loadFlags.envFile, "env-file", ".env", "File with KEY=value environment defaults")
	f.DurationVar(&loadFlags.timeout, "timeout", pgload.DefaultTimeout, "Catastrophic failure timeout for the whole run")
}

// resolveSettings merges the config file, .env, the environment and the
// command line flags, in increasing precedence.
func resolveSettings(cmd *cobra.Command) (*config.Settings, error) {
	if loadFlags.envFile != "" {
		if err := config.LoadDotEnv(loadFlags.envFile); err != nil {
			return nil, fmt.Errorf("%w: %w", pgload.ErrInvalidConfig, err)
		}
	}

	configPath := loadFlags.configPath
	explicit := configPath != ""
	if !explicit {
		configPath = pgload.ConfigFileName
	}
	file, err := config.Load(configPath)
	if err != nil && (explicit || !errors.Is(err, config.ErrConfigNotFound)) {
		return nil, fmt.Errorf("config %s: %w: %w", configPath, pgload.ErrInvalidConfig, err)
	}

	settings, err := config.Resolve(file, os.Getenv)
	if err != nil {
		return nil, err
	}

	if loadFlags.table != "" {
		settings.Table = loadFlags.table
	}
	if loadFlags.logFile != "" {
		settings.LogFile = loadFlags.logFile
	}
	if loadFlags.conflictKey != "" {
		settings.ConflictKey = loadFlags.conflictKey
	}
	if loadFlags.separator != "" {
		settings.Separator = loadFlags.separator
	}
	if cmd.Flags().Changed("timeout") {
		settings.Timeout = loadFlags.timeout
	}
	return settings, nil
}

func newMetricsBackend(settings *config.Settings) (metrics.Backend, error) {
	if settings.PushgatewayURL == "" {
		return nil, nil
	}
	b, err := prompush.NewBackend(prompush.DefaultJobName, settings.PushgatewayURL,
		map[string]string{"table": settings.Table})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pgload.ErrInvalidConfig, err)
	}
	return b, nil
}

func runLoad(cmd *cobra.Command, args []string) error {
	inputPath := pgload.DefaultInputPath
	if len(args) == 1 {
		inputPath = args[0]
	}
	verbose := getVerboseFlag(cmd)

	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}

	logger := logging.NewMultiLogger(
		logging.NewFileLogger(settings.LogFile),
		logging.NewConsoleLogger(verbose),
	)

	backend, err := newMetricsBackend(settings)
	if err != nil {
		return err
	}

	cfg := pgload.LoadConfig{
		InputPath:   inputPath,
		Table:       settings.Table,
		ConflictKey: settings.ConflictKey,
		Separator:   settings.Separator,
		Timeout:     settings.Timeout,
		Connection:  settings.Connection,
	}

	if verbose {
		c := cfg.Connection
		fmt.Fprintf(os.Stderr, "[VERBOSE] Connection resolved:\n")
		fmt.Fprintf(os.Stderr, "  Host: %s\n", c.Host)
		fmt.Fprintf(os.Stderr, "  Port: %d\n", c.Port)
		fmt.Fprintf(os.Stderr, "  User: %s\n", c.Username)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", c.Database)
		fmt.Fprintf(os.Stderr, "  Auth Method: %s\n", c.AuthMethod)
		fmt.Fprintf(os.Stderr, "  Table: %s\n", cfg.Table)
	}

	// A zero timeout from the config file means no deadline.
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), cfg.Timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\n[INTERRUPT] Received interrupt signal, cancelling load...")
			cancel()
		case <-ctx.Done():
		}
	}()

	loader := services.NewLoader(db.NewConnector, logger, backend)
	result, err := loader.Run(ctx, cfg)
	if err != nil {
		if errors.Is(err, pgload.ErrExtraction) {
			logger.Error("%v", err)
			return reported(err)
		}
		return err
	}

	return reported(result.Err)
}
