package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yairfalse/memwatch/internal/config"
	"github.com/yairfalse/memwatch/internal/process"
	"github.com/yairfalse/memwatch/internal/scanner"
)

// rootOptions holds per-invocation state so commands can be built fresh in tests
type rootOptions struct {
	cfgFile string
	viper   *viper.Viper

	// newSource is swapped in tests
	newSource func(*zap.Logger) scanner.Source
}

// NewRootCmd builds the memwatch command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{
		viper: viper.New(),
		newSource: func(logger *zap.Logger) scanner.Source {
			return process.NewSource(logger)
		},
	}
	return newRootCmd(opts)
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memwatch",
		Short: "Report processes using more resident memory than a threshold",
		Long: `memwatch scans the process table once and reports every process whose
resident set size exceeds the configured threshold.

Each alert is printed to stdout and appended to the alert log file.
Processes that exit during the scan or cannot be read are skipped.

Configuration sources (in priority order):
  1. Command line flags
  2. Environment variables (MEMWATCH_*)
  3. Configuration file (./memwatch.yaml or --config)
  4. Defaults`,
		Example: `  # Scan with the defaults
  memwatch

  # Only report processes above 2GB
  memwatch --threshold-gb 2

  # Write alerts somewhere else
  MEMWATCH_LOG_FILE=/var/log/memwatch.log memwatch`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, opts)
		},
	}

	def := config.DefaultConfig()
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default is ./memwatch.yaml)")
	flags.Float64("threshold-gb", def.ThresholdGB, "memory threshold in gigabytes (1024^3 bytes)")
	flags.String("log-file", def.LogFile, "file alerts are appended to")
	flags.String("log-level", def.LogLevel, "diagnostic log level (debug, info, warn, error)")

	// Bind flags to viper
	opts.viper.BindPFlag("threshold_gb", flags.Lookup("threshold-gb"))
	opts.viper.BindPFlag("log_file", flags.Lookup("log-file"))
	opts.viper.BindPFlag("log_level", flags.Lookup("log-level"))

	cmd.AddCommand(newVersionCmd())
	cmd.CompletionOptions.DisableDefaultCmd = true

	return cmd
}

func runScan(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := config.Load(opts.viper, opts.cfgFile)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	s, err := scanner.New(cfg, opts.newSource(logger),
		scanner.WithLogger(logger),
		scanner.WithConsole(cmd.OutOrStdout()),
	)
	if err != nil {
		return err
	}

	_, err = s.Scan(cmd.Context())
	return err
}

// newLogger writes to stderr so stdout carries only alert lines
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	logConfig := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		logConfig = zap.NewDevelopmentConfig()
	}
	logConfig.Level = zap.NewAtomicLevelAt(lvl)
	logConfig.OutputPaths = []string{"stderr"}
	logConfig.ErrorOutputPaths = []string{"stderr"}

	return logConfig.Build()
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
