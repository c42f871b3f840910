package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/MythicBat/Festival-Footprint/internal/server"
)

var (
	// Environment overrides use the FESTIVALS_ prefix, e.g. FESTIVALS_LOG_FORMAT.
	config = viper.New()

	logger *zap.Logger
	runID  string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "festivals",
		Short:        "Derive state×genre and state×year festival tables",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			logger, err = newLogger(config.GetBool("verbose"), config.GetString("log-format"))
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			runID = uuid.NewString()
			logger = logger.With(zap.String("run_id", runID))
			logger.Debug("starting", zap.String("command", cmd.Name()))
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	rootCmd.PersistentFlags().String("log-format", "console", "log encoding: console or json")
	_ = config.BindPFlags(rootCmd.PersistentFlags())
	config.SetEnvPrefix("FESTIVALS")
	config.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	config.AutomaticEnv()

	rootCmd.AddCommand(genreCmd())
	rootCmd.AddCommand(yearsCmd())
	rootCmd.AddCommand(buildCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(serveCmd())
	return rootCmd
}

func newLogger(verbose bool, format string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch format {
	case "", "console":
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	case "json":
	default:
		return nil, fmt.Errorf("unknown log format %q (want console or json)", format)
	}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// projectArg returns the project directory, defaulting to ".".
func projectArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

func genreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genre [project-path]",
		Short: "Apportion each state's festivals over genres",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenre(cmd.Context(), projectArg(args))
		},
	}
}

func yearsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "years [project-path]",
		Short: "Scale the baseline state totals over the year index",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runYears(cmd.Context(), projectArg(args))
		},
	}
}

func buildCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "build [project-path]",
		Short: "Derive and write both datasets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), projectArg(args), buildOptions{
				JSON:   asJSON,
				SQLite: config.GetString("sqlite"),
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print a JSON summary to stdout")
	cmd.Flags().String("sqlite", "", "also write both datasets to this SQLite database")
	_ = config.BindPFlag("sqlite", cmd.Flags().Lookup("sqlite"))
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [project-path]",
		Short: "Load, validate and compute without writing anything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runValidate(projectArg(args))
		},
	}
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve [project-path]",
		Short: "Start a local server exposing the derived datasets as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := server.New(projectArg(args), port, logger)
			return srv.Start(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 3000, "HTTP server port")
	return cmd
}
