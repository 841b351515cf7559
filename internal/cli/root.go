package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-authgate/dirgate/internal/bootstrap"
	"github.com/go-authgate/dirgate/internal/config"
	"github.com/go-authgate/dirgate/internal/core"
	"github.com/go-authgate/dirgate/internal/logging"
	"github.com/go-authgate/dirgate/internal/metrics"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		printError(rootCmd.ErrOrStderr(), err)
		return 1
	}
	return 0
}

// runtimeEnv is the state shared by every subcommand. It is filled in by
// the root command's PersistentPreRunE.
type runtimeEnv struct {
	cfg    *config.Config
	logger *zap.Logger
	dir    *bootstrap.Directory
}

// directory builds the configured backend on first use.
func (e *runtimeEnv) directory() (*bootstrap.Directory, error) {
	if e.dir != nil {
		return e.dir, nil
	}
	d, err := bootstrap.NewDirectory(e.cfg, e.logger, metrics.NewNoopMetrics())
	if err != nil {
		return nil, err
	}
	e.dir = d
	return d, nil
}

func newRootCmd() *cobra.Command {
	var (
		env      runtimeEnv
		backend  string
		logLevel string
	)

	rootCmd := &cobra.Command{
		Use:           "dirgate",
		Short:         "Identity and resource directory client",
		Long:          "Authenticate users and manage users, groups and resources in a local or remote directory.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			env.cfg = config.Load()
			if cmd.Flags().Changed("backend") {
				env.cfg.DirectoryBackend = backend
			}
			if cmd.Flags().Changed("log-level") {
				env.cfg.LogLevel = logLevel
			}

			logger, err := logging.New(env.cfg.LogLevel, env.cfg.LogFormat)
			if err != nil {
				return err
			}
			env.logger = logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if env.logger != nil {
				_ = env.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Directory backend (local, remote); overrides DIRECTORY_BACKEND")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level; overrides LOG_LEVEL")

	rootCmd.AddCommand(
		newServeCmd(&env),
		newVersionCmd(),
		newAuthCmd(&env),
		newUserCmd(&env),
		newGroupCmd(&env),
		newResourcesCmd(&env),
	)
	return rootCmd
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printError reports err as a JSON object carrying its failure kind.
func printError(w io.Writer, err error) {
	if encErr := printJSON(w, map[string]string{
		"error":             core.Kind(err),
		"error_description": err.Error(),
	}); encErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
