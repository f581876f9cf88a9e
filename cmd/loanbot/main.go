package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/susu3304/loanbot/internal/config"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "loanbot",
	Short: "Conversational ledger for money you lend to friends",
	Long: `loanbot keeps track of who owes you money.

Tell it things like "I lent John 50" or "John paid me back 20" and it
records them after asking you to confirm. Ask "who owes me?" to see
what is still outstanding.

  loanbot serve            # web UI, HTTP API and Discord bot
  loanbot chat             # talk to the ledger from the terminal`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger, err = newLogger(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the loanbot version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "loanbot", version)
	},
}

func newLogger(level string) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zc.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}
	return zc.Build()
}

func init() {
	rootCmd.AddCommand(serveCmd, chatCmd, feedbackCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
