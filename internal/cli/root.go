// Package cli implements the mindlog CLI commands.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mindlog/mindlog/internal/config"
	"github.com/mindlog/mindlog/internal/lock"
	"github.com/mindlog/mindlog/internal/store"
)

var (
	storeFlag  string
	formatFlag string
	debugFlag  bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "mindlog",
	Short: "Persistent observation log for coding-agent sessions",
	Long: "mindlog keeps an append-only log of observations (decisions, discoveries,\n" +
		"problems, solutions) per project and retrieves relevant subsets as context\n" +
		"for future sessions. Single file, lexical search, no services.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if debugFlag {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&storeFlag, "store", "s", "", "Store path (default: $MINDLOG_STORE_PATH or ./.mindlog/mind.log)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: json or text")
	RootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
}

// loadConfig resolves configuration, letting the --store flag win over the
// environment and config file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, err
	}
	if storeFlag != "" {
		cfg.StorePath = storeFlag
	}
	if debugFlag {
		cfg.Debug = true
	}
	return cfg, nil
}

// openStore opens the store described by the resolved config along with its
// concurrency guard. Open itself runs under the lock since it may create or
// recover the file.
func openStore() (*store.FileStore, *lock.Guard, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	guard := lock.NewGuard(cfg.StorePath, lock.Options{
		Timeout:    cfg.Lock.Timeout,
		StaleAfter: cfg.Lock.StaleAfter,
	})

	var (
		st   *store.FileStore
		info store.OpenInfo
	)
	err = guard.WithLock(context.Background(), func() error {
		var err error
		st, info, err = store.Open(cfg.StorePath, store.Options{MaxFileBytes: cfg.Store.MaxFileBytes})
		return err
	})
	if err != nil {
		return nil, nil, nil, err
	}
	if info.Recovered {
		fmt.Fprintf(os.Stderr, "warning: store was corrupt; previous contents saved to %s\n", info.BackupPath)
	}
	return st, guard, cfg, nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
