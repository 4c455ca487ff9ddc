package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"perseo/internal/blob"
	"perseo/internal/config"
	"perseo/internal/db"
	"perseo/internal/logger"
	"perseo/internal/orchestrator"
	"perseo/internal/utils"
)

var (
	verbose bool

	cfg      *config.Config
	zlog     *zap.Logger
	closeLog func()
)

var rootCmd = &cobra.Command{
	Use:          "perseo",
	Short:        "Perseo: nominas, timbrados y catalogos",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		var err error
		zlog, closeLog, err = logger.New(cfg.LogsDir, "perseo", verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		zlog.Debug("command", zap.String("cmd", cmd.CommandPath()), zap.Strings("args", args))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeLog != nil {
			closeLog()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(nominasCmd)
	rootCmd.AddCommand(timbradosCmd)
	rootCmd.AddCommand(usuariosCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newService opens the database and the blob store for a batch command.
func newService(cmd *cobra.Command) (*orchestrator.Service, func(), error) {
	ctx := cmd.Context()
	if err := utils.EnsureDir(cfg.OutputDir); err != nil {
		return nil, nil, err
	}

	d, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("DB connection failed: %w", err)
	}
	store, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		_ = d.Close()
		return nil, nil, err
	}

	svc := orchestrator.NewService(d, cfg, store, zlog, cmd.OutOrStdout())
	return svc, func() { _ = d.Close() }, nil
}
