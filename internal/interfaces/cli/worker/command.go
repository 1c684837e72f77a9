package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gymdesk/accessbridge/internal/interfaces/cli/bootstrap"
	httpRouter "github.com/gymdesk/accessbridge/internal/interfaces/http"
	"github.com/gymdesk/accessbridge/internal/shared/version"
)

var (
	env        string
	configPath string
	once       bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run event reconciliation",
		Long:  `Poll every active branch for unprocessed door events, record attendance, and keep vendor tokens warm.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
	cmd.Flags().BoolVar(&once, "once", false, "Run a single reconciliation pass and exit")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	e, err := bootstrap.Init(env, configPath, true)
	if err != nil {
		return err
	}
	defer e.Close()

	log := e.Log
	log.Infow("starting reconciliation worker", "environment", env, "version", version.String(), "once", once)

	container, err := httpRouter.NewContainer(e.Config, e.DB, e.Redis, log)
	if err != nil {
		return fmt.Errorf("failed to build container: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if once {
		processed := container.ReconcileOnce(ctx)
		log.Infow("reconciliation pass finished", "processed", processed)
		fmt.Fprintf(cmd.OutOrStdout(), "processed %d events\n", processed)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		container.Shutdown(shutdownCtx)
		return nil
	}

	if err := container.StartScheduler(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	log.Infow("reconciliation worker started", "interval", e.Config.Reconcile.Interval.String())

	<-ctx.Done()
	log.Infow("received signal, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	container.Shutdown(shutdownCtx)

	log.Infow("reconciliation worker stopped")
	return nil
}
