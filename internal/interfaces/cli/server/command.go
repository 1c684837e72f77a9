package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/gymdesk/accessbridge/internal/infrastructure/migration"
	"github.com/gymdesk/accessbridge/internal/interfaces/cli/bootstrap"
	httpRouter "github.com/gymdesk/accessbridge/internal/interfaces/http"
	"github.com/gymdesk/accessbridge/internal/shared/version"
)

var (
	env          string
	configPath   string
	autoMigrate  bool
	runScheduler bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Serve the access API and the vendor event webhook. With --scheduler the reconciliation jobs run in the same process.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Run database migrations on startup (not recommended for production)")
	cmd.Flags().BoolVar(&runScheduler, "scheduler", false, "Run reconciliation and token warm-up jobs in this process")

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

	cfg := e.Config
	log := e.Log
	log.Infow("starting server",
		"environment", env,
		"version", version.String(),
		"auto_migrate", autoMigrate,
		"scheduler", runScheduler)

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {}

	if autoMigrate {
		if env == "production" {
			log.Warnw("auto-migration is enabled in production environment - this is not recommended!")
		}
		strategy := migration.NewStrategy(cfg.Database.Driver, false, log)
		if err := strategy.Migrate(e.DB); err != nil {
			return fmt.Errorf("auto-migration failed: %w", err)
		}
	}

	container, err := httpRouter.NewContainer(cfg, e.DB, e.Redis, log)
	if err != nil {
		return fmt.Errorf("failed to build container: %w", err)
	}
	container.SetupRoutes()

	if runScheduler {
		if err := container.StartScheduler(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      container.Engine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infow("server starting", "address", cfg.Server.GetAddr(), "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		log.Infow("shutting down server...", "signal", sig.String())
	case err := <-serveErr:
		if err != nil {
			container.Shutdown(context.Background())
			return fmt.Errorf("failed to start server: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		container.Shutdown(ctx)
		return err
	}
	container.Shutdown(ctx)

	log.Infow("server exited gracefully")
	return nil
}
