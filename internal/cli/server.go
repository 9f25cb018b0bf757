package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/yaroph/connect/internal/app"
	"github.com/yaroph/connect/internal/config"
	filestore "github.com/yaroph/connect/internal/infra/file"
	pgstore "github.com/yaroph/connect/internal/infra/postgres"
	redisstore "github.com/yaroph/connect/internal/infra/redis"
	transport "github.com/yaroph/connect/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the platform server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	services, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	if err := services.Seed(ctx); err != nil {
		return err
	}

	api := transport.NewAPI(services)
	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      api.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("starting connect server on :%s (store=%s)", finalPort, cfg.Store.Backend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildServices picks the document and image backends from config. The
// remote backends keep a filesystem store around as failover target.
func buildServices(ctx context.Context, cfg config.Config) (*app.Services, error) {
	fileDocs, err := filestore.NewStore(cfg.Store.Dir)
	if err != nil {
		return nil, err
	}
	fileImages, err := filestore.NewImageStore(cfg.Store.ImageDir)
	if err != nil {
		return nil, err
	}
	cacheTTL := config.TTLDuration(cfg.Store.CacheTTL, app.DefaultCacheTTL)

	switch cfg.Store.Backend {
	case "", "file":
		return app.NewServices(fileDocs, nil, true, fileImages, cacheTTL), nil

	case "redis":
		if cfg.Redis.Addr == "" {
			return nil, fmt.Errorf("redis backend selected but redis.addr not configured")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return app.NewServices(redisstore.NewStore(client), fileDocs, false, redisstore.NewImageStore(client), cacheTTL), nil

	case "postgres":
		if cfg.Postgres.URL == "" {
			return nil, fmt.Errorf("postgres backend selected but postgres.url not configured")
		}
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, err
		}
		pool, err := pgstore.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		return app.NewServices(pgstore.NewStore(pool), fileDocs, true, fileImages, cacheTTL), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
