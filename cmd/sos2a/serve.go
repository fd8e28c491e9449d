package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sos2a/assessment/internal/api"
	"github.com/sos2a/assessment/internal/config"
	"github.com/sos2a/assessment/internal/draft"
	"github.com/sos2a/assessment/internal/logging"
	"github.com/sos2a/assessment/internal/notify"
	"github.com/sos2a/assessment/internal/store"
)

func newServeCmd() *cobra.Command {
	var (
		flagConfig  string
		flagMigrate bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the assessment API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfig, "")
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if flagMigrate {
				if err := store.Migrate(cfg.Database.URL(), logger); err != nil {
					return err
				}
			}

			reports, err := store.Open(ctx, cfg.Database, logger.With(zap.String("component", "store")))
			if err != nil {
				return err
			}
			defer reports.Close()

			drafts, closeDrafts, err := openDrafts(ctx, cfg.Redis)
			if err != nil {
				return err
			}
			defer closeDrafts()

			var publisher notify.Publisher = notify.NopPublisher{}
			if cfg.Kafka.Enabled {
				publisher = notify.NewKafkaPublisher(cfg.Kafka, logger.With(zap.String("component", "notify")))
			}
			defer publisher.Close()

			gin.SetMode(gin.ReleaseMode)
			srv := api.New(api.Deps{
				Config:    cfg,
				Reports:   reports,
				Drafts:    drafts,
				Publisher: publisher,
				Logger:    logger,
			})
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&flagConfig, "config", "", "Path to sos2a.yaml config")
	cmd.Flags().BoolVar(&flagMigrate, "migrate", false, "Apply database migrations before serving")
	return cmd
}

// openDrafts returns a Redis-backed draft store when an address is
// configured and an in-memory one otherwise.
func openDrafts(ctx context.Context, cfg config.RedisConfig) (draft.Store, func(), error) {
	if cfg.Addr == "" {
		return draft.NewMemoryStore(), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return draft.NewRedisStore(client, cfg.DraftTTL), func() { client.Close() }, nil
}

func newMigrateCmd() *cobra.Command {
	var (
		flagConfig string
		flagDown   bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply (or with --down, revert) database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfig, "")
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if flagDown {
				return store.Rollback(cfg.Database.URL(), logger)
			}
			return store.Migrate(cfg.Database.URL(), logger)
		},
	}
	cmd.Flags().StringVar(&flagConfig, "config", "", "Path to sos2a.yaml config")
	cmd.Flags().BoolVar(&flagDown, "down", false, "Revert every migration")
	return cmd
}
