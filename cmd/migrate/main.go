package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/ignite/invoice-admin/internal/migrate"
	"github.com/ignite/invoice-admin/internal/pkg/distlock"
	"github.com/ignite/invoice-admin/internal/pkg/logger"
)

const lockKey = "invoice-admin:migrate"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dsn, redisURL string

	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the invoice-admin database schema",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dsn, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection string")
	root.PersistentFlags().StringVar(&redisURL, "redis-url", os.Getenv("REDIS_URL"), "Redis URL for the migration lock (optional)")

	up := &cobra.Command{
		Use:   "up [dir]",
		Short: "Apply every migration file in dir (default: migrations)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "migrations"
			if len(args) == 1 {
				dir = args[0]
			}
			db, err := openDB(cmd.Context(), dsn)
			if err != nil {
				return err
			}
			defer db.Close()
			return runLocked(cmd, db, redisURL, dir)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the tables owned by this service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context(), dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			tables, err := migrate.Tables(cmd.Context(), db)
			if err != nil {
				return err
			}
			for _, t := range tables {
				fmt.Fprintln(cmd.OutOrStdout(), " ", t)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total: %d tables\n", len(tables))
			return nil
		},
	}

	root.AddCommand(up, list)
	return root
}

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	logger.Info("connected to database")
	return db, nil
}

func runLocked(cmd *cobra.Command, db *sql.DB, redisURL, dir string) error {
	ctx := cmd.Context()

	var rdb *redis.Client
	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
	}

	lock := distlock.NewLock(rdb, db, lockKey, 10*time.Minute)
	ok, err := lock.Acquire(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("another migration is in progress")
	}
	defer func() {
		if err := lock.Release(context.Background()); err != nil {
			logger.Warn("failed to release migration lock", "error", err)
		}
	}()

	res, err := migrate.Apply(ctx, db, dir, cmd.OutOrStdout())
	logger.Info("migrations finished", "applied", res.Applied, "failed", res.Failed, "skipped", res.Skipped)
	return err
}
