package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/quizbot/core/logger"
)

const (
	compDB          = "db"
	retryInterval   = 2 * time.Second
	pingTimeout     = 5 * time.Second
	defaultDeadline = 30 * time.Second
)

// Connect opens a pool and pings it, retrying until cfg.ConnectTimeout
// elapses so that the bot can start alongside its database.
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	deadline := cfg.ConnectTimeout
	if deadline <= 0 {
		deadline = defaultDeadline
	}
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	start := time.Now()
	for attempt := 1; ; attempt++ {
		db, err := open(ctx, cfg)
		if err == nil {
			logger.Info(ctx, compDB, "db.connect",
				slog.String("status", "ok"),
				slog.String("host", cfg.Host),
				slog.String("db", cfg.Name),
				slog.Int("pool_open", cfg.MaxConnections),
				slog.Int("attempts", attempt),
				slog.Duration("duration", logger.RoundMS(time.Since(start))),
			)
			return db, nil
		}
		logger.Warn(ctx, compDB, "db.connect",
			slog.String("status", "fail"),
			slog.String("host", cfg.Host),
			slog.Int("attempt", attempt),
			slog.String("err", err.Error()),
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("db connect after %d attempts: %w", attempt, err)
		case <-time.After(retryInterval):
		}
	}
}

func open(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)
	return db, nil
}
