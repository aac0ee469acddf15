// Package app wires configuration, storage, the dialogue engine and the
// Telegram transport into a runnable bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/quizbot/core/bootstrap"
	"github.com/m3rciful/quizbot/core/logger"
	coretelegram "github.com/m3rciful/quizbot/core/telegram"
	"github.com/m3rciful/quizbot/core/telegram/middleware"
	"github.com/m3rciful/quizbot/core/telegram/sender"
	"github.com/m3rciful/quizbot/internal/bot"
	"github.com/m3rciful/quizbot/internal/dialogue"
	"github.com/m3rciful/quizbot/internal/engine"
	"github.com/m3rciful/quizbot/internal/fsm"
	"github.com/m3rciful/quizbot/internal/metrics"
	"github.com/m3rciful/quizbot/internal/quiz"
	"github.com/m3rciful/quizbot/internal/storage/memory"
	"github.com/m3rciful/quizbot/internal/storage/postgres"
)

// Services bundles the storage built during bootstrap.
type Services struct {
	Repo   quiz.Repository
	Store  dialogue.Store
	Locker dialogue.Locker

	redis redis.UniversalClient
}

// QuizRepository implements RepositoryProvider.
func (s *Services) QuizRepository() quiz.Repository { return s.Repo }

// Close releases the Redis client if one was opened.
func (s *Services) Close() error {
	if s == nil || s.redis == nil {
		return nil
	}
	return s.redis.Close()
}

// NewServices builds the quiz repository over db (memory when db is nil)
// and the dialogue store selected by cfg.
func NewServices(ctx context.Context, cfg *Config, db *sqlx.DB) (*Services, error) {
	svc := &Services{}
	if db != nil {
		svc.Repo = postgres.New(db)
	} else {
		svc.Repo = memory.New()
	}

	switch cfg.Session.Backend {
	case SessionRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Session.Addr,
			Password: cfg.Session.Password,
			DB:       cfg.Session.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		svc.redis = client
		svc.Store = dialogue.NewRedisStore(client,
			dialogue.WithPrefix(cfg.Session.Prefix),
			dialogue.WithTTL(cfg.Session.TTL),
		)
		svc.Locker = dialogue.NewKeyedLocker(
			dialogue.WithDistributed(dialogue.NewRedisLocker(client, cfg.Session.Prefix, cfg.Session.LockTTL)),
		)
	default:
		svc.Store = dialogue.NewMemoryStore()
		svc.Locker = dialogue.NewKeyedLocker()
	}
	logger.Info(ctx, logger.CompSession, "session.ready",
		slog.String("backend", cfg.Session.Backend),
		slog.String("storage", cfg.Storage.Backend),
	)
	return svc, nil
}

// App is a bootstrapped quizbot ready to run.
type App struct {
	cfg      *Config
	res      *bootstrap.Result
	svc      *Services
	metrics  *metrics.Metrics
	disp     *sender.Dispatcher
	handler  *bot.Handler
	registry *coretelegram.Registry

	stopMetrics context.CancelFunc
	metricsDone chan error
}

// Bootstrap connects storage, seeds quizzes and assembles the bot.
func Bootstrap(ctx context.Context, cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}

	var seeders []bootstrap.Seeder
	if cfg.Seed.File != "" {
		seeders = append(seeders, Seeder{Path: cfg.Seed.File})
	}

	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:       &cfg.Config,
		Database:     cfg.Database,
		SkipDatabase: cfg.Storage.Backend == StorageMemory,
		Modules: bootstrap.Modules{
			Services: bootstrap.TypedServiceProviderFunc[*Services](
				func(ctx context.Context, _ any, storage bootstrap.Storage) (*Services, error) {
					db, _ := storage.(*sqlx.DB)
					return NewServices(ctx, cfg, db)
				},
			),
			Seeders: seeders,
		},
	})
	if err != nil {
		return nil, err
	}
	svc, ok := res.Services.(*Services)
	if !ok {
		_ = res.Close()
		return nil, fmt.Errorf("app: unexpected services %T", res.Services)
	}

	a, err := New(cfg, svc)
	if err != nil {
		_ = svc.Close()
		_ = res.Close()
		return nil, err
	}
	a.res = res
	a.startMetrics(ctx)
	return a, nil
}

// New assembles the bot over already built services.
func New(cfg *Config, svc *Services) (*App, error) {
	m := metrics.New()
	disp := sender.NewDispatcher(sender.Options{Observer: m})
	m.WatchSendErrors(disp.ErrorCount)

	admin := middleware.AdminOptions{
		AdminID:       cfg.Telegram.AdminID,
		AdminUsername: cfg.Telegram.AdminUsername,
	}
	machine := fsm.New(svc.Repo, fsm.Options{
		IsAdmin:         admin.Matches,
		PayloadFits:     bot.PayloadFits,
		OnQuizCreated:   m.QuizCreated,
		OnQuizCompleted: m.QuizCompleted,
	})
	eng := engine.New(svc.Store, svc.Locker, machine, engine.Options{
		Timeout:  cfg.Engine.TransitionTimeout,
		Recorder: m,
	})
	h := bot.New(eng, bot.WithDispatcher(disp), bot.WithAdmin(admin))
	reg, err := h.Registry()
	if err != nil {
		disp.Close()
		return nil, fmt.Errorf("app: register handlers: %w", err)
	}

	return &App{
		cfg:      cfg,
		svc:      svc,
		metrics:  m,
		disp:     disp,
		handler:  h,
		registry: reg,
	}, nil
}

// Metrics exposes the application collectors.
func (a *App) Metrics() *metrics.Metrics { return a.metrics }

// TelegramRunOptions implements the command runner's TelegramApp.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	if a == nil || a.cfg == nil {
		return coretelegram.RunOptions{}, errors.New("app: not bootstrapped")
	}
	return coretelegram.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    a.registry,
		Dispatcher:  a.disp,
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Config, a.handler.RateLimited()),
		Routes:      a.handler.Routes(a.registry),
	}, nil
}

func (a *App) startMetrics(ctx context.Context) {
	if a.cfg.Metrics.Disabled {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	a.stopMetrics = cancel
	a.metricsDone = make(chan error, 1)
	addr := a.cfg.Metrics.Listen
	go func() {
		err := metrics.Serve(ctx, addr, metrics.Handler(a.metrics.Registry()))
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, logger.CompMetrics, "metrics.serve_failed",
				slog.String("addr", addr),
				slog.String("err", err.Error()),
			)
		}
		a.metricsDone <- err
	}()
}

// Close stops the metrics endpoint and the dispatcher, then releases storage.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	if a.stopMetrics != nil {
		a.stopMetrics()
		<-a.metricsDone
	}
	if a.disp != nil {
		a.disp.Close()
	}
	var errs []error
	if err := a.svc.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.res.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
