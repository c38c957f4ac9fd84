package main

import (
	"context"
	"fmt"
	"log/slog"

	"heartscore/internal/adapter/memory"
	"heartscore/internal/adapter/postgres"
	"heartscore/internal/adapter/sqlite"
	"heartscore/internal/adapter/sqlstore"
	"heartscore/internal/app"
	"heartscore/internal/clock"
	"heartscore/internal/config"
	"heartscore/internal/connector"
	"heartscore/internal/domain"
)

// backend is an open store plus the session repository that goes with it.
type backend struct {
	store    domain.Store
	sessions domain.SessionRepository
	close    func() error
}

func openBackend(ctx context.Context, c config.Config) (*backend, error) {
	var (
		db  *sqlstore.DB
		err error
	)
	switch c.Store {
	case config.StoreMemory:
		m := memory.New()
		return &backend{store: m, sessions: m.NewSessionRepo(), close: m.Close}, nil
	case config.StorePostgres:
		db, err = postgres.Open(ctx, c.DatabaseURL)
	case config.StoreSQLite:
		db, err = sqlite.Open(ctx, c.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store %q", c.Store)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", c.Store, err)
	}
	return &backend{store: db, sessions: sqlstore.NewSessionRepo(db), close: db.Close}, nil
}

// healthSource returns nil for the none source.
func healthSource(c config.Config) (domain.HealthDataSource, error) {
	switch c.HealthSource {
	case config.SourceStub:
		return connector.NewStub(), nil
	case config.SourceLive:
		live, err := connector.NewLive(c.ConnectorURL, c.ConnectorTimeout)
		if err != nil {
			return nil, err
		}
		return live, nil
	default:
		return nil, nil
	}
}

// services are the application services shared by every command.
type services struct {
	scores       *app.ScoreService
	streaks      *app.StreakService
	ledger       *app.LedgerService
	achievements *app.AchievementService
	readings     *app.ReadingService
	history      *app.HistoryService
	job          *app.DailyJob
	auth         *app.AuthService
}

func newServices(c config.Config, b *backend, logger *slog.Logger) (*services, error) {
	source, err := healthSource(c)
	if err != nil {
		return nil, fmt.Errorf("health source: %w", err)
	}
	var (
		clk   = clock.Real{}
		loc   = c.Location()
		store = b.store
	)

	s := &services{}
	s.scores = app.NewScoreService(store, store, source, clk, loc, logger)
	s.streaks = app.NewStreakService(store, loc, logger)
	s.ledger = app.NewLedgerService(store, clk, logger)
	s.achievements = app.NewAchievementService(store, store, store, s.ledger, clk, loc, logger)
	s.readings = app.NewReadingService(store, s.streaks, s.achievements, s.scores, clk, loc, logger)
	s.history = app.NewHistoryService(store, clk, loc)
	s.job = app.NewDailyJob(store, s.scores, c.JobConcurrency, logger)
	s.auth = app.NewAuthService(store, b.sessions, clk)
	return s, nil
}

// withServices opens the configured backend, builds the services and runs fn.
func withServices(ctx context.Context, fn func(*services) error) error {
	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = b.close() }()

	svc, err := newServices(cfg, b, logger)
	if err != nil {
		return err
	}
	return fn(svc)
}
