package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandeepkv93/taskboard/internal/board"
	"github.com/sandeepkv93/taskboard/internal/notify"
	"github.com/sandeepkv93/taskboard/internal/seed"
	"github.com/sandeepkv93/taskboard/internal/storage"
)

// openRepository opens the configured store. SQLite schemas are created on
// open; Postgres expects `taskboard migrate up` to have run.
func (a *app) openRepository(ctx context.Context) (storage.Repository, error) {
	if a.flags.seedPath != "" && a.cfg.Database.Driver != "memory" {
		return nil, errors.New("--seed is only supported with --driver memory")
	}
	switch a.cfg.Database.Driver {
	case "sqlite":
		repo, err := storage.OpenSQLite(a.cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		if err := storage.MigrateUp(repo.DB(), storage.DialectSQLite); err != nil {
			_ = repo.Close()
			return nil, err
		}
		return repo, nil
	case "postgres":
		return storage.OpenPostgres(ctx, a.cfg.Database.DSN)
	case "memory":
		repo := storage.NewMemoryRepository()
		if a.flags.seedPath != "" {
			f, err := seed.LoadFile(a.flags.seedPath)
			if err != nil {
				return nil, err
			}
			sum, err := seed.Import(ctx, repo, f, time.Now())
			if err != nil {
				return nil, err
			}
			a.logger.Info("memory store seeded", "users", sum.Users, "tasks", sum.Tasks)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown driver %q", a.cfg.Database.Driver)
	}
}

func (a *app) buildDispatcher(repo storage.Repository) (*notify.Dispatcher, error) {
	d := notify.NewDispatcher(repo, a.logger)
	d.Register(storage.SubscriptionLog, notify.NewLogSender(a.logger))
	d.Register(storage.SubscriptionWebhook, notify.NewWebhookSender(a.cfg.Notify.WebhookTimeout))
	if a.cfg.Notify.Desktop {
		d.Register(storage.SubscriptionDesktop, notify.NewDesktopSender())
	}
	if path := a.cfg.Notify.GoogleClientFile; path != "" {
		oc, err := notify.LoadGoogleConfig(path)
		if err != nil {
			return nil, err
		}
		d.Register(storage.SubscriptionGoogleTasks, notify.NewGoogleTasksSender(oc))
	}
	return d, nil
}

func (a *app) buildEngine(repo storage.Repository) (*board.Engine, error) {
	loc, err := a.cfg.Location()
	if err != nil {
		return nil, err
	}
	dispatcher, err := a.buildDispatcher(repo)
	if err != nil {
		return nil, err
	}
	return board.NewEngine(repo, board.NewZones(repo, loc, a.logger), dispatcher, a.logger), nil
}

// withEngine opens the store, builds the engine and closes the store after fn.
func (a *app) withEngine(ctx context.Context, fn func(storage.Repository, *board.Engine) error) error {
	repo, err := a.openRepository(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := repo.Close(); cerr != nil {
			a.logger.Warn("closing store failed", "err", cerr)
		}
	}()
	engine, err := a.buildEngine(repo)
	if err != nil {
		return err
	}
	return fn(repo, engine)
}
