package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/taskboard/internal/board"
	"github.com/sandeepkv93/taskboard/internal/dashboard"
	"github.com/sandeepkv93/taskboard/internal/httpapi"
	"github.com/sandeepkv93/taskboard/internal/scheduler"
	"github.com/sandeepkv93/taskboard/internal/seed"
	"github.com/sandeepkv93/taskboard/internal/storage"
	"github.com/sandeepkv93/taskboard/internal/views"
)

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the database schema",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := "up"
			if len(args) == 1 {
				direction = args[0]
			}

			var (
				repo *storage.SQLRepository
				err  error
			)
			switch a.cfg.Database.Driver {
			case "sqlite":
				repo, err = storage.OpenSQLite(a.cfg.Database.DSN)
			case "postgres":
				repo, err = storage.OpenPostgres(cmd.Context(), a.cfg.Database.DSN)
			default:
				return fmt.Errorf("driver %s has no schema to migrate", a.cfg.Database.Driver)
			}
			if err != nil {
				return err
			}
			defer repo.Close()

			if direction == "down" {
				err = storage.MigrateDown(repo.DB(), repo.Dialect())
			} else {
				err = storage.MigrateUp(repo.DB(), repo.Dialect())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "migrated %s (%s)\n", direction, repo.Dialect())
			return nil
		},
	}
}

func (a *app) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Import users, subscriptions and tasks from a YAML fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := seed.LoadFile(args[0])
			if err != nil {
				return err
			}
			repo, err := a.openRepository(cmd.Context())
			if err != nil {
				return err
			}
			defer repo.Close()

			sum, err := seed.Import(cmd.Context(), repo, f, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "imported %d users, %d subscriptions, %d tasks\n", sum.Users, sum.Subscriptions, sum.Tasks)
			return nil
		},
	}
}

type passOptions struct {
	now    string
	asJSON bool
}

func (a *app) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one pass now",
	}

	var daily, notifyOpts passOptions
	dailyCmd := &cobra.Command{
		Use:   "daily",
		Short: "Reconcile every user's cached boards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			clock, err := clockFor(daily.now)
			if err != nil {
				return err
			}
			return a.withEngine(cmd.Context(), func(_ storage.Repository, engine *board.Engine) error {
				report, err := engine.RunDaily(cmd.Context(), clock.Now())
				if err != nil {
					return err
				}
				return a.printReport(daily.asJSON, report, report.Markdown())
			})
		},
	}
	notifyCmd := &cobra.Command{
		Use:   "notify",
		Short: "Send reminders due this minute",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			clock, err := clockFor(notifyOpts.now)
			if err != nil {
				return err
			}
			return a.withEngine(cmd.Context(), func(_ storage.Repository, engine *board.Engine) error {
				report, err := engine.RunNotifications(cmd.Context(), clock.Now())
				if err != nil {
					return err
				}
				return a.printReport(notifyOpts.asJSON, report, report.Markdown())
			})
		},
	}
	for _, pair := range []struct {
		c    *cobra.Command
		opts *passOptions
	}{{dailyCmd, &daily}, {notifyCmd, &notifyOpts}} {
		pair.c.Flags().StringVar(&pair.opts.now, "now", "", "evaluate at this RFC3339 instant instead of the wall clock")
		pair.c.Flags().BoolVar(&pair.opts.asJSON, "json", false, "print the report as JSON")
	}

	cmd.AddCommand(dailyCmd, notifyCmd)
	return cmd
}

func (a *app) printReport(asJSON bool, report any, markdown string) error {
	if asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	fmt.Fprintln(a.out, views.RenderMarkdown(markdown, 100))
	return nil
}

func (a *app) serveCmd() *cobra.Command {
	var noScheduler bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run both passes on schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return a.withEngine(ctx, func(_ storage.Repository, engine *board.Engine) error {
				clock := scheduler.RealClock{}
				server := httpapi.NewServer(engine, clock, a.cfg.HTTP.CronSecret, a.logger)

				ctx, cancel := context.WithCancel(ctx)
				defer cancel()

				var (
					wg   sync.WaitGroup
					mu   sync.Mutex
					errs []error
				)
				record := func(err error) {
					if err == nil {
						return
					}
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
					cancel()
				}

				wg.Add(1)
				go func() {
					defer wg.Done()
					record(server.Serve(ctx, a.cfg.HTTP.Addr))
				}()

				if !noScheduler {
					runner := scheduler.NewRunner(scheduler.NewEngine(a.cfg.Scheduler.Buffer), clock, a.logger)
					runner.Every(scheduler.JobDailyBoard, a.cfg.Scheduler.DailyInterval, true, func(ctx context.Context, now time.Time) error {
						_, err := engine.RunDaily(ctx, now)
						return err
					})
					runner.Every(scheduler.JobNotifications, time.Minute, false, func(ctx context.Context, now time.Time) error {
						_, err := engine.RunNotifications(ctx, now)
						return err
					})
					wg.Add(1)
					go func() {
						defer wg.Done()
						record(runner.Run(ctx))
					}()
				}

				wg.Wait()
				return errors.Join(errs...)
			})
		},
	}
	cmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "only serve HTTP; an external cron calls /jobs/*")
	return cmd
}

func (a *app) dashboardCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Open the terminal dashboard for one user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEngine(cmd.Context(), func(_ storage.Repository, engine *board.Engine) error {
				return dashboard.Run(dashboard.NewModel(dashboard.Options{
					UserID:  userID,
					Backend: engine,
					Context: cmd.Context(),
				}))
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func (a *app) statusCmd() *cobra.Command {
	var opts passOptions
	cmd := &cobra.Command{
		Use:   "status <task-id>",
		Short: "Show a task's cached and previewed board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clock, err := clockFor(opts.now)
			if err != nil {
				return err
			}
			return a.withEngine(cmd.Context(), func(_ storage.Repository, engine *board.Engine) error {
				st, err := engine.Status(cmd.Context(), args[0], clock.Now())
				if err != nil {
					if errors.Is(err, storage.ErrNotFound) {
						return fmt.Errorf("task %s not found", args[0])
					}
					return err
				}
				if opts.asJSON {
					enc := json.NewEncoder(a.out)
					enc.SetIndent("", "  ")
					return enc.Encode(st)
				}
				fmt.Fprintln(a.out, views.RenderTaskDetail(views.TaskDetailData{
					ID:       st.TaskID,
					Title:    st.Title,
					Board:    string(st.Board),
					Preview:  string(st.PreviewBoard),
					DueToday: st.DueToday,
					Done:     st.CompletedForCycle,
					Today:    st.Today,
					Timezone: st.Timezone,
				}))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&opts.now, "now", "", "evaluate at this RFC3339 instant instead of the wall clock")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print as JSON")
	return cmd
}
