package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/taskboard/internal/config"
	"github.com/sandeepkv93/taskboard/internal/logging"
	"github.com/sandeepkv93/taskboard/internal/scheduler"
)

type globalFlags struct {
	configPath string
	driver     string
	dsn        string
	logLevel   string
	seedPath   string
}

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	flags  globalFlags
	out    io.Writer
	errOut io.Writer
	cfg    config.Config
	logger *slog.Logger
}

func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "taskboard",
		Short: "Recurring task board engine",
		Long: `taskboard keeps each user's cached boards in step with their tasks' due dates
and recurrence rules, and sends reminders for timed recurring tasks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "YAML config file")
	pf.StringVar(&a.flags.driver, "driver", "", "database driver: sqlite, postgres or memory")
	pf.StringVar(&a.flags.dsn, "dsn", "", "database DSN or SQLite path")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVar(&a.flags.seedPath, "seed", "", "fixture file loaded into the memory driver before the command runs")

	root.AddCommand(
		a.migrateCmd(),
		a.seedCmd(),
		a.runCmd(),
		a.serveCmd(),
		a.dashboardCmd(),
		a.statusCmd(),
	)
	return root
}

// Execute runs the CLI against the process streams.
func Execute(ctx context.Context) error {
	root := NewRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.flags.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("driver") {
		cfg.Database.Driver = a.flags.driver
	}
	if flags.Changed("dsn") {
		cfg.Database.DSN = a.flags.dsn
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, a.errOut)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// clockFor pins the clock when --now is given, for replaying a pass.
func clockFor(raw string) (scheduler.Clock, error) {
	if raw == "" {
		return scheduler.RealClock{}, nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("--now: %w", err)
	}
	return scheduler.NewFakeClock(at), nil
}
