package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"consumption-analytics/internal/alerting"
	"consumption-analytics/internal/config"
	"consumption-analytics/internal/growth"
	"consumption-analytics/internal/report"
	"consumption-analytics/internal/scheduler"
	"consumption-analytics/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) newService(store *storage.Store, sched *scheduler.Scheduler, notifier alerting.Notifier) *report.Service {
	var facts storage.FactStore
	var snapshots storage.SnapshotStore
	var runs storage.RunStore
	if store != nil {
		facts = store
		snapshots = store
		runs = store
	}
	return report.New(a.Config, sched, facts, snapshots, runs, notifier, a.Logger)
}

// Run executes the long-running snapshot refresh service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database.dsn not configured; the refresh service requires the warehouse")
	}
	if closeStore != nil {
		defer closeStore()
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Refresh.Interval,
		AlignToStart: a.Config.Refresh.AlignToBucket,
		StartupDelay: a.Config.Refresh.StartupDelay,
	}, a.Logger)

	svc := a.newService(store, sched, a.newNotifier())

	a.Logger.Info().Msg("starting snapshot refresh service")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("snapshot refresh service stopped")
	return nil
}

// historicalWindow resolves the default historical window: the configured
// lookback ending at the current month.
func (a *App) historicalWindow(from, to *time.Time) (time.Time, time.Time) {
	end := growth.MonthStart(time.Now().UTC())
	start := end.AddDate(0, -a.Config.Query.LookbackMonths, 0)
	if from != nil {
		start = growth.MonthStart(*from)
	}
	if to != nil {
		end = growth.MonthStart(*to)
	}
	return start, end
}

// forecastWindow resolves the default forecast horizon: next month through
// the configured number of months.
func (a *App) forecastWindow(start, end *time.Time) (time.Time, time.Time) {
	first := growth.MonthStart(time.Now().UTC()).AddDate(0, 1, 0)
	if start != nil {
		first = growth.MonthStart(*start)
	}
	last := first.AddDate(0, a.Config.Forecast.HorizonMonths-1, 0)
	if end != nil {
		last = growth.MonthStart(*end)
	}
	return first, last
}

// HistoricalOptions configure the historical report command.
type HistoricalOptions struct {
	AccountPattern string
	From           *time.Time
	To             *time.Time
	MinGrowthPct   *float64
	Limit          int
}

// ForecastOptions configure the forecast scenario command.
type ForecastOptions struct {
	AccountPattern string
	Start          *time.Time
	End            *time.Time
	BaselineFrom   *time.Time
	BaselineTo     *time.Time
}

// ExportOptions hold parameters for exporting report data to files.
type ExportOptions struct {
	Kind           string
	AccountPattern string
	From           *time.Time
	To             *time.Time
	CSVPath        string
	XLSXPath       string
	PNGPath        string
	MaxRows        int
}

// LoadOptions configure the CSV fact import.
type LoadOptions struct {
	Path   string
	Strict bool
	DryRun bool
}

// SnapshotsOptions configure the snapshot listing.
type SnapshotsOptions struct {
	Limit int
}
