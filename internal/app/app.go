package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"tokenwatch/internal/alerting"
	"tokenwatch/internal/config"
	"tokenwatch/internal/monitor"
	"tokenwatch/internal/storage"
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

func (a *App) newEngine() (*monitor.Engine, error) {
	engine := monitor.NewEngine(monitor.Options{
		Shards:           a.Config.Engine.Shards,
		SubscriberBuffer: a.Config.Engine.SubscriberBuffer,
	}, a.Logger)

	for _, rule := range a.Config.Rules {
		if err := engine.Register(rule.Token, rule.ThresholdPct); err != nil {
			engine.Close()
			return nil, err
		}
	}
	return engine, nil
}

// newNotifier picks the delivery channel: Telegram when alerting is enabled
// and configured, the structured log otherwise.
func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Enabled && a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return alerting.NewLogNotifier(a.Logger)
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

// SimulateOptions configure the synthetic tick run.
type SimulateOptions struct {
	Token        string
	ThresholdPct float64
	StartPrice   float64
	Steps        int
	MaxStepPct   float64
	Seed         int64
}

// ShowOptions configure the alerts command.
type ShowOptions struct {
	Limit int
}

// ExportOptions hold parameters for exporting journaled alerts.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// PurgeOptions configure the journal retention pass.
type PurgeOptions struct {
	Retention time.Duration
}
