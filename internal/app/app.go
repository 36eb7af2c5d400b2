package app

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/wolfcubecho/quil-monitor/internal/alerting"
	"github.com/wolfcubecho/quil-monitor/internal/config"
	"github.com/wolfcubecho/quil-monitor/internal/journal"
	"github.com/wolfcubecho/quil-monitor/internal/metrics"
	"github.com/wolfcubecho/quil-monitor/internal/nodeinfo"
	"github.com/wolfcubecho/quil-monitor/internal/parser"
	"github.com/wolfcubecho/quil-monitor/internal/pricing"
	"github.com/wolfcubecho/quil-monitor/internal/service"
	"github.com/wolfcubecho/quil-monitor/internal/storage"
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

func (a *App) newSource() journal.Source {
	return journal.New(journal.Options{
		Unit:    a.Config.Node.JournalUnit,
		Since:   a.Config.Node.Since,
		Timeout: a.Config.Node.ReadTimeout,
	}, a.Logger)
}

func (a *App) newPriceClient() *pricing.Client {
	return pricing.New(pricing.Options{
		BaseURL:   a.Config.Price.BaseURL,
		CoinID:    a.Config.Price.CoinID,
		Currency:  a.Config.Price.Currency,
		CacheTTL:  a.Config.Price.CacheTTL,
		Timeout:   a.Config.Price.RequestTimeout,
		UserAgent: a.Config.Price.UserAgent,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Telegram.Enabled {
		cfg := a.Config.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) newNodeInfo() service.NodeInfoSource {
	if a.Config.Node.Binary == "" {
		return nil
	}
	return nodeinfo.New(nodeinfo.Options{
		Binary:  a.Config.Node.Binary,
		Timeout: a.Config.Node.ReadTimeout,
	}, a.Logger)
}

func (a *App) newStateFile() *storage.StateFile {
	return storage.NewStateFile(a.Config.Storage.HistoryFile, a.Logger)
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

func (a *App) newService(price service.PriceSource, mirror storage.DailyRecordStore, notifier alerting.Notifier) *service.Service {
	agg := metrics.NewAggregator(metrics.Thresholds{
		FastUnder: a.Config.Metrics.FastUnder,
		SlowOver:  a.Config.Metrics.SlowOver,
	})

	return service.New(
		service.Options{
			NodeName:  a.Config.Node.Name,
			DailyCSV:  a.Config.Storage.DailyCSV,
			ShardsCSV: a.Config.Storage.ShardsCSV,
		},
		a.newSource(),
		parser.New(nil),
		agg,
		a.newStateFile(),
		mirror,
		price,
		a.newNodeInfo(),
		notifier,
		os.Stdout,
		a.Logger,
	)
}

// ExportOptions hold parameters for exporting historical records.
type ExportOptions struct {
	From      string
	To        string
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}
