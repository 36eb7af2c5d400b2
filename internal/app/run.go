package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/wolfcubecho/quil-monitor/internal/scheduler"
	"github.com/wolfcubecho/quil-monitor/internal/storage"
)

// Run executes a single collection pass, the cron-friendly default mode.
func (a *App) Run(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		// The database mirror is optional; a broken DSN should not stop the run.
		a.Logger.Warn().Err(err).Msg("database unavailable, mirroring disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	var mirror storage.DailyRecordStore
	if store != nil {
		mirror = store
	}

	svc := a.newService(a.newPriceClient(), mirror, a.newNotifier())
	_, err = svc.Collect(ctx, time.Now())
	return err
}

// Watch runs collection passes on an aligned interval until interrupted, for
// users who prefer a daemon to cron.
func (a *App) Watch(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("database unavailable, mirroring disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	var mirror storage.DailyRecordStore
	if store != nil {
		mirror = store
	}

	svc := a.newService(a.newPriceClient(), mirror, a.newNotifier())

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToStart: a.Config.Scheduler.AlignToBucket,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	a.Logger.Info().Dur("interval", a.Config.Scheduler.Interval).Msg("starting watch loop")
	err = sched.Run(ctx, func(ctx context.Context, tick time.Time) error {
		_, err := svc.Collect(ctx, tick)
		return err
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	a.Logger.Info().Msg("watch loop stopped")
	return nil
}
