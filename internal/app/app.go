// Package app assembles the bot: config, logging, storage, the chat
// adapter, the due cache, the dispatch loop, and the command router.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mirabot/internal/bot"
	"mirabot/internal/config"
	"mirabot/internal/eventbus"
	"mirabot/internal/parse"
	"mirabot/internal/services/dispatch"
	"mirabot/internal/services/duecache"
	"mirabot/internal/storage"
	kit "mirabot/internal/transport"
	"mirabot/internal/transport/telegram"
	logx "mirabot/pkg/logx"
)

// StopReason records why the app is shutting down; it ends up in the
// final log lines.
type StopReason string

const (
	StopUnknown    StopReason = "unknown"
	StopSIGINT     StopReason = "sigint"
	StopSIGTERM    StopReason = "sigterm"
	StopFatalError StopReason = "fatal_error"
	StopAppStop    StopReason = "app_stop"
)

type App struct {
	cfgPath string
	cfgm    *config.Manager

	log  logx.Logger
	logs *logx.Service

	store   storage.Store
	bus     eventbus.Bus
	adapter *telegram.Adapter
	cache   *duecache.Service
	disp    *dispatch.Service
	router  *bot.Router

	updates chan kit.Update

	cancel context.CancelFunc
	done   chan struct{}
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	adapter, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, err
	}

	busyTimeout, err := config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, 5*time.Second)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(storage.Config{
		Path:        cfg.Storage.Path,
		BusyTimeout: busyTimeout,
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}

	rc, err := mapReminderConfig(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	bus := eventbus.New()

	cache := duecache.New(duecache.Config{
		Refresh:   rc.cacheRefresh,
		Lookahead: rc.cacheLookahead,
	}, store, log.With(logx.String("comp", "duecache")))

	disp := dispatch.New(dispatch.Config{
		Tick:       rc.dispatchTick,
		RatePerSec: cfg.Reminders.SendRatePerSec,
	}, cache, store, adapter, bus, log.With(logx.String("comp", "dispatch")))

	parser := parse.New(parse.Config{
		MaxReminders:  cfg.Reminders.MaxPerUser,
		MaxMessageLen: cfg.Reminders.MaxMessageLen,
		Developer:     cfg.Reminders.Developer,
		DefaultHour:   cfg.Reminders.DefaultHour,
		SpamWindow:    rc.spamWindow,
	}, cache)

	router := bot.New(adapter, store, parser, cache, bus, log.With(logx.String("comp", "bot")))

	return &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		store:   store,
		bus:     bus,
		adapter: adapter,
		cache:   cache,
		disp:    disp,
		router:  router,
		updates: make(chan kit.Update, 256),
		done:    make(chan struct{}),
	}, nil
}

// Done is closed once the run context unwinds.
func (a *App) Done() <-chan struct{} { return a.done }

func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if err := a.cache.Start(runCtx); err != nil {
		cancel()
		return fmt.Errorf("due cache: %w", err)
	}
	if err := a.adapter.Start(runCtx, a.updates); err != nil {
		cancel()
		return fmt.Errorf("adapter: %w", err)
	}
	if err := a.adapter.UpdateMenuCommands(runCtx, bot.Commands()); err != nil {
		a.log.Warn("command menu update failed", logx.Err(err))
	}
	a.disp.Start(runCtx)

	go func() {
		defer close(a.done)
		a.router.Run(runCtx, a.updates)
	}()
	go a.reloadLoop(runCtx)
	go a.eventLog(runCtx)
	go func() {
		if err := a.cfgm.Watch(runCtx); err != nil && runCtx.Err() == nil {
			a.log.Warn("config watch stopped", logx.Err(err))
		}
	}()

	a.log.Info("app started", logx.String("config", a.cfgPath))
	return nil
}

// eventLog mirrors reminder lifecycle events into debug logs.
func (a *App) eventLog(ctx context.Context) {
	events, unsub := a.bus.Subscribe(128)
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			a.log.Debug("event",
				logx.String("type", e.Type),
				logx.Int64("reminder_id", e.ReminderID),
				logx.Int64("owner_id", e.OwnerID))
		}
	}
}

// reloadLoop applies hot-reloadable settings. Storage and telegram
// credentials need a restart; only logging is live for now.
func (a *App) reloadLoop(ctx context.Context) {
	sub := a.cfgm.Subscribe(8)
	defer a.cfgm.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-sub:
			if !ok {
				return
			}
			a.logs.Apply(logx.Config{
				Level:   cfg.Logging.Level,
				Console: cfg.Logging.Console,
				File: logx.FileConfig{
					Enabled: cfg.Logging.File.Enabled,
					Path:    cfg.Logging.File.Path,
				},
			})
			a.log.Info("config reloaded", logx.String("level", cfg.Logging.Level))
		}
	}
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.cancel == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	a.cancel()

	// Bound each shutdown step so one component cannot stall the rest.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()
		done := make(chan error, 1)
		go func() { done <- fn(stepCtx) }()
		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached", logx.String("name", name))
		}
	}

	step("dispatch", 2*time.Second, func(context.Context) error { a.disp.Stop(); return nil })
	step("duecache", 2*time.Second, func(context.Context) error { a.cache.Stop(); return nil })
	step("adapter", 3*time.Second, func(c context.Context) error { return a.adapter.Stop(c) })
	step("storage", 1*time.Second, func(context.Context) error { return a.store.Close() })

	select {
	case <-a.done:
	case <-ctx.Done():
	}

	a.log.Info("stopped")
	return a.logs.Close()
}

// reminderDurations holds the parsed duration knobs from the reminders
// config section.
type reminderDurations struct {
	spamWindow     time.Duration
	cacheRefresh   time.Duration
	cacheLookahead time.Duration
	dispatchTick   time.Duration
}

func mapReminderConfig(cfg *config.Config) (reminderDurations, error) {
	var rc reminderDurations
	var err error
	if rc.spamWindow, err = config.ParseDurationOrDefault("reminders.spam_window", cfg.Reminders.SpamWindow, 5*time.Minute); err != nil {
		return rc, err
	}
	if rc.cacheRefresh, err = config.ParseDurationOrDefault("reminders.cache_refresh", cfg.Reminders.CacheRefresh, time.Minute); err != nil {
		return rc, err
	}
	if rc.cacheLookahead, err = config.ParseDurationOrDefault("reminders.cache_lookahead", cfg.Reminders.CacheLookahead, time.Hour); err != nil {
		return rc, err
	}
	if rc.dispatchTick, err = config.ParseDurationOrDefault("reminders.dispatch_tick", cfg.Reminders.DispatchTick, 5*time.Second); err != nil {
		return rc, err
	}
	if loc := strings.TrimSpace(cfg.Reminders.Locale); loc != "" && loc != "en" {
		return rc, fmt.Errorf("reminders.locale: unsupported %q (only \"en\")", loc)
	}
	return rc, nil
}
