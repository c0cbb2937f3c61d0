package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/SantanaDZ/cad-social/internal/clock"
	"github.com/SantanaDZ/cad-social/internal/config"
	"github.com/SantanaDZ/cad-social/internal/connectivity"
	"github.com/SantanaDZ/cad-social/internal/identity"
	"github.com/SantanaDZ/cad-social/internal/intake"
	"github.com/SantanaDZ/cad-social/internal/logging"
	"github.com/SantanaDZ/cad-social/internal/prefs"
	"github.com/SantanaDZ/cad-social/internal/queue"
	"github.com/SantanaDZ/cad-social/internal/reconcile"
	"github.com/SantanaDZ/cad-social/internal/remote"
	"github.com/SantanaDZ/cad-social/internal/state"
	"github.com/SantanaDZ/cad-social/internal/storage"
)

// Options configure the CadSocial runtime.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/cadsocial/prefs.toml
	ProbeEvery int    // seconds; zero uses the config value
	// Console receives log lines when it is a terminal. The TUI leaves it nil.
	Console io.Writer
	// Config skips loading from ConfigPath when set.
	Config *config.Config
}

// Runtime is the wired set of components shared by the TUI and the CLI.
type Runtime struct {
	Config     config.Config
	Prefs      prefs.Prefs
	Logger     *slog.Logger
	Storage    storage.Storage
	Queue      *queue.Store
	Remote     remote.Store // nil when neither api_url nor database_url is set
	Session    *identity.SessionProvider
	Monitor    *connectivity.Monitor
	Reconciler *reconcile.Reconciler
	Submitter  *intake.Submitter
	State      *state.Store
	Registry   *prometheus.Registry

	closers []func() error
}

// Open loads configuration and wires every component without starting any
// background work.
func Open(ctx context.Context, opts Options) (*Runtime, error) {
	var cfg config.Config
	if opts.Config != nil {
		cfg = *opts.Config
	} else {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if opts.ProbeEvery > 0 {
		cfg.ProbeInterval = time.Duration(opts.ProbeEvery) * time.Second
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	logger, logCloser, err := logging.New(logging.Options{
		Level:    cfg.LogLevel,
		Format:   cfg.LogFormat,
		FilePath: cfg.LogPath(),
		Console:  opts.Console,
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	rt := &Runtime{
		Config:   cfg,
		Prefs:    userPrefs,
		Logger:   logger,
		State:    &state.Store{},
		Registry: prometheus.NewRegistry(),
	}
	rt.closers = append(rt.closers, logCloser.Close)

	st, closeStorage, err := storage.Open(storage.Options{
		Backend:  cfg.Storage,
		Dir:      cfg.DataDir,
		RedisURL: cfg.RedisURL,
		Prefix:   "cadsocial:",
	})
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage, err)
	}
	rt.Storage = st
	rt.closers = append(rt.closers, closeStorage)

	rt.Queue = queue.New(st, queue.WithLogger(logging.Component(logger, "queue")))
	rt.Queue.Load()

	rt.Session = identity.NewSessionProvider(cfg.SessionPath, cfg.JWTSecret, clock.Real{})

	store, err := openRemote(ctx, cfg, rt.Session)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	var inserter remote.Inserter = unconfigured{}
	var probe connectivity.Probe = unconfigured{}
	if store != nil {
		rt.Remote = store
		inserter = store
		probe = connectivity.ProbeFunc(store.Ping)
		if pg, ok := store.(*remote.Postgres); ok {
			rt.closers = append(rt.closers, func() error { pg.Close(); return nil })
		}
	} else {
		logger.Warn("remote store not configured; submissions stay queued")
	}

	rt.Monitor = connectivity.New(probe, connectivity.Options{
		Interval: cfg.ProbeInterval,
		Logger:   logging.Component(logger, "connectivity"),
	})
	rt.Monitor.Subscribe(rt.State.SetOnline)
	rt.Queue.Subscribe(rt.State.SetPending)
	rt.State.SetPending(rt.Queue.Len())

	rt.Reconciler = reconcile.New(rt.Queue, inserter, rt.Session, rt.Monitor, reconcile.Options{
		Logger:   logging.Component(logger, "reconcile"),
		Metrics:  reconcile.NewMetrics(rt.Registry),
		Reporter: reconcile.ReporterFunc(rt.State.RecordSync),
	})
	rt.State.WatchDrains(rt.Reconciler.Syncing)
	rt.Submitter = intake.NewSubmitter(rt.Monitor, rt.Queue, inserter, rt.Session, logging.Component(logger, "intake"))

	return rt, nil
}

// Start launches the connectivity monitor, the reconciler and, for the file
// backend, the queue file watcher. The returned function blocks until they
// have all stopped after ctx is cancelled.
func (rt *Runtime) Start(ctx context.Context) func() error {
	g, gctx := errgroup.WithContext(ctx)

	rt.Monitor.Start(gctx)
	rt.State.SetOnline(rt.Monitor.Online())
	g.Go(func() error {
		<-gctx.Done()
		rt.Monitor.Stop()
		return nil
	})

	g.Go(func() error {
		return rt.Reconciler.Run(gctx)
	})

	if fs, ok := rt.Storage.(*storage.File); ok {
		g.Go(func() error {
			err := fs.Watch(gctx, queue.StorageKey, func() {
				if rt.Queue.Reload() {
					rt.Logger.Debug("queue reloaded from disk")
				}
			})
			if err != nil {
				rt.Logger.Warn("queue file watch unavailable", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	return g.Wait
}

// Close releases storage, database and log resources in reverse order.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

// RequireRemote returns the remote store or a configuration error.
func (rt *Runtime) RequireRemote() (remote.Store, error) {
	if rt.Remote == nil {
		return nil, rt.Config.RequireRemote()
	}
	return rt.Remote, nil
}

func openRemote(ctx context.Context, cfg config.Config, tokens remote.TokenSource) (remote.Store, error) {
	if cfg.DatabaseURL != "" {
		pg, err := remote.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		return pg, nil
	}
	if cfg.APIURL != "" {
		client, err := remote.NewClient(cfg.APIURL, cfg.APIKey, tokens)
		if err != nil {
			return nil, fmt.Errorf("init api client: %w", err)
		}
		return client, nil
	}
	return nil, nil
}

var errUnconfigured = errors.New("remote store not configured")

// unconfigured stands in for the remote store in offline-only mode: the
// monitor never sees it reachable, so every submission is queued.
type unconfigured struct{}

func (unconfigured) Check(context.Context) error { return errUnconfigured }

func (unconfigured) Insert(context.Context, string, map[string]any) error { return errUnconfigured }
