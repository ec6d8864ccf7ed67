package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/homeyum/yum/internal/api"
	"github.com/homeyum/yum/internal/auth"
	"github.com/homeyum/yum/internal/config"
	"github.com/homeyum/yum/internal/feed"
	"github.com/homeyum/yum/internal/jobs"
	"github.com/homeyum/yum/internal/localdb"
	"github.com/homeyum/yum/internal/logging"
	"github.com/homeyum/yum/internal/prefs"
	"github.com/homeyum/yum/internal/search"
	"github.com/homeyum/yum/internal/state"
	"github.com/homeyum/yum/internal/stores"
	"github.com/homeyum/yum/internal/task"
)

// Options configure the engine.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/yum/prefs.toml
	// Config replaces the file at ConfigPath when set.
	Config *config.Config
	// Tokens replaces the token_env/token_file chain when set.
	Tokens auth.TokenSource
	// LogOutputs overrides the default <cache_dir>/yum.log destination.
	LogOutputs []string
	// Fake serves the API and search from an in-process backend with sample
	// data instead of the configured endpoints.
	Fake bool
}

// App owns every engine component and the shared UI snapshot.
type App struct {
	cfg       config.Config
	prefsPath string
	logger    *slog.Logger

	api     *api.Client
	links   *jobs.Tracker
	manual  *jobs.Tracker
	library *stores.Library
	feed    *feed.Feed
	search  *feed.Search
	store   *state.Store
	db      *localdb.Store

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	dirty   chan struct{}
	changed chan struct{}
	closers []func() error

	mu        sync.Mutex
	prefs     prefs.Prefs
	poller    *task.Handle
	completed map[jobs.Kind]string
	closed    bool
}

// New loads configuration and builds the engine. Nothing touches the
// network until Start.
func New(ctx context.Context, opts Options) (*App, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	userPrefs, _ := prefs.Load(opts.PrefsPath)

	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	outputs := opts.LogOutputs
	if len(outputs) == 0 {
		outputs = []string{cfg.LogPath()}
	}
	logger, logCloser, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Outputs: outputs,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a := &App{
		prefsPath: opts.PrefsPath,
		logger:    logger,
		store:     &state.Store{},
		ctx:       runCtx,
		cancel:    cancel,
		dirty:     make(chan struct{}, 1),
		changed:   make(chan struct{}, 1),
		prefs:     userPrefs,
		completed: map[jobs.Kind]string{},
	}
	a.closers = append(a.closers, logCloser.Close)

	tokens := opts.Tokens
	if opts.Fake {
		fake, err := startFake(logger)
		if err != nil {
			a.abort()
			return nil, err
		}
		a.closers = append(a.closers, fake.Close)
		cfg.APIBase = fake.URL()
		cfg.SearchEndpoint = fake.URL() + "/youtube/v3/search"
		cfg.SearchAPIKey = fakeSearchKey
		tokens = auth.Static(fakeToken)
	}
	if tokens == nil {
		tokens = auth.Chain{auth.Env(cfg.TokenEnv), auth.File(cfg.TokenFile)}
	}
	a.cfg = cfg

	a.api, err = api.NewClient(cfg.APIBase, tokens)
	if err != nil {
		a.abort()
		return nil, fmt.Errorf("init api client: %w", err)
	}

	searchClient, err := search.NewClient(cfg.SearchEndpoint, cfg.SearchAPIKey,
		search.WithCache(a.searchCache(ctx), 0),
		search.WithPageSize(cfg.SearchPageSize),
		search.WithLogger(logger),
	)
	if err != nil {
		a.abort()
		return nil, fmt.Errorf("init search client: %w", err)
	}

	var (
		jobPersist jobs.Persister
		libPersist stores.Persister
	)
	dbDir := cfg.CacheDir
	if opts.Fake {
		// Sample data must not mix with a real account's cache.
		dbDir = filepath.Join(cfg.CacheDir, "fake")
	}
	if db, err := localdb.Open(dbDir); err != nil {
		if errors.Is(err, localdb.ErrLocked) {
			logger.Warn("local cache in use; running without persistence", logging.String("dir", dbDir))
		} else {
			logger.Warn("local cache unavailable; running without persistence", logging.Error(err))
		}
	} else {
		a.db = db
		jobPersist = db
		libPersist = db
		a.closers = append(a.closers, db.Close)
	}

	a.links = jobs.NewTracker(jobs.Options{
		Kind:         jobs.KindLinkImport,
		Backend:      a.api,
		Persist:      jobPersist,
		Logger:       logger,
		PollInterval: cfg.JobPollInterval(),
		OnChange:     a.onJobChange,
	})
	a.manual = jobs.NewTracker(jobs.Options{
		Kind:         jobs.KindManualPrompt,
		Backend:      a.api,
		Persist:      jobPersist,
		Logger:       logger,
		PollInterval: cfg.JobPollInterval(),
		OnChange:     a.onJobChange,
	})
	a.library = stores.NewLibrary(a.api, libPersist, stores.Options{
		Logger:   logger,
		OnChange: a.notify,
	})
	a.feed = feed.New(a.api, feed.Options{
		PageSize:      cfg.FeedPageSize,
		TargetSize:    cfg.PrefetchTarget,
		Threshold:     cfg.PrefetchThreshold,
		MaxEmptyPages: cfg.MaxEmptyPages,
		Logger:        logger,
		OnChange:      a.notify,
	})
	a.search = feed.NewSearch(searchClient, feed.SearchOptions{
		TargetSize:    cfg.PrefetchTarget,
		Threshold:     cfg.PrefetchThreshold,
		MaxEmptyPages: cfg.MaxEmptyPages,
		Logger:        logger,
		OnChange:      a.notify,
	})

	a.wg.Add(1)
	go a.publishLoop()
	return a, nil
}

func loadConfig(opts Options) (config.Config, error) {
	if opts.Config != nil {
		cfg := *opts.Config
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
		return cfg, nil
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// searchCache prefers Redis when configured and reachable.
func (a *App) searchCache(ctx context.Context) search.Cache {
	if a.cfg.RedisURL == "" {
		return search.NewMemoryCache()
	}
	rc, err := search.NewRedisCache(a.cfg.RedisURL)
	if err != nil {
		a.logger.Warn("invalid redis_url; using memory cache", logging.Error(err))
		return search.NewMemoryCache()
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		_ = rc.Close()
		a.logger.Warn("redis unreachable; using memory cache", logging.Error(err))
		return search.NewMemoryCache()
	}
	a.closers = append(a.closers, rc.Close)
	return rc
}

// Prepare restores the last library snapshot and then loads the library
// from the server. It is the part of Start one-shot commands need.
func (a *App) Prepare(ctx context.Context) error {
	if a.db != nil {
		if err := a.library.Restore(ctx); err != nil {
			a.logger.Warn("restore library snapshot failed", logging.Error(err))
		}
		a.notify()
	}
	if err := a.library.Initialize(ctx); err != nil {
		a.logger.Warn("library load failed", logging.Error(err))
		return err
	}
	return nil
}

// Start restores local state, loads everything from the server, resumes
// unfinished jobs and starts the display poller. Load failures are logged
// and returned joined; the engine stays usable offline.
func (a *App) Start(ctx context.Context) error {
	var errs []error
	if err := a.Prepare(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.feed.Load(ctx); err != nil {
		a.logger.Warn("feed load failed", logging.Error(err))
		errs = append(errs, fmt.Errorf("load feed: %w", err))
	}
	if q := a.Prefs().LastQuery; q != "" && a.cfg.SearchAPIKey != "" {
		if err := a.search.SetQuery(ctx, q); err != nil {
			a.logger.Warn("restore search failed", logging.String(logging.FieldQuery, q), logging.Error(err))
		}
	}
	for _, t := range a.trackers() {
		if _, err := t.Resume(ctx, ""); err != nil {
			a.logger.Warn("resume job failed", logging.String(logging.FieldKind, string(t.Kind())), logging.Error(err))
			errs = append(errs, fmt.Errorf("resume %s job: %w", t.Kind(), err))
		}
	}
	a.StartPoller()
	return errors.Join(errs...)
}

// Close stops pollers, snapshots the library and releases resources. It is
// safe to call more than once.
func (a *App) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	poller := a.poller
	a.poller = nil
	a.mu.Unlock()

	poller.Stop()
	for _, t := range a.trackers() {
		t.Close()
	}
	a.cancel()
	a.wg.Wait()

	var errs []error
	if a.db != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.library.Persist(ctx); err != nil {
			errs = append(errs, fmt.Errorf("persist library: %w", err))
		}
		cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// abort releases whatever New managed to open before failing.
func (a *App) abort() {
	a.cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func (a *App) trackers() []*jobs.Tracker {
	return []*jobs.Tracker{a.links, a.manual}
}

// notify marks the view dirty. It never blocks.
func (a *App) notify() {
	select {
	case a.dirty <- struct{}{}:
	default:
	}
}

// publishLoop rebuilds the view after local changes and forwards one
// coalesced signal to Changed.
func (a *App) publishLoop() {
	defer a.wg.Done()
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-a.dirty:
		}
		a.store.SetView(a.view())
		a.signal()
	}
}

func (a *App) signal() {
	select {
	case a.changed <- struct{}{}:
	default:
	}
}

// onJobChange runs on tracker goroutines. A newly completed job publishes a
// video, so the feed is reloaded from the top.
func (a *App) onJobChange(job jobs.Job) {
	a.notify()
	if job.Status != jobs.StatusCompleted || job.ID == "" {
		return
	}
	a.mu.Lock()
	if a.closed || a.completed[job.Kind] == job.ID {
		a.mu.Unlock()
		return
	}
	a.completed[job.Kind] = job.ID
	a.wg.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.wg.Done()
		a.logger.Info("recipe ready; refreshing feed", logging.String(logging.FieldJobID, job.ID))
		if err := a.feed.Refresh(a.ctx); err != nil && a.ctx.Err() == nil {
			a.logger.Warn("feed refresh after job failed", logging.Error(err))
		}
	}()
}

// view gathers the current engine state.
func (a *App) view() state.View {
	counts := state.Counts{
		TryList:   len(a.library.TryList.Items()),
		Rated:     len(a.library.Ratings.Rated()),
		Scheduled: len(a.library.Schedule.Meals()),
		Tried:     len(a.library.Schedule.Tried()),
	}
	for _, r := range a.library.Reactions.All() {
		switch r {
		case api.ReactionLike:
			counts.Liked++
		case api.ReactionDislike:
			counts.Disliked++
		}
	}
	return state.View{
		Jobs:        []jobs.Job{a.links.Job(), a.manual.Job()},
		Feed:        a.feed.Videos(),
		FeedState:   a.feed.State(),
		Search:      a.search.Results(),
		SearchState: a.search.State(),
		Library:     counts,
	}
}

// Config returns the effective configuration.
func (a *App) Config() config.Config { return a.cfg }

// Logger returns the engine logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// LogPath returns the log file the activity pane follows.
func (a *App) LogPath() string { return a.cfg.LogPath() }

// Persistent reports whether the local cache is in use.
func (a *App) Persistent() bool { return a.db != nil }

var _ io.Closer = (*App)(nil)
