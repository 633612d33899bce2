// Package app wires the trimmer, settings, plugins and documents together
// and implements the one-shot and watch workflows of the wstrim command.
package app

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/wstrim/internal/config"
	"github.com/dshills/wstrim/internal/hook"
	"github.com/dshills/wstrim/internal/logging"
	"github.com/dshills/wstrim/internal/plugin"
	"github.com/dshills/wstrim/internal/trim"
)

// Options configures the application.
type Options struct {
	// ConfigPath is an explicit settings file. When empty the user and
	// workspace settings files are used.
	ConfigPath string

	// WorkspacePath is the directory searched for .wstrim.toml/.yaml.
	WorkspacePath string

	// Plugins are Lua scripts to load.
	Plugins []string

	// WatchSettings reloads the owner patterns when settings files change.
	WatchSettings bool

	// Debounce is the quiet period before a file change is handled.
	Debounce time.Duration

	// Logger receives diagnostics. Defaults to a null logger.
	Logger *logging.Logger

	// Env looks up environment variables; nil uses the process environment.
	Env func(string) (string, bool)
}

// App is the central coordinator.
type App struct {
	opts   Options
	logger *logging.Logger

	settings *config.Store
	owner    *trim.OwnerMatcher
	trimmer  *trim.Trimmer
	plugins  *plugin.Manager
	hooks    *hook.Dispatcher
	docs     *DocumentManager
	metrics  *Metrics

	settingsSub *config.Subscription
	closed      atomic.Bool
	closeOnce   sync.Once
}

// New creates an App: settings are loaded, the trimmer and plugins are
// registered as lifecycle listeners.
func New(opts Options) (*App, error) {
	if opts.Logger == nil {
		opts.Logger = logging.Null()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 100 * time.Millisecond
	}

	a := &App{
		opts:    opts,
		logger:  opts.Logger,
		metrics: NewMetrics(),
	}

	a.initSettings()
	a.initTrimmer()
	if err := a.initPlugins(); err != nil {
		a.plugins.Close()
		return nil, &ComponentError{Component: "plugins", Err: err}
	}
	a.docs = NewDocumentManager(a.hooks, a.logger, a.metrics)
	return a, nil
}

// initSettings loads the owner patterns. Unreadable settings leave the
// pattern list empty, which only disables whole-document trimming.
func (a *App) initSettings() {
	storeOpts := []config.StoreOption{
		config.WithLogger(a.logger),
		config.WithDebounce(a.opts.Debounce),
	}
	if a.opts.ConfigPath != "" {
		storeOpts = append(storeOpts, config.WithPaths(a.opts.ConfigPath))
	} else {
		workspace := a.opts.WorkspacePath
		if workspace == "" {
			workspace, _ = os.Getwd()
		}
		storeOpts = append(storeOpts, config.WithPaths(config.DefaultPaths(workspace)...))
	}
	if a.opts.Env != nil {
		storeOpts = append(storeOpts, config.WithEnvLookup(a.opts.Env))
	}

	a.settings = config.NewStore(storeOpts...)
	if err := a.settings.Load(); err != nil {
		a.logger.Warn("settings: %v", err)
	}

	a.owner = &trim.OwnerMatcher{}
	a.applyOwnerPatterns(a.settings.OwnerPatterns())
	a.settingsSub = a.settings.OnChange(func(_, next config.Settings) {
		a.applyOwnerPatterns(next.OwnerPatterns)
	})
}

func (a *App) applyOwnerPatterns(patterns []string) {
	if err := a.owner.Set(patterns); err != nil {
		a.logger.Warn("invalid owner patterns skipped: %v", err)
	}
	a.logger.Debug("%d owner patterns active", len(a.owner.Patterns()))
}

// initTrimmer registers the trimmer first so plugins observe trimmed text.
func (a *App) initTrimmer() {
	a.hooks = hook.NewDispatcher(a.logger)
	a.trimmer = trim.New(trim.WithOwnerMatcher(a.owner), trim.WithLogger(a.logger))

	// Registration on a fresh dispatcher cannot collide.
	_ = a.hooks.Register("trim", hook.Funcs{
		Open:  a.trimmer.OnOpen,
		Clone: a.trimmer.OnClone,
		PreSave: func(doc hook.Document) error {
			res, err := a.trimmer.PreSave(doc)
			a.metrics.RecordTrim(res)
			return err
		},
		PostSave: a.trimmer.OnPostSave,
		Close:    a.trimmer.OnClose,
	}, hook.WithPriority(hook.PriorityHigh))
}

func (a *App) initPlugins() error {
	a.plugins = plugin.NewManager(a.logger)
	if err := a.plugins.LoadFiles(a.opts.Plugins...); err != nil {
		return err
	}
	return a.plugins.Register(a.hooks)
}

// Documents returns the document manager.
func (a *App) Documents() *DocumentManager { return a.docs }

// Settings returns the settings store.
func (a *App) Settings() *config.Store { return a.settings }

// Trimmer returns the trimmer.
func (a *App) Trimmer() *trim.Trimmer { return a.trimmer }

// Plugins returns the plugin manager.
func (a *App) Plugins() *plugin.Manager { return a.plugins }

// Hooks returns the lifecycle dispatcher.
func (a *App) Hooks() *hook.Dispatcher { return a.hooks }

// Metrics returns the application's metrics.
func (a *App) Metrics() *Metrics { return a.metrics }

// WatchSettings reloads the settings on file changes until ctx is done.
func (a *App) WatchSettings(ctx context.Context) error {
	err := a.settings.Watch(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Watch opens paths and trims them on every external write until ctx is
// done. With Options.WatchSettings the settings files are watched too.
func (a *App) Watch(ctx context.Context, paths ...string) error {
	if a.closed.Load() {
		return ErrClosed
	}
	session, err := a.NewSession(paths...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg          sync.WaitGroup
		settingsErr error
	)
	if a.opts.WatchSettings {
		wg.Add(1)
		go func() {
			defer wg.Done()
			settingsErr = a.WatchSettings(ctx)
		}()
	}

	err = session.Run(ctx)
	cancel()
	wg.Wait()
	return errors.Join(err, settingsErr)
}

// Report describes one processed file.
type Report struct {
	Path    string
	Changed bool
	Patch   string // set for dry runs
}

// ProcessOptions controls ProcessFile.
type ProcessOptions struct {
	// Baseline is the text the file is diffed against. When nil the file
	// is untracked and only owner trimming applies.
	Baseline *string

	// DryRun computes the patch without writing the file.
	DryRun bool
}

// ProcessFile opens path, saves it through the lifecycle hooks and closes
// it.
func (a *App) ProcessFile(ctx context.Context, path string, opts ProcessOptions) (Report, error) {
	if a.closed.Load() {
		return Report{}, ErrClosed
	}

	var (
		doc *Document
		err error
	)
	if opts.Baseline != nil {
		doc, err = a.docs.OpenWithBaseline(path, *opts.Baseline)
	} else {
		doc, err = a.docs.Open(path)
	}
	if err != nil {
		return Report{}, err
	}
	defer a.docs.Close(doc.ID())

	report := Report{Path: doc.Path()}
	before, err := os.ReadFile(doc.Path())
	if err != nil {
		return report, NewOperationError("read", doc.Path(), err)
	}

	if opts.DryRun {
		if _, err := a.docs.PreSave(ctx, doc.ID()); err != nil {
			return report, err
		}
		after := doc.Content()
		report.Changed = after != string(before)
		report.Patch = Preview(doc.Path(), string(before), after)
		return report, nil
	}

	if err := a.docs.Save(ctx, doc.ID()); err != nil {
		return report, err
	}
	report.Changed = doc.Content() != string(before)
	return report, nil
}

// Close closes every document and plugin. It is safe to call more than
// once.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.closed.Store(true)
		a.settingsSub.Unsubscribe()
		a.docs.CloseAll()
		err = a.plugins.Close()
	})
	return err
}
