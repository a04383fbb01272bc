package config

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"cosmossdk.io/log"
	"github.com/fsnotify/fsnotify"
)

// Settings a running engine picks up without a restart.
const (
	SettingMaxSteps   = "engine.max_steps"
	SettingDumpFormat = "serde.format"
)

const (
	reloadDebounce = 500 * time.Millisecond
	rewatchDelay   = time.Second
)

// ConfigChangeCallback receives the previous and the reloaded configuration.
type ConfigChangeCallback func(oldConfig, newConfig *Config)

// Diff lists the settings that differ between old and next. live holds
// the ones a running engine applies (SettingMaxSteps, SettingDumpFormat);
// restart holds those that only take effect on the next start, because
// the logger, the registry and the reply policy are fixed at startup.
func Diff(old, next *Config) (live, restart []string) {
	if old.Engine.MaxSteps != next.Engine.MaxSteps {
		live = append(live, SettingMaxSteps)
	}
	if old.Serde.Format != next.Serde.Format {
		live = append(live, SettingDumpFormat)
	}

	fixed := []struct {
		name    string
		changed bool
	}{
		{"app", old.App != next.App},
		{"log.level", old.Log.Level != next.Log.Level},
		{"log.format", old.Log.Format != next.Log.Format},
		{"log.output", old.Log.Output != next.Log.Output},
		{"log.color", old.Log.Color != next.Log.Color},
		{"log.fields", !reflect.DeepEqual(old.Log.Fields, next.Log.Fields)},
		{"engine.strict_replies", old.Engine.StrictReplies != next.Engine.StrictReplies},
		{"serde.strict", old.Serde.Strict != next.Serde.Strict},
		{"serde.audit", old.Serde.Audit != next.Serde.Audit},
	}
	for _, f := range fixed {
		if f.changed {
			restart = append(restart, f.name)
		}
	}
	return live, restart
}

// Watcher reloads one configuration file when it changes on disk and
// hands every reload that changed something to its callbacks.
type Watcher struct {
	file   string
	loader *Loader
	logger log.Logger
	fs     *fsnotify.Watcher

	mu      sync.RWMutex
	current *Config

	callbacksMu sync.Mutex
	callbacks   []ConfigChangeCallback

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher loads file and prepares to watch it. Nothing is watched
// until Start.
func NewWatcher(file string, loader *Loader) (*Watcher, error) {
	if _, err := formatOf(file); err != nil {
		return nil, err
	}

	cfg, err := loader.LoadFromFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial config: %w", err)
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigWatchError, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		file:    filepath.Clean(file),
		loader:  loader,
		logger:  log.NewNopLogger(),
		fs:      fs,
		current: cfg,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// SetLogger sets the logger reloads are reported to.
func (w *Watcher) SetLogger(logger log.Logger) *Watcher {
	w.logger = logger.With("module", "config")
	return w
}

// Start begins watching the file.
func (w *Watcher) Start() error {
	if err := w.fs.Add(w.file); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigWatchError, err)
	}

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop ends watching and waits for the watch goroutine.
func (w *Watcher) Stop() error {
	w.cancel()
	err := w.fs.Close()
	w.wg.Wait()
	return err
}

// GetConfig returns the last configuration that loaded and validated.
func (w *Watcher) GetConfig() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnConfigChange registers a callback. Callbacks run one after another,
// in registration order, on the goroutine that performed the reload.
func (w *Watcher) OnConfigChange(callback ConfigChangeCallback) {
	w.callbacksMu.Lock()
	defer w.callbacksMu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Reload reads the file now. A file that fails to load or validate leaves
// the current configuration in place.
func (w *Watcher) Reload() error {
	return w.reload()
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	// editors often write a file in several steps; reload once they settle
	var pending *time.Timer
	defer func() {
		if pending != nil {
			pending.Stop()
		}
	}()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.file {
				continue
			}

			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
				if pending != nil {
					pending.Stop()
				}
				pending = time.AfterFunc(reloadDebounce, w.reloadLogged)

			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				w.logger.Warn("config file was removed or renamed", "file", w.file)
				time.AfterFunc(rewatchDelay, func() {
					if err := w.fs.Add(w.file); err != nil {
						w.logger.Debug("config file not back yet", "file", w.file, "err", err)
						return
					}
					w.reloadLogged()
				})
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", "err", err)
		}
	}
}

func (w *Watcher) reloadLogged() {
	if err := w.reload(); err != nil {
		w.logger.Error("failed to reload config, keeping the previous one", "file", w.file, "err", err)
	}
}

func (w *Watcher) reload() error {
	next, err := w.loader.LoadFromFile(w.file)
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}

	w.mu.Lock()
	old := w.current
	w.current = next
	w.mu.Unlock()

	live, restart := Diff(old, next)
	if len(live) == 0 && len(restart) == 0 {
		w.logger.Debug("config file rewritten without changes", "file", w.file)
		return nil
	}
	if len(restart) > 0 {
		w.logger.Warn("settings changed that apply after a restart", "file", w.file, "settings", restart)
	}
	w.logger.Info("configuration reloaded", "file", w.file, "applied", live)

	w.notify(old, next)
	return nil
}

func (w *Watcher) notify(old, next *Config) {
	w.callbacksMu.Lock()
	callbacks := append([]ConfigChangeCallback(nil), w.callbacks...)
	w.callbacksMu.Unlock()

	for _, cb := range callbacks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					w.logger.Error("config change callback panicked", "panic", r)
				}
			}()
			cb(old, next)
		}()
	}
}

// FileProvider serves the configuration of a troupe run: the watched file
// when one is given, the auto-loaded configuration otherwise.
type FileProvider struct {
	loader  *Loader
	watcher *Watcher
}

// NewFileProvider creates a provider for file, which may be empty.
func NewFileProvider(file string) (*FileProvider, error) {
	p := &FileProvider{loader: NewLoader()}
	if file == "" {
		return p, nil
	}

	w, err := NewWatcher(file, p.loader)
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}
	p.watcher = w
	return p, nil
}

// SetLogger sets the logger of the underlying watcher.
func (fp *FileProvider) SetLogger(logger log.Logger) *FileProvider {
	if fp.watcher != nil {
		fp.watcher.SetLogger(logger)
	}
	return fp
}

// Load returns the current configuration.
func (fp *FileProvider) Load() (*Config, error) {
	if fp.watcher != nil {
		return fp.watcher.GetConfig(), nil
	}
	return fp.loader.AutoLoad()
}

// Watch calls callback after every reload that changed a setting, until
// ctx is done.
func (fp *FileProvider) Watch(ctx context.Context, callback ConfigChangeCallback) error {
	if fp.watcher == nil {
		return fmt.Errorf("%w: no config file to watch", ErrConfigWatchError)
	}

	fp.watcher.OnConfigChange(callback)
	if err := fp.watcher.Start(); err != nil {
		return fmt.Errorf("failed to start config watcher: %w", err)
	}

	go func() {
		<-ctx.Done()
		fp.watcher.Stop()
	}()
	return nil
}

// Close stops the watcher, if any.
func (fp *FileProvider) Close() error {
	if fp.watcher != nil {
		return fp.watcher.Stop()
	}
	return nil
}
