package config

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads cost tables, cache TTL tiers, and the continuous-pipeline
// schedule whenever planning-explorer.yaml changes on disk, without a
// process restart. The teacher's config package has no equivalent — it
// loads once at startup — but the registry-based Config here is a natural
// fit for hot reload of tunables that operators adjust frequently (LLM
// cost tables, daily cost caps).
type Watcher struct {
	fsw    *fsnotify.Watcher
	onLoad func(*Config)
}

// NewWatcher starts watching configDir for writes to planning-explorer.yaml.
// onLoad is invoked with the newly validated Config on every successful
// reload; reload errors are logged and the previous Config is kept.
func NewWatcher(ctx context.Context, configDir string, onLoad func(*Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(configDir); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{fsw: fsw, onLoad: onLoad}
	go w.run(ctx, configDir)
	return w, nil
}

func (w *Watcher) run(ctx context.Context, configDir string) {
	log := slog.With("component", "config_watcher", "config_dir", configDir)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Name != configDir+"/"+configFileName {
				continue
			}
			if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			cfg, err := Initialize(ctx, configDir)
			if err != nil {
				log.Error("Configuration reload failed, keeping previous config", "error", err)
				continue
			}
			log.Info("Configuration reloaded")
			w.onLoad(cfg)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Error("Config watcher error", "error", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error { return w.fsw.Close() }
