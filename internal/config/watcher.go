package config

import (
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// RiskConfigWatcher holds the most recently loaded RiskConfig and
// refreshes it whenever the backing file changes, so a long-lived api
// process picks up edited weights/bands without a restart.
type RiskConfigWatcher struct {
	path    string
	current atomic.Pointer[RiskConfig]
	watcher *fsnotify.Watcher
	log     *zap.Logger
}

// NewRiskConfigWatcher loads path once and, if it exists, starts
// watching it for writes. A missing path yields a watcher that always
// returns defaults and never starts an fsnotify loop.
func NewRiskConfigWatcher(path string, log *zap.Logger) (*RiskConfigWatcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cfg, err := LoadRiskConfig(path)
	if err != nil {
		return nil, err
	}
	w := &RiskConfigWatcher{path: path, log: log}
	w.current.Store(cfg)

	if path == "" {
		return w, nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		log.Warn("risk config file not watchable, falling back to static load", zap.String("path", path), zap.Error(err))
		return w, nil
	}
	w.watcher = fw
	go w.loop()
	return w, nil
}

// Current returns the most recently loaded RiskConfig.
func (w *RiskConfigWatcher) Current() *RiskConfig {
	return w.current.Load()
}

// Close stops the underlying fsnotify watch, if one was started.
func (w *RiskConfigWatcher) Close() error {
	if w.watcher == nil {
		return nil
	}
	return w.watcher.Close()
}

func (w *RiskConfigWatcher) loop() {
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := LoadRiskConfig(w.path)
			if err != nil {
				w.log.Warn("risk config reload failed, keeping previous config", zap.Error(err))
				continue
			}
			w.current.Store(cfg)
			w.log.Info("reloaded risk config", zap.String("path", w.path))
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("risk config watcher error", zap.Error(err))
		}
	}
}
