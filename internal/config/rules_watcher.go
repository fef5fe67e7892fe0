package config

import (
	"context"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/rampartlabs/rampart/pkg/errors"
	"github.com/rampartlabs/rampart/pkg/logger"
	"github.com/rampartlabs/rampart/pkg/rules"
)

// RulesWatcher hot-reloads the detector rule file. The compiled set is
// swapped atomically on change; a file that fails to parse is rejected and
// the previous set stays live. The parent directory is watched, not the
// file itself, so atomic saves (write temp, rename over) are picked up.
type RulesWatcher struct {
	path    string
	current atomic.Pointer[rules.RuleSet]
	onSwap  func(*rules.RuleSet)
	logger  logger.Logger
	stop    chan struct{}
	done    chan struct{}
}

// NewRulesWatcher loads the rule file once and prepares the watcher.
// onSwap may be nil; when set it runs after every successful swap.
func NewRulesWatcher(path string, onSwap func(*rules.RuleSet), log logger.Logger) (*RulesWatcher, *errors.AppError) {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	set, err := rules.LoadFile(path)
	if err != nil {
		return nil, errors.ErrConfiguration.WithError(err).WithDescription("cannot load rule file %s", path)
	}
	w := &RulesWatcher{
		path:   filepath.Clean(path),
		onSwap: onSwap,
		logger: log.WithComponent("rules_watcher"),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	w.current.Store(set)
	return w, nil
}

// Current returns the live rule set.
func (w *RulesWatcher) Current() *rules.RuleSet {
	return w.current.Load()
}

// Start begins watching the rule file. It blocks and should be run in a
// goroutine.
func (w *RulesWatcher) Start(ctx context.Context) error {
	defer close(w.done)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.ErrInternal.WithError(err).WithDescription("cannot create file watcher")
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return errors.ErrConfiguration.WithError(err).WithDescription("cannot watch rule directory")
	}

	w.logger.Info(ctx, "rule file watcher started", logger.String("path", w.path))
	for {
		select {
		case <-w.stop:
			w.logger.Info(ctx, "rule file watcher stopped")
			return nil
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.reload(ctx)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error(ctx, "rule file watcher error", err)
		}
	}
}

// Stop shuts the watcher down and waits for the loop to exit.
func (w *RulesWatcher) Stop() {
	close(w.stop)
	<-w.done
}

func (w *RulesWatcher) reload(ctx context.Context) {
	set, err := rules.LoadFile(w.path)
	if err != nil {
		w.logger.Error(ctx, "rule file rejected, keeping previous set", err,
			logger.String("path", w.path),
		)
		return
	}
	w.current.Store(set)
	if w.onSwap != nil {
		w.onSwap(set)
	}
	w.logger.Info(ctx, "rule set reloaded", logger.String("path", w.path))
}
