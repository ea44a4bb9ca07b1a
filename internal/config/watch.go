package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDuration collapses the burst of events editors emit on save
var debounceDuration = 500 * time.Millisecond

// Change is a successfully reloaded configuration
type Change struct {
	Config *Config
	// Rebuild is set when sink settings changed and the pipeline must be
	// suspended and restarted
	Rebuild bool
	// ColorBalance is set when color balance defaults changed
	ColorBalance bool
}

// Watch reloads path whenever it changes and sends a Change for each
// reload that differs from the previous configuration in a way the player
// cares about. Invalid files are logged and skipped.
//
// The directory is watched rather than the file, so editors that save by
// rename keep being observed. The channel is closed when ctx is done.
func Watch(ctx context.Context, path string, current *Config, logger *slog.Logger) (<-chan Change, error) {
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}

	logger.Info("config: watching for changes", "path", abs)

	changes := make(chan Change, 1)
	go watchLoop(ctx, watcher, abs, current, changes, logger)
	return changes, nil
}

func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string, last *Config, changes chan<- Change, logger *slog.Logger) {
	defer close(changes)
	defer watcher.Close()

	// Debounce timer, nil channel while idle
	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			logger.Debug("config: watcher stopped")
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("config: file changed", "op", event.Op.String())

			if debounce == nil {
				debounce = time.NewTimer(debounceDuration)
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(debounceDuration)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			next, err := Load(path)
			if err != nil {
				logger.Error("config: reload failed, keeping previous configuration", "error", err)
				continue
			}

			change := Change{
				Config:       next,
				Rebuild:      NeedsRebuild(last, next),
				ColorBalance: ColorBalanceChanged(last, next),
			}
			last = next
			if !change.Rebuild && !change.ColorBalance {
				logger.Debug("config: reloaded without player-relevant changes")
				continue
			}

			logger.Info("config: reloaded",
				"rebuild", change.Rebuild,
				"color_balance", change.ColorBalance,
			)
			select {
			case changes <- change:
			case <-ctx.Done():
				return
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Error("config: watcher error", "error", err)
		}
	}
}
