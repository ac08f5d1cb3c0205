package handlers

import (
	"errors"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// StartWatcher watches the pages directory and evicts the cached render of
// any page whose source changes, so the next request renders it fresh.
//
// It returns immediately; events are processed in a background goroutine
// that exits when stop is called.
func StartWatcher(pages *Pages, log *zap.Logger) (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(pages.Dir()); err != nil {
		_ = w.Close()
		if errors.Is(err, syscall.ENOSPC) {
			log.Warn("watcher: inotify watch limit reached, relying on cache expiry",
				zap.String("dir", pages.Dir()), zap.Duration("safety_ttl", safetyTTL))
		}
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				handleEvent(pages, log, event)

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("watcher: error", zap.Error(err))
			}
		}
	}()

	return func() {
		_ = w.Close()
		<-done
	}, nil
}

// handleEvent processes a single fsnotify event.
func handleEvent(pages *Pages, log *zap.Logger, event fsnotify.Event) {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}
	// The directory itself went away; nothing cached can be trusted.
	if event.Name == pages.Dir() {
		pages.EvictAll()
		log.Info("watcher: pages directory changed, cache cleared", zap.String("op", event.Op.String()))
		return
	}
	pages.Evict(event.Name)
	log.Debug("watcher: page changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
}
