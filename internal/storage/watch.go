package storage

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// recordWatcher evicts cached records whose files change on disk
type recordWatcher struct {
	w     *fsnotify.Watcher
	cache *recordCache
	log   *zap.Logger
	done  chan struct{}
}

func newRecordWatcher(dir string, cache *recordCache, log *zap.Logger) (*recordWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	rw := &recordWatcher{
		w:     w,
		cache: cache,
		log:   log,
		done:  make(chan struct{}),
	}
	go rw.run()
	return rw, nil
}

func (rw *recordWatcher) run() {
	defer close(rw.done)
	for {
		select {
		case event, ok := <-rw.w.Events:
			if !ok {
				return
			}
			id, isRecord := recordIDFromPath(event.Name)
			if !isRecord {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Remove) ||
				event.Has(fsnotify.Rename) || event.Has(fsnotify.Create) {
				rw.cache.Remove(id)
				rw.log.Debug("evicted cached record", zap.String("id", id), zap.String("op", event.Op.String()))
			}
		case err, ok := <-rw.w.Errors:
			if !ok {
				return
			}
			rw.log.Warn("record watcher error", zap.Error(err))
		}
	}
}

func (rw *recordWatcher) Close() error {
	err := rw.w.Close()
	<-rw.done
	return err
}

// recordIDFromPath extracts the item id from a record file path
func recordIDFromPath(path string) (string, bool) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, recordExt) {
		return "", false
	}
	return strings.TrimSuffix(name, recordExt), true
}
