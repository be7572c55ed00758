package services

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// KnowledgeWatcher reloads the knowledge store when its backing file changes.
// A failed reload keeps the previous knowledge base live.
type KnowledgeWatcher struct {
	store   *KnowledgeStore
	path    string
	watcher *fsnotify.Watcher
}

// NewKnowledgeWatcher creates a watcher for the store's backing file.
func NewKnowledgeWatcher(store *KnowledgeStore, path string) (*KnowledgeWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory: editors replace files on save, which drops the
	// watch when set on the file itself.
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}

	return &KnowledgeWatcher{store: store, path: path, watcher: w}, nil
}

// Run processes events until the context is cancelled. Writes are debounced
// so a burst of editor events triggers a single reload.
func (kw *KnowledgeWatcher) Run(ctx context.Context) {
	defer kw.watcher.Close()

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-kw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(kw.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(500*time.Millisecond, func() {
				if err := kw.store.Reload(); err != nil {
					log.Errorf("Knowledge base reload failed, keeping previous version: %v", err)
				} else {
					log.Infof("Knowledge base reloaded after change to %s", kw.path)
				}
			})
		case err, ok := <-kw.watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("Knowledge watcher error: %v", err)
		}
	}
}
