// Package watcher ingests files dropped into an inbox directory.
package watcher

import (
	"context"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"supportdesk/internal/model"
)

const defaultSettle = 500 * time.Millisecond

type FileIngester interface {
	IngestFile(ctx context.Context, path string) (*model.Document, error)
}

// Inbox waits until a file has been quiet for the settle period before ingesting it,
// so a file copied in several writes becomes one document.
type Inbox struct {
	watcher  *fsnotify.Watcher
	ingester FileIngester
	settle   time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

func NewInbox(ingester FileIngester, settle time.Duration) (*Inbox, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if settle <= 0 {
		settle = defaultSettle
	}
	return &Inbox{
		watcher:  w,
		ingester: ingester,
		settle:   settle,
		pending:  make(map[string]*time.Timer),
	}, nil
}

func (i *Inbox) Watch(ctx context.Context, dir string) error {
	if err := i.watcher.Add(dir); err != nil {
		return err
	}

	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		for {
			select {
			case <-ctx.Done():
				i.stopPending()
				return
			case event, ok := <-i.watcher.Events:
				if !ok {
					i.stopPending()
					return
				}
				if ignored(event.Name) {
					continue
				}
				switch {
				case event.Has(fsnotify.Create):
					i.schedule(ctx, event.Name)
				case event.Has(fsnotify.Write):
					// Writes only extend a pending file; an ingested file is not ingested again.
					i.extend(event.Name)
				}
			case err, ok := <-i.watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[inbox] watch error: %v", err)
			}
		}
	}()

	log.Printf("[inbox] watching %s", dir)
	return nil
}

func (i *Inbox) extend(path string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if t, ok := i.pending[path]; ok {
		t.Reset(i.settle)
	}
}

func (i *Inbox) schedule(ctx context.Context, path string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if t, ok := i.pending[path]; ok {
		t.Reset(i.settle)
		return
	}
	var timer *time.Timer
	timer = time.AfterFunc(i.settle, func() {
		i.mu.Lock()
		if i.pending[path] != timer {
			// re-armed after it already fired
			i.mu.Unlock()
			return
		}
		delete(i.pending, path)
		i.mu.Unlock()

		doc, err := i.ingester.IngestFile(ctx, path)
		if err != nil {
			log.Printf("[inbox] ingest %s failed: %v", path, err)
			return
		}
		log.Printf("[inbox] ingested %s as document %d", path, doc.ID)
	})
	i.pending[path] = timer
}

func (i *Inbox) stopPending() {
	i.mu.Lock()
	defer i.mu.Unlock()
	for path, t := range i.pending {
		t.Stop()
		delete(i.pending, path)
	}
}

func (i *Inbox) Close() error {
	err := i.watcher.Close()
	i.wg.Wait()
	return err
}

// ignored skips hidden files and editor or download temporaries.
func ignored(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") ||
		strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".tmp") ||
		strings.HasSuffix(base, ".part")
}
