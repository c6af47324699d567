package store

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

const fileExt = ".json"

// FileBackend stores each key as <key>.json inside a directory. Writes go
// through a temp file and a rename, so readers never see a partial payload.
type FileBackend struct {
	dir string

	mu    sync.Mutex
	known map[string][sha256.Size]byte // last content written or observed per key

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewFileBackend creates dir if needed and returns a backend rooted there
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileBackend{
		dir:   dir,
		known: make(map[string][sha256.Size]byte),
	}, nil
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, key+fileExt)
}

func (b *FileBackend) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(b.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (b *FileBackend) Put(key string, value []byte) error {
	tmp, err := os.CreateTemp(b.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	prev, had := b.checksum(key)
	b.remember(key, value)

	if err := os.Rename(tmpName, b.path(key)); err != nil {
		os.Remove(tmpName)
		b.restore(key, prev, had)
		return err
	}
	return nil
}

func (b *FileBackend) Delete(key string) error {
	b.remember(key, nil)

	err := os.Remove(b.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Watch reports changes to <key>.json files whose content differs from what
// this backend last wrote or reported. It returns once the watch is set up.
func (b *FileBackend) Watch(ctx context.Context, fn func(key string, value []byte)) error {
	b.mu.Lock()
	if b.watcher != nil {
		b.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		b.mu.Unlock()
		return err
	}
	if err := watcher.Add(b.dir); err != nil {
		watcher.Close()
		b.mu.Unlock()
		return fmt.Errorf("failed to watch %s: %w", b.dir, err)
	}
	b.watcher = watcher
	b.done = make(chan struct{})
	b.mu.Unlock()

	go b.run(ctx, watcher, fn)
	return nil
}

func (b *FileBackend) run(ctx context.Context, watcher *fsnotify.Watcher, fn func(string, []byte)) {
	defer close(b.done)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			name := filepath.Base(event.Name)
			if !strings.HasSuffix(name, fileExt) {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}

			key := strings.TrimSuffix(name, fileExt)
			value, _, err := b.Get(key)
			if err != nil {
				continue
			}
			if !b.remember(key, value) {
				continue
			}
			fn(key, value)

		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// remember records value as the current content of key and reports whether
// it differs from what was known before.
func (b *FileBackend) remember(key string, value []byte) bool {
	sum := sha256.Sum256(value)

	b.mu.Lock()
	defer b.mu.Unlock()

	prev, ok := b.known[key]
	b.known[key] = sum
	return !ok || prev != sum
}

func (b *FileBackend) checksum(key string) ([sha256.Size]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sum, ok := b.known[key]
	return sum, ok
}

// restore puts back the checksum of key from before a write that never landed.
func (b *FileBackend) restore(key string, sum [sha256.Size]byte, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ok {
		b.known[key] = sum
	} else {
		delete(b.known, key)
	}
}

func (b *FileBackend) Close() error {
	b.mu.Lock()
	watcher, done := b.watcher, b.done
	b.watcher = nil
	b.mu.Unlock()

	if watcher == nil {
		return nil
	}
	err := watcher.Close()
	<-done
	return err
}
