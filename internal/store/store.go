// Package store persists record collections as JSON values under fixed keys
// and tells other handles on the same data when a collection changes.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nconklindev/warrantor/internal/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExternalOrigin marks events caused by a write from another process.
const ExternalOrigin = "external"

// Event describes a change to one collection. NewValue holds the JSON array
// that was written, or "" when the collection was cleared.
type Event struct {
	Collection types.Collection
	Key        string
	NewValue   string
	Origin     string
}

// Backend holds raw collection payloads by key.
type Backend interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// Watcher is implemented by backends that can see writes made by other
// processes. fn is called with the new payload, or nil after a delete.
type Watcher interface {
	Watch(ctx context.Context, fn func(key string, value []byte)) error
}

// Store is one view onto a backend. Handles created from the same Store share
// a Hub, and a write through one handle is announced to the others only.
type Store struct {
	backend Backend
	hub     *Hub
	origin  string
	logger  *zap.Logger

	owned  bool
	cancel context.CancelFunc
	once   sync.Once
}

// New returns a handle on backend that publishes through hub. The caller keeps
// ownership of backend.
func New(backend Backend, hub *Hub, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		backend: backend,
		hub:     hub,
		origin:  uuid.NewString(),
		logger:  logger,
	}
}

// Handle returns another view sharing this store's backend and hub.
func (s *Store) Handle() *Store {
	return New(s.backend, s.hub, s.logger)
}

// Origin identifies the handle in the events it publishes.
func (s *Store) Origin() string {
	return s.origin
}

// Read returns the persisted records of c, or an empty slice if it was never
// written.
func (s *Store) Read(c types.Collection) ([]types.Record, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("unknown collection: %s", c)
	}

	raw, ok, err := s.backend.Get(c.Key())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c.Key(), err)
	}

	records := []types.Record{}
	if !ok || len(raw) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", c.Key(), err)
	}
	if records == nil {
		records = []types.Record{}
	}

	return records, nil
}

// Write replaces the whole collection c with records.
func (s *Store) Write(c types.Collection, records []types.Record) error {
	if !c.Valid() {
		return fmt.Errorf("unknown collection: %s", c)
	}
	if records == nil {
		records = []types.Record{}
	}

	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c.Key(), err)
	}
	if err := s.backend.Put(c.Key(), raw); err != nil {
		return fmt.Errorf("failed to write %s: %w", c.Key(), err)
	}

	s.logger.Debug("Collection written",
		zap.String("collection", string(c)),
		zap.Int("records", len(records)))

	s.hub.publish(Event{Collection: c, Key: c.Key(), NewValue: string(raw), Origin: s.origin})
	return nil
}

// Clear removes collection c.
func (s *Store) Clear(c types.Collection) error {
	if !c.Valid() {
		return fmt.Errorf("unknown collection: %s", c)
	}
	if err := s.backend.Delete(c.Key()); err != nil {
		return fmt.Errorf("failed to clear %s: %w", c.Key(), err)
	}

	s.logger.Debug("Collection cleared", zap.String("collection", string(c)))
	s.hub.publish(Event{Collection: c, Key: c.Key(), Origin: s.origin})
	return nil
}

// Subscribe calls fn for every change to c made through another handle or
// another process. Changes made through s itself are not delivered.
func (s *Store) Subscribe(c types.Collection, fn func(Event)) (cancel func()) {
	return s.hub.subscribe(s.origin, c, fn)
}

// Close stops watching for external changes and, when the store opened its
// own backend, closes it. Other handles must not be used afterwards.
func (s *Store) Close() error {
	var err error
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		if s.owned {
			err = s.backend.Close()
		}
	})
	return err
}

func (s *Store) watch(w Watcher) error {
	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Watch(ctx, s.external); err != nil {
		cancel()
		return err
	}
	s.cancel = cancel
	return nil
}

func (s *Store) external(key string, value []byte) {
	c, err := types.ParseCollection(key)
	if err != nil {
		return
	}

	s.logger.Debug("External change detected", zap.String("collection", string(c)))
	s.hub.publish(Event{Collection: c, Key: key, NewValue: string(value), Origin: ExternalOrigin})
}
