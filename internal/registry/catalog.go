// Package registry holds the catalog snapshot currently being served.
//
// Queries run against an immutable query.Engine. After a rebuild the new
// engine is swapped in under the write lock, so readers always see one whole
// snapshot, and every watcher is told about the change.
package registry

import (
	"sync"
	"time"

	"github.com/conneroisu/tplcat/internal/query"
)

// EventType represents the type of catalog event
type EventType int

const (
	EventTypeReloaded EventType = iota
	EventTypeFailed
)

// String returns the wire name of the event type
func (t EventType) String() string {
	switch t {
	case EventTypeReloaded:
		return "catalog-reloaded"
	case EventTypeFailed:
		return "catalog-failed"
	default:
		return "unknown"
	}
}

// CatalogEvent represents a change of the served catalog
type CatalogEvent struct {
	Type EventType
	// Generation counts successful swaps, starting at 1 for the first catalog
	Generation int
	Stats      query.Stats
	Err        error
	Timestamp  time.Time
}

// CatalogRegistry manages the catalog snapshot being served
type CatalogRegistry struct {
	engine     *query.Engine
	generation int
	mutex      sync.RWMutex
	watchers   []chan CatalogEvent
}

// NewCatalogRegistry creates a registry serving engine. A nil engine serves
// an empty catalog until the first Swap.
func NewCatalogRegistry(engine *query.Engine) *CatalogRegistry {
	r := &CatalogRegistry{
		engine:   query.New(nil),
		watchers: make([]chan CatalogEvent, 0),
	}
	if engine != nil {
		r.engine = engine
		r.generation = 1
	}
	return r
}

// Current returns the snapshot in use
func (r *CatalogRegistry) Current() *query.Engine {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.engine
}

// Generation returns the number of catalogs served so far
func (r *CatalogRegistry) Generation() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.generation
}

// Swap replaces the served snapshot and notifies watchers
func (r *CatalogRegistry) Swap(engine *query.Engine) {
	if engine == nil {
		return
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.engine = engine
	r.generation++

	r.notify(CatalogEvent{
		Type:       EventTypeReloaded,
		Generation: r.generation,
		Stats:      engine.Stats(),
		Timestamp:  time.Now(),
	})
}

// Reload builds a snapshot from the catalog document at path and swaps it
// in. On failure the current snapshot stays and watchers get a failed event.
func (r *CatalogRegistry) Reload(path string) error {
	engine, err := query.Load(path)
	if err != nil {
		r.Fail(err)
		return err
	}
	r.Swap(engine)
	return nil
}

// Fail tells watchers that a rebuild did not produce a new catalog
func (r *CatalogRegistry) Fail(err error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.notify(CatalogEvent{
		Type:       EventTypeFailed,
		Generation: r.generation,
		Err:        err,
		Timestamp:  time.Now(),
	})
}

// notify must be called with the write lock held
func (r *CatalogRegistry) notify(event CatalogEvent) {
	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}

// Watch returns a channel that receives catalog events
func (r *CatalogRegistry) Watch() <-chan CatalogEvent {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan CatalogEvent, 16)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it
func (r *CatalogRegistry) UnWatch(ch <-chan CatalogEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}
