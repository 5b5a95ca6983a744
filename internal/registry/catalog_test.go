package registry

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/tplcat/internal/catalog"
	"github.com/conneroisu/tplcat/internal/query"
	"github.com/conneroisu/tplcat/internal/types"
)

func engineWith(ids ...string) *query.Engine {
	templates := make([]types.Template, 0, len(ids))
	for _, id := range ids {
		templates = append(templates, types.Template{ID: id, Name: id, Category: "blog", CategorySlug: "blog"})
	}
	return query.New(&types.Catalog{
		TotalTemplates: len(templates),
		Categories:     catalog.Summarize(templates),
		Templates:      templates,
	})
}

func TestNewCatalogRegistry(t *testing.T) {
	empty := NewCatalogRegistry(nil)
	require.NotNil(t, empty.Current())
	assert.Equal(t, 0, empty.Current().Stats().Total)
	assert.Equal(t, 0, empty.Generation())

	loaded := NewCatalogRegistry(engineWith("a"))
	assert.Equal(t, 1, loaded.Current().Stats().Total)
	assert.Equal(t, 1, loaded.Generation())
}

func TestSwapNotifiesWatchers(t *testing.T) {
	r := NewCatalogRegistry(engineWith("a"))
	events := r.Watch()

	r.Swap(engineWith("a", "b"))

	select {
	case event := <-events:
		assert.Equal(t, EventTypeReloaded, event.Type)
		assert.Equal(t, 2, event.Generation)
		assert.Equal(t, 2, event.Stats.Total)
		assert.NoError(t, event.Err)
	case <-time.After(time.Second):
		t.Fatal("expected a reload event")
	}

	assert.Equal(t, 2, r.Current().Stats().Total)

	r.Swap(nil)
	assert.Equal(t, 2, r.Generation(), "nil engines are ignored")
}

func TestReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.json")

	r := NewCatalogRegistry(engineWith("a"))
	events := r.Watch()

	err := r.Reload(path)
	require.Error(t, err)
	event := <-events
	assert.Equal(t, EventTypeFailed, event.Type)
	assert.Equal(t, "catalog-failed", event.Type.String())
	assert.Equal(t, 1, r.Current().Stats().Total, "failed reload keeps the old snapshot")

	doc, _, err := catalog.Aggregate(nil, catalog.Options{})
	require.NoError(t, err)
	require.NoError(t, catalog.Write(path, doc))

	require.NoError(t, r.Reload(path))
	event = <-events
	assert.Equal(t, EventTypeReloaded, event.Type)
	assert.Equal(t, 0, r.Current().Stats().Total)
}

func TestFullWatcherDoesNotBlock(t *testing.T) {
	r := NewCatalogRegistry(nil)
	_ = r.Watch()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			r.Fail(errors.New("boom"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("notify blocked on a full watcher")
	}
}

func TestUnWatchClosesChannel(t *testing.T) {
	r := NewCatalogRegistry(nil)
	events := r.Watch()
	r.UnWatch(events)

	_, open := <-events
	assert.False(t, open)

	r.Swap(engineWith("a"))
}

func TestConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	r := NewCatalogRegistry(engineWith("a"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				e := r.Current()
				stats := e.Stats()
				assert.Equal(t, stats.Total, len(e.All()))
			}
		}()
	}

	for i := 0; i < 50; i++ {
		ids := make([]string, i%5+1)
		for j := range ids {
			ids[j] = string(rune('a' + j))
		}
		r.Swap(engineWith(ids...))
	}

	wg.Wait()
}
