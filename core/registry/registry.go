// Package registry holds the process-wide mapping from tileset id to its
// TileMeta descriptor, published as an atomically swappable snapshot so
// that concurrent request handlers observe a consistent view for the
// duration of a single request regardless of in-flight reloads.
package registry

import (
	"sync/atomic"

	"github.com/tarkov-database/mbtileserver/core/mbtiles"
)

// Snapshot is an immutable mapping from tileset id to descriptor.
type Snapshot map[string]*mbtiles.TileMeta

// Registry is the process-wide, concurrent-reader-friendly holder of the
// current tileset snapshot. The zero value is ready to use and starts out
// empty.
type Registry struct {
	current atomic.Pointer[Snapshot]
}

// New returns a Registry populated with snap (may be nil for an empty start).
func New(snap Snapshot) *Registry {
	r := &Registry{}
	if snap == nil {
		snap = Snapshot{}
	}
	r.current.Store(&snap)
	return r
}

// Get returns the tileset for id in the currently published snapshot.
// ok is false if id is not present.
func (r *Registry) Get(id string) (tm *mbtiles.TileMeta, ok bool) {
	snap := r.Snapshot()
	tm, ok = snap[id]
	return tm, ok
}

// Snapshot returns the currently published mapping. The returned map must
// be treated as read-only: callers hold it for the duration of one request
// and never see it mutated underneath them, even across a concurrent Reload.
func (r *Registry) Snapshot() Snapshot {
	p := r.current.Load()
	if p == nil {
		return Snapshot{}
	}
	return *p
}

// Entry is one (id, TileMeta) pair as returned by List.
type Entry struct {
	ID   string
	Tile *mbtiles.TileMeta
}

// List returns every (id, TileMeta) pair in the current snapshot.
func (r *Registry) List() []Entry {
	snap := r.Snapshot()
	out := make([]Entry, 0, len(snap))
	for id, tm := range snap {
		out = append(out, Entry{ID: id, Tile: tm})
	}
	return out
}

// Reload atomically replaces the published snapshot. Handlers that
// acquired the previous snapshot continue operating on it to completion;
// new handlers observe next immediately after this call returns.
func (r *Registry) Reload(next Snapshot) {
	if next == nil {
		next = Snapshot{}
	}
	r.current.Store(&next)
}
