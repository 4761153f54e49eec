// Package registry is the in-memory artwork store of spec §3/§5: a
// keyed map guarded by a read-write discipline, concurrent reads, exclusive
// insert/delete, ephemeral by default (an artwork is discarded once its
// paint session completes, or on explicit delete).
//
// The single sync.RWMutex guarding the map generalizes a single-connection
// mutex discipline from "one connection" to "one map".
package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/canvas"
)

type Artwork struct {
	ID        string
	Name      string
	Canvas    canvas.Canvas
	CreatedAt time.Time
}

type Registry struct {
	mu   sync.RWMutex
	byID map[string]Artwork
}

func New() *Registry {
	return &Registry{byID: make(map[string]Artwork)}
}

// Insert assigns a fresh process-local opaque handle and stores the
// artwork, returning its ID.
func (r *Registry) Insert(name string, c canvas.Canvas) string {
	id := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[id] = Artwork{ID: id, Name: name, Canvas: c, CreatedAt: now()}
	return id
}

func (r *Registry) Get(id string) (Artwork, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	return a, ok
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
}

func (r *Registry) List() []Artwork {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Artwork, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a)
	}
	return out
}

// now is a seam so tests can keep CreatedAt deterministic without reaching
// for a clock abstraction library (none appear anywhere in the pack).
var now = time.Now
