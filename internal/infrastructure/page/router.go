package page

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNoHandler is returned when clicking an element no handler is bound to
var ErrNoHandler = errors.New("no handler bound to element")

// Handler reacts to a click on a bound element
type Handler func(ctx context.Context) error

// Router dispatches clicks by element id. Bindings are registered once and
// activated by Rebind for the ids present in the current document, so a view
// swap never leaves handlers attached to elements that are gone.
type Router struct {
	mu       sync.RWMutex
	doc      *Document
	bindings map[string]Handler
	active   map[string]Handler
}

// NewRouter creates a router over doc
func NewRouter(doc *Document) *Router {
	return &Router{
		doc:      doc,
		bindings: make(map[string]Handler),
		active:   make(map[string]Handler),
	}
}

// Bind registers h for the element with id. It takes effect on the next Rebind.
func (r *Router) Bind(id string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.bindings[id] = h
}

// Rebind activates the bindings whose element exists in the document and
// returns their ids, sorted
func (r *Router) Rebind() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.active = make(map[string]Handler, len(r.bindings))
	ids := make([]string, 0, len(r.bindings))
	for id, h := range r.bindings {
		if r.doc.Has(id) {
			r.active[id] = h
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Click runs the handler active for id
func (r *Router) Click(ctx context.Context, id string) error {
	if !r.doc.Has(id) {
		return fmt.Errorf("%w: #%s", ErrElementNotFound, id)
	}

	r.mu.RLock()
	h, ok := r.active[id]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: #%s", ErrNoHandler, id)
	}

	return h(ctx)
}
