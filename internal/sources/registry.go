package sources

import (
	"fmt"
	"slices"

	"github.com/rockaxx/freegames/internal/game"
	"github.com/rockaxx/freegames/internal/links"
)

// Registry holds the enabled adapters in registration order.
type Registry struct {
	adapters []Adapter
	bySource map[game.Source]Adapter
	byHost   map[string]Adapter
}

// NewRegistry indexes adapters by source and host. A later adapter for the
// same source replaces the earlier one in place.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{
		bySource: make(map[game.Source]Adapter),
		byHost:   make(map[string]Adapter),
	}
	for _, a := range adapters {
		if _, dup := r.bySource[a.Source()]; dup {
			i := slices.IndexFunc(r.adapters, func(x Adapter) bool { return x.Source() == a.Source() })
			r.adapters[i] = a
		} else {
			r.adapters = append(r.adapters, a)
		}
		r.bySource[a.Source()] = a
	}
	for _, a := range r.adapters {
		for _, h := range a.Hosts() {
			r.byHost[h] = a
		}
	}
	return r
}

// All returns the adapters in registration order.
func (r *Registry) All() []Adapter {
	return slices.Clone(r.adapters)
}

// Get returns the adapter for src.
func (r *Registry) Get(src game.Source) (Adapter, bool) {
	a, ok := r.bySource[src]
	return a, ok
}

// ForURL returns the adapter serving the host of rawURL.
func (r *Registry) ForURL(rawURL string) (Adapter, error) {
	host := links.Host(rawURL)
	if a, ok := r.byHost[host]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("%w: host %q", ErrUnknownSource, host)
}

// Hosts returns every served hostname, sorted.
func (r *Registry) Hosts() []string {
	hosts := make([]string, 0, len(r.byHost))
	for h := range r.byHost {
		hosts = append(hosts, h)
	}
	slices.Sort(hosts)
	return hosts
}
