package circuitbreaker

import (
	"sort"
	"sync"
)

// Group hands out one breaker per key, typically a hostname.
type Group struct {
	config Config

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewGroup creates an empty group whose breakers share config.
func NewGroup(config Config) *Group {
	return &Group{
		config:   config,
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the breaker for key, creating it on first use.
func (g *Group) Get(key string) *Breaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	b, ok := g.breakers[key]
	if !ok {
		b = New(key, g.config)
		g.breakers[key] = b
	}
	return b
}

// Snapshot returns stats for every breaker, sorted by name.
func (g *Group) Snapshot() []Stats {
	g.mu.Lock()
	list := make([]*Breaker, 0, len(g.breakers))
	for _, b := range g.breakers {
		list = append(list, b)
	}
	g.mu.Unlock()

	out := make([]Stats, 0, len(list))
	for _, b := range list {
		out = append(out, b.GetStats())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
