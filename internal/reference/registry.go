package reference

import (
	"sort"
	"sync"
)

// Registry stands in for the host's reference framework: providers are
// registered once at startup and consulted in order.
type Registry struct {
	mu        sync.RWMutex
	providers []Provider
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) RegisterReferenceProvider(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers = append(r.providers, p)
	sort.SliceStable(r.providers, func(i, j int) bool {
		return r.providers[i].Order() < r.providers[j].Order()
	})
}

func (r *Registry) Providers() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Provider(nil), r.providers...)
}

// Resolve asks each matching provider in order; the first card wins.
func (r *Registry) Resolve(text string) *Reference {
	for _, p := range r.Providers() {
		if !p.Match(text) {
			continue
		}
		if ref := p.Resolve(text); ref != nil {
			return ref
		}
	}
	return nil
}
