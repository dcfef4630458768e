package provider

import (
	"context"
	"maps"
	"slices"

	"github.com/aniladanir/lead-finder-service/internal/domain"
)

const (
	SourceYelp        = "yelp"
	SourceGoogle      = "google"
	SourceYellowPages = "yellowpages"
	SourceMake        = "make"
)

// Provider searches businesses on an upstream api and maps the response to
// normalized search results
type Provider interface {
	Name() string
	Search(ctx context.Context, q domain.Query) ([]domain.SearchResult, error)
}

// Registry holds the enabled providers by name
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

func (r *Registry) Lookup(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Names returns enabled provider names in alphabetical order
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.providers))
}

// Known reports whether name is a source tag of one of the supported
// providers, enabled or not
func Known(name string) bool {
	switch name {
	case SourceYelp, SourceGoogle, SourceYellowPages, SourceMake:
		return true
	}
	return false
}
