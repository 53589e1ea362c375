// Package ingest defines pull-based message sources. Sources produce raw,
// source-shaped records; the normalizer owns turning them into canonical
// messages. Gmail and phone are currently mock implementations standing in
// for real provider integrations.
package ingest

import (
	"context"

	"github.com/linnemanlabs/sift/internal/message"
)

// Source is one channel the pipeline can pull inbound messages from.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]message.Raw, error)
}

// Registry holds available sources keyed by name.
type Registry struct {
	sources map[string]Source
}

// NewRegistry creates an empty source registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// Register adds a source, keyed by its Name.
func (r *Registry) Register(s Source) {
	r.sources[s.Name()] = s
}

// Get retrieves a source by name.
func (r *Registry) Get(name string) (Source, bool) {
	s, ok := r.sources[name]
	return s, ok
}

// Names lists registered source names.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.sources))
	for name := range r.sources {
		out = append(out, name)
	}
	return out
}
