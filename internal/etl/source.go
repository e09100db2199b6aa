package etl

import (
	"context"
	"sort"
	"sync"

	"etlapi/internal/domain"
)

// ── Source ──────────────────────────────────────────────────
// A Source extracts a dataset from an external system.
// Implementations live in etl/sources/, one file per source type.

// Source names accepted in job requests.
const (
	SourceAPI = "api"
	SourceCSV = "csv"
)

// ConfigField describes one configuration input of a source, with the value
// the running process resolved for it.
type ConfigField struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value,omitempty"`
	Help  string `json:"help,omitempty"`
}

// SourceSpec describes a source type: its name, label and configuration.
type SourceSpec struct {
	Type         string        `json:"type"`
	Label        string        `json:"label"`
	ConfigFields []ConfigField `json:"config_fields"`
}

// Source is the interface every data source must implement.
type Source interface {
	// Spec returns metadata about this source.
	Spec() SourceSpec

	// Extract reads the whole source into memory.
	Extract(ctx context.Context) (*Dataset, error)
}

// ── Source Registry ────────────────────────────────────────

// Registry maps source names to configured sources.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
}

// NewRegistry returns a registry holding the given sources.
func NewRegistry(sources ...Source) *Registry {
	r := &Registry{sources: make(map[string]Source, len(sources))}
	for _, s := range sources {
		r.Register(s)
	}
	return r
}

// Register adds s under its spec type, replacing any previous entry.
func (r *Registry) Register(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[s.Spec().Type] = s
}

// Get returns the source registered under typ, or an UnsupportedSourceError.
func (r *Registry) Get(typ string) (Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[typ]
	if !ok {
		return nil, domain.ErrUnsupportedSource(typ)
	}
	return s, nil
}

// List returns the specs of all registered sources sorted by type.
func (r *Registry) List() []SourceSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]SourceSpec, 0, len(r.sources))
	for _, s := range r.sources {
		specs = append(specs, s.Spec())
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Type < specs[j].Type })
	return specs
}
