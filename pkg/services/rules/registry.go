// Package rules ships the built-in project rules and the registry the CLI
// and web API pick them from.
package rules

import (
	"fmt"
	"sort"
	"sync"

	"github.com/piranna/projectlint/pkg/models/domain"
)

// Factory builds a fresh rule instance.
type Factory func() domain.Rule

// Registry manages rule factories.
type Registry interface {
	// Register adds a new rule factory.
	Register(name string, factory Factory) error
	// Create instantiates the named rule.
	Create(name string) (domain.Rule, error)
	// List returns the registered rule names, sorted.
	List() []string
	// All instantiates every registered rule, keyed by name.
	All() map[string]domain.Rule
}

type registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty rule registry.
func NewRegistry() Registry {
	return &registry{factories: make(map[string]Factory)}
}

// DefaultRegistry creates a registry holding the built-in rules.
func DefaultRegistry() Registry {
	r := NewRegistry()
	_ = r.Register("project-files", ProjectFiles)
	_ = r.Register("line-length", LineLength)
	_ = r.Register("trailing-whitespace", TrailingWhitespace)
	return r
}

func (r *registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("rule name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("rule %q is already registered", name)
	}

	r.factories[name] = factory
	return nil
}

func (r *registry) Create(name string) (domain.Rule, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return domain.Rule{}, fmt.Errorf("rule %q is not registered", name)
	}
	return factory(), nil
}

func (r *registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *registry) All() map[string]domain.Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]domain.Rule, len(r.factories))
	for name, factory := range r.factories {
		out[name] = factory()
	}
	return out
}
