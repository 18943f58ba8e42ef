package node

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrAlreadyRegistered is returned by Register in strict mode when a type
// name collides with an existing registration.
var ErrAlreadyRegistered = errors.New("node: type already registered")

// Factory constructs a Node from its assigned id, name and merged config.
type Factory func(id, name string, config map[string]any) (Node, error)

// Registry maps type strings (and aliases) to node factories.
type Registry struct {
	strict    bool
	factories map[string]Factory
	// lowercase primary type name -> canonical registered name, used for
	// case-insensitive exact lookup.
	lowercase map[string]string
}

// NewRegistry builds an empty Registry. In strict mode, Register fails with
// ErrAlreadyRegistered on a collision; by default it overwrites the
// existing mapping to preserve the teacher's fluent re-registration API.
func NewRegistry(strict bool) *Registry {
	return &Registry{
		strict:    strict,
		factories: map[string]Factory{},
		lowercase: map[string]string{},
	}
}

// Register adds or replaces the mapping for typ, and registers every alias
// against the same factory namespace.
func (r *Registry) Register(typ string, factory Factory, aliases ...string) error {
	if _, exists := r.factories[typ]; exists && r.strict {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, typ)
	}
	r.factories[typ] = factory
	r.lowercase[strings.ToLower(typ)] = typ
	for _, alias := range aliases {
		if _, exists := r.factories[alias]; exists && r.strict {
			return fmt.Errorf("%w: %s", ErrAlreadyRegistered, alias)
		}
		r.factories[alias] = factory
		r.lowercase[strings.ToLower(alias)] = alias
	}
	return nil
}

// Find resolves typ to a factory using, in order: exact match,
// case-insensitive exact match, substring match over registered type names.
func (r *Registry) Find(typ string) (Factory, bool) {
	if f, ok := r.factories[typ]; ok {
		return f, true
	}
	if canonical, ok := r.lowercase[strings.ToLower(typ)]; ok {
		return r.factories[canonical], true
	}
	needle := strings.ToLower(typ)
	for registered, f := range r.factories {
		if strings.Contains(strings.ToLower(registered), needle) {
			return f, true
		}
	}
	return nil, false
}

// Create resolves typ, fills in default id/name, merges caller config over
// node defaults, constructs via the factory, and validates the result.
func (r *Registry) Create(typ string, config map[string]any) (Node, error) {
	return r.CreateWithID(typ, "", "", config)
}

// CreateWithID is Create with caller-supplied id/name: used by the executor
// to instantiate the live Node a Workflow's NodeSpec already named, instead
// of generating a fresh identity (the workflow build step, not the ad-hoc
// fluent-API path Create serves). Empty id/name still fall back to the
// generated-token/"<type> Node" defaults.
func (r *Registry) CreateWithID(typ, id, name string, config map[string]any) (Node, error) {
	factory, ok := r.Find(typ)
	if !ok {
		return nil, fmt.Errorf("node: no factory registered for type %q", typ)
	}
	if id == "" {
		id = uuid.New().String()
	}
	if name == "" {
		name = typ + " Node"
	}
	if config == nil {
		config = map[string]any{}
	}
	n, err := factory(id, name, config)
	if err != nil {
		return nil, fmt.Errorf("node: construct %q: %w", typ, err)
	}
	if !n.Validate() {
		return nil, fmt.Errorf("node: %q (%s) failed validation", n.Name(), typ)
	}
	return n, nil
}

// ListTypes returns every registered type/alias name.
func (r *Registry) ListTypes() []string {
	out := make([]string, 0, len(r.factories))
	for t := range r.factories {
		out = append(out, t)
	}
	return out
}
