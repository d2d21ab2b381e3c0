package entity

import (
	"context"
	"fmt"
	"maps"
	"slices"
)

// Kind is a class of entities: its schema and its providers.
//
// The first provider is the search provider. It serves Get and Find.
// Create, Update and Delete go to all providers.
type Kind struct {
	schema    *Schema
	providers []Provider
}

func NewKind(schema *Schema, providers ...Provider) (*Kind, error) {
	if schema == nil {
		return nil, fmt.Errorf("kind has no schema")
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoProvider, schema.Name())
	}
	return &Kind{schema: schema, providers: slices.Clone(providers)}, nil
}

// MustKind is NewKind for package-level kinds. It panics on error.
func MustKind(schema *Schema, providers ...Provider) *Kind {
	k, err := NewKind(schema, providers...)
	if err != nil {
		panic(err)
	}
	return k
}

func (k *Kind) Name() string {
	return k.schema.Name()
}

func (k *Kind) Schema() *Schema {
	return k.schema
}

func (k *Kind) Providers() []Provider {
	return slices.Clone(k.providers)
}

func (k *Kind) blank(state State, opts ...Option) *Entity {
	e := &Entity{
		kind:    k,
		values:  map[string]any{},
		changed: map[string]struct{}{},
		state:   state,
	}
	for name, f := range k.schema.fields {
		e.values[name] = f.Default()
	}
	for _, o := range opts {
		e = o(e)
	}
	return e
}

// New creates an entity in Creating state, not sent to the server yet.
//
// # Args
//
// - values: initial values of properties. Omitted ones take their defaults.
//
// - opts: options.
//
// # Returns
//
// - *Entity: new entity.
//
// - error: ErrEntityProperty, ErrReadOnlyProperty or *field.ValidationError
// for the first bad value in name order.
func (k *Kind) New(values map[string]any, opts ...Option) (*Entity, error) {
	e := k.blank(Creating, opts...)
	for _, name := range slices.Sorted(maps.Keys(values)) {
		if err := e.Set(name, values[name]); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// FromPayload builds an entity from a server response.
//
// This is for providers.
func (k *Kind) FromPayload(payload map[string]any, state State, parentIds []string) (*Entity, error) {
	e := k.blank(state, WithParentIds(parentIds...))
	if err := e.merge(payload); err != nil {
		return nil, err
	}
	return e, nil
}

// Get loads an entity by id or alias from the search provider.
//
// The entity is in Loaded state.
func (k *Kind) Get(ctx context.Context, lookup string, parentIds ...string) (*Entity, error) {
	e, err := k.providers[0].LoadEntity(ctx, k, lookup, parentIds)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = Loaded
	e.changed = map[string]struct{}{}
	return e, nil
}

// Find queries entities to the search provider.
//
// Entities in the result are in Found state.
func (k *Kind) Find(ctx context.Context, params SearchParams) (*FindResult, error) {
	r, err := k.providers[0].FindEntities(ctx, k, params)
	if err != nil {
		return nil, err
	}
	found(r)
	return r, nil
}

func found(r *FindResult) {
	for _, e := range r.Entities {
		e.mu.Lock()
		e.state = Found
		e.changed = map[string]struct{}{}
		e.mu.Unlock()
	}
	if fetch := r.Fetch; fetch != nil {
		r.Fetch = func(ctx context.Context, link string) (*FindResult, error) {
			next, err := fetch(ctx, link)
			if err != nil {
				return nil, err
			}
			found(next)
			return next, nil
		}
	}
}
