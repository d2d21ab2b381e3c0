package entity

import (
	"context"
	"iter"
	"slices"
)

// Model is an entity wrapped with typed accessors.
type Model interface {
	Core() *Entity
}

// Class binds a Kind to a typed model.
type Class[T Model] struct {
	kind *Kind
	wrap func(*Entity) T
}

func NewClass[T Model](kind *Kind, wrap func(*Entity) T) *Class[T] {
	return &Class[T]{kind: kind, wrap: wrap}
}

func (c *Class[T]) Kind() *Kind {
	return c.kind
}

func (c *Class[T]) Name() string {
	return c.kind.Name()
}

// Wrap gives typed accessors to e. e should be of the kind of c.
func (c *Class[T]) Wrap(e *Entity) T {
	return c.wrap(e)
}

// New is Kind.New, typed.
func (c *Class[T]) New(values map[string]any, opts ...Option) (T, error) {
	e, err := c.kind.New(values, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	return c.wrap(e), nil
}

// Get is Kind.Get, typed.
func (c *Class[T]) Get(ctx context.Context, lookup string, parentIds ...string) (T, error) {
	e, err := c.kind.Get(ctx, lookup, parentIds...)
	if err != nil {
		var zero T
		return zero, err
	}
	return c.wrap(e), nil
}

// Reload loads a fresh copy of m from the server.
//
// m itself is not modified.
// If m has no id, it returns *StateError.
func (c *Class[T]) Reload(ctx context.Context, m T) (T, error) {
	e := m.Core()
	if !e.HasId() {
		var zero T
		return zero, &StateError{Kind: c.Name(), Op: "reload", State: e.State()}
	}
	return c.Get(ctx, e.Id(), e.ParentIds()...)
}

// Find queries entities of the class.
//
// # Returns
//
// - Listing[T]: *Page[T] when the server paginates, otherwise List[T].
//
// - error
func (c *Class[T]) Find(ctx context.Context, params SearchParams) (Listing[T], error) {
	r, err := c.kind.Find(ctx, params)
	if err != nil {
		return nil, err
	}
	if r.Paginated {
		return NewPage(r, c.wrap), nil
	}
	l := make(List[T], 0, len(r.Entities))
	for _, e := range r.Entities {
		l = append(l, c.wrap(e))
	}
	return l, nil
}

// FindChildren queries entities scoped under parent.
func (c *Class[T]) FindChildren(ctx context.Context, parent Model, params SearchParams) (Listing[T], error) {
	p := parent.Core()
	ids := append(p.ParentIds(), p.Id())
	if params == nil {
		params = SearchParams{}
	}
	return c.Find(ctx, params.WithParentIds(ids...))
}

// Listing is a result of Find.
type Listing[T Model] interface {
	Len() int

	// Items returns entities in the listing.
	Items() []T

	All() iter.Seq2[int, T]
}

// List is a Listing not paginated.
type List[T Model] []T

func (l List[T]) Len() int {
	return len(l)
}

func (l List[T]) Items() []T {
	return slices.Clone(l)
}

func (l List[T]) All() iter.Seq2[int, T] {
	return slices.All(l)
}
