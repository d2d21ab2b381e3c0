package entity

import (
	"context"
	"fmt"
	"iter"
	"slices"
)

// Page is one page of a paginated query.
//
// Next and Previous replace the content in place.
// A Page is not safe for concurrent use.
type Page[T Model] struct {
	count    int
	next     string
	previous string
	items    []T

	fetch func(ctx context.Context, link string) (*FindResult, error)
	wrap  func(*Entity) T
}

func NewPage[T Model](r *FindResult, wrap func(*Entity) T) *Page[T] {
	p := &Page[T]{wrap: wrap}
	p.replace(r)
	return p
}

func (p *Page[T]) replace(r *FindResult) {
	p.count = r.Count
	p.next = r.Next
	p.previous = r.Previous
	p.fetch = r.Fetch
	p.items = make([]T, 0, len(r.Entities))
	for _, e := range r.Entities {
		p.items = append(p.items, p.wrap(e))
	}
}

// Count returns the total number of entities over all pages.
func (p *Page[T]) Count() int {
	return p.count
}

// Len returns the number of entities in this page.
func (p *Page[T]) Len() int {
	return len(p.items)
}

// PageCount returns the number of entities held in this page.
//
// It is the same as Len.
func (p *Page[T]) PageCount() int {
	return len(p.items)
}

func (p *Page[T]) IsFirstPage() bool {
	return p.previous == ""
}

func (p *Page[T]) IsLastPage() bool {
	return p.next == ""
}

func (p *Page[T]) Items() []T {
	return slices.Clone(p.items)
}

func (p *Page[T]) All() iter.Seq2[int, T] {
	return slices.All(p.items)
}

// Next moves to the next page.
//
// If this is the last page, it returns ErrPageRange and nothing changes.
// On other errors, this page is kept as it is.
func (p *Page[T]) Next(ctx context.Context) error {
	if p.IsLastPage() {
		return fmt.Errorf("%w: no page after this", ErrPageRange)
	}
	return p.move(ctx, p.next)
}

// Previous moves to the previous page.
//
// If this is the first page, it returns ErrPageRange and nothing changes.
func (p *Page[T]) Previous(ctx context.Context) error {
	if p.IsFirstPage() {
		return fmt.Errorf("%w: no page before this", ErrPageRange)
	}
	return p.move(ctx, p.previous)
}

func (p *Page[T]) move(ctx context.Context, link string) error {
	if p.fetch == nil {
		return fmt.Errorf("%w: page cannot be fetched", ErrNoProvider)
	}
	r, err := p.fetch(ctx, link)
	if err != nil {
		return err
	}
	p.replace(r)
	return nil
}
