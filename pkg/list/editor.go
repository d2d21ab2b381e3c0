package list

import (
	"context"
	"errors"
	"slices"

	"github.com/opst/sciportal/pkg/dialog"
	"github.com/opst/sciportal/pkg/entity"
	"github.com/opst/sciportal/pkg/form"
)

// ErrNotPaginated is returned when paging a list which the server does not paginate.
var ErrNotPaginated = errors.New("list is not paginated")

// Editor is a Loader whose items are changed one by one.
//
// Changes are made on the items held by the Editor. The list is not fetched again.
type Editor[T entity.Model] struct {
	*Loader[T]

	confirmer dialog.Confirmer
}

// NewEditor creates an Editor.
//
// confirmer asks the user before RemoveEntity deletes an entity.
func NewEditor[T entity.Model](loader *Loader[T], confirmer dialog.Confirmer) *Editor[T] {
	return &Editor[T]{Loader: loader, confirmer: confirmer}
}

// sameAs returns a predicate telling an item is the same entity as m.
//
// The id of m is taken when sameAs is called.
func sameAs[T entity.Model](m entity.Model) func(T) bool {
	core := m.Core()
	id, hasId := core.Id(), core.HasId()
	return func(it T) bool {
		c := it.Core()
		if c == core {
			return true
		}
		return hasId && c.HasId() && c.Id() == id
	}
}

// AddItem puts item at the head of the list.
func (e *Editor[T]) AddItem(item T) {
	e.update(func(s *State[T]) {
		s.Items = slices.Insert(s.Items, 0, item)
	})
}

// UpdateItem replaces the item which is the same entity as item.
//
// It reports whether the item is found.
func (e *Editor[T]) UpdateItem(item T) bool {
	found := false
	same := sameAs[T](item)
	e.update(func(s *State[T]) {
		for i, it := range s.Items {
			if same(it) {
				s.Items[i] = item
				found = true
				return
			}
		}
	})
	return found
}

// RemoveItem removes the item which is the same entity as item.
//
// It reports whether the item is found.
func (e *Editor[T]) RemoveItem(item T) bool {
	return e.removeBy(sameAs[T](item))
}

func (e *Editor[T]) removeBy(same func(T) bool) bool {
	found := false
	e.update(func(s *State[T]) {
		s.Items = slices.DeleteFunc(s.Items, func(it T) bool {
			if same(it) {
				found = true
				return true
			}
			return false
		})
	})
	return found
}

// RemoveEntity deletes item after the user confirms, then removes it from the list.
//
// See form.Delete.
func (e *Editor[T]) RemoveEntity(ctx context.Context, item T) (bool, error) {
	same := sameAs[T](item)
	deleted, err := form.Delete(ctx, e.confirmer, item.Core())
	if err != nil || !deleted {
		return false, err
	}
	e.removeBy(same)
	return true, nil
}

// NextPage moves the list to the next page.
//
// # Returns
//
// error if...
//
// - ErrNotPaginated: the list is not a page.
//
// - entity.ErrPageRange: the list is on the last page.
//
// - others: errors on fetching. It is also recorded in the State.
func (e *Editor[T]) NextPage(ctx context.Context) error {
	return e.move(ctx, (*entity.Page[T]).IsLastPage, (*entity.Page[T]).Next)
}

// PreviousPage moves the list to the previous page. See NextPage.
func (e *Editor[T]) PreviousPage(ctx context.Context) error {
	return e.move(ctx, (*entity.Page[T]).IsFirstPage, (*entity.Page[T]).Previous)
}

func (e *Editor[T]) move(
	ctx context.Context,
	atEnd func(*entity.Page[T]) bool,
	move func(*entity.Page[T], context.Context) error,
) error {
	e.mu.Lock()
	page, loading := e.state.Page, e.state.Loading
	e.mu.Unlock()
	if page == nil {
		return ErrNotPaginated
	}
	if loading {
		return nil
	}
	if atEnd(page) {
		return entity.ErrPageRange
	}

	e.ReportListFetching()
	if err := move(page, ctx); err != nil {
		e.ReportFetchFailure(err)
		return err
	}
	e.ReportFetchSuccess(page)
	return nil
}
