package list

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/opst/sciportal/pkg/entity"
	"github.com/opst/sciportal/pkg/form"
)

// ErrNoSelection is returned when no item is selected.
var ErrNoSelection = errors.New("no item is selected")

// Sidebar is an Editor with a form editing the selected item.
type Sidebar[T entity.Model] struct {
	*Editor[T]

	conf form.Config[T]

	selection sync.Mutex
	selected  *form.Update[T]
	item      T
}

// NewSidebar creates a Sidebar. conf configures forms of selected items.
func NewSidebar[T entity.Model](editor *Editor[T], conf form.Config[T]) *Sidebar[T] {
	if conf.Class == nil {
		conf.Class = editor.class
	}
	return &Sidebar[T]{Editor: editor, conf: conf}
}

// Select opens a form of item.
//
// The form is reset with the latest item from the server.
func (s *Sidebar[T]) Select(ctx context.Context, item T) (*form.Update[T], error) {
	e := item.Core()
	f := form.NewUpdate(s.conf, s.confirmer, form.WithNavigator[T](navigatorFunc(s.Deselect)))
	if err := f.ResetForm(ctx, form.Input{Lookup: e.Id(), ParentIds: e.ParentIds()}); err != nil {
		return nil, err
	}

	s.selection.Lock()
	defer s.selection.Unlock()
	s.selected = f
	s.item = item
	return f, nil
}

// Selected returns the form of the selected item.
func (s *Sidebar[T]) Selected() (*form.Update[T], bool) {
	s.selection.Lock()
	defer s.selection.Unlock()
	return s.selected, s.selected != nil
}

// Deselect closes the form.
func (s *Sidebar[T]) Deselect() {
	s.selection.Lock()
	defer s.selection.Unlock()
	s.selected = nil
	var zero T
	s.item = zero
}

// Save submits the form, and updates the item on the list.
func (s *Sidebar[T]) Save(ctx context.Context) error {
	f, ok := s.Selected()
	if !ok {
		return ErrNoSelection
	}
	if err := f.HandleSubmit(ctx); err != nil {
		return err
	}
	if obj, ok := f.Object(); ok {
		s.UpdateItem(obj)
	}
	return nil
}

// Delete deletes the selected item, and removes it from the list.
func (s *Sidebar[T]) Delete(ctx context.Context) (bool, error) {
	s.selection.Lock()
	f, item := s.selected, s.item
	s.selection.Unlock()
	if f == nil {
		return false, ErrNoSelection
	}
	// the list may hold the item or the form object, and deleted entities lose their ids.
	matches := []func(T) bool{sameAs[T](item)}
	if obj, ok := f.Object(); ok {
		matches = append(matches, sameAs[T](obj))
	}
	deleted, err := f.HandleDelete(ctx)
	if err != nil || !deleted {
		return false, err
	}
	s.removeBy(func(it T) bool {
		return slices.ContainsFunc(matches, func(m func(T) bool) bool { return m(it) })
	})
	s.Deselect()
	return true, nil
}

type navigatorFunc func()

func (f navigatorFunc) Close() {
	f()
}
