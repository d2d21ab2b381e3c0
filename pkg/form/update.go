package form

import (
	"context"
	"errors"
	"fmt"

	"github.com/opst/sciportal/pkg/dialog"
	"github.com/opst/sciportal/pkg/entity"
	"github.com/opst/sciportal/pkg/rest"
)

// Navigator leaves the screen of a form.
type Navigator interface {
	Close()
}

// Update is a form editing an existing entity.
type Update[T entity.Model] struct {
	*Controller[T]

	confirmer dialog.Confirmer
	navigator Navigator
}

type UpdateOption[T entity.Model] func(*Update[T]) *Update[T]

// WithNavigator sets Navigator used by SaveAndClose.
func WithNavigator[T entity.Model](n Navigator) UpdateOption[T] {
	return func(u *Update[T]) *Update[T] {
		u.navigator = n
		return u
	}
}

// NewUpdate creates a form editing an entity found by Input.Lookup.
//
// confirmer asks the user before deleting.
func NewUpdate[T entity.Model](conf Config[T], confirmer dialog.Confirmer, opts ...UpdateOption[T]) *Update[T] {
	if conf.ModifyFormObject == nil {
		conf.ModifyFormObject = func(ctx context.Context, obj T) error {
			return obj.Core().Update(ctx)
		}
	}
	c := newController(conf)
	c.fetch = func(ctx context.Context, input Input) (T, error) {
		return conf.Class.Get(ctx, input.Lookup, input.ParentIds...)
	}

	u := &Update[T]{Controller: c, confirmer: confirmer}
	for _, o := range opts {
		u = o(u)
	}
	return u
}

// SaveAndClose submits the form, then leaves the screen when it succeeds.
func (u *Update[T]) SaveAndClose(ctx context.Context) error {
	if err := u.HandleSubmit(ctx); err != nil {
		return err
	}
	if u.navigator != nil {
		u.navigator.Close()
	}
	return nil
}

// HandleDelete deletes the entity after the user confirms. See Delete.
//
// # Returns
//
// - bool: true if the entity is deleted. false if the user cancelled.
//
// - error: ErrInactive, ErrNotEditable, errors from the confirmer or the server.
// Errors from the server are also recorded in the View.
func (u *Update[T]) HandleDelete(ctx context.Context) (bool, error) {
	if err := u.acquire(); err != nil {
		return false, err
	}
	defer u.release()

	u.mu.Lock()
	obj, ok := u.object, u.hasObject && u.status == StatusEditing
	u.mu.Unlock()
	if !ok {
		return false, ErrNotEditable
	}

	deleted, err := Delete(ctx, u.confirmer, obj.Core())
	if err != nil {
		u.reportError(err)
		return false, err
	}
	if !deleted {
		return false, nil
	}

	u.update(func() {
		u.status = StatusDeleted
		u.dirty = false
		u.globalError = ""
	})
	return true, nil
}

// Delete deletes e after confirmer confirms.
//
// When the server requires an action for deleting (e.g. removing related
// resources together), confirmer is asked again and e is deleted by force.
//
// # Returns
//
// - bool: true if e is deleted. false if cancelled.
//
// - error
func Delete(ctx context.Context, confirmer dialog.Confirmer, e *entity.Entity) (bool, error) {
	yes, err := confirmer.Confirm(ctx, fmt.Sprintf("Delete %s %s?", e.Kind().Name(), e.Id()))
	if err != nil || !yes {
		return false, err
	}

	err = e.Delete(ctx)
	if !errors.Is(err, rest.ErrActionRequired) {
		return err == nil, err
	}

	message := err.Error()
	if he, ok := rest.AsHttpError(err); ok && he.Reason != "" {
		message = he.Reason
	}
	if yes, err := confirmer.Confirm(ctx, message+"\nDelete anyway?"); err != nil || !yes {
		return false, err
	}
	if err := e.ForceDelete(ctx); err != nil {
		return false, err
	}
	return true, nil
}
