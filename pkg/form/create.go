package form

import (
	"context"

	"github.com/opst/sciportal/pkg/entity"
)

// Create is a form creating a new entity.
//
// The form object is built on the first submit from the input.
// After it is created, later submits update it.
type Create[T entity.Model] struct {
	*Controller[T]
}

func NewCreate[T entity.Model](conf Config[T]) *Create[T] {
	if conf.ModifyFormObject == nil {
		conf.ModifyFormObject = func(ctx context.Context, obj T) error {
			e := obj.Core()
			if e.State() == entity.Creating {
				return e.Create(ctx)
			}
			return e.Update(ctx)
		}
	}
	return &Create[T]{Controller: newController(conf)}
}
