package common

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	kerr "github.com/opst/sciportal/cmd/portal/errors"
	"github.com/opst/sciportal/pkg/dialog"
	"github.com/opst/sciportal/pkg/entity"
	"github.com/opst/sciportal/pkg/form"
	"github.com/opst/sciportal/pkg/list"
)

// Values are inputs from flags. Empty strings are not inputs.
func Values(kv map[string]string) map[string]any {
	ret := map[string]any{}
	for k, v := range kv {
		if v != "" {
			ret[k] = v
		}
	}
	return ret
}

// FormError summarizes errors in the view of a form.
func FormError(v form.View, err error) error {
	if len(v.Errors) == 0 && v.GlobalError == "" {
		return err
	}
	lines := []string{}
	if v.GlobalError != "" {
		lines = append(lines, v.GlobalError)
	}
	for _, name := range slices.Sorted(maps.Keys(v.Errors)) {
		lines = append(lines, fmt.Sprintf("  --%s: %s", name, v.Errors[name]))
	}
	return kerr.NewCuiError(strings.Join(lines, "\n"), kerr.WithCause(err))
}

// CreateEntity creates an entity through a form.
func CreateEntity[T entity.Model](
	ctx context.Context,
	class *entity.Class[T],
	input form.Input,
	values map[string]any,
) (T, error) {
	var zero T
	f := form.NewCreate(form.Config[T]{
		Class:         class,
		Fields:        slices.Collect(maps.Keys(values)),
		CheckRequired: true,
	})
	if err := f.ResetForm(ctx, input); err != nil {
		return zero, err
	}
	for _, name := range slices.Sorted(maps.Keys(values)) {
		f.HandleInput(name, values[name])
	}
	if err := f.HandleSubmit(ctx); err != nil {
		return zero, FormError(f.View(), err)
	}
	obj, _ := f.Object()
	return obj, nil
}

// EditEntity updates an entity through a form.
func EditEntity[T entity.Model](
	ctx context.Context,
	class *entity.Class[T],
	confirmer dialog.Confirmer,
	input form.Input,
	values map[string]any,
) (T, error) {
	var zero T
	f := form.NewUpdate(form.Config[T]{Class: class, Fields: slices.Collect(maps.Keys(values))}, confirmer)
	if err := reset(ctx, f, input); err != nil {
		return zero, err
	}
	for _, name := range slices.Sorted(maps.Keys(values)) {
		f.HandleInput(name, values[name])
	}
	if err := f.HandleSubmit(ctx); err != nil {
		return zero, FormError(f.View(), err)
	}
	obj, _ := f.Object()
	return obj, nil
}

// RemoveEntity deletes an entity through a form, after the user confirms.
func RemoveEntity[T entity.Model](
	ctx context.Context,
	class *entity.Class[T],
	confirmer dialog.Confirmer,
	input form.Input,
) (bool, error) {
	f := form.NewUpdate(form.Config[T]{Class: class}, confirmer)
	if err := reset(ctx, f, input); err != nil {
		return false, err
	}
	deleted, err := f.HandleDelete(ctx)
	if err != nil {
		return false, FormError(f.View(), err)
	}
	return deleted, nil
}

func reset[T entity.Model](ctx context.Context, f *form.Update[T], input form.Input) error {
	if err := f.ResetForm(ctx, input); err != nil {
		return err
	}
	if v := f.View(); v.Status == form.StatusReloadError {
		return v.ReloadError
	}
	return nil
}

// FindEntities finds entities matching to params.
//
// When the server paginates, pages are followed up to limit pages. limit < 1 means all.
func FindEntities[T entity.Model](
	ctx context.Context,
	class *entity.Class[T],
	params entity.SearchParams,
	limit int,
	opts ...list.Option[T],
) ([]T, error) {
	editor := list.NewEditor(
		list.NewLoader(class, func() entity.SearchParams { return params }, opts...),
		nil,
	)
	if _, err := editor.Sync(ctx); err != nil {
		return nil, err
	}

	s := editor.State()
	items := s.Items
	for pages := 1; s.Page != nil && (limit < 1 || pages < limit); pages++ {
		err := editor.NextPage(ctx)
		if errors.Is(err, entity.ErrPageRange) {
			break
		}
		if err != nil {
			return nil, err
		}
		s = editor.State()
		items = append(items, s.Items...)
	}
	return items, nil
}
