// Package form drives an editing session of an entity on a screen.
//
// A Controller keeps what a screen renders (raw input, per-field errors and
// a global error) and sends the entity to the server on submit.
// Create and Update are the two kinds of forms built on it.
package form

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/opst/sciportal/pkg/entity"
	"github.com/opst/sciportal/pkg/entity/field"
	"github.com/opst/sciportal/pkg/rest"
)

var (
	// ErrInactive is returned when an operation is requested while another is running.
	ErrInactive = errors.New("form is busy")

	// ErrNotEditable is returned when the form has nothing to edit:
	// it is not reset yet, failed to reload or its entity is deleted.
	ErrNotEditable = errors.New("form is not editable")

	// ErrInvalidInput is returned by HandleSubmit when some inputs are refused.
	ErrInvalidInput = errors.New("invalid input")
)

// Status of a form, distinguished on screens.
type Status int

const (
	// StatusBlank is the form before ResetForm.
	StatusBlank Status = iota

	// StatusReloadError is the form whose entity could not be loaded
	// because it is missing or not allowed to see.
	StatusReloadError

	// StatusEditing is the form without unsaved input.
	StatusEditing

	// StatusChanged is the form with unsaved input.
	StatusChanged

	// StatusDeleted is the form whose entity is deleted.
	StatusDeleted
)

func (s Status) String() string {
	switch s {
	case StatusBlank:
		return "blank"
	case StatusReloadError:
		return "reload error"
	case StatusEditing:
		return "editing"
	case StatusChanged:
		return "changed"
	case StatusDeleted:
		return "deleted"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Input is what opens a form: route parameters and initial values.
type Input struct {
	// Lookup is the id or alias of the entity to be edited.
	Lookup string

	// ParentIds are ids of ancestors of the entity.
	ParentIds []string

	// Values are initial values given by the caller.
	Values map[string]any
}

// Normalizer converts an input from a widget into the value for the entity.
//
// The value is already trimmed, and empty strings are nil.
type Normalizer func(v any) (any, error)

// ErrorHandler takes errors which need the attention of the application,
// like unauthorized responses.
type ErrorHandler interface {
	// HandleError reports whether err is handled.
	HandleError(err error) bool
}

// Config customizes a Controller.
type Config[T entity.Model] struct {
	// Class of the entity edited in the form.
	Class *entity.Class[T]

	// Fields are names of properties which the form has widgets for.
	Fields []string

	// GetDefaultValues returns values which the form starts with.
	//
	// Optional. Input.Values are taken when it is nil.
	GetDefaultValues func(ctx context.Context, input Input) (map[string]any, error)

	// ModifyFormObject sends the form object to the server.
	//
	// Optional. Create and Update give a default.
	ModifyFormObject func(ctx context.Context, obj T) error

	// Normalizers convert input by field name.
	Normalizers map[string]Normalizer

	// CheckRequired refuses a new object having no values for required
	// properties, before sending it. Otherwise the server checks them.
	CheckRequired bool

	// Errors takes unauthorized errors. Optional.
	Errors ErrorHandler

	// Translate translates messages of validation errors. Optional.
	Translate func(key string, fallback string) string
}

// View is what a screen renders.
type View struct {
	Status Status

	// Disabled is true while an operation is running.
	// Widgets should not accept input then.
	Disabled bool

	// RawValues are values as the user typed, by field name.
	RawValues map[string]any

	// Errors are messages by field name.
	Errors map[string]string

	// GlobalError is a message not bound to any field.
	GlobalError string

	// ReloadError is the cause of StatusReloadError.
	ReloadError error
}

// Controller is an editing session of an entity.
//
// Methods are safe to be called concurrently, but only one of
// ResetForm, HandleSubmit and HandleDelete runs at once.
type Controller[T entity.Model] struct {
	conf Config[T]

	// fetch loads the entity of the form. nil for forms creating entities.
	fetch func(ctx context.Context, input Input) (T, error)

	mu          sync.Mutex
	input       Input
	defaults    map[string]any
	rawValues   map[string]any
	formValues  map[string]any
	object      T
	hasObject   bool
	dirty       bool
	errors      map[string]string
	invalid     map[string]struct{}
	globalError string
	reloadError error
	inactive    bool
	status      Status
	observers   []func(View)
}

func newController[T entity.Model](conf Config[T]) *Controller[T] {
	return &Controller[T]{
		conf:       conf,
		defaults:   map[string]any{},
		rawValues:  map[string]any{},
		formValues: map[string]any{},
		errors:     map[string]string{},
		invalid:    map[string]struct{}{},
	}
}

// OnChange registers an observer called with a new View after each change.
func (c *Controller[T]) OnChange(observer func(View)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, observer)
}

// View returns the current View.
func (c *Controller[T]) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view()
}

// c.mu should be locked.
func (c *Controller[T]) view() View {
	status := c.status
	if status == StatusEditing && c.dirty {
		status = StatusChanged
	}
	return View{
		Status:      status,
		Disabled:    c.inactive,
		RawValues:   maps.Clone(c.rawValues),
		Errors:      maps.Clone(c.errors),
		GlobalError: c.globalError,
		ReloadError: c.reloadError,
	}
}

// update changes the form under lock, then notifies observers.
func (c *Controller[T]) update(mutate func()) {
	c.mu.Lock()
	mutate()
	v := c.view()
	observers := slices.Clone(c.observers)
	c.mu.Unlock()

	for _, o := range observers {
		o(v)
	}
}

// Object returns the form object, if it is built.
func (c *Controller[T]) Object() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.object, c.hasObject
}

// acquire marks the form inactive.
func (c *Controller[T]) acquire() error {
	var err error
	c.update(func() {
		if c.inactive {
			err = ErrInactive
			return
		}
		c.inactive = true
	})
	return err
}

func (c *Controller[T]) release() {
	c.update(func() { c.inactive = false })
}

// ResetForm (re)starts the session.
//
// Forms editing an existing entity load it first. When it is missing or not
// allowed to see, the form gets StatusReloadError and ResetForm returns nil.
//
// # Returns
//
// - error: ErrInactive, or errors on loading the entity or default values.
func (c *Controller[T]) ResetForm(ctx context.Context, input Input) error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()

	var obj T
	hasObject := false
	initial := map[string]any{}
	if c.fetch != nil {
		o, err := c.fetch(ctx, input)
		if err != nil {
			if !errors.Is(err, rest.ErrNotFound) && !errors.Is(err, rest.ErrUnauthorized) {
				return err
			}
			c.handleUnauthorized(err)
			c.update(func() {
				c.input = input
				c.hasObject = false
				c.status = StatusReloadError
				c.reloadError = err
			})
			return nil
		}
		obj, hasObject = o, true
		for _, name := range c.conf.Fields {
			if v, err := obj.Core().Value(name); err == nil {
				initial[name] = v
			}
		}
	}

	defaults := input.Values
	if g := c.conf.GetDefaultValues; g != nil {
		d, err := g(ctx, input)
		if err != nil {
			return err
		}
		defaults = d
	}
	maps.Copy(initial, defaults)

	c.update(func() {
		c.input = input
		c.defaults = initial
		c.rawValues = maps.Clone(initial)
		c.formValues = maps.Clone(initial)
		c.object = obj
		c.hasObject = hasObject
		c.dirty = false
		c.errors = map[string]string{}
		c.invalid = map[string]struct{}{}
		c.globalError = ""
		c.reloadError = nil
		c.status = StatusEditing
	})
	return nil
}

// normalize trims strings and turns empty strings into nil.
func normalize(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return s
}

// HandleInput takes an input of a widget.
//
// When the form object is built, the value is written into it and
// refused values are shown as errors of the field at once.
func (c *Controller[T]) HandleInput(name string, raw any) {
	value := normalize(raw)
	var normErr error
	if n, ok := c.conf.Normalizers[name]; ok {
		value, normErr = n(value)
	}

	c.update(func() {
		c.rawValues[name] = raw
		c.dirty = true
		if normErr != nil {
			c.setError(name, normErr)
			return
		}
		c.formValues[name] = value
		delete(c.errors, name)
		delete(c.invalid, name)
		if !c.hasObject {
			return
		}
		if err := c.object.Core().Set(name, value); err != nil {
			c.setError(name, err)
		}
	})
}

// setError records an error of the field found on the client side.
//
// c.mu should be locked.
func (c *Controller[T]) setError(name string, err error) {
	c.invalid[name] = struct{}{}
	if ve, ok := field.AsValidationError(err); ok {
		c.errors[name] = ve.Translate(c.conf.Translate)
		return
	}
	c.errors[name] = err.Error()
}

// formObject returns the form object. It is built on the first call.
//
// Each value is written into a new object and refused ones are returned by field name.
func (c *Controller[T]) formObject() (T, map[string]error, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hasObject {
		return c.object, nil, nil
	}

	obj, err := c.conf.Class.New(nil, entity.WithParentIds(c.input.ParentIds...))
	if err != nil {
		return obj, nil, err
	}
	refused := map[string]error{}
	for _, name := range slices.Sorted(maps.Keys(c.formValues)) {
		v := c.formValues[name]
		if v == nil {
			continue
		}
		if err := obj.Core().Set(name, v); err != nil {
			refused[name] = err
		}
	}
	if c.conf.CheckRequired {
		maps.Copy(refused, c.missingRequired())
	}
	c.object = obj
	c.hasObject = true
	return obj, refused, nil
}

// missingRequired returns errors of required properties without values.
//
// c.mu should be locked.
func (c *Controller[T]) missingRequired() map[string]error {
	schema := c.conf.Class.Kind().Schema()
	missing := map[string]error{}
	for _, name := range schema.Fields() {
		f, _ := schema.Field(name)
		if !f.Required() || f.ReadOnly() || f.Default() != nil {
			continue
		}
		if c.formValues[name] != nil {
			continue
		}
		missing[name] = field.NewValidationError("validation.required", "This field is required.").WithField(name)
	}
	return missing
}

// HandleSubmit sends the form object to the server.
//
// Refused values and rejections of the server are recorded in the View.
// The form is active again when HandleSubmit returns.
//
// # Returns
//
// error if...
//
// - ErrInactive: another operation is running.
//
// - ErrNotEditable: the form has no entity to edit.
//
// - ErrInvalidInput: some values are refused before sending.
//
// - others: errors from the server, also recorded in the View.
func (c *Controller[T]) HandleSubmit(ctx context.Context) error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()

	c.mu.Lock()
	status := c.status
	c.mu.Unlock()
	if status != StatusEditing {
		return ErrNotEditable
	}

	obj, refused, err := c.formObject()
	if err != nil {
		c.reportError(err)
		return err
	}

	// errors found on the client side are kept until the user corrects them.
	c.mu.Lock()
	for name, err := range refused {
		c.setError(name, err)
	}
	pending := len(c.invalid)
	c.mu.Unlock()
	if 0 < pending {
		c.update(func() { c.globalError = "" })
		return ErrInvalidInput
	}

	modify := c.conf.ModifyFormObject
	if err := modify(ctx, obj); err != nil {
		c.reportError(err)
		return err
	}

	c.update(func() {
		c.dirty = false
		c.errors = map[string]string{}
		c.invalid = map[string]struct{}{}
		c.globalError = ""
	})
	return nil
}

// reportError records err in the View.
//
// Validation errors and field errors from the server are bound to their fields.
func (c *Controller[T]) reportError(err error) {
	c.handleUnauthorized(err)

	c.update(func() {
		c.globalError = ""
		if ve, ok := field.AsValidationError(err); ok && ve.Field != "" {
			c.errors[ve.Field] = ve.Translate(c.conf.Translate)
			return
		}

		he, ok := rest.AsHttpError(err)
		if !ok || !errors.Is(err, rest.ErrBadRequest) {
			c.globalError = err.Error()
			return
		}
		known := c.conf.Class.Kind().Schema()
		others := []string{}
		for name, msg := range he.FieldErrors() {
			if _, ok := known.Field(name); ok {
				c.errors[name] = msg
				continue
			}
			others = append(others, msg)
		}
		switch {
		case 0 < len(others):
			slices.Sort(others)
			c.globalError = strings.Join(others, "\n")
		case len(he.Info) == 0:
			c.globalError = he.Reason
		}
	})
}

func (c *Controller[T]) handleUnauthorized(err error) {
	if c.conf.Errors == nil || !errors.Is(err, rest.ErrUnauthorized) {
		return
	}
	c.conf.Errors.HandleError(err)
}
