package entity

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"sync"

	"github.com/opst/sciportal/pkg/entity/field"
	"golang.org/x/sync/errgroup"
)

// Entity is a client-side copy of one resource on the server.
//
// An Entity owns its property values exclusively.
// Its Kind (descriptors and providers) is shared with other entities.
//
// Methods are safe for concurrent use. While an operation is in flight
// (state is Pending), other operations and writes fail with ErrEntityState
// instead of waiting.
type Entity struct {
	kind *Kind

	mu        sync.Mutex
	id        string
	hasId     bool
	values    map[string]any
	changed   map[string]struct{}
	state     State
	tag       string
	parentIds []string
}

type Option func(*Entity) *Entity

// WithParentIds scopes a new entity under ancestors.
func WithParentIds(ids ...string) Option {
	return func(e *Entity) *Entity {
		e.parentIds = slices.Clone(ids)
		return e
	}
}

// WithTag sets a transient marker for presentation (e.g. "added").
func WithTag(tag string) Option {
	return func(e *Entity) *Entity {
		e.tag = tag
		return e
	}
}

// Core returns e itself. Models embedding *Entity satisfy Model with this.
func (e *Entity) Core() *Entity {
	return e
}

func (e *Entity) Kind() *Kind {
	return e.kind
}

// Id returns the identifier. It is empty until the entity is persisted.
func (e *Entity) Id() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.id
}

func (e *Entity) HasId() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hasId
}

func (e *Entity) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Entity) Tag() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tag
}

func (e *Entity) SetTag(tag string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tag = tag
}

// ParentIds returns ids of ancestors, from the root.
func (e *Entity) ParentIds() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.parentIds)
}

// Value reads a property.
//
// # Returns
//
// - any: the value corrected by its descriptor.
//
// - error: ErrEntityProperty if the kind does not have the property.
func (e *Entity) Value(name string) (any, error) {
	if name == IdField {
		return e.Id(), nil
	}
	f, ok := e.kind.schema.Field(name)
	if !ok {
		return nil, unknownProperty(e.kind.Name(), name)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return f.Correct(e.values[name]), nil
}

// Set writes a property.
//
// # Returns
//
// error if...
//
// - ErrEntityProperty: the kind does not have the property.
//
// - ErrEntityState: the entity is pending, found or deleted.
//
// - ErrReadOnlyProperty: the property is id or read-only.
//
// - *field.ValidationError: the value is refused by the descriptor.
//
// They are checked in this order.
// On error, neither the value nor the state is changed.
func (e *Entity) Set(name string, value any) error {
	f, ok := e.kind.schema.Field(name)
	if !ok && name != IdField {
		return unknownProperty(e.kind.Name(), name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.Writable() {
		return &StateError{Kind: e.kind.Name(), Op: "set " + name, State: e.state}
	}
	if name == IdField || f.ReadOnly() {
		return readOnlyProperty(e.kind.Name(), name)
	}
	v, err := f.Proofread(value)
	if err != nil {
		if ve, ok := field.AsValidationError(err); ok {
			return ve.WithField(name)
		}
		return err
	}
	e.values[name] = v
	e.changed[name] = struct{}{}
	e.state = e.state.afterWrite()
	return nil
}

// Changed returns names of properties written since the last save, sorted.
func (e *Entity) Changed() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Sorted(maps.Keys(e.changed))
}

// Snapshot returns writable properties in wire form. id is not included.
func (e *Entity) Snapshot() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()

	ret := map[string]any{}
	for _, name := range e.kind.schema.order {
		f := e.kind.schema.fields[name]
		if f.ReadOnly() {
			continue
		}
		ret[name] = f.Encode(e.values[name])
	}
	return ret
}

// ChangedSnapshot returns properties written since the last save, in wire form.
func (e *Entity) ChangedSnapshot() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()

	ret := map[string]any{}
	for name := range e.changed {
		ret[name] = e.kind.schema.fields[name].Encode(e.values[name])
	}
	return ret
}

// Merge stores a payload from the server.
//
// This is for providers. It ignores the state and read-only flags.
// Unknown properties in the payload are ignored.
// When the payload has "id", it becomes the identifier of the entity.
func (e *Entity) Merge(payload map[string]any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.merge(payload)
}

func (e *Entity) merge(payload map[string]any) error {
	decoded := make(map[string]any, len(payload))
	for name, raw := range payload {
		if name == IdField {
			continue
		}
		f, ok := e.kind.schema.Field(name)
		if !ok {
			continue
		}
		v, err := f.Decode(raw)
		if err != nil {
			return fmt.Errorf("%s.%s in response: %w", e.kind.Name(), name, err)
		}
		decoded[name] = v
	}

	if raw, ok := payload[IdField]; ok {
		id, ok := formatId(raw)
		if !ok {
			return fmt.Errorf("%s.id in response is not an identifier: %v", e.kind.Name(), raw)
		}
		e.id, e.hasId = id, id != ""
	}
	for name, v := range decoded {
		e.values[name] = v
	}
	return nil
}

func formatId(raw any) (string, bool) {
	switch v := raw.(type) {
	case nil:
		return "", true
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	}
	return "", false
}

// memento is what an operation restores on failure.
type memento struct {
	id      string
	hasId   bool
	state   State
	values  map[string]any
	changed map[string]struct{}
}

// enterPending saves the current status and makes the entity pending.
//
// e.mu should be locked.
func (e *Entity) enterPending() *memento {
	m := &memento{
		id:      e.id,
		hasId:   e.hasId,
		state:   e.state,
		values:  maps.Clone(e.values),
		changed: maps.Clone(e.changed),
	}
	e.state = Pending
	return m
}

func (e *Entity) settle(m *memento, err error, success State) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err != nil {
		e.id, e.hasId = m.id, m.hasId
		e.state = m.state
		e.values = m.values
		e.changed = m.changed
		return
	}
	e.state = success
	e.changed = map[string]struct{}{}
	if success == Deleted {
		e.id, e.hasId = "", false
	}
}

func (e *Entity) begin(op string, allowed func(State) bool) (*memento, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !allowed(e.state) {
		return nil, &StateError{Kind: e.kind.Name(), Op: op, State: e.state}
	}
	return e.enterPending(), nil
}

// fanOut calls all providers concurrently and waits all of them.
func (e *Entity) fanOut(ctx context.Context, call func(context.Context, Provider) error) error {
	if len(e.kind.providers) == 0 {
		return fmt.Errorf("%w: %s", ErrNoProvider, e.kind.Name())
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range e.kind.providers {
		g.Go(func() error { return call(gctx, p) })
	}
	return g.Wait()
}

// Create sends the new entity to the server.
//
// It is allowed only in Creating. On success, the entity gets its id and
// becomes Saved. On failure, it returns to Creating and the error is returned.
func (e *Entity) Create(ctx context.Context) error {
	m, err := e.begin("create", func(s State) bool { return s == Creating })
	if err != nil {
		return err
	}
	err = e.fanOut(ctx, func(ctx context.Context, p Provider) error {
		return p.CreateEntity(ctx, e)
	})
	e.settle(m, err, Saved)
	return err
}

// Update sends changed properties to the server.
//
// In Saved or Loaded, it does nothing and no request is sent.
// In Changed, the entity becomes Saved on success.
// On failure, it returns to Changed and the error is returned.
// Other states are refused.
func (e *Entity) Update(ctx context.Context) error {
	e.mu.Lock()
	if e.state.Clean() {
		e.mu.Unlock()
		return nil
	}
	if e.state != Changed {
		err := &StateError{Kind: e.kind.Name(), Op: "update", State: e.state}
		e.mu.Unlock()
		return err
	}
	m := e.enterPending()
	e.mu.Unlock()

	err := e.fanOut(ctx, func(ctx context.Context, p Provider) error {
		return p.UpdateEntity(ctx, e)
	})
	e.settle(m, err, Saved)
	return err
}

// Delete removes the entity from the server.
//
// It is allowed in Saved, Loaded, Changed and Found.
// On success, the entity becomes Deleted and loses its id.
func (e *Entity) Delete(ctx context.Context) error {
	return e.delete(ctx, "delete", DeleteOptions{})
}

// ForceDelete is Delete asking the server to bypass its deletion guards.
//
// The force flag is given to providers for this call only.
func (e *Entity) ForceDelete(ctx context.Context) error {
	return e.delete(ctx, "force delete", DeleteOptions{Force: true})
}

func (e *Entity) delete(ctx context.Context, op string, opts DeleteOptions) error {
	m, err := e.begin(op, State.deletable)
	if err != nil {
		return err
	}
	err = e.fanOut(ctx, func(ctx context.Context, p Provider) error {
		return p.DeleteEntity(ctx, e, opts)
	})
	e.settle(m, err, Deleted)
	return err
}

func (e *Entity) String() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.hasId {
		return fmt.Sprintf("%s#%s (%s)", e.kind.Name(), e.id, e.state)
	}
	return fmt.Sprintf("%s#<new> (%s)", e.kind.Name(), e.state)
}
