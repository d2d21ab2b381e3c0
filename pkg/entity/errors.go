package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrEntityState is returned when an operation is not allowed in the current state.
	ErrEntityState = errors.New("operation is not allowed in the entity state")

	// ErrReadOnlyProperty is returned when a read-only property is written.
	ErrReadOnlyProperty = errors.New("property is read-only")

	// ErrEntityProperty is returned when an unknown property is given.
	ErrEntityProperty = errors.New("no such property")

	// ErrPageRange is returned when a page beyond the first or the last is requested.
	ErrPageRange = errors.New("page out of range")

	// ErrNoProvider is returned when a kind has no provider for the operation.
	ErrNoProvider = errors.New("no provider")
)

// StateError tells which operation is refused in which state.
type StateError struct {
	Kind  string
	Op    string
	State State
}

func (se *StateError) Error() string {
	return fmt.Sprintf(
		"%s: %s on %s in state %q", ErrEntityState, se.Op, se.Kind, se.State,
	)
}

func (se *StateError) Unwrap() error {
	return ErrEntityState
}

func readOnlyProperty(kind string, name string) error {
	return fmt.Errorf("%w: %s.%s", ErrReadOnlyProperty, kind, name)
}

func unknownProperty(kind string, name string) error {
	return fmt.Errorf("%w: %s.%s", ErrEntityProperty, kind, name)
}
