// Package try shortens handling of (value, error) pairs in tests and main functions.
//
//	sess := try.To(session.New(prof)).OrFatal(t)
package try

// Fataler stops the program or the test. *testing.T and *log.Logger are Fatalers.
type Fataler interface {
	Fatal(...any)
}

// Either is a result of a function: a value, or an error.
type Either[T any] struct {
	value T
	err   error
}

// To captures results of a function.
func To[T any](value T, err error) Either[T] {
	if err != nil {
		return Either[T]{err: err}
	}
	return Either[T]{value: value}
}

// Get returns the value and the error. The value is zero when the error is not nil.
func (e Either[T]) Get() (T, error) {
	return e.value, e.err
}

// OrFatal returns the value, or calls ftl.Fatal with the error.
//
// When ftl has Helper (like *testing.T), it is called before Fatal.
func (e Either[T]) OrFatal(ftl Fataler) T {
	if e.err == nil {
		return e.value
	}
	if h, ok := ftl.(interface{ Helper() }); ok {
		h.Helper()
	}
	ftl.Fatal(e.err)
	return e.value
}

// OrDefault returns the value, or d when there is an error.
func (e Either[T]) OrDefault(d T) T {
	if e.err != nil {
		return d
	}
	return e.value
}

// Map converts the value. Errors pass through.
func Map[T any, R any](e Either[T], mapper func(T) R) Either[R] {
	if e.err != nil {
		return Either[R]{err: e.err}
	}
	return Either[R]{value: mapper(e.value)}
}
