// Package list keeps lists of entities shown on screens.
//
// Loader fetches a list when its filter changes.
// Editor reflects changes of single items on the list without fetching it again.
// Sidebar is an Editor with a form for the selected item.
package list

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/opst/sciportal/pkg/entity"
	"github.com/opst/sciportal/pkg/logger"
)

// ErrLoading is returned when the list is being fetched.
var ErrLoading = errors.New("list is being fetched")

// State of a list.
type State[T entity.Model] struct {
	// Loading is true while fetching.
	Loading bool

	// Items are entities on the list.
	Items []T

	// Page is the page of the list, if the server paginates it.
	Page *entity.Page[T]

	// Err is the cause of the last failure of fetching.
	Err error
}

// Fingerprint identifies a filter.
//
// Filters with the same keys and values have the same fingerprint.
func Fingerprint(params entity.SearchParams) (string, error) {
	if params == nil {
		params = entity.SearchParams{}
	}
	// encoding/json sorts keys of maps.
	buf, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("filter cannot be identified: %w", err)
	}
	return string(buf), nil
}

// Loader fetches a list of entities matching to its filter.
type Loader[T entity.Model] struct {
	class   *entity.Class[T]
	filter  func() entity.SearchParams
	channel Channel
	logger  *log.Logger

	mu          sync.Mutex
	state       State[T]
	fingerprint string
	synced      bool
	observers   []func(State[T])
}

type Option[T entity.Model] func(*Loader[T]) *Loader[T]

// WithChannel publishes loading events to ch.
func WithChannel[T entity.Model](ch Channel) Option[T] {
	return func(l *Loader[T]) *Loader[T] {
		l.channel = ch
		return l
	}
}

func WithLogger[T entity.Model](lg *log.Logger) Option[T] {
	return func(l *Loader[T]) *Loader[T] {
		l.logger = lg
		return l
	}
}

// NewLoader creates a Loader.
//
// # Args
//
// - class: class of entities on the list.
//
// - filter: returns search parameters. It is called on each Sync.
//
// - opts: options.
func NewLoader[T entity.Model](class *entity.Class[T], filter func() entity.SearchParams, opts ...Option[T]) *Loader[T] {
	l := &Loader[T]{
		class:  class,
		filter: filter,
		logger: logger.Null(),
	}
	for _, o := range opts {
		l = o(l)
	}
	return l
}

// OnChange registers an observer called with a new State after each change.
func (l *Loader[T]) OnChange(observer func(State[T])) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, observer)
}

// State returns the current State.
func (l *Loader[T]) State() State[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

// l.mu should be locked.
func (l *Loader[T]) snapshot() State[T] {
	s := l.state
	s.Items = slices.Clone(s.Items)
	return s
}

func (l *Loader[T]) update(mutate func(*State[T])) {
	l.mu.Lock()
	mutate(&l.state)
	s := l.snapshot()
	observers := slices.Clone(l.observers)
	l.mu.Unlock()

	for _, o := range observers {
		o(s)
	}
}

func (l *Loader[T]) publish(m Message) {
	if l.channel == nil {
		return
	}
	m.Kind = l.class.Name()
	l.channel.Publish(m)
}

// ReportListFetching marks the list loading.
func (l *Loader[T]) ReportListFetching() {
	l.update(func(s *State[T]) {
		s.Loading = true
		s.Err = nil
	})
	l.publish(Message{Event: EventFetchStarted})
}

// ReportFetchSuccess replaces the list with a fetched one.
func (l *Loader[T]) ReportFetchSuccess(listing entity.Listing[T]) {
	l.update(func(s *State[T]) {
		s.Loading = false
		s.Err = nil
		s.Items = listing.Items()
		s.Page = nil
		if p, ok := listing.(*entity.Page[T]); ok {
			s.Page = p
		}
	})
	l.publish(Message{Event: EventFetchSucceeded, Count: listing.Len()})
}

// ReportFetchFailure records the failure of fetching. Items are kept.
func (l *Loader[T]) ReportFetchFailure(err error) {
	l.logger.Printf("fetching %s failed: %s", l.class.Name(), err)
	l.update(func(s *State[T]) {
		s.Loading = false
		s.Err = err
	})
	l.publish(Message{Event: EventFetchFailed, Err: err})
}

// Sync fetches the list when the fingerprint of the filter is changed
// and no fetch is running.
//
// # Returns
//
// - bool: true if fetched.
//
// - error: error on fetching. It is also recorded in the State.
func (l *Loader[T]) Sync(ctx context.Context) (bool, error) {
	params := l.filter()
	fp, err := Fingerprint(params)
	if err != nil {
		return false, err
	}

	l.mu.Lock()
	if l.state.Loading || (l.synced && fp == l.fingerprint) {
		l.mu.Unlock()
		return false, nil
	}
	l.fingerprint = fp
	l.synced = true
	l.state.Loading = true
	l.mu.Unlock()

	return true, l.fetch(ctx, params)
}

// Reload fetches the list regardless of the filter.
//
// It returns ErrLoading when a fetch is running.
func (l *Loader[T]) Reload(ctx context.Context) error {
	params := l.filter()
	fp, err := Fingerprint(params)
	if err != nil {
		return err
	}
	l.mu.Lock()
	if l.state.Loading {
		l.mu.Unlock()
		return ErrLoading
	}
	l.fingerprint = fp
	l.synced = true
	l.state.Loading = true
	l.mu.Unlock()
	return l.fetch(ctx, params)
}

func (l *Loader[T]) fetch(ctx context.Context, params entity.SearchParams) error {
	l.ReportListFetching()
	listing, err := l.class.Find(ctx, params)
	if err != nil {
		l.ReportFetchFailure(err)
		return err
	}
	l.ReportFetchSuccess(listing)
	return nil
}
