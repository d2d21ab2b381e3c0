// Package dialog passes modal dialogs from controllers to the presentation.
//
// A controller opens a dialog and waits for the outcome.
// The presentation receives pending dialogs from Requests and resolves each.
package dialog

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrClosed is returned when the manager is closed while dialogs are open.
	ErrClosed = errors.New("dialog manager is closed")
)

type Kind int

const (
	// Confirm asks yes or no.
	Confirm Kind = iota

	// Alert tells something. Outcomes of alerts are always confirmed.
	Alert

	// Prompt asks a text.
	Prompt
)

type Request struct {
	Kind    Kind
	Title   string
	Message string

	// Default is the initial text of prompts.
	Default string
}

type Outcome struct {
	// Confirmed is true when the user accepted the dialog.
	Confirmed bool

	// Value is the text answered to prompts.
	Value string
}

// Pending is an open dialog waiting for the outcome.
type Pending struct {
	Request

	once  sync.Once
	reply chan Outcome
}

// Resolve answers the dialog. Only the first call takes effect.
//
// It reports whether this call resolves the dialog.
func (p *Pending) Resolve(o Outcome) bool {
	resolved := false
	p.once.Do(func() {
		p.reply <- o
		resolved = true
	})
	return resolved
}

// Accept is Resolve with a confirmed outcome.
func (p *Pending) Accept(value string) bool {
	return p.Resolve(Outcome{Confirmed: true, Value: value})
}

// Dismiss is Resolve with a not confirmed outcome.
func (p *Pending) Dismiss() bool {
	return p.Resolve(Outcome{})
}

// Confirmer asks the user to confirm.
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// Manager is a channel of dialogs.
type Manager struct {
	mu       sync.RWMutex
	closed   bool
	requests chan *Pending
	done     chan struct{}
	closing  sync.Once
}

var _ Confirmer = &Manager{}

func NewManager() *Manager {
	return &Manager{
		requests: make(chan *Pending),
		done:     make(chan struct{}),
	}
}

// Requests returns the channel of opened dialogs. It is closed on Close.
func (m *Manager) Requests() <-chan *Pending {
	return m.requests
}

// Open opens a dialog and waits the outcome.
//
// # Returns
//
// - Outcome: the answer.
//
// - error: ErrClosed when the manager is closed, or ctx.Err() on cancellation.
func (m *Manager) Open(ctx context.Context, req Request) (Outcome, error) {
	p := &Pending{Request: req, reply: make(chan Outcome, 1)}

	if err := m.send(ctx, p); err != nil {
		return Outcome{}, err
	}

	select {
	case o := <-p.reply:
		return o, nil
	case <-m.done:
		return Outcome{}, ErrClosed
	case <-ctx.Done():
		p.Dismiss()
		return Outcome{}, ctx.Err()
	}
}

func (m *Manager) send(ctx context.Context, p *Pending) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	select {
	case m.requests <- p:
		return nil
	case <-m.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Confirm opens a confirmation dialog and reports it is accepted.
func (m *Manager) Confirm(ctx context.Context, message string) (bool, error) {
	o, err := m.Open(ctx, Request{Kind: Confirm, Message: message})
	if err != nil {
		return false, err
	}
	return o.Confirmed, nil
}

// Close rejects open dialogs with ErrClosed and closes Requests.
//
// It is safe to call Close more than once.
func (m *Manager) Close() {
	m.closing.Do(func() {
		close(m.done)

		m.mu.Lock()
		defer m.mu.Unlock()
		m.closed = true
		close(m.requests)
	})
}
