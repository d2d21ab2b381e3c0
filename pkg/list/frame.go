package list

import (
	"fmt"
	"sync"
)

// Event is a kind of loading event of a list.
type Event int

const (
	EventFetchStarted Event = iota + 1
	EventFetchSucceeded
	EventFetchFailed
)

func (e Event) String() string {
	switch e {
	case EventFetchStarted:
		return "fetch-started"
	case EventFetchSucceeded:
		return "fetch-succeeded"
	case EventFetchFailed:
		return "fetch-failed"
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

// Message tells a host how loading of a list goes.
type Message struct {
	Event Event

	// Kind is the name of the kind of the list.
	Kind string

	// Count is the number of items loaded. Set with EventFetchSucceeded.
	Count int

	// Err is the cause of EventFetchFailed.
	Err error
}

// Channel takes messages from a Loader.
type Channel interface {
	Publish(Message)
}

// ChannelFunc is a function as a Channel.
type ChannelFunc func(Message)

func (f ChannelFunc) Publish(m Message) {
	f(m)
}

// Frame passes messages of loaders embedded in a host.
//
// Frame does not block publishers.
// When the host does not receive, the oldest message is dropped.
type Frame struct {
	mu     sync.Mutex
	events chan Message
	closed bool
}

var _ Channel = &Frame{}

// NewFrame creates a Frame keeping messages up to buffer.
func NewFrame(buffer int) *Frame {
	if buffer < 1 {
		buffer = 1
	}
	return &Frame{events: make(chan Message, buffer)}
}

// Events returns the channel of messages. It is closed by Close.
func (f *Frame) Events() <-chan Message {
	return f.events
}

func (f *Frame) Publish(m Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	for {
		select {
		case f.events <- m:
			return
		default:
		}
		select {
		case <-f.events:
		default:
		}
	}
}

// Close stops the frame. Later messages are discarded.
func (f *Frame) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	close(f.events)
}
