package entity

import "fmt"

// State is a lifecycle state of an Entity.
//
//	creating --Create--> pending --> saved
//	saved/loaded --Set--> changed --Update--> pending --> saved
//	saved/loaded/changed/found --Delete--> pending --> deleted
//
// Failures in pending roll the entity back to the state before the operation.
type State int

const (
	// a new entity, not sent to the server yet.
	Creating State = iota

	// a network operation is in flight.
	Pending

	// matches the server after Create or Update.
	Saved

	// matches the server after Get.
	Loaded

	// has properties changed since it is saved or loaded.
	Changed

	// a read-only snapshot from a list query.
	Found

	// removed from the server. Terminal.
	Deleted
)

func (s State) String() string {
	switch s {
	case Creating:
		return "creating"
	case Pending:
		return "pending"
	case Saved:
		return "saved"
	case Loaded:
		return "loaded"
	case Changed:
		return "changed"
	case Found:
		return "found"
	case Deleted:
		return "deleted"
	default:
		return fmt.Sprintf("unknown (%d)", int(s))
	}
}

// Writable reports properties can be written in the state.
func (s State) Writable() bool {
	switch s {
	case Creating, Saved, Loaded, Changed:
		return true
	}
	return false
}

// Clean reports the entity in the state matches the server.
func (s State) Clean() bool {
	return s == Saved || s == Loaded
}

func (s State) deletable() bool {
	switch s {
	case Saved, Loaded, Changed, Found:
		return true
	}
	return false
}

// afterWrite is the state after a property is written in s.
func (s State) afterWrite() State {
	if s.Clean() {
		return Changed
	}
	return s
}
