// Package filewatch cancels contexts on file changes.
package filewatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// ErrModified is the cause of contexts canceled by file changes.
var ErrModified = errors.New("watched file is modified")

// UntilModified returns a context canceled when one of paths is written, created, removed or renamed.
//
// The cause of the cancellation wraps ErrModified and tells which file is changed.
// Changes of permission are ignored.
//
// When paths are directories, changes of files in them are watched.
//
// # Returns
//
// - context.Context: the context.
//
// - context.CancelFunc: stops watching and cancels the context.
//
// - error: when it fails to watch paths. Then, the context and the cancel func are nil.
func UntilModified(ctx context.Context, paths ...string) (context.Context, context.CancelFunc, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	for _, p := range paths {
		if err := w.Add(p); err != nil {
			w.Close()
			return nil, nil, err
		}
	}

	cctx, cancel := context.WithCancelCause(ctx)
	go func() {
		defer w.Close()
		for {
			select {
			case <-cctx.Done():
				return
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				cancel(err)
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op == fsnotify.Chmod {
					continue
				}
				cancel(fmt.Errorf("%w: %s (%s)", ErrModified, ev.Name, ev.Op))
				return
			}
		}
	}()
	return cctx, func() { cancel(nil) }, nil
}
