package common

import (
	"context"
	"errors"
	"fmt"
	"log"

	kerr "github.com/opst/sciportal/cmd/portal/errors"
	"github.com/opst/sciportal/pkg/configs/profiles"
	"github.com/opst/sciportal/pkg/dialog"
	"github.com/opst/sciportal/pkg/logger"
	"github.com/opst/sciportal/pkg/session"
	"github.com/youta-t/flarc"
)

type TaskWithCommonFlag[T any] func(
	ctx context.Context,
	logger *log.Logger,
	commonFlag CommonFlags,
	cl flarc.Commandline[T],
	params []any,
) error

func NewTaskWithCommonFlag[T any](task TaskWithCommonFlag[T]) flarc.Task[T] {
	return func(ctx context.Context, cl flarc.Commandline[T], pos []any) error {
		var commonFlag CommonFlags
		found := false
		newpos := make([]any, 0, len(pos))
		for _, p := range pos {
			switch v := p.(type) {
			case CommonFlags:
				found = true
				commonFlag = v
			default:
				newpos = append(newpos, p)
			}
		}
		if !found {
			return errors.New("programming error: common flags not found")
		}

		logger := log.New(cl.Stderr(), "", log.LstdFlags)
		logger.SetPrefix(fmt.Sprintf("[%s] ", cl.Fullname()))

		err := task(ctx, logger, commonFlag, cl, newpos)
		err = kerr.Present(err)
		if ce := kerr.CUIError(nil); commonFlag.Verbose && errors.As(err, &ce) {
			logger.Println(ce.Verbose())
		}
		return err
	}
}

// Task is a command working in a session.
type Task[T any] func(
	ctx context.Context,
	logger *log.Logger,
	sess *session.Session,
	cl flarc.Commandline[T],
	params []any,
) error

// NewTask starts a session with the profile for task.
//
// Dialogs of the session are answered on the terminal of the command.
func NewTask[T any](task Task[T]) flarc.Task[T] {
	return NewTaskWithCommonFlag(func(
		ctx context.Context,
		l *log.Logger,
		commonFlag CommonFlags,
		cl flarc.Commandline[T],
		params []any,
	) error {
		prof, err := LoadProfile(commonFlag)
		if err != nil {
			return err
		}

		opts := []session.Option{}
		if commonFlag.Verbose {
			opts = append(opts, session.WithLogger(logger.Named(l, "session")))
		}
		sess, err := session.New(prof, opts...)
		if err != nil {
			return kerr.NewCuiError(
				fmt.Sprintf("profile '%s' in %s may be broken", commonFlag.Profile, commonFlag.ProfileStore),
				kerr.WithAdvice("Remove it and try `portal init` again."),
				kerr.WithCause(err),
			)
		}
		defer sess.Close()

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go dialog.Serve(ctx, sess.Dialogs, dialog.Terminal(cl.Stdin(), cl.Stderr()))

		return task(ctx, l, sess, cl, params)
	})
}

// LoadProfile reads the profile named by common flags.
func LoadProfile(commonFlag CommonFlags) (*profiles.Profile, error) {
	store, err := profiles.Load(commonFlag.ProfileStore)
	if err != nil {
		if errors.Is(err, profiles.ErrStoreNotFound) {
			return nil, kerr.NewCuiError(
				fmt.Sprintf("profile store (%s) is not found", commonFlag.ProfileStore),
				kerr.WithAdvice("Try `portal init` first."),
				kerr.WithCause(err),
			)
		}
		return nil, fmt.Errorf("%w: failed to load profile store (%s)", err, commonFlag.ProfileStore)
	}
	prof, err := store.Get(commonFlag.Profile)
	if err != nil {
		return nil, kerr.NewCuiError(
			fmt.Sprintf("profile '%s' is not found in %s", commonFlag.Profile, commonFlag.ProfileStore),
			kerr.WithAdvice("Try `portal init` first."),
			kerr.WithCause(err),
		)
	}
	return prof, nil
}
