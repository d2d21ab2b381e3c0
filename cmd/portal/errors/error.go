// Package errors presents errors on the command line.
package errors

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/opst/sciportal/pkg/entity"
	"github.com/opst/sciportal/pkg/entity/field"
	"github.com/opst/sciportal/pkg/rest"
)

type Verbose interface {
	Verbose() string
}

// CUIError is an error for humans: a summary, an advice and its cause.
type CUIError interface {
	error
	Verbose
}

type cuierror struct {
	summary string
	advice  string
	verbose string
	base    error
}

func (ce *cuierror) Unwrap() error {
	return ce.base
}

func (ce *cuierror) Error() string {
	if ce.advice == "" {
		return ce.summary
	}
	return ce.summary + "\n" + ce.advice
}

func (ce *cuierror) Verbose() string {
	message := []string{ce.Error()}
	if ce.verbose != "" {
		message = append(message, " ("+ce.verbose+") ")
	}

	switch base := ce.base.(type) {
	case nil:
	case Verbose:
		message = append(message, "caused by: ", base.Verbose())
	default:
		message = append(message, "caused by: ", base.Error())
	}
	return strings.Join(message, "\n")
}

type CuiErrorOption func(cerr *cuierror) *cuierror

func NewCuiError(summary string, options ...CuiErrorOption) CUIError {
	err := &cuierror{summary: summary}
	for _, o := range options {
		err = o(err)
	}
	return err
}

func WithAdvice(advice string) CuiErrorOption {
	return func(cerr *cuierror) *cuierror {
		cerr.advice = advice
		return cerr
	}
}

func WithVerbose(verbose string) CuiErrorOption {
	return func(cerr *cuierror) *cuierror {
		cerr.verbose = verbose
		return cerr
	}
}

func WithCause(err error) CuiErrorOption {
	return func(cerr *cuierror) *cuierror {
		cerr.base = err
		return cerr
	}
}

// Present converts err into CUIError telling what the user can do.
//
// nil and CUIError are returned as they are.
func Present(err error) error {
	if err == nil {
		return nil
	}
	if ce := CUIError(nil); errors.As(err, &ce) {
		return err
	}

	if ve, ok := field.AsValidationError(err); ok {
		summary := ve.Message
		if ve.Field != "" {
			summary = fmt.Sprintf("%s: %s", ve.Field, ve.Message)
		}
		return NewCuiError(summary, WithCause(err))
	}

	if he, ok := rest.AsHttpError(err); ok {
		summary := he.Reason
		if summary == "" {
			summary = fmt.Sprintf("server responded with status %d", he.Status)
		}
		if fe := he.FieldErrors(); 0 < len(fe) {
			lines := []string{summary}
			for _, k := range slices.Sorted(maps.Keys(fe)) {
				lines = append(lines, fmt.Sprintf("  %s: %s", k, fe[k]))
			}
			summary = strings.Join(lines, "\n")
		}

		advice := he.Advice
		switch {
		case advice != "":
		case errors.Is(err, rest.ErrUnauthorized):
			advice = "Try `portal login` again."
		case errors.Is(err, rest.ErrNotFound):
			advice = "Check the id, or find it with `find` subcommands."
		}
		return NewCuiError(summary, WithAdvice(advice), WithCause(err))
	}

	if errors.Is(err, entity.ErrEntityState) {
		return NewCuiError(
			"the operation is not allowed now",
			WithVerbose("this is a bug. please report it"),
			WithCause(err),
		)
	}
	return err
}
