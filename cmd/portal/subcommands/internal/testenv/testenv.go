// Package testenv starts sessions against the fake backend for command tests.
package testenv

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/opst/sciportal/pkg/backend/fake"
	"github.com/opst/sciportal/pkg/configs/profiles"
	"github.com/opst/sciportal/pkg/dialog"
	"github.com/opst/sciportal/pkg/session"
	"github.com/opst/sciportal/pkg/utils/try"
)

// Start runs the fake backend and starts a session logged in as admin.
//
// Dialogs of the session are answered with answer. nil refuses all.
func Start(t *testing.T, conf fake.Config, answer func(dialog.Request) dialog.Outcome) (*fake.Server, *session.Session) {
	t.Helper()
	if conf.Secret == "" {
		conf.Secret = "test"
	}
	backend := fake.New(conf)
	server := httptest.NewServer(backend.Handler())
	t.Cleanup(server.Close)

	prof := &profiles.Profile{
		Origin: server.URL,
		Token:  try.To(backend.IssueToken("1", "admin", time.Hour)).OrFatal(t),
	}
	sess := try.To(session.New(prof)).OrFatal(t)
	t.Cleanup(sess.Close)

	if answer == nil {
		answer = dialog.Always(dialog.Outcome{})
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go dialog.Serve(ctx, sess.Dialogs, answer)

	return backend, sess
}
