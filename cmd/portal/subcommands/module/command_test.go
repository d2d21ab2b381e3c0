package module_test

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/opst/sciportal/cmd/portal/subcommands/internal/commandline"
	"github.com/opst/sciportal/cmd/portal/subcommands/internal/testenv"
	"github.com/opst/sciportal/cmd/portal/subcommands/module"
	"github.com/opst/sciportal/pkg/backend/fake"
	"github.com/opst/sciportal/pkg/logger"
	"github.com/youta-t/flarc"
)

func TestParseSetting(t *testing.T) {
	type then struct {
		key   string
		value any
		err   error
	}
	theory := func(when string, then then) func(*testing.T) {
		return func(t *testing.T) {
			key, value, err := module.ParseSetting(when)
			if then.err != nil {
				if !errors.Is(err, then.err) {
					t.Errorf("error: %v, want %v", err, then.err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if key != then.key || !reflect.DeepEqual(value, then.value) {
				t.Errorf("(%s, %#v), want (%s, %#v)", key, value, then.key, then.value)
			}
		}
	}

	t.Run("number", theory("threshold=20", then{key: "threshold", value: float64(20)}))
	t.Run("boolean", theory("strict=true", then{key: "strict", value: true}))
	t.Run("list", theory(`labels=["a","b"]`, then{key: "labels", value: []any{"a", "b"}}))
	t.Run("text", theory("label=cells", then{key: "label", value: "cells"}))
	t.Run("text with =", theory("expr=a=b", then{key: "expr", value: "a=b"}))
	t.Run("empty value", theory("label=", then{key: "label", value: ""}))
	t.Run("no =", theory("label", then{err: flarc.ErrUsage}))
	t.Run("no key", theory("=value", then{err: flarc.ErrUsage}))
}

func TestSet(t *testing.T) {
	ctx := context.Background()

	t.Run("it updates settings through the settings endpoint", func(t *testing.T) {
		backend, sess := testenv.Start(t, fake.DefaultConfig(), nil)
		stdout := new(strings.Builder)
		err := module.Set(
			ctx, logger.Null(), sess,
			&commandline.MockCommandline[module.SetFlags]{
				Stdout_: stdout,
				Args_: map[string][]string{
					module.ARG_MODULE:  {"imaging"},
					module.ARG_SETTING: {"threshold=20", "label=cells"},
				},
			},
			nil,
		)
		if err != nil {
			t.Fatal(err)
		}
		if n := backend.Requests()["PATCH /api/v1/core/modules/1/settings/"]; n != 1 {
			t.Errorf("settings are sent %d times", n)
		}

		m, err := sess.Catalog.Modules.Get(ctx, "imaging")
		if err != nil {
			t.Fatal(err)
		}
		want := map[string]any{"threshold": float64(20), "label": "cells"}
		if got := m.Settings(); !reflect.DeepEqual(got, want) {
			t.Errorf("settings: %#v, want %#v", got, want)
		}
		if current, err := sess.Module(); err != nil || current.Id() != "1" {
			t.Errorf("current module: %v, %v", current, err)
		}
	})

	t.Run("it disables the module", func(t *testing.T) {
		_, sess := testenv.Start(t, fake.DefaultConfig(), nil)
		stdout := new(strings.Builder)
		err := module.Set(
			ctx, logger.Null(), sess,
			&commandline.MockCommandline[module.SetFlags]{
				Stdout_: stdout,
				Flags_:  module.SetFlags{Disable: true},
				Args_:   map[string][]string{module.ARG_MODULE: {"imaging"}},
			},
			nil,
		)
		if err != nil {
			t.Fatal(err)
		}
		actual := map[string]any{}
		if err := json.Unmarshal([]byte(stdout.String()), &actual); err != nil {
			t.Fatal(err)
		}
		if actual["is_enabled"] != false {
			t.Errorf("unexpected output: %+v", actual)
		}
	})

	t.Run("--enable and --disable are exclusive", func(t *testing.T) {
		backend, sess := testenv.Start(t, fake.DefaultConfig(), nil)
		err := module.Set(
			ctx, logger.Null(), sess,
			&commandline.MockCommandline[module.SetFlags]{
				Stdout_: new(strings.Builder),
				Flags_:  module.SetFlags{Enable: true, Disable: true},
				Args_:   map[string][]string{module.ARG_MODULE: {"imaging"}},
			},
			nil,
		)
		if !errors.Is(err, flarc.ErrUsage) {
			t.Errorf("unexpected error: %v", err)
		}
		if n := backend.RequestCount(); n != 0 {
			t.Errorf("%d requests are sent", n)
		}
	})
}
