package group_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/opst/sciportal/cmd/portal/subcommands/group"
	"github.com/opst/sciportal/cmd/portal/subcommands/internal/commandline"
	"github.com/opst/sciportal/cmd/portal/subcommands/internal/testenv"
	"github.com/opst/sciportal/pkg/backend/fake"
	"github.com/opst/sciportal/pkg/dialog"
	"github.com/opst/sciportal/pkg/logger"
	"github.com/youta-t/flarc"
)

func TestCreate(t *testing.T) {
	ctx := context.Background()
	backend, sess := testenv.Start(t, fake.DefaultConfig(), nil)

	stdout := new(strings.Builder)
	err := group.Create(
		ctx, logger.Null(), sess,
		&commandline.MockCommandline[group.Flags]{
			Fullname_: "portal group create",
			Stdout_:   stdout,
			Flags_:    group.Flags{Name: "Lab B", Governor: "2"},
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
	if actual["id"] != "2" || actual["name"] != "Lab B" || actual["governor"] != "2" {
		t.Errorf("unexpected output: %+v", actual)
	}
	if n := backend.Requests()["POST /api/v1/core/groups/"]; n != 1 {
		t.Errorf("POST is sent %d times", n)
	}
}

func TestCreate_Rejected(t *testing.T) {
	ctx := context.Background()
	backend, sess := testenv.Start(t, fake.DefaultConfig(), nil)

	err := group.Create(
		ctx, logger.Null(), sess,
		&commandline.MockCommandline[group.Flags]{
			Stdout_: new(strings.Builder),
			Flags_:  group.Flags{Name: strings.Repeat("x", 300)},
		},
		nil,
	)
	if err == nil {
		t.Fatal("too long name is accepted")
	}
	if !strings.Contains(err.Error(), "--name") {
		t.Errorf("error does not tell the field: %s", err)
	}
	if n := backend.Requests()["POST /api/v1/core/groups/"]; n != 0 {
		t.Errorf("POST is sent %d times", n)
	}
}

func TestEdit(t *testing.T) {
	ctx := context.Background()

	t.Run("it changes only given flags", func(t *testing.T) {
		_, sess := testenv.Start(t, fake.DefaultConfig(), nil)
		stdout := new(strings.Builder)
		err := group.Edit(
			ctx, logger.Null(), sess,
			&commandline.MockCommandline[group.Flags]{
				Stdout_: stdout,
				Flags_:  group.Flags{Description: "edited"},
				Args_:   map[string][]string{group.ARG_GROUP: {"1"}},
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
		if actual["name"] != "Lab A" || actual["description"] != "edited" {
			t.Errorf("unexpected output: %+v", actual)
		}
	})

	t.Run("it is usage error without flags", func(t *testing.T) {
		backend, sess := testenv.Start(t, fake.DefaultConfig(), nil)
		err := group.Edit(
			ctx, logger.Null(), sess,
			&commandline.MockCommandline[group.Flags]{
				Stdout_: new(strings.Builder),
				Args_:   map[string][]string{group.ARG_GROUP: {"1"}},
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

	t.Run("it fails for missing group", func(t *testing.T) {
		_, sess := testenv.Start(t, fake.DefaultConfig(), nil)
		err := group.Edit(
			ctx, logger.Null(), sess,
			&commandline.MockCommandline[group.Flags]{
				Stdout_: new(strings.Builder),
				Flags_:  group.Flags{Name: "new"},
				Args_:   map[string][]string{group.ARG_GROUP: {"99"}},
			},
			nil,
		)
		if err == nil {
			t.Error("no error for missing group")
		}
	})
}

func TestFind(t *testing.T) {
	ctx := context.Background()

	conf := fake.DefaultConfig()
	conf.PageSize = 2
	for n := 2; n <= 5; n++ {
		conf.Data["core/groups"] = append(conf.Data["core/groups"], map[string]any{
			"id": n, "name": fmt.Sprintf("Lab %d", n), "governor": n % 2,
		})
	}

	type when struct {
		flags group.FindFlags
	}
	type then struct {
		names []string
	}
	theory := func(when when, then then) func(*testing.T) {
		return func(t *testing.T) {
			_, sess := testenv.Start(t, conf, nil)
			stdout := new(strings.Builder)
			err := group.Find(
				ctx, logger.Null(), sess,
				&commandline.MockCommandline[group.FindFlags]{Stdout_: stdout, Flags_: when.flags},
				nil,
			)
			if err != nil {
				t.Fatal(err)
			}
			actual := []map[string]any{}
			if err := json.Unmarshal([]byte(stdout.String()), &actual); err != nil {
				t.Fatal(err)
			}
			names := []string{}
			for _, g := range actual {
				names = append(names, fmt.Sprint(g["name"]))
			}
			if strings.Join(names, ",") != strings.Join(then.names, ",") {
				t.Errorf("names: %v, want %v", names, then.names)
			}
		}
	}

	t.Run("all pages", theory(
		when{flags: group.FindFlags{}},
		then{names: []string{"Lab A", "Lab 2", "Lab 3", "Lab 4", "Lab 5"}},
	))
	t.Run("limited pages", theory(
		when{flags: group.FindFlags{Pages: 2}},
		then{names: []string{"Lab A", "Lab 2", "Lab 3", "Lab 4"}},
	))
	t.Run("by governor", theory(
		when{flags: group.FindFlags{Governor: "0"}},
		then{names: []string{"Lab 2", "Lab 4"}},
	))
	t.Run("nothing matches", theory(
		when{flags: group.FindFlags{Name: "Lab Z"}},
		then{names: []string{}},
	))
}

func TestRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("it deletes the group and projects after confirmations", func(t *testing.T) {
		asked := []string{}
		backend, sess := testenv.Start(t, fake.DefaultConfig(), func(r dialog.Request) dialog.Outcome {
			asked = append(asked, r.Message)
			return dialog.Outcome{Confirmed: true}
		})
		err := group.Remove(
			ctx, logger.Null(), sess,
			&commandline.MockCommandline[struct{}]{Args_: map[string][]string{group.ARG_GROUP: {"1"}}},
			nil,
		)
		if err != nil {
			t.Fatal(err)
		}
		if len(asked) != 2 {
			t.Errorf("confirmations: %v", asked)
		}
		if n := backend.Requests()["DELETE /api/v1/core/groups/1/"]; n != 2 {
			t.Errorf("DELETE is sent %d times", n)
		}
		if _, err := sess.Catalog.Projects.Get(ctx, "imaging"); err == nil {
			t.Error("project of the group remains")
		}
	})

	t.Run("it does nothing when cancelled", func(t *testing.T) {
		backend, sess := testenv.Start(t, fake.DefaultConfig(), nil)
		err := group.Remove(
			ctx, logger.Null(), sess,
			&commandline.MockCommandline[struct{}]{Args_: map[string][]string{group.ARG_GROUP: {"1"}}},
			nil,
		)
		if err != nil {
			t.Fatal(err)
		}
		if n := backend.Requests()["DELETE /api/v1/core/groups/1/"]; n != 0 {
			t.Errorf("DELETE is sent %d times", n)
		}
	})
}
