package project_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/opst/sciportal/cmd/portal/subcommands/internal/commandline"
	"github.com/opst/sciportal/cmd/portal/subcommands/internal/testenv"
	"github.com/opst/sciportal/cmd/portal/subcommands/project"
	"github.com/opst/sciportal/pkg/backend/fake"
	"github.com/opst/sciportal/pkg/dialog"
	"github.com/opst/sciportal/pkg/logger"
)

func TestCreateAndShow(t *testing.T) {
	ctx := context.Background()
	_, sess := testenv.Start(t, fake.DefaultConfig(), nil)

	err := project.Create(
		ctx, logger.Null(), sess,
		&commandline.MockCommandline[project.Flags]{
			Stdout_: new(strings.Builder),
			Flags_:  project.Flags{Alias: "genome", Name: "Genome", Group: "1"},
		},
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}

	stdout := new(strings.Builder)
	err = project.Show(
		ctx, logger.Null(), sess,
		&commandline.MockCommandline[struct{}]{
			Stdout_: stdout,
			Args_:   map[string][]string{project.ARG_PROJECT: {"genome"}},
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
	if actual["alias"] != "genome" || actual["name"] != "Genome" || actual["group"] != "1" {
		t.Errorf("unexpected output: %+v", actual)
	}
}

func TestCreate_WithoutGroup(t *testing.T) {
	ctx := context.Background()
	backend, sess := testenv.Start(t, fake.DefaultConfig(), nil)

	err := project.Create(
		ctx, logger.Null(), sess,
		&commandline.MockCommandline[project.Flags]{
			Stdout_: new(strings.Builder),
			Flags_:  project.Flags{Alias: "genome"},
		},
		nil,
	)
	if err == nil {
		t.Fatal("project without group is created")
	}
	if !strings.Contains(err.Error(), "--group") {
		t.Errorf("error does not tell the field: %s", err)
	}
	if n := backend.Requests()["POST /api/v1/core/projects/"]; n != 0 {
		t.Errorf("POST is sent %d times", n)
	}
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	conf := fake.DefaultConfig()
	conf.Data["core/projects"] = append(conf.Data["core/projects"], map[string]any{
		"id": 2, "alias": "genome", "name": "Genome", "group": 2,
	})

	for name, testcase := range map[string]struct {
		group   string
		aliases []string
	}{
		"all":          {aliases: []string{"imaging", "genome"}},
		"by group":     {group: "2", aliases: []string{"genome"}},
		"by no groups": {group: "3", aliases: []string{}},
	} {
		t.Run(name, func(t *testing.T) {
			_, sess := testenv.Start(t, conf, nil)
			stdout := new(strings.Builder)
			err := project.Find(
				ctx, logger.Null(), sess,
				&commandline.MockCommandline[project.FindFlags]{
					Stdout_: stdout,
					Flags_:  project.FindFlags{Group: testcase.group},
				},
				nil,
			)
			if err != nil {
				t.Fatal(err)
			}
			actual := []map[string]any{}
			if err := json.Unmarshal([]byte(stdout.String()), &actual); err != nil {
				t.Fatal(err)
			}
			aliases := []string{}
			for _, p := range actual {
				aliases = append(aliases, p["alias"].(string))
			}
			if strings.Join(aliases, ",") != strings.Join(testcase.aliases, ",") {
				t.Errorf("aliases: %v, want %v", aliases, testcase.aliases)
			}
		})
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()

	answers := []bool{true, false}
	backend, sess := testenv.Start(t, fake.DefaultConfig(), func(dialog.Request) dialog.Outcome {
		a := answers[0]
		answers = answers[1:]
		return dialog.Outcome{Confirmed: a}
	})

	err := project.Remove(
		ctx, logger.Null(), sess,
		&commandline.MockCommandline[struct{}]{
			Args_: map[string][]string{project.ARG_PROJECT: {"imaging"}},
		},
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}
	if len(answers) != 0 {
		t.Errorf("not all confirmations are asked: %v", answers)
	}
	if n := backend.Requests()["DELETE /api/v1/core/projects/1/"]; n != 1 {
		t.Errorf("DELETE is sent %d times", n)
	}
	if _, err := sess.Catalog.Projects.Get(ctx, "imaging"); err != nil {
		t.Errorf("project is deleted: %v", err)
	}
}
