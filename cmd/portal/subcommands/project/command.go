package project

import (
	"context"
	"log"

	"github.com/opst/sciportal/cmd/portal/subcommands/common"
	"github.com/opst/sciportal/pkg/entity"
	"github.com/opst/sciportal/pkg/form"
	"github.com/opst/sciportal/pkg/session"
	"github.com/youta-t/flarc"
)

const ARG_PROJECT = "PROJECT"

type Flags struct {
	Alias       string `flag:"alias" help:"alias of the project. Latin letters, digits, dashes and underscores."`
	Name        string `flag:"name" help:"name of the project"`
	Description string `flag:"description" help:"description of the project"`
	Group       string `flag:"group" metavar:"GROUP_ID" help:"id of the group owning the project"`
}

type FindFlags struct {
	Group string `flag:"group" metavar:"GROUP_ID" help:"find projects of this group"`
	Pages int    `flag:"pages" help:"max number of pages to be fetched. 0 means all."`
}

func New() (flarc.Command, error) {
	create, err := flarc.NewCommand(
		"Create a project.",
		Flags{},
		flarc.Args{},
		common.NewTask(Create),
		flarc.WithDescription(`
Create a project, and print it.

Example:

	{{ .Command }} --alias imaging --name Imaging --group 1
`),
	)
	if err != nil {
		return nil, err
	}
	show, err := flarc.NewCommand(
		"Show a project.",
		struct{}{},
		flarc.Args{{Name: ARG_PROJECT, Required: true, Help: "id or alias of the project"}},
		common.NewTask(Show),
	)
	if err != nil {
		return nil, err
	}
	find, err := flarc.NewCommand(
		"Find projects.",
		FindFlags{},
		flarc.Args{},
		common.NewTask(Find),
	)
	if err != nil {
		return nil, err
	}
	rm, err := flarc.NewCommand(
		"Delete a project.",
		struct{}{},
		flarc.Args{{Name: ARG_PROJECT, Required: true, Help: "id or alias of the project"}},
		common.NewTask(Remove),
	)
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manipulate projects.",
		struct{}{},
		flarc.WithSubcommand("create", create),
		flarc.WithSubcommand("show", show),
		flarc.WithSubcommand("find", find),
		flarc.WithSubcommand("rm", rm),
	)
}

func Create(ctx context.Context, logger *log.Logger, sess *session.Session, cl flarc.Commandline[Flags], _ []any) error {
	flags := cl.Flags()
	p, err := common.CreateEntity(ctx, sess.Catalog.Projects, form.Input{}, common.Values(map[string]string{
		"alias":       flags.Alias,
		"name":        flags.Name,
		"description": flags.Description,
		"group":       flags.Group,
	}))
	if err != nil {
		return err
	}
	logger.Printf("project %s is created", p.Alias())
	return common.Dump(cl.Stdout(), common.Detail(p))
}

func Show(ctx context.Context, _ *log.Logger, sess *session.Session, cl flarc.Commandline[struct{}], _ []any) error {
	p, err := sess.Catalog.Projects.Get(ctx, cl.Args()[ARG_PROJECT][0])
	if err != nil {
		return err
	}
	return common.Dump(cl.Stdout(), common.Detail(p))
}

func Find(ctx context.Context, _ *log.Logger, sess *session.Session, cl flarc.Commandline[FindFlags], _ []any) error {
	flags := cl.Flags()
	params := entity.SearchParams{}
	if flags.Group != "" {
		params["group"] = flags.Group
	}
	projects, err := common.FindEntities(ctx, sess.Catalog.Projects, params, flags.Pages)
	if err != nil {
		return err
	}
	return common.Dump(cl.Stdout(), common.Details(projects))
}

func Remove(ctx context.Context, logger *log.Logger, sess *session.Session, cl flarc.Commandline[struct{}], _ []any) error {
	alias := cl.Args()[ARG_PROJECT][0]
	deleted, err := common.RemoveEntity(ctx, sess.Catalog.Projects, sess.Dialogs, form.Input{Lookup: alias})
	if err != nil {
		return err
	}
	if deleted {
		logger.Printf("project %s is deleted", alias)
	} else {
		logger.Printf("cancelled")
	}
	return nil
}
