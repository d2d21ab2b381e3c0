package group

import (
	"context"
	"fmt"
	"log"

	"github.com/opst/sciportal/cmd/portal/subcommands/common"
	"github.com/opst/sciportal/pkg/entity"
	"github.com/opst/sciportal/pkg/form"
	"github.com/opst/sciportal/pkg/session"
	"github.com/youta-t/flarc"
)

const ARG_GROUP = "GROUP_ID"

type Flags struct {
	Name        string `flag:"name" help:"name of the group"`
	Description string `flag:"description" help:"description of the group"`
	Governor    string `flag:"governor" metavar:"USER_ID" help:"id of the user governing the group"`
}

func (f Flags) values() map[string]any {
	return common.Values(map[string]string{
		"name":        f.Name,
		"description": f.Description,
		"governor":    f.Governor,
	})
}

type FindFlags struct {
	Name     string `flag:"name" help:"find groups with this name"`
	Governor string `flag:"governor" metavar:"USER_ID" help:"find groups governed by this user"`
	Pages    int    `flag:"pages" help:"max number of pages to be fetched. 0 means all."`
}

func New() (flarc.Command, error) {
	create, err := flarc.NewCommand(
		"Create a group.",
		Flags{},
		flarc.Args{},
		common.NewTask(Create),
		flarc.WithDescription(`
Create a group, and print it.

Example:

	{{ .Command }} --name "Lab A" --governor 1
`),
	)
	if err != nil {
		return nil, err
	}
	show, err := flarc.NewCommand(
		"Show a group.",
		struct{}{},
		flarc.Args{{Name: ARG_GROUP, Required: true, Help: "id of the group"}},
		common.NewTask(Show),
	)
	if err != nil {
		return nil, err
	}
	edit, err := flarc.NewCommand(
		"Edit a group.",
		Flags{},
		flarc.Args{{Name: ARG_GROUP, Required: true, Help: "id of the group"}},
		common.NewTask(Edit),
		flarc.WithDescription(`
Edit a group, and print it.

Only given flags are changed.
`),
	)
	if err != nil {
		return nil, err
	}
	find, err := flarc.NewCommand(
		"Find groups.",
		FindFlags{},
		flarc.Args{},
		common.NewTask(Find),
	)
	if err != nil {
		return nil, err
	}
	rm, err := flarc.NewCommand(
		"Delete a group.",
		struct{}{},
		flarc.Args{{Name: ARG_GROUP, Required: true, Help: "id of the group"}},
		common.NewTask(Remove),
		flarc.WithDescription(`
Delete a group after confirmation.

When projects belong to the group, you are asked again
whether they are deleted together.
`),
	)
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manipulate groups.",
		struct{}{},
		flarc.WithSubcommand("create", create),
		flarc.WithSubcommand("show", show),
		flarc.WithSubcommand("edit", edit),
		flarc.WithSubcommand("find", find),
		flarc.WithSubcommand("rm", rm),
	)
}

func Create(ctx context.Context, logger *log.Logger, sess *session.Session, cl flarc.Commandline[Flags], _ []any) error {
	g, err := common.CreateEntity(ctx, sess.Catalog.Groups, form.Input{}, cl.Flags().values())
	if err != nil {
		return err
	}
	logger.Printf("group %s is created", g.Id())
	return common.Dump(cl.Stdout(), common.Detail(g))
}

func Show(ctx context.Context, _ *log.Logger, sess *session.Session, cl flarc.Commandline[struct{}], _ []any) error {
	g, err := sess.Catalog.Groups.Get(ctx, cl.Args()[ARG_GROUP][0])
	if err != nil {
		return err
	}
	return common.Dump(cl.Stdout(), common.Detail(g))
}

func Edit(ctx context.Context, logger *log.Logger, sess *session.Session, cl flarc.Commandline[Flags], _ []any) error {
	values := cl.Flags().values()
	if len(values) == 0 {
		return fmt.Errorf("%w: no flags are given to be changed", flarc.ErrUsage)
	}
	g, err := common.EditEntity(
		ctx, sess.Catalog.Groups, sess.Dialogs,
		form.Input{Lookup: cl.Args()[ARG_GROUP][0]}, values,
	)
	if err != nil {
		return err
	}
	logger.Printf("group %s is updated", g.Id())
	return common.Dump(cl.Stdout(), common.Detail(g))
}

func Find(ctx context.Context, _ *log.Logger, sess *session.Session, cl flarc.Commandline[FindFlags], _ []any) error {
	flags := cl.Flags()
	params := entity.SearchParams{}
	for k, v := range common.Values(map[string]string{"name": flags.Name, "governor": flags.Governor}) {
		params[k] = v
	}
	groups, err := common.FindEntities(ctx, sess.Catalog.Groups, params, flags.Pages)
	if err != nil {
		return err
	}
	return common.Dump(cl.Stdout(), common.Details(groups))
}

func Remove(ctx context.Context, logger *log.Logger, sess *session.Session, cl flarc.Commandline[struct{}], _ []any) error {
	id := cl.Args()[ARG_GROUP][0]
	deleted, err := common.RemoveEntity(ctx, sess.Catalog.Groups, sess.Dialogs, form.Input{Lookup: id})
	if err != nil {
		return err
	}
	if deleted {
		logger.Printf("group %s is deleted", id)
	} else {
		logger.Printf("cancelled")
	}
	return nil
}
