package data

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	pb "github.com/cheggaaa/pb/v3"
	"github.com/opst/sciportal/cmd/portal/subcommands/common"
	"github.com/opst/sciportal/pkg/entity"
	"github.com/opst/sciportal/pkg/form"
	"github.com/opst/sciportal/pkg/models"
	"github.com/opst/sciportal/pkg/session"
	"github.com/youta-t/flarc"
)

const (
	ARG_PROJECT = "PROJECT"
	ARG_SOURCE  = "SOURCE"
)

type FindFlags struct {
	Type  string `flag:"type" help:"find data of this type"`
	Pages int    `flag:"pages" help:"max number of pages to be fetched. 0 means all."`
}

type PushFlags struct {
	Name string `flag:"name" alias:"n" help:"name of the data. The file name is used when it is not given."`
	Type string `flag:"type" alias:"t" help:"type of the data"`
}

type Option struct {
	progressOut io.Writer
}

func WithProgressOut(w io.Writer) func(*Option) *Option {
	return func(o *Option) *Option {
		o.progressOut = w
		return o
	}
}

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{progressOut: os.Stderr}
	for _, o := range options {
		option = o(option)
	}

	find, err := flarc.NewCommand(
		"Find data of a project.",
		FindFlags{},
		flarc.Args{{Name: ARG_PROJECT, Required: true, Help: "id or alias of the project"}},
		common.NewTask(Find),
	)
	if err != nil {
		return nil, err
	}
	push, err := flarc.NewCommand(
		"Upload files as data of a project.",
		PushFlags{},
		flarc.Args{
			{Name: ARG_PROJECT, Required: true, Help: "id or alias of the project"},
			{Name: ARG_SOURCE, Required: true, Repeatable: true, Help: "files to be uploaded"},
		},
		common.NewTask(Push(option.progressOut)),
		flarc.WithDescription(`
Upload files as data of a project.

For each file, a data is registered and then its content is sent.

Example:

	{{ .Command }} imaging ./raw.csv ./processed.csv
	{{ .Command }} --name train --type csv imaging ./data.csv
`),
	)
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manipulate data of projects.",
		struct{}{},
		flarc.WithSubcommand("find", find),
		flarc.WithSubcommand("push", push),
	)
}

func Find(ctx context.Context, _ *log.Logger, sess *session.Session, cl flarc.Commandline[FindFlags], _ []any) error {
	flags := cl.Flags()
	project, err := sess.Catalog.Projects.Get(ctx, cl.Args()[ARG_PROJECT][0])
	if err != nil {
		return err
	}

	params := entity.SearchParams{}.WithParentIds(project.Id())
	if flags.Type != "" {
		params["type"] = flags.Type
	}
	data, err := common.FindEntities(ctx, sess.Catalog.Data, params, flags.Pages)
	if err != nil {
		return err
	}
	return common.Dump(cl.Stdout(), common.Details(data))
}

func Push(progressOut io.Writer) common.Task[PushFlags] {
	return func(ctx context.Context, logger *log.Logger, sess *session.Session, cl flarc.Commandline[PushFlags], _ []any) error {
		flags := cl.Flags()
		project, err := sess.Catalog.Projects.Get(ctx, cl.Args()[ARG_PROJECT][0])
		if err != nil {
			return err
		}

		sources := cl.Args()[ARG_SOURCE]
		if flags.Name != "" && 1 < len(sources) {
			return fmt.Errorf("%w: --name is for a single file", flarc.ErrUsage)
		}

		pushed := []models.ProjectData{}
		for n, src := range sources {
			logger.Printf("[[%d/%d]] sending... %s", n+1, len(sources), src)
			name := flags.Name
			if name == "" {
				name = filepath.Base(src)
			}
			d, err := push(ctx, sess, project, src, name, flags.Type, progressOut)
			if err != nil {
				return fmt.Errorf("%s: %w", src, err)
			}
			logger.Printf("registered: %s -> data %s", src, d.Id())
			pushed = append(pushed, d)
		}
		return common.Dump(cl.Stdout(), common.Details(pushed))
	}
}

func push(
	ctx context.Context,
	sess *session.Session,
	project models.Project,
	src string,
	name string,
	typ string,
	progressOut io.Writer,
) (models.ProjectData, error) {
	f, err := os.Open(src)
	if err != nil {
		return models.ProjectData{}, err
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return models.ProjectData{}, err
	}

	d, err := common.CreateEntity(
		ctx, sess.Catalog.Data,
		form.Input{ParentIds: []string{project.Id()}},
		common.Values(map[string]string{"name": name, "type": typ}),
	)
	if err != nil {
		return models.ProjectData{}, err
	}

	bar := pb.New64(stat.Size())
	bar.Set(pb.Bytes, true)
	bar.SetWriter(progressOut)
	if err := bar.Err(); err != nil {
		return models.ProjectData{}, err
	}
	bar.Start()
	err = sess.Catalog.Upload(ctx, d, filepath.Base(src), bar.NewProxyReader(f))
	bar.Finish()
	if err != nil {
		return models.ProjectData{}, err
	}

	return sess.Catalog.Data.Reload(ctx, d)
}
