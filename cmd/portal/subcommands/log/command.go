package log

import (
	"context"
	"log"
	"strconv"

	"github.com/opst/sciportal/cmd/portal/subcommands/common"
	"github.com/opst/sciportal/pkg/entity"
	"github.com/opst/sciportal/pkg/session"
	"github.com/youta-t/flarc"
)

type FindFlags struct {
	Path   string `flag:"path" help:"find logs of requests to this path"`
	Method string `flag:"method" help:"find logs of requests with this method"`
	Status int    `flag:"status" help:"find logs of responses with this status code"`
	User   string `flag:"user" metavar:"USER_ID" help:"find logs of requests by this user"`
	Pages  int    `flag:"pages" help:"max number of pages to be fetched. 0 means all."`
}

func New() (flarc.Command, error) {
	find, err := flarc.NewCommand(
		"Find request logs of the portal.",
		FindFlags{Pages: 1},
		flarc.Args{},
		common.NewTask(Find),
	)
	if err != nil {
		return nil, err
	}
	return flarc.NewCommandGroup(
		"Read request logs of the portal.",
		struct{}{},
		flarc.WithSubcommand("find", find),
	)
}

func Find(ctx context.Context, _ *log.Logger, sess *session.Session, cl flarc.Commandline[FindFlags], _ []any) error {
	flags := cl.Flags()
	params := entity.SearchParams{}
	for k, v := range common.Values(map[string]string{
		"path":           flags.Path,
		"request_method": flags.Method,
		"user":           flags.User,
	}) {
		params[k] = v
	}
	if flags.Status != 0 {
		params["status_code"] = strconv.Itoa(flags.Status)
	}

	logs, err := common.FindEntities(ctx, sess.Catalog.Logs, params, flags.Pages)
	if err != nil {
		return err
	}
	return common.Dump(cl.Stdout(), common.Details(logs))
}
