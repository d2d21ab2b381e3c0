package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"

	"github.com/opst/sciportal/cmd/portal/subcommands/common"
	subdata "github.com/opst/sciportal/cmd/portal/subcommands/data"
	subgroup "github.com/opst/sciportal/cmd/portal/subcommands/group"
	subinit "github.com/opst/sciportal/cmd/portal/subcommands/init"
	sublog "github.com/opst/sciportal/cmd/portal/subcommands/log"
	sublogin "github.com/opst/sciportal/cmd/portal/subcommands/login"
	submodule "github.com/opst/sciportal/cmd/portal/subcommands/module"
	subproject "github.com/opst/sciportal/cmd/portal/subcommands/project"
	subver "github.com/opst/sciportal/cmd/portal/subcommands/version"
	"github.com/opst/sciportal/pkg/logger"
	"github.com/opst/sciportal/pkg/utils/try"
	"github.com/youta-t/flarc"
)

func main() {
	name := path.Base(os.Args[0])
	logger := logger.Default()
	logger.SetPrefix(fmt.Sprintf("[%s] ", name))

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill,
	)
	defer cancel()

	cf := common.Flags()
	init := try.To(subinit.New()).OrFatal(logger)
	login := try.To(sublogin.New()).OrFatal(logger)
	group := try.To(subgroup.New()).OrFatal(logger)
	project := try.To(subproject.New()).OrFatal(logger)
	data := try.To(subdata.New()).OrFatal(logger)
	logs := try.To(sublog.New()).OrFatal(logger)
	module := try.To(submodule.New()).OrFatal(logger)
	version := try.To(subver.New()).OrFatal(logger)

	portal := try.To(
		flarc.NewCommandGroup(
			"Science portal commandline interface",
			cf,
			flarc.WithSubcommand("init", init),
			flarc.WithSubcommand("login", login),
			flarc.WithSubcommand("group", group),
			flarc.WithSubcommand("project", project),
			flarc.WithSubcommand("data", data),
			flarc.WithSubcommand("log", logs),
			flarc.WithSubcommand("module", module),
			flarc.WithSubcommand("version", version),
		),
	).OrFatal(logger)

	os.Exit(flarc.Run(ctx, portal, flarc.WithHelp(true)))
}
