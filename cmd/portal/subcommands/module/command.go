package module

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/opst/sciportal/cmd/portal/subcommands/common"
	"github.com/opst/sciportal/pkg/session"
	"github.com/youta-t/flarc"
)

const (
	ARG_MODULE  = "MODULE"
	ARG_SETTING = "KEY=VALUE"
)

type SetFlags struct {
	Enable  bool `flag:"enable" help:"enable the module"`
	Disable bool `flag:"disable" help:"disable the module"`
}

func New() (flarc.Command, error) {
	show, err := flarc.NewCommand(
		"Show a module and its settings.",
		struct{}{},
		flarc.Args{{Name: ARG_MODULE, Required: true, Help: "id or alias of the module"}},
		common.NewTask(Show),
	)
	if err != nil {
		return nil, err
	}
	set, err := flarc.NewCommand(
		"Change settings of a module.",
		SetFlags{},
		flarc.Args{
			{Name: ARG_MODULE, Required: true, Help: "id or alias of the module"},
			{Name: ARG_SETTING, Repeatable: true, Help: "setting to be changed. VALUE is JSON, or a text when it is not JSON."},
		},
		common.NewTask(Set),
		flarc.WithDescription(`
Change settings of a module.

Example:

	{{ .Command }} imaging threshold=20 label=cells
	{{ .Command }} --disable imaging
`),
	)
	if err != nil {
		return nil, err
	}
	return flarc.NewCommandGroup(
		"Manipulate application modules.",
		struct{}{},
		flarc.WithSubcommand("show", show),
		flarc.WithSubcommand("set", set),
	)
}

func Show(ctx context.Context, _ *log.Logger, sess *session.Session, cl flarc.Commandline[struct{}], _ []any) error {
	m, err := sess.Catalog.Modules.Get(ctx, cl.Args()[ARG_MODULE][0])
	if err != nil {
		return err
	}
	return common.Dump(cl.Stdout(), common.Detail(m))
}

// ParseSetting parses KEY=VALUE. VALUE is JSON, or a text when it is not JSON.
func ParseSetting(kv string) (string, any, error) {
	k, v, ok := strings.Cut(kv, "=")
	if !ok || k == "" {
		return "", nil, fmt.Errorf("%w: setting should be KEY=VALUE: %s", flarc.ErrUsage, kv)
	}
	var value any
	if err := json.Unmarshal([]byte(v), &value); err != nil {
		value = v
	}
	return k, value, nil
}

func Set(ctx context.Context, logger *log.Logger, sess *session.Session, cl flarc.Commandline[SetFlags], _ []any) error {
	flags := cl.Flags()
	if flags.Enable && flags.Disable {
		return fmt.Errorf("%w: --enable and --disable are exclusive", flarc.ErrUsage)
	}

	m, err := sess.Catalog.Modules.Get(ctx, cl.Args()[ARG_MODULE][0])
	if err != nil {
		return err
	}
	for _, kv := range cl.Args()[ARG_SETTING] {
		k, v, err := ParseSetting(kv)
		if err != nil {
			return err
		}
		if err := m.SetSetting(k, v); err != nil {
			return err
		}
	}
	switch {
	case flags.Enable:
		err = m.SetEnabled(true)
	case flags.Disable:
		err = m.SetEnabled(false)
	}
	if err != nil {
		return err
	}

	if err := m.Update(ctx); err != nil {
		return err
	}
	sess.SetModule(m)
	logger.Printf("module %s is updated", m.Alias())
	return common.Dump(cl.Stdout(), common.Detail(m))
}
