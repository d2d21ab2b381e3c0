package init

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"

	"github.com/opst/sciportal/cmd/portal/subcommands/common"
	"github.com/opst/sciportal/pkg/configs/profiles"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Origin  string `flag:"origin" metavar:"https://portal.example.com" help:"origin of the portal server"`
	Version string `flag:"api-version" help:"API version of the portal server"`
	Token   string `flag:"token" help:"access token. It can be given later by \"portal login\"."`
	CA      string `flag:"ca" metavar:"path/to/ca.pem" help:"PEM file of CA certificate of the server"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Register a profile of a portal server.",
		Flags{Version: profiles.DefaultVersion},
		flarc.Args{},
		common.NewTaskWithCommonFlag(Task),
		flarc.WithDescription(`
Register a profile of a portal server into your profile store.

The name of the profile is given by "--profile" (default: "default").
An existing profile with the same name is replaced.

Example:

	{{ .Command }} --origin https://portal.example.com
	{{ .Command }} --profile staging --origin https://staging.example.com --ca ./ca.pem
`),
	)
}

func Task(
	ctx context.Context,
	logger *log.Logger,
	cf common.CommonFlags,
	cl flarc.Commandline[Flags],
	_ []any,
) error {
	flags := cl.Flags()
	if flags.Origin == "" {
		return fmt.Errorf("%w: --origin is required", flarc.ErrUsage)
	}

	prof := &profiles.Profile{
		Origin:  flags.Origin,
		Version: flags.Version,
		Token:   flags.Token,
	}
	if flags.CA != "" {
		pem, err := os.ReadFile(flags.CA)
		if err != nil {
			return fmt.Errorf("failed to read CA certificate: %w", err)
		}
		prof.Cert.CA = base64.StdEncoding.EncodeToString(pem)
	}
	if err := prof.Verify(); err != nil {
		return err
	}

	store, err := profiles.LoadOrEmpty(cf.ProfileStore)
	if err != nil {
		return fmt.Errorf("failed to load profile store (%s): %w", cf.ProfileStore, err)
	}
	store[cf.Profile] = prof
	if err := store.Save(cf.ProfileStore); err != nil {
		return err
	}
	logger.Printf("profile %s is saved to %s", cf.Profile, cf.ProfileStore)
	return nil
}
