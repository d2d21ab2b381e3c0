package login

import (
	"context"
	"fmt"
	"log"

	"github.com/opst/sciportal/cmd/portal/subcommands/common"
	"github.com/opst/sciportal/pkg/configs/profiles"
	"github.com/opst/sciportal/pkg/session"
	"github.com/youta-t/flarc"
)

const ARG_LOGIN = "LOGIN"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Log in to the portal server, and save the access token into the profile.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_LOGIN, Required: true,
				Help: "login name of your account",
			},
		},
		common.NewTaskWithCommonFlag(Task),
	)
}

func Task(
	ctx context.Context,
	logger *log.Logger,
	cf common.CommonFlags,
	cl flarc.Commandline[struct{}],
	_ []any,
) error {
	login := cl.Args()[ARG_LOGIN][0]

	store, err := profiles.Load(cf.ProfileStore)
	if err != nil {
		return err
	}
	prof, err := store.Get(cf.Profile)
	if err != nil {
		return err
	}

	// old tokens are not sent.
	p := *prof
	p.Token = ""
	sess, err := session.New(&p)
	if err != nil {
		return err
	}
	defer sess.Close()

	token, err := sess.Login(ctx, login)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	prof.Token = token
	if err := store.Save(cf.ProfileStore); err != nil {
		return err
	}

	user, err := sess.CurrentUser(ctx)
	if err != nil {
		return err
	}
	logger.Printf("logged in as %s (%s)", user.FullName(), user.Login())
	return nil
}
