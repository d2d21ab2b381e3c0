package init_test

import (
	"context"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/opst/sciportal/cmd/portal/subcommands/common"
	subinit "github.com/opst/sciportal/cmd/portal/subcommands/init"
	"github.com/opst/sciportal/cmd/portal/subcommands/internal/commandline"
	"github.com/opst/sciportal/pkg/configs/profiles"
	"github.com/opst/sciportal/pkg/logger"
	"github.com/opst/sciportal/pkg/utils/try"
	"github.com/youta-t/flarc"
)

func TestInit(t *testing.T) {
	ctx := context.Background()

	t.Run("it adds a profile into the store", func(t *testing.T) {
		store := filepath.Join(t.TempDir(), ".sciportal", "profile")
		if err := (profiles.Store{
			"default": {Origin: "https://portal.example.com", Token: "old"},
		}).Save(store); err != nil {
			t.Fatal(err)
		}

		ca := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte("not a certificate")})
		caPath := filepath.Join(t.TempDir(), "ca.pem")
		if err := os.WriteFile(caPath, ca, os.FileMode(0600)); err != nil {
			t.Fatal(err)
		}

		err := subinit.Task(
			ctx, logger.Null(),
			common.CommonFlags{Profile: "staging", ProfileStore: store},
			&commandline.MockCommandline[subinit.Flags]{
				Flags_: subinit.Flags{
					Origin:  "http://localhost:8000",
					Version: profiles.DefaultVersion,
					CA:      caPath,
				},
			},
			nil,
		)
		if err != nil {
			t.Fatal(err)
		}

		actual := try.To(profiles.Load(store)).OrFatal(t)
		if p := try.To(actual.Get("default")).OrFatal(t); p.Token != "old" {
			t.Errorf("default profile is changed: %+v", p)
		}
		p := try.To(actual.Get("staging")).OrFatal(t)
		if p.Origin != "http://localhost:8000" || p.ApiVersion() != "v1" {
			t.Errorf("staging profile: %+v", p)
		}
		if p.Cert.CA != base64.StdEncoding.EncodeToString(ca) {
			t.Errorf("CA: %s", p.Cert.CA)
		}
	})

	t.Run("it creates a new store", func(t *testing.T) {
		store := filepath.Join(t.TempDir(), ".sciportal", "profile")
		err := subinit.Task(
			ctx, logger.Null(),
			common.CommonFlags{Profile: common.DefaultProfile, ProfileStore: store},
			&commandline.MockCommandline[subinit.Flags]{
				Flags_: subinit.Flags{Origin: "https://portal.example.com"},
			},
			nil,
		)
		if err != nil {
			t.Fatal(err)
		}
		actual := try.To(profiles.Load(store)).OrFatal(t)
		if _, err := actual.Get(common.DefaultProfile); err != nil {
			t.Error(err)
		}
	})

	t.Run("it is usage error without --origin", func(t *testing.T) {
		store := filepath.Join(t.TempDir(), "profile")
		err := subinit.Task(
			ctx, logger.Null(),
			common.CommonFlags{Profile: common.DefaultProfile, ProfileStore: store},
			&commandline.MockCommandline[subinit.Flags]{},
			nil,
		)
		if !errors.Is(err, flarc.ErrUsage) {
			t.Errorf("unexpected error: %v", err)
		}
		if _, err := os.Stat(store); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("store is written: %v", err)
		}
	})

	t.Run("it refuses invalid origin", func(t *testing.T) {
		store := filepath.Join(t.TempDir(), "profile")
		err := subinit.Task(
			ctx, logger.Null(),
			common.CommonFlags{Profile: common.DefaultProfile, ProfileStore: store},
			&commandline.MockCommandline[subinit.Flags]{
				Flags_: subinit.Flags{Origin: "portal.example.com"},
			},
			nil,
		)
		if !errors.Is(err, profiles.ErrProfileInvalid) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
