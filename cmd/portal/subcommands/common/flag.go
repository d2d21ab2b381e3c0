package common

import (
	"os"
	"path/filepath"
)

// DefaultProfile is the name of the profile used when --profile is not given.
const DefaultProfile = "default"

type CommonFlags struct {
	Profile      string `flag:"profile" help:"profile name to use"`
	ProfileStore string `flag:"profile-store" help:"path to profile store file"`
	Verbose      bool   `flag:"verbose" alias:"v" help:"print details of errors and requests"`
}

type commonFlagDetection struct {
	home string
}

type CommonFlagDetectionOption func(*commonFlagDetection) *commonFlagDetection

func WithHome(home string) CommonFlagDetectionOption {
	return func(opt *commonFlagDetection) *commonFlagDetection {
		opt.home = home
		return opt
	}
}

// Flags returns default values of common flags.
//
// The profile store is ~/.sciportal/profile.
// The profile is named by $SCIPORTAL_PROFILE, or DefaultProfile.
func Flags(opt ...CommonFlagDetectionOption) CommonFlags {
	detparam := commonFlagDetection{}
	for _, o := range opt {
		detparam = *o(&detparam)
	}

	home := detparam.home
	if home == "" {
		if h, err := os.UserHomeDir(); err == nil {
			home = h
		}
	}

	profile := os.Getenv("SCIPORTAL_PROFILE")
	if profile == "" {
		profile = DefaultProfile
	}

	return CommonFlags{
		Profile:      profile,
		ProfileStore: filepath.Join(home, ".sciportal", "profile"),
	}
}
