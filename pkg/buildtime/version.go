// Package buildtime tells the version of the binary.
//
// Values are set on build:
//
//	go build -ldflags "-X github.com/opst/sciportal/pkg/buildtime.version=v1.0.0 -X github.com/opst/sciportal/pkg/buildtime.revision=$(git rev-parse HEAD)"
package buildtime

var (
	version  = "dev"
	revision = "unknown"
)

// VERSION is the version of this build.
func VERSION() string {
	return version
}

func GIT_REVISION() string {
	return revision
}

func VersionString() string {
	return version + " (commit: " + revision + ")"
}
