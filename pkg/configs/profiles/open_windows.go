//go:build windows

package profiles

import (
	"os"

	winacl "github.com/hectane/go-acl"
)

// newSafeFile opens an empty file accessible only by the current user.
//
// If the file already exists, it is truncated.
func newSafeFile(path string) (*os.File, error) {
	// permission cannot be given at creation on windows.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, os.FileMode(0600))
	if err != nil {
		return nil, err
	}
	if err := winacl.Chmod(path, os.FileMode(0600)); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Truncate(0); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}
