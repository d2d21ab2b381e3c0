//go:build !windows

package profiles

import "os"

// newSafeFile opens an empty file accessible only by the current user.
//
// If the file already exists, it is truncated.
func newSafeFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, os.FileMode(0600))
}
