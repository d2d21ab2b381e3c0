package rest

import (
	"net/url"
	"strings"
)

// Root returns a builder of API URLs under {origin}/api/{version}/.
//
// Built URLs always end with "/".
//
//	root := rest.Root("https://portal.example.com", "v1")
//	root("core", "groups")  // => "https://portal.example.com/api/v1/core/groups/"
//	root("core/groups", "3") // => "https://portal.example.com/api/v1/core/groups/3/"
//	root()                  // => "https://portal.example.com/api/v1/"
func Root(origin string, version string) func(...string) string {
	base := strings.TrimSuffix(origin, "/") + "/api/" + strings.Trim(version, "/")
	return func(subpath ...string) string {
		parts := []string{base}
		for _, p := range subpath {
			for _, seg := range strings.Split(p, "/") {
				if seg == "" {
					continue
				}
				parts = append(parts, url.PathEscape(seg))
			}
		}
		return strings.Join(parts, "/") + "/"
	}
}
