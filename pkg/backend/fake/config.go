package fake

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config describes resources served by the fake backend.
type Config struct {
	// Version is the API version in URLs (/api/{version}/...).
	Version string `yaml:"version"`

	// PageSize enables pagination of lists. 0 means no pagination.
	PageSize int `yaml:"pageSize"`

	// Secret signs access tokens (HS256). Empty disables authentication.
	Secret string `yaml:"secret"`

	Resources []Resource `yaml:"resources"`

	// Data are initial items keyed by concrete collection paths (e.g. "core/projects/1/data").
	Data map[string][]map[string]any `yaml:"data"`
}

// Resource is a collection served by the fake backend.
type Resource struct {
	// Path is a template of the collection path. ":id:" segments are ids of ancestors.
	Path string `yaml:"path"`

	// Lookup is a property usable in place of id in detail URLs (e.g. "alias").
	Lookup string `yaml:"lookup,omitempty"`

	// Required properties should not be missing nor empty.
	Required []string `yaml:"required,omitempty"`

	// ReadOnly properties are ignored in requests.
	ReadOnly []string `yaml:"readOnly,omitempty"`

	// Defaults are values of properties missing in creation requests.
	Defaults map[string]any `yaml:"defaults,omitempty"`

	// Sides are side resources at {detail}/{side}/, each updating the property of the name.
	Sides []string `yaml:"sides,omitempty"`

	// Files are properties accepting uploads at {detail}/{file}/.
	Files []string `yaml:"files,omitempty"`

	// SizeField receives the size of the uploaded file, if not empty.
	SizeField string `yaml:"sizeField,omitempty"`

	// ParentField receives the id of the nearest ancestor on creation, if not empty.
	ParentField string `yaml:"parentField,omitempty"`

	// Guards refuse deletion while other items refer to the item.
	Guards []Guard `yaml:"guards,omitempty"`

	// ReadOnlyCollection refuses creation, update and deletion.
	ReadOnlyCollection bool `yaml:"readOnlyCollection,omitempty"`
}

// Guard tells items in Resource refer the guarded item by Field.
//
// Deleting the guarded item is refused with "action_required" unless forced.
// Forced deletion removes referring items too.
type Guard struct {
	Resource string `yaml:"resource"`
	Field    string `yaml:"field"`
}

//go:embed default.yaml
var defaultConfig []byte

// DefaultConfig returns the configuration of portal resources with sample data.
func DefaultConfig() Config {
	conf, err := parseConfig(defaultConfig)
	if err != nil {
		panic(err)
	}
	return conf
}

// LoadConfig reads yaml configuration.
func LoadConfig(path string) (Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return parseConfig(buf)
}

func parseConfig(buf []byte) (Config, error) {
	conf := Config{}
	if err := yaml.Unmarshal(buf, &conf); err != nil {
		return Config{}, err
	}
	if conf.Version == "" {
		conf.Version = "v1"
	}
	seen := map[string]bool{}
	for i := range conf.Resources {
		r := &conf.Resources[i]
		r.Path = strings.Trim(r.Path, "/")
		if r.Path == "" {
			return Config{}, fmt.Errorf("resource #%d has no path", i)
		}
		if seen[r.Path] {
			return Config{}, fmt.Errorf("resource %s is duplicated", r.Path)
		}
		seen[r.Path] = true
	}
	return conf, nil
}
