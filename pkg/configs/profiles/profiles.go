// Package profiles stores connection settings to portal servers.
//
// A profile store is a yaml file mapping profile names to profiles:
//
//	default:
//	  origin: https://portal.example.com
//	  version: v1
//	  token: eyJhbGciOi...
//	  cert:
//	    ca: LS0tLS1CRUdJTi...
package profiles

import (
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/hectane/go-acl"
	yaml "gopkg.in/yaml.v3"
)

var (
	ErrStoreNotFound    = errors.New("profile store is not found")
	ErrProfileNotFound  = errors.New("profile is not found")
	ErrProfileInvalid   = errors.New("profile is invalid")
	ErrCannotSaveConfig = errors.New("cannot save profile store")
)

// DefaultVersion is the API version used when a profile does not tell.
const DefaultVersion = "v1"

type Cert struct {
	// base64 encoded PEM of CA certificate
	CA string `yaml:"ca,omitempty"`
}

// Profile is a connection setting to a portal server.
type Profile struct {
	// Origin is scheme, host and port of the server.
	Origin string `yaml:"origin"`

	// Version is the API version. Empty means DefaultVersion.
	Version string `yaml:"version,omitempty"`

	// Token is an access token (JWT) issued by the server.
	Token string `yaml:"token,omitempty"`

	Cert Cert `yaml:"cert,omitempty"`
}

// ApiVersion returns Version, or DefaultVersion when it is empty.
func (p *Profile) ApiVersion() string {
	if p.Version == "" {
		return DefaultVersion
	}
	return p.Version
}

// Verify returns nil if p is valid. Otherwise, error wrapping ErrProfileInvalid.
func (p *Profile) Verify() error {
	u, err := url.Parse(p.Origin)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: origin is not URL: %s", ErrProfileInvalid, p.Origin)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: origin should be http(s): %s", ErrProfileInvalid, p.Origin)
	}
	if p.Cert.CA != "" {
		bin, err := base64.StdEncoding.DecodeString(p.Cert.CA)
		if err != nil {
			return fmt.Errorf("%w: cert.ca is not base64: %s", ErrProfileInvalid, err)
		}
		if blk, _ := pem.Decode(bin); blk == nil {
			return fmt.Errorf("%w: cert.ca is not PEM", ErrProfileInvalid)
		}
	}
	return nil
}

// Store maps profile names to profiles.
type Store map[string]*Profile

// Get returns the named profile.
func (s Store) Get(name string) (*Profile, error) {
	p, ok := s[name]
	if !ok || p == nil {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return p, nil
}

// Load reads a profile store from the file.
func Load(path string) (Store, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrStoreNotFound, path)
		}
		return nil, err
	}
	return Unmarshal(buf)
}

// LoadOrEmpty is Load, but a missing file is an empty store.
func LoadOrEmpty(path string) (Store, error) {
	s, err := Load(path)
	if errors.Is(err, ErrStoreNotFound) {
		return Store{}, nil
	}
	return s, err
}

func Unmarshal(buf []byte) (Store, error) {
	s := Store{}
	if err := yaml.Unmarshal(buf, &s); err != nil {
		return nil, err
	}
	return s, nil
}

// Save writes the store to the file, readable only by the current user.
//
// Before overwriting, the current content is copied to "<path>.backup".
// The backup is removed when saving succeeds.
func (s Store) Save(path string) error {
	buf, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), os.FileMode(0700)); err != nil {
		return fmt.Errorf("%w: %w", ErrCannotSaveConfig, err)
	}

	current, err := os.ReadFile(path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		current = nil
	case errors.Is(err, os.ErrPermission):
		return fmt.Errorf("%w: no permission to read %s", ErrCannotSaveConfig, path)
	default:
		return err
	}

	backup := path + ".backup"
	if current != nil {
		if err := writeSafe(backup, current); err != nil {
			return fmt.Errorf("%w: cannot take backup: %w", ErrCannotSaveConfig, err)
		}
	}

	if err := writeSafe(path, buf); err != nil {
		return fmt.Errorf("%w: %w (backup is at %s)", ErrCannotSaveConfig, err, backup)
	}
	if current != nil {
		os.Remove(backup)
	}
	return nil
}

func writeSafe(path string, content []byte) error {
	f, err := newSafeFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	// files created before may have loose permission.
	if err := acl.Chmod(path, os.FileMode(0600)); err != nil {
		return err
	}
	_, err = f.Write(content)
	return err
}
