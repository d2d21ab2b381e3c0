// Package models defines entity kinds of the portal.
package models

import (
	"maps"
	"time"

	"github.com/opst/sciportal/pkg/entity"
)

type User struct{ *entity.Entity }

func (u User) Login() string { return str(u.Entity, "login") }
func (u User) Name() string { return str(u.Entity, "name") }
func (u User) Surname() string { return str(u.Entity, "surname") }
func (u User) Email() string { return str(u.Entity, "email") }
func (u User) IsStaff() bool { return boolean(u.Entity, "is_staff") }

// FullName is "Name Surname", or the login when both are empty.
func (u User) FullName() string {
	switch n, s := u.Name(), u.Surname(); {
	case n != "" && s != "":
		return n + " " + s
	case n != "" || s != "":
		return n + s
	}
	return u.Login()
}

type Group struct{ *entity.Entity }

func (g Group) Name() string { return str(g.Entity, "name") }
func (g Group) Description() string { return str(g.Entity, "description") }

// Governor is the id of the governing user. It is empty when not set.
func (g Group) Governor() string { return str(g.Entity, "governor") }

func (g Group) SetName(name string) error {
	return g.Set("name", name)
}

func (g Group) SetDescription(d string) error {
	return g.Set("description", d)
}

// SetGovernor sets the governing user by id. "" unsets.
func (g Group) SetGovernor(userId string) error {
	return g.Set("governor", userId)
}

type Project struct{ *entity.Entity }

func (p Project) Alias() string { return str(p.Entity, "alias") }
func (p Project) Name() string { return str(p.Entity, "name") }
func (p Project) Description() string { return str(p.Entity, "description") }
func (p Project) Group() string { return str(p.Entity, "group") }

func (p Project) SetName(name string) error {
	return p.Set("name", name)
}

func (p Project) SetDescription(d string) error {
	return p.Set("description", d)
}

// ProjectData is a data file of a project.
type ProjectData struct{ *entity.Entity }

func (d ProjectData) Name() string { return str(d.Entity, "name") }
func (d ProjectData) Type() string { return str(d.Entity, "type") }

// File is URL to download the content. It is empty before uploading.
func (d ProjectData) File() string { return str(d.Entity, "file") }
func (d ProjectData) Size() int64 { return integer(d.Entity, "size") }
func (d ProjectData) UploadedAt() time.Time { return timestamp(d.Entity, "uploaded_at") }
func (d ProjectData) Project() string { return str(d.Entity, "project") }
func (d ProjectData) SetName(name string) error { return d.Set("name", name) }

// LogEntry is a record of a request to the server. It is read-only.
type LogEntry struct{ *entity.Entity }

func (l LogEntry) RequestDate() time.Time { return timestamp(l.Entity, "request_date") }
func (l LogEntry) Method() string { return str(l.Entity, "request_method") }
func (l LogEntry) Path() string { return str(l.Entity, "path") }
func (l LogEntry) StatusCode() int64 { return integer(l.Entity, "status_code") }
func (l LogEntry) ResponseTime() time.Duration { return duration(l.Entity, "response_time") }
func (l LogEntry) User() string { return str(l.Entity, "user") }

// Module is an application module of the portal.
//
// Its settings are saved to a side resource, concurrently with other properties.
type Module struct{ *entity.Entity }

func (m Module) Alias() string { return str(m.Entity, "alias") }
func (m Module) Name() string { return str(m.Entity, "name") }
func (m Module) IsEnabled() bool { return boolean(m.Entity, "is_enabled") }
func (m Module) AppClass() string { return str(m.Entity, "app_class") }
func (m Module) Settings() map[string]any { return object(m.Entity, "settings") }
func (m Module) SetEnabled(enabled bool) error { return m.Set("is_enabled", enabled) }

// SetSetting sets one item of settings.
func (m Module) SetSetting(key string, value any) error {
	s := maps.Clone(m.Settings())
	if s == nil {
		s = map[string]any{}
	}
	s[key] = value
	return m.Set("settings", s)
}
