package models

import (
	"context"
	"io"

	"github.com/opst/sciportal/pkg/entity"
	"github.com/opst/sciportal/pkg/provider"
	"github.com/opst/sciportal/pkg/rest"
)

// Collection paths of kinds under the API root.
const (
	UsersPath       = "accounts/users"
	GroupsPath      = "core/groups"
	ProjectsPath    = "core/projects"
	ProjectDataPath = "core/projects/" + provider.Placeholder + "/data"
	LogsPath        = "core/logs"
	ModulesPath     = "core/modules"
)

// Catalog binds entity kinds of the portal to a server.
type Catalog struct {
	Users    *entity.Class[User]
	Groups   *entity.Class[Group]
	Projects *entity.Class[Project]
	Data     *entity.Class[ProjectData]
	Logs     *entity.Class[LogEntry]
	Modules  *entity.Class[Module]

	Registry *entity.Registry

	data *provider.HttpRequest
}

// NewCatalog creates kinds served by the client.
//
// # Args
//
// - client: REST client of the server.
//
// - root: API URL builder (see rest.Root).
func NewCatalog(client rest.Client, root func(...string) string) (*Catalog, error) {
	c := &Catalog{Registry: entity.NewRegistry()}

	users, err := entity.NewKind(UserSchema, provider.New(client, root, UsersPath))
	if err != nil {
		return nil, err
	}
	groups, err := entity.NewKind(GroupSchema, provider.New(client, root, GroupsPath))
	if err != nil {
		return nil, err
	}
	projects, err := entity.NewKind(ProjectSchema, provider.New(client, root, ProjectsPath))
	if err != nil {
		return nil, err
	}
	c.data = provider.New(client, root, ProjectDataPath)
	data, err := entity.NewKind(ProjectDataSchema, c.data)
	if err != nil {
		return nil, err
	}
	logs, err := entity.NewKind(LogEntrySchema, provider.New(client, root, LogsPath))
	if err != nil {
		return nil, err
	}
	modules, err := entity.NewKind(
		ModuleSchema,
		provider.New(client, root, ModulesPath, provider.WithExcluded("settings")),
		provider.New(
			client, root, ModulesPath,
			provider.WithOnly("settings"),
			provider.WithDetailSuffix("settings"),
			provider.UpdateOnly(),
		),
	)
	if err != nil {
		return nil, err
	}

	if err := c.Registry.Register(users, groups, projects, data, logs, modules); err != nil {
		return nil, err
	}

	c.Users = entity.NewClass(users, func(e *entity.Entity) User { return User{e} })
	c.Groups = entity.NewClass(groups, func(e *entity.Entity) Group { return Group{e} })
	c.Projects = entity.NewClass(projects, func(e *entity.Entity) Project { return Project{e} })
	c.Data = entity.NewClass(data, func(e *entity.Entity) ProjectData { return ProjectData{e} })
	c.Logs = entity.NewClass(logs, func(e *entity.Entity) LogEntry { return LogEntry{e} })
	c.Modules = entity.NewClass(modules, func(e *entity.Entity) Module { return Module{e} })
	return c, nil
}

// NewData creates a data entity of the project, not sent to the server yet.
func (c *Catalog) NewData(project Project, values map[string]any) (ProjectData, error) {
	return c.Data.New(values, entity.WithParentIds(project.Id()))
}

// Upload sends content of the data.
//
// The data should be saved before uploading.
func (c *Catalog) Upload(ctx context.Context, d ProjectData, filename string, content io.Reader) error {
	return c.data.Upload(ctx, d.Entity, "file", filename, content)
}
