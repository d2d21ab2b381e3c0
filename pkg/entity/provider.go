package entity

import "context"

// DeleteOptions are options of a deletion, given to providers per call.
type DeleteOptions struct {
	// Force asks to bypass deletion guards on the server (e.g. cascading deletion).
	Force bool
}

// Provider tells where data of an entity kind lives.
//
// Providers are shared by every entity of a kind and may be called concurrently.
// They must not keep per-call state.
type Provider interface {
	// CreateEntity sends a new entity and merges the response into it.
	CreateEntity(ctx context.Context, e *Entity) error

	// UpdateEntity sends changed properties of the entity and merges the response into it.
	UpdateEntity(ctx context.Context, e *Entity) error

	// DeleteEntity removes the entity.
	DeleteEntity(ctx context.Context, e *Entity, opts DeleteOptions) error

	// LoadEntity fetches one entity by id or alias.
	//
	// # Args
	//
	// - kind: kind of the entity to be loaded.
	//
	// - lookup: id or alias.
	//
	// - parentIds: ids of ancestors, for entities scoped under another.
	LoadEntity(ctx context.Context, kind *Kind, lookup string, parentIds []string) (*Entity, error)

	// FindEntities queries entities.
	FindEntities(ctx context.Context, kind *Kind, params SearchParams) (*FindResult, error)
}

// FindResult is a response of a query.
type FindResult struct {
	// Paginated is true when the server responded with a page.
	// Fields below except Entities are meaningful only when Paginated.
	Paginated bool

	// total number of entities over all pages.
	Count int

	// links to the next and the previous page. Empty when there are not.
	Next     string
	Previous string

	Entities []*Entity

	// Fetch loads a page by its link.
	Fetch func(ctx context.Context, link string) (*FindResult, error)
}
