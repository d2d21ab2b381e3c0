// Package provider implements entity.Provider over the portal REST API.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/opst/sciportal/pkg/entity"
	xe "github.com/opst/sciportal/pkg/errors"
	"github.com/opst/sciportal/pkg/rest"
)

// Placeholder is a path segment of templates replaced by an ancestor id.
const Placeholder = ":id:"

var (
	ErrPathTemplate = errors.New("path template does not match parent ids")

	// ErrUnexpectedResponse is the error for responses not in the shape of entities.
	ErrUnexpectedResponse = errors.New("unexpected response")
)

// HttpRequest is an entity.Provider sending requests for each operation.
//
// The collection URL is the path template under the API root, with
// placeholders replaced by ids of ancestors from left to right.
// The detail URL is the collection URL followed by the id of the entity.
//
//	POST   {collection}/          create
//	PATCH  {detail}/              update
//	DELETE {detail}/[?force=true] delete
//	GET    {detail}/              load
//	GET    {collection}/?...      find
type HttpRequest struct {
	client   rest.Client
	root     func(...string) string
	template string

	excluded   map[string]bool
	only       map[string]bool
	suffix     string
	updateOnly bool
}

type Option func(*HttpRequest) *HttpRequest

// WithExcluded makes the provider not to send the properties.
func WithExcluded(names ...string) Option {
	return func(hr *HttpRequest) *HttpRequest {
		for _, n := range names {
			hr.excluded[n] = true
		}
		return hr
	}
}

// WithOnly makes the provider send the properties only.
func WithOnly(names ...string) Option {
	return func(hr *HttpRequest) *HttpRequest {
		if hr.only == nil {
			hr.only = map[string]bool{}
		}
		for _, n := range names {
			hr.only[n] = true
		}
		return hr
	}
}

// WithDetailSuffix appends a path segment to detail URLs.
//
// With suffix "settings", the detail URL becomes {collection}/{id}/settings/ .
func WithDetailSuffix(suffix string) Option {
	return func(hr *HttpRequest) *HttpRequest {
		hr.suffix = suffix
		return hr
	}
}

// UpdateOnly makes creation and deletion no-op.
//
// This is for providers of a side resource of entities, living and dying with them.
func UpdateOnly() Option {
	return func(hr *HttpRequest) *HttpRequest {
		hr.updateOnly = true
		return hr
	}
}

// New creates a provider.
//
// # Args
//
// - client: REST client.
//
// - root: API URL builder (see rest.Root).
//
// - pathTemplate: path of the collection under the API root (e.g. "core/projects/:id:/data").
//
// - opts: options.
func New(client rest.Client, root func(...string) string, pathTemplate string, opts ...Option) *HttpRequest {
	hr := &HttpRequest{
		client:   client,
		root:     root,
		template: strings.Trim(pathTemplate, "/"),
		excluded: map[string]bool{},
	}
	for _, o := range opts {
		hr = o(hr)
	}
	return hr
}

var _ entity.Provider = &HttpRequest{}

// CollectionPath substitutes placeholders in the template with parent ids.
func (hr *HttpRequest) CollectionPath(parentIds []string) (string, error) {
	segs := strings.Split(hr.template, "/")
	ids := parentIds
	for i, s := range segs {
		if s != Placeholder {
			continue
		}
		if len(ids) == 0 {
			return "", fmt.Errorf(
				"%w: %s needs more than %d ids", ErrPathTemplate, hr.template, len(parentIds),
			)
		}
		segs[i], ids = ids[0], ids[1:]
	}
	return strings.Join(segs, "/"), nil
}

func (hr *HttpRequest) collectionUrl(parentIds []string) (string, error) {
	path, err := hr.CollectionPath(parentIds)
	if err != nil {
		return "", err
	}
	return hr.root(path), nil
}

func (hr *HttpRequest) detailUrl(lookup string, parentIds []string, subpath ...string) (string, error) {
	path, err := hr.CollectionPath(parentIds)
	if err != nil {
		return "", err
	}
	segs := []string{path, lookup}
	if hr.suffix != "" {
		segs = append(segs, hr.suffix)
	}
	return hr.root(append(segs, subpath...)...), nil
}

func (hr *HttpRequest) entityUrl(e *entity.Entity, subpath ...string) (string, error) {
	if !e.HasId() {
		return "", fmt.Errorf("%s has no id", e.Kind().Name())
	}
	return hr.detailUrl(e.Id(), e.ParentIds(), subpath...)
}

func (hr *HttpRequest) filter(values map[string]any) map[string]any {
	ret := make(map[string]any, len(values))
	for k, v := range values {
		if hr.excluded[k] {
			continue
		}
		if hr.only != nil && !hr.only[k] {
			continue
		}
		ret[k] = v
	}
	return ret
}

func (hr *HttpRequest) CreateEntity(ctx context.Context, e *entity.Entity) error {
	if hr.updateOnly {
		return nil
	}
	u, err := hr.collectionUrl(e.ParentIds())
	if err != nil {
		return err
	}
	resp, err := hr.client.Post(ctx, u, hr.filter(e.Snapshot()))
	if err != nil {
		return err
	}
	return merge(e, resp)
}

// UpdateEntity sends changed properties with PATCH.
//
// When there are no properties to be sent, no request is sent.
func (hr *HttpRequest) UpdateEntity(ctx context.Context, e *entity.Entity) error {
	body := hr.filter(e.ChangedSnapshot())
	if len(body) == 0 {
		return nil
	}
	u, err := hr.entityUrl(e)
	if err != nil {
		return err
	}
	resp, err := hr.client.Patch(ctx, u, body)
	if err != nil {
		return err
	}
	return merge(e, resp)
}

func (hr *HttpRequest) DeleteEntity(ctx context.Context, e *entity.Entity, opts entity.DeleteOptions) error {
	if hr.updateOnly {
		return nil
	}
	u, err := hr.entityUrl(e)
	if err != nil {
		return err
	}
	if opts.Force {
		u += "?force=true"
	}
	return hr.client.Delete(ctx, u)
}

func (hr *HttpRequest) LoadEntity(ctx context.Context, kind *entity.Kind, lookup string, parentIds []string) (*entity.Entity, error) {
	u, err := hr.detailUrl(lookup, parentIds)
	if err != nil {
		return nil, err
	}
	resp, err := hr.client.Get(ctx, u)
	if err != nil {
		return nil, err
	}
	payload, err := decodeObject(resp)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", kind.Name(), lookup, err)
	}
	return kind.FromPayload(payload, entity.Loaded, parentIds)
}

func (hr *HttpRequest) FindEntities(ctx context.Context, kind *entity.Kind, params entity.SearchParams) (*entity.FindResult, error) {
	parentIds := params.ParentIds()
	u, err := hr.collectionUrl(parentIds)
	if err != nil {
		return nil, err
	}
	if q := Query(params).Encode(); q != "" {
		u += "?" + q
	}
	return hr.fetch(ctx, kind, parentIds, u)
}

func (hr *HttpRequest) fetch(ctx context.Context, kind *entity.Kind, parentIds []string, u string) (*entity.FindResult, error) {
	resp, err := hr.client.Get(ctx, u)
	if err != nil {
		return nil, err
	}
	r, err := parseListing(kind, parentIds, resp)
	if err != nil {
		return nil, err
	}
	if r.Paginated {
		r.Fetch = func(ctx context.Context, link string) (*entity.FindResult, error) {
			return hr.fetch(ctx, kind, parentIds, link)
		}
	}
	return r, nil
}

// Upload sends a file as a property of the entity.
//
// The file is posted to {detail}/{name}/ and the response is merged into the entity.
func (hr *HttpRequest) Upload(ctx context.Context, e *entity.Entity, name string, filename string, content io.Reader) error {
	u, err := hr.entityUrl(e, name)
	if err != nil {
		return err
	}
	resp, err := hr.client.Upload(ctx, u, name, filename, content)
	if err != nil {
		return err
	}
	return merge(e, resp)
}

func merge(e *entity.Entity, resp json.RawMessage) error {
	if len(resp) == 0 {
		return nil
	}
	payload, err := decodeObject(resp)
	if err != nil {
		return fmt.Errorf("%s: %w", e.Kind().Name(), err)
	}
	return e.Merge(payload)
}

func decode(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, xe.WrapWithNote(err.Error(), ErrUnexpectedResponse)
	}
	return v, nil
}

func decodeObject(raw json.RawMessage) (map[string]any, error) {
	v, err := decode(raw)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, xe.WrapWithNote("not an object", ErrUnexpectedResponse)
	}
	return obj, nil
}

// parseListing reads a list or a page.
//
// A page is an object with "count" and "results".
func parseListing(kind *entity.Kind, parentIds []string, raw json.RawMessage) (*entity.FindResult, error) {
	v, err := decode(raw)
	if err != nil {
		return nil, err
	}

	r := &entity.FindResult{}
	var items []any
	switch body := v.(type) {
	case []any:
		items = body
	case map[string]any:
		results, ok := body["results"].([]any)
		count, hasCount := body["count"].(json.Number)
		if !ok || !hasCount {
			return nil, xe.WrapWithNote("neither a list nor a page", ErrUnexpectedResponse)
		}
		n, err := count.Int64()
		if err != nil {
			return nil, xe.WrapWithNote(fmt.Sprintf("count is %s", count), ErrUnexpectedResponse)
		}
		r.Paginated = true
		r.Count = int(n)
		r.Next, _ = body["next"].(string)
		r.Previous, _ = body["previous"].(string)
		items = results
	default:
		return nil, xe.WrapWithNote("neither a list nor a page", ErrUnexpectedResponse)
	}

	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, xe.WrapWithNote(fmt.Sprintf("item #%d is not an object", i), ErrUnexpectedResponse)
		}
		e, err := kind.FromPayload(obj, entity.Found, parentIds)
		if err != nil {
			return nil, err
		}
		r.Entities = append(r.Entities, e)
	}
	return r, nil
}
