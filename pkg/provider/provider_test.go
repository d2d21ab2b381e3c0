package provider_test

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/opst/sciportal/pkg/entity"
	"github.com/opst/sciportal/pkg/entity/field"
	"github.com/opst/sciportal/pkg/provider"
	"github.com/opst/sciportal/pkg/rest"
	"github.com/opst/sciportal/pkg/rest/mock"
	"github.com/opst/sciportal/pkg/utils/try"
)

var root = rest.Root("https://portal.example.com", "v1")

func dataSchema() *entity.Schema {
	return entity.NewSchema("data").
		Field("name", field.NewString(field.Required())).
		Field("size", field.NewReadOnly(field.NewInteger())).
		Field("note", field.NewString()).
		MustBuild()
}

func TestCollectionPath(t *testing.T) {
	for name, testcase := range map[string]struct {
		template  string
		parentIds []string
		then      string
		err       error
	}{
		"no placeholders": {
			template: "core/groups", then: "core/groups",
		},
		"placeholders are replaced from left": {
			template: "core/projects/:id:/data/:id:/files", parentIds: []string{"3", "8"},
			then: "core/projects/3/data/8/files",
		},
		"too few ids": {
			template: "core/projects/:id:/data", err: provider.ErrPathTemplate,
		},
	} {
		t.Run(name, func(t *testing.T) {
			hr := provider.New(mock.New(t), root, testcase.template)
			got, err := hr.CollectionPath(testcase.parentIds)
			if testcase.err != nil {
				if !errors.Is(err, testcase.err) {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != testcase.then {
				t.Errorf("got %s, want %s", got, testcase.then)
			}
		})
	}
}

func TestHttpRequest_Create(t *testing.T) {
	ctx := context.Background()
	client := mock.New(t)
	client.Impl.Post = func(ctx context.Context, url string, body any) (json.RawMessage, error) {
		return json.RawMessage(`{"id": 15, "name": "raw.csv", "size": 2048, "note": ""}`), nil
	}
	hr := provider.New(client, root, "core/projects/:id:/data", provider.WithExcluded("note"))
	kind := try.To(entity.NewKind(dataSchema(), hr)).OrFatal(t)

	e := try.To(kind.New(
		map[string]any{"name": "raw.csv", "note": "local only"},
		entity.WithParentIds("3"),
	)).OrFatal(t)
	if err := e.Create(ctx); err != nil {
		t.Fatal(err)
	}

	if e.Id() != "15" || e.State() != entity.Saved {
		t.Errorf("after create: %s", e)
	}
	if got := try.To(e.Value("size")).OrFatal(t); got != int64(2048) {
		t.Errorf("size: %#v", got)
	}
	if len(client.Calls.Post) != 1 {
		t.Fatalf("posts: %v", client.Calls.Post)
	}
	call := client.Calls.Post[0]
	if call.Url != "https://portal.example.com/api/v1/core/projects/3/data/" {
		t.Errorf("url: %s", call.Url)
	}
	body := call.Body.(map[string]any)
	if _, ok := body["note"]; ok {
		t.Errorf("excluded property is sent: %v", body)
	}
	if _, ok := body["size"]; ok {
		t.Errorf("read-only property is sent: %v", body)
	}
	if _, ok := body["id"]; ok {
		t.Errorf("id is sent: %v", body)
	}
	if body["name"] != "raw.csv" {
		t.Errorf("body: %v", body)
	}
}

func loadedData(t *testing.T, client rest.Client, opts ...provider.Option) (*provider.HttpRequest, *entity.Entity) {
	t.Helper()
	hr := provider.New(client, root, "core/projects/:id:/data", opts...)
	kind := try.To(entity.NewKind(dataSchema(), hr)).OrFatal(t)
	return hr, try.To(kind.Get(context.Background(), "15", "3")).OrFatal(t)
}

func TestHttpRequest_Load(t *testing.T) {
	client := mock.New(t)
	client.Impl.Get = func(ctx context.Context, url string) (json.RawMessage, error) {
		return json.RawMessage(`{"id": "15", "name": "raw.csv", "size": 2048, "extra": true}`), nil
	}
	_, e := loadedData(t, client)

	if got := client.Calls.Get; !slices.Equal(got, []string{"https://portal.example.com/api/v1/core/projects/3/data/15/"}) {
		t.Errorf("get: %v", got)
	}
	if e.State() != entity.Loaded || e.Id() != "15" {
		t.Errorf("loaded: %s", e)
	}
	if got := e.ParentIds(); !slices.Equal(got, []string{"3"}) {
		t.Errorf("parent ids: %v", got)
	}
}

func TestHttpRequest_Load_notFound(t *testing.T) {
	client := mock.New(t)
	client.Impl.Get = func(ctx context.Context, url string) (json.RawMessage, error) {
		return nil, &rest.HttpError{Status: 404}
	}
	hr := provider.New(client, root, "core/groups")
	kind := try.To(entity.NewKind(dataSchema(), hr)).OrFatal(t)
	if _, err := kind.Get(context.Background(), "9"); !errors.Is(err, rest.ErrNotFound) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestHttpRequest_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("changed properties are patched", func(t *testing.T) {
		client := mock.New(t)
		client.Impl.Get = func(ctx context.Context, url string) (json.RawMessage, error) {
			return json.RawMessage(`{"id": 15, "name": "raw.csv", "size": 2048}`), nil
		}
		client.Impl.Patch = func(ctx context.Context, url string, body any) (json.RawMessage, error) {
			return json.RawMessage(`{"id": 15, "name": "renamed.csv", "size": 4096}`), nil
		}
		_, e := loadedData(t, client)

		try.To(struct{}{}, e.Set("name", "renamed.csv")).OrFatal(t)
		try.To(struct{}{}, e.Update(ctx)).OrFatal(t)

		if len(client.Calls.Patch) != 1 {
			t.Fatalf("patches: %v", client.Calls.Patch)
		}
		call := client.Calls.Patch[0]
		if call.Url != "https://portal.example.com/api/v1/core/projects/3/data/15/" {
			t.Errorf("url: %s", call.Url)
		}
		if body := call.Body.(map[string]any); len(body) != 1 || body["name"] != "renamed.csv" {
			t.Errorf("body: %v", body)
		}
		if got := try.To(e.Value("size")).OrFatal(t); got != int64(4096) {
			t.Errorf("size is not merged: %#v", got)
		}
	})

	t.Run("nothing to send, nothing is sent", func(t *testing.T) {
		client := mock.New(t)
		client.Impl.Get = func(ctx context.Context, url string) (json.RawMessage, error) {
			return json.RawMessage(`{"id": 15, "name": "raw.csv"}`), nil
		}
		_, e := loadedData(t, client, provider.WithOnly("name"))

		try.To(struct{}{}, e.Set("note", "memo")).OrFatal(t)
		try.To(struct{}{}, e.Update(ctx)).OrFatal(t)
		if len(client.Calls.Patch) != 0 {
			t.Errorf("patched: %v", client.Calls.Patch)
		}
		if e.State() != entity.Saved {
			t.Errorf("state: %s", e.State())
		}
	})

	t.Run("rejected update surfaces field errors", func(t *testing.T) {
		client := mock.New(t)
		client.Impl.Get = func(ctx context.Context, url string) (json.RawMessage, error) {
			return json.RawMessage(`{"id": 15, "name": "raw.csv"}`), nil
		}
		client.Impl.Patch = func(ctx context.Context, url string, body any) (json.RawMessage, error) {
			return nil, &rest.HttpError{
				Status: 400,
				ErrorMessage: rest.ErrorMessage{
					Info: map[string]any{"name": "already exists"},
				},
			}
		}
		_, e := loadedData(t, client)

		try.To(struct{}{}, e.Set("name", "dup.csv")).OrFatal(t)
		err := e.Update(ctx)
		he, ok := rest.AsHttpError(err)
		if !ok {
			t.Fatalf("unexpected error: %v", err)
		}
		if he.FieldErrors()["name"] != "already exists" {
			t.Errorf("field errors: %v", he.FieldErrors())
		}
		if e.State() != entity.Changed {
			t.Errorf("state: %s", e.State())
		}
	})
}

func TestHttpRequest_Delete(t *testing.T) {
	ctx := context.Background()
	for name, testcase := range map[string]struct {
		force bool
		then  string
	}{
		"plain": {then: "https://portal.example.com/api/v1/core/projects/3/data/15/"},
		"force": {force: true, then: "https://portal.example.com/api/v1/core/projects/3/data/15/?force=true"},
	} {
		t.Run(name, func(t *testing.T) {
			client := mock.New(t)
			client.Impl.Get = func(ctx context.Context, url string) (json.RawMessage, error) {
				return json.RawMessage(`{"id": 15, "name": "raw.csv"}`), nil
			}
			client.Impl.Delete = func(ctx context.Context, url string) error { return nil }
			_, e := loadedData(t, client)

			if testcase.force {
				try.To(struct{}{}, e.ForceDelete(ctx)).OrFatal(t)
			} else {
				try.To(struct{}{}, e.Delete(ctx)).OrFatal(t)
			}
			if got := client.Calls.Delete; !slices.Equal(got, []string{testcase.then}) {
				t.Errorf("delete: %v", got)
			}
		})
	}
}

func TestHttpRequest_Find(t *testing.T) {
	ctx := context.Background()

	t.Run("flat list", func(t *testing.T) {
		client := mock.New(t)
		client.Impl.Get = func(ctx context.Context, url string) (json.RawMessage, error) {
			return json.RawMessage(`[{"id": 1, "name": "a"}, {"id": 2, "name": "b"}]`), nil
		}
		hr := provider.New(client, root, "core/projects/:id:/data")
		kind := try.To(entity.NewKind(dataSchema(), hr)).OrFatal(t)

		since := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
		r := try.To(kind.Find(ctx, entity.SearchParams{
			"name":      "a",
			"type":      []string{"csv", "tsv"},
			"since":     since,
			"_internal": "not to be sent",
		}.WithParentIds("3"))).OrFatal(t)

		want := "https://portal.example.com/api/v1/core/projects/3/data/" +
			"?name=a&since=2024-04-01T12%3A00%3A00Z&type=csv&type=tsv"
		if got := client.Calls.Get; !slices.Equal(got, []string{want}) {
			t.Errorf("get: %v", got)
		}
		if r.Paginated || len(r.Entities) != 2 {
			t.Fatalf("result: %+v", r)
		}
		for _, e := range r.Entities {
			if e.State() != entity.Found {
				t.Errorf("state: %s", e)
			}
			if got := e.ParentIds(); !slices.Equal(got, []string{"3"}) {
				t.Errorf("parent ids: %v", got)
			}
		}
	})

	t.Run("page", func(t *testing.T) {
		pages := map[string]string{
			"https://portal.example.com/api/v1/core/groups/": `{
				"count": 3,
				"next": "https://portal.example.com/api/v1/core/groups/?page=2",
				"previous": null,
				"results": [{"id": 1, "name": "a"}, {"id": 2, "name": "b"}]
			}`,
			"https://portal.example.com/api/v1/core/groups/?page=2": `{
				"count": 3,
				"next": null,
				"previous": "https://portal.example.com/api/v1/core/groups/",
				"results": [{"id": 3, "name": "c"}]
			}`,
		}
		client := mock.New(t)
		client.Impl.Get = func(ctx context.Context, url string) (json.RawMessage, error) {
			return json.RawMessage(pages[url]), nil
		}
		hr := provider.New(client, root, "core/groups")
		kind := try.To(entity.NewKind(dataSchema(), hr)).OrFatal(t)
		class := entity.NewClass(kind, func(e *entity.Entity) *entity.Entity { return e })

		l := try.To(class.Find(ctx, nil)).OrFatal(t)
		page, ok := l.(*entity.Page[*entity.Entity])
		if !ok {
			t.Fatalf("not a page: %T", l)
		}
		if page.Count() != 3 || page.Len() != 2 || !page.IsFirstPage() || page.IsLastPage() {
			t.Errorf("first page: count=%d len=%d", page.Count(), page.Len())
		}
		try.To(struct{}{}, page.Next(ctx)).OrFatal(t)
		if page.Len() != 1 || !page.IsLastPage() || page.IsFirstPage() {
			t.Errorf("second page: len=%d", page.Len())
		}
		if got := page.Items()[0].Id(); got != "3" {
			t.Errorf("id: %s", got)
		}
	})

	t.Run("unexpected shape", func(t *testing.T) {
		client := mock.New(t)
		client.Impl.Get = func(ctx context.Context, url string) (json.RawMessage, error) {
			return json.RawMessage(`{"items": []}`), nil
		}
		hr := provider.New(client, root, "core/groups")
		kind := try.To(entity.NewKind(dataSchema(), hr)).OrFatal(t)
		if _, err := kind.Find(ctx, nil); !errors.Is(err, provider.ErrUnexpectedResponse) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestHttpRequest_SideResource(t *testing.T) {
	ctx := context.Background()
	client := mock.New(t)
	client.Impl.Get = func(ctx context.Context, url string) (json.RawMessage, error) {
		return json.RawMessage(`{"id": 15, "name": "raw.csv"}`), nil
	}
	client.Impl.Patch = func(ctx context.Context, url string, body any) (json.RawMessage, error) {
		return nil, nil
	}
	client.Impl.Delete = func(ctx context.Context, url string) error { return nil }

	base := provider.New(client, root, "core/data", provider.WithExcluded("note"))
	side := provider.New(
		client, root, "core/data",
		provider.WithOnly("note"), provider.WithDetailSuffix("note"), provider.UpdateOnly(),
	)
	kind := try.To(entity.NewKind(dataSchema(), base, side)).OrFatal(t)
	e := try.To(kind.Get(ctx, "15")).OrFatal(t)

	try.To(struct{}{}, e.Set("name", "renamed.csv")).OrFatal(t)
	try.To(struct{}{}, e.Set("note", "memo")).OrFatal(t)
	try.To(struct{}{}, e.Update(ctx)).OrFatal(t)
	try.To(struct{}{}, e.Delete(ctx)).OrFatal(t)

	patched := map[string]any{}
	for _, c := range client.Calls.Patch {
		patched[c.Url] = c.Body
	}
	if body, ok := patched["https://portal.example.com/api/v1/core/data/15/"].(map[string]any); !ok || body["name"] != "renamed.csv" || len(body) != 1 {
		t.Errorf("base patch: %v", patched)
	}
	if body, ok := patched["https://portal.example.com/api/v1/core/data/15/note/"].(map[string]any); !ok || body["note"] != "memo" || len(body) != 1 {
		t.Errorf("side patch: %v", patched)
	}
	if got := client.Calls.Delete; len(got) != 1 {
		t.Errorf("deletes: %v", got)
	}
}

func TestHttpRequest_Upload(t *testing.T) {
	ctx := context.Background()
	client := mock.New(t)
	client.Impl.Get = func(ctx context.Context, url string) (json.RawMessage, error) {
		return json.RawMessage(`{"id": 15, "name": "raw.csv"}`), nil
	}
	client.Impl.Upload = func(ctx context.Context, url string, fieldname string, filename string, content []byte) (json.RawMessage, error) {
		return json.RawMessage(`{"id": 15, "size": 7}`), nil
	}
	hr, e := loadedData(t, client)

	if err := hr.Upload(ctx, e, "file", "raw.csv", bytesReader("a,b,c\n")); err != nil {
		t.Fatal(err)
	}
	up := client.Calls.Upload
	if len(up) != 1 || up[0].Url != "https://portal.example.com/api/v1/core/projects/3/data/15/file/" || string(up[0].Content) != "a,b,c\n" {
		t.Errorf("upload: %+v", up)
	}
	if got := try.To(e.Value("size")).OrFatal(t); got != int64(7) {
		t.Errorf("size: %#v", got)
	}
}
