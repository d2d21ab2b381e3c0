package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/opst/sciportal/pkg/configs/profiles"
	"github.com/opst/sciportal/pkg/rest"
	"github.com/opst/sciportal/pkg/utils/try"
)

type request struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	ContentType   string
	Body          []byte
}

// recorder is a http.Handler responding with fixed status and body.
type recorder struct {
	status int
	body   string

	requests []request
}

func (rec *recorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	rec.requests = append(rec.requests, request{
		Method:        r.Method,
		Path:          r.URL.Path,
		Query:         r.URL.RawQuery,
		Authorization: r.Header.Get("Authorization"),
		ContentType:   r.Header.Get("Content-Type"),
		Body:          body,
	})
	if rec.body != "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(rec.status)
	w.Write([]byte(rec.body))
}

func newClient(t *testing.T, server *httptest.Server, opts ...rest.Option) rest.Client {
	t.Helper()
	prof := &profiles.Profile{Origin: server.URL, Token: "token-in-profile"}
	return try.To(rest.NewClient(prof, opts...)).OrFatal(t)
}

func TestNewClient(t *testing.T) {
	_, err := rest.NewClient(&profiles.Profile{Origin: "not a url"})
	if !errors.Is(err, profiles.ErrProfileInvalid) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestClient_Methods(t *testing.T) {
	type when struct {
		call func(context.Context, rest.Client, string) (json.RawMessage, error)
	}
	type then struct {
		method      string
		contentType string
		body        string
	}

	theory := func(when when, then then) func(*testing.T) {
		return func(t *testing.T) {
			rec := &recorder{status: http.StatusOK, body: `{"id": 1, "name": "g1"}`}
			server := httptest.NewServer(rec)
			defer server.Close()

			testee := newClient(t, server)
			root := rest.Root(server.URL, "v1")
			resp := try.To(when.call(context.Background(), testee, root("core", "groups"))).OrFatal(t)

			got := map[string]any{}
			if err := json.Unmarshal(resp, &got); err != nil {
				t.Fatal(err)
			}
			if got["name"] != "g1" {
				t.Errorf("response: %s", resp)
			}

			if len(rec.requests) != 1 {
				t.Fatalf("requests: %d", len(rec.requests))
			}
			req := rec.requests[0]
			if req.Method != then.method || req.Path != "/api/v1/core/groups/" {
				t.Errorf("request: %s %s", req.Method, req.Path)
			}
			if req.Authorization != "Bearer token-in-profile" {
				t.Errorf("authorization: %q", req.Authorization)
			}
			if !strings.HasPrefix(req.ContentType, then.contentType) {
				t.Errorf("content type: %q", req.ContentType)
			}
			if then.body != "" && string(req.Body) != then.body {
				t.Errorf("request body: %s", req.Body)
			}
		}
	}

	t.Run("get", theory(
		when{call: func(ctx context.Context, c rest.Client, u string) (json.RawMessage, error) {
			return c.Get(ctx, u)
		}},
		then{method: http.MethodGet},
	))
	t.Run("post", theory(
		when{call: func(ctx context.Context, c rest.Client, u string) (json.RawMessage, error) {
			return c.Post(ctx, u, map[string]any{"name": "g1"})
		}},
		then{method: http.MethodPost, contentType: "application/json", body: `{"name":"g1"}`},
	))
	t.Run("patch", theory(
		when{call: func(ctx context.Context, c rest.Client, u string) (json.RawMessage, error) {
			return c.Patch(ctx, u, map[string]any{"name": "g1"})
		}},
		then{method: http.MethodPatch, contentType: "application/json", body: `{"name":"g1"}`},
	))
	t.Run("upload", theory(
		when{call: func(ctx context.Context, c rest.Client, u string) (json.RawMessage, error) {
			return c.Upload(ctx, u, "file", "data.csv", strings.NewReader("a,b\n1,2\n"))
		}},
		then{method: http.MethodPost, contentType: "multipart/form-data"},
	))
}

func TestClient_Delete(t *testing.T) {
	rec := &recorder{status: http.StatusNoContent}
	server := httptest.NewServer(rec)
	defer server.Close()

	tokens := []string{"t1", ""}
	testee := newClient(t, server, rest.WithTokenSource(func() string {
		tok := tokens[0]
		tokens = tokens[1:]
		return tok
	}))
	u := rest.Root(server.URL, "v1")("core", "groups", "3") + "?force=true"

	if err := testee.Delete(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	if err := testee.Delete(context.Background(), u); err != nil {
		t.Fatal(err)
	}

	if req := rec.requests[0]; req.Method != http.MethodDelete || req.Query != "force=true" || req.Authorization != "Bearer t1" {
		t.Errorf("request: %+v", req)
	}
	if req := rec.requests[1]; req.Authorization != "" {
		t.Errorf("authorization is sent without token: %q", req.Authorization)
	}
}

func TestClient_Errors(t *testing.T) {
	type when struct {
		status int
		body   string
	}
	type then struct {
		is          []error
		isNot       []error
		reason      string
		fieldErrors map[string]string
	}

	theory := func(when when, then then) func(*testing.T) {
		return func(t *testing.T) {
			server := httptest.NewServer(&recorder{status: when.status, body: when.body})
			defer server.Close()

			testee := newClient(t, server)
			_, err := testee.Get(context.Background(), rest.Root(server.URL, "v1")("core"))
			for _, target := range then.is {
				if !errors.Is(err, target) {
					t.Errorf("error is not %v: %v", target, err)
				}
			}
			for _, target := range then.isNot {
				if errors.Is(err, target) {
					t.Errorf("error is %v unexpectedly: %v", target, err)
				}
			}

			he, ok := rest.AsHttpError(err)
			if !ok {
				t.Fatalf("not HttpError: %v", err)
			}
			if he.Status != when.status {
				t.Errorf("status: %d", he.Status)
			}
			if he.Reason != then.reason {
				t.Errorf("reason: %q", he.Reason)
			}
			fe := he.FieldErrors()
			if len(fe) != len(then.fieldErrors) {
				t.Errorf("field errors: %v", fe)
			}
			for k, v := range then.fieldErrors {
				if fe[k] != v {
					t.Errorf("field error %s: %q (want %q)", k, fe[k], v)
				}
			}
		}
	}

	t.Run("400 with field errors", theory(
		when{
			status: http.StatusBadRequest,
			body: `{
				"name": "validation",
				"reason": "invalid input",
				"info": {"name": ["This field is required."], "governor": "Select a user."}
			}`,
		},
		then{
			is:     []error{rest.ErrHttp, rest.ErrBadRequest},
			isNot:  []error{rest.ErrNotFound, rest.ErrUnauthorized, rest.ErrActionRequired},
			reason: "invalid input",
			fieldErrors: map[string]string{
				"name": "This field is required.", "governor": "Select a user.",
			},
		},
	))
	t.Run("400 requiring action", theory(
		when{
			status: http.StatusBadRequest,
			body:   `{"name": "action_required", "reason": "group has projects"}`,
		},
		then{
			is:     []error{rest.ErrHttp, rest.ErrBadRequest, rest.ErrActionRequired},
			reason: "group has projects",
		},
	))
	t.Run("401", theory(
		when{status: http.StatusUnauthorized, body: `{"reason": "token expired"}`},
		then{is: []error{rest.ErrHttp, rest.ErrUnauthorized}, isNot: []error{rest.ErrBadRequest}, reason: "token expired"},
	))
	t.Run("403", theory(
		when{status: http.StatusForbidden, body: `{"message": "forbidden"}`},
		then{is: []error{rest.ErrHttp, rest.ErrUnauthorized}, reason: "forbidden"},
	))
	t.Run("404 with non json body", theory(
		when{status: http.StatusNotFound, body: `no such page`},
		then{is: []error{rest.ErrHttp, rest.ErrNotFound}, isNot: []error{rest.ErrBadRequest}},
	))
	t.Run("500", theory(
		when{status: http.StatusInternalServerError},
		then{is: []error{rest.ErrHttp}, isNot: []error{rest.ErrBadRequest, rest.ErrNotFound, rest.ErrUnauthorized}},
	))
}

func TestHttpError_FieldErrors_nested(t *testing.T) {
	he := &rest.HttpError{
		Status: http.StatusBadRequest,
		ErrorMessage: rest.ErrorMessage{
			Info: map[string]any{
				"settings": map[string]any{"threshold": []any{"too large", "not integer"}},
			},
		},
	}
	got := he.FieldErrors()
	if got["settings.threshold"] != "too large not integer" {
		t.Errorf("field errors: %v", got)
	}
}

func TestRoot(t *testing.T) {
	root := rest.Root("https://portal.example.com/", "/v1/")
	for name, testcase := range map[string]struct {
		when []string
		then string
	}{
		"api root": {
			when: nil,
			then: "https://portal.example.com/api/v1/",
		},
		"segments": {
			when: []string{"core", "groups", "12"},
			then: "https://portal.example.com/api/v1/core/groups/12/",
		},
		"slashes in segments": {
			when: []string{"/core/projects/", "3/data"},
			then: "https://portal.example.com/api/v1/core/projects/3/data/",
		},
		"escaped": {
			when: []string{"core", "groups", "a b"},
			then: "https://portal.example.com/api/v1/core/groups/a%20b/",
		},
	} {
		t.Run(name, func(t *testing.T) {
			if got := root(testcase.when...); got != testcase.then {
				t.Errorf("got %s, want %s", got, testcase.then)
			}
		})
	}
}
