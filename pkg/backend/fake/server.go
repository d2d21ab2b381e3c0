// Package fake is an in-memory portal backend for tests and local development.
//
// It serves REST resources described by Config under /api/{version}/.
package fake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/opst/sciportal/pkg/echoutil"
)

const placeholder = ":id:"

// ErrorMessage is the body of error responses.
type ErrorMessage struct {
	Name   string         `json:"name,omitempty"`
	Reason string         `json:"reason"`
	Advice string         `json:"advice,omitempty"`
	Info   map[string]any `json:"info,omitempty"`
}

// Server is a fake backend.
type Server struct {
	conf  Config
	echo  *echo.Echo
	store *store

	mu       sync.Mutex
	requests map[string]int
}

type Option func(*Server) *Server

// WithLogLevel sets the log level: debug, info, warn, error or off.
func WithLogLevel(level string) Option {
	return func(s *Server) *Server {
		echoutil.SetLevel(s.echo, level)
		return s
	}
}

// WithRequestLog logs each request and response.
func WithRequestLog() Option {
	return func(s *Server) *Server {
		s.echo.Use(echoutil.LogHandlerFunc)
		return s
	}
}

func New(conf Config, opts ...Option) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Pre(middleware.AddTrailingSlash())

	s := &Server{
		conf:     conf,
		echo:     e,
		store:    newStore(conf),
		requests: map[string]int{},
	}
	echoutil.SetLevel(e, "off")
	for _, o := range opts {
		s = o(s)
	}
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		e.DefaultHTTPErrorHandler(err, c)
		e.Logger.Error(err)
	}
	e.Use(s.count)

	api := s.api
	auth := s.authenticate
	e.POST(api("accounts/login"), s.login)
	for _, r := range conf.Resources {
		collection, detail := routes(r.Path)
		e.GET(api(collection), s.list(r), auth)
		e.GET(api(detail), s.get(r), auth)
		if r.ReadOnlyCollection {
			continue
		}
		e.POST(api(collection), s.create(r), auth)
		e.PATCH(api(detail), s.update(r), auth)
		e.DELETE(api(detail), s.delete(r), auth)
		for _, side := range r.Sides {
			e.PATCH(api(detail, side), s.updateSide(r, side), auth)
		}
		for _, file := range r.Files {
			e.POST(api(detail, file), s.upload(r, file), auth)
		}
	}
	e.GET("/media/*", s.media)
	return s
}

// Handler returns http.Handler of the server.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	if err := s.echo.Start(addr); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartTLS is Start with TLS.
func (s *Server) StartTLS(addr string, cert string, key string) error {
	if err := s.echo.StartTLS(addr, cert, key); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Requests returns the number of requests by "METHOD /path/".
func (s *Server) Requests() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.requests)
}

// RequestCount returns the number of all requests.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.requests {
		n += c
	}
	return n
}

func (s *Server) count(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		s.requests[c.Request().Method+" "+c.Request().URL.Path] += 1
		s.mu.Unlock()
		return next(c)
	}
}

// api builds echo route under /api/{version}/ with trailing slash.
func (s *Server) api(subpath ...string) string {
	segs := []string{"", "api", s.conf.Version}
	for _, p := range subpath {
		segs = append(segs, strings.Trim(p, "/"))
	}
	return strings.Join(segs, "/") + "/"
}

// routes converts a template into echo routes of collection and detail.
//
// Placeholders become path parameters p0, p1, ... and the id of detail is the last one.
func routes(template string) (string, string) {
	segs := strings.Split(template, "/")
	n := 0
	for i, s := range segs {
		if s == placeholder {
			segs[i] = ":p" + strconv.Itoa(n)
			n += 1
		}
	}
	collection := strings.Join(segs, "/")
	return collection, collection + "/:p" + strconv.Itoa(n)
}

// params returns parent ids and, for detail routes, the lookup.
func params(c echo.Context, template string) ([]string, string) {
	n := strings.Count(template, placeholder)
	ids := make([]string, 0, n)
	for i := range n {
		ids = append(ids, c.Param("p"+strconv.Itoa(i)))
	}
	return ids, c.Param("p" + strconv.Itoa(n))
}

func respondError(c echo.Context, status int, msg ErrorMessage) error {
	return c.JSON(status, msg)
}

func notFound(c echo.Context) error {
	return respondError(c, http.StatusNotFound, ErrorMessage{
		Reason: "not found", Advice: "check the id or the alias",
	})
}

func decodeBody(c echo.Context) (map[string]any, error) {
	dec := json.NewDecoder(c.Request().Body)
	dec.UseNumber()
	body := map[string]any{}
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, respondError(c, http.StatusBadRequest, ErrorMessage{
			Reason: "request body is not a JSON object", Advice: err.Error(),
		})
	}
	return body, nil
}

func blank(v any) bool {
	switch vv := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(vv) == ""
	}
	return false
}

// validate checks required properties. When partial, missing ones are not checked.
func validate(r Resource, body map[string]any, partial bool) map[string]any {
	info := map[string]any{}
	for _, name := range r.Required {
		v, ok := body[name]
		if partial && !ok {
			continue
		}
		if blank(v) {
			info[name] = []any{"This field is required."}
		}
	}
	return info
}

func writable(r Resource, body map[string]any) map[string]any {
	ret := map[string]any{}
	for k, v := range body {
		if k == "id" || slices.Contains(r.ReadOnly, k) {
			continue
		}
		ret[k] = v
	}
	return ret
}

func (s *Server) list(r Resource) echo.HandlerFunc {
	return func(c echo.Context) error {
		ids, _ := params(c, r.Path)
		collection, err := concrete(r.Path, ids)
		if err != nil {
			return notFound(c)
		}

		query := c.QueryParams()
		s.store.mu.Lock()
		items := []map[string]any{}
		for _, item := range s.store.items[collection] {
			if matchQuery(item, query) {
				items = append(items, maps.Clone(item))
			}
		}
		s.store.mu.Unlock()

		if s.conf.PageSize <= 0 {
			return c.JSON(http.StatusOK, items)
		}

		page := 1
		if p := query.Get("page"); p != "" {
			n, err := strconv.Atoi(p)
			if err != nil || n < 1 {
				return notFound(c)
			}
			page = n
		}
		size := s.conf.PageSize
		from := (page - 1) * size
		if len(items) < from || (0 < from && len(items) == from) {
			return respondError(c, http.StatusNotFound, ErrorMessage{Reason: "invalid page"})
		}
		to := min(from+size, len(items))

		link := func(p int) any {
			u := *c.Request().URL
			q := u.Query()
			q.Set("page", strconv.Itoa(p))
			u.RawQuery = q.Encode()
			u.Scheme = c.Scheme()
			u.Host = c.Request().Host
			return u.String()
		}
		body := map[string]any{
			"count":    len(items),
			"next":     nil,
			"previous": nil,
			"results":  items[from:to],
		}
		if to < len(items) {
			body["next"] = link(page + 1)
		}
		if 1 < page {
			body["previous"] = link(page - 1)
		}
		return c.JSON(http.StatusOK, body)
	}
}

func matchQuery(item map[string]any, query map[string][]string) bool {
	for k, vs := range query {
		if k == "page" {
			continue
		}
		v, ok := item[k]
		if !ok {
			continue
		}
		if !slices.Contains(vs, fmt.Sprint(v)) {
			return false
		}
	}
	return true
}

func (s *Server) get(r Resource) echo.HandlerFunc {
	return func(c echo.Context) error {
		ids, lookup := params(c, r.Path)
		collection, err := concrete(r.Path, ids)
		if err != nil {
			return notFound(c)
		}
		s.store.mu.Lock()
		defer s.store.mu.Unlock()
		i, ok := s.store.find(collection, r.Lookup, lookup)
		if !ok {
			return notFound(c)
		}
		return c.JSON(http.StatusOK, s.store.items[collection][i])
	}
}

func (s *Server) create(r Resource) echo.HandlerFunc {
	return func(c echo.Context) error {
		ids, _ := params(c, r.Path)
		collection, err := concrete(r.Path, ids)
		if err != nil {
			return notFound(c)
		}
		body, err := decodeBody(c)
		if body == nil {
			return err
		}
		if info := validate(r, body, false); 0 < len(info) {
			return respondError(c, http.StatusBadRequest, ErrorMessage{
				Name: "validation", Reason: "invalid input", Info: info,
			})
		}

		item := maps.Clone(r.Defaults)
		if item == nil {
			item = map[string]any{}
		}
		maps.Copy(item, writable(r, body))
		if r.ParentField != "" && 0 < len(ids) {
			item[r.ParentField] = json.Number(ids[len(ids)-1])
		}

		s.store.mu.Lock()
		defer s.store.mu.Unlock()
		item["id"] = s.store.issueId(collection)
		s.store.items[collection] = append(s.store.items[collection], item)
		return c.JSON(http.StatusCreated, item)
	}
}

func (s *Server) update(r Resource) echo.HandlerFunc {
	return func(c echo.Context) error {
		ids, lookup := params(c, r.Path)
		collection, err := concrete(r.Path, ids)
		if err != nil {
			return notFound(c)
		}
		body, err := decodeBody(c)
		if body == nil {
			return err
		}
		if info := validate(r, body, true); 0 < len(info) {
			return respondError(c, http.StatusBadRequest, ErrorMessage{
				Name: "validation", Reason: "invalid input", Info: info,
			})
		}

		s.store.mu.Lock()
		defer s.store.mu.Unlock()
		i, ok := s.store.find(collection, r.Lookup, lookup)
		if !ok {
			return notFound(c)
		}
		item := s.store.items[collection][i]
		maps.Copy(item, writable(r, body))
		return c.JSON(http.StatusOK, item)
	}
}

func (s *Server) updateSide(r Resource, side string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ids, lookup := params(c, r.Path)
		collection, err := concrete(r.Path, ids)
		if err != nil {
			return notFound(c)
		}
		body, err := decodeBody(c)
		if body == nil {
			return err
		}
		v, ok := body[side]
		if !ok {
			return respondError(c, http.StatusBadRequest, ErrorMessage{
				Name: "validation", Reason: "invalid input",
				Info: map[string]any{side: []any{"This field is required."}},
			})
		}

		s.store.mu.Lock()
		defer s.store.mu.Unlock()
		i, ok := s.store.find(collection, r.Lookup, lookup)
		if !ok {
			return notFound(c)
		}
		item := s.store.items[collection][i]
		item[side] = v
		return c.JSON(http.StatusOK, map[string]any{"id": item["id"], side: v})
	}
}

func (s *Server) delete(r Resource) echo.HandlerFunc {
	return func(c echo.Context) error {
		ids, lookup := params(c, r.Path)
		collection, err := concrete(r.Path, ids)
		if err != nil {
			return notFound(c)
		}
		force := c.QueryParam("force") == "true"

		s.store.mu.Lock()
		defer s.store.mu.Unlock()
		i, ok := s.store.find(collection, r.Lookup, lookup)
		if !ok {
			return notFound(c)
		}
		id := fmt.Sprint(s.store.items[collection][i]["id"])

		if refs := s.referrers(r, id); 0 < len(refs) && !force {
			return respondError(c, http.StatusBadRequest, ErrorMessage{
				Name:   "action_required",
				Reason: fmt.Sprintf("%d items refer this", len(refs)),
				Advice: "delete with force=true to delete them together",
			})
		}
		s.remove(r, collection, id)
		return c.NoContent(http.StatusNoContent)
	}
}

type ref struct {
	resource   Resource
	collection string
	id         string
}

// referrers finds items referring the item by guards.
//
// s.store.mu should be locked.
func (s *Server) referrers(r Resource, id string) []ref {
	refs := []ref{}
	for _, g := range r.Guards {
		gr, ok := s.resource(g.Resource)
		if !ok {
			continue
		}
		for collection := range s.store.collectionsOf(gr.Path) {
			for _, item := range s.store.items[collection] {
				if fmt.Sprint(item[g.Field]) == id {
					refs = append(refs, ref{resource: gr, collection: collection, id: fmt.Sprint(item["id"])})
				}
			}
		}
	}
	return refs
}

// remove deletes the item and items referring it, recursively.
//
// s.store.mu should be locked.
func (s *Server) remove(r Resource, collection string, id string) {
	for _, rf := range s.referrers(r, id) {
		s.remove(rf.resource, rf.collection, rf.id)
	}
	s.store.items[collection] = slices.DeleteFunc(
		s.store.items[collection],
		func(item map[string]any) bool { return fmt.Sprint(item["id"]) == id },
	)
}

func (s *Server) resource(path string) (Resource, bool) {
	for _, r := range s.conf.Resources {
		if r.Path == strings.Trim(path, "/") {
			return r, true
		}
	}
	return Resource{}, false
}

func (s *Server) upload(r Resource, file string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ids, lookup := params(c, r.Path)
		collection, err := concrete(r.Path, ids)
		if err != nil {
			return notFound(c)
		}
		fh, err := c.FormFile(file)
		if err != nil {
			return respondError(c, http.StatusBadRequest, ErrorMessage{
				Name: "validation", Reason: "no file is sent",
				Info: map[string]any{file: []any{"No file was submitted."}},
			})
		}
		f, err := fh.Open()
		if err != nil {
			return err
		}
		defer f.Close()
		content, err := io.ReadAll(f)
		if err != nil {
			return err
		}

		s.store.mu.Lock()
		defer s.store.mu.Unlock()
		i, ok := s.store.find(collection, r.Lookup, lookup)
		if !ok {
			return notFound(c)
		}
		item := s.store.items[collection][i]
		mediaPath := "/media/" + collection + "/" + fmt.Sprint(item["id"]) + "/" + fh.Filename
		s.store.files[mediaPath] = content
		item[file] = c.Scheme() + "://" + c.Request().Host + mediaPath
		if r.SizeField != "" {
			item[r.SizeField] = len(content)
		}
		item["uploaded_at"] = time.Now().UTC().Format(time.RFC3339)
		return c.JSON(http.StatusOK, item)
	}
}

func (s *Server) media(c echo.Context) error {
	path := strings.TrimSuffix(c.Request().URL.Path, "/")
	s.store.mu.Lock()
	content, ok := s.store.files[path]
	s.store.mu.Unlock()
	if !ok {
		return notFound(c)
	}
	return c.Blob(http.StatusOK, "application/octet-stream", content)
}
