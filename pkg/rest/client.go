// Package rest is a JSON-over-HTTP client of portal servers.
package rest

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/opst/sciportal/pkg/configs/profiles"
	"github.com/opst/sciportal/pkg/logger"
)

// Client sends requests to a portal server.
//
// URLs given to methods are absolute. Build them with Root.
//
// Responses with status 4xx or 5xx are returned as *HttpError.
// Empty responses (e.g. 204 No Content) are returned as nil.
type Client interface {
	// Get sends GET and returns the response body.
	Get(ctx context.Context, url string) (json.RawMessage, error)

	// Post sends body as JSON with POST and returns the response body.
	Post(ctx context.Context, url string, body any) (json.RawMessage, error)

	// Patch sends body as JSON with PATCH and returns the response body.
	Patch(ctx context.Context, url string, body any) (json.RawMessage, error)

	// Delete sends DELETE.
	Delete(ctx context.Context, url string) error

	// Upload sends content as a file in multipart/form-data with POST.
	//
	// # Args
	//
	// - url: destination.
	//
	// - fieldname: name of the form field carrying the file.
	//
	// - filename: name of the file told to the server.
	//
	// - content: file content. It is read until EOF.
	Upload(ctx context.Context, url string, fieldname string, filename string, content io.Reader) (json.RawMessage, error)
}

type client struct {
	httpclient *http.Client
	token      func() string
	logger     *log.Logger
}

type Option func(*client) *client

// WithHttpClient replaces the underlying *http.Client.
//
// CA certificates in the profile are added to its transport.
func WithHttpClient(hc *http.Client) Option {
	return func(c *client) *client {
		c.httpclient = hc
		return c
	}
}

// WithTokenSource makes the client ask a token for each request.
//
// When the source returns "", no Authorization header is sent.
// Without this option, the token in the profile is used.
func WithTokenSource(source func() string) Option {
	return func(c *client) *client {
		c.token = source
		return c
	}
}

// WithLogger sets the logger of requests. Default is logger.Null().
func WithLogger(l *log.Logger) Option {
	return func(c *client) *client {
		c.logger = l
		return c
	}
}

// NewClient creates a client for the server in the profile.
//
// # Returns
//
// - Client
//
// - error: profiles.ErrProfileInvalid if the profile is invalid,
// or error on configuring CA certificates.
func NewClient(prof *profiles.Profile, opts ...Option) (Client, error) {
	if err := prof.Verify(); err != nil {
		return nil, err
	}
	token := prof.Token
	c := &client{
		httpclient: new(http.Client),
		token:      func() string { return token },
		logger:     logger.Null(),
	}
	for _, o := range opts {
		c = o(c)
	}

	if prof.Cert.CA != "" {
		hc, err := trustCa(c.httpclient, prof.Cert.CA)
		if err != nil {
			return nil, err
		}
		c.httpclient = hc
	}
	return c, nil
}

// trustCa returns a copy of hc trusting CA certificates additionally.
func trustCa(hc *http.Client, cacerts ...string) (*http.Client, error) {
	tran, ok := hc.Transport.(*http.Transport)
	if hc.Transport == nil {
		tran, ok = http.DefaultTransport.(*http.Transport)
	}
	if !ok {
		return nil, fmt.Errorf("cannot add ca cert: transport is not *http.Transport")
	}
	tran = tran.Clone()

	tcc := tran.TLSClientConfig
	if tcc == nil {
		tcc = &tls.Config{}
	}
	if tcc.RootCAs == nil {
		pool, err := x509.SystemCertPool()
		if err != nil {
			pool = x509.NewCertPool()
		}
		tcc.RootCAs = pool
	}
	for _, ca := range cacerts {
		bin, err := base64.StdEncoding.DecodeString(ca)
		if err != nil {
			return nil, err
		}
		if !tcc.RootCAs.AppendCertsFromPEM(bin) {
			return nil, fmt.Errorf("cannot add ca cert: no certificates in PEM")
		}
	}
	tran.TLSClientConfig = tcc

	ret := *hc
	ret.Transport = tran
	return &ret, nil
}

func (c *client) Get(ctx context.Context, url string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, url, "", nil)
}

func (c *client) Post(ctx context.Context, url string, body any) (json.RawMessage, error) {
	return c.sendJson(ctx, http.MethodPost, url, body)
}

func (c *client) Patch(ctx context.Context, url string, body any) (json.RawMessage, error) {
	return c.sendJson(ctx, http.MethodPatch, url, body)
}

func (c *client) Delete(ctx context.Context, url string) error {
	_, err := c.do(ctx, http.MethodDelete, url, "", nil)
	return err
}

func (c *client) sendJson(ctx context.Context, method string, url string, body any) (json.RawMessage, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("cannot encode request body: %w", err)
	}
	return c.do(ctx, method, url, "application/json", bytes.NewReader(buf))
}

func (c *client) Upload(ctx context.Context, url string, fieldname string, filename string, content io.Reader) (json.RawMessage, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile(fieldname, filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, content); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()
	defer pr.Close()

	return c.do(ctx, http.MethodPost, url, mw.FormDataContentType(), pr)
}

func (c *client) do(ctx context.Context, method string, url string, contentType string, body io.Reader) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpclient.Do(req)
	if err != nil {
		c.logger.Printf("%s %s: %s", method, url, err)
		return nil, err
	}
	defer resp.Body.Close()
	c.logger.Printf("%s %s: %d", method, url, resp.StatusCode)

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cannot read response of %s %s: %w", method, url, err)
	}

	if scr := StatusCodeRangeOf(resp); scr != Status2xx {
		return nil, newHttpError(resp.StatusCode, payload)
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, nil
	}
	if !json.Valid(payload) {
		return nil, fmt.Errorf(
			"response of %s %s is not JSON (status code = %d)", method, url, resp.StatusCode,
		)
	}
	return json.RawMessage(payload), nil
}
