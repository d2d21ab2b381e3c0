package mock

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"

	"github.com/opst/sciportal/pkg/rest"
)

type SendArgs struct {
	Url  string
	Body any
}

type UploadArgs struct {
	Url       string
	Fieldname string
	Filename  string
	Content   []byte
}

func New(t *testing.T) *mockClient {
	return &mockClient{t: t}
}

type mockClient struct {
	t  *testing.T
	mu sync.Mutex

	Impl struct {
		Get    func(ctx context.Context, url string) (json.RawMessage, error)
		Post   func(ctx context.Context, url string, body any) (json.RawMessage, error)
		Patch  func(ctx context.Context, url string, body any) (json.RawMessage, error)
		Delete func(ctx context.Context, url string) error
		Upload func(ctx context.Context, url string, fieldname string, filename string, content []byte) (json.RawMessage, error)
	}
	Calls struct {
		Get    []string
		Post   []SendArgs
		Patch  []SendArgs
		Delete []string
		Upload []UploadArgs
	}
}

var _ rest.Client = &mockClient{}

func (m *mockClient) Get(ctx context.Context, url string) (json.RawMessage, error) {
	m.t.Helper()

	m.mu.Lock()
	m.Calls.Get = append(m.Calls.Get, url)
	m.mu.Unlock()
	if m.Impl.Get == nil {
		m.t.Fatal("Get is not ready to be called")
	}
	return m.Impl.Get(ctx, url)
}

func (m *mockClient) Post(ctx context.Context, url string, body any) (json.RawMessage, error) {
	m.t.Helper()

	m.mu.Lock()
	m.Calls.Post = append(m.Calls.Post, SendArgs{Url: url, Body: body})
	m.mu.Unlock()
	if m.Impl.Post == nil {
		m.t.Fatal("Post is not ready to be called")
	}
	return m.Impl.Post(ctx, url, body)
}

func (m *mockClient) Patch(ctx context.Context, url string, body any) (json.RawMessage, error) {
	m.t.Helper()

	m.mu.Lock()
	m.Calls.Patch = append(m.Calls.Patch, SendArgs{Url: url, Body: body})
	m.mu.Unlock()
	if m.Impl.Patch == nil {
		m.t.Fatal("Patch is not ready to be called")
	}
	return m.Impl.Patch(ctx, url, body)
}

func (m *mockClient) Delete(ctx context.Context, url string) error {
	m.t.Helper()

	m.mu.Lock()
	m.Calls.Delete = append(m.Calls.Delete, url)
	m.mu.Unlock()
	if m.Impl.Delete == nil {
		m.t.Fatal("Delete is not ready to be called")
	}
	return m.Impl.Delete(ctx, url)
}

func (m *mockClient) Upload(ctx context.Context, url string, fieldname string, filename string, content io.Reader) (json.RawMessage, error) {
	m.t.Helper()

	buf, err := io.ReadAll(content)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.Calls.Upload = append(m.Calls.Upload, UploadArgs{
		Url: url, Fieldname: fieldname, Filename: filename, Content: buf,
	})
	m.mu.Unlock()
	if m.Impl.Upload == nil {
		m.t.Fatal("Upload is not ready to be called")
	}
	return m.Impl.Upload(ctx, url, fieldname, filename, buf)
}
