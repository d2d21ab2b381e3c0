// Package session is the application context of a signed-in user.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/opst/sciportal/pkg/configs/profiles"
	"github.com/opst/sciportal/pkg/dialog"
	"github.com/opst/sciportal/pkg/logger"
	"github.com/opst/sciportal/pkg/models"
	"github.com/opst/sciportal/pkg/rest"
)

var (
	// ErrNoToken is returned when the session has no access token.
	ErrNoToken = errors.New("not logged in")

	// ErrNoModule is returned when no module is selected.
	ErrNoModule = errors.New("no module is selected")
)

// Session holds what screens share: the server, the user and dialogs.
type Session struct {
	client     rest.Client
	root       func(...string) string
	logger     *log.Logger
	now        func() time.Time
	httpclient *http.Client

	Catalog *models.Catalog
	Dialogs *dialog.Manager

	mu             sync.Mutex
	token          string
	claims         jwt.RegisteredClaims
	user           *models.User
	module         *models.Module
	onUnauthorized []func(error)
}

type Option func(*Session) *Session

func WithLogger(l *log.Logger) Option {
	return func(s *Session) *Session {
		s.logger = l
		return s
	}
}

// WithClock replaces the clock telling expiry of tokens.
func WithClock(now func() time.Time) Option {
	return func(s *Session) *Session {
		s.now = now
		return s
	}
}

// WithHttpClient replaces *http.Client of the REST client.
func WithHttpClient(hc *http.Client) Option {
	return func(s *Session) *Session {
		s.httpclient = hc
		return s
	}
}

// New starts a session for the server in the profile.
//
// The access token in the profile, if any, is taken.
// Its claims are read without verification. The server verifies it.
func New(prof *profiles.Profile, opts ...Option) (*Session, error) {
	s := &Session{
		logger:  logger.Null(),
		now:     time.Now,
		Dialogs: dialog.NewManager(),
	}
	for _, o := range opts {
		s = o(s)
	}

	if prof.Token != "" {
		if err := s.SetToken(prof.Token); err != nil {
			return nil, err
		}
	}

	copts := []rest.Option{
		rest.WithLogger(logger.Named(s.logger, "rest")),
		rest.WithTokenSource(s.Token),
	}
	if s.httpclient != nil {
		copts = append(copts, rest.WithHttpClient(s.httpclient))
	}
	client, err := rest.NewClient(prof, copts...)
	if err != nil {
		return nil, err
	}
	s.client = client
	s.root = rest.Root(prof.Origin, prof.ApiVersion())

	catalog, err := models.NewCatalog(client, s.root)
	if err != nil {
		return nil, err
	}
	s.Catalog = catalog
	return s, nil
}

// Client returns the REST client of the session.
func (s *Session) Client() rest.Client {
	return s.client
}

// Root returns the API URL builder of the session.
func (s *Session) Root() func(...string) string {
	return s.root
}

// Token returns the current access token. It is "" before login.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// SetToken replaces the access token. The cached current user is forgotten.
func (s *Session) SetToken(token string) error {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return fmt.Errorf("access token is malformed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.claims = claims
	s.user = nil
	return nil
}

// Login asks the server a token for the login name and takes it.
//
// # Returns
//
// - string: the new token
//
// - error
func (s *Session) Login(ctx context.Context, login string) (string, error) {
	resp, err := s.client.Post(ctx, s.root("accounts", "login"), map[string]any{"login": login})
	if err != nil {
		return "", err
	}
	body := struct {
		Token string `json:"token"`
	}{}
	if err := json.Unmarshal(resp, &body); err != nil || body.Token == "" {
		return "", fmt.Errorf("unexpected response of login: %s", resp)
	}
	if err := s.SetToken(body.Token); err != nil {
		return "", err
	}
	s.logger.Printf("logged in as %s", login)
	return body.Token, nil
}

// UserId returns the id of the user in the token.
func (s *Session) UserId() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return "", ErrNoToken
	}
	return s.claims.Subject, nil
}

// Expired reports the access token is expired or missing.
//
// Tokens without expiry never expire.
func (s *Session) Expired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return true
	}
	if s.claims.ExpiresAt == nil {
		return false
	}
	return !s.now().Before(s.claims.ExpiresAt.Time)
}

// CurrentUser returns the signed-in user. It is loaded once and cached.
func (s *Session) CurrentUser(ctx context.Context) (models.User, error) {
	s.mu.Lock()
	if s.user != nil {
		u := *s.user
		s.mu.Unlock()
		return u, nil
	}
	s.mu.Unlock()

	id, err := s.UserId()
	if err != nil {
		return models.User{}, err
	}
	u, err := s.Catalog.Users.Get(ctx, id)
	if err != nil {
		s.HandleError(err)
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &u
	return u, nil
}

// SetModule selects the module the user works in.
func (s *Session) SetModule(m models.Module) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.module = &m
}

// Module returns the selected module.
func (s *Session) Module() (models.Module, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.module == nil {
		return models.Module{}, ErrNoModule
	}
	return *s.module, nil
}

// OnUnauthorized registers a hook called when the server refuses the user.
//
// Screens use it to force re-authentication.
func (s *Session) OnUnauthorized(hook func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUnauthorized = append(s.onUnauthorized, hook)
}

// HandleError calls hooks when err is rest.ErrUnauthorized.
//
// It reports whether the error is handled.
func (s *Session) HandleError(err error) bool {
	if !errors.Is(err, rest.ErrUnauthorized) {
		return false
	}
	s.mu.Lock()
	hooks := append([]func(error){}, s.onUnauthorized...)
	s.mu.Unlock()

	s.logger.Printf("unauthorized: %s", err)
	for _, h := range hooks {
		h(err)
	}
	return true
}

// Close ends the session. Open dialogs are rejected.
func (s *Session) Close() {
	s.Dialogs.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	s.module = nil
}
