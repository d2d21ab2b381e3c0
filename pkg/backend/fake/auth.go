package fake

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Claims of access tokens issued by the fake backend.
type Claims struct {
	Login string `json:"login,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs a token for the user id.
//
// When the server has no secret, tokens are not checked.
func (s *Server) IssueToken(subject string, login string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Login: login,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key())
}

func (s *Server) key() []byte {
	if s.conf.Secret == "" {
		return []byte("insecure")
	}
	return []byte(s.conf.Secret)
}

func unauthorized(c echo.Context, reason string) error {
	return respondError(c, http.StatusUnauthorized, ErrorMessage{
		Name: "unauthorized", Reason: reason, Advice: "log in again",
	})
}

func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.conf.Secret == "" {
			return next(c)
		}
		h := c.Request().Header.Get("Authorization")
		tok, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || tok == "" {
			return unauthorized(c, "no access token")
		}

		_, err := jwt.ParseWithClaims(
			tok, &Claims{},
			func(t *jwt.Token) (any, error) { return s.key(), nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		)
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return unauthorized(c, "access token is expired")
		case err != nil:
			return unauthorized(c, fmt.Sprintf("access token is invalid: %s", err))
		}
		return next(c)
	}
}

// login issues a token for an existing user: POST {"login": "..."} => {"token": "..."}
//
// There are no passwords in the fake backend.
func (s *Server) login(c echo.Context) error {
	body, err := decodeBody(c)
	if body == nil {
		return err
	}
	login, _ := body["login"].(string)
	if login == "" {
		return respondError(c, http.StatusBadRequest, ErrorMessage{
			Name: "validation", Reason: "invalid input",
			Info: map[string]any{"login": []any{"This field is required."}},
		})
	}

	s.store.mu.Lock()
	i, ok := s.store.find("accounts/users", "login", login)
	var id string
	if ok {
		id = fmt.Sprint(s.store.items["accounts/users"][i]["id"])
	}
	s.store.mu.Unlock()
	if !ok {
		return unauthorized(c, "unknown user: "+login)
	}

	tok, err := s.IssueToken(id, login, 12*time.Hour)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"token": tok})
}
