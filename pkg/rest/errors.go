package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrHttp is what every *HttpError is.
	ErrHttp = errors.New("http error")

	// ErrBadRequest is for 400 Bad Request.
	ErrBadRequest = errors.New("bad request")

	// ErrUnauthorized is for 401 Unauthorized and 403 Forbidden.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is for 404 Not Found.
	ErrNotFound = errors.New("not found")

	// ErrActionRequired is for responses named "action_required".
	//
	// The server refused the request until the client confirms it (e.g. by forcing).
	ErrActionRequired = errors.New("action required")
)

// NameActionRequired is the error name telling the request needs confirmation.
const NameActionRequired = "action_required"

// ErrorMessage is the body of error responses.
type ErrorMessage struct {
	// Name is a machine readable sub-kind of the error (e.g. "action_required").
	Name string `json:"name,omitempty"`

	Reason string `json:"reason"`
	Advice string `json:"advice,omitempty"`

	// Info is structured detail. For rejected writes, it maps field names to messages.
	Info map[string]any `json:"info,omitempty"`
}

// HttpError is a response with status 4xx or 5xx.
type HttpError struct {
	Status int
	ErrorMessage

	// Body is the raw response body when it is not an ErrorMessage.
	Body string
}

func (he *HttpError) Error() string {
	lines := []string{
		fmt.Sprintf("%s (status code = %d)", statusCodeRange(he.Status), he.Status),
	}
	if he.Reason != "" {
		lines = append(lines, he.Reason)
	}
	if he.Advice != "" {
		lines = append(lines, he.Advice)
	}
	if he.Reason == "" && he.Body != "" {
		lines = append(lines, he.Body)
	}
	return strings.Join(lines, "\n")
}

func (he *HttpError) Is(target error) bool {
	switch target {
	case ErrHttp:
		return true
	case ErrBadRequest:
		return he.Status == http.StatusBadRequest
	case ErrUnauthorized:
		return he.Status == http.StatusUnauthorized || he.Status == http.StatusForbidden
	case ErrNotFound:
		return he.Status == http.StatusNotFound
	case ErrActionRequired:
		return he.Name == NameActionRequired
	}
	return false
}

// FieldErrors flattens Info into field name to message.
//
// Lists of messages are joined with a space.
// Nested objects are flattened with dotted keys.
func (he *HttpError) FieldErrors() map[string]string {
	ret := map[string]string{}
	flatten(ret, "", he.Info)
	return ret
}

func flatten(dest map[string]string, prefix string, info map[string]any) {
	for k, v := range info {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch vv := v.(type) {
		case string:
			dest[key] = vv
		case []any:
			msgs := make([]string, 0, len(vv))
			for _, m := range vv {
				msgs = append(msgs, fmt.Sprint(m))
			}
			dest[key] = strings.Join(msgs, " ")
		case map[string]any:
			flatten(dest, key, vv)
		default:
			dest[key] = fmt.Sprint(vv)
		}
	}
}

// AsHttpError extracts *HttpError from err, if any.
func AsHttpError(err error) (*HttpError, bool) {
	var he *HttpError
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}

// newHttpError builds HttpError from a response body.
func newHttpError(status int, body []byte) *HttpError {
	he := &HttpError{Status: status}
	msg := ErrorMessage{}
	if err := json.Unmarshal(body, &msg); err == nil && (msg.Reason != "" || msg.Name != "" || 0 < len(msg.Info)) {
		he.ErrorMessage = msg
		return he
	}

	// {"message": "..."} from generic servers
	if m := new(struct {
		Message *string `json:"message"`
	}); json.Unmarshal(body, m) == nil && m.Message != nil {
		he.Reason = *m.Message
		return he
	}

	he.Body = strings.TrimSpace(string(body))
	return he
}
