package rest

import (
	"fmt"
	"net/http"
)

// StatusCodeRange is the class of HTTP status codes, by the hundreds digit.
type StatusCodeRange int

const (
	StatusUnknown StatusCodeRange = iota
	Status1xx
	Status2xx
	Status3xx
	Status4xx
	Status5xx
)

var statusRangeNames = map[StatusCodeRange]string{
	Status1xx: "informational response",
	Status2xx: "success",
	Status3xx: "redirect",
	Status4xx: "client error",
	Status5xx: "server error",
}

func (sc StatusCodeRange) String() string {
	if name, ok := statusRangeNames[sc]; ok {
		return name
	}
	return fmt.Sprintf("unknown (%d)", sc)
}

func StatusCodeRangeOf(resp *http.Response) StatusCodeRange {
	return statusCodeRange(resp.StatusCode)
}

func statusCodeRange(code int) StatusCodeRange {
	if code < 100 || 600 <= code {
		return StatusUnknown
	}
	return StatusCodeRange(code / 100)
}
