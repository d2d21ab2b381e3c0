package logger_test

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/opst/sciportal/pkg/logger"
)

func TestNamed(t *testing.T) {
	buf := new(bytes.Buffer)
	base := log.New(buf, "portal: ", 0)

	logger.Named(base, "rest").Print("GET /api/v1/")

	if got := buf.String(); got != "portal: [rest] GET /api/v1/\n" {
		t.Errorf("unexpected log: %q", got)
	}
}

func TestNamed_nil(t *testing.T) {
	l := logger.Named(nil, "rest")
	l.Print("discarded")
	if !strings.HasSuffix(l.Prefix(), "[rest] ") {
		t.Errorf("prefix: %q", l.Prefix())
	}
}
