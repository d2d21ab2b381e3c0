package try_test

import (
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/opst/sciportal/pkg/utils/try"
)

type fataler struct {
	helped bool
	fatal  []any
}

func (f *fataler) Helper() {
	f.helped = true
}

func (f *fataler) Fatal(v ...any) {
	f.fatal = append(f.fatal, v...)
}

func TestTo(t *testing.T) {
	errParse := errors.New("parse error")

	t.Run("ok", func(t *testing.T) {
		f := &fataler{}
		testee := try.To(42, nil)
		if v := testee.OrFatal(f); v != 42 || len(f.fatal) != 0 {
			t.Errorf("OrFatal: %d, fatal = %v", v, f.fatal)
		}
		if v := testee.OrDefault(-1); v != 42 {
			t.Errorf("OrDefault: %d", v)
		}
		if v, err := testee.Get(); v != 42 || err != nil {
			t.Errorf("Get: (%d, %v)", v, err)
		}
	})

	t.Run("error", func(t *testing.T) {
		f := &fataler{}
		testee := try.To(42, errParse)
		if v := testee.OrFatal(f); v != 0 {
			t.Errorf("OrFatal: %d", v)
		}
		if !f.helped || len(f.fatal) != 1 || f.fatal[0] != errParse {
			t.Errorf("fataler: %+v", f)
		}
		if v := testee.OrDefault(-1); v != -1 {
			t.Errorf("OrDefault: %d", v)
		}
		if v, err := testee.Get(); v != 0 || !errors.Is(err, errParse) {
			t.Errorf("Get: (%d, %v)", v, err)
		}
	})
}

func TestMap(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		testee := try.Map(try.To(strconv.Atoi("12")), func(i int) string { return fmt.Sprint(i * 2) })
		if v, err := testee.Get(); v != "24" || err != nil {
			t.Errorf("Get: (%s, %v)", v, err)
		}
	})

	t.Run("error", func(t *testing.T) {
		called := false
		testee := try.Map(try.To(strconv.Atoi("x")), func(i int) string { called = true; return "" })
		if _, err := testee.Get(); err == nil || called {
			t.Errorf("Get: %v, mapper called: %v", err, called)
		}
	})
}
