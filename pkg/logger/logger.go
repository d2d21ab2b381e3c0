package logger

import (
	"io"
	"log"
)

// Null returns a logger discarding everything.
func Null() *log.Logger {
	return log.New(io.Discard, "", log.LstdFlags)
}

func Default() *log.Logger {
	return log.Default()
}

// Named derives a logger writing to the same destination as base,
// with "[name] " appended to the prefix.
//
// If base is nil, it derives from Null().
func Named(base *log.Logger, name string) *log.Logger {
	if base == nil {
		base = Null()
	}
	return log.New(base.Writer(), base.Prefix()+"["+name+"] ", base.Flags())
}
