package echoutil

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// LogHandlerFunc is a middleware logging requests and responses in INFO level.
func LogHandlerFunc(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		meth := c.Request().Method
		path := c.Request().URL
		begin := time.Now()
		c.Logger().Infof("< request %s %s", meth, path)

		err := next(c)

		c.Logger().Infof(
			"> response %d for %s %s in %v / error = %v",
			c.Response().Status, meth, path, time.Since(begin), err,
		)
		return err
	}
}

// ParseLevel converts level names into gommon log levels.
//
// Level names are "debug", "info", "warn", "error" and "off". Empty means "warn".
func ParseLevel(level string) (log.Lvl, bool) {
	switch strings.ToLower(level) {
	case "debug":
		return log.DEBUG, true
	case "info":
		return log.INFO, true
	case "warn", "":
		return log.WARN, true
	case "error":
		return log.ERROR, true
	case "off":
		return log.OFF, true
	}
	return log.WARN, false
}

// SetLevel sets the log level of e. Unknown levels fall back to "warn".
func SetLevel(e *echo.Echo, level string) {
	lvl, ok := ParseLevel(level)
	e.Logger.SetLevel(lvl)
	if !ok {
		e.Logger.Warnf("unknown loglevel: %s . fall-backed to warn", level)
	}
}
