package field

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration is a descriptor of a time span.
//
// Stored value is time.Duration or nil.
// On the wire, it is a number of seconds.
// Users can also write "HH:MM:SS" or Go duration format ("1h30m").
type Duration struct {
	descriptor
}

func NewDuration(opts ...Option) *Duration {
	return &Duration{descriptor: descriptor{opts: build(opts, nil)}}
}

func errNotDuration() *ValidationError {
	return NewValidationError("validation.duration", "Enter a valid duration.")
}

func parseClock(s string) (time.Duration, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, false
	}
	h, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, false
	}
	m, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil || 59 < m {
		return 0, false
	}
	sec, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || sec < 0 || 60 <= sec {
		return 0, false
	}
	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(sec*float64(time.Second)), true
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

func (d *Duration) Proofread(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Duration:
		if v < 0 {
			return nil, errNotDuration()
		}
		return v, nil
	case float64:
		if v < 0 {
			return nil, errNotDuration()
		}
		return seconds(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, errNotDuration()
		}
		return d.Proofread(f)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		if c, ok := parseClock(s); ok {
			return c, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return d.Proofread(f)
		}
		if p, err := time.ParseDuration(s); err == nil && 0 <= p {
			return p, nil
		}
		return nil, errNotDuration()
	}
	if i, ok := toInt64(value); ok {
		return d.Proofread(float64(i))
	}
	return nil, errNotDuration()
}

func (d *Duration) Correct(value any) any {
	v, _ := value.(time.Duration)
	return v
}

func (d *Duration) Decode(raw any) (any, error) {
	return d.Proofread(raw)
}

func (d *Duration) Encode(value any) any {
	v, ok := value.(time.Duration)
	if !ok {
		return nil
	}
	return v.Seconds()
}

// FormatClock formats a duration as "HH:MM:SS".
func FormatClock(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
