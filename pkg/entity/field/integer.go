package field

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Integer is a descriptor of an integral number.
//
// Stored value is int64 or nil (= null).
type Integer struct {
	descriptor
}

// MinValue limits Integer values from below.
func MinValue(m int64) Option {
	return func(o *options) *options {
		o.minValue = &m
		return o
	}
}

// MaxValue limits Integer values from above.
func MaxValue(m int64) Option {
	return func(o *options) *options {
		o.maxValue = &m
		return o
	}
}

func NewInteger(opts ...Option) *Integer {
	return &Integer{descriptor: descriptor{opts: build(opts, nil)}}
}

func errNotInteger() *ValidationError {
	return NewValidationError("validation.integer", "Enter a whole number.")
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return toInt64(uint64(v))
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case float32:
		return toInt64(float64(v))
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, false
		}
		if v >= 1<<63 || v < -(1<<63) {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

func (i *Integer) Proofread(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	v, ok := toInt64(value)
	if !ok {
		return nil, errNotInteger()
	}
	if min := i.opts.minValue; min != nil && v < *min {
		return nil, NewValidationError(
			"validation.min_value",
			fmt.Sprintf("Ensure this value is greater than or equal to %d.", *min),
		)
	}
	if max := i.opts.maxValue; max != nil && *max < v {
		return nil, NewValidationError(
			"validation.max_value",
			fmt.Sprintf("Ensure this value is less than or equal to %d.", *max),
		)
	}
	return v, nil
}

func (i *Integer) Correct(value any) any {
	return value
}

func (i *Integer) Decode(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	v, ok := toInt64(raw)
	if !ok {
		return nil, errNotInteger()
	}
	return v, nil
}

func (i *Integer) Encode(value any) any {
	return value
}
