package models

import (
	"time"

	"github.com/opst/sciportal/pkg/entity"
)

// Accessors read properties known by the schema. Unknown names read as zero values.

func str(e *entity.Entity, name string) string {
	v, _ := e.Value(name)
	s, _ := v.(string)
	return s
}

func integer(e *entity.Entity, name string) int64 {
	v, _ := e.Value(name)
	i, _ := v.(int64)
	return i
}

func boolean(e *entity.Entity, name string) bool {
	v, _ := e.Value(name)
	b, _ := v.(bool)
	return b
}

func duration(e *entity.Entity, name string) time.Duration {
	v, _ := e.Value(name)
	d, _ := v.(time.Duration)
	return d
}

func object(e *entity.Entity, name string) map[string]any {
	v, _ := e.Value(name)
	o, _ := v.(map[string]any)
	return o
}

func timestamp(e *entity.Entity, name string) time.Time {
	t, err := time.Parse(time.RFC3339, str(e, name))
	if err != nil {
		return time.Time{}
	}
	return t
}
