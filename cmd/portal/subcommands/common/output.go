package common

import (
	"encoding/json"
	"io"
	"time"

	"github.com/opst/sciportal/pkg/entity"
)

// Detail is a presentation of an entity: id and all properties.
func Detail(m entity.Model) map[string]any {
	e := m.Core()
	ret := map[string]any{entity.IdField: e.Id()}
	for _, name := range e.Kind().Schema().Fields() {
		v, err := e.Value(name)
		if err != nil {
			continue
		}
		if d, ok := v.(time.Duration); ok {
			v = d.String()
		}
		ret[name] = v
	}
	return ret
}

// Details are Detail of each entity.
func Details[T entity.Model](items []T) []map[string]any {
	ret := make([]map[string]any, 0, len(items))
	for _, m := range items {
		ret = append(ret, Detail(m))
	}
	return ret
}

// Dump writes v as indented JSON.
func Dump(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(v)
}
