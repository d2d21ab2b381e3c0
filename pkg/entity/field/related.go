package field

import (
	"encoding/json"
	"strconv"
)

// Related is a descriptor of a reference to an entity of another kind.
//
// Stored value is the id of the referred entity (string) or nil.
type Related struct {
	descriptor
	kind string
}

// NewRelated creates a descriptor referring entities of the kind.
func NewRelated(kind string, opts ...Option) *Related {
	return &Related{descriptor: descriptor{opts: build(opts, nil)}, kind: kind}
}

// Kind is the name of the referred entity kind.
func (r *Related) Kind() string {
	return r.kind
}

func errNotRelated() *ValidationError {
	return NewValidationError("validation.related", "Select an existing item.")
}

func relatedId(value any) (any, bool) {
	switch v := value.(type) {
	case nil:
		return nil, true
	case string:
		if v == "" {
			return nil, true
		}
		return v, true
	case json.Number:
		return v.String(), true
	case map[string]any:
		return relatedId(v["id"])
	case interface{ Id() string }:
		return relatedId(v.Id())
	}
	if i, ok := toInt64(value); ok {
		return strconv.FormatInt(i, 10), true
	}
	return nil, false
}

func (r *Related) Proofread(value any) (any, error) {
	id, ok := relatedId(value)
	if !ok {
		return nil, errNotRelated()
	}
	return id, nil
}

func (r *Related) Correct(value any) any {
	if v, ok := value.(string); ok {
		return v
	}
	return ""
}

func (r *Related) Decode(raw any) (any, error) {
	return r.Proofread(raw)
}

// Encode sends numeric ids as JSON numbers and others as strings.
func (r *Related) Encode(value any) any {
	id, ok := value.(string)
	if !ok {
		return nil
	}
	if _, err := strconv.ParseInt(id, 10, 64); err == nil {
		return json.Number(id)
	}
	return id
}
