package field

import "encoding/json"

// Object is a descriptor of a free-form JSON object, like module settings.
//
// Stored value is map[string]any or nil.
// Stored objects hold the types json.Unmarshal gives for interface values,
// so numbers are float64 whether they are written or decoded.
type Object struct {
	descriptor
}

func NewObject(opts ...Option) *Object {
	return &Object{descriptor: descriptor{opts: build(opts, nil)}}
}

func errNotObject() *ValidationError {
	return NewValidationError("validation.object", "Enter a valid JSON object.")
}

func (o *Object) Proofread(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, errNotObject()
		}
		return parseObject(b)
	case string:
		if v == "" {
			return nil, nil
		}
		return parseObject([]byte(v))
	}
	return nil, errNotObject()
}

func parseObject(b []byte) (map[string]any, error) {
	m := map[string]any{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, errNotObject()
	}
	return m, nil
}

// Correct returns a copy, so that readers cannot modify the stored object.
func (o *Object) Correct(value any) any {
	v, ok := value.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return copyObject(v)
}

func (o *Object) Decode(raw any) (any, error) {
	if _, ok := raw.(string); ok {
		return nil, errNotObject()
	}
	return o.Proofread(raw)
}

func (o *Object) Encode(value any) any {
	return value
}

func copyObject(m map[string]any) map[string]any {
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
