package field

import "strings"

// Boolean is a descriptor of a flag.
//
// Stored value is bool.
type Boolean struct {
	descriptor
}

func NewBoolean(opts ...Option) *Boolean {
	return &Boolean{descriptor: descriptor{opts: build(opts, false)}}
}

func (b *Boolean) Proofread(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "on", "yes", "1":
			return true, nil
		case "false", "off", "no", "0", "":
			return false, nil
		}
	}
	return nil, NewValidationError("validation.boolean", "The value should be either true or false.")
}

func (b *Boolean) Correct(value any) any {
	v, _ := value.(bool)
	return v
}

func (b *Boolean) Decode(raw any) (any, error) {
	return b.Proofread(raw)
}

func (b *Boolean) Encode(value any) any {
	return b.Correct(value)
}
