package field

// String is a descriptor of a text property.
//
// Stored value is string or nil (= null).
type String struct {
	descriptor
}

func NewString(opts ...Option) *String {
	return &String{descriptor: descriptor{opts: build(opts, "")}}
}

// Validate applies validators in order. The first failure wins.
func (s *String) Validate(value string) error {
	return s.validate(value)
}

func (s *String) Proofread(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return v, nil
		}
		if err := s.validate(v); err != nil {
			return nil, err
		}
		return v, nil
	case interface{ String() string }:
		return s.Proofread(v.String())
	default:
		return nil, NewValidationError("validation.string", "The value should be a text.")
	}
}

func (s *String) Correct(value any) any {
	if v, ok := value.(string); ok {
		return v
	}
	return ""
}

func (s *String) Decode(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return v, nil
	default:
		return nil, NewValidationError("validation.string", "The value should be a text.")
	}
}

func (s *String) Encode(value any) any {
	return value
}
