package field

// ReadOnlyField is a descriptor of a property only the server writes.
//
// Payload values are decoded by the inner descriptor, if any.
type ReadOnlyField struct {
	descriptor
	inner Field
}

// NewReadOnly creates a read-only descriptor.
//
// inner can be nil. Then values are kept as they come.
func NewReadOnly(inner Field, opts ...Option) *ReadOnlyField {
	var def any
	if inner != nil {
		def = inner.Default()
	}
	o := build(opts, def)
	o.readOnly = true
	return &ReadOnlyField{descriptor: descriptor{opts: o}, inner: inner}
}

func (r *ReadOnlyField) Proofread(value any) (any, error) {
	return nil, NewValidationError("validation.read_only", "This value cannot be changed.")
}

func (r *ReadOnlyField) Correct(value any) any {
	if r.inner == nil {
		return value
	}
	return r.inner.Correct(value)
}

func (r *ReadOnlyField) Decode(raw any) (any, error) {
	if r.inner == nil {
		return raw, nil
	}
	return r.inner.Decode(raw)
}

func (r *ReadOnlyField) Encode(value any) any {
	if r.inner == nil {
		return value
	}
	return r.inner.Encode(value)
}
