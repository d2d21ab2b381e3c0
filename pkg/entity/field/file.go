package field

// File is a descriptor of a file attached to an entity.
//
// Stored value is the URL where the file can be downloaded, or nil.
// Contents are uploaded through a provider, not written as a property,
// so File is read-only unless Writable is given.
type File struct {
	descriptor
}

// Writable allows users to write the URL of a File directly.
func Writable() Option {
	return func(o *options) *options {
		o.writable = true
		return o
	}
}

func NewFile(opts ...Option) *File {
	o := build(opts, nil)
	if !o.writable {
		o.readOnly = true
	}
	return &File{descriptor: descriptor{opts: o}}
}

func (f *File) Proofread(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		if err := URLValidator.Validate(v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return nil, NewValidationError("validation.file", "The value should be a file URL.")
}

func (f *File) Correct(value any) any {
	if v, ok := value.(string); ok {
		return v
	}
	return ""
}

func (f *File) Decode(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		return v, nil
	}
	return nil, NewValidationError("validation.file", "The value should be a file URL.")
}

func (f *File) Encode(value any) any {
	return value
}
