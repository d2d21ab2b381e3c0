// Package field provides descriptors of entity properties.
//
// A descriptor is configured once (usually at package initialization of the
// model that owns it) and is shared by every entity of that kind, so it must
// not be modified after construction.
//
// Each descriptor knows how to
//
// - proofread a value being written by a user (coercion and validation),
//
// - correct a value being read,
//
// - decode a value arriving from the server, and
//
// - encode a value to be sent to the server.
package field

// Field is a descriptor of one entity property.
type Field interface {
	// human readable description of the property.
	Description() string

	// value which an entity has when the property is not given.
	Default() any

	// Required reports the server rejects creation without this property.
	Required() bool

	// ReadOnly reports the property cannot be written by users.
	ReadOnly() bool

	// Proofread coerces and validates a value being written.
	//
	// # Returns
	//
	// - any: coerced value to be stored.
	//
	// - error: *ValidationError when the value is not acceptable.
	Proofread(value any) (any, error)

	// Correct converts a stored value into its readable form.
	Correct(value any) any

	// Decode converts a value in a server payload into a stored value.
	Decode(raw any) (any, error)

	// Encode converts a stored value into its wire form.
	Encode(value any) any
}

type options struct {
	description string
	defaultVal  any
	required    bool
	readOnly    bool
	validators  []Validator
	minValue    *int64
	maxValue    *int64
	writable    bool
}

type Option func(*options) *options

// Description sets the human readable description.
func Description(d string) Option {
	return func(o *options) *options {
		o.description = d
		return o
	}
}

// Default sets the default value. It is stored without proofreading.
func Default(v any) Option {
	return func(o *options) *options {
		o.defaultVal = v
		return o
	}
}

func Required() Option {
	return func(o *options) *options {
		o.required = true
		return o
	}
}

func ReadOnly() Option {
	return func(o *options) *options {
		o.readOnly = true
		return o
	}
}

// Validators appends validators. They are applied in the given order.
func Validators(v ...Validator) Option {
	return func(o *options) *options {
		o.validators = append(o.validators, v...)
		return o
	}
}

func build(opts []Option, defaultVal any) options {
	o := &options{defaultVal: defaultVal}
	for _, opt := range opts {
		o = opt(o)
	}
	return *o
}

// descriptor carries attributes common to every field kind.
type descriptor struct {
	opts options
}

func (d descriptor) Description() string {
	return d.opts.description
}

func (d descriptor) Default() any {
	return d.opts.defaultVal
}

func (d descriptor) Required() bool {
	return d.opts.required
}

func (d descriptor) ReadOnly() bool {
	return d.opts.readOnly
}

func (d descriptor) validate(value string) error {
	for _, v := range d.opts.validators {
		if err := v.Validate(value); err != nil {
			return err
		}
	}
	return nil
}
