package codec

import "github.com/amberlab/amber/internal/typeset"

type config struct {
	types     *typeset.Registry
	resolver  typeset.Resolver
	callables *typeset.Callables
	reader    typeset.AttributeReader
}

// Option configures an encode or decode call. The registries are
// shared, long-lived collaborators; per-call state (the identity
// tables) is always created fresh inside the call.
type Option func(*config)

// WithTypes supplies the type registry consulted for descriptors on
// encode and for constructible handles on decode.
func WithTypes(r *typeset.Registry) Option {
	return func(c *config) {
		c.types = r
		c.resolver = r
	}
}

// WithResolver supplies a custom decode-side resolver in place of a
// Registry. Encode-side descriptor derivation is unaffected.
func WithResolver(r typeset.Resolver) Option {
	return func(c *config) { c.resolver = r }
}

// WithCallables supplies the callable registry. Without one, function
// values are unencodable and callable records are undecodable.
func WithCallables(c *typeset.Callables) Option {
	return func(cfg *config) { cfg.callables = c }
}

// WithAttributeReader replaces the default reflection-based attribute
// enumeration.
func WithAttributeReader(r typeset.AttributeReader) Option {
	return func(c *config) { c.reader = r }
}

func newConfig(opts []Option) config {
	c := config{}
	for _, opt := range opts {
		opt(&c)
	}
	if c.types == nil {
		c.types = typeset.NewRegistry()
	}
	if c.resolver == nil {
		c.resolver = c.types
	}
	if c.callables == nil {
		c.callables = typeset.NewCallables()
	}
	if c.reader == nil {
		c.reader = typeset.ReflectReader{}
	}
	return c
}
