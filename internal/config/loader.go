package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads every given file and translates it into the
	// format-agnostic Document. Module order follows declaration order,
	// file by file, in the order the paths were given.
	Load(ctx context.Context, paths ...string) (*Document, error)

	// Extensions lists the file extensions this loader understands,
	// including the leading dot.
	Extensions() []string
}

// Options is a provider's raw, not yet typed option bag. Each loader
// supplies its own implementation backed by the parsed source.
type Options interface {
	// Decode binds the raw options into target, a pointer to a struct
	// carrying the format's field tags. Fields without a matching option
	// keep their current value.
	Decode(target any) error
}
