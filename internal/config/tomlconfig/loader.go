package tomlconfig

import (
	"context"
	"fmt"
	"slices"

	"github.com/BurntSushi/toml"
	"github.com/vk/tracegrid/internal/config"
	"github.com/vk/tracegrid/internal/ctxlog"
	"github.com/vk/tracegrid/internal/fsutil"
)

const selectorKey = "selector"

// Loader is the TOML implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new TOML configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Extensions implements config.Loader.
func (l *Loader) Extensions() []string { return []string{".toml"} }

// Load parses every .toml file under the given paths into one Document.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Document, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("TOML loader started.", "path_count", len(paths))

	doc := &config.Document{}
	for _, path := range paths {
		files, err := fsutil.FindFilesByExtension(path, l.Extensions()...)
		if err != nil {
			return nil, fmt.Errorf("failed to find TOML files in %s: %w", path, err)
		}
		for _, file := range files {
			modules, err := loadFile(file)
			if err != nil {
				return nil, err
			}
			doc.Modules = append(doc.Modules, modules...)
			logger.Debug("Parsed TOML file.", "file", file, "modules", len(modules))
		}
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

func loadFile(file string) ([]*config.ModuleConfig, error) {
	var raw map[string]toml.Primitive
	meta, err := toml.DecodeFile(file, &raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML file %s: %w", file, err)
	}
	md := &meta

	var modules []*config.ModuleConfig
	for _, name := range firstSegments(md.Keys(), nil) {
		var section map[string]toml.Primitive
		if err := md.PrimitiveDecode(raw[name], &section); err != nil {
			return nil, &config.Error{Module: name, Err: fmt.Errorf("%s: module section must be a table: %w", file, err)}
		}

		mc := &config.ModuleConfig{Name: name, Source: file}
		for _, key := range firstSegments(md.Keys(), toml.Key{name}) {
			if key == selectorKey {
				if err := md.PrimitiveDecode(section[key], &mc.Selector); err != nil {
					return nil, &config.Error{Module: name, Option: selectorKey, Err: err}
				}
				continue
			}
			if md.Type(name, key) != "Hash" {
				return nil, &config.Error{Module: name, Err: fmt.Errorf("%s: %q is neither %q nor a provider table", file, key, selectorKey)}
			}
			mc.Providers = append(mc.Providers, &config.ProviderConfig{
				Name:    key,
				Options: &options{md: md, prim: section[key], key: toml.Key{name, key}},
			})
		}
		modules = append(modules, mc)
	}
	return modules, nil
}

// firstSegments returns, in order of first appearance, the distinct key
// segments that directly follow prefix.
func firstSegments(keys []toml.Key, prefix toml.Key) []string {
	var out []string
	for _, k := range keys {
		if len(k) <= len(prefix) || !slices.Equal(k[:len(prefix)], prefix) {
			continue
		}
		if seg := k[len(prefix)]; !slices.Contains(out, seg) {
			out = append(out, seg)
		}
	}
	return out
}

// options is one provider table, kept as an undecoded primitive until the
// provider supplies its typed target.
type options struct {
	md   *toml.MetaData
	prim toml.Primitive
	key  toml.Key
}

// Decode implements config.Options. Keys the target has no field for are
// reported as unknown options.
func (o *options) Decode(target any) error {
	if err := o.md.PrimitiveDecode(o.prim, target); err != nil {
		return &config.Error{Err: err}
	}
	for _, k := range o.md.Undecoded() {
		if len(k) > len(o.key) && slices.Equal(k[:len(o.key)], o.key) {
			return &config.Error{Option: k[len(o.key):].String(), Err: fmt.Errorf("unknown option")}
		}
	}
	return nil
}

var _ config.Loader = (*Loader)(nil)
