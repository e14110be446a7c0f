package yamlconfig

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/vk/tracegrid/internal/config"
	"github.com/vk/tracegrid/internal/ctxlog"
	"github.com/vk/tracegrid/internal/fsutil"
	"gopkg.in/yaml.v3"
)

const selectorKey = "selector"

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::([^}]*))?\}`)

// Loader is the YAML implementation of config.Loader.
type Loader struct {
	lookupEnv func(string) (string, bool)
}

// NewLoader creates a new YAML configuration loader.
func NewLoader() *Loader {
	return &Loader{lookupEnv: os.LookupEnv}
}

// Extensions implements config.Loader.
func (l *Loader) Extensions() []string { return []string{".yaml", ".yml"} }

// Load parses every YAML file under the given paths into one Document.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Document, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path_count", len(paths))

	doc := &config.Document{}
	for _, path := range paths {
		files, err := fsutil.FindFilesByExtension(path, l.Extensions()...)
		if err != nil {
			return nil, fmt.Errorf("failed to find YAML files in %s: %w", path, err)
		}
		for _, file := range files {
			modules, err := l.loadFile(file)
			if err != nil {
				return nil, err
			}
			doc.Modules = append(doc.Modules, modules...)
			logger.Debug("Parsed YAML file.", "file", file, "modules", len(modules))
		}
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

func (l *Loader) loadFile(file string) ([]*config.ModuleConfig, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML file %s: %w", file, err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse YAML file %s: %w", file, err)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s:%d: top level must be a mapping of modules", file, top.Line)
	}
	l.expand(top)

	var modules []*config.ModuleConfig
	for i := 0; i+1 < len(top.Content); i += 2 {
		name, body := top.Content[i].Value, top.Content[i+1]
		mc := &config.ModuleConfig{Name: name, Source: fmt.Sprintf("%s:%d", file, top.Content[i].Line)}
		if isNull(body) {
			modules = append(modules, mc)
			continue
		}
		if body.Kind != yaml.MappingNode {
			return nil, &config.Error{Module: name, Err: fmt.Errorf("%s:%d: module section must be a mapping", file, body.Line)}
		}

		for j := 0; j+1 < len(body.Content); j += 2 {
			key, value := body.Content[j], body.Content[j+1]
			if key.Value == selectorKey {
				if value.Kind != yaml.ScalarNode {
					return nil, &config.Error{Module: name, Option: selectorKey, Err: fmt.Errorf("%s:%d: must be a string", file, value.Line)}
				}
				mc.Selector = value.Value
				continue
			}
			if !isNull(value) && value.Kind != yaml.MappingNode {
				return nil, &config.Error{Module: name, Provider: key.Value, Err: fmt.Errorf("%s:%d: provider block must be a mapping", file, value.Line)}
			}
			mc.Providers = append(mc.Providers, &config.ProviderConfig{Name: key.Value, Options: &options{node: value}})
		}
		modules = append(modules, mc)
	}
	return modules, nil
}

// expand substitutes environment references in every scalar below n.
func (l *Loader) expand(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode {
		if !envRef.MatchString(n.Value) {
			return
		}
		n.Value = envRef.ReplaceAllStringFunc(n.Value, func(ref string) string {
			m := envRef.FindStringSubmatch(ref)
			if v, ok := l.lookupEnv(m[1]); ok && v != "" {
				return v
			}
			return m[2]
		})
		n.Tag = ""
		return
	}
	for _, c := range n.Content {
		l.expand(c)
	}
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

// options is one provider block. Decoding goes through a strict decoder so
// keys the target does not know are rejected.
type options struct {
	node *yaml.Node
}

// Decode implements config.Options.
func (o *options) Decode(target any) error {
	if isNull(o.node) {
		return nil
	}
	raw, err := yaml.Marshal(o.node)
	if err != nil {
		return &config.Error{Err: err}
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil {
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
			return &config.Error{Err: errors.New(typeErr.Errors[0])}
		}
		return &config.Error{Err: err}
	}
	return nil
}

var _ config.Loader = (*Loader)(nil)
