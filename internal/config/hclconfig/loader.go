package hclconfig

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/tracegrid/internal/config"
	"github.com/vk/tracegrid/internal/ctxlog"
	"github.com/vk/tracegrid/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	evalCtx *hcl.EvalContext
}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{evalCtx: newEvalContext()}
}

// fileRoot is the top-level structure of a configuration file.
type fileRoot struct {
	Modules []*moduleBlock `hcl:"module,block"`
}

type moduleBlock struct {
	Name      string           `hcl:"name,label"`
	Selector  *string          `hcl:"selector"`
	Providers []*providerBlock `hcl:"provider,block"`
}

type providerBlock struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// Extensions implements config.Loader.
func (l *Loader) Extensions() []string { return []string{".hcl"} }

// Load parses every .hcl file under the given paths into one Document.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Document, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	parser := hclparse.NewParser()
	doc := &config.Document{}

	for _, path := range paths {
		files, err := fsutil.FindFilesByExtension(path, l.Extensions()...)
		if err != nil {
			return nil, fmt.Errorf("failed to find HCL files in %s: %w", path, err)
		}
		for _, file := range files {
			modules, err := l.loadFile(parser, file)
			if err != nil {
				return nil, err
			}
			doc.Modules = append(doc.Modules, modules...)
			logger.Debug("Parsed HCL file.", "file", file, "modules", len(modules))
		}
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

func (l *Loader) loadFile(parser *hclparse.Parser, file string) ([]*config.ModuleConfig, error) {
	hclFile, diags := parser.ParseHCLFile(file)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(hclFile.Body, l.evalCtx, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
	}

	modules := make([]*config.ModuleConfig, 0, len(root.Modules))
	for _, mb := range root.Modules {
		mc := &config.ModuleConfig{
			Name:   mb.Name,
			Source: file,
		}
		if mb.Selector != nil {
			mc.Selector = *mb.Selector
		}
		for _, pb := range mb.Providers {
			mc.Providers = append(mc.Providers, &config.ProviderConfig{
				Name:    pb.Name,
				Options: &options{body: pb.Body, evalCtx: l.evalCtx},
			})
		}
		modules = append(modules, mc)
	}
	return modules, nil
}

// options is a provider block body, decoded lazily with gohcl once the
// provider supplies its typed target.
type options struct {
	body    hcl.Body
	evalCtx *hcl.EvalContext
}

// Decode implements config.Options. Attributes missing from the block leave
// the target's fields untouched, so targets must mark them `optional`.
func (o *options) Decode(target any) error {
	if diags := gohcl.DecodeBody(o.body, o.evalCtx, target); diags.HasErrors() {
		return &config.Error{Err: diags}
	}
	return nil
}

var _ config.Loader = (*Loader)(nil)
