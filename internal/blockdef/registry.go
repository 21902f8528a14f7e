package blockdef

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/flowgraph/internal/ctxlog"
	"github.com/specialistvlad/flowgraph/internal/fsutil"
)

//go:embed builtin/*.hcl
var builtinFS embed.FS

// Registry holds the block definitions known to an application instance,
// keyed by block key.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Builtin returns a registry holding the definitions compiled into the binary.
func Builtin(ctx context.Context) (*Registry, error) {
	r := NewRegistry()
	if err := r.LoadFS(ctx, builtinFS, "builtin"); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds a definition. Keys must be unique.
func (r *Registry) Register(def *Definition) error {
	if def == nil {
		return fmt.Errorf("cannot register a nil definition")
	}
	if existing, ok := r.defs[def.Key]; ok {
		return fmt.Errorf("block '%s' is defined twice: in %s and in %s", def.Key, existing.FilePath, def.FilePath)
	}
	r.defs[def.Key] = def
	return nil
}

// Lookup returns the definition for key.
func (r *Registry) Lookup(key string) (*Definition, bool) {
	def, ok := r.defs[key]
	return def, ok
}

// Keys returns all registered keys, sorted.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.defs))
	for k := range r.defs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	return len(r.defs)
}

// LoadDir loads every .hcl manifest under rootPath.
func (r *Registry) LoadDir(ctx context.Context, rootPath string) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Registry loading block definitions...", "path", rootPath)

	filePaths, err := fsutil.FindFilesByExtension(rootPath, ".hcl")
	if err != nil {
		return fmt.Errorf("failed to walk block definition path %s: %w", rootPath, err)
	}
	if len(filePaths) == 0 {
		logger.Warn("No .hcl block definition files found in path", "path", rootPath)
		return nil
	}

	parser := hclparse.NewParser()
	for _, filePath := range filePaths {
		hclFile, diags := parser.ParseHCLFile(filePath)
		if err := r.add(ctx, hclFile, diags, filePath); err != nil {
			return err
		}
	}

	logger.Info("Block definitions loaded.", "path", rootPath, "definitions", r.Len())
	return nil
}

// LoadFS loads every .hcl manifest under root in fsys, in lexical order.
func (r *Registry) LoadFS(ctx context.Context, fsys fs.FS, root string) error {
	var filePaths []string
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && path.Ext(p) == ".hcl" {
			filePaths = append(filePaths, p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk block definitions in %s: %w", root, err)
	}

	parser := hclparse.NewParser()
	for _, filePath := range filePaths {
		src, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", filePath, err)
		}
		hclFile, diags := parser.ParseHCL(src, filePath)
		if err := r.add(ctx, hclFile, diags, filePath); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) add(ctx context.Context, hclFile *hcl.File, diags hcl.Diagnostics, filePath string) error {
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file %s: %w", filePath, diags)
	}
	defs, diags := ParseFile(ctx, hclFile, filePath)
	if diags.HasErrors() {
		return fmt.Errorf("failed to process block definitions in %s: %w", filePath, diags)
	}
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}
