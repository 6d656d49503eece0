package capability

import (
	"path/filepath"
	"strings"

	apperrors "github.com/coriolab/seaconv/core/errors"
)

// Resolver maps format hints and file paths to registrations. An explicit
// hint always wins; otherwise the file extension decides.
type Resolver struct {
	registry *Registry
}

// NewResolver creates a resolver over a registry.
func NewResolver(registry *Registry) *Resolver {
	return &Resolver{registry: registry}
}

// pathExtension extracts the lowercase extension used for format matching.
// A trailing ".xz" is transparent compression and is stripped first, so
// "cast.cnv.xz" resolves like "cast.cnv".
func pathExtension(path string) string {
	name := path
	if strings.EqualFold(filepath.Ext(name), ".xz") {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return strings.ToLower(filepath.Ext(name))
}

// ResolveRead picks the reader for an input path. hint, when non-empty, is
// a reader key and bypasses extension matching.
func (r *Resolver) ResolveRead(path, hint string) (Registration, error) {
	return r.resolve(KindReader, path, hint)
}

// ResolveWrite picks the writer for an output path.
func (r *Resolver) ResolveWrite(path, hint string) (Registration, error) {
	return r.resolve(KindWriter, path, hint)
}

// ResolvePlot picks a plotter by key. Plotters have no extension, so the
// key is mandatory.
func (r *Resolver) ResolvePlot(key string) (Registration, error) {
	reg, _, ok := r.registry.Lookup(KindPlotter, key)
	if !ok {
		return Registration{}, apperrors.NewUnknownFormat(key, string(KindPlotter), r.registry.Keys(KindPlotter))
	}
	return reg, nil
}

func (r *Resolver) resolve(kind Kind, path, hint string) (Registration, error) {
	if hint != "" {
		reg, _, ok := r.registry.Lookup(kind, hint)
		if !ok {
			return Registration{}, apperrors.NewUnknownFormat(hint, string(kind), r.registry.Keys(kind))
		}
		return reg, nil
	}
	ext := pathExtension(path)
	if ext == "" {
		return Registration{}, apperrors.NewUndeterminedFormat(path, ext)
	}
	reg, ok := r.registry.ByExtension(kind, ext)
	if !ok {
		return Registration{}, apperrors.NewUndeterminedFormat(path, ext)
	}
	return reg, nil
}
