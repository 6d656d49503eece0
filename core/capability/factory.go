package capability

import (
	"github.com/coriolab/seaconv/core/dataset"
	apperrors "github.com/coriolab/seaconv/core/errors"
)

// companionFlags maps reader keys that cannot parse their primary file alone
// to the CLI flag naming the auxiliary file they need.
var companionFlags = map[string]string{
	"nortek-ascii": "--header-input",
}

// Factory instantiates capabilities from registrations, enforcing
// per-format input requirements before the constructor runs.
type Factory struct {
	registry *Registry
}

// NewFactory creates a factory over a registry.
func NewFactory(registry *Registry) *Factory {
	return &Factory{registry: registry}
}

// Reader builds the reader registered under key for the given input files.
// Formats that require a companion file fail up front when it is missing,
// naming the flag to pass.
func (f *Factory) Reader(key, primary, companion string) (Reader, error) {
	reg, _, ok := f.registry.Lookup(KindReader, key)
	if !ok {
		return nil, apperrors.NewUnknownFormat(key, string(KindReader), f.registry.Keys(KindReader))
	}
	if flag, required := companionFlags[key]; required && companion == "" {
		return nil, apperrors.NewMissingCompanion(key, flag)
	}
	return reg.NewReader(primary, companion)
}

// Writer builds the writer registered under key over a dataset.
func (f *Factory) Writer(key string, ds *dataset.Dataset) (Writer, error) {
	reg, _, ok := f.registry.Lookup(KindWriter, key)
	if !ok {
		return nil, apperrors.NewUnknownFormat(key, string(KindWriter), f.registry.Keys(KindWriter))
	}
	return reg.NewWriter(ds)
}

// Plotter builds the plotter registered under key over a dataset.
func (f *Factory) Plotter(key string, ds *dataset.Dataset) (Plotter, error) {
	reg, _, ok := f.registry.Lookup(KindPlotter, key)
	if !ok {
		return nil, apperrors.NewUnknownFormat(key, string(KindPlotter), f.registry.Keys(KindPlotter))
	}
	return reg.NewPlotter(ds)
}
