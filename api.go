// Package seaconv reads, writes, and plots oceanographic sensor data files
// through the format capability registry. Importing it registers the builtin
// formats; plugin packages are opted into with their own blank imports.
package seaconv

import (
	"github.com/coriolab/seaconv/core/capability"
	"github.com/coriolab/seaconv/core/dataset"
	"github.com/coriolab/seaconv/core/iomanager"

	_ "github.com/coriolab/seaconv/internal/builtin"
)

// Option configures a Read, Write, or Plot call.
type Option func(*settings)

type settings struct {
	format    string
	companion string
	registry  *capability.Registry
}

// WithFormat forces a format key instead of resolving one from the path
// extension.
func WithFormat(key string) Option {
	return func(s *settings) { s.format = key }
}

// WithCompanion supplies the companion header file for formats that split
// data and metadata across two files.
func WithCompanion(path string) Option {
	return func(s *settings) { s.companion = path }
}

// WithRegistry uses a custom capability registry instead of the process
// default.
func WithRegistry(r *capability.Registry) Option {
	return func(s *settings) { s.registry = r }
}

func apply(opts []Option) (*iomanager.Manager, settings) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	registry := s.registry
	if registry == nil {
		registry = capability.Default()
	}
	return iomanager.New(registry), s
}

// Read loads a sensor data file into a dataset. The format is resolved from
// the path extension unless WithFormat is given.
func Read(path string, opts ...Option) (*dataset.Dataset, error) {
	mgr, s := apply(opts)
	return mgr.Read(path, s.format, s.companion)
}

// Write serializes a dataset to a file. The format is resolved from the
// path extension unless WithFormat is given.
func Write(ds *dataset.Dataset, path string, opts ...Option) error {
	mgr, s := apply(opts)
	return mgr.Write(ds, path, s.format)
}

// Plot renders a dataset with the named plotter.
func Plot(ds *dataset.Dataset, plotterKey string, plotOpts capability.PlotOptions, opts ...Option) error {
	mgr, _ := apply(opts)
	return mgr.Plot(ds, plotterKey, plotOpts)
}

// ListReaders returns the registered reader capabilities sorted by key.
func ListReaders() []capability.Descriptor {
	return capability.Default().Descriptors(capability.KindReader)
}

// ListWriters returns the registered writer capabilities sorted by key.
func ListWriters() []capability.Descriptor {
	return capability.Default().Descriptors(capability.KindWriter)
}

// ListPlotters returns the registered plotter capabilities sorted by key.
func ListPlotters() []capability.Descriptor {
	return capability.Default().Descriptors(capability.KindPlotter)
}

// ListAll returns the full capability catalog, readers first.
func ListAll() []capability.Descriptor {
	return capability.Default().AllDescriptors()
}
