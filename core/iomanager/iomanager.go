// Package iomanager orchestrates end-to-end read, write, and plot
// operations: it resolves formats, instantiates capabilities, stamps
// provenance metadata on loaded datasets, and normalizes errors so every
// failure surfaces as one of the typed error kinds.
package iomanager

import (
	"encoding/hex"
	"os"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/coriolab/seaconv/core/capability"
	"github.com/coriolab/seaconv/core/dataset"
	apperrors "github.com/coriolab/seaconv/core/errors"
	"github.com/coriolab/seaconv/internal/fileutil"
	"github.com/coriolab/seaconv/internal/logging"
)

// Provenance attribute keys stamped on every loaded dataset.
const (
	AttrSourceFile     = "source_file"
	AttrSourceChecksum = "source_checksum_blake3"
	AttrDatasetUUID    = "dataset_uuid"
)

// Manager runs read, write, and plot operations against a registry.
type Manager struct {
	registry *capability.Registry
	resolver *capability.Resolver
	factory  *capability.Factory
}

// New creates a manager over a registry.
func New(registry *capability.Registry) *Manager {
	return &Manager{
		registry: registry,
		resolver: capability.NewResolver(registry),
		factory:  capability.NewFactory(registry),
	}
}

// Registry exposes the underlying registry for listings.
func (m *Manager) Registry() *capability.Registry {
	return m.registry
}

// Read loads a dataset from path. formatHint, when non-empty, names the
// reader explicitly; otherwise the file extension decides. companion is the
// auxiliary input for formats that need one. The loaded dataset carries the
// source path, a BLAKE3 checksum of the raw file bytes, and a fresh UUID in
// its attributes.
func (m *Manager) Read(path, formatHint, companion string) (*dataset.Dataset, error) {
	// An explicit hint is validated before the path is touched; without a
	// hint, a missing file is reported before extension matching.
	if formatHint == "" && !fileutil.Exists(path) {
		return nil, apperrors.NewNotFound("input file", path)
	}
	reg, err := m.resolver.ResolveRead(path, formatHint)
	if err != nil {
		return nil, err
	}
	if !fileutil.Exists(path) {
		return nil, apperrors.NewNotFound("input file", path)
	}
	reader, err := m.factory.Reader(reg.Key, path, companion)
	if err != nil {
		return nil, m.normalize("read", path, err)
	}
	logging.Debug("reading input", "path", path, "format", reg.Key)
	ds, err := reader.Load()
	if err != nil {
		return nil, m.normalize("read", path, err)
	}
	m.stampProvenance(ds, path)
	return ds, nil
}

// Write serializes a dataset to path, creating the parent directory if
// needed. formatHint, when non-empty, names the writer explicitly.
func (m *Manager) Write(ds *dataset.Dataset, path, formatHint string) error {
	reg, err := m.resolver.ResolveWrite(path, formatHint)
	if err != nil {
		return err
	}
	writer, err := m.factory.Writer(reg.Key, ds)
	if err != nil {
		return m.normalize("write", path, err)
	}
	if err := fileutil.EnsureDir(path); err != nil {
		return err
	}
	logging.Debug("writing output", "path", path, "format", reg.Key)
	if err := writer.Save(path); err != nil {
		if apperrors.IsTyped(err) {
			return err
		}
		return apperrors.NewWrite(path, err)
	}
	return nil
}

// Plot renders a dataset with the named plotter, creating the output
// directory if needed.
func (m *Manager) Plot(ds *dataset.Dataset, plotterKey string, opts capability.PlotOptions) error {
	reg, err := m.resolver.ResolvePlot(plotterKey)
	if err != nil {
		return err
	}
	plotter, err := m.factory.Plotter(reg.Key, ds)
	if err != nil {
		return m.normalize("plot", opts.OutputPath, err)
	}
	if opts.OutputPath != "" {
		if err := fileutil.EnsureDir(opts.OutputPath); err != nil {
			return err
		}
	}
	logging.Debug("rendering plot", "plotter", reg.Key, "output", opts.OutputPath)
	if err := plotter.Render(opts); err != nil {
		return m.normalize("plot", opts.OutputPath, err)
	}
	return nil
}

// stampProvenance records where a dataset came from. The checksum covers
// the file bytes as stored on disk, compressed or not.
func (m *Manager) stampProvenance(ds *dataset.Dataset, path string) {
	ds.Attrs[AttrSourceFile] = path
	ds.Attrs[AttrDatasetUUID] = uuid.NewString()
	if raw, err := os.ReadFile(path); err == nil {
		sum := blake3.Sum256(raw)
		ds.Attrs[AttrSourceChecksum] = hex.EncodeToString(sum[:])
	}
}

// normalize wraps errors that are not already one of the typed kinds so
// callers can always map failures to an exit code.
func (m *Manager) normalize(operation, path string, err error) error {
	if apperrors.IsTyped(err) {
		return err
	}
	return apperrors.NewOperationFailed(operation, path, err)
}
