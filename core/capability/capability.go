// Package capability defines the format capability model: what a reader,
// writer, or plotter looks like to the rest of the system, how format
// packages and plugins register themselves, and how a format key or file
// extension resolves to a concrete implementation.
package capability

import (
	"fmt"

	"github.com/coriolab/seaconv/core/dataset"
)

// Kind distinguishes the three capability families. Keys are unique per
// kind, not globally, so "csv" can name both a reader and a writer.
type Kind string

const (
	KindReader  Kind = "reader"
	KindWriter  Kind = "writer"
	KindPlotter Kind = "plotter"
)

// Kinds lists all capability kinds in display order.
func Kinds() []Kind {
	return []Kind{KindReader, KindWriter, KindPlotter}
}

// Reader parses an input file into a dataset.
type Reader interface {
	Load() (*dataset.Dataset, error)
}

// Writer serializes a dataset to an output file.
type Writer interface {
	Save(path string) error
}

// Plotter renders a dataset to an image file.
type Plotter interface {
	Render(opts PlotOptions) error
}

// PlotOptions carries the common plot parameters plus whatever
// plotter-specific flags the CLI binder collected.
type PlotOptions struct {
	// OutputPath is where the rendered image is written.
	OutputPath string
	// Title overrides the plot title. Empty means the plotter picks one.
	Title string
	// Parameters names the dataset variables to plot.
	Parameters []string
	// Extra holds plotter-specific flag values keyed by FlagSpec name.
	Extra map[string]any
}

// Extra flag value accessors. Plotters read their declared flags through
// these so a missing or mistyped value degrades to the zero value instead
// of a panic.

func (o PlotOptions) ExtraString(name string) string {
	if v, ok := o.Extra[name].(string); ok {
		return v
	}
	return ""
}

func (o PlotOptions) ExtraFloat(name string) float64 {
	switch v := o.Extra[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func (o PlotOptions) ExtraInt(name string) int {
	switch v := o.Extra[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func (o PlotOptions) ExtraBool(name string) bool {
	if v, ok := o.Extra[name].(bool); ok {
		return v
	}
	return false
}

// FlagType is the value type of a plotter-declared CLI flag.
type FlagType string

const (
	FlagString FlagType = "string"
	FlagInt    FlagType = "int"
	FlagFloat  FlagType = "float"
	FlagBool   FlagType = "bool"
)

// FlagSpec declares one plotter-specific CLI flag. The CLI binder turns
// these into real flags on the plot command at parse time.
type FlagSpec struct {
	// Name is the long flag name in kebab-case, without leading dashes.
	Name string
	// Short is an optional single-letter alias.
	Short string
	// Help is the usage text shown by --help.
	Help string
	// Type selects the flag value type. Empty means FlagString.
	Type FlagType
	// Default is the textual default value, parsed per Type.
	Default string
}

// ReaderConstructor builds a reader for a primary input file. companion is
// the path of an auxiliary file for formats that need one, empty otherwise.
type ReaderConstructor func(primary, companion string) (Reader, error)

// WriterConstructor builds a writer over a dataset.
type WriterConstructor func(ds *dataset.Dataset) (Writer, error)

// PlotterConstructor builds a plotter over a dataset.
type PlotterConstructor func(ds *dataset.Dataset) (Plotter, error)

// Registration is what a format package hands the registry. Exactly one of
// the three constructors must be non-nil; that constructor determines the
// capability kind.
type Registration struct {
	// Key is the stable format key used on the command line (e.g. "sbe-cnv").
	Key string
	// DisplayName is the human-readable format name for listings.
	DisplayName string
	// FileExtension is the lowercase extension including the dot, used for
	// format resolution from paths. Empty for plotters and for formats that
	// are only reachable by explicit key.
	FileExtension string
	// ImplName names the implementing type for verbose listings.
	ImplName string

	NewReader  ReaderConstructor
	NewWriter  WriterConstructor
	NewPlotter PlotterConstructor

	// Flags optionally declares plotter-specific CLI flags.
	Flags func() []FlagSpec
}

// Kind reports which capability family the registration belongs to, based
// on which constructor is set. Returns an error unless exactly one is set.
func (r Registration) Kind() (Kind, error) {
	var kinds []Kind
	if r.NewReader != nil {
		kinds = append(kinds, KindReader)
	}
	if r.NewWriter != nil {
		kinds = append(kinds, KindWriter)
	}
	if r.NewPlotter != nil {
		kinds = append(kinds, KindPlotter)
	}
	switch len(kinds) {
	case 1:
		return kinds[0], nil
	case 0:
		return "", fmt.Errorf("registration %q declares no constructor", r.Key)
	default:
		return "", fmt.Errorf("registration %q declares %d constructors, want exactly one", r.Key, len(kinds))
	}
}

// Descriptor is the read-only view of a registered capability exposed to
// listings and the API.
type Descriptor struct {
	Key           string `json:"key" yaml:"key"`
	Kind          Kind   `json:"kind" yaml:"kind"`
	DisplayName   string `json:"name" yaml:"name"`
	FileExtension string `json:"extension,omitempty" yaml:"extension,omitempty"`
	ImplName      string `json:"impl,omitempty" yaml:"impl,omitempty"`
	// Origin is "builtin" or "plugin:<name>".
	Origin string `json:"origin" yaml:"origin"`
}
