// Package jsonformat is the bundled example plugin. It registers a JSON
// reader and writer plus a histogram plotter through the plugin
// registration path, so it exercises the same merge and diagnostics
// machinery a third-party plugin would. Binaries opt in by importing it for
// side effects.
//
// The document layout is a single JSON object: a "time" array of RFC 3339
// strings, one numeric array per variable (null for missing samples), and
// an optional "metadata" object of string attributes.
package jsonformat

import (
	"github.com/coriolab/seaconv/core/capability"
	"github.com/coriolab/seaconv/core/dataset"
)

// PluginName identifies this plugin in capability origins and diagnostics.
const PluginName = "jsonformat"

const formatKey = "json"

func init() {
	capability.RegisterPlugin(capability.Registration{
		Key:           formatKey,
		DisplayName:   "JSON Time Series",
		FileExtension: ".json",
		ImplName:      "jsonformat.Reader",
		NewReader: func(primary, companion string) (capability.Reader, error) {
			return &Reader{path: primary}, nil
		},
	}, PluginName)
	capability.RegisterPlugin(capability.Registration{
		Key:           formatKey,
		DisplayName:   "JSON Time Series",
		FileExtension: ".json",
		ImplName:      "jsonformat.Writer",
		NewWriter: func(ds *dataset.Dataset) (capability.Writer, error) {
			return &Writer{ds: ds}, nil
		},
	}, PluginName)
	capability.RegisterPlugin(capability.Registration{
		Key:         "histogram",
		DisplayName: "Histogram Plot",
		ImplName:    "jsonformat.HistogramPlotter",
		NewPlotter: func(ds *dataset.Dataset) (capability.Plotter, error) {
			return &HistogramPlotter{ds: ds}, nil
		},
		Flags: func() []capability.FlagSpec {
			return []capability.FlagSpec{
				{Name: "bins", Short: "b", Type: capability.FlagInt, Default: "30", Help: "Number of histogram bins."},
				{Name: "width", Type: capability.FlagInt, Default: "800", Help: "Image width in pixels."},
				{Name: "height", Type: capability.FlagInt, Default: "500", Help: "Image height in pixels."},
			}
		},
	}, PluginName)
}
