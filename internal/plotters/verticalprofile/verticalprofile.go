// Package verticalprofile renders a parameter against depth or pressure
// with the vertical axis inverted, the standard presentation for CTD casts.
package verticalprofile

import (
	"os"

	"github.com/coriolab/seaconv/core/capability"
	"github.com/coriolab/seaconv/core/dataset"
	apperrors "github.com/coriolab/seaconv/core/errors"
	"github.com/coriolab/seaconv/internal/plotters/svgplot"
)

// depthCandidates are tried in order when no depth variable is named.
var depthCandidates = []string{"depth", "pressure", "prDM", "depSM", "prdM"}

func init() {
	capability.RegisterBuiltin(capability.Registration{
		Key:         "vertical-profile",
		DisplayName: "Vertical Profile Plot",
		ImplName:    "verticalprofile.Plotter",
		NewPlotter: func(ds *dataset.Dataset) (capability.Plotter, error) {
			return &Plotter{ds: ds}, nil
		},
		Flags: func() []capability.FlagSpec {
			return []capability.FlagSpec{
				{Name: "depth-variable", Help: "Variable for the vertical axis. Auto-detected when empty."},
				{Name: "dot-size", Type: capability.FlagFloat, Default: "0", Help: "Draw samples as dots of this radius instead of a line."},
				{Name: "width", Type: capability.FlagInt, Default: "600", Help: "Image width in pixels."},
				{Name: "height", Type: capability.FlagInt, Default: "700", Help: "Image height in pixels."},
			}
		},
	})
}

// Plotter draws parameters against a depth axis.
type Plotter struct {
	ds *dataset.Dataset
}

func (p *Plotter) Render(opts capability.PlotOptions) error {
	depthName, depth, err := p.depthAxis(opts.ExtraString("depth-variable"))
	if err != nil {
		return err
	}

	parameters := opts.Parameters
	if len(parameters) == 0 {
		for _, name := range p.ds.Variables() {
			if name != depthName {
				parameters = append(parameters, name)
			}
		}
	}
	if len(parameters) == 0 {
		return apperrors.NewMissingVariable("(any parameter)", p.ds.Variables())
	}

	dotSize := opts.ExtraFloat("dot-size")
	series := make([]svgplot.Series, 0, len(parameters))
	for _, name := range parameters {
		values, ok := p.ds.Values(name)
		if !ok {
			return apperrors.NewMissingVariable(name, p.ds.Variables())
		}
		series = append(series, svgplot.Series{
			Name:    name,
			X:       values,
			Y:       depth,
			Scatter: dotSize > 0,
			DotSize: dotSize,
		})
	}

	title := opts.Title
	if title == "" {
		title = "Vertical Profile"
	}
	xLabel := ""
	if len(parameters) == 1 {
		xLabel = parameters[0]
	}
	chart := &svgplot.Chart{
		Title:   title,
		XLabel:  xLabel,
		YLabel:  depthName,
		Width:   opts.ExtraInt("width"),
		Height:  opts.ExtraInt("height"),
		InvertY: true,
		Series:  series,
	}
	if err := os.WriteFile(opts.OutputPath, chart.Render(), 0o644); err != nil {
		return apperrors.NewWrite(opts.OutputPath, err)
	}
	return nil
}

func (p *Plotter) depthAxis(requested string) (string, []float64, error) {
	if requested != "" {
		values, ok := p.ds.Values(requested)
		if !ok {
			return "", nil, apperrors.NewMissingVariable(requested, p.ds.Variables())
		}
		return requested, values, nil
	}
	for _, name := range depthCandidates {
		if values, ok := p.ds.Values(name); ok {
			return name, values, nil
		}
	}
	return "", nil, apperrors.NewMissingVariable("depth or pressure", p.ds.Variables())
}
