// Package timeseries renders one or more dataset variables against the
// time index as an SVG line chart.
package timeseries

import (
	"os"
	"strconv"

	"github.com/coriolab/seaconv/core/capability"
	"github.com/coriolab/seaconv/core/dataset"
	apperrors "github.com/coriolab/seaconv/core/errors"
	"github.com/coriolab/seaconv/internal/plotters/svgplot"
)

func init() {
	capability.RegisterBuiltin(capability.Registration{
		Key:         "time-series",
		DisplayName: "Time Series Plot",
		ImplName:    "timeseries.Plotter",
		NewPlotter: func(ds *dataset.Dataset) (capability.Plotter, error) {
			return &Plotter{ds: ds}, nil
		},
		Flags: func() []capability.FlagSpec {
			return []capability.FlagSpec{
				{Name: "width", Type: capability.FlagInt, Default: "900", Help: "Image width in pixels."},
				{Name: "height", Type: capability.FlagInt, Default: "500", Help: "Image height in pixels."},
				{Name: "ymin", Help: "Lower y axis bound. Auto when empty."},
				{Name: "ymax", Help: "Upper y axis bound. Auto when empty."},
				{Name: "second-axis", Help: "Variable drawn against a second y axis on the right."},
			}
		},
	})
}

// Plotter draws selected variables over time.
type Plotter struct {
	ds *dataset.Dataset
}

func (p *Plotter) Render(opts capability.PlotOptions) error {
	parameters := opts.Parameters
	if len(parameters) == 0 {
		parameters = p.ds.Variables()
	}

	x := make([]float64, p.ds.Len())
	for i, t := range p.ds.Times {
		x[i] = float64(t.Unix())
	}

	secondAxis := opts.ExtraString("second-axis")
	var series, rightSeries []svgplot.Series
	for _, name := range parameters {
		values, ok := p.ds.Values(name)
		if !ok {
			return apperrors.NewMissingVariable(name, p.ds.Variables())
		}
		s := svgplot.Series{Name: name, X: x, Y: values}
		if name == secondAxis {
			rightSeries = append(rightSeries, s)
		} else {
			series = append(series, s)
		}
	}
	if secondAxis != "" && len(rightSeries) == 0 {
		values, ok := p.ds.Values(secondAxis)
		if !ok {
			return apperrors.NewMissingVariable(secondAxis, p.ds.Variables())
		}
		rightSeries = append(rightSeries, svgplot.Series{Name: secondAxis, X: x, Y: values})
	}

	title := opts.Title
	if title == "" {
		title = "Time Series"
	}
	yLabel := ""
	if len(series) == 1 {
		yLabel = series[0].Name
	}
	chart := &svgplot.Chart{
		Title:       title,
		XLabel:      "time",
		YLabel:      yLabel,
		Width:       opts.ExtraInt("width"),
		Height:      opts.ExtraInt("height"),
		XTime:       true,
		YMin:        axisBound(opts.ExtraString("ymin")),
		YMax:        axisBound(opts.ExtraString("ymax")),
		Series:      series,
		RightSeries: rightSeries,
		RightLabel:  secondAxis,
	}
	if err := os.WriteFile(opts.OutputPath, chart.Render(), 0o644); err != nil {
		return apperrors.NewWrite(opts.OutputPath, err)
	}
	return nil
}

// axisBound parses an optional numeric bound. An empty or malformed value
// leaves the bound open.
func axisBound(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
