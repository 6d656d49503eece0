// Package tsdiagram renders a temperature-salinity scatter diagram, the
// classic water-mass characterization plot.
package tsdiagram

import (
	"fmt"
	"math"
	"os"

	"github.com/coriolab/seaconv/core/capability"
	"github.com/coriolab/seaconv/core/dataset"
	apperrors "github.com/coriolab/seaconv/core/errors"
	"github.com/coriolab/seaconv/internal/plotters/svgplot"
)

var (
	temperatureCandidates = []string{"temperature", "t090C", "t190C", "temp"}
	salinityCandidates    = []string{"salinity", "sal00", "sal11", "psal"}
)

func init() {
	capability.RegisterBuiltin(capability.Registration{
		Key:         "ts-diagram",
		DisplayName: "Temperature-Salinity Diagram",
		ImplName:    "tsdiagram.Plotter",
		NewPlotter: func(ds *dataset.Dataset) (capability.Plotter, error) {
			return &Plotter{ds: ds}, nil
		},
		Flags: func() []capability.FlagSpec {
			return []capability.FlagSpec{
				{Name: "temperature-variable", Help: "Temperature variable name. Auto-detected when empty."},
				{Name: "salinity-variable", Help: "Salinity variable name. Auto-detected when empty."},
				{Name: "dot-size", Type: capability.FlagFloat, Default: "2.5", Help: "Marker radius in pixels."},
				{Name: "isopycnals", Type: capability.FlagInt, Default: "0", Help: "Number of constant-density lines to overlay."},
				{Name: "width", Type: capability.FlagInt, Default: "700", Help: "Image width in pixels."},
				{Name: "height", Type: capability.FlagInt, Default: "600", Help: "Image height in pixels."},
			}
		},
	})
}

// Plotter draws temperature against salinity.
type Plotter struct {
	ds *dataset.Dataset
}

func (p *Plotter) Render(opts capability.PlotOptions) error {
	tempName, temp, err := p.pick(opts.ExtraString("temperature-variable"), temperatureCandidates)
	if err != nil {
		return err
	}
	salName, sal, err := p.pick(opts.ExtraString("salinity-variable"), salinityCandidates)
	if err != nil {
		return err
	}

	title := opts.Title
	if title == "" {
		title = "T-S Diagram"
	}
	series := []svgplot.Series{
		{
			Name:    tempName + " / " + salName,
			X:       sal,
			Y:       temp,
			Scatter: true,
			DotSize: opts.ExtraFloat("dot-size"),
		},
	}
	series = append(series, isopycnalLines(sal, temp, opts.ExtraInt("isopycnals"))...)
	chart := &svgplot.Chart{
		Title:  title,
		XLabel: salName,
		YLabel: tempName,
		Width:  opts.ExtraInt("width"),
		Height: opts.ExtraInt("height"),
		Series: series,
	}
	if err := os.WriteFile(opts.OutputPath, chart.Render(), 0o644); err != nil {
		return apperrors.NewWrite(opts.OutputPath, err)
	}
	return nil
}

func (p *Plotter) pick(requested string, candidates []string) (string, []float64, error) {
	if requested != "" {
		values, ok := p.ds.Values(requested)
		if !ok {
			return "", nil, apperrors.NewMissingVariable(requested, p.ds.Variables())
		}
		return requested, values, nil
	}
	for _, name := range candidates {
		if values, ok := p.ds.Values(name); ok {
			return name, values, nil
		}
	}
	return "", nil, apperrors.NewMissingVariable(candidates[0], p.ds.Variables())
}

// Linearized seawater density anomaly around S=35 PSU, T=10 degC. Good
// enough to overlay orientation lines; not a replacement for a full
// equation of state.
const (
	refSigma    = 26.95
	refSal      = 35.0
	refTemp     = 10.0
	betaHaline  = 0.78 // kg/m3 per PSU
	alphaTherm  = 0.15 // kg/m3 per degC
	lineSamples = 32
)

func sigmaT(s, t float64) float64 {
	return refSigma + betaHaline*(s-refSal) - alphaTherm*(t-refTemp)
}

// isopycnalLines builds count constant-density traces spanning the data
// extent. Zero or negative count, or degenerate data, yields none.
func isopycnalLines(sal, temp []float64, count int) []svgplot.Series {
	if count <= 0 {
		return nil
	}
	sMin, sMax := math.Inf(1), math.Inf(-1)
	tMin, tMax := math.Inf(1), math.Inf(-1)
	for i := range sal {
		if i >= len(temp) || math.IsNaN(sal[i]) || math.IsNaN(temp[i]) {
			continue
		}
		sMin = math.Min(sMin, sal[i])
		sMax = math.Max(sMax, sal[i])
		tMin = math.Min(tMin, temp[i])
		tMax = math.Max(tMax, temp[i])
	}
	if sMin >= sMax || tMin >= tMax {
		return nil
	}

	// Density is lowest at (sMin, tMax) and highest at (sMax, tMin).
	sigMin := sigmaT(sMin, tMax)
	sigMax := sigmaT(sMax, tMin)
	lines := make([]svgplot.Series, 0, count)
	for k := 1; k <= count; k++ {
		level := sigMin + float64(k)/float64(count+1)*(sigMax-sigMin)
		x := make([]float64, lineSamples)
		y := make([]float64, lineSamples)
		for i := range x {
			s := sMin + float64(i)/float64(lineSamples-1)*(sMax-sMin)
			t := refTemp + (betaHaline*(s-refSal)+refSigma-level)/alphaTherm
			x[i] = s
			if t < tMin || t > tMax {
				y[i] = math.NaN()
			} else {
				y[i] = t
			}
		}
		lines = append(lines, svgplot.Series{
			Name: fmt.Sprintf("sigma-t %.2f", level),
			X:    x,
			Y:    y,
		})
	}
	return lines
}
