package jsonformat

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/coriolab/seaconv/core/capability"
	"github.com/coriolab/seaconv/core/dataset"
	apperrors "github.com/coriolab/seaconv/core/errors"
)

// HistogramPlotter renders the value distribution of one parameter as an
// SVG bar chart.
type HistogramPlotter struct {
	ds *dataset.Dataset
}

var _ capability.Plotter = (*HistogramPlotter)(nil)

func (p *HistogramPlotter) Render(opts capability.PlotOptions) error {
	name, values, err := p.target(opts.Parameters)
	if err != nil {
		return err
	}

	bins := opts.ExtraInt("bins")
	if bins < 1 {
		bins = 30
	}
	counts, lo, hi := histogram(values, bins)

	width := opts.ExtraInt("width")
	if width <= 0 {
		width = 800
	}
	height := opts.ExtraInt("height")
	if height <= 0 {
		height = 500
	}
	title := opts.Title
	if title == "" {
		title = "Distribution of " + name
	}

	svg := renderBars(counts, lo, hi, width, height, title, name)
	if err := os.WriteFile(opts.OutputPath, []byte(svg), 0o644); err != nil {
		return apperrors.NewWrite(opts.OutputPath, err)
	}
	return nil
}

// target picks the plotted variable: the first requested parameter, or the
// dataset's first variable when none is requested.
func (p *HistogramPlotter) target(parameters []string) (string, []float64, error) {
	vars := p.ds.Variables()
	name := ""
	switch {
	case len(parameters) > 0:
		name = parameters[0]
	case len(vars) > 0:
		name = vars[0]
	default:
		return "", nil, apperrors.NewMissingVariable("(any parameter)", nil)
	}
	values, ok := p.ds.Values(name)
	if !ok {
		return "", nil, apperrors.NewMissingVariable(name, vars)
	}
	return name, values, nil
}

func histogram(values []float64, bins int) ([]int, float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	counts := make([]int, bins)
	if lo > hi {
		return counts, 0, 1
	}
	if lo == hi {
		hi = lo + 1
	}
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		i := int((v - lo) / (hi - lo) * float64(bins))
		if i >= bins {
			i = bins - 1
		}
		counts[i]++
	}
	return counts, lo, hi
}

func renderBars(counts []int, lo, hi float64, width, height int, title, xLabel string) string {
	const (
		marginLeft   = 55
		marginRight  = 20
		marginTop    = 40
		marginBottom = 45
	)
	maxCount := 1
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}
	plotW := float64(width - marginLeft - marginRight)
	plotH := float64(height - marginTop - marginBottom)
	barW := plotW / float64(len(counts))

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		width, height, width, height)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="white"/>`+"\n", width, height)
	fmt.Fprintf(&b, `<text x="%d" y="24" font-family="sans-serif" font-size="16" text-anchor="middle" font-weight="bold">%s</text>`+"\n",
		width/2, title)

	for i, c := range counts {
		barH := float64(c) / float64(maxCount) * plotH
		x := marginLeft + float64(i)*barW
		y := marginTop + plotH - barH
		fmt.Fprintf(&b, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="#1f77b4" stroke="black" stroke-width="0.5"/>`+"\n",
			x, y, barW, barH)
	}

	bottom := marginTop + int(plotH)
	fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="black"/>`+"\n",
		marginLeft, bottom, width-marginRight, bottom)
	fmt.Fprintf(&b, `<text x="%d" y="%d" font-family="sans-serif" font-size="11" text-anchor="start">%.4g</text>`+"\n",
		marginLeft, height-20, lo)
	fmt.Fprintf(&b, `<text x="%d" y="%d" font-family="sans-serif" font-size="11" text-anchor="end">%.4g</text>`+"\n",
		width-marginRight, height-20, hi)
	fmt.Fprintf(&b, `<text x="%d" y="%d" font-family="sans-serif" font-size="13" text-anchor="middle">%s</text>`+"\n",
		marginLeft+int(plotW)/2, height-4, xLabel)
	b.WriteString("</svg>\n")
	return b.String()
}
