// Package svgplot renders simple two-dimensional charts as standalone SVG
// documents. It covers what the bundled plotters need: line and scatter
// series over numeric or time axes, an optional inverted y axis for depth
// profiles, tick labels, and a legend.
package svgplot

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Series is one plotted trace. X and Y must be the same length; NaN points
// break line segments and are skipped in scatter mode.
type Series struct {
	Name string
	X    []float64
	Y    []float64
	// Scatter draws markers instead of a connected line.
	Scatter bool
	// DotSize is the marker radius in pixels for scatter series.
	// Zero means the default of 2.5.
	DotSize float64
}

// Chart collects everything needed to render one figure.
type Chart struct {
	Title  string
	XLabel string
	YLabel string
	Width  int
	Height int
	// XTime formats x tick labels as timestamps (x values are Unix seconds).
	XTime bool
	// InvertY flips the y axis so that larger values are drawn lower, the
	// convention for depth profiles.
	InvertY bool
	// YMin and YMax override the computed y extent when non-nil.
	YMin   *float64
	YMax   *float64
	Series []Series
	// RightSeries are drawn against a second y axis on the right edge.
	RightSeries []Series
	RightLabel  string
}

var palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728",
	"#9467bd", "#8c564b", "#e377c2", "#7f7f7f",
}

const (
	marginLeft   = 70
	marginRight  = 20
	marginTop    = 40
	marginBottom = 50
	tickCount    = 5
)

// Render produces the SVG document. Charts with no finite data points
// still render axes and title so an all-NaN variable fails visibly rather
// than fatally.
func (c *Chart) Render() []byte {
	width := c.Width
	if width <= 0 {
		width = 900
	}
	height := c.Height
	if height <= 0 {
		height = 500
	}

	marginR := marginRight
	if len(c.RightSeries) > 0 {
		marginR = 60
	}

	xMin, xMax, yMin, yMax := c.bounds()
	plotW := float64(width - marginLeft - marginR)
	plotH := float64(height - marginTop - marginBottom)

	xPix := func(x float64) float64 {
		return marginLeft + (x-xMin)/(xMax-xMin)*plotW
	}
	yPix := func(y float64) float64 {
		frac := (y - yMin) / (yMax - yMin)
		if c.InvertY {
			return marginTop + frac*plotH
		}
		return marginTop + (1-frac)*plotH
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		width, height, width, height)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="white"/>`+"\n", width, height)

	if c.Title != "" {
		fmt.Fprintf(&b, `<text x="%d" y="24" font-family="sans-serif" font-size="16" text-anchor="middle" font-weight="bold">%s</text>`+"\n",
			width/2, escape(c.Title))
	}

	c.renderAxes(&b, width, height, marginR, xMin, xMax, yMin, yMax, xPix, yPix)

	for i, s := range c.Series {
		color := palette[i%len(palette)]
		if s.Scatter {
			c.renderScatter(&b, s, color, xPix, yPix)
		} else {
			c.renderLine(&b, s, color, xPix, yPix)
		}
	}

	if len(c.RightSeries) > 0 {
		rMin, rMax := seriesYBounds(c.RightSeries)
		yPixRight := func(y float64) float64 {
			frac := (y - rMin) / (rMax - rMin)
			return marginTop + (1-frac)*plotH
		}
		c.renderRightAxis(&b, width, height, marginR, rMin, rMax, yPixRight)
		for i, s := range c.RightSeries {
			color := palette[(len(c.Series)+i)%len(palette)]
			if s.Scatter {
				c.renderScatter(&b, s, color, xPix, yPixRight)
			} else {
				c.renderLine(&b, s, color, xPix, yPixRight)
			}
		}
	}

	c.renderLegend(&b)

	b.WriteString("</svg>\n")
	return []byte(b.String())
}

// bounds computes the finite data extent, padded so flat series stay
// visible. Right-axis series contribute to the x extent only.
func (c *Chart) bounds() (xMin, xMax, yMin, yMax float64) {
	xMin, yMin = math.Inf(1), math.Inf(1)
	xMax, yMax = math.Inf(-1), math.Inf(-1)
	for _, s := range c.Series {
		for i := range s.X {
			if !finite(s.X[i]) || i >= len(s.Y) || !finite(s.Y[i]) {
				continue
			}
			xMin = math.Min(xMin, s.X[i])
			xMax = math.Max(xMax, s.X[i])
			yMin = math.Min(yMin, s.Y[i])
			yMax = math.Max(yMax, s.Y[i])
		}
	}
	for _, s := range c.RightSeries {
		for i := range s.X {
			if !finite(s.X[i]) || i >= len(s.Y) || !finite(s.Y[i]) {
				continue
			}
			xMin = math.Min(xMin, s.X[i])
			xMax = math.Max(xMax, s.X[i])
		}
	}
	if xMin > xMax {
		xMin, xMax = 0, 1
	}
	if yMin > yMax {
		yMin, yMax = 0, 1
	}
	if xMax == xMin {
		xMin, xMax = xMin-0.5, xMax+0.5
	}
	if yMax == yMin {
		yMin, yMax = yMin-0.5, yMax+0.5
	}
	if c.YMin != nil {
		yMin = *c.YMin
	}
	if c.YMax != nil {
		yMax = *c.YMax
	}
	if yMax <= yMin {
		yMax = yMin + 1
	}
	return
}

func (c *Chart) renderAxes(b *strings.Builder, width, height, marginR int, xMin, xMax, yMin, yMax float64, xPix, yPix func(float64) float64) {
	left, right := marginLeft, width-marginR
	top, bottom := marginTop, height-marginBottom

	fmt.Fprintf(b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="black"/>`+"\n", left, bottom, right, bottom)
	fmt.Fprintf(b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="black"/>`+"\n", left, top, left, bottom)

	for i := 0; i <= tickCount; i++ {
		frac := float64(i) / tickCount

		x := xMin + frac*(xMax-xMin)
		px := xPix(x)
		fmt.Fprintf(b, `<line x1="%.1f" y1="%d" x2="%.1f" y2="%d" stroke="black"/>`+"\n", px, bottom, px, bottom+5)
		fmt.Fprintf(b, `<text x="%.1f" y="%d" font-family="sans-serif" font-size="11" text-anchor="middle">%s</text>`+"\n",
			px, bottom+18, escape(c.formatX(x)))

		y := yMin + frac*(yMax-yMin)
		py := yPix(y)
		fmt.Fprintf(b, `<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="black"/>`+"\n", left-5, py, left, py)
		fmt.Fprintf(b, `<text x="%d" y="%.1f" font-family="sans-serif" font-size="11" text-anchor="end" dominant-baseline="middle">%s</text>`+"\n",
			left-8, py, escape(formatNumber(y)))
	}

	if c.XLabel != "" {
		fmt.Fprintf(b, `<text x="%d" y="%d" font-family="sans-serif" font-size="13" text-anchor="middle">%s</text>`+"\n",
			(left+right)/2, height-10, escape(c.XLabel))
	}
	if c.YLabel != "" {
		fmt.Fprintf(b, `<text x="16" y="%d" font-family="sans-serif" font-size="13" text-anchor="middle" transform="rotate(-90 16 %d)">%s</text>`+"\n",
			(top+bottom)/2, (top+bottom)/2, escape(c.YLabel))
	}
}

func seriesYBounds(series []Series) (yMin, yMax float64) {
	yMin, yMax = math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for i := range s.Y {
			if finite(s.Y[i]) {
				yMin = math.Min(yMin, s.Y[i])
				yMax = math.Max(yMax, s.Y[i])
			}
		}
	}
	if yMin > yMax {
		yMin, yMax = 0, 1
	}
	if yMax == yMin {
		yMin, yMax = yMin-0.5, yMax+0.5
	}
	return
}

func (c *Chart) renderRightAxis(b *strings.Builder, width, height, marginR int, yMin, yMax float64, yPix func(float64) float64) {
	right := width - marginR
	top, bottom := marginTop, height-marginBottom

	fmt.Fprintf(b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="black"/>`+"\n", right, top, right, bottom)
	for i := 0; i <= tickCount; i++ {
		y := yMin + float64(i)/tickCount*(yMax-yMin)
		py := yPix(y)
		fmt.Fprintf(b, `<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="black"/>`+"\n", right, py, right+5, py)
		fmt.Fprintf(b, `<text x="%d" y="%.1f" font-family="sans-serif" font-size="11" text-anchor="start" dominant-baseline="middle">%s</text>`+"\n",
			right+8, py, escape(formatNumber(y)))
	}
	if c.RightLabel != "" {
		x := width - 12
		fmt.Fprintf(b, `<text x="%d" y="%d" font-family="sans-serif" font-size="13" text-anchor="middle" transform="rotate(90 %d %d)">%s</text>`+"\n",
			x, (top+bottom)/2, x, (top+bottom)/2, escape(c.RightLabel))
	}
}

func (c *Chart) renderLine(b *strings.Builder, s Series, color string, xPix, yPix func(float64) float64) {
	var points []string
	flush := func() {
		if len(points) > 1 {
			fmt.Fprintf(b, `<polyline points="%s" fill="none" stroke="%s" stroke-width="1.5"/>`+"\n",
				strings.Join(points, " "), color)
		}
		points = points[:0]
	}
	for i := range s.X {
		if i >= len(s.Y) || !finite(s.X[i]) || !finite(s.Y[i]) {
			flush()
			continue
		}
		points = append(points, fmt.Sprintf("%.1f,%.1f", xPix(s.X[i]), yPix(s.Y[i])))
	}
	flush()
}

func (c *Chart) renderScatter(b *strings.Builder, s Series, color string, xPix, yPix func(float64) float64) {
	radius := s.DotSize
	if radius <= 0 {
		radius = 2.5
	}
	for i := range s.X {
		if i >= len(s.Y) || !finite(s.X[i]) || !finite(s.Y[i]) {
			continue
		}
		fmt.Fprintf(b, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>`+"\n", xPix(s.X[i]), yPix(s.Y[i]), radius, color)
	}
}

func (c *Chart) renderLegend(b *strings.Builder) {
	all := append(append([]Series{}, c.Series...), c.RightSeries...)
	if len(all) < 2 {
		return
	}
	y := marginTop + 6
	for i, s := range all {
		color := palette[i%len(palette)]
		fmt.Fprintf(b, `<rect x="%d" y="%d" width="12" height="12" fill="%s"/>`+"\n", marginLeft+8, y, color)
		fmt.Fprintf(b, `<text x="%d" y="%d" font-family="sans-serif" font-size="12">%s</text>`+"\n",
			marginLeft+24, y+10, escape(s.Name))
		y += 18
	}
}

func (c *Chart) formatX(x float64) string {
	if c.XTime {
		return time.Unix(int64(x), 0).UTC().Format("01-02 15:04")
	}
	return formatNumber(x)
}

func formatNumber(v float64) string {
	return fmt.Sprintf("%.4g", v)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
