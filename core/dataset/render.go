package dataset

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Summary renders a short human-readable overview: sample count, time range,
// and per-variable statistics. Used by the "show -s summary" command.
func (d *Dataset) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Samples:   %d\n", d.Len())
	first, last := d.TimeRange()
	if !first.IsZero() {
		fmt.Fprintf(&b, "Time:      %s .. %s\n", first.Format(time.RFC3339), last.Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "Variables: %d\n", len(d.names))
	for _, name := range d.names {
		values := d.vars[name]
		min, max, m := stats(values)
		if math.IsNaN(m) {
			fmt.Fprintf(&b, "  %-24s (no finite values)\n", name)
			continue
		}
		fmt.Fprintf(&b, "  %-24s min=%.4g max=%.4g mean=%.4g\n", name, min, max, m)
	}
	return b.String()
}

// Info renders the dataset metadata, one "key = value" line per attribute in
// lexical key order. Used by the "show -s info" command.
func (d *Dataset) Info() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Attributes: %d\n", len(d.Attrs))
	for _, k := range d.SortedAttrKeys() {
		fmt.Fprintf(&b, "  %s = %s\n", k, d.Attrs[k])
	}
	return b.String()
}

// Example renders the first n samples as an aligned text table. Used by the
// "show -s example" command.
func (d *Dataset) Example(n int) string {
	if n <= 0 || n > d.Len() {
		n = d.Len()
	}
	var b strings.Builder
	b.WriteString("time")
	for _, name := range d.names {
		fmt.Fprintf(&b, "\t%s", name)
	}
	b.WriteString("\n")
	for i := 0; i < n; i++ {
		b.WriteString(d.Times[i].Format(time.RFC3339))
		for _, name := range d.names {
			fmt.Fprintf(&b, "\t%g", d.vars[name][i])
		}
		b.WriteString("\n")
	}
	if n < d.Len() {
		fmt.Fprintf(&b, "... %d more samples\n", d.Len()-n)
	}
	return b.String()
}

func stats(values []float64) (min, max, m float64) {
	min, max = math.Inf(1), math.Inf(-1)
	var sum float64
	var count int
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
		count++
	}
	if count == 0 {
		return math.NaN(), math.NaN(), math.NaN()
	}
	return min, max, sum / float64(count)
}
