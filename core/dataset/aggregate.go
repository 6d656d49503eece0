package dataset

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"time"

	apperrors "github.com/coriolab/seaconv/core/errors"
)

// Methods returns the aggregate method names accepted by Aggregate, in the
// order they appear in CLI help. Aliases map to the same computation.
func Methods() []string {
	return []string{
		"min", "max", "mean", "arithmetic_mean", "median",
		"std", "standard_deviation", "var", "variance", "sum",
	}
}

func isNaN(v float64) bool { return math.IsNaN(v) }

// Aggregate applies a named aggregate method to one variable.
// Samples are ignored if NaN so gappy sensor records still aggregate.
func (d *Dataset) Aggregate(method, variable string) (float64, error) {
	values, ok := d.vars[variable]
	if !ok {
		return 0, apperrors.NewMissingVariable(variable, d.Variables())
	}
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	return aggregate(method, clean)
}

func aggregate(method string, values []float64) (float64, error) {
	if len(values) == 0 {
		return math.NaN(), nil
	}
	switch method {
	case "min":
		out := values[0]
		for _, v := range values[1:] {
			if v < out {
				out = v
			}
		}
		return out, nil
	case "max":
		out := values[0]
		for _, v := range values[1:] {
			if v > out {
				out = v
			}
		}
		return out, nil
	case "mean", "arithmetic_mean":
		return mean(values), nil
	case "median":
		sorted := make([]float64, len(values))
		copy(sorted, values)
		sort.Float64s(sorted)
		n := len(sorted)
		if n%2 == 1 {
			return sorted[n/2], nil
		}
		return (sorted[n/2-1] + sorted[n/2]) / 2, nil
	case "std", "standard_deviation":
		return math.Sqrt(variance(values)), nil
	case "var", "variance":
		return variance(values), nil
	case "sum":
		var out float64
		for _, v := range values {
			out += v
		}
		return out, nil
	default:
		return 0, fmt.Errorf("unknown aggregate method %q, valid methods: %v", method, Methods())
	}
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// variance is the population variance. Instrument records are treated as the
// full population, not a sample.
func variance(values []float64) float64 {
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(values))
}

var intervalPattern = regexp.MustCompile(`^(\d+)([smhdM])$`)

// bucketFunc floors a timestamp to its bucket start.
type bucketFunc func(time.Time) time.Time

// parseInterval parses a resampling interval such as "30s", "15m", "1h",
// "1d", or "1M" (calendar months).
func parseInterval(interval string) (bucketFunc, error) {
	m := intervalPattern.FindStringSubmatch(interval)
	if m == nil {
		return nil, fmt.Errorf("invalid time interval %q, expected forms like 30s, 15m, 1h, 1d, 1M", interval)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n == 0 {
		return nil, fmt.Errorf("invalid time interval %q", interval)
	}
	switch m[2] {
	case "s":
		dur := time.Duration(n) * time.Second
		return func(t time.Time) time.Time { return t.Truncate(dur) }, nil
	case "m":
		dur := time.Duration(n) * time.Minute
		return func(t time.Time) time.Time { return t.Truncate(dur) }, nil
	case "h":
		dur := time.Duration(n) * time.Hour
		return func(t time.Time) time.Time { return t.Truncate(dur) }, nil
	case "d":
		dur := time.Duration(n) * 24 * time.Hour
		return func(t time.Time) time.Time { return t.Truncate(dur) }, nil
	case "M":
		return func(t time.Time) time.Time {
			t = t.UTC()
			months := t.Year()*12 + int(t.Month()) - 1
			months -= months % n
			return time.Date(months/12, time.Month(months%12+1), 1, 0, 0, 0, 0, time.UTC)
		}, nil
	}
	return nil, fmt.Errorf("invalid time interval %q", interval)
}

// Resample buckets the time index by the given interval and aggregates every
// variable per bucket with the given method. Bucket start times become the
// new index.
func (d *Dataset) Resample(interval, method string) (*Dataset, error) {
	bucket, err := parseInterval(interval)
	if err != nil {
		return nil, err
	}
	// Validate the method name before walking the index.
	if _, err := aggregate(method, []float64{0}); err != nil {
		return nil, err
	}

	type group struct {
		start   time.Time
		indices []int
	}
	groups := make(map[time.Time]*group)
	var order []time.Time
	for i, t := range d.Times {
		start := bucket(t)
		g, ok := groups[start]
		if !ok {
			g = &group{start: start}
			groups[start] = g
			order = append(order, start)
		}
		g.indices = append(g.indices, i)
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	out := New()
	for k, v := range d.Attrs {
		out.Attrs[k] = v
	}
	out.Attrs["resample_interval"] = interval
	out.Attrs["resample_method"] = method
	out.Times = make([]time.Time, len(order))
	copy(out.Times, order)

	for _, name := range d.names {
		src := d.vars[name]
		dst := make([]float64, 0, len(order))
		for _, start := range order {
			g := groups[start]
			bucketValues := make([]float64, 0, len(g.indices))
			for _, i := range g.indices {
				if !math.IsNaN(src[i]) {
					bucketValues = append(bucketValues, src[i])
				}
			}
			v, err := aggregate(method, bucketValues)
			if err != nil {
				return nil, err
			}
			dst = append(dst, v)
		}
		out.names = append(out.names, name)
		out.vars[name] = dst
	}
	return out, nil
}
