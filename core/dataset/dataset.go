// Package dataset defines the in-memory representation of sensor data
// exchanged between readers, writers, and plotters: a time-indexed collection
// of named numeric variables plus key-value metadata.
package dataset

import (
	"fmt"
	"sort"
	"time"

	apperrors "github.com/coriolab/seaconv/core/errors"
)

// Dataset is the payload exchanged between capabilities. Variable order is
// preserved from insertion so output columns stay stable across conversions.
type Dataset struct {
	// Times is the shared time index. Variables are aligned to it by position.
	Times []time.Time
	// Attrs holds dataset-level metadata (instrument headers, provenance).
	Attrs map[string]string

	names []string
	vars  map[string][]float64
}

// New creates an empty dataset.
func New() *Dataset {
	return &Dataset{
		Attrs: make(map[string]string),
		vars:  make(map[string][]float64),
	}
}

// Len returns the number of samples in the time index.
func (d *Dataset) Len() int {
	return len(d.Times)
}

// SetTimes replaces the time index.
func (d *Dataset) SetTimes(times []time.Time) {
	d.Times = times
}

// AddVariable adds or replaces a named variable. The value slice must match
// the length of the time index when one is set.
func (d *Dataset) AddVariable(name string, values []float64) error {
	if name == "" {
		return fmt.Errorf("variable name cannot be empty")
	}
	if len(d.Times) > 0 && len(values) != len(d.Times) {
		return fmt.Errorf("variable %q has %d values, time index has %d", name, len(values), len(d.Times))
	}
	if _, exists := d.vars[name]; !exists {
		d.names = append(d.names, name)
	}
	d.vars[name] = values
	return nil
}

// Variables returns the variable names in insertion order.
func (d *Dataset) Variables() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Has reports whether a variable exists.
func (d *Dataset) Has(name string) bool {
	_, ok := d.vars[name]
	return ok
}

// Values returns the values of a named variable.
func (d *Dataset) Values(name string) ([]float64, bool) {
	v, ok := d.vars[name]
	return v, ok
}

// Rename renames a variable, keeping its position in the column order.
func (d *Dataset) Rename(old, new string) error {
	values, ok := d.vars[old]
	if !ok {
		return apperrors.NewMissingVariable(old, d.Variables())
	}
	if _, exists := d.vars[new]; exists {
		return fmt.Errorf("variable %q already exists", new)
	}
	delete(d.vars, old)
	d.vars[new] = values
	for i, n := range d.names {
		if n == old {
			d.names[i] = new
			break
		}
	}
	return nil
}

// selectMask builds a new dataset from the rows where keep[i] is true.
func (d *Dataset) selectMask(keep []bool) *Dataset {
	out := New()
	for k, v := range d.Attrs {
		out.Attrs[k] = v
	}
	for i, t := range d.Times {
		if keep[i] {
			out.Times = append(out.Times, t)
		}
	}
	for _, name := range d.names {
		src := d.vars[name]
		dst := make([]float64, 0, len(out.Times))
		for i, v := range src {
			if keep[i] {
				dst = append(dst, v)
			}
		}
		out.names = append(out.names, name)
		out.vars[name] = dst
	}
	return out
}

// SelectTime returns the rows whose timestamps lie in [min, max]. A zero min
// or max leaves that bound open.
func (d *Dataset) SelectTime(min, max time.Time) *Dataset {
	keep := make([]bool, len(d.Times))
	for i, t := range d.Times {
		ok := true
		if !min.IsZero() && t.Before(min) {
			ok = false
		}
		if !max.IsZero() && t.After(max) {
			ok = false
		}
		keep[i] = ok
	}
	return d.selectMask(keep)
}

// SelectIndex returns the rows with sample index in [min, max]. Negative
// bounds leave that side open.
func (d *Dataset) SelectIndex(min, max int) *Dataset {
	keep := make([]bool, len(d.Times))
	for i := range d.Times {
		ok := true
		if min >= 0 && i < min {
			ok = false
		}
		if max >= 0 && i > max {
			ok = false
		}
		keep[i] = ok
	}
	return d.selectMask(keep)
}

// SelectValue returns the rows where the named variable lies in [min, max].
// NaN bounds leave that side open. Rows with a NaN value cannot satisfy a
// bound, so they are excluded whenever either bound is set.
func (d *Dataset) SelectValue(variable string, min, max float64) (*Dataset, error) {
	values, ok := d.vars[variable]
	if !ok {
		return nil, apperrors.NewMissingVariable(variable, d.Variables())
	}
	bounded := !isNaN(min) || !isNaN(max)
	keep := make([]bool, len(d.Times))
	for i, v := range values {
		ok := true
		if bounded && isNaN(v) {
			ok = false
		}
		if !isNaN(min) && v < min {
			ok = false
		}
		if !isNaN(max) && v > max {
			ok = false
		}
		keep[i] = ok
	}
	return d.selectMask(keep), nil
}

// TimeRange returns the first and last timestamps. Both are zero for an
// empty dataset; the index is assumed ordered as read from the instrument.
func (d *Dataset) TimeRange() (time.Time, time.Time) {
	if len(d.Times) == 0 {
		return time.Time{}, time.Time{}
	}
	return d.Times[0], d.Times[len(d.Times)-1]
}

// SortedAttrKeys returns the metadata keys in lexical order.
func (d *Dataset) SortedAttrKeys() []string {
	keys := make([]string, 0, len(d.Attrs))
	for k := range d.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
