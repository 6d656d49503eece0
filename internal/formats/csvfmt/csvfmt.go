// Package csvfmt reads and writes datasets as CSV: a header row of "time"
// followed by variable names, then one row per sample with RFC 3339
// timestamps. Empty cells round-trip as NaN.
package csvfmt

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/coriolab/seaconv/core/capability"
	"github.com/coriolab/seaconv/core/dataset"
	apperrors "github.com/coriolab/seaconv/core/errors"
	"github.com/coriolab/seaconv/internal/fileutil"
)

const formatKey = "csv"

func init() {
	capability.RegisterBuiltin(capability.Registration{
		Key:           formatKey,
		DisplayName:   "Comma-Separated Values",
		FileExtension: ".csv",
		ImplName:      "csvfmt.Reader",
		NewReader: func(primary, companion string) (capability.Reader, error) {
			return &Reader{path: primary}, nil
		},
	})
	capability.RegisterBuiltin(capability.Registration{
		Key:           formatKey,
		DisplayName:   "Comma-Separated Values",
		FileExtension: ".csv",
		ImplName:      "csvfmt.Writer",
		NewWriter: func(ds *dataset.Dataset) (capability.Writer, error) {
			return &Writer{ds: ds}, nil
		},
	})
}

// Reader parses a CSV file with a time column.
type Reader struct {
	path string
}

func (r *Reader) Load() (*dataset.Dataset, error) {
	f, err := fileutil.Open(r.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, apperrors.NewParse(formatKey, r.path, err.Error())
	}
	if len(records) == 0 {
		return nil, apperrors.NewParse(formatKey, r.path, "empty file")
	}
	header := records[0]
	if len(header) < 2 || header[0] != "time" {
		return nil, apperrors.NewParse(formatKey, r.path, `first header column must be "time"`)
	}
	names := header[1:]

	times := make([]time.Time, 0, len(records)-1)
	columns := make([][]float64, len(names))
	for rowNum, row := range records[1:] {
		if len(row) != len(header) {
			return nil, apperrors.NewParse(formatKey, r.path,
				"row "+strconv.Itoa(rowNum+2)+" has "+strconv.Itoa(len(row))+" cells, want "+strconv.Itoa(len(header)))
		}
		t, err := time.Parse(time.RFC3339, row[0])
		if err != nil {
			return nil, apperrors.NewParse(formatKey, r.path, "row "+strconv.Itoa(rowNum+2)+": invalid timestamp "+strconv.Quote(row[0]))
		}
		times = append(times, t)
		for i, cell := range row[1:] {
			if cell == "" {
				columns[i] = append(columns[i], math.NaN())
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, apperrors.NewParse(formatKey, r.path, "row "+strconv.Itoa(rowNum+2)+": invalid value "+strconv.Quote(cell))
			}
			columns[i] = append(columns[i], v)
		}
	}

	ds := dataset.New()
	ds.SetTimes(times)
	for i, name := range names {
		if err := ds.AddVariable(name, columns[i]); err != nil {
			return nil, apperrors.NewParse(formatKey, r.path, err.Error())
		}
	}
	return ds, nil
}

// Writer serializes a dataset to CSV.
type Writer struct {
	ds *dataset.Dataset
}

func (w *Writer) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewWrite(path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	names := w.ds.Variables()
	header := append([]string{"time"}, names...)
	if err := cw.Write(header); err != nil {
		return apperrors.NewWrite(path, err)
	}
	row := make([]string, len(header))
	for i := 0; i < w.ds.Len(); i++ {
		row[0] = w.ds.Times[i].UTC().Format(time.RFC3339)
		for j, name := range names {
			values, _ := w.ds.Values(name)
			if math.IsNaN(values[i]) {
				row[j+1] = ""
			} else {
				row[j+1] = strconv.FormatFloat(values[i], 'g', -1, 64)
			}
		}
		if err := cw.Write(row); err != nil {
			return apperrors.NewWrite(path, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return apperrors.NewWrite(path, err)
	}
	return nil
}
