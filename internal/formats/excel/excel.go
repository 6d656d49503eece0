// Package excel reads and writes datasets as .xlsx workbooks. The layout
// mirrors the CSV format: one sheet, a header row of "time" plus variable
// names, RFC 3339 timestamps, one row per sample. Blank cells are NaN.
package excel

import (
	"math"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/coriolab/seaconv/core/capability"
	"github.com/coriolab/seaconv/core/dataset"
	apperrors "github.com/coriolab/seaconv/core/errors"
	"github.com/coriolab/seaconv/internal/fileutil"
)

const (
	formatKey = "excel"
	sheetName = "Data"
)

func init() {
	capability.RegisterBuiltin(capability.Registration{
		Key:           formatKey,
		DisplayName:   "Excel Workbook",
		FileExtension: ".xlsx",
		ImplName:      "excel.Reader",
		NewReader: func(primary, companion string) (capability.Reader, error) {
			return &Reader{path: primary}, nil
		},
	})
	capability.RegisterBuiltin(capability.Registration{
		Key:           formatKey,
		DisplayName:   "Excel Workbook",
		FileExtension: ".xlsx",
		ImplName:      "excel.Writer",
		NewWriter: func(ds *dataset.Dataset) (capability.Writer, error) {
			return &Writer{ds: ds}, nil
		},
	})
}

// Reader parses the first sheet of a workbook.
type Reader struct {
	path string
}

func (r *Reader) Load() (*dataset.Dataset, error) {
	if !fileutil.Exists(r.path) {
		return nil, apperrors.NewNotFound("input file", r.path)
	}
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, apperrors.NewParse(formatKey, r.path, err.Error())
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewParse(formatKey, r.path, err.Error())
	}
	if len(rows) == 0 {
		return nil, apperrors.NewParse(formatKey, r.path, "empty workbook")
	}
	header := rows[0]
	if len(header) < 2 || header[0] != "time" {
		return nil, apperrors.NewParse(formatKey, r.path, `first header column must be "time"`)
	}
	names := header[1:]

	times := make([]time.Time, 0, len(rows)-1)
	columns := make([][]float64, len(names))
	for rowNum, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		ts, err := time.Parse(time.RFC3339, row[0])
		if err != nil {
			return nil, apperrors.NewParse(formatKey, r.path,
				"row "+strconv.Itoa(rowNum+2)+": invalid timestamp "+strconv.Quote(row[0]))
		}
		times = append(times, ts)
		for i := range names {
			// GetRows trims trailing empty cells, so a short row means
			// blanks at the end.
			cell := ""
			if i+1 < len(row) {
				cell = row[i+1]
			}
			if cell == "" {
				columns[i] = append(columns[i], math.NaN())
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, apperrors.NewParse(formatKey, r.path,
					"row "+strconv.Itoa(rowNum+2)+": invalid value "+strconv.Quote(cell))
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

// Writer serializes a dataset to a single-sheet workbook.
type Writer struct {
	ds *dataset.Dataset
}

func (w *Writer) Save(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return apperrors.NewWrite(path, err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return apperrors.NewWrite(path, err)
	}

	names := w.ds.Variables()
	header := make([]any, 0, len(names)+1)
	header = append(header, "time")
	for _, name := range names {
		header = append(header, name)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return apperrors.NewWrite(path, err)
	}

	for i := 0; i < w.ds.Len(); i++ {
		row := make([]any, 0, len(names)+1)
		row = append(row, w.ds.Times[i].UTC().Format(time.RFC3339))
		for _, name := range names {
			values, _ := w.ds.Values(name)
			if math.IsNaN(values[i]) {
				row = append(row, nil)
			} else {
				row = append(row, values[i])
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return apperrors.NewWrite(path, err)
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return apperrors.NewWrite(path, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return apperrors.NewWrite(path, err)
	}
	return nil
}
