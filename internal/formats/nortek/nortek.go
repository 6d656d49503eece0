// Package nortek reads Nortek current-meter ASCII exports: a .dat file of
// whitespace-separated numeric columns whose meaning is declared in a
// separate .hdr header file. The header is mandatory since the data file
// carries no column names of its own.
package nortek

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/coriolab/seaconv/core/capability"
	"github.com/coriolab/seaconv/core/dataset"
	apperrors "github.com/coriolab/seaconv/core/errors"
	"github.com/coriolab/seaconv/internal/fileutil"
)

const formatKey = "nortek-ascii"

func init() {
	capability.RegisterBuiltin(capability.Registration{
		Key:           formatKey,
		DisplayName:   "Nortek ASCII Export",
		FileExtension: ".dat",
		ImplName:      "nortek.Reader",
		NewReader: func(primary, companion string) (capability.Reader, error) {
			return &Reader{dataPath: primary, headerPath: companion}, nil
		},
	})
}

// Reader parses a .dat/.hdr file pair.
type Reader struct {
	dataPath   string
	headerPath string
}

// columnSplit separates the fields of one column declaration in the
// header's data file format section. Declarations are aligned with runs of
// spaces, e.g. " 4   Velocity (Beam1|X|East)           (m/s)".
var columnSplit = regexp.MustCompile(`\s{2,}`)

// timeColumns are synthesized into the time index instead of appearing as
// variables.
var timeColumns = map[string]int{
	"month": 0, "day": 1, "year": 2, "hour": 3, "minute": 4, "second": 5,
}

func (r *Reader) Load() (*dataset.Dataset, error) {
	names, err := r.parseHeader()
	if err != nil {
		return nil, err
	}
	return r.parseData(names)
}

// parseHeader extracts the ordered column names from the header file's
// "Data file format" section.
func (r *Reader) parseHeader() ([]string, error) {
	f, err := fileutil.Open(r.headerPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var (
		names     []string
		inSection bool
	)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.Contains(line, "Data file format") {
			inSection = true
			continue
		}
		if !inSection {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if len(names) > 0 {
				break
			}
			continue
		}
		parts := columnSplit.Split(trimmed, -1)
		if len(parts) < 2 {
			continue
		}
		idx, err := strconv.Atoi(parts[0])
		if err != nil || idx < 1 {
			continue
		}
		for len(names) < idx {
			names = append(names, "")
		}
		names[idx-1] = normalizeName(parts[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.NewParse(formatKey, r.headerPath, err.Error())
	}
	if len(names) == 0 {
		return nil, apperrors.NewParse(formatKey, r.headerPath, "no data file format section found")
	}
	for i, name := range names {
		if name == "" {
			return nil, apperrors.NewParse(formatKey, r.headerPath, "column "+strconv.Itoa(i+1)+" is undeclared")
		}
	}
	return names, nil
}

func (r *Reader) parseData(names []string) (*dataset.Dataset, error) {
	f, err := fileutil.Open(r.dataPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	columns := make([][]float64, len(names))
	scanner := bufio.NewScanner(f)
	row := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != len(names) {
			return nil, apperrors.NewParse(formatKey, r.dataPath,
				"row "+strconv.Itoa(row+1)+" has "+strconv.Itoa(len(fields))+" fields, header declares "+strconv.Itoa(len(names)))
		}
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, apperrors.NewParse(formatKey, r.dataPath, "invalid numeric value "+strconv.Quote(field))
			}
			columns[i] = append(columns[i], v)
		}
		row++
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.NewParse(formatKey, r.dataPath, err.Error())
	}

	times, timeIdx := synthesizeTimes(names, columns, row)

	ds := dataset.New()
	ds.SetTimes(times)
	for i, name := range names {
		if _, isTime := timeIdx[i]; isTime {
			continue
		}
		if err := ds.AddVariable(name, columns[i]); err != nil {
			return nil, apperrors.NewParse(formatKey, r.dataPath, err.Error())
		}
	}
	ds.Attrs["reader"] = "Nortek ASCII Export"
	ds.Attrs["header_file"] = r.headerPath
	return ds, nil
}

// synthesizeTimes builds the time index from month/day/year/hour/minute/
// second columns when all six are declared, falling back to the sample
// index otherwise. Returns the index set of consumed columns.
func synthesizeTimes(names []string, columns [][]float64, rows int) ([]time.Time, map[int]struct{}) {
	pos := make(map[string]int, len(timeColumns))
	for i, name := range names {
		if _, ok := timeColumns[name]; ok {
			pos[name] = i
		}
	}
	times := make([]time.Time, rows)
	if len(pos) == len(timeColumns) {
		consumed := make(map[int]struct{}, len(pos))
		for _, i := range pos {
			consumed[i] = struct{}{}
		}
		for i := 0; i < rows; i++ {
			sec := columns[pos["second"]][i]
			times[i] = time.Date(
				int(columns[pos["year"]][i]),
				time.Month(columns[pos["month"]][i]),
				int(columns[pos["day"]][i]),
				int(columns[pos["hour"]][i]),
				int(columns[pos["minute"]][i]),
				int(sec),
				int((sec-float64(int(sec)))*1e9),
				time.UTC,
			)
		}
		return times, consumed
	}
	for i := range times {
		times[i] = time.Unix(int64(i), 0).UTC()
	}
	return times, map[int]struct{}{}
}

// normalizeName lowercases a header column label and joins words with
// underscores so it can serve as a variable name.
func normalizeName(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	var b strings.Builder
	lastUnderscore := false
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
