// Package sbecnv reads Sea-Bird SBE processed data files (.cnv): a header
// of *- and #-prefixed lines describing columns and acquisition settings,
// terminated by *END*, followed by whitespace-separated numeric rows.
package sbecnv

import (
	"bufio"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/coriolab/seaconv/core/capability"
	"github.com/coriolab/seaconv/core/dataset"
	apperrors "github.com/coriolab/seaconv/core/errors"
	"github.com/coriolab/seaconv/internal/fileutil"
)

const (
	formatKey = "sbe-cnv"
	// badFlag is the canonical Sea-Bird missing-value marker.
	badFlag = -9.990e-29
)

func init() {
	capability.RegisterBuiltin(capability.Registration{
		Key:           formatKey,
		DisplayName:   "Sea-Bird SBE CNV",
		FileExtension: ".cnv",
		ImplName:      "sbecnv.Reader",
		NewReader: func(primary, companion string) (capability.Reader, error) {
			return &Reader{path: primary}, nil
		},
	})
}

// Reader parses one .cnv file.
type Reader struct {
	path string
}

var (
	nameLine     = regexp.MustCompile(`^#\s*name\s+(\d+)\s*=\s*([^:]+):?\s*(.*)$`)
	intervalLine = regexp.MustCompile(`^#\s*interval\s*=\s*seconds:\s*([0-9.eE+-]+)`)
	startLine    = regexp.MustCompile(`^#\s*start_time\s*=\s*([A-Za-z]{3} \d{2} \d{4} \d{2}:\d{2}:\d{2})`)
	badFlagLine  = regexp.MustCompile(`^#\s*bad_flag\s*=\s*([0-9.eE+-]+)`)
)

// Load parses the header, then reads the data rows into columns aligned to
// the declared names. Timestamps are synthesized from start_time plus the
// sampling interval.
func (r *Reader) Load() (*dataset.Dataset, error) {
	f, err := fileutil.Open(r.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var (
		names       []string
		interval    = 1.0
		startTime   time.Time
		missing     = badFlag
		headerDone  bool
		headerAttrs = map[string]string{}
		columns     [][]float64
		rows        int
	)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if !headerDone {
			switch {
			case strings.HasPrefix(line, "*END*"):
				headerDone = true
				columns = make([][]float64, len(names))
			case nameLine.MatchString(line):
				m := nameLine.FindStringSubmatch(line)
				idx, _ := strconv.Atoi(m[1])
				for len(names) <= idx {
					names = append(names, "")
				}
				names[idx] = strings.TrimSpace(m[2])
				if long := strings.TrimSpace(m[3]); long != "" {
					headerAttrs["column_"+names[idx]] = long
				}
			case intervalLine.MatchString(line):
				if v, err := strconv.ParseFloat(intervalLine.FindStringSubmatch(line)[1], 64); err == nil && v > 0 {
					interval = v
				}
			case startLine.MatchString(line):
				if t, err := time.Parse("Jan 02 2006 15:04:05", startLine.FindStringSubmatch(line)[1]); err == nil {
					startTime = t.UTC()
				}
			case badFlagLine.MatchString(line):
				if v, err := strconv.ParseFloat(badFlagLine.FindStringSubmatch(line)[1], 64); err == nil {
					missing = v
				}
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != len(names) {
			return nil, apperrors.NewParse(formatKey, r.path,
				"data row has "+strconv.Itoa(len(fields))+" fields, header declares "+strconv.Itoa(len(names))+" columns")
		}
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, apperrors.NewParse(formatKey, r.path, "invalid numeric value "+strconv.Quote(field))
			}
			if v == missing {
				v = math.NaN()
			}
			columns[i] = append(columns[i], v)
		}
		rows++
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.NewParse(formatKey, r.path, err.Error())
	}
	if !headerDone {
		return nil, apperrors.NewParse(formatKey, r.path, "missing *END* header terminator")
	}
	if len(names) == 0 {
		return nil, apperrors.NewParse(formatKey, r.path, "header declares no columns")
	}

	if startTime.IsZero() {
		startTime = time.Unix(0, 0).UTC()
	}
	times := make([]time.Time, rows)
	for i := range times {
		times[i] = startTime.Add(time.Duration(float64(i) * interval * float64(time.Second)))
	}

	ds := dataset.New()
	ds.SetTimes(times)
	for i, name := range names {
		if err := ds.AddVariable(name, columns[i]); err != nil {
			return nil, apperrors.NewParse(formatKey, r.path, err.Error())
		}
	}
	for k, v := range headerAttrs {
		ds.Attrs[k] = v
	}
	ds.Attrs["reader"] = "Sea-Bird SBE CNV"
	if !startTime.IsZero() {
		ds.Attrs["start_time"] = startTime.Format(time.RFC3339)
	}
	return ds, nil
}
