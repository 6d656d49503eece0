// Package rbr reads RBR instrument deployments (.rsk), which are SQLite
// databases: a channels table describing the sensors and a data table with
// one millisecond-epoch timestamp column plus one value column per channel.
package rbr

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/coriolab/seaconv/core/capability"
	"github.com/coriolab/seaconv/core/dataset"
	apperrors "github.com/coriolab/seaconv/core/errors"
	"github.com/coriolab/seaconv/internal/fileutil"
)

const formatKey = "rbr-rsk"

func init() {
	capability.RegisterBuiltin(capability.Registration{
		Key:           formatKey,
		DisplayName:   "RBR RSK",
		FileExtension: ".rsk",
		ImplName:      "rbr.Reader",
		NewReader: func(primary, companion string) (capability.Reader, error) {
			return &Reader{path: primary}, nil
		},
	})
}

// Reader loads one .rsk deployment database.
type Reader struct {
	path string
}

type channel struct {
	id   int
	name string
}

func (r *Reader) Load() (*dataset.Dataset, error) {
	if !fileutil.Exists(r.path) {
		return nil, apperrors.NewNotFound("input file", r.path)
	}
	db, err := sql.Open("sqlite", r.path)
	if err != nil {
		return nil, apperrors.NewParse(formatKey, r.path, err.Error())
	}
	defer db.Close()

	channels, err := r.loadChannels(db)
	if err != nil {
		return nil, err
	}
	ds, err := r.loadData(db, channels)
	if err != nil {
		return nil, err
	}
	r.loadInstrument(db, ds)
	ds.Attrs["reader"] = "RBR RSK"
	return ds, nil
}

func (r *Reader) loadChannels(db *sql.DB) ([]channel, error) {
	rows, err := db.Query(`SELECT channelID, longName FROM channels ORDER BY channelID`)
	if err != nil {
		return nil, apperrors.NewParse(formatKey, r.path, "channels table: "+err.Error())
	}
	defer rows.Close()

	var channels []channel
	seen := map[string]int{}
	for rows.Next() {
		var c channel
		var long sql.NullString
		if err := rows.Scan(&c.id, &long); err != nil {
			return nil, apperrors.NewParse(formatKey, r.path, err.Error())
		}
		c.name = normalizeName(long.String)
		if c.name == "" {
			c.name = fmt.Sprintf("channel_%02d", c.id)
		}
		// Duplicate long names (e.g. two temperature sensors) get a suffix.
		seen[c.name]++
		if n := seen[c.name]; n > 1 {
			c.name = fmt.Sprintf("%s_%d", c.name, n)
		}
		channels = append(channels, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewParse(formatKey, r.path, err.Error())
	}
	if len(channels) == 0 {
		return nil, apperrors.NewParse(formatKey, r.path, "no channels defined")
	}
	return channels, nil
}

func (r *Reader) loadData(db *sql.DB, channels []channel) (*dataset.Dataset, error) {
	cols := make([]string, 0, len(channels)+1)
	cols = append(cols, "tstamp")
	for _, c := range channels {
		cols = append(cols, fmt.Sprintf("channel%02d", c.id))
	}
	rows, err := db.Query(`SELECT ` + strings.Join(cols, ", ") + ` FROM data ORDER BY tstamp`)
	if err != nil {
		return nil, apperrors.NewParse(formatKey, r.path, "data table: "+err.Error())
	}
	defer rows.Close()

	var times []time.Time
	columns := make([][]float64, len(channels))
	scan := make([]any, len(channels)+1)
	var tstamp int64
	values := make([]sql.NullFloat64, len(channels))
	scan[0] = &tstamp
	for i := range values {
		scan[i+1] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return nil, apperrors.NewParse(formatKey, r.path, err.Error())
		}
		times = append(times, time.UnixMilli(tstamp).UTC())
		for i, v := range values {
			if v.Valid {
				columns[i] = append(columns[i], v.Float64)
			} else {
				columns[i] = append(columns[i], math.NaN())
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewParse(formatKey, r.path, err.Error())
	}

	ds := dataset.New()
	ds.SetTimes(times)
	for i, c := range channels {
		if err := ds.AddVariable(c.name, columns[i]); err != nil {
			return nil, apperrors.NewParse(formatKey, r.path, err.Error())
		}
	}
	return ds, nil
}

// loadInstrument copies instrument identity into the attributes when the
// table exists. Older deployments may not carry it, so failure is ignored.
func (r *Reader) loadInstrument(db *sql.DB, ds *dataset.Dataset) {
	row := db.QueryRow(`SELECT serialID, model FROM instruments LIMIT 1`)
	var serial, model sql.NullString
	if err := row.Scan(&serial, &model); err != nil {
		return
	}
	if serial.Valid {
		ds.Attrs["instrument_serial"] = serial.String
	}
	if model.Valid {
		ds.Attrs["instrument_model"] = model.String
	}
}

func normalizeName(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	var b strings.Builder
	pending := false
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
		default:
			pending = true
		}
	}
	return b.String()
}
