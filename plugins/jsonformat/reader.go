package jsonformat

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/coriolab/seaconv/core/capability"
	"github.com/coriolab/seaconv/core/dataset"
	apperrors "github.com/coriolab/seaconv/core/errors"
	"github.com/coriolab/seaconv/internal/fileutil"
)

// Reader parses one JSON time-series document.
type Reader struct {
	path string
}

var _ capability.Reader = (*Reader)(nil)

func (r *Reader) Load() (*dataset.Dataset, error) {
	data, err := fileutil.ReadFile(r.path)
	if err != nil {
		return nil, err
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.NewParse(formatKey, r.path, err.Error())
	}

	rawTimes, ok := doc["time"]
	if !ok {
		return nil, apperrors.NewParse(formatKey, r.path, `document has no "time" array`)
	}
	var stamps []string
	if err := json.Unmarshal(rawTimes, &stamps); err != nil {
		return nil, apperrors.NewParse(formatKey, r.path, `"time" is not an array of strings`)
	}
	times := make([]time.Time, len(stamps))
	for i, s := range stamps {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, apperrors.NewParse(formatKey, r.path, fmt.Sprintf("invalid timestamp %q", s))
		}
		times[i] = t
	}

	ds := dataset.New()
	ds.SetTimes(times)

	// Variable order in a JSON object is not preserved by the decoder, so
	// sort names for a deterministic dataset layout.
	names := make([]string, 0, len(doc))
	for name := range doc {
		if name == "time" || name == "metadata" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		var raw []*float64
		if err := json.Unmarshal(doc[name], &raw); err != nil {
			// Non-array members are ignored, matching the tolerant layout.
			continue
		}
		values := make([]float64, len(raw))
		for i, v := range raw {
			if v == nil {
				values[i] = math.NaN()
			} else {
				values[i] = *v
			}
		}
		if err := ds.AddVariable(name, values); err != nil {
			return nil, apperrors.NewParse(formatKey, r.path, err.Error())
		}
	}

	if rawMeta, ok := doc["metadata"]; ok {
		var meta map[string]string
		if err := json.Unmarshal(rawMeta, &meta); err == nil {
			for k, v := range meta {
				ds.Attrs[k] = v
			}
		}
	}
	return ds, nil
}
