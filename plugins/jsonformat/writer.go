package jsonformat

import (
	"encoding/json"
	"math"
	"os"
	"time"

	"github.com/coriolab/seaconv/core/capability"
	"github.com/coriolab/seaconv/core/dataset"
	apperrors "github.com/coriolab/seaconv/core/errors"
)

// Writer serializes a dataset as a JSON time-series document.
type Writer struct {
	ds *dataset.Dataset
}

var _ capability.Writer = (*Writer)(nil)

// provenanceAttrs are stamped per read and excluded from metadata so a
// convert round trip does not accumulate stale provenance.
var provenanceAttrs = map[string]bool{
	"source_file":            true,
	"source_checksum_blake3": true,
	"dataset_uuid":           true,
}

func (w *Writer) Save(path string) error {
	doc := make(map[string]any, len(w.ds.Variables())+2)

	stamps := make([]string, w.ds.Len())
	for i, t := range w.ds.Times {
		stamps[i] = t.UTC().Format(time.RFC3339)
	}
	doc["time"] = stamps

	for _, name := range w.ds.Variables() {
		values, _ := w.ds.Values(name)
		cells := make([]*float64, len(values))
		for i := range values {
			if !math.IsNaN(values[i]) {
				v := values[i]
				cells[i] = &v
			}
		}
		doc[name] = cells
	}

	metadata := make(map[string]string)
	for k, v := range w.ds.Attrs {
		if !provenanceAttrs[k] {
			metadata[k] = v
		}
	}
	if len(metadata) > 0 {
		doc["metadata"] = metadata
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return apperrors.NewWrite(path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.NewWrite(path, err)
	}
	return nil
}
