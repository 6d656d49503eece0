package sbecnv

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/coriolab/seaconv/core/errors"
)

const sampleCNV = `* Sea-Bird SBE 9 Data File:
# interval = seconds: 60
# start_time = Mar 06 2021 09:05:02 [Instrument's time stamp, header]
# bad_flag = -9.990e-29
# name 0 = prDM: Pressure, Digiquartz [db]
# name 1 = t090C: Temperature [ITS-90, deg C]
# name 2 = sal00: Salinity, Practical [PSU]
*END*
      1.000     12.500     35.100
      2.000     12.400     35.200
      3.000 -9.990e-29     35.300
`

func writeSample(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cast.cnv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	r := &Reader{path: writeSample(t, sampleCNV)}
	ds, err := r.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Len() != 3 {
		t.Fatalf("Len = %d, want 3", ds.Len())
	}
	vars := ds.Variables()
	want := []string{"prDM", "t090C", "sal00"}
	for i, name := range want {
		if vars[i] != name {
			t.Errorf("variable %d = %q, want %q", i, vars[i], name)
		}
	}
	temps, _ := ds.Values("t090C")
	if temps[0] != 12.5 {
		t.Errorf("t090C[0] = %v", temps[0])
	}
	if !math.IsNaN(temps[2]) {
		t.Errorf("bad_flag value not mapped to NaN, got %v", temps[2])
	}
	start := time.Date(2021, 3, 6, 9, 5, 2, 0, time.UTC)
	if !ds.Times[0].Equal(start) {
		t.Errorf("Times[0] = %v, want %v", ds.Times[0], start)
	}
	if !ds.Times[1].Equal(start.Add(time.Minute)) {
		t.Errorf("Times[1] = %v, want one interval later", ds.Times[1])
	}
	if ds.Attrs["column_prDM"] != "Pressure, Digiquartz [db]" {
		t.Errorf("column attr = %q", ds.Attrs["column_prDM"])
	}
}

func TestLoadMissingEndMarker(t *testing.T) {
	r := &Reader{path: writeSample(t, "# name 0 = x\n1.0\n")}
	_, err := r.Load()
	if !errors.Is(err, apperrors.ErrParse) {
		t.Fatalf("got %v, want ErrParse", err)
	}
}

func TestLoadColumnCountMismatch(t *testing.T) {
	content := "# name 0 = a\n# name 1 = b\n*END*\n1.0\n"
	r := &Reader{path: writeSample(t, content)}
	_, err := r.Load()
	if !errors.Is(err, apperrors.ErrParse) {
		t.Fatalf("got %v, want ErrParse", err)
	}
}

func TestLoadNonNumericValue(t *testing.T) {
	content := "# name 0 = a\n*END*\nabc\n"
	r := &Reader{path: writeSample(t, content)}
	_, err := r.Load()
	if !errors.Is(err, apperrors.ErrParse) {
		t.Fatalf("got %v, want ErrParse", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	r := &Reader{path: filepath.Join(t.TempDir(), "nope.cnv")}
	_, err := r.Load()
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
