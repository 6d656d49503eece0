package excel

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coriolab/seaconv/core/dataset"
	apperrors "github.com/coriolab/seaconv/core/errors"
)

func sampleDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds := dataset.New()
	base := time.Date(2024, 5, 10, 6, 0, 0, 0, time.UTC)
	ds.SetTimes([]time.Time{base, base.Add(time.Minute)})
	if err := ds.AddVariable("pressure", []float64{10.5, 11.25}); err != nil {
		t.Fatal(err)
	}
	if err := ds.AddVariable("oxygen", []float64{math.NaN(), 6.8}); err != nil {
		t.Fatal(err)
	}
	return ds
}

func TestRoundTrip(t *testing.T) {
	ds := sampleDataset(t)
	path := filepath.Join(t.TempDir(), "out.xlsx")
	if err := (&Writer{ds: ds}).Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	back, err := (&Reader{path: path}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.Len() != 2 {
		t.Fatalf("Len = %d, want 2", back.Len())
	}
	vars := back.Variables()
	if len(vars) != 2 || vars[0] != "pressure" || vars[1] != "oxygen" {
		t.Fatalf("Variables = %v", vars)
	}
	pressure, _ := back.Values("pressure")
	if pressure[0] != 10.5 || pressure[1] != 11.25 {
		t.Errorf("pressure = %v", pressure)
	}
	oxygen, _ := back.Values("oxygen")
	if !math.IsNaN(oxygen[0]) {
		t.Errorf("blank cell should load as NaN, got %v", oxygen[0])
	}
	if oxygen[1] != 6.8 {
		t.Errorf("oxygen[1] = %v", oxygen[1])
	}
	for i := range ds.Times {
		if !back.Times[i].Equal(ds.Times[i]) {
			t.Errorf("Times[%d] = %v, want %v", i, back.Times[i], ds.Times[i])
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := (&Reader{path: filepath.Join(t.TempDir(), "nope.xlsx")}).Load()
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestLoadNotAWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.xlsx")
	if err := os.WriteFile(path, []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := (&Reader{path: path}).Load()
	if !errors.Is(err, apperrors.ErrParse) {
		t.Fatalf("got %v, want ErrParse", err)
	}
}
