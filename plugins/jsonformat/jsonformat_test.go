package jsonformat

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coriolab/seaconv/core/capability"
	"github.com/coriolab/seaconv/core/dataset"
	apperrors "github.com/coriolab/seaconv/core/errors"
)

func sampleDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds := dataset.New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ds.SetTimes([]time.Time{base, base.Add(time.Hour)})
	if err := ds.AddVariable("salinity", []float64{35.1, math.NaN()}); err != nil {
		t.Fatal(err)
	}
	if err := ds.AddVariable("temperature", []float64{15.2, 15.4}); err != nil {
		t.Fatal(err)
	}
	ds.Attrs["instrument"] = "mooring-12"
	ds.Attrs["dataset_uuid"] = "should-not-survive"
	return ds
}

func TestRoundTrip(t *testing.T) {
	ds := sampleDataset(t)
	path := filepath.Join(t.TempDir(), "out.json")
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
	sal, ok := back.Values("salinity")
	if !ok {
		t.Fatalf("salinity missing, have %v", back.Variables())
	}
	if sal[0] != 35.1 || !math.IsNaN(sal[1]) {
		t.Errorf("salinity = %v", sal)
	}
	temp, _ := back.Values("temperature")
	if temp[1] != 15.4 {
		t.Errorf("temperature = %v", temp)
	}
	if back.Attrs["instrument"] != "mooring-12" {
		t.Errorf("metadata instrument = %q", back.Attrs["instrument"])
	}
	if _, ok := back.Attrs["dataset_uuid"]; ok {
		t.Error("per-read provenance should not round-trip through the file")
	}
	for i := range ds.Times {
		if !back.Times[i].Equal(ds.Times[i]) {
			t.Errorf("Times[%d] = %v, want %v", i, back.Times[i], ds.Times[i])
		}
	}
}

func TestReaderRejectsMissingTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"x": [1, 2]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := (&Reader{path: path}).Load()
	if !errors.Is(err, apperrors.ErrParse) {
		t.Fatalf("got %v, want ErrParse", err)
	}
}

func TestReaderRejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"time": [`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := (&Reader{path: path}).Load()
	if !errors.Is(err, apperrors.ErrParse) {
		t.Fatalf("got %v, want ErrParse", err)
	}
}

func TestHistogramRender(t *testing.T) {
	ds := sampleDataset(t)
	out := filepath.Join(t.TempDir(), "hist.svg")
	p := &HistogramPlotter{ds: ds}
	err := p.Render(capability.PlotOptions{
		OutputPath: out,
		Parameters: []string{"temperature"},
		Extra:      map[string]any{"bins": 5},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	svg := string(data)
	if !strings.Contains(svg, "Distribution of temperature") {
		t.Error("default title missing")
	}
	if strings.Count(svg, "<rect") < 3 {
		t.Error("expected histogram bars in output")
	}
}

func TestHistogramMissingVariable(t *testing.T) {
	p := &HistogramPlotter{ds: sampleDataset(t)}
	err := p.Render(capability.PlotOptions{
		OutputPath: filepath.Join(t.TempDir(), "hist.svg"),
		Parameters: []string{"oxygen"},
	})
	if !errors.Is(err, apperrors.ErrMissingVariable) {
		t.Fatalf("got %v, want ErrMissingVariable", err)
	}
}

// TestPluginOriginAndOverride exercises the plugin merge path: this
// package's registrations carry a plugin origin, and a plugin key that
// collides with a builtin wins with a recorded diagnostic.
func TestPluginOriginAndOverride(t *testing.T) {
	registry := capability.NewRegistry()
	_, origin, ok := registry.Lookup(capability.KindReader, "json")
	if !ok {
		t.Fatal("plugin reader not discovered")
	}
	if origin != "plugin:"+PluginName {
		t.Errorf("origin = %q, want plugin:%s", origin, PluginName)
	}

	capability.RegisterBuiltin(capability.Registration{
		Key: "override-demo", DisplayName: "Builtin Demo", FileExtension: ".ovp",
		ImplName: "demo.Builtin",
		NewReader: func(primary, companion string) (capability.Reader, error) {
			return &Reader{path: primary}, nil
		},
	})
	capability.RegisterPlugin(capability.Registration{
		Key: "override-demo", DisplayName: "Plugin Demo", FileExtension: ".ovp",
		ImplName: "demo.Plugin",
		NewReader: func(primary, companion string) (capability.Reader, error) {
			return &Reader{path: primary}, nil
		},
	}, PluginName)
	registry.Rediscover()

	reg, origin, ok := registry.Lookup(capability.KindReader, "override-demo")
	if !ok {
		t.Fatal("override-demo missing after rediscovery")
	}
	if reg.ImplName != "demo.Plugin" || origin != "plugin:"+PluginName {
		t.Errorf("plugin should win the merge, got %q from %q", reg.ImplName, origin)
	}
	found := false
	for _, d := range registry.Diagnostics() {
		if d.Key == "override-demo" && d.Severity == capability.SeverityWarn {
			found = true
		}
	}
	if !found {
		t.Errorf("override not recorded as a diagnostic: %v", registry.Diagnostics())
	}
}
