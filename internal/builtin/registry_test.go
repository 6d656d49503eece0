package builtin_test

import (
	"regexp"
	"testing"

	"github.com/coriolab/seaconv/core/capability"
	_ "github.com/coriolab/seaconv/internal/builtin"
)

// TestBuiltinRegistrations verifies that importing the builtin package
// registers every shipped capability with the expected key and extension.
func TestBuiltinRegistrations(t *testing.T) {
	expectedReaders := map[string]string{
		"csv":            ".csv",
		"excel":          ".xlsx",
		"netcdf":         ".nc",
		"nortek-ascii":   ".dat",
		"rbr-rsk":        ".rsk",
		"sbe-cnv":        ".cnv",
		"seabird-xmlcon": ".xmlcon",
	}
	expectedWriters := map[string]string{
		"csv":     ".csv",
		"excel":   ".xlsx",
		"netcdf":  ".nc",
		"parquet": ".parquet",
	}
	expectedPlotters := []string{"time-series", "ts-diagram", "vertical-profile"}

	registry := capability.NewRegistry()

	t.Run("Readers", func(t *testing.T) {
		checkKind(t, registry, capability.KindReader, expectedReaders)
	})
	t.Run("Writers", func(t *testing.T) {
		checkKind(t, registry, capability.KindWriter, expectedWriters)
	})
	t.Run("Plotters", func(t *testing.T) {
		descs := registry.Descriptors(capability.KindPlotter)
		if len(descs) != len(expectedPlotters) {
			t.Fatalf("got %d plotters, want %d: %v", len(descs), len(expectedPlotters), descs)
		}
		for i, key := range expectedPlotters {
			if descs[i].Key != key {
				t.Errorf("plotter %d = %q, want %q", i, descs[i].Key, key)
			}
			if descs[i].FileExtension != "" {
				t.Errorf("plotter %q claims extension %q", key, descs[i].FileExtension)
			}
		}
	})

	t.Run("NoDiagnostics", func(t *testing.T) {
		if diags := registry.Diagnostics(); len(diags) != 0 {
			t.Errorf("builtin discovery produced diagnostics: %v", diags)
		}
	})
}

func checkKind(t *testing.T, registry *capability.Registry, kind capability.Kind, expected map[string]string) {
	t.Helper()
	descs := registry.Descriptors(kind)
	if len(descs) != len(expected) {
		t.Fatalf("got %d %ss, want %d: %v", len(descs), kind, len(expected), descs)
	}
	for _, d := range descs {
		ext, ok := expected[d.Key]
		if !ok {
			t.Errorf("unexpected %s %q", kind, d.Key)
			continue
		}
		if d.FileExtension != ext {
			t.Errorf("%s %q extension = %q, want %q", kind, d.Key, d.FileExtension, ext)
		}
		if d.Origin != capability.OriginBuiltin {
			t.Errorf("%s %q origin = %q", kind, d.Key, d.Origin)
		}
		if d.DisplayName == "" {
			t.Errorf("%s %q has no display name", kind, d.Key)
		}
	}
}

// TestKeyGrammar checks every registered key against the format key
// grammar so a typo in a registration fails here, not at resolution time.
func TestKeyGrammar(t *testing.T) {
	keyPattern := regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	registry := capability.NewRegistry()
	for _, kind := range capability.Kinds() {
		for _, d := range registry.Descriptors(kind) {
			if !keyPattern.MatchString(d.Key) {
				t.Errorf("%s key %q violates the key grammar", kind, d.Key)
			}
		}
	}
}
