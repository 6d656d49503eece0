package capability

import (
	"errors"
	"strings"
	"testing"

	"github.com/coriolab/seaconv/core/dataset"
	apperrors "github.com/coriolab/seaconv/core/errors"
)

type stubReader struct{}

func (stubReader) Load() (*dataset.Dataset, error) { return dataset.New(), nil }

type stubWriter struct{}

func (stubWriter) Save(path string) error { return nil }

type stubPlotter struct{}

func (stubPlotter) Render(opts PlotOptions) error { return nil }

func readerReg(key, ext, impl string) Registration {
	return Registration{
		Key:           key,
		DisplayName:   strings.ToUpper(key),
		FileExtension: ext,
		ImplName:      impl,
		NewReader: func(primary, companion string) (Reader, error) {
			return stubReader{}, nil
		},
	}
}

func writerReg(key, ext string) Registration {
	return Registration{
		Key:           key,
		DisplayName:   strings.ToUpper(key),
		FileExtension: ext,
		ImplName:      key + "Writer",
		NewWriter: func(ds *dataset.Dataset) (Writer, error) {
			return stubWriter{}, nil
		},
	}
}

func plotterReg(key string) Registration {
	return Registration{
		Key:         key,
		DisplayName: strings.ToUpper(key),
		ImplName:    key + "Plotter",
		NewPlotter: func(ds *dataset.Dataset) (Plotter, error) {
			return stubPlotter{}, nil
		},
	}
}

func TestRegistryBuiltinLookup(t *testing.T) {
	resetPending()
	defer resetPending()
	RegisterBuiltin(readerReg("alpha-fmt", ".alpha", "alphaReader"))
	RegisterBuiltin(writerReg("alpha-fmt", ".alpha"))

	r := NewRegistry()
	reg, origin, ok := r.Lookup(KindReader, "alpha-fmt")
	if !ok {
		t.Fatal("builtin reader not found")
	}
	if origin != OriginBuiltin {
		t.Errorf("origin = %q, want %q", origin, OriginBuiltin)
	}
	if reg.ImplName != "alphaReader" {
		t.Errorf("ImplName = %q", reg.ImplName)
	}
	if _, _, ok := r.Lookup(KindWriter, "alpha-fmt"); !ok {
		t.Error("same key under a different kind should coexist")
	}
	if len(r.Diagnostics()) != 0 {
		t.Errorf("unexpected diagnostics: %v", r.Diagnostics())
	}
}

func TestRegistryDuplicateBuiltinKeyDropped(t *testing.T) {
	resetPending()
	defer resetPending()
	RegisterBuiltin(readerReg("dup", ".one", "first"))
	RegisterBuiltin(readerReg("dup", ".two", "second"))

	r := NewRegistry()
	reg, _, ok := r.Lookup(KindReader, "dup")
	if !ok {
		t.Fatal("key missing entirely")
	}
	if reg.ImplName != "first" {
		t.Errorf("kept %q, want first registration", reg.ImplName)
	}
	diags := r.Diagnostics()
	if len(diags) != 1 || diags[0].Severity != SeverityError {
		t.Fatalf("diagnostics = %v, want one error", diags)
	}
}

func TestRegistryExtensionConflictDropped(t *testing.T) {
	resetPending()
	defer resetPending()
	RegisterBuiltin(readerReg("first", ".shared", "first"))
	RegisterBuiltin(readerReg("second", ".shared", "second"))

	r := NewRegistry()
	if _, _, ok := r.Lookup(KindReader, "second"); ok {
		t.Error("conflicting extension registration should be dropped")
	}
	if len(r.Diagnostics()) != 1 {
		t.Errorf("diagnostics = %v, want one", r.Diagnostics())
	}
}

func TestRegistryPluginOverridesBuiltin(t *testing.T) {
	resetPending()
	defer resetPending()
	RegisterBuiltin(readerReg("over", ".ovr", "builtinImpl"))
	RegisterPlugin(readerReg("over", ".ovr", "pluginImpl"), "extras")

	r := NewRegistry()
	reg, origin, ok := r.Lookup(KindReader, "over")
	if !ok {
		t.Fatal("overridden key missing")
	}
	if reg.ImplName != "pluginImpl" {
		t.Errorf("kept %q, want plugin registration to win", reg.ImplName)
	}
	if origin != "plugin:extras" {
		t.Errorf("origin = %q", origin)
	}
	diags := r.Diagnostics()
	if len(diags) != 1 || diags[0].Severity != SeverityWarn {
		t.Fatalf("diagnostics = %v, want one warning", diags)
	}
	if !strings.Contains(diags[0].Message, "overrides") {
		t.Errorf("diagnostic message %q does not mention the override", diags[0].Message)
	}
}

func TestRegistryInvalidRegistrationsDropped(t *testing.T) {
	resetPending()
	defer resetPending()
	RegisterBuiltin(readerReg("Bad_Key", ".bk", "x"))
	RegisterBuiltin(readerReg("bad-ext", "csv", "x"))
	badPlotter := plotterReg("plot-ext")
	badPlotter.FileExtension = ".png"
	RegisterBuiltin(badPlotter)
	RegisterBuiltin(Registration{Key: "no-ctor"})
	twoCtors := readerReg("two-ctors", ".tc", "x")
	twoCtors.NewWriter = func(ds *dataset.Dataset) (Writer, error) { return stubWriter{}, nil }
	RegisterBuiltin(twoCtors)
	noName := readerReg("no-name", ".nn", "x")
	noName.DisplayName = ""
	RegisterBuiltin(noName)

	r := NewRegistry()
	for _, kind := range Kinds() {
		if keys := r.Keys(kind); len(keys) != 0 {
			t.Errorf("%s keys = %v, want none", kind, keys)
		}
	}
	if got := len(r.Diagnostics()); got != 6 {
		t.Errorf("got %d diagnostics, want 6: %v", got, r.Diagnostics())
	}
}

func TestRegistryPluginOverrideCannotStealExtension(t *testing.T) {
	resetPending()
	defer resetPending()
	RegisterBuiltin(readerReg("alpha", ".aa", "builtinAlpha"))
	RegisterBuiltin(readerReg("beta", ".bb", "builtinBeta"))
	RegisterPlugin(readerReg("alpha", ".bb", "pluginAlpha"), "extras")

	r := NewRegistry()
	reg, origin, ok := r.Lookup(KindReader, "alpha")
	if !ok {
		t.Fatal("alpha missing")
	}
	if reg.ImplName != "builtinAlpha" || origin != OriginBuiltin {
		t.Errorf("kept %q (%s), want the builtin to survive", reg.ImplName, origin)
	}
	if holder, ok := r.ByExtension(KindReader, ".bb"); !ok || holder.Key != "beta" {
		t.Errorf(".bb resolved to %q, want beta to keep its extension", holder.Key)
	}
	diags := r.Diagnostics()
	if len(diags) != 1 || diags[0].Severity != SeverityError {
		t.Fatalf("diagnostics = %v, want one error", diags)
	}
	if !strings.Contains(diags[0].Message, ".bb") {
		t.Errorf("diagnostic %q should name the contested extension", diags[0].Message)
	}
}

func TestRegistryRediscoverPicksUpLateRegistration(t *testing.T) {
	resetPending()
	defer resetPending()
	RegisterBuiltin(readerReg("early", ".erl", "x"))

	r := NewRegistry()
	if _, _, ok := r.Lookup(KindReader, "early"); !ok {
		t.Fatal("early registration missing")
	}

	RegisterPlugin(readerReg("late", ".lat", "y"), "lateplug")
	if _, _, ok := r.Lookup(KindReader, "late"); ok {
		t.Fatal("late registration visible without rediscovery")
	}
	r.Rediscover()
	if _, _, ok := r.Lookup(KindReader, "late"); !ok {
		t.Error("late registration missing after Rediscover")
	}
}

func TestRegistryDescriptorsSorted(t *testing.T) {
	resetPending()
	defer resetPending()
	RegisterBuiltin(readerReg("zeta", ".zz", "z"))
	RegisterBuiltin(readerReg("alpha", ".aa", "a"))
	RegisterBuiltin(plotterReg("mid"))

	r := NewRegistry()
	descs := r.Descriptors(KindReader)
	if len(descs) != 2 || descs[0].Key != "alpha" || descs[1].Key != "zeta" {
		t.Errorf("Descriptors(reader) = %v, want alpha then zeta", descs)
	}
	all := r.AllDescriptors()
	if len(all) != 3 || all[2].Kind != KindPlotter {
		t.Errorf("AllDescriptors = %v, want readers first then plotter", all)
	}
}

func TestResolver(t *testing.T) {
	resetPending()
	defer resetPending()
	RegisterBuiltin(readerReg("cast", ".cast", "castReader"))
	RegisterBuiltin(writerReg("tab", ".tab"))

	r := NewRegistry()
	res := NewResolver(r)

	t.Run("hint wins", func(t *testing.T) {
		reg, err := res.ResolveRead("whatever.bin", "cast")
		if err != nil {
			t.Fatalf("ResolveRead: %v", err)
		}
		if reg.Key != "cast" {
			t.Errorf("resolved %q", reg.Key)
		}
	})

	t.Run("unknown hint lists valid keys", func(t *testing.T) {
		_, err := res.ResolveRead("x.cast", "nope")
		if !errors.Is(err, apperrors.ErrUnknownFormat) {
			t.Fatalf("got %v, want ErrUnknownFormat", err)
		}
		if !strings.Contains(err.Error(), "cast") {
			t.Errorf("error %q does not enumerate valid keys", err)
		}
	})

	t.Run("extension match", func(t *testing.T) {
		reg, err := res.ResolveRead("/data/profile.CAST", "")
		if err != nil {
			t.Fatalf("ResolveRead: %v", err)
		}
		if reg.Key != "cast" {
			t.Errorf("resolved %q", reg.Key)
		}
	})

	t.Run("xz suffix stripped", func(t *testing.T) {
		reg, err := res.ResolveRead("/data/profile.cast.xz", "")
		if err != nil {
			t.Fatalf("ResolveRead: %v", err)
		}
		if reg.Key != "cast" {
			t.Errorf("resolved %q", reg.Key)
		}
	})

	t.Run("no extension", func(t *testing.T) {
		_, err := res.ResolveRead("/data/profile", "")
		if !errors.Is(err, apperrors.ErrUndeterminedFormat) {
			t.Fatalf("got %v, want ErrUndeterminedFormat", err)
		}
	})

	t.Run("unclaimed extension", func(t *testing.T) {
		_, err := res.ResolveWrite("/out/result.xyz", "")
		if !errors.Is(err, apperrors.ErrUndeterminedFormat) {
			t.Fatalf("got %v, want ErrUndeterminedFormat", err)
		}
	})

	t.Run("write hint", func(t *testing.T) {
		reg, err := res.ResolveWrite("out.dat", "tab")
		if err != nil {
			t.Fatalf("ResolveWrite: %v", err)
		}
		if reg.Key != "tab" {
			t.Errorf("resolved %q", reg.Key)
		}
	})

	t.Run("plot key", func(t *testing.T) {
		_, err := res.ResolvePlot("missing")
		if !errors.Is(err, apperrors.ErrUnknownFormat) {
			t.Fatalf("got %v, want ErrUnknownFormat", err)
		}
	})
}

func TestFactory(t *testing.T) {
	resetPending()
	defer resetPending()
	RegisterBuiltin(readerReg("nortek-ascii", ".dat", "nortekReader"))
	RegisterBuiltin(readerReg("plain", ".plain", "plainReader"))
	RegisterBuiltin(writerReg("tab", ".tab"))
	RegisterBuiltin(plotterReg("lines"))

	r := NewRegistry()
	f := NewFactory(r)

	t.Run("companion required", func(t *testing.T) {
		_, err := f.Reader("nortek-ascii", "in.dat", "")
		if !errors.Is(err, apperrors.ErrMissingCompanion) {
			t.Fatalf("got %v, want ErrMissingCompanion", err)
		}
		if !strings.Contains(err.Error(), "--header-input") {
			t.Errorf("error %q does not name the companion flag", err)
		}
	})

	t.Run("companion provided", func(t *testing.T) {
		if _, err := f.Reader("nortek-ascii", "in.dat", "in.hdr"); err != nil {
			t.Fatalf("Reader with companion: %v", err)
		}
	})

	t.Run("no companion needed", func(t *testing.T) {
		if _, err := f.Reader("plain", "in.plain", ""); err != nil {
			t.Fatalf("Reader: %v", err)
		}
	})

	t.Run("unknown keys", func(t *testing.T) {
		if _, err := f.Reader("ghost", "x", ""); !errors.Is(err, apperrors.ErrUnknownFormat) {
			t.Errorf("Reader: got %v, want ErrUnknownFormat", err)
		}
		if _, err := f.Writer("ghost", dataset.New()); !errors.Is(err, apperrors.ErrUnknownFormat) {
			t.Errorf("Writer: got %v, want ErrUnknownFormat", err)
		}
		if _, err := f.Plotter("ghost", dataset.New()); !errors.Is(err, apperrors.ErrUnknownFormat) {
			t.Errorf("Plotter: got %v, want ErrUnknownFormat", err)
		}
	})

	t.Run("constructed kinds", func(t *testing.T) {
		if _, err := f.Writer("tab", dataset.New()); err != nil {
			t.Errorf("Writer: %v", err)
		}
		if _, err := f.Plotter("lines", dataset.New()); err != nil {
			t.Errorf("Plotter: %v", err)
		}
	})
}
