package iomanager

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/coriolab/seaconv/core/capability"
	"github.com/coriolab/seaconv/core/dataset"
	apperrors "github.com/coriolab/seaconv/core/errors"
)

type fakeReader struct{ fail bool }

func (r fakeReader) Load() (*dataset.Dataset, error) {
	if r.fail {
		return nil, errors.New("boom")
	}
	ds := dataset.New()
	ds.SetTimes([]time.Time{time.Unix(0, 0).UTC()})
	if err := ds.AddVariable("x", []float64{1}); err != nil {
		return nil, err
	}
	return ds, nil
}

type fakeWriter struct{ fail bool }

func (w fakeWriter) Save(path string) error {
	if w.fail {
		return errors.New("disk full")
	}
	return os.WriteFile(path, []byte("ok"), 0o644)
}

var registerOnce sync.Once

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	registerOnce.Do(registerTestFormats)
	return New(capability.NewRegistry())
}

func registerTestFormats() {
	capability.RegisterBuiltin(capability.Registration{
		Key: "iomtest-good", DisplayName: "Good", FileExtension: ".iomgood",
		NewReader: func(primary, companion string) (capability.Reader, error) {
			return fakeReader{}, nil
		},
	})
	capability.RegisterBuiltin(capability.Registration{
		Key: "iomtest-bad", DisplayName: "Bad", FileExtension: ".iombad",
		NewReader: func(primary, companion string) (capability.Reader, error) {
			return fakeReader{fail: true}, nil
		},
	})
	capability.RegisterBuiltin(capability.Registration{
		Key: "iomtest-out", DisplayName: "Out", FileExtension: ".iomout",
		NewWriter: func(ds *dataset.Dataset) (capability.Writer, error) {
			return fakeWriter{}, nil
		},
	})
	capability.RegisterBuiltin(capability.Registration{
		Key: "iomtest-full", DisplayName: "Full", FileExtension: ".iomfull",
		NewWriter: func(ds *dataset.Dataset) (capability.Writer, error) {
			return fakeWriter{fail: true}, nil
		},
	})
}

func TestReadStampsProvenance(t *testing.T) {
	m := newTestManager(t)
	path := filepath.Join(t.TempDir(), "in.iomgood")
	if err := os.WriteFile(path, []byte("raw bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	ds, err := m.Read(path, "", "")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if ds.Attrs[AttrSourceFile] != path {
		t.Errorf("source_file = %q", ds.Attrs[AttrSourceFile])
	}
	if len(ds.Attrs[AttrSourceChecksum]) != 64 {
		t.Errorf("checksum = %q, want 64 hex chars", ds.Attrs[AttrSourceChecksum])
	}
	if ds.Attrs[AttrDatasetUUID] == "" {
		t.Error("dataset_uuid missing")
	}

	ds2, err := m.Read(path, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if ds2.Attrs[AttrDatasetUUID] == ds.Attrs[AttrDatasetUUID] {
		t.Error("dataset_uuid not unique per read")
	}
	if ds2.Attrs[AttrSourceChecksum] != ds.Attrs[AttrSourceChecksum] {
		t.Error("checksum not stable for identical input")
	}
}

func TestReadMissingFile(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Read(filepath.Join(t.TempDir(), "nope.iomgood"), "", "")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestReadWrapsUntypedErrors(t *testing.T) {
	m := newTestManager(t)
	path := filepath.Join(t.TempDir(), "in.iombad")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := m.Read(path, "", "")
	if !errors.Is(err, apperrors.ErrOperationFailed) {
		t.Fatalf("got %v, want ErrOperationFailed", err)
	}
}

func TestWriteCreatesParentDirs(t *testing.T) {
	m := newTestManager(t)
	ds := dataset.New()
	out := filepath.Join(t.TempDir(), "nested", "deep", "out.iomout")
	if err := m.Write(ds, out, ""); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output not written: %v", err)
	}
}

func TestWriteWrapsSaveErrors(t *testing.T) {
	m := newTestManager(t)
	out := filepath.Join(t.TempDir(), "out.iomfull")
	err := m.Write(dataset.New(), out, "")
	if !errors.Is(err, apperrors.ErrWrite) {
		t.Fatalf("got %v, want ErrWrite", err)
	}
}

func TestWriteUnknownHint(t *testing.T) {
	m := newTestManager(t)
	err := m.Write(dataset.New(), "out.iomout", "ghost")
	if !errors.Is(err, apperrors.ErrUnknownFormat) {
		t.Fatalf("got %v, want ErrUnknownFormat", err)
	}
}
