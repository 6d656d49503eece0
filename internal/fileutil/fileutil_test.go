package fileutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ulikunitz/xz"

	apperrors "github.com/coriolab/seaconv/core/errors"
)

func writeXZ(t *testing.T, path string, content []byte) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw, err := xz.NewWriter(f)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := zw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestReadFilePlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.csv")
	if err := os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	data, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "a,b\n1,2\n" {
		t.Errorf("content = %q", data)
	}
}

func TestReadFileCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv.xz")
	writeXZ(t, path, []byte("hello compressed"))
	data, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "hello compressed" {
		t.Errorf("content = %q", data)
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestReadFileCorruptXZ(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xz")
	if err := os.WriteFile(path, []byte("not an xz stream"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := ReadFile(path)
	if !errors.Is(err, apperrors.ErrParse) {
		t.Fatalf("got %v, want ErrParse", err)
	}
}

func TestOpenCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.xz")
	writeXZ(t, path, []byte("streamed"))
	rc, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "streamed" {
		t.Errorf("content = %q", data)
	}
}

func TestEnsureDir(t *testing.T) {
	out := filepath.Join(t.TempDir(), "a", "b", "out.csv")
	if err := EnsureDir(out); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if !Exists(filepath.Dir(out)) {
		t.Error("parent directory not created")
	}
}
