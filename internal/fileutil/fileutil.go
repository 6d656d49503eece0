// Package fileutil provides file helpers shared by readers and writers:
// transparent xz decompression on open and output directory creation.
package fileutil

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	apperrors "github.com/coriolab/seaconv/core/errors"
)

// IsCompressed reports whether a path names an xz-compressed file.
func IsCompressed(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xz")
}

// ReadFile reads a whole file, decompressing it when the path ends in .xz.
// A missing file is reported as a not-found error naming the path.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFound("input file", path)
		}
		return nil, err
	}
	if !IsCompressed(path) {
		return data, nil
	}
	zr, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewParse("xz", path, err.Error())
	}
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, apperrors.NewParse("xz", path, err.Error())
	}
	return out, nil
}

// Open opens a file for reading, wrapping it in an xz decompressor when the
// path ends in .xz. The caller closes the returned ReadCloser.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFound("input file", path)
		}
		return nil, err
	}
	if !IsCompressed(path) {
		return f, nil
	}
	zr, err := xz.NewReader(f)
	if err != nil {
		f.Close()
		return nil, apperrors.NewParse("xz", path, err.Error())
	}
	return &xzReadCloser{Reader: zr, file: f}, nil
}

type xzReadCloser struct {
	*xz.Reader
	file *os.File
}

func (r *xzReadCloser) Close() error {
	return r.file.Close()
}

// EnsureDir creates the parent directory of an output path if needed.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.NewWrite(path, err)
	}
	return nil
}

// Exists reports whether a path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
