// Package netcdf reads and writes the NetCDF classic format (CDF-1), the
// lingua franca of oceanographic data exchange. The implementation covers
// the subset used for time-series sensor data: one "time" dimension,
// double-precision variables over it, and character attributes. Record
// (unlimited) dimensions and the other numeric types are out of scope and
// rejected with a parse error.
package netcdf

import (
	"github.com/coriolab/seaconv/core/capability"
	"github.com/coriolab/seaconv/core/dataset"
)

const (
	formatKey = "netcdf"

	magic   = "CDF\x01"
	ncByte  = 1
	ncChar  = 2
	ncShort = 3
	ncInt   = 4
	ncFloat = 5
	// ncDouble is the only numeric type this subset emits.
	ncDouble = 6

	tagDimension = 0x0A
	tagVariable  = 0x0B
	tagAttribute = 0x0C

	timeVar   = "time"
	timeUnits = "seconds since 1970-01-01 00:00:00 UTC"
)

func init() {
	capability.RegisterBuiltin(capability.Registration{
		Key:           formatKey,
		DisplayName:   "NetCDF Classic",
		FileExtension: ".nc",
		ImplName:      "netcdf.Reader",
		NewReader: func(primary, companion string) (capability.Reader, error) {
			return &Reader{path: primary}, nil
		},
	})
	capability.RegisterBuiltin(capability.Registration{
		Key:           formatKey,
		DisplayName:   "NetCDF Classic",
		FileExtension: ".nc",
		ImplName:      "netcdf.Writer",
		NewWriter: func(ds *dataset.Dataset) (capability.Writer, error) {
			return &Writer{ds: ds}, nil
		},
	})
}

// pad4 returns the number of zero bytes needed to reach 4-byte alignment.
func pad4(n int) int {
	return (4 - n%4) % 4
}
