package netcdf

import (
	"bufio"
	"encoding/binary"
	"math"
	"os"

	"github.com/coriolab/seaconv/core/dataset"
	apperrors "github.com/coriolab/seaconv/core/errors"
)

// Writer serializes a dataset as a CDF-1 file with a single fixed "time"
// dimension, one double variable per dataset variable, and the dataset
// attributes as global character attributes.
type Writer struct {
	ds *dataset.Dataset
}

func (w *Writer) Save(path string) error {
	names := append([]string{timeVar}, w.ds.Variables()...)
	n := w.ds.Len()
	vsize := 8 * n

	headerSize := w.headerSize(names)
	begins := make([]int, len(names))
	for i := range begins {
		begins[i] = headerSize + i*vsize
	}

	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewWrite(path, err)
	}
	defer f.Close()
	buf := bufio.NewWriter(f)

	w.writeHeader(buf, names, n, vsize, begins)
	for _, name := range names {
		w.writeValues(buf, name)
	}

	if err := buf.Flush(); err != nil {
		return apperrors.NewWrite(path, err)
	}
	return nil
}

// headerSize computes the byte length of the serialized header so variable
// begin offsets can be assigned before writing.
func (w *Writer) headerSize(names []string) int {
	size := 4 + 4 // magic + numrecs

	// dim_list: tag, count, one dimension.
	size += 8 + nameSize(timeVar) + 4

	// gatt_list.
	size += 8
	for _, key := range w.ds.SortedAttrKeys() {
		size += attSize(key, w.ds.Attrs[key])
	}

	// var_list.
	size += 8
	for _, name := range names {
		size += nameSize(name)
		size += 4 + 4 // ndims + dimid
		if name == timeVar {
			size += 8 + attSize("units", timeUnits) // vatt_list with one attribute
		} else {
			size += 8 // empty vatt_list
		}
		size += 4 + 4 + 4 // nc_type + vsize + begin
	}
	return size
}

func (w *Writer) writeHeader(buf *bufio.Writer, names []string, dimLen, vsize int, begins []int) {
	buf.WriteString(magic)
	writeInt32(buf, 0) // numrecs; no record dimension

	// dim_list.
	writeInt32(buf, tagDimension)
	writeInt32(buf, 1)
	writeName(buf, timeVar)
	writeInt32(buf, int32(dimLen))

	// gatt_list.
	keys := w.ds.SortedAttrKeys()
	writeAttList(buf, keys, w.ds.Attrs)

	// var_list.
	writeInt32(buf, tagVariable)
	writeInt32(buf, int32(len(names)))
	for i, name := range names {
		writeName(buf, name)
		writeInt32(buf, 1) // ndims
		writeInt32(buf, 0) // dimid of "time"
		if name == timeVar {
			writeAttList(buf, []string{"units"}, map[string]string{"units": timeUnits})
		} else {
			writeInt32(buf, 0) // absent vatt_list
			writeInt32(buf, 0)
		}
		writeInt32(buf, ncDouble)
		writeInt32(buf, int32(vsize))
		writeInt32(buf, int32(begins[i]))
	}
}

func (w *Writer) writeValues(buf *bufio.Writer, name string) {
	if name == timeVar {
		for _, t := range w.ds.Times {
			writeFloat64(buf, float64(t.UnixMilli())/1000.0)
		}
		return
	}
	values, _ := w.ds.Values(name)
	for _, v := range values {
		writeFloat64(buf, v)
	}
}

func writeAttList(buf *bufio.Writer, keys []string, attrs map[string]string) {
	if len(keys) == 0 {
		writeInt32(buf, 0)
		writeInt32(buf, 0)
		return
	}
	writeInt32(buf, tagAttribute)
	writeInt32(buf, int32(len(keys)))
	for _, key := range keys {
		value := attrs[key]
		writeName(buf, key)
		writeInt32(buf, ncChar)
		writeInt32(buf, int32(len(value)))
		buf.WriteString(value)
		for i := 0; i < pad4(len(value)); i++ {
			buf.WriteByte(0)
		}
	}
}

func writeName(buf *bufio.Writer, name string) {
	writeInt32(buf, int32(len(name)))
	buf.WriteString(name)
	for i := 0; i < pad4(len(name)); i++ {
		buf.WriteByte(0)
	}
}

func writeInt32(buf *bufio.Writer, v int32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	buf.Write(b[:])
}

func writeFloat64(buf *bufio.Writer, v float64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	buf.Write(b[:])
}

func nameSize(name string) int {
	return 4 + len(name) + pad4(len(name))
}

func attSize(key, value string) int {
	return nameSize(key) + 4 + 4 + len(value) + pad4(len(value))
}
