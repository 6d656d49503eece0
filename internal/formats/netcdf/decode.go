package netcdf

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/coriolab/seaconv/core/capability"
	"github.com/coriolab/seaconv/core/dataset"
	apperrors "github.com/coriolab/seaconv/core/errors"
	"github.com/coriolab/seaconv/internal/fileutil"
)

// Reader parses a CDF-1 file within the time-series subset.
type Reader struct {
	path string
}

var _ capability.Reader = (*Reader)(nil)

type dim struct {
	name string
	size int
}

type variable struct {
	name   string
	dimIDs []int
	ncType int
	begin  int
}

func (r *Reader) Load() (*dataset.Dataset, error) {
	data, err := fileutil.ReadFile(r.path)
	if err != nil {
		return nil, err
	}
	c := &cursor{data: data, path: r.path}

	if err := c.expectMagic(); err != nil {
		return nil, err
	}
	if _, err := c.int32(); err != nil { // numrecs
		return nil, err
	}
	dims, err := c.dimList()
	if err != nil {
		return nil, err
	}
	attrs, err := c.attList()
	if err != nil {
		return nil, err
	}
	vars, err := c.varList()
	if err != nil {
		return nil, err
	}

	ds := dataset.New()
	for k, v := range attrs {
		ds.Attrs[k] = v
	}

	var (
		times   []time.Time
		columns = map[string][]float64{}
		order   []string
	)
	for _, v := range vars {
		if v.ncType != ncDouble || len(v.dimIDs) != 1 {
			continue
		}
		if v.dimIDs[0] < 0 || v.dimIDs[0] >= len(dims) {
			return nil, apperrors.NewParse(formatKey, r.path,
				fmt.Sprintf("variable %q references undefined dimension %d", v.name, v.dimIDs[0]))
		}
		d := dims[v.dimIDs[0]]
		values, err := c.doublesAt(v.begin, d.size)
		if err != nil {
			return nil, err
		}
		if v.name == timeVar {
			times = make([]time.Time, len(values))
			for i, sec := range values {
				times[i] = time.UnixMilli(int64(math.Round(sec * 1000))).UTC()
			}
			continue
		}
		columns[v.name] = values
		order = append(order, v.name)
	}

	if times == nil {
		// No time coordinate; fall back to the sample index.
		n := 0
		if len(order) > 0 {
			n = len(columns[order[0]])
		}
		times = make([]time.Time, n)
		for i := range times {
			times[i] = time.Unix(int64(i), 0).UTC()
		}
	}
	ds.SetTimes(times)
	for _, name := range order {
		if err := ds.AddVariable(name, columns[name]); err != nil {
			return nil, apperrors.NewParse(formatKey, r.path, err.Error())
		}
	}
	return ds, nil
}

// cursor walks the header bytes with bounds checking.
type cursor struct {
	data []byte
	pos  int
	path string
}

func (c *cursor) fail(format string, args ...any) error {
	return apperrors.NewParse(formatKey, c.path, fmt.Sprintf(format, args...))
}

func (c *cursor) expectMagic() error {
	if len(c.data) < 4 || string(c.data[:3]) != "CDF" {
		return c.fail("not a NetCDF file")
	}
	if c.data[3] != 1 {
		return c.fail("unsupported NetCDF version byte %d, only classic CDF-1 is handled", c.data[3])
	}
	c.pos = 4
	return nil
}

func (c *cursor) int32() (int, error) {
	if c.pos+4 > len(c.data) {
		return 0, c.fail("truncated header at offset %d", c.pos)
	}
	v := int32(binary.BigEndian.Uint32(c.data[c.pos:]))
	c.pos += 4
	return int(v), nil
}

func (c *cursor) name() (string, error) {
	n, err := c.int32()
	if err != nil {
		return "", err
	}
	if n < 0 || c.pos+n > len(c.data) {
		return "", c.fail("invalid name length %d at offset %d", n, c.pos)
	}
	s := string(c.data[c.pos : c.pos+n])
	c.pos += n + pad4(n)
	if c.pos > len(c.data) {
		return "", c.fail("truncated name padding")
	}
	return s, nil
}

// list reads a tagged list header, returning the element count. An absent
// list is encoded as two zero words.
func (c *cursor) list(tag int) (int, error) {
	gotTag, err := c.int32()
	if err != nil {
		return 0, err
	}
	count, err := c.int32()
	if err != nil {
		return 0, err
	}
	if gotTag == 0 && count == 0 {
		return 0, nil
	}
	if gotTag != tag {
		return 0, c.fail("expected list tag 0x%02X, found 0x%02X", tag, gotTag)
	}
	return count, nil
}

func (c *cursor) dimList() ([]dim, error) {
	count, err := c.list(tagDimension)
	if err != nil {
		return nil, err
	}
	dims := make([]dim, count)
	for i := range dims {
		name, err := c.name()
		if err != nil {
			return nil, err
		}
		size, err := c.int32()
		if err != nil {
			return nil, err
		}
		if size == 0 {
			return nil, c.fail("record dimension %q is not supported", name)
		}
		dims[i] = dim{name: name, size: size}
	}
	return dims, nil
}

func (c *cursor) attList() (map[string]string, error) {
	count, err := c.list(tagAttribute)
	if err != nil {
		return nil, err
	}
	attrs := make(map[string]string, count)
	for i := 0; i < count; i++ {
		name, err := c.name()
		if err != nil {
			return nil, err
		}
		ncType, err := c.int32()
		if err != nil {
			return nil, err
		}
		nelems, err := c.int32()
		if err != nil {
			return nil, err
		}
		width, ok := typeWidth(ncType)
		if !ok {
			return nil, c.fail("attribute %q has unknown type %d", name, ncType)
		}
		byteLen := nelems * width
		if nelems < 0 || c.pos+byteLen > len(c.data) {
			return nil, c.fail("attribute %q value is truncated", name)
		}
		if ncType == ncChar {
			attrs[name] = string(c.data[c.pos : c.pos+byteLen])
		}
		c.pos += byteLen + pad4(byteLen)
	}
	return attrs, nil
}

func (c *cursor) varList() ([]variable, error) {
	count, err := c.list(tagVariable)
	if err != nil {
		return nil, err
	}
	vars := make([]variable, count)
	for i := range vars {
		name, err := c.name()
		if err != nil {
			return nil, err
		}
		ndims, err := c.int32()
		if err != nil {
			return nil, err
		}
		if ndims < 0 || ndims > 8 {
			return nil, c.fail("variable %q has implausible rank %d", name, ndims)
		}
		dimIDs := make([]int, ndims)
		for j := range dimIDs {
			if dimIDs[j], err = c.int32(); err != nil {
				return nil, err
			}
		}
		if _, err := c.attList(); err != nil {
			return nil, err
		}
		ncType, err := c.int32()
		if err != nil {
			return nil, err
		}
		if _, err := c.int32(); err != nil { // vsize
			return nil, err
		}
		begin, err := c.int32()
		if err != nil {
			return nil, err
		}
		vars[i] = variable{name: name, dimIDs: dimIDs, ncType: ncType, begin: begin}
	}
	return vars, nil
}

func (c *cursor) doublesAt(begin, count int) ([]float64, error) {
	end := begin + 8*count
	if begin < 0 || end > len(c.data) {
		return nil, c.fail("variable data at offset %d exceeds file size", begin)
	}
	values := make([]float64, count)
	for i := range values {
		bits := binary.BigEndian.Uint64(c.data[begin+8*i:])
		values[i] = math.Float64frombits(bits)
	}
	return values, nil
}

func typeWidth(ncType int) (int, bool) {
	switch ncType {
	case ncByte, ncChar:
		return 1, true
	case ncShort:
		return 2, true
	case ncInt, ncFloat:
		return 4, true
	case ncDouble:
		return 8, true
	}
	return 0, false
}
