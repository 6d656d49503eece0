// Package xmlcon reads Sea-Bird instrument configuration files (.xmlcon).
// These carry no measurements, only the instrument and sensor setup, so the
// resulting dataset has an empty time index and everything lands in the
// attributes. Useful with the show command to inspect a deployment config.
package xmlcon

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/coriolab/seaconv/core/capability"
	"github.com/coriolab/seaconv/core/dataset"
	apperrors "github.com/coriolab/seaconv/core/errors"
	"github.com/coriolab/seaconv/internal/fileutil"
)

const formatKey = "seabird-xmlcon"

func init() {
	capability.RegisterBuiltin(capability.Registration{
		Key:           formatKey,
		DisplayName:   "Sea-Bird Instrument Configuration",
		FileExtension: ".xmlcon",
		ImplName:      "xmlcon.Reader",
		NewReader: func(primary, companion string) (capability.Reader, error) {
			return &Reader{path: primary}, nil
		},
	})
}

// Reader parses one .xmlcon file.
type Reader struct {
	path string
}

func (r *Reader) Load() (*dataset.Dataset, error) {
	f, err := fileutil.Open(r.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := xmlquery.Parse(f)
	if err != nil {
		return nil, apperrors.NewParse(formatKey, r.path, err.Error())
	}
	root := xmlquery.FindOne(doc, "//SBE_InstrumentConfiguration")
	if root == nil {
		return nil, apperrors.NewParse(formatKey, r.path, "missing SBE_InstrumentConfiguration element")
	}

	ds := dataset.New()
	ds.Attrs["reader"] = "Sea-Bird Instrument Configuration"
	if v := root.SelectAttr("SB_ConfigCTD_FileVersion"); v != "" {
		ds.Attrs["config_file_version"] = v
	}
	if name := xmlquery.FindOne(root, "//Instrument/Name"); name != nil {
		ds.Attrs["instrument_name"] = strings.TrimSpace(name.InnerText())
	}
	if inst := xmlquery.FindOne(root, "//Instrument"); inst != nil {
		if t := inst.SelectAttr("Type"); t != "" {
			ds.Attrs["instrument_type"] = t
		}
	}

	sensors := xmlquery.Find(root, "//SensorArray/Sensor")
	ds.Attrs["sensor_count"] = fmt.Sprintf("%d", len(sensors))
	for _, sensor := range sensors {
		idx := sensor.SelectAttr("index")
		if idx == "" {
			continue
		}
		prefix := "sensor_" + idx
		// The sensor's single child element names its type, e.g.
		// TemperatureSensor or ConductivitySensor.
		for child := sensor.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != xmlquery.ElementNode {
				continue
			}
			ds.Attrs[prefix+"_type"] = child.Data
			if serial := xmlquery.FindOne(child, "SerialNumber"); serial != nil {
				ds.Attrs[prefix+"_serial"] = strings.TrimSpace(serial.InnerText())
			}
			if cal := xmlquery.FindOne(child, "CalibrationDate"); cal != nil {
				ds.Attrs[prefix+"_calibration"] = strings.TrimSpace(cal.InnerText())
			}
			break
		}
	}
	return ds, nil
}
