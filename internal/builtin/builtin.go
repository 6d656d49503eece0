// Package builtin pulls in every built-in format and plotter package so
// their init registrations run. Importing it for side effects is how a
// binary opts into the shipped capability set; a build that omits it
// starts with an empty registry.
package builtin

import (
	_ "github.com/coriolab/seaconv/internal/formats/csvfmt"
	_ "github.com/coriolab/seaconv/internal/formats/excel"
	_ "github.com/coriolab/seaconv/internal/formats/netcdf"
	_ "github.com/coriolab/seaconv/internal/formats/nortek"
	_ "github.com/coriolab/seaconv/internal/formats/parquetfmt"
	_ "github.com/coriolab/seaconv/internal/formats/rbr"
	_ "github.com/coriolab/seaconv/internal/formats/sbecnv"
	_ "github.com/coriolab/seaconv/internal/formats/xmlcon"
	_ "github.com/coriolab/seaconv/internal/plotters/timeseries"
	_ "github.com/coriolab/seaconv/internal/plotters/tsdiagram"
	_ "github.com/coriolab/seaconv/internal/plotters/verticalprofile"
)
