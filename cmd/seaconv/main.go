// Command seaconv converts, inspects, subsets, and plots oceanographic
// sensor data files. Formats are resolved through the capability registry,
// so plugins compiled into the binary extend every command automatically.
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"

	"github.com/coriolab/seaconv/core/capability"
	"github.com/coriolab/seaconv/core/dataset"
	"github.com/coriolab/seaconv/core/iomanager"
	"github.com/coriolab/seaconv/internal/clibind"
	"github.com/coriolab/seaconv/internal/logging"

	// Register the builtin formats and the bundled plugins.
	_ "github.com/coriolab/seaconv/internal/builtin"
	_ "github.com/coriolab/seaconv/plugins/jsonformat"
)

const version = "0.3.0"

// CLI defines the command-line interface for seaconv. The plot command is
// routed before kong sees the arguments because its flag set depends on
// which plotter is named.
var CLI struct {
	LogLevel string `name:"log-level" help:"Log level (debug, info, warn, error)" default:"warn" env:"SEACONV_LOG_LEVEL"`

	Convert ConvertCmd `cmd:"" help:"Convert a sensor data file to a different format"`
	Show    ShowCmd    `cmd:"" help:"Show contents or structure of a sensor data file"`
	Subset  SubsetCmd  `cmd:"" help:"Extract a subset of a file"`
	Calc    CalcCmd    `cmd:"" help:"Run an aggregate function on parameters of a dataset"`
	List    ListCmd    `cmd:"" help:"List registered readers, writers, and plotters"`
	Formats ListCmd    `cmd:"" hidden:"" help:"Alias for list"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

func newManager() *iomanager.Manager {
	return iomanager.New(capability.Default())
}

// ConvertCmd reads an input file and writes it in another format.
type ConvertCmd struct {
	Input        string   `name:"input" short:"i" required:"" help:"Path of input file" type:"path"`
	InputFormat  string   `name:"input-format" short:"f" help:"Format key of the input file"`
	HeaderInput  string   `name:"header-input" short:"H" help:"Path of header input file (for Nortek ASCII files)" type:"path"`
	Output       string   `name:"output" short:"o" required:"" help:"Path of output file" type:"path"`
	OutputFormat string   `name:"output-format" short:"F" help:"Format key of the output file"`
	Mapping      []string `name:"mapping" short:"m" help:"Variable renames as old=new pairs"`
}

func (c *ConvertCmd) Run() error {
	mgr := newManager()
	ds, err := mgr.Read(c.Input, c.InputFormat, c.HeaderInput)
	if err != nil {
		return err
	}
	for _, pair := range c.Mapping {
		from, to, ok := strings.Cut(pair, "=")
		if !ok || from == "" || to == "" {
			return fmt.Errorf("invalid mapping %q: want old=new", pair)
		}
		if err := ds.Rename(from, to); err != nil {
			return err
		}
	}
	return mgr.Write(ds, c.Output, c.OutputFormat)
}

// ShowCmd prints a view of a dataset to stdout.
type ShowCmd struct {
	Input       string `name:"input" short:"i" required:"" help:"Path of input file" type:"path"`
	InputFormat string `name:"input-format" short:"f" help:"Format key of the input file"`
	HeaderInput string `name:"header-input" short:"H" help:"Path of header input file (for Nortek ASCII files)" type:"path"`
	Schema      string `name:"schema" short:"s" enum:"summary,info,example" default:"summary" help:"View to print (summary, info, example)"`
}

func (c *ShowCmd) Run() error {
	ds, err := newManager().Read(c.Input, c.InputFormat, c.HeaderInput)
	if err != nil {
		return err
	}
	switch c.Schema {
	case "info":
		fmt.Println(ds.Info())
	case "example":
		fmt.Println(ds.Example(10))
	default:
		fmt.Println(ds.Summary())
	}
	return nil
}

// SubsetCmd filters a dataset by time, sample index, or a value range, and
// writes the result or prints a summary of it.
type SubsetCmd struct {
	Input        string   `name:"input" short:"i" required:"" help:"Path of input file" type:"path"`
	InputFormat  string   `name:"input-format" short:"f" help:"Format key of the input file"`
	HeaderInput  string   `name:"header-input" short:"H" help:"Path of header input file (for Nortek ASCII files)" type:"path"`
	Output       string   `name:"output" short:"o" help:"Path of output file; prints a summary when omitted" type:"path"`
	OutputFormat string   `name:"output-format" short:"F" help:"Format key of the output file"`
	TimeMin      string   `name:"time-min" help:"Keep samples at or after this timestamp"`
	TimeMax      string   `name:"time-max" help:"Keep samples at or before this timestamp"`
	SampleMin    int      `name:"sample-min" default:"-1" help:"Keep samples at or after this index"`
	SampleMax    int      `name:"sample-max" default:"-1" help:"Keep samples at or before this index"`
	Parameter    string  `name:"parameter" help:"Variable for value range filtering"`
	ValueMin     float64 `name:"value-min" default:"nan" help:"Keep samples with parameter values at or above this"`
	ValueMax     float64 `name:"value-max" default:"nan" help:"Keep samples with parameter values at or below this"`
}

func (c *SubsetCmd) Run() error {
	mgr := newManager()
	ds, err := mgr.Read(c.Input, c.InputFormat, c.HeaderInput)
	if err != nil {
		return err
	}

	tMin, err := parseTimeFlag(c.TimeMin)
	if err != nil {
		return fmt.Errorf("invalid --time-min: %w", err)
	}
	tMax, err := parseTimeFlag(c.TimeMax)
	if err != nil {
		return fmt.Errorf("invalid --time-max: %w", err)
	}
	if !tMin.IsZero() || !tMax.IsZero() {
		ds = ds.SelectTime(tMin, tMax)
	}
	if c.SampleMin >= 0 || c.SampleMax >= 0 {
		ds = ds.SelectIndex(c.SampleMin, c.SampleMax)
	}
	if !math.IsNaN(c.ValueMin) || !math.IsNaN(c.ValueMax) {
		if c.Parameter == "" {
			return fmt.Errorf("--value-min/--value-max require --parameter")
		}
		ds, err = ds.SelectValue(c.Parameter, c.ValueMin, c.ValueMax)
		if err != nil {
			return err
		}
	}

	if c.Output == "" {
		fmt.Println(ds.Summary())
		return nil
	}
	return mgr.Write(ds, c.Output, c.OutputFormat)
}

// timeLayouts are tried in order for --time-min/--time-max values.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTimeFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// CalcCmd aggregates one parameter, either over the whole series or per
// resampling bucket.
type CalcCmd struct {
	Input        string `name:"input" short:"i" required:"" help:"Path of input file" type:"path"`
	InputFormat  string `name:"input-format" short:"f" help:"Format key of the input file"`
	HeaderInput  string `name:"header-input" short:"H" help:"Path of header input file (for Nortek ASCII files)" type:"path"`
	Output       string `name:"output" short:"o" help:"Path of output file for resampled data" type:"path"`
	OutputFormat string `name:"output-format" short:"F" help:"Format key of the output file"`
	Parameter    string `name:"parameter" short:"p" required:"" help:"Name of the parameter, e.g. temperature"`
	Method       string `name:"method" short:"M" default:"mean" help:"Aggregate method (${methods})"`
	Resample     bool   `name:"resample" short:"r" help:"Resample the time series instead of reducing it to one value"`
	TimeInterval string `name:"time-interval" short:"T" help:"Resampling interval, e.g. 30s, 10m, 1h, 1d, 1M"`
}

func (c *CalcCmd) Run() error {
	mgr := newManager()
	ds, err := mgr.Read(c.Input, c.InputFormat, c.HeaderInput)
	if err != nil {
		return err
	}

	if c.Resample {
		if c.TimeInterval == "" {
			return fmt.Errorf("--resample requires --time-interval")
		}
		out, err := ds.Resample(c.TimeInterval, c.Method)
		if err != nil {
			return err
		}
		if c.Output == "" {
			fmt.Println(out.Example(out.Len()))
			return nil
		}
		return mgr.Write(out, c.Output, c.OutputFormat)
	}

	value, err := ds.Aggregate(c.Method, c.Parameter)
	if err != nil {
		return err
	}
	fmt.Printf("%s(%s) = %g\n", c.Method, c.Parameter, value)
	return nil
}

// ListCmd prints the capability catalog.
type ListCmd struct {
	Kind     string `arg:"" optional:"" default:"all" enum:"all,readers,writers,plotters" help:"Resource type to list"`
	Output   string `name:"output" short:"o" enum:"table,json,yaml,csv" default:"table" help:"Output format"`
	Filter   string `name:"filter" short:"f" help:"Substring filter on key, name, or extension"`
	Sort     string `name:"sort" short:"s" enum:"name,key,extension,type" default:"name" help:"Sort column"`
	Reverse  bool   `name:"reverse" short:"r" help:"Reverse the sort order"`
	NoHeader bool   `name:"no-header" help:"Omit the header row"`
	Verbose  bool   `name:"verbose" short:"v" help:"Include implementation names"`
}

func (c *ListCmd) Run() error {
	registry := capability.Default()

	var descriptors []capability.Descriptor
	switch c.Kind {
	case "readers":
		descriptors = registry.Descriptors(capability.KindReader)
	case "writers":
		descriptors = registry.Descriptors(capability.KindWriter)
	case "plotters":
		descriptors = registry.Descriptors(capability.KindPlotter)
	default:
		descriptors = registry.AllDescriptors()
	}
	descriptors = filterDescriptors(descriptors, c.Filter)
	sortDescriptors(descriptors, c.Sort, c.Reverse)

	switch c.Output {
	case "json":
		return printJSON(descriptors)
	case "yaml":
		return printYAML(descriptors)
	case "csv":
		return printCSV(descriptors, c.NoHeader, c.Verbose)
	default:
		printTable(descriptors, c.NoHeader, c.Verbose)
		return nil
	}
}

func filterDescriptors(in []capability.Descriptor, filter string) []capability.Descriptor {
	if filter == "" {
		return in
	}
	filter = strings.ToLower(filter)
	out := in[:0]
	for _, d := range in {
		if strings.Contains(strings.ToLower(d.Key), filter) ||
			strings.Contains(strings.ToLower(d.DisplayName), filter) ||
			strings.Contains(strings.ToLower(d.FileExtension), filter) {
			out = append(out, d)
		}
	}
	return out
}

func sortDescriptors(descriptors []capability.Descriptor, column string, reverse bool) {
	less := func(a, b capability.Descriptor) bool { return a.Key < b.Key }
	switch column {
	case "name":
		less = func(a, b capability.Descriptor) bool { return a.DisplayName < b.DisplayName }
	case "extension":
		less = func(a, b capability.Descriptor) bool { return a.FileExtension < b.FileExtension }
	case "type":
		less = func(a, b capability.Descriptor) bool {
			if a.Kind != b.Kind {
				return a.Kind < b.Kind
			}
			return a.Key < b.Key
		}
	}
	sort.SliceStable(descriptors, func(i, j int) bool {
		if reverse {
			return less(descriptors[j], descriptors[i])
		}
		return less(descriptors[i], descriptors[j])
	})
}

func printJSON(descriptors []capability.Descriptor) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(descriptors)
}

func printYAML(descriptors []capability.Descriptor) error {
	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()
	return enc.Encode(descriptors)
}

func printCSV(descriptors []capability.Descriptor, noHeader, verbose bool) error {
	w := csv.NewWriter(os.Stdout)
	if !noHeader {
		if err := w.Write(descriptorHeader(verbose)); err != nil {
			return err
		}
	}
	for _, d := range descriptors {
		if err := w.Write(descriptorRow(d, verbose)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func printTable(descriptors []capability.Descriptor, noHeader, verbose bool) {
	if len(descriptors) == 0 {
		fmt.Println("No resources found matching the criteria.")
		return
	}

	rows := make([][]string, 0, len(descriptors)+1)
	if !noHeader {
		rows = append(rows, descriptorHeader(verbose))
	}
	for _, d := range descriptors {
		rows = append(rows, descriptorRow(d, verbose))
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	for _, row := range rows {
		var b strings.Builder
		for i, cell := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			fmt.Fprintf(&b, "%-*s", widths[i], cell)
		}
		fmt.Println(strings.TrimRight(b.String(), " "))
	}
	fmt.Printf("\nTotal: %d resource(s)\n", len(descriptors))
}

func descriptorHeader(verbose bool) []string {
	header := []string{"KEY", "TYPE", "NAME", "EXTENSION", "ORIGIN"}
	if verbose {
		header = append(header, "IMPL")
	}
	return header
}

func descriptorRow(d capability.Descriptor, verbose bool) []string {
	row := []string{d.Key, string(d.Kind), d.DisplayName, d.FileExtension, d.Origin}
	if verbose {
		row = append(row, d.ImplName)
	}
	return row
}

// VersionCmd prints the tool version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("seaconv version %s\n", version)
	return nil
}

// plotFlags are the shared flags of the plot command; the resolved plotter
// contributes the rest through the dynamic binder.
type plotFlags struct {
	Input       string   `name:"input" short:"i" required:"" help:"Path of input file" type:"path"`
	InputFormat string   `name:"input-format" short:"f" help:"Format key of the input file"`
	HeaderInput string   `name:"header-input" short:"H" help:"Path of header input file (for Nortek ASCII files)" type:"path"`
	Output      string   `name:"output" short:"o" required:"" help:"Path of the rendered image" type:"path"`
	Title       string   `name:"title" short:"t" help:"Plot title"`
	Parameter   []string `name:"parameter" short:"p" help:"Variable to plot (repeatable)"`
}

// runPlot handles `seaconv plot <plotter-key> ...`. The plotter key selects
// the flag set, so the arguments are parsed by the dynamic binder rather
// than the static kong grammar.
func runPlot(args []string) error {
	if len(args) == 0 || args[0] == "--list-plotters" {
		listPlotters()
		return nil
	}
	if args[0] == "--help" || args[0] == "-h" {
		fmt.Println("Usage: seaconv plot <plotter-key> -i <input-file> -o <output-file> [options]")
		fmt.Println("Run 'seaconv plot --list-plotters' to see the available plotters.")
		return nil
	}

	key := args[0]
	registry := capability.Default()
	registration, _, ok := registry.Lookup(capability.KindPlotter, key)
	if !ok {
		listPlotters()
		return fmt.Errorf("unknown plotter %q", key)
	}

	var specs []capability.FlagSpec
	if registration.Flags != nil {
		specs = registration.Flags()
	}

	var shared plotFlags
	result, err := clibind.Parse(args[1:], &shared, specs,
		kong.Name("seaconv plot "+key),
		kong.Description(registration.DisplayName),
	)
	if err != nil {
		return err
	}
	for _, warning := range result.Warnings {
		logging.Warn("plot_flag_dropped", "plotter", key, "detail", warning)
	}

	mgr := newManager()
	ds, err := mgr.Read(shared.Input, shared.InputFormat, shared.HeaderInput)
	if err != nil {
		return err
	}
	return mgr.Plot(ds, key, capability.PlotOptions{
		OutputPath: shared.Output,
		Title:      shared.Title,
		Parameters: shared.Parameter,
		Extra:      result.Extra,
	})
}

func listPlotters() {
	descriptors := capability.Default().Descriptors(capability.KindPlotter)
	fmt.Println("Available plotters:")
	fmt.Println(strings.Repeat("-", 60))
	for _, d := range descriptors {
		marker := ""
		if d.Origin != capability.OriginBuiltin {
			marker = " [" + d.Origin + "]"
		}
		fmt.Printf("  %-20s %s%s\n", d.Key, d.DisplayName, marker)
	}
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("\nTotal: %d plotter(s)\n", len(descriptors))
	fmt.Println("\nUsage: seaconv plot <plotter-key> -i <input-file> [options]")
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "plot" {
		if err := runPlot(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "seaconv: error: %s\n", err)
			os.Exit(1)
		}
		return
	}

	ctx := kong.Parse(&CLI,
		kong.Name("seaconv"),
		kong.Description("Convert, inspect, subset, and plot oceanographic sensor data"),
		kong.UsageOnError(),
		kong.Vars{"methods": strings.Join(dataset.Methods(), ", ")},
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	logging.InitLogger(logging.ParseLevel(CLI.LogLevel), logging.FormatText)
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
