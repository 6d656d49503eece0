// Package clibind turns plotter-declared flag specs into a real command
// line parser at run time. The plot command cannot know its full flag set
// until the plotter is resolved, so the binder synthesizes a struct type
// with kong tags from the specs and parses the remaining arguments with it.
package clibind

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/coriolab/seaconv/core/capability"
)

var flagNamePattern = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

// Result is the outcome of a dynamic parse: the plotter-specific values
// keyed by spec name, plus warnings for any specs that had to be dropped.
type Result struct {
	Extra    map[string]any
	Warnings []string
}

// Parse parses args against the shared flag struct plus the plotter's
// declared specs. shared must be a non-nil pointer to a struct carrying
// kong tags; it is filled in place. Malformed or colliding specs are
// dropped with a warning and parsing falls back to the remaining flags, so
// a broken plugin never takes the plot command down with it.
func Parse(args []string, shared any, specs []capability.FlagSpec, options ...kong.Option) (*Result, error) {
	sharedVal := reflect.ValueOf(shared)
	if sharedVal.Kind() != reflect.Ptr || sharedVal.IsNil() || sharedVal.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("shared flags must be a non-nil struct pointer, got %T", shared)
	}

	sharedType := sharedVal.Elem().Type()
	usable, warnings := vetSpecs(specs, reservedNames(sharedType), reservedShorts(sharedType))

	dynType := buildStructType(sharedType, usable)
	target := reflect.New(dynType)
	target.Elem().Field(0).Set(sharedVal.Elem())

	opts := append([]kong.Option{kong.UsageOnError()}, options...)
	parser, err := kong.New(target.Interface(), opts...)
	if err != nil {
		// A spec that survived vetting but still breaks the parser must not
		// take the plot command down; retry with the shared flags alone.
		warnings = append(warnings, fmt.Sprintf("dropping all plotter flags: %v", err))
		usable = nil
		dynType = buildStructType(sharedType, nil)
		target = reflect.New(dynType)
		target.Elem().Field(0).Set(sharedVal.Elem())
		parser, err = kong.New(target.Interface(), opts...)
		if err != nil {
			return nil, fmt.Errorf("building plot flag parser: %w", err)
		}
	}
	if _, err := parser.Parse(args); err != nil {
		return nil, err
	}

	sharedVal.Elem().Set(target.Elem().Field(0))

	extra := make(map[string]any, len(usable))
	for i, spec := range usable {
		field := target.Elem().Field(i + 1)
		switch normalType(spec.Type) {
		case capability.FlagInt:
			extra[spec.Name] = int(field.Int())
		case capability.FlagFloat:
			extra[spec.Name] = field.Float()
		case capability.FlagBool:
			extra[spec.Name] = field.Bool()
		default:
			extra[spec.Name] = field.String()
		}
	}
	return &Result{Extra: extra, Warnings: warnings}, nil
}

// vetSpecs filters out specs the binder cannot represent, recording why.
func vetSpecs(specs []capability.FlagSpec, reserved, shorts map[string]bool) ([]capability.FlagSpec, []string) {
	var usable []capability.FlagSpec
	var warnings []string
	seen := make(map[string]bool)
	seenShorts := make(map[string]bool)
	for _, spec := range specs {
		switch {
		case !flagNamePattern.MatchString(spec.Name):
			warnings = append(warnings, fmt.Sprintf("dropping flag %q: invalid name", spec.Name))
		case reserved[spec.Name]:
			warnings = append(warnings, fmt.Sprintf("dropping flag %q: collides with a shared plot flag", spec.Name))
		case seen[spec.Name]:
			warnings = append(warnings, fmt.Sprintf("dropping flag %q: declared twice", spec.Name))
		case spec.Short != "" && len(spec.Short) != 1:
			warnings = append(warnings, fmt.Sprintf("dropping flag %q: short alias %q is not a single letter", spec.Name, spec.Short))
		case spec.Short != "" && (shorts[spec.Short] || seenShorts[spec.Short]):
			warnings = append(warnings, fmt.Sprintf("dropping flag %q: short alias %q already in use", spec.Name, spec.Short))
		case !knownType(spec.Type):
			warnings = append(warnings, fmt.Sprintf("dropping flag %q: unknown type %q", spec.Name, spec.Type))
		case !defaultParses(spec):
			warnings = append(warnings, fmt.Sprintf("dropping flag %q: default %q is not a valid %s", spec.Name, spec.Default, normalType(spec.Type)))
		default:
			seen[spec.Name] = true
			if spec.Short != "" {
				seenShorts[spec.Short] = true
			}
			usable = append(usable, spec)
			continue
		}
	}
	return usable, warnings
}

func defaultParses(spec capability.FlagSpec) bool {
	if spec.Default == "" {
		return true
	}
	var err error
	switch normalType(spec.Type) {
	case capability.FlagInt:
		_, err = strconv.Atoi(spec.Default)
	case capability.FlagFloat:
		_, err = strconv.ParseFloat(spec.Default, 64)
	case capability.FlagBool:
		_, err = strconv.ParseBool(spec.Default)
	}
	return err == nil
}

func knownType(t capability.FlagType) bool {
	switch t {
	case "", capability.FlagString, capability.FlagInt, capability.FlagFloat, capability.FlagBool:
		return true
	}
	return false
}

func normalType(t capability.FlagType) capability.FlagType {
	if t == "" {
		return capability.FlagString
	}
	return t
}

// buildStructType synthesizes the parse target: the shared struct embedded
// first, then one field per spec.
func buildStructType(sharedType reflect.Type, specs []capability.FlagSpec) reflect.Type {
	fields := make([]reflect.StructField, 0, len(specs)+1)
	fields = append(fields, reflect.StructField{
		Name: "Shared",
		Type: sharedType,
		Tag:  `embed:""`,
	})
	for i, spec := range specs {
		fields = append(fields, reflect.StructField{
			Name: fmt.Sprintf("Flag%d", i),
			Type: goType(normalType(spec.Type)),
			Tag:  reflect.StructTag(buildTag(spec)),
		})
	}
	return reflect.StructOf(fields)
}

func goType(t capability.FlagType) reflect.Type {
	switch t {
	case capability.FlagInt:
		return reflect.TypeOf(int(0))
	case capability.FlagFloat:
		return reflect.TypeOf(float64(0))
	case capability.FlagBool:
		return reflect.TypeOf(false)
	default:
		return reflect.TypeOf("")
	}
}

func buildTag(spec capability.FlagSpec) string {
	parts := []string{fmt.Sprintf("name:%q", spec.Name)}
	if spec.Short != "" {
		parts = append(parts, fmt.Sprintf("short:%q", spec.Short))
	}
	if spec.Help != "" {
		parts = append(parts, fmt.Sprintf("help:%q", spec.Help))
	}
	if spec.Default != "" {
		parts = append(parts, fmt.Sprintf("default:%q", spec.Default))
	}
	return strings.Join(parts, " ")
}

// reservedNames collects the kong flag names already claimed by the shared
// struct so plotter specs cannot shadow them.
func reservedNames(sharedType reflect.Type) map[string]bool {
	reserved := make(map[string]bool)
	for i := 0; i < sharedType.NumField(); i++ {
		f := sharedType.Field(i)
		if name := f.Tag.Get("name"); name != "" {
			reserved[name] = true
			continue
		}
		reserved[strings.ToLower(f.Name)] = true
	}
	return reserved
}

// reservedShorts collects the short aliases the shared struct claims.
func reservedShorts(sharedType reflect.Type) map[string]bool {
	shorts := make(map[string]bool)
	for i := 0; i < sharedType.NumField(); i++ {
		if s := sharedType.Field(i).Tag.Get("short"); s != "" {
			shorts[s] = true
		}
	}
	return shorts
}
