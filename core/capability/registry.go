package capability

import (
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/coriolab/seaconv/internal/logging"
)

// OriginBuiltin marks capabilities compiled into the base format set.
const OriginBuiltin = "builtin"

// keyPattern constrains format keys to lowercase kebab-case.
var keyPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// extPattern constrains file extensions to a leading dot plus lowercase
// alphanumerics.
var extPattern = regexp.MustCompile(`^\.[a-z0-9]+$`)

// Severity grades discovery diagnostics.
type Severity string

const (
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Diagnostic records a non-fatal event from registry discovery: a dropped
// invalid registration, a duplicate, or a plugin overriding a builtin.
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Key      string
	Origin   string
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s %q (%s): %s", d.Severity, d.Kind, d.Key, d.Origin, d.Message)
}

// sourced pairs a registration with where it came from.
type sourced struct {
	reg    Registration
	origin string
}

var (
	pendingMu       sync.Mutex
	pendingBuiltins []sourced
	pendingPlugins  []sourced
)

// RegisterBuiltin queues a builtin capability for discovery. Format packages
// call this from init; validation happens when a registry discovers, so a
// bad registration surfaces as a diagnostic instead of a startup panic.
func RegisterBuiltin(reg Registration) {
	pendingMu.Lock()
	defer pendingMu.Unlock()
	pendingBuiltins = append(pendingBuiltins, sourced{reg: reg, origin: OriginBuiltin})
}

// RegisterPlugin queues a plugin-provided capability for discovery. A plugin
// registration with the same key and kind as a builtin replaces it.
func RegisterPlugin(reg Registration, pluginName string) {
	pendingMu.Lock()
	defer pendingMu.Unlock()
	pendingPlugins = append(pendingPlugins, sourced{reg: reg, origin: "plugin:" + pluginName})
}

// entry is a discovered, validated capability.
type entry struct {
	Registration
	Kind   Kind
	Origin string
}

// Registry is the discovered capability catalog: one key-indexed table per
// kind, plus the diagnostics produced while building them.
type Registry struct {
	mu          sync.Mutex
	discovered  bool
	byKind      map[Kind]map[string]entry
	diagnostics []Diagnostic
}

// NewRegistry returns an empty registry. Discovery runs lazily on first use.
func NewRegistry() *Registry {
	return &Registry{}
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Rediscover drops the discovered state so the next lookup rebuilds the
// catalog. Used after late plugin registration and in tests.
func (r *Registry) Rediscover() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discovered = false
	r.byKind = nil
	r.diagnostics = nil
}

func (r *Registry) ensure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.discovered {
		return
	}
	r.discover()
	r.discovered = true
}

// discover merges the queued builtin and plugin registrations into the
// per-kind tables. Caller holds r.mu.
func (r *Registry) discover() {
	pendingMu.Lock()
	builtins := append([]sourced(nil), pendingBuiltins...)
	plugins := append([]sourced(nil), pendingPlugins...)
	pendingMu.Unlock()

	r.byKind = map[Kind]map[string]entry{
		KindReader:  {},
		KindWriter:  {},
		KindPlotter: {},
	}
	r.diagnostics = nil

	for _, s := range builtins {
		kind, ok := r.validate(s)
		if !ok {
			continue
		}
		table := r.byKind[kind]
		if prev, exists := table[s.reg.Key]; exists {
			r.diag(SeverityError, kind, s.reg.Key, s.origin,
				fmt.Sprintf("duplicate builtin key, keeping earlier registration %q", prev.ImplName))
			continue
		}
		if holder, ext := r.extensionHolder(kind, s.reg.FileExtension); ext {
			r.diag(SeverityError, kind, s.reg.Key, s.origin,
				fmt.Sprintf("extension %q already claimed by builtin %q, dropping", s.reg.FileExtension, holder))
			continue
		}
		table[s.reg.Key] = entry{Registration: s.reg, Kind: kind, Origin: s.origin}
	}

	for _, s := range plugins {
		kind, ok := r.validate(s)
		if !ok {
			continue
		}
		table := r.byKind[kind]
		// An extension held by the entry this plugin overrides is fine; any
		// other holder keeps the extension and the plugin entry is dropped.
		if holder, claimed := r.extensionHolder(kind, s.reg.FileExtension); claimed && holder != s.reg.Key {
			r.diag(SeverityError, kind, s.reg.Key, s.origin,
				fmt.Sprintf("extension %q already claimed by %q, dropping", s.reg.FileExtension, holder))
			continue
		}
		if prev, exists := table[s.reg.Key]; exists {
			r.diag(SeverityWarn, kind, s.reg.Key, s.origin,
				fmt.Sprintf("overrides %s registration %q", prev.Origin, prev.ImplName))
		}
		table[s.reg.Key] = entry{Registration: s.reg, Kind: kind, Origin: s.origin}
	}

	for _, d := range r.diagnostics {
		logging.DiscoveryDiagnostic(string(d.Kind), d.Key, d.Origin, d.Message)
	}
}

// validate checks a registration and records a diagnostic if it is dropped.
// Caller holds r.mu.
func (r *Registry) validate(s sourced) (Kind, bool) {
	kind, err := s.reg.Kind()
	if err != nil {
		r.diag(SeverityError, "", s.reg.Key, s.origin, err.Error())
		return "", false
	}
	if !keyPattern.MatchString(s.reg.Key) {
		r.diag(SeverityError, kind, s.reg.Key, s.origin, "invalid key, want lowercase kebab-case")
		return "", false
	}
	if s.reg.DisplayName == "" {
		r.diag(SeverityError, kind, s.reg.Key, s.origin, "missing display name")
		return "", false
	}
	if s.reg.FileExtension != "" && !extPattern.MatchString(s.reg.FileExtension) {
		r.diag(SeverityError, kind, s.reg.Key, s.origin,
			fmt.Sprintf("invalid file extension %q", s.reg.FileExtension))
		return "", false
	}
	if kind == KindPlotter && s.reg.FileExtension != "" {
		r.diag(SeverityError, kind, s.reg.Key, s.origin, "plotters must not claim a file extension")
		return "", false
	}
	return kind, true
}

// extensionHolder reports whether ext is already claimed in kind's table and
// by which key. An empty ext never conflicts. Caller holds r.mu.
func (r *Registry) extensionHolder(kind Kind, ext string) (string, bool) {
	if ext == "" {
		return "", false
	}
	for key, e := range r.byKind[kind] {
		if e.FileExtension == ext {
			return key, true
		}
	}
	return "", false
}

func (r *Registry) diag(sev Severity, kind Kind, key, origin, message string) {
	r.diagnostics = append(r.diagnostics, Diagnostic{
		Severity: sev, Kind: kind, Key: key, Origin: origin, Message: message,
	})
}

// Lookup returns the registration for a key within a kind.
func (r *Registry) Lookup(kind Kind, key string) (Registration, string, bool) {
	r.ensure()
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byKind[kind][key]
	if !ok {
		return Registration{}, "", false
	}
	return e.Registration, e.Origin, true
}

// ByExtension returns the registration within a kind that claims the given
// lowercase extension.
func (r *Registry) ByExtension(kind Kind, ext string) (Registration, bool) {
	r.ensure()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.byKind[kind] {
		if e.FileExtension != "" && e.FileExtension == ext {
			return e.Registration, true
		}
	}
	return Registration{}, false
}

// Keys returns the sorted format keys registered under a kind.
func (r *Registry) Keys(kind Kind) []string {
	r.ensure()
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.byKind[kind]))
	for key := range r.byKind[kind] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Descriptors returns the catalog for a kind, sorted by key.
func (r *Registry) Descriptors(kind Kind) []Descriptor {
	r.ensure()
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Descriptor, 0, len(r.byKind[kind]))
	for _, e := range r.byKind[kind] {
		out = append(out, Descriptor{
			Key:           e.Key,
			Kind:          e.Kind,
			DisplayName:   e.DisplayName,
			FileExtension: e.FileExtension,
			ImplName:      e.ImplName,
			Origin:        e.Origin,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// AllDescriptors returns the full catalog across kinds, readers first, each
// kind sorted by key.
func (r *Registry) AllDescriptors() []Descriptor {
	var out []Descriptor
	for _, kind := range Kinds() {
		out = append(out, r.Descriptors(kind)...)
	}
	return out
}

// Diagnostics returns the events recorded during the last discovery.
func (r *Registry) Diagnostics() []Diagnostic {
	r.ensure()
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Diagnostic(nil), r.diagnostics...)
}

// resetPending clears the queued registrations. Test helper.
func resetPending() {
	pendingMu.Lock()
	defer pendingMu.Unlock()
	pendingBuiltins = nil
	pendingPlugins = nil
}
