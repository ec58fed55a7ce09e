// Package registry is the single source of truth mapping logical field and
// category names to the JSONB access path where each value lives inside a
// per-day health record.
//
// The catalog is declared in registry.cue (embedded at build time) and loaded
// once at package init. Lookups are pure reads over static data; unknown names
// are reported explicitly through the second return value rather than mapped
// to a best-guess path, so callers decide how strict to be at the boundary.
package registry

import (
	_ "embed"
	"fmt"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed registry.cue
var registryCUE string

// PayloadColumn is the JSONB column holding the per-day document on the
// daily_logs table. All generated path expressions start here.
const PayloadColumn = "data"

// FieldType is the declared value type of a datapoint.
type FieldType string

const (
	TypeBoolean FieldType = "boolean"
	TypeNumber  FieldType = "number"
	TypeString  FieldType = "string"
	TypeDate    FieldType = "date"
	TypeTime    FieldType = "time"
)

// Registry holds the loaded datapoint catalog.
// Category names and datapoint names are disjoint by construction
// (Load rejects a catalog where they collide).
type Registry struct {
	categories map[string][]string // category -> sorted member datapoints
	fields     map[string]fieldInfo
}

type fieldInfo struct {
	category string
	typ      FieldType
}

var defaultRegistry = mustLoad()

// Default returns the registry loaded from the embedded catalog.
func Default() *Registry {
	return defaultRegistry
}

// Load parses the embedded CUE catalog into a Registry.
// Exposed for tests; production code uses Default.
func Load() (*Registry, error) {
	ctx := cuecontext.New()
	val := ctx.CompileString(registryCUE, cue.Filename("registry.cue"))
	if err := val.Err(); err != nil {
		return nil, fmt.Errorf("compile registry catalog: %w", err)
	}

	var raw map[string]map[string]string
	if err := val.LookupPath(cue.ParsePath("categories")).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode registry catalog: %w", err)
	}

	r := &Registry{
		categories: make(map[string][]string, len(raw)),
		fields:     make(map[string]fieldInfo),
	}
	for category, members := range raw {
		names := make([]string, 0, len(members))
		for name, typ := range members {
			if _, dup := r.fields[name]; dup {
				return nil, fmt.Errorf("datapoint %q declared in more than one category", name)
			}
			r.fields[name] = fieldInfo{category: category, typ: FieldType(typ)}
			names = append(names, name)
		}
		sort.Strings(names)
		r.categories[category] = names
	}
	for category := range r.categories {
		if _, clash := r.fields[category]; clash {
			return nil, fmt.Errorf("name %q is both a category and a datapoint", category)
		}
	}
	return r, nil
}

func mustLoad() *Registry {
	r, err := Load()
	if err != nil {
		// The catalog is a compiled-in asset; a load failure is a build defect.
		panic(err)
	}
	return r
}

// Path returns the JSONB access expression for a logical name.
// Datapoints resolve to a text extraction (data->'cat'->>'name'), categories
// to the object itself (data->'cat'). The second return value is false for
// names the catalog does not know.
func (r *Registry) Path(name string) (string, bool) {
	if fi, ok := r.fields[name]; ok {
		return fmt.Sprintf("%s->'%s'->>'%s'", PayloadColumn, fi.category, name), true
	}
	if _, ok := r.categories[name]; ok {
		return fmt.Sprintf("%s->'%s'", PayloadColumn, name), true
	}
	return "", false
}

// FieldsOf returns the sorted member datapoints of a category.
// Unknown categories yield an empty (non-nil) slice.
func (r *Registry) FieldsOf(category string) []string {
	members, ok := r.categories[category]
	if !ok {
		return []string{}
	}
	out := make([]string, len(members))
	copy(out, members)
	return out
}

// IsCategory reports whether name is a known category.
func (r *Registry) IsCategory(name string) bool {
	_, ok := r.categories[name]
	return ok
}

// IsDatapoint reports whether name is a known datapoint.
func (r *Registry) IsDatapoint(name string) bool {
	_, ok := r.fields[name]
	return ok
}

// Known reports whether name is either a category or a datapoint.
func (r *Registry) Known(name string) bool {
	return r.IsCategory(name) || r.IsDatapoint(name)
}

// CategoryOf returns the category a datapoint belongs to.
func (r *Registry) CategoryOf(name string) (string, bool) {
	fi, ok := r.fields[name]
	if !ok {
		return "", false
	}
	return fi.category, true
}

// TypeOf returns the declared value type of a datapoint.
func (r *Registry) TypeOf(name string) (FieldType, bool) {
	fi, ok := r.fields[name]
	if !ok {
		return "", false
	}
	return fi.typ, true
}

// Categories returns all category names, sorted.
func (r *Registry) Categories() []string {
	out := make([]string, 0, len(r.categories))
	for name := range r.categories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Datapoints returns all datapoint names, sorted.
func (r *Registry) Datapoints() []string {
	out := make([]string, 0, len(r.fields))
	for name := range r.fields {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
