package rules

import (
	"fmt"
	"sort"
	"strings"
)

// Registry maps rule names and aliases to constructors.
type Registry struct {
	rules   map[string]func() Rule
	aliases map[string]string
}

func NewRegistry() *Registry {
	r := &Registry{
		rules:   make(map[string]func() Rule),
		aliases: make(map[string]string),
	}

	r.Register(func() Rule { return Aether{} }, "ae")
	r.Register(func() Rule { return SpreadIntegerValue{} }, "siv")
	r.Register(func() Rule { return AbelianSandpile{} }, "sandpile", "as")
	r.Register(func() Rule { return NearAether1{} }, "na1")
	r.Register(func() Rule { return NearAether2{} }, "na2")
	r.Register(func() Rule { return NearAether3{} }, "na3")

	return r
}

// Register adds a rule under its Name and any aliases. Lookups are case
// insensitive.
func (r *Registry) Register(fn func() Rule, aliases ...string) {
	name := fn().Name()
	r.rules[name] = fn
	r.aliases[strings.ToLower(name)] = name
	for _, a := range aliases {
		r.aliases[strings.ToLower(a)] = name
	}
}

func (r *Registry) Get(name string) (Rule, error) {
	canonical, ok := r.aliases[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown rule: %s", name)
	}
	return r.rules[canonical](), nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.rules))
	for name := range r.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry()

// Lookup resolves a rule from the default registry.
func Lookup(name string) (Rule, error) { return defaultRegistry.Get(name) }

// Names lists the rules of the default registry.
func Names() []string { return defaultRegistry.List() }
