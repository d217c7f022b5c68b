package registry

import (
	"fmt"
	"sort"
	"strings"

	"pkt.systems/optimus/schema"
)

// Registry maps logical window names to content locations. It is immutable
// once built.
type Registry struct {
	locations map[schema.WindowName]schema.ContentLocation
	names     []schema.WindowName
}

// DefaultLocations is the built-in table of shell windows.
func DefaultLocations() map[string]string {
	return map[string]string{
		"im":        "/im",
		"dashboard": "/dashboard",
		"orders":    "/orders",
		"backtest":  "/backtest",
		"ml-charts": "/ml-charts",
		"login":     "/login",
	}
}

// New builds a registry from a name to location table.
func New(table map[string]string) (*Registry, error) {
	locations := make(map[schema.WindowName]schema.ContentLocation, len(table))
	names := make([]schema.WindowName, 0, len(table))
	for rawName, rawLocation := range table {
		name, err := schema.NormalizeWindowName(rawName)
		if err != nil {
			return nil, fmt.Errorf("registry entry %q: %w", rawName, err)
		}
		location := strings.TrimSpace(rawLocation)
		if location == "" {
			return nil, fmt.Errorf("registry entry %q: empty location", rawName)
		}
		if _, dup := locations[name]; dup {
			return nil, fmt.Errorf("registry entry %q: duplicate name", rawName)
		}
		locations[name] = schema.ContentLocation(location)
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return &Registry{locations: locations, names: names}, nil
}

// Resolve returns the content location for name.
func (r *Registry) Resolve(name schema.WindowName) (schema.ContentLocation, error) {
	if r == nil {
		return "", fmt.Errorf("%w: %s", schema.ErrUnknownWindowName, name)
	}
	location, ok := r.locations[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", schema.ErrUnknownWindowName, name)
	}
	return location, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name schema.WindowName) bool {
	if r == nil {
		return false
	}
	_, ok := r.locations[name]
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []schema.WindowName {
	if r == nil {
		return nil
	}
	return append([]schema.WindowName(nil), r.names...)
}

// Len returns the number of registered names.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.names)
}
