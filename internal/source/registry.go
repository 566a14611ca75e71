package source

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrSourceNotFound is returned when an identifier is absent from the registry.
var ErrSourceNotFound = errors.New("source not found in registry")

// Category classifies an external source
type Category string

const (
	CategorySocial     Category = "social"
	CategoryNews       Category = "news"
	CategoryGovernment Category = "government"
	CategoryOther      Category = "other"
)

// Descriptor is the immutable registry entry for one external source.
// ID is the join key for result attribution and must equal the identifier the
// source's own results report. Priority orders the default search sequence
// (lower = earlier); a negative priority keeps the source describable but
// excludes it from the default order.
type Descriptor struct {
	ID          string
	Category    Category
	DisplayName string
	Priority    int
}

// Registry holds a closed, read-only catalog of source descriptors.
// Safe for concurrent use by any number of verifications.
type Registry struct {
	descriptors []Descriptor
	byID        map[string]Descriptor
}

// NewRegistry builds a registry from the given descriptors.
// Identifiers must be unique.
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	byID := make(map[string]Descriptor, len(descriptors))
	for _, d := range descriptors {
		if d.ID == "" {
			return nil, fmt.Errorf("source descriptor with empty identifier (display name %q)", d.DisplayName)
		}
		if _, dup := byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate source identifier %q", d.ID)
		}
		byID[d.ID] = d
	}
	reg := &Registry{
		descriptors: append([]Descriptor(nil), descriptors...),
		byID:        byID,
	}
	return reg, nil
}

// Default returns the built-in source catalog.
func Default() *Registry {
	reg, err := NewRegistry(
		Descriptor{ID: "twitter", Category: CategorySocial, DisplayName: "Twitter", Priority: 1},
		Descriptor{ID: "bluesky", Category: CategorySocial, DisplayName: "BlueSky", Priority: 2},
		Descriptor{ID: "news", Category: CategoryNews, DisplayName: "News", Priority: 3},
		Descriptor{ID: "gov", Category: CategoryGovernment, DisplayName: "Government", Priority: 4},
	)
	if err != nil {
		// The built-in catalog is a compile-time constant; a failure here is a bug.
		panic(err)
	}
	return reg
}

// Describe returns the descriptor for the given identifier.
func (r *Registry) Describe(id string) (Descriptor, error) {
	d, ok := r.byID[id]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrSourceNotFound, id)
	}
	return d, nil
}

// All returns every registered descriptor in default order, including
// negative-priority entries (which sort last).
func (r *Registry) All() []Descriptor {
	out := append([]Descriptor(nil), r.descriptors...)
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i], out[j]
		if (di.Priority < 0) != (dj.Priority < 0) {
			return dj.Priority < 0
		}
		if di.Priority != dj.Priority {
			return di.Priority < dj.Priority
		}
		return di.ID < dj.ID
	})
	return out
}

// DefaultOrder returns the identifiers to search, ascending by priority with
// ties broken by identifier. Negative-priority sources are excluded. A fresh
// slice is returned on every call so callers can never alias internal state.
func (r *Registry) DefaultOrder() []string {
	enabled := make([]Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		if d.Priority >= 0 {
			enabled = append(enabled, d)
		}
	}
	sort.Slice(enabled, func(i, j int) bool {
		if enabled[i].Priority != enabled[j].Priority {
			return enabled[i].Priority < enabled[j].Priority
		}
		return enabled[i].ID < enabled[j].ID
	})
	order := make([]string, len(enabled))
	for i, d := range enabled {
		order[i] = d.ID
	}
	return order
}

// ReorderForHint biases a search order toward a locale/platform hint.
// The hint is matched case-insensitively against each source's identifier and
// display name, in registry order; the first matching source is moved to the
// front of a copy of the given order. No match returns a copy of the input
// unchanged. The input slice is never mutated and the registry never changes,
// so the operation is idempotent.
func (r *Registry) ReorderForHint(order []string, hint string) []string {
	out := append([]string(nil), order...)

	hint = strings.TrimSpace(hint)
	if hint == "" {
		return out
	}
	lower := strings.ToLower(hint)

	matched := ""
	for _, d := range r.descriptors {
		if strings.Contains(lower, strings.ToLower(d.ID)) || strings.Contains(lower, strings.ToLower(d.DisplayName)) {
			matched = d.ID
			break
		}
	}
	if matched == "" {
		return out
	}

	for i, id := range out {
		if id == matched {
			// Single move to the front; the rest keeps the curated order.
			copy(out[1:i+1], out[:i])
			out[0] = matched
			return out
		}
	}
	return out
}
