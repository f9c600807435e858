package params

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/skiffworks/skiff/typemap"
)

// ResolvedParameter is one entry of a merged parameter table. Immutable after
// merge; the per-request hot path only reads it.
type ResolvedParameter struct {
	Name           string
	Scope          Scope
	Location       Location
	WireName       string
	Required       bool
	Default        any
	HasDefault     bool
	DefaultFactory func() any
	Constraints    Constraints

	// Precomputed at merge time so the per-request check allocates nothing.
	kind    typemap.BaseKind
	tag     string
	pattern *regexp.Regexp
}

// Kind returns the parameter's coercion kind derived from its declared type.
func (p ResolvedParameter) Kind() typemap.BaseKind { return p.kind }

// ResolvedTable is the merged, per-handler parameter table.
type ResolvedTable struct {
	params []ResolvedParameter
	byWire map[string]int
}

// Parameters returns the resolved parameters in deterministic order.
func (t *ResolvedTable) Parameters() []ResolvedParameter {
	out := make([]ResolvedParameter, len(t.params))
	copy(out, t.params)
	return out
}

// ByWireName looks up a resolved parameter by its external name.
func (t *ResolvedTable) ByWireName(wire string) (ResolvedParameter, bool) {
	i, ok := t.byWire[wire]
	if !ok {
		return ResolvedParameter{}, false
	}
	return t.params[i], true
}

// Len returns the number of resolved parameters.
func (t *ResolvedTable) Len() int { return len(t.params) }

// Merge resolves scoped declarations into one parameter table. Within one
// semantic name the declaration from the highest scope wins entirely; no
// per-attribute merging happens. Wire-name collisions across different
// semantic names are reported as a ConflictError, never picked arbitrarily.
func Merge(declarations []Declaration) (*ResolvedTable, error) {
	// Innermost scope wins whole-declaration. Later declarations win ties
	// so repeated registration at one scope behaves last-writer-wins.
	winners := make(map[string]Declaration)
	order := make([]string, 0, len(declarations))
	hasDefault := make(map[string]bool)
	for _, decl := range declarations {
		if decl.Name == "" {
			return nil, fmt.Errorf("parameter declaration at %s scope has no name", decl.Scope)
		}
		if decl.HasDefault || decl.DefaultFactory != nil {
			hasDefault[decl.Name] = true
		}
		current, seen := winners[decl.Name]
		if !seen {
			order = append(order, decl.Name)
			winners[decl.Name] = decl
			continue
		}
		if decl.Scope >= current.Scope {
			winners[decl.Name] = decl
		}
	}

	byWire := make(map[string][]string)
	for _, name := range order {
		wire := winners[name].EffectiveWireName()
		byWire[wire] = append(byWire[wire], name)
	}

	var conflicts []Conflict
	for wire, names := range byWire {
		if len(names) > 1 {
			sort.Strings(names)
			conflicts = append(conflicts, Conflict{WireName: wire, Names: names})
		}
	}
	if len(conflicts) > 0 {
		sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].WireName < conflicts[j].WireName })
		return nil, &ConflictError{Conflicts: conflicts}
	}

	table := &ResolvedTable{byWire: make(map[string]int, len(order))}
	for _, name := range order {
		resolved, err := resolve(winners[name], hasDefault[name])
		if err != nil {
			return nil, err
		}
		table.byWire[resolved.WireName] = len(table.params)
		table.params = append(table.params, resolved)
	}
	return table, nil
}

func resolve(decl Declaration, anyScopeDefault bool) (ResolvedParameter, error) {
	annotation := decl.Type
	if annotation == nil {
		annotation = typemap.String
	}
	var n typemap.Normalizer
	descriptor, err := n.Normalize(annotation)
	if err != nil {
		return ResolvedParameter{}, fmt.Errorf("parameter %q: %w", decl.Name, err)
	}

	optional := decl.Optional || descriptor.IsOptional()
	if descriptor.IsOptional() {
		descriptor = typemap.WithoutNone(descriptor)
	}

	var pattern *regexp.Regexp
	if decl.Constraints.Pattern != "" {
		pattern, err = regexp.Compile(decl.Constraints.Pattern)
		if err != nil {
			return ResolvedParameter{}, fmt.Errorf("parameter %q: invalid pattern: %w", decl.Name, err)
		}
	}

	kind := descriptor.Base.Kind
	return ResolvedParameter{
		Name:           decl.Name,
		Scope:          decl.Scope,
		Location:       decl.EffectiveLocation(),
		WireName:       decl.EffectiveWireName(),
		Required:       !anyScopeDefault && !optional,
		Default:        decl.Default,
		HasDefault:     decl.HasDefault,
		DefaultFactory: decl.DefaultFactory,
		Constraints:    decl.Constraints,
		kind:           kind,
		tag:            buildConstraintTag(kind, decl.Constraints),
		pattern:        pattern,
	}, nil
}
