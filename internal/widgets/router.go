package widgets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ironsheep/widget-inventory-mcp/internal/detection"
)

// Strategy selects how a region's content is extracted.
type Strategy int

const (
	// Ignore emits the element with empty content.
	Ignore Strategy = iota
	// PlainOCR crops the region and recognizes its text.
	PlainOCR
	// NestedDetect runs a sub-detector on the crop and assembles its output.
	NestedDetect
)

func (s Strategy) String() string {
	switch s {
	case Ignore:
		return "ignore"
	case PlainOCR:
		return "ocr"
	case NestedDetect:
		return "nested"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy accepts "ignore", "ocr" (or "plain-ocr") and "nested" (or
// "nested-detect").
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ignore":
		return Ignore, nil
	case "ocr", "plain-ocr":
		return PlainOCR, nil
	case "nested", "nested-detect":
		return NestedDetect, nil
	default:
		return 0, fmt.Errorf("unknown strategy: %q", s)
	}
}

func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Strategy) UnmarshalText(text []byte) error {
	v, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Layouts a nested result can be shaped into.
const (
	LayoutList  = "list"
	LayoutTable = "table"
	LayoutTree  = "tree"
)

// NestedSpec configures the nested pass for a container class.
type NestedSpec struct {
	// Name identifies the spec; NewRouter fills it from the map key.
	Name string `json:"name"`

	// Detector is the sub-detector name resolved through a DetectorSource.
	Detector string `json:"detector"`

	// Detect is passed to the sub-detector.
	Detect detection.Config `json:"detect"`

	// Classes is the closed set of labels the sub-detector may emit.
	Classes []string `json:"classes"`

	// MaxDepth caps the nesting budget below this container.
	MaxDepth int `json:"max_depth"`

	// Global translates nested coordinates into the parent frame.
	Global bool `json:"global"`

	// Layout is one of LayoutList, LayoutTable or LayoutTree.
	Layout string `json:"layout"`

	// Indent is the tree indentation step in pixels.
	Indent int `json:"indent,omitempty"`
}

func (s *NestedSpec) layout() string {
	if s.Layout == "" {
		return LayoutList
	}
	return s.Layout
}

// ClassRule assigns a strategy to a class. Nested names a NestedSpec and is
// required for NestedDetect.
type ClassRule struct {
	Class    string   `json:"class"`
	Strategy Strategy `json:"strategy"`
	Nested   string   `json:"nested,omitempty"`
}

// Route is the routing decision for one class.
type Route struct {
	Strategy Strategy
	Nested   *NestedSpec
}

// Router is the static class-to-strategy table, built once and shared.
// It is read-only after construction and safe for concurrent use.
type Router struct {
	rules  []ClassRule
	index  map[string]int
	routes []Route
}

// NewRouter validates rules and nested specs and builds the routing table.
// Class indices follow the order of rules.
func NewRouter(rules []ClassRule, nested map[string]NestedSpec) (*Router, error) {
	r := &Router{
		rules:  make([]ClassRule, len(rules)),
		index:  make(map[string]int, len(rules)),
		routes: make([]Route, len(rules)),
	}
	copy(r.rules, rules)

	for i, rule := range rules {
		if rule.Class == "" {
			return nil, fmt.Errorf("class rule %d: empty class name", i)
		}
		if _, dup := r.index[rule.Class]; dup {
			return nil, fmt.Errorf("class %q: duplicate rule", rule.Class)
		}
		r.index[rule.Class] = i
	}

	specs := make(map[string]*NestedSpec, len(nested))
	for i, rule := range rules {
		switch rule.Strategy {
		case Ignore, PlainOCR:
			if rule.Nested != "" {
				return nil, fmt.Errorf("class %q: nested spec %q on %s strategy", rule.Class, rule.Nested, rule.Strategy)
			}
			r.routes[i] = Route{Strategy: rule.Strategy}

		case NestedDetect:
			spec, err := r.nestedSpec(rule, nested, specs)
			if err != nil {
				return nil, err
			}
			r.routes[i] = Route{Strategy: NestedDetect, Nested: spec}

		default:
			return nil, fmt.Errorf("class %q: invalid strategy %d", rule.Class, int(rule.Strategy))
		}
	}

	if err := r.checkCycles(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Router) nestedSpec(rule ClassRule, nested map[string]NestedSpec, built map[string]*NestedSpec) (*NestedSpec, error) {
	if rule.Nested == "" {
		return nil, fmt.Errorf("class %q: nested strategy without nested spec", rule.Class)
	}
	if spec, ok := built[rule.Nested]; ok {
		return spec, nil
	}

	def, ok := nested[rule.Nested]
	if !ok {
		return nil, fmt.Errorf("class %q: unknown nested spec %q", rule.Class, rule.Nested)
	}

	spec := def
	spec.Name = rule.Nested
	spec.Classes = append([]string(nil), def.Classes...)

	if spec.Detector == "" {
		return nil, fmt.Errorf("nested spec %q: empty detector name", spec.Name)
	}
	if spec.MaxDepth < 1 {
		return nil, fmt.Errorf("nested spec %q: max depth must be at least 1", spec.Name)
	}
	switch spec.Layout {
	case "", LayoutList, LayoutTable, LayoutTree:
	default:
		return nil, fmt.Errorf("nested spec %q: unknown layout %q", spec.Name, spec.Layout)
	}
	for _, c := range spec.Classes {
		if _, ok := r.index[c]; !ok {
			return nil, fmt.Errorf("nested spec %q: class %q has no routing rule", spec.Name, c)
		}
	}

	built[rule.Nested] = &spec
	return &spec, nil
}

// checkCycles walks the container graph: an edge runs from a container
// class to every container class its sub-detector may emit.
func (r *Router) checkCycles() error {
	const (
		unvisited = iota
		active
		done
	)
	state := make([]int, len(r.rules))
	var path []string

	var visit func(i int) error
	visit = func(i int) error {
		state[i] = active
		path = append(path, r.rules[i].Class)

		for _, c := range r.routes[i].Nested.Classes {
			j := r.index[c]
			if r.routes[j].Strategy != NestedDetect {
				continue
			}
			switch state[j] {
			case active:
				return fmt.Errorf("%w: %s -> %s", ErrNestingCycle, strings.Join(path, " -> "), c)
			case unvisited:
				if err := visit(j); err != nil {
					return err
				}
			}
		}

		path = path[:len(path)-1]
		state[i] = done
		return nil
	}

	for i := range r.rules {
		if r.routes[i].Strategy == NestedDetect && state[i] == unvisited {
			if err := visit(i); err != nil {
				return err
			}
		}
	}
	return nil
}

// Route returns the routing decision for label.
func (r *Router) Route(label string) (Route, error) {
	i, ok := r.index[label]
	if !ok {
		return Route{}, &UnknownClassError{Class: label}
	}
	return r.routes[i], nil
}

// Index returns the class index of label, or -1.
func (r *Router) Index(label string) int {
	if i, ok := r.index[label]; ok {
		return i
	}
	return -1
}

// Classes returns the class names in index order.
func (r *Router) Classes() []string {
	names := make([]string, len(r.rules))
	for i, rule := range r.rules {
		names[i] = rule.Class
	}
	return names
}

// IsUnknownClass reports whether err is or wraps an UnknownClassError.
func IsUnknownClass(err error) bool {
	var uc *UnknownClassError
	return errors.As(err, &uc)
}
