package domain

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// UnconfiguredNode is a target identity plus its raw, not-yet-configured attributes.
type UnconfiguredNode struct {
	ID        TargetID
	RuleType  string
	Attrs     map[string]any
	BuildFile string
}

// Attr returns a raw attribute value.
func (n *UnconfiguredNode) Attr(name string) (any, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

// MaybeNode is the result of configuring a target: either a *TargetNode or an
// *IncompatibleNode. The set of implementations is closed.
type MaybeNode interface {
	Target() TargetID
	isMaybeNode()
}

// TargetNode is a fully configured node, ready for graph assembly.
type TargetNode struct {
	ID           TargetID
	Rule         RuleDescriptor
	Args         map[string]any
	DeclaredDeps []TargetID
	ExtraDeps    []TargetID
	ConfigDeps   []TargetID
	Visibility   []string
	WithinView   []string
	BuildFile    string
	Platform     string
	// Inputs are cell-relative source paths referenced by the node.
	Inputs []string
}

// Target implements MaybeNode.
func (n *TargetNode) Target() TargetID { return n.ID }

func (*TargetNode) isMaybeNode() {}

// Deps returns the union of declared and extra dependencies, sorted and deduplicated.
// These are the targets the graph builder adds edges to.
func (n *TargetNode) Deps() []TargetID {
	deps := make([]TargetID, 0, len(n.DeclaredDeps)+len(n.ExtraDeps))
	deps = append(deps, n.DeclaredDeps...)
	deps = append(deps, n.ExtraDeps...)
	slices.SortFunc(deps, TargetID.Compare)
	return slices.Compact(deps)
}

// WithID returns a shallow copy of the node re-keyed to another target identity.
func (n *TargetNode) WithID(id TargetID) *TargetNode {
	cp := *n
	cp.ID = id
	return &cp
}

// Fingerprint returns a structural hash of the node used for equality checks.
func (n *TargetNode) Fingerprint() uint64 {
	d := xxhash.New()
	w := func(s string) {
		_, _ = d.WriteString(s)
		_, _ = d.Write([]byte{0})
	}
	w(n.ID.String())
	w(n.Rule.Name)
	w(n.BuildFile)
	w(n.Platform)
	for _, dep := range n.DeclaredDeps {
		w(dep.String())
	}
	w("|extra")
	for _, dep := range n.ExtraDeps {
		w(dep.String())
	}
	w("|config")
	for _, dep := range n.ConfigDeps {
		w(dep.String())
	}
	w("|visibility")
	for _, v := range n.Visibility {
		w(v)
	}
	w("|within_view")
	for _, v := range n.WithinView {
		w(v)
	}
	w("|inputs")
	for _, v := range n.Inputs {
		w(v)
	}
	w("|args")
	writeValue(w, n.Args)
	return d.Sum64()
}

// Equal reports whether two nodes are structurally identical.
func (n *TargetNode) Equal(o *TargetNode) bool {
	if n == o {
		return true
	}
	if n == nil || o == nil {
		return false
	}
	return n.ID == o.ID && n.Fingerprint() == o.Fingerprint()
}

func writeValue(w func(string), v any) {
	switch val := v.(type) {
	case nil:
		w("N")
	case bool:
		w("B" + strconv.FormatBool(val))
	case int:
		w("I" + strconv.Itoa(val))
	case int64:
		w("I" + strconv.FormatInt(val, 10))
	case string:
		w("S" + val)
	case TargetID:
		w("T" + val.String())
	case []TargetID:
		w("L" + strconv.Itoa(len(val)))
		for _, e := range val {
			w("T" + e.String())
		}
	case []string:
		w("L" + strconv.Itoa(len(val)))
		for _, e := range val {
			w("S" + e)
		}
	case []any:
		w("L" + strconv.Itoa(len(val)))
		for _, e := range val {
			writeValue(w, e)
		}
	case map[string]any:
		w("D" + strconv.Itoa(len(val)))
		for _, k := range slices.Sorted(maps.Keys(val)) {
			w(k)
			writeValue(w, val[k])
		}
	default:
		w(fmt.Sprintf("?%T:%v", val, val))
	}
}

// IncompatibleNode marks a target whose compatible_with does not match the platform.
// It carries only what is needed for a diagnostic.
type IncompatibleNode struct {
	ID             TargetID
	Platform       string
	CompatibleWith []string
}

// Target implements MaybeNode.
func (n *IncompatibleNode) Target() TargetID { return n.ID }

func (*IncompatibleNode) isMaybeNode() {}

// Reason returns a readable description of the incompatibility.
func (n *IncompatibleNode) Reason() string {
	return fmt.Sprintf("%s is incompatible with platform %s (compatible_with: %v)",
		n.ID, n.Platform, n.CompatibleWith)
}
