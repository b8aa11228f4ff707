package domain

// RuleTypeAttr is the raw attribute key carrying a target's rule type.
const RuleTypeAttr = "buck.type"

// RawTarget is one entry of a build file manifest: the rule type and the
// unconfigured attributes exactly as the interpreter produced them.
// Attribute values are nil, bool, int, string, []any, map[string]any or *SelectorList.
type RawTarget struct {
	Name     string
	RuleType string
	Attrs    map[string]any
}

// BuildFileManifest is the parsed-but-unconfigured contents of one build file.
type BuildFileManifest struct {
	// Path is the cell-relative path of the build file.
	Path string
	// Targets maps short target names to raw targets.
	Targets map[string]RawTarget
	// Order lists target names in declaration order.
	Order []string
	// Includes are cell-relative paths of files this manifest was evaluated from.
	Includes []string
}

// Target looks up a raw target by short name.
func (m *BuildFileManifest) Target(name string) (RawTarget, bool) {
	t, ok := m.Targets[name]
	return t, ok
}

// PackageManifest is the parsed contents of one PACKAGE file.
type PackageManifest struct {
	Path          string
	Visibility    []string
	WithinView    []string
	HasVisibility bool
	HasWithinView bool
	Includes      []string
}
