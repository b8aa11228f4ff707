package domain

// RuleKind is the closed set of node kinds the pipelines produce.
type RuleKind uint8

const (
	// RuleBuild is an ordinary buildable rule.
	RuleBuild RuleKind = iota
	// RuleConfigSetting is a config_setting: a named set of constraint values.
	RuleConfigSetting
	// RuleConstraintSetting is a constraint_setting: the axis a constraint value belongs to.
	RuleConstraintSetting
	// RuleConstraintValue is a constraint_value: one value along a constraint setting.
	RuleConstraintValue
	// RulePlatform is a platform: a named set of constraint values.
	RulePlatform
)

// IsConfiguration reports whether nodes of this kind configure other targets.
func (k RuleKind) IsConfiguration() bool {
	return k != RuleBuild
}

// String returns a readable kind name.
func (k RuleKind) String() string {
	switch k {
	case RuleConfigSetting:
		return "config_setting"
	case RuleConstraintSetting:
		return "constraint_setting"
	case RuleConstraintValue:
		return "constraint_value"
	case RulePlatform:
		return "platform"
	default:
		return "build"
	}
}

// AttrType is the coercion type of a rule attribute.
type AttrType uint8

const (
	// AttrAny accepts any value and concatenates by value shape.
	AttrAny AttrType = iota
	// AttrString is a single string.
	AttrString
	// AttrBool is a single boolean.
	AttrBool
	// AttrInt is a single integer.
	AttrInt
	// AttrList is a list of arbitrary values.
	AttrList
	// AttrDict is a string-keyed dictionary.
	AttrDict
	// AttrDeps is a list of target labels contributing graph edges.
	AttrDeps
	// AttrTarget is a single target label.
	AttrTarget
	// AttrSources is a list of cell-relative source paths subject to boundary checks.
	AttrSources
)

// Concatenable reports whether select branches of this type may be concatenated.
func (t AttrType) Concatenable() bool {
	switch t {
	case AttrAny, AttrString, AttrList, AttrDict, AttrDeps, AttrSources:
		return true
	default:
		return false
	}
}

// String returns a readable type name.
func (t AttrType) String() string {
	switch t {
	case AttrString:
		return "string"
	case AttrBool:
		return "bool"
	case AttrInt:
		return "int"
	case AttrList:
		return "list"
	case AttrDict:
		return "dict"
	case AttrDeps:
		return "list<target>"
	case AttrTarget:
		return "target"
	case AttrSources:
		return "list<source>"
	default:
		return "any"
	}
}

// Common attribute names.
const (
	AttrNameDeps                  = "deps"
	AttrNameExportedDeps          = "exported_deps"
	AttrNameSrcs                  = "srcs"
	AttrNameVisibility            = "visibility"
	AttrNameWithinView            = "within_view"
	AttrNameCompatibleWith        = "compatible_with"
	AttrNameDefaultTargetPlatform = "default_target_platform"
	AttrNameConstraintValues      = "constraint_values"
	AttrNameConstraintSetting     = "constraint_setting"
	AttrNameNoMatchMessage        = "no_match_message"
)

// RuleDescriptor describes one rule type: its kind and attribute coercions.
// Attributes not listed are treated as AttrAny.
type RuleDescriptor struct {
	Name  string
	Kind  RuleKind
	Attrs map[string]AttrType
}

// AttrType returns the declared type of an attribute.
func (r RuleDescriptor) AttrType(name string) AttrType {
	if t, ok := r.Attrs[name]; ok {
		return t
	}
	return AttrAny
}

// commonAttrs are declared on every rule.
func commonAttrs(extra map[string]AttrType) map[string]AttrType {
	attrs := map[string]AttrType{
		"name":                        AttrString,
		AttrNameVisibility:            AttrList,
		AttrNameWithinView:            AttrList,
		AttrNameCompatibleWith:        AttrDeps,
		AttrNameDefaultTargetPlatform: AttrTarget,
	}
	for k, v := range extra {
		attrs[k] = v
	}
	return attrs
}

// KnownRules returns the built-in rule descriptors keyed by rule name.
func KnownRules() map[string]RuleDescriptor {
	build := func(name string, extra map[string]AttrType) RuleDescriptor {
		return RuleDescriptor{Name: name, Kind: RuleBuild, Attrs: commonAttrs(extra)}
	}
	library := map[string]AttrType{
		AttrNameSrcs:         AttrSources,
		AttrNameDeps:         AttrDeps,
		AttrNameExportedDeps: AttrDeps,
	}

	rules := []RuleDescriptor{
		build("genrule", map[string]AttrType{
			AttrNameSrcs: AttrSources,
			"cmd":        AttrString,
			"out":        AttrString,
			AttrNameDeps: AttrDeps,
		}),
		build("export_file", map[string]AttrType{"src": AttrString}),
		build("filegroup", map[string]AttrType{AttrNameSrcs: AttrSources}),
		build("java_library", library),
		build("cxx_library", library),
		build("go_library", library),
		build("go_binary", library),
		build("sh_binary", map[string]AttrType{"main": AttrString, AttrNameDeps: AttrDeps}),
		{Name: "config_setting", Kind: RuleConfigSetting, Attrs: commonAttrs(map[string]AttrType{
			AttrNameConstraintValues: AttrDeps,
		})},
		{Name: "constraint_setting", Kind: RuleConstraintSetting, Attrs: commonAttrs(nil)},
		{Name: "constraint_value", Kind: RuleConstraintValue, Attrs: commonAttrs(map[string]AttrType{
			AttrNameConstraintSetting: AttrTarget,
		})},
		{Name: "platform", Kind: RulePlatform, Attrs: commonAttrs(map[string]AttrType{
			AttrNameConstraintValues: AttrDeps,
		})},
	}

	out := make(map[string]RuleDescriptor, len(rules))
	for _, r := range rules {
		out[r.Name] = r
	}
	return out
}
