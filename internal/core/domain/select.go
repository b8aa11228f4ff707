package domain

// DefaultCondition is the select key that matches when nothing else does.
const DefaultCondition = "DEFAULT"

// SelectorBranch is one condition/value pair of a select expression.
type SelectorBranch struct {
	// Condition is a configuration rule label or DefaultCondition.
	Condition string
	Value     any
}

// Selector is a single select({...}) expression.
type Selector struct {
	Branches       []SelectorBranch
	NoMatchMessage string
}

// SelectorList is a configurable attribute value: a concatenation of plain
// values and selectors, e.g. ["a"] + select({...}) + ["b"].
type SelectorList struct {
	Elements []any
}

// NewSelectorList wraps elements into a SelectorList, flattening nested lists.
func NewSelectorList(elements ...any) *SelectorList {
	out := make([]any, 0, len(elements))
	for _, e := range elements {
		if nested, ok := e.(*SelectorList); ok {
			out = append(out, nested.Elements...)
			continue
		}
		out = append(out, e)
	}
	return &SelectorList{Elements: out}
}
