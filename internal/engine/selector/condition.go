// Package selector resolves configurable ("select") attribute values against a
// target platform.
package selector

import (
	"slices"

	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/zerr"
)

// Condition is a resolved select key: the constraint values a platform must
// satisfy for the branch to match.
type Condition struct {
	Label       domain.TargetID
	Constraints []domain.TargetID
}

// Matches reports whether the platform satisfies every constraint.
func (c Condition) Matches(p *domain.Platform) bool {
	return p != nil && p.HasAll(c.Constraints)
}

// refines reports whether c is strictly more specific than o.
func (c Condition) refines(o Condition) bool {
	if len(c.Constraints) <= len(o.Constraints) {
		return false
	}
	for _, constraint := range o.Constraints {
		if !slices.Contains(c.Constraints, constraint) {
			return false
		}
	}
	return true
}

// ConditionFromNode builds the condition a configuration rule stands for.
// config_setting requires its constraint_values; constraint_value requires itself.
func ConditionFromNode(node *domain.UnconfiguredNode, kind domain.RuleKind) (Condition, error) {
	switch kind {
	case domain.RuleConstraintValue:
		return Condition{Label: node.ID, Constraints: []domain.TargetID{node.ID}}, nil
	case domain.RuleConfigSetting:
		raw, _ := node.Attr(domain.AttrNameConstraintValues)
		labels, err := StringList(raw)
		if err != nil {
			return Condition{}, zerr.With(err, "attribute", domain.AttrNameConstraintValues)
		}
		constraints := make([]domain.TargetID, 0, len(labels))
		for _, l := range labels {
			id, err := domain.ParseRelativeTarget(l, node.ID.Cell, node.ID.BasePath.String())
			if err != nil {
				return Condition{}, err
			}
			constraints = append(constraints, id)
		}
		slices.SortFunc(constraints, domain.TargetID.Compare)
		return Condition{Label: node.ID, Constraints: slices.Compact(constraints)}, nil
	default:
		return Condition{}, domain.Tagged(domain.ErrNotConfigurationRule,
			"target", node.ID.String(), "rule", node.RuleType)
	}
}

// Keys returns the raw condition labels referenced by a value's selectors,
// excluding DEFAULT, in first-seen order.
func Keys(value any) []string {
	list, ok := value.(*domain.SelectorList)
	if !ok {
		return nil
	}
	var keys []string
	for _, el := range list.Elements {
		sel, ok := el.(*domain.Selector)
		if !ok {
			continue
		}
		for _, b := range sel.Branches {
			if b.Condition == domain.DefaultCondition || slices.Contains(keys, b.Condition) {
				continue
			}
			keys = append(keys, b.Condition)
		}
	}
	return keys
}

// StringList coerces a raw list value into strings.
func StringList(value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, domain.Tagged(domain.ErrAttributeResolution, "element", e)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, domain.Tagged(domain.ErrAttributeResolution, "value", value)
	}
}
