package selector

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/zerr"
)

// Resolver evaluates select expressions for one target against its platform.
// Conditions are resolved once per target and shared by all its attributes.
type Resolver struct {
	Target     domain.TargetID
	Platform   *domain.Platform
	Conditions map[string]Condition
}

// Resolve returns the concrete value of an attribute. Values that are not
// select expressions are returned unchanged.
func (r *Resolver) Resolve(attr string, typ domain.AttrType, value any) (any, error) {
	list, ok := value.(*domain.SelectorList)
	if !ok {
		return value, nil
	}

	parts := make([]any, 0, len(list.Elements))
	for _, el := range list.Elements {
		sel, ok := el.(*domain.Selector)
		if !ok {
			parts = append(parts, el)
			continue
		}
		v, err := r.choose(sel)
		if err != nil {
			return nil, r.wrap(err, attr)
		}
		parts = append(parts, v)
	}

	v, err := Concat(typ, parts)
	if err != nil {
		return nil, r.wrap(err, attr)
	}
	return v, nil
}

func (r *Resolver) wrap(err error, attr string) error {
	err = zerr.Wrap(err, fmt.Sprintf("when resolving attribute %s of %s", attr, r.Target))
	return zerr.With(err, "target", r.Target.String())
}

// choose picks the branch of one selector matching the platform. Among several
// matches the strictly most specific wins; otherwise the match is ambiguous.
func (r *Resolver) choose(sel *domain.Selector) (any, error) {
	var (
		matched    []Condition
		values     = make(map[domain.TargetID]any)
		defaultVal any
		hasDefault bool
	)
	for _, b := range sel.Branches {
		if b.Condition == domain.DefaultCondition {
			defaultVal, hasDefault = b.Value, true
			continue
		}
		cond, ok := r.Conditions[b.Condition]
		if !ok {
			return nil, domain.Tagged(domain.ErrNotConfigurationRule, "condition", b.Condition)
		}
		if cond.Matches(r.Platform) {
			matched = append(matched, cond)
			values[cond.Label] = b.Value
		}
	}

	switch len(matched) {
	case 0:
		if hasDefault {
			return defaultVal, nil
		}
		err := domain.Tagged(domain.ErrNoMatchingCondition, "platform", r.platformName())
		if sel.NoMatchMessage != "" {
			err = zerr.Wrap(err, sel.NoMatchMessage)
		}
		return nil, err
	case 1:
		return values[matched[0].Label], nil
	}

	var best []Condition
	for _, c := range matched {
		dominated := slices.ContainsFunc(matched, func(o Condition) bool { return o.refines(c) })
		if !dominated {
			best = append(best, c)
		}
	}
	if len(best) != 1 {
		labels := make([]string, 0, len(best))
		for _, c := range best {
			labels = append(labels, c.Label.String())
		}
		slices.Sort(labels)
		return nil, domain.Tagged(domain.ErrAmbiguousCondition,
			"platform", r.platformName(), "conditions", strings.Join(labels, ", "))
	}
	return values[best[0].Label], nil
}

func (r *Resolver) platformName() string {
	if r.Platform == nil {
		return ""
	}
	return r.Platform.Name
}

// Concat joins the values chosen for each element of a select expression.
// Lists append, strings join and dicts merge; every other type, and every
// scalar-typed attribute, requires exactly one element.
func Concat(typ domain.AttrType, parts []any) (any, error) {
	if len(parts) == 1 {
		return parts[0], nil
	}
	if len(parts) == 0 {
		return nil, nil
	}
	if !typ.Concatenable() {
		return nil, domain.Tagged(domain.ErrSelectConcatenation, "type", typ.String(), "elements", len(parts))
	}

	switch first := parts[0].(type) {
	case []any:
		out := slices.Clone(first)
		for _, p := range parts[1:] {
			l, ok := p.([]any)
			if !ok {
				return nil, mismatch(typ, first, p)
			}
			out = append(out, l...)
		}
		return out, nil
	case string:
		var b strings.Builder
		b.WriteString(first)
		for _, p := range parts[1:] {
			s, ok := p.(string)
			if !ok {
				return nil, mismatch(typ, first, p)
			}
			b.WriteString(s)
		}
		return b.String(), nil
	case map[string]any:
		out := maps.Clone(first)
		for _, p := range parts[1:] {
			d, ok := p.(map[string]any)
			if !ok {
				return nil, mismatch(typ, first, p)
			}
			for k, v := range d {
				if _, dup := out[k]; dup {
					return nil, domain.Tagged(domain.ErrSelectConcatenation, "duplicate_key", k)
				}
				out[k] = v
			}
		}
		return out, nil
	default:
		return nil, domain.Tagged(domain.ErrSelectConcatenation, "type", fmt.Sprintf("%T", first))
	}
}

func mismatch(typ domain.AttrType, first, other any) error {
	return domain.Tagged(domain.ErrSelectConcatenation,
		"type", typ.String(), "left", fmt.Sprintf("%T", first), "right", fmt.Sprintf("%T", other))
}
