package starlark

import (
	"fmt"
	"slices"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.trai.ch/tgraph/internal/core/domain"
)

// builtins returns the predeclared globals shared by every evaluated file.
func builtins(rules map[string]domain.RuleDescriptor) starlark.StringDict {
	native := starlark.StringDict{
		"glob":         starlark.NewBuiltin("glob", globFn),
		"select":       starlark.NewBuiltin("select", selectFn),
		"package_name": starlark.NewBuiltin("package_name", packageNameFn),
	}
	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		native[name] = starlark.NewBuiltin(name, ruleFn(name))
	}

	globals := make(starlark.StringDict, len(native)+2)
	for k, v := range native {
		globals[k] = v
	}
	globals["package"] = starlark.NewBuiltin("package", packageFn)
	globals["native"] = starlarkstruct.FromStringDict(starlark.String("native"), native)
	globals.Freeze()
	return globals
}

// ruleFn returns the builtin that declares a target of the given rule type.
func ruleFn(rule string) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		ev := evaluationOf(thread)
		if ev == nil || ev.kind == kindPackage {
			return nil, fmt.Errorf("%s: rules can only be declared in build files", b.Name())
		}
		if len(args) > 0 {
			return nil, fmt.Errorf("%s: unexpected positional arguments, rules accept keyword arguments only", b.Name())
		}

		attrs := make(map[string]any, len(kwargs)+1)
		for _, kv := range kwargs {
			key := string(kv[0].(starlark.String))
			v, err := toGo(kv[1])
			if err != nil {
				return nil, fmt.Errorf("%s: attribute %s: %w", b.Name(), key, err)
			}
			attrs[key] = v
		}

		name, ok := attrs["name"].(string)
		if !ok {
			return nil, fmt.Errorf("%s: missing mandatory string attribute 'name'", b.Name())
		}
		if name == "" || strings.ContainsAny(name, ":#/") {
			return nil, fmt.Errorf("%s: invalid target name %q", b.Name(), name)
		}
		if _, dup := ev.targets[name]; dup {
			return nil, fmt.Errorf("%s: target %q is already declared in package //%s", b.Name(), name, ev.pkgDir)
		}

		attrs[domain.RuleTypeAttr] = rule
		ev.targets[name] = domain.RawTarget{Name: name, RuleType: rule, Attrs: attrs}
		ev.order = append(ev.order, name)
		return starlark.None, nil
	}
}

func globFn(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var include, exclude *starlark.List
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "include", &include, "exclude?", &exclude); err != nil {
		return nil, err
	}
	ev := evaluationOf(thread)
	if ev == nil || ev.kind == kindPackage {
		return nil, fmt.Errorf("%s: can only be called from build files", b.Name())
	}

	inc, err := stringList(include)
	if err != nil {
		return nil, fmt.Errorf("%s: include: %w", b.Name(), err)
	}
	exc, err := stringList(exclude)
	if err != nil {
		return nil, fmt.Errorf("%s: exclude: %w", b.Name(), err)
	}

	matches, err := ev.globber.Glob(ev.cell, ev.pkgDir, inc, exc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	out := make([]starlark.Value, len(matches))
	for i, m := range matches {
		out[i] = starlark.String(m)
	}
	return starlark.NewList(out), nil
}

func selectFn(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		branches *starlark.Dict
		noMatch  string
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "conditions", &branches, "no_match_message?", &noMatch); err != nil {
		return nil, err
	}

	sel := &domain.Selector{NoMatchMessage: noMatch}
	for _, item := range branches.Items() {
		key, ok := starlark.AsString(item[0])
		if !ok {
			return nil, fmt.Errorf("%s: condition keys must be strings, got %s", b.Name(), item[0].Type())
		}
		if key == "//conditions:default" {
			key = domain.DefaultCondition
		}
		v, err := toGo(item[1])
		if err != nil {
			return nil, fmt.Errorf("%s: branch %s: %w", b.Name(), key, err)
		}
		sel.Branches = append(sel.Branches, domain.SelectorBranch{Condition: key, Value: v})
	}
	if len(sel.Branches) == 0 {
		return nil, fmt.Errorf("%s: no conditions given", b.Name())
	}
	return &selectValue{list: domain.NewSelectorList(sel)}, nil
}

func packageNameFn(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	ev := evaluationOf(thread)
	if ev == nil {
		return nil, fmt.Errorf("%s: no package in scope", b.Name())
	}
	return starlark.String(ev.pkgDir), nil
}

func packageFn(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var visibility, withinView starlark.Value
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "visibility?", &visibility, "within_view?", &withinView); err != nil {
		return nil, err
	}
	ev := evaluationOf(thread)
	if ev == nil || ev.kind != kindPackage {
		return nil, fmt.Errorf("%s: can only be called from %s files", b.Name(), domain.PackageFileName)
	}
	if ev.pkg.HasVisibility || ev.pkg.HasWithinView {
		return nil, fmt.Errorf("%s: called more than once", b.Name())
	}

	if visibility != nil && visibility != starlark.None {
		list, err := iterableStrings(visibility)
		if err != nil {
			return nil, fmt.Errorf("%s: visibility: %w", b.Name(), err)
		}
		ev.pkg.Visibility, ev.pkg.HasVisibility = list, true
	}
	if withinView != nil && withinView != starlark.None {
		list, err := iterableStrings(withinView)
		if err != nil {
			return nil, fmt.Errorf("%s: within_view: %w", b.Name(), err)
		}
		ev.pkg.WithinView, ev.pkg.HasWithinView = list, true
	}
	return starlark.None, nil
}

func stringList(l *starlark.List) ([]string, error) {
	if l == nil {
		return nil, nil
	}
	return iterableStrings(l)
}

func iterableStrings(v starlark.Value) ([]string, error) {
	iterable, ok := v.(starlark.Iterable)
	if !ok {
		return nil, fmt.Errorf("got %s, want list of strings", v.Type())
	}
	it := iterable.Iterate()
	defer it.Done()

	var (
		out []string
		x   starlark.Value
	)
	for it.Next(&x) {
		s, ok := starlark.AsString(x)
		if !ok {
			return nil, fmt.Errorf("got %s element, want string", x.Type())
		}
		out = append(out, s)
	}
	return out, nil
}
