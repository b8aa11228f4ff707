package starlark

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
	"go.trai.ch/tgraph/internal/core/domain"
)

// selectValue is the Starlark face of a configurable attribute value. Adding
// it to a list, dict, string or another select yields a longer concatenation.
type selectValue struct {
	list *domain.SelectorList
}

var _ starlark.HasBinary = (*selectValue)(nil)

func (s *selectValue) String() string {
	return fmt.Sprintf("<select with %d parts>", len(s.list.Elements))
}

func (s *selectValue) Type() string          { return "select" }
func (s *selectValue) Freeze()               {}
func (s *selectValue) Truth() starlark.Bool  { return starlark.True }
func (s *selectValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: select") }

// Binary implements select concatenation with the + operator.
func (s *selectValue) Binary(op syntax.Token, y starlark.Value, side starlark.Side) (starlark.Value, error) {
	if op != syntax.PLUS {
		return nil, nil
	}
	switch y.(type) {
	case *starlark.List, starlark.Tuple, *starlark.Dict, starlark.String, *selectValue:
	default:
		return nil, nil
	}
	other, err := toGo(y)
	if err != nil {
		return nil, err
	}
	if side == starlark.Left {
		return &selectValue{list: domain.NewSelectorList(s.list, other)}, nil
	}
	return &selectValue{list: domain.NewSelectorList(other, s.list)}, nil
}

// toGo converts a Starlark value into a raw attribute value.
func toGo(v starlark.Value) (any, error) {
	switch x := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(x), nil
	case starlark.Int:
		i, ok := x.Int64()
		if !ok {
			return nil, fmt.Errorf("integer %s out of range", x)
		}
		return int(i), nil
	case starlark.String:
		return string(x), nil
	case *starlark.List:
		return sequence(x)
	case starlark.Tuple:
		return sequence(x)
	case *starlark.Dict:
		out := make(map[string]any, x.Len())
		for _, item := range x.Items() {
			key, ok := starlark.AsString(item[0])
			if !ok {
				return nil, fmt.Errorf("dict keys must be strings, got %s", item[0].Type())
			}
			val, err := toGo(item[1])
			if err != nil {
				return nil, err
			}
			out[key] = val
		}
		return out, nil
	case *selectValue:
		return x.list, nil
	default:
		return nil, fmt.Errorf("unsupported value of type %s", v.Type())
	}
}

func sequence(seq starlark.Indexable) ([]any, error) {
	out := make([]any, seq.Len())
	for i := range seq.Len() {
		v, err := toGo(seq.Index(i))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
