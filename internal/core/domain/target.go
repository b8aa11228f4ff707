package domain

import (
	"path"
	"slices"
	"strings"
)

// TargetID uniquely identifies a target: cell, base path, short name and optional flavors.
// It is comparable and can be used as a map key.
type TargetID struct {
	Cell     CellName
	BasePath InternedString
	Name     InternedString
	// Flavors holds the sorted, comma-joined flavor set.
	Flavors InternedString
}

// NewTargetID creates a TargetID with the given flavors.
func NewTargetID(cell CellName, basePath, name string, flavors ...string) TargetID {
	id := TargetID{
		Cell:     cell,
		BasePath: NewInternedString(basePath),
		Name:     NewInternedString(name),
	}
	if len(flavors) > 0 {
		sorted := slices.Clone(flavors)
		slices.Sort(sorted)
		sorted = slices.Compact(sorted)
		id.Flavors = NewInternedString(strings.Join(sorted, ","))
	}
	return id
}

// ParseTarget parses a fully qualified or cell-relative target label.
// Accepted forms are "cell//path:name", "//path:name", "//path" (name defaults to
// the last path element) and any of those followed by "#flavor,...".
func ParseTarget(s string, defaultCell CellName) (TargetID, error) {
	return parseTarget(s, defaultCell, "", false)
}

// ParseRelativeTarget parses a label that may also be of the form ":name",
// interpreted relative to the given cell and base path.
func ParseRelativeTarget(s string, cell CellName, basePath string) (TargetID, error) {
	return parseTarget(s, cell, basePath, true)
}

func parseTarget(s string, cell CellName, basePath string, allowRelative bool) (TargetID, error) {
	invalid := func() error {
		return Tagged(ErrInvalidTarget, "target", s)
	}

	label, flavorPart, hasFlavors := strings.Cut(s, "#")
	var flavors []string
	if hasFlavors {
		if flavorPart == "" {
			return TargetID{}, invalid()
		}
		flavors = strings.Split(flavorPart, ",")
	}

	if allowRelative && strings.HasPrefix(label, ":") {
		name := label[1:]
		if !validName(name) {
			return TargetID{}, invalid()
		}
		return NewTargetID(cell, basePath, name, flavors...), nil
	}

	cellPart, rest, ok := strings.Cut(label, "//")
	if !ok {
		return TargetID{}, invalid()
	}
	if cellPart != "" {
		cell = CellName(cellPart)
	}

	base, name, hasName := strings.Cut(rest, ":")
	if !hasName {
		name = path.Base(base)
	}
	if strings.HasSuffix(base, "/") || strings.HasPrefix(base, "/") || strings.Contains(base, "..") {
		return TargetID{}, invalid()
	}
	if !validName(name) || name == "." {
		return TargetID{}, invalid()
	}

	return NewTargetID(cell, base, name, flavors...), nil
}

func validName(name string) bool {
	return name != "" && !strings.ContainsAny(name, ":/#,")
}

// FlavorList returns the target's flavors in sorted order.
func (t TargetID) FlavorList() []string {
	f := t.Flavors.String()
	if f == "" {
		return nil
	}
	return strings.Split(f, ",")
}

// IsFlavored reports whether the target carries flavors.
func (t TargetID) IsFlavored() bool {
	return t.Flavors.String() != ""
}

// Unflavored returns the target without flavors.
func (t TargetID) Unflavored() TargetID {
	t.Flavors = InternedString{}
	return t
}

// String returns the fully qualified label.
func (t TargetID) String() string {
	var sb strings.Builder
	sb.WriteString(string(t.Cell))
	sb.WriteString("//")
	sb.WriteString(t.BasePath.String())
	sb.WriteByte(':')
	sb.WriteString(t.Name.String())
	if t.IsFlavored() {
		sb.WriteByte('#')
		sb.WriteString(t.Flavors.String())
	}
	return sb.String()
}

// Compare orders targets by their label.
func (t TargetID) Compare(o TargetID) int {
	return strings.Compare(t.String(), o.String())
}

// MarshalText implements encoding.TextMarshaler.
func (t TargetID) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TargetID) UnmarshalText(text []byte) error {
	id, err := ParseTarget(string(text), "")
	if err != nil {
		return err
	}
	*t = id
	return nil
}
