package domain

import (
	"path"
	"path/filepath"
	"strings"
)

// CellName is the canonical name of a cell.
type CellName string

// String returns the cell name.
func (c CellName) String() string {
	return string(c)
}

// BoundaryEnforcement controls how package and cell boundary violations are treated.
type BoundaryEnforcement uint8

const (
	// EnforceBoundaries turns boundary violations into errors.
	EnforceBoundaries BoundaryEnforcement = iota
	// WarnBoundaries logs boundary violations and tolerates the input.
	WarnBoundaries
	// DisableBoundaries skips boundary checks entirely.
	DisableBoundaries
)

// ParseBoundaryEnforcement converts a config value into a BoundaryEnforcement.
// An empty string selects EnforceBoundaries.
func ParseBoundaryEnforcement(s string) (BoundaryEnforcement, error) {
	switch strings.ToLower(s) {
	case "", "enforce":
		return EnforceBoundaries, nil
	case "warn":
		return WarnBoundaries, nil
	case "disabled":
		return DisableBoundaries, nil
	default:
		return EnforceBoundaries, Tagged(ErrInvalidEnforcement, "value", s)
	}
}

// String returns the config spelling of the enforcement mode.
func (e BoundaryEnforcement) String() string {
	switch e {
	case WarnBoundaries:
		return "warn"
	case DisableBoundaries:
		return "disabled"
	default:
		return "enforce"
	}
}

// Cell is a named root of a source tree with its own parser settings.
type Cell struct {
	Name            CellName
	Root            string
	BuildFileName   string
	Enforcement     BoundaryEnforcement
	DefaultIncludes []string
	PackageFiles    bool
}

// AbsPath returns the absolute filesystem path of a cell-relative path.
func (c Cell) AbsPath(rel string) string {
	return filepath.Join(c.Root, filepath.FromSlash(rel))
}

// RelPath returns the cell-relative, slash-separated form of an absolute path.
// The second result is false when the path is outside the cell.
func (c Cell) RelPath(abs string) (string, bool) {
	rel, err := filepath.Rel(c.Root, abs)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	if rel == "." {
		return "", true
	}
	return rel, true
}

// BuildFilePath returns the cell-relative build file path for a base path.
func (c Cell) BuildFilePath(basePath string) string {
	return path.Join(basePath, c.BuildFileName)
}
