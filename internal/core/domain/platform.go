package domain

import "slices"

// Platform is a resolved target platform: a name and the constraint values it satisfies.
type Platform struct {
	Name        string
	Constraints []TargetID
}

// Has reports whether the platform satisfies a constraint value.
func (p *Platform) Has(constraint TargetID) bool {
	return slices.Contains(p.Constraints, constraint)
}

// HasAll reports whether the platform satisfies every given constraint value.
func (p *Platform) HasAll(constraints []TargetID) bool {
	for _, c := range constraints {
		if !p.Has(c) {
			return false
		}
	}
	return true
}
