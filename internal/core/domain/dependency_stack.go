package domain

import "strings"

// DependencyStack is an immutable chain of targets from a root to the target
// currently being resolved. The zero value is the empty stack.
type DependencyStack struct {
	parent *DependencyStack
	target TargetID
	depth  int
}

// Push returns a new stack with target on top.
func (s *DependencyStack) Push(target TargetID) *DependencyStack {
	depth := 1
	if s != nil {
		depth = s.depth + 1
	}
	return &DependencyStack{parent: s, target: target, depth: depth}
}

// Top returns the most recently pushed target.
func (s *DependencyStack) Top() (TargetID, bool) {
	if s == nil || s.depth == 0 {
		return TargetID{}, false
	}
	return s.target, true
}

// Len returns the number of targets on the stack.
func (s *DependencyStack) Len() int {
	if s == nil {
		return 0
	}
	return s.depth
}

// Targets returns the stack from root to top.
func (s *DependencyStack) Targets() []TargetID {
	out := make([]TargetID, s.Len())
	for cur := s; cur != nil && cur.depth > 0; cur = cur.parent {
		out[cur.depth-1] = cur.target
	}
	return out
}

// String renders the chain as "root -> ... -> top".
func (s *DependencyStack) String() string {
	targets := s.Targets()
	parts := make([]string, len(targets))
	for i, t := range targets {
		parts[i] = t.String()
	}
	return strings.Join(parts, " -> ")
}
