package cache

import (
	"os"
	"path"
	"slices"
	"strings"
	"unique"

	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
)

// InvalidateBasedOn applies a batch of filesystem events to the cache.
//
// Overflow clears everything. Creating or deleting a path invalidates the build
// files owning it (every ancestor package unless boundaries are enforced).
// Creating or deleting a build file, or a directory that carries packages,
// also drops the cell's build file tree.
// Every path event then invalidates the path itself and whatever was computed
// from it, or the whole cache when configuration build files are affected.
func (s *State) InvalidateBasedOn(events []ports.WatchEvent) {
	if len(events) == 0 {
		return
	}
	s.withWriteAccess(func() {
		for _, ev := range events {
			if ev.Operation == ports.OpOverflow {
				if s.invalidateAllLocked() {
					s.counters.cacheInvalidatedByOverflow.Add(1)
				}
				return
			}
		}

		for _, ev := range events {
			s.counters.filesChanged.Add(1)
			for _, cell := range s.cellResolver.All() {
				rel, ok := cell.RelPath(ev.Path)
				if !ok {
					continue
				}
				if s.applyPathEvent(cell, rel, ev) {
					return
				}
			}
		}
	})
}

// applyPathEvent handles one event inside one cell. It reports whether the
// whole cache was invalidated, in which case the rest of the batch is moot.
func (s *State) applyPathEvent(cell domain.Cell, rel string, ev ports.WatchEvent) bool {
	if ev.IsCreateOrDelete() {
		isBuildFile := path.Base(rel) == cell.BuildFileName
		ignored := s.isIgnored(rel)
		switch {
		case isBuildFile:
			s.invalidateBuildFileTree(cell.Name)
		case !ignored && s.isDirectoryChange(cell, rel, ev):
			// A directory moved in or out may carry whole packages with it.
			s.invalidatePackagesUnder(cell, rel)
		}
		if !ignored {
			s.invalidateContainingBuildFile(cell, rel)
			if isBuildFile && rel != cell.BuildFileName {
				// The package that owned this directory before the build file
				// appeared (or owns it after it vanished) saw its contents change too.
				s.invalidateContainingBuildFile(cell, domain.DirOf(rel))
			}
		}
	}

	if s.affectsConfiguration(cell, rel) {
		s.invalidateAllLocked()
		return true
	}
	s.invalidatePathLocked(cell.Name, rel, true)
	return false
}

// isDirectoryChange reports whether ev created a directory or deleted one the
// cached build file tree knows packages under.
func (s *State) isDirectoryChange(cell domain.Cell, rel string, ev ports.WatchEvent) bool {
	if ev.Operation == ports.OpCreate {
		info, err := os.Stat(ev.Path)
		return err == nil && info.IsDir()
	}
	tree, ok := s.cachedBuildFileTree(cell.Name)
	return ok && len(tree.BuildFilesUnder(rel)) > 0
}

// invalidatePackagesUnder drops the cell's build file tree and every build
// file below dir, as known before and after the change.
func (s *State) invalidatePackagesUnder(cell domain.Cell, dir string) {
	var buildFiles []string
	if tree, ok := s.cachedBuildFileTree(cell.Name); ok {
		buildFiles = tree.BuildFilesUnder(dir)
	}
	s.invalidateBuildFileTree(cell.Name)
	if tree, err := s.BuildFileTree(cell); err == nil {
		buildFiles = append(buildFiles, tree.BuildFilesUnder(dir)...)
	}
	slices.Sort(buildFiles)
	for _, bf := range slices.Compact(buildFiles) {
		s.counters.buildFilesInvalidated.Add(1)
		s.invalidatePathLocked(cell.Name, bf, true)
	}
}

func (s *State) isIgnored(rel string) bool {
	for _, dir := range s.ignored {
		if rel == dir || strings.HasPrefix(rel, dir+"/") {
			return true
		}
	}
	return false
}

// invalidateContainingBuildFile invalidates the build file owning rel. When
// package boundaries are not enforced, several ancestor packages may legitimately
// reference the file, so every ancestor build file is invalidated as well.
func (s *State) invalidateContainingBuildFile(cell domain.Cell, rel string) {
	tree, err := s.BuildFileTree(cell)
	if err != nil {
		// Without a tree we cannot route precisely; drop the whole cell.
		s.invalidateCellLocked(cell.Name)
		return
	}

	var buildFiles []string
	if cell.Enforcement == domain.EnforceBoundaries {
		if owner, ok := tree.OwningBuildFile(rel); ok {
			buildFiles = append(buildFiles, owner)
		}
	} else {
		buildFiles = tree.AncestorBuildFiles(rel)
	}
	if len(buildFiles) == 0 {
		return
	}

	s.counters.pathsInvalidatingBuildFiles.Add(1)
	for _, bf := range buildFiles {
		s.counters.buildFilesInvalidated.Add(1)
		s.invalidatePathLocked(cell.Name, bf, true)
	}
}

// affectsConfiguration reports whether rel is a configuration build file or
// any configuration build file was computed from it.
func (s *State) affectsConfiguration(cell domain.Cell, rel string) bool {
	s.configMu.Lock()
	configFiles := s.configBuildFiles[cell.Name]
	s.configMu.Unlock()
	if len(configFiles) == 0 {
		return false
	}

	cs, ok := s.existingCellState(cell.Name)
	if !ok {
		return false
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	seen := make(map[unique.Handle[string]]struct{})
	queue := []unique.Handle[string]{unique.Make(rel)}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if _, ok := seen[cur]; ok {
			continue
		}
		seen[cur] = struct{}{}
		if _, ok := configFiles[cur]; ok {
			return true
		}
		for dep := range cs.dependents[cur] {
			queue = append(queue, dep)
		}
	}
	return false
}

// InvalidatePaths invalidates cell-relative paths and everything computed from them.
func (s *State) InvalidatePaths(cell domain.CellName, paths []string) {
	s.withWriteAccess(func() {
		for _, p := range paths {
			s.invalidatePathLocked(cell, p, false)
		}
	})
}

// invalidatePathLocked removes the entries keyed by rel and, transitively, every
// entry recorded as depending on it. Must hold the write lock.
func (s *State) invalidatePathLocked(cell domain.CellName, rel string, fromWatch bool) {
	cs, ok := s.existingCellState(cell)
	if !ok {
		return
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	removedNodes := 0
	seen := make(map[unique.Handle[string]]struct{})
	queue := []unique.Handle[string]{unique.Make(rel)}
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		delete(cs.manifests, key)
		delete(cs.packages, key)
		for target := range cs.nodesByBuildFile[key] {
			delete(cs.nodes, target)
			removedNodes++
		}
		delete(cs.nodesByBuildFile, key)

		for dep := range cs.dependents[key] {
			queue = append(queue, dep)
		}
		delete(cs.dependents, key)
	}

	if fromWatch && removedNodes > 0 {
		s.counters.rulesInvalidated.Add(int64(removedNodes))
	}
}

func (s *State) invalidateCellLocked(cell domain.CellName) {
	s.cellsMu.Lock()
	delete(s.cells, cell)
	s.cellsMu.Unlock()

	s.configMu.Lock()
	delete(s.configBuildFiles, cell)
	s.configMu.Unlock()
}

// InvalidateAll drops every cached entry, every build file tree and every
// configuration build file. It reports whether anything was cached.
func (s *State) InvalidateAll() bool {
	var cleared bool
	s.withWriteAccess(func() {
		cleared = s.invalidateAllLocked()
	})
	return cleared
}

func (s *State) invalidateAllLocked() bool {
	s.cellsMu.Lock()
	cleared := false
	for _, cs := range s.cells {
		cs.mu.Lock()
		if !cs.empty() {
			cleared = true
		}
		cs.mu.Unlock()
	}
	s.cells = make(map[domain.CellName]*cellState)
	s.cellsMu.Unlock()

	s.treesMu.Lock()
	s.trees = make(map[domain.CellName]ports.BuildFileTree)
	s.treesMu.Unlock()

	s.configMu.Lock()
	s.configBuildFiles = make(map[domain.CellName]map[unique.Handle[string]]struct{})
	s.configMu.Unlock()

	return cleared
}
