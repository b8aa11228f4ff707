// Package cache implements the daemonic parser state: the process-wide cache of
// manifests, package manifests and target nodes that survives across builds.
package cache

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"unique"

	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
)

// cellState is one cell's sub-cache. Its maps are guarded by mu; the
// State's RWMutex only orders inserts against invalidation.
type cellState struct {
	mu sync.Mutex

	manifests map[unique.Handle[string]]*domain.BuildFileManifest
	packages  map[unique.Handle[string]]*domain.PackageManifest
	nodes     map[domain.TargetID]domain.MaybeNode
	// nodesByBuildFile indexes nodes by the build file that declared them.
	nodesByBuildFile map[unique.Handle[string]]map[domain.TargetID]struct{}
	// dependents maps a path to the cache keys whose values were computed from it.
	dependents map[unique.Handle[string]]map[unique.Handle[string]]struct{}
}

func newCellState() *cellState {
	return &cellState{
		manifests:        make(map[unique.Handle[string]]*domain.BuildFileManifest),
		packages:         make(map[unique.Handle[string]]*domain.PackageManifest),
		nodes:            make(map[domain.TargetID]domain.MaybeNode),
		nodesByBuildFile: make(map[unique.Handle[string]]map[domain.TargetID]struct{}),
		dependents:       make(map[unique.Handle[string]]map[unique.Handle[string]]struct{}),
	}
}

func (cs *cellState) empty() bool {
	return len(cs.manifests) == 0 && len(cs.packages) == 0 && len(cs.nodes) == 0
}

// addDependents records that key was computed from each of paths.
func (cs *cellState) addDependents(key unique.Handle[string], paths []string) {
	for _, p := range paths {
		h := unique.Make(p)
		if h == key {
			continue
		}
		set, ok := cs.dependents[h]
		if !ok {
			set = make(map[unique.Handle[string]]struct{})
			cs.dependents[h] = set
		}
		set[key] = struct{}{}
	}
}

// counters holds the monotonically increasing observability counters.
type counters struct {
	filesChanged                atomic.Int64
	rulesInvalidated            atomic.Int64
	buildFilesInvalidated       atomic.Int64
	pathsInvalidatingBuildFiles atomic.Int64
	cacheInvalidatedByOverflow  atomic.Int64
}

// State is the daemonic cache state shared by every build session of a process.
//
// Reads and inserts take the lock in shared mode; any invalidation takes it
// exclusively and advances the validation token before mutating, so inserts
// computed under an older token are discarded.
type State struct {
	lock  sync.RWMutex
	token domain.ValidationToken

	cellsMu sync.Mutex
	cells   map[domain.CellName]*cellState

	treesMu     sync.Mutex
	trees       map[domain.CellName]ports.BuildFileTree
	treeFactory ports.BuildFileTreeFactory

	// configBuildFiles holds build files that declared configuration rules.
	configMu         sync.Mutex
	configBuildFiles map[domain.CellName]map[unique.Handle[string]]struct{}

	cellResolver ports.CellResolver
	ignored      []string
	counters     counters
}

// DefaultIgnoredDirs are cell-relative directories whose changes never invalidate build files.
var DefaultIgnoredDirs = domain.IgnoredDirs

// NewState creates an empty daemonic cache state.
func NewState(cells ports.CellResolver, treeFactory ports.BuildFileTreeFactory) *State {
	return &State{
		cells:            make(map[domain.CellName]*cellState),
		trees:            make(map[domain.CellName]ports.BuildFileTree),
		treeFactory:      treeFactory,
		configBuildFiles: make(map[domain.CellName]map[unique.Handle[string]]struct{}),
		cellResolver:     cells,
		ignored:          DefaultIgnoredDirs,
	}
}

// withReadAccess runs fn holding the cache lock in shared mode.
func (s *State) withReadAccess(fn func()) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	fn()
}

// withWriteAccess runs fn holding the cache lock exclusively, after advancing the token.
func (s *State) withWriteAccess(fn func()) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.token++
	fn()
}

// Token returns the current validation token. Callers capture it before
// computing a value and pass it back on insert.
func (s *State) Token() domain.ValidationToken {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.token
}

// cellState returns the sub-cache for a cell, creating it on first use.
func (s *State) cellState(name domain.CellName) *cellState {
	s.cellsMu.Lock()
	defer s.cellsMu.Unlock()
	cs, ok := s.cells[name]
	if !ok {
		cs = newCellState()
		s.cells[name] = cs
	}
	return cs
}

// existingCellState returns the sub-cache for a cell without creating it.
func (s *State) existingCellState(name domain.CellName) (*cellState, bool) {
	s.cellsMu.Lock()
	defer s.cellsMu.Unlock()
	cs, ok := s.cells[name]
	return cs, ok
}

// LookupManifest returns the cached manifest for a build file.
// A stale token always misses.
func (s *State) LookupManifest(cell domain.Cell, buildFile string, token domain.ValidationToken) (*domain.BuildFileManifest, bool) {
	var (
		m  *domain.BuildFileManifest
		ok bool
	)
	s.withReadAccess(func() {
		if token != s.token {
			return
		}
		cs, exists := s.existingCellState(cell.Name)
		if !exists {
			return
		}
		cs.mu.Lock()
		defer cs.mu.Unlock()
		m, ok = cs.manifests[unique.Make(buildFile)]
	})
	return m, ok
}

// InsertManifestIfAbsent caches a manifest unless one is already present, and
// returns the winning value. The manifest's includes, the cell's default
// includes and (when enabled) the sibling PACKAGE file are recorded as
// dependents. With a stale token the value is returned without being cached.
func (s *State) InsertManifestIfAbsent(
	cell domain.Cell,
	buildFile string,
	m *domain.BuildFileManifest,
	token domain.ValidationToken,
) *domain.BuildFileManifest {
	result := m
	s.withReadAccess(func() {
		if token != s.token {
			return
		}
		cs := s.cellState(cell.Name)
		cs.mu.Lock()
		defer cs.mu.Unlock()

		key := unique.Make(buildFile)
		if existing, ok := cs.manifests[key]; ok {
			result = existing
			return
		}
		cs.manifests[key] = m
		cs.addDependents(key, m.Includes)
		cs.addDependents(key, cell.DefaultIncludes)
		if cell.PackageFiles {
			cs.addDependents(key, []string{domain.PackageFileFor(buildFile)})
		}
	})
	return result
}

// LookupPackage returns the cached manifest of a PACKAGE file.
func (s *State) LookupPackage(cell domain.Cell, packageFile string, token domain.ValidationToken) (*domain.PackageManifest, bool) {
	var (
		m  *domain.PackageManifest
		ok bool
	)
	s.withReadAccess(func() {
		if token != s.token {
			return
		}
		cs, exists := s.existingCellState(cell.Name)
		if !exists {
			return
		}
		cs.mu.Lock()
		defer cs.mu.Unlock()
		m, ok = cs.packages[unique.Make(packageFile)]
	})
	return m, ok
}

// InsertPackageIfAbsent caches a package manifest, recording its includes and
// the parent PACKAGE file as dependents.
func (s *State) InsertPackageIfAbsent(
	cell domain.Cell,
	packageFile string,
	m *domain.PackageManifest,
	token domain.ValidationToken,
) *domain.PackageManifest {
	result := m
	s.withReadAccess(func() {
		if token != s.token {
			return
		}
		cs := s.cellState(cell.Name)
		cs.mu.Lock()
		defer cs.mu.Unlock()

		key := unique.Make(packageFile)
		if existing, ok := cs.packages[key]; ok {
			result = existing
			return
		}
		cs.packages[key] = m
		cs.addDependents(key, m.Includes)
		if parent := domain.ParentPackageFile(packageFile); parent != "" {
			cs.addDependents(key, []string{parent})
		}
	})
	return result
}

// LookupNode returns the cached node or incompatibility marker for a target.
func (s *State) LookupNode(cell domain.Cell, target domain.TargetID, token domain.ValidationToken) (domain.MaybeNode, bool) {
	var (
		n  domain.MaybeNode
		ok bool
	)
	s.withReadAccess(func() {
		if token != s.token {
			return
		}
		cs, exists := s.existingCellState(cell.Name)
		if !exists {
			return
		}
		cs.mu.Lock()
		defer cs.mu.Unlock()
		n, ok = cs.nodes[target]
	})
	return n, ok
}

// InsertNodeIfAbsent caches a configured node for the build file that declared it.
// Extra dependent paths invalidate the node along with the build file.
func (s *State) InsertNodeIfAbsent(
	cell domain.Cell,
	buildFile string,
	node domain.MaybeNode,
	dependents []string,
	token domain.ValidationToken,
) domain.MaybeNode {
	result := node
	s.withReadAccess(func() {
		if token != s.token {
			return
		}
		cs := s.cellState(cell.Name)
		cs.mu.Lock()
		defer cs.mu.Unlock()

		target := node.Target()
		if existing, ok := cs.nodes[target]; ok {
			result = existing
			return
		}
		cs.nodes[target] = node

		key := unique.Make(buildFile)
		set, ok := cs.nodesByBuildFile[key]
		if !ok {
			set = make(map[domain.TargetID]struct{})
			cs.nodesByBuildFile[key] = set
		}
		set[target] = struct{}{}
		cs.addDependents(key, dependents)
	})
	return result
}

// MarkConfigurationBuildFile records that a build file declares configuration
// rules. Any change reaching it invalidates the whole cache.
func (s *State) MarkConfigurationBuildFile(cell domain.CellName, buildFile string) {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	set, ok := s.configBuildFiles[cell]
	if !ok {
		set = make(map[unique.Handle[string]]struct{})
		s.configBuildFiles[cell] = set
	}
	set[unique.Make(buildFile)] = struct{}{}
}

// IsConfigurationBuildFile reports whether a build file was marked as declaring configuration rules.
func (s *State) IsConfigurationBuildFile(cell domain.CellName, buildFile string) bool {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	_, ok := s.configBuildFiles[cell][unique.Make(buildFile)]
	return ok
}

// BuildFileTree returns the cell's build file tree, building it on first use
// after an invalidation. Trees are replaced wholesale, never patched.
func (s *State) BuildFileTree(cell domain.Cell) (ports.BuildFileTree, error) {
	s.treesMu.Lock()
	defer s.treesMu.Unlock()
	if tree, ok := s.trees[cell.Name]; ok {
		return tree, nil
	}
	tree, err := s.treeFactory.NewTree(cell)
	if err != nil {
		return nil, err
	}
	s.trees[cell.Name] = tree
	return tree, nil
}

// cachedBuildFileTree returns the cell's tree without building one.
func (s *State) cachedBuildFileTree(cell domain.CellName) (ports.BuildFileTree, bool) {
	s.treesMu.Lock()
	defer s.treesMu.Unlock()
	tree, ok := s.trees[cell]
	return tree, ok
}

func (s *State) invalidateBuildFileTree(cell domain.CellName) {
	s.treesMu.Lock()
	defer s.treesMu.Unlock()
	delete(s.trees, cell)
}

// Counters returns a snapshot of the invalidation counters.
func (s *State) Counters() domain.Counters {
	return domain.Counters{
		FilesChanged:                              s.counters.filesChanged.Load(),
		RulesInvalidatedByWatchEvents:             s.counters.rulesInvalidated.Load(),
		BuildFilesInvalidatedByAddOrRemove:        s.counters.buildFilesInvalidated.Load(),
		PathsAddedOrRemovedInvalidatingBuildFiles: s.counters.pathsInvalidatingBuildFiles.Load(),
		CacheInvalidatedByOverflow:                s.counters.cacheInvalidatedByOverflow.Load(),
	}
}

// Stats returns the number of cached entries per cell.
func (s *State) Stats() []domain.CacheStats {
	var out []domain.CacheStats
	s.withReadAccess(func() {
		s.cellsMu.Lock()
		defer s.cellsMu.Unlock()
		for name, cs := range s.cells {
			cs.mu.Lock()
			out = append(out, domain.CacheStats{
				Cell:      name,
				Manifests: len(cs.manifests),
				Packages:  len(cs.packages),
				Nodes:     len(cs.nodes),
			})
			cs.mu.Unlock()
		}
	})
	slices.SortFunc(out, func(a, b domain.CacheStats) int {
		return strings.Compare(string(a.Cell), string(b.Cell))
	})
	return out
}
