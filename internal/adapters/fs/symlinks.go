package fs

import (
	"errors"
	"io/fs"
	"maps"
	"path/filepath"
	"slices"
	"sync"

	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.SymlinkTracker = (*SymlinkTracker)(nil)

// SymlinkTracker records node inputs that resolve through symlinks, so that
// their real locations can be watched too.
type SymlinkTracker struct {
	mu    sync.Mutex
	roots map[domain.CellName]string
	links map[string]string
	watch func(dir string) error
}

// NewSymlinkTracker creates an empty tracker.
func NewSymlinkTracker() *SymlinkTracker {
	return &SymlinkTracker{
		roots: make(map[domain.CellName]string),
		links: make(map[string]string),
	}
}

// SetWatchFunc installs a callback invoked with the directory of every newly
// discovered symlink target.
func (t *SymlinkTracker) SetWatchFunc(fn func(dir string) error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.watch = fn
}

// RegisterCell resolves the cell root once. Registering a cell again is a no-op.
func (t *SymlinkTracker) RegisterCell(cell domain.Cell) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.roots[cell.Name]; ok {
		return nil
	}
	root, err := filepath.EvalSymlinks(cell.Root)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return zerr.With(zerr.Wrap(err, "failed to resolve cell root"), "cell", cell.Name.String())
		}
		root = cell.Root
	}
	t.roots[cell.Name] = root
	return nil
}

// RegisterInputs records every input of node whose real path differs from its
// path inside the cell. Missing inputs are ignored.
func (t *SymlinkTracker) RegisterInputs(cell domain.Cell, _ string, node *domain.TargetNode) error {
	if err := t.RegisterCell(cell); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	root := t.roots[cell.Name]
	for _, in := range node.Inputs {
		resolved, err := filepath.EvalSymlinks(cell.AbsPath(in))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return zerr.With(zerr.Wrap(err, "failed to resolve input"), "input", in)
		}
		if resolved == filepath.Join(root, filepath.FromSlash(in)) {
			continue
		}
		abs := cell.AbsPath(in)
		if _, seen := t.links[abs]; seen {
			continue
		}
		t.links[abs] = resolved
		if t.watch != nil {
			if err := t.watch(filepath.Dir(resolved)); err != nil {
				return zerr.With(err, "input", in)
			}
		}
	}
	return nil
}

// Links returns a copy of the recorded input path to real path mapping.
func (t *SymlinkTracker) Links() map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return maps.Clone(t.links)
}

// LinkPaths returns the in-cell paths whose real location is real.
func (t *SymlinkTracker) LinkPaths(real string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []string
	for link, target := range t.links {
		if target == real {
			out = append(out, link)
		}
	}
	slices.Sort(out)
	return out
}
