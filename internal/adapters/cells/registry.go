// Package cells provides the cell registry: the process-wide mapping from cell
// names to cells.
package cells

import (
	"slices"
	"sync"

	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	_ ports.CellResolver = (*Registry)(nil)
	_ ports.NodeListener = (*Registry)(nil)
)

// Registry resolves cells of one workspace. Cells are fixed for the life of the
// process; symlink tracking is set up the first time a cell is resolved.
type Registry struct {
	cells    []domain.Cell
	symlinks ports.SymlinkTracker

	mu         sync.Mutex
	registered map[domain.CellName]bool
	touched    map[domain.CellName]bool
}

// NewRegistry creates a registry over the workspace cells.
func NewRegistry(ws *domain.Workspace, symlinks ports.SymlinkTracker) *Registry {
	return &Registry{
		cells:      slices.Clone(ws.Cells),
		symlinks:   symlinks,
		registered: make(map[domain.CellName]bool),
		touched:    make(map[domain.CellName]bool),
	}
}

// Resolve returns the named cell.
func (r *Registry) Resolve(name domain.CellName) (domain.Cell, error) {
	idx := slices.IndexFunc(r.cells, func(c domain.Cell) bool { return c.Name == name })
	if idx < 0 {
		return domain.Cell{}, domain.Tagged(domain.ErrUnknownCell, "cell", name.String())
	}
	cell := r.cells[idx]

	r.mu.Lock()
	defer r.mu.Unlock()
	r.touched[name] = true
	if r.registered[name] {
		return cell, nil
	}
	if err := r.symlinks.RegisterCell(cell); err != nil {
		return domain.Cell{}, zerr.With(err, "cell", name.String())
	}
	r.registered[name] = true
	return cell, nil
}

// All returns every configured cell.
func (r *Registry) All() []domain.Cell {
	return slices.Clone(r.cells)
}

// Touched returns the cells resolved since the last ResetTouched, sorted.
func (r *Registry) Touched() []domain.CellName {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.CellName, 0, len(r.touched))
	for name := range r.touched {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// ResetTouched forgets which cells were resolved.
func (r *Registry) ResetTouched() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.touched)
}

// OnCreate registers the node's inputs that live behind symlinks.
func (r *Registry) OnCreate(buildFile string, node *domain.TargetNode) error {
	return r.RegisterInputsUnderSymlinks(buildFile, node)
}

// RegisterInputsUnderSymlinks forwards the node's inputs to the symlink tracker.
func (r *Registry) RegisterInputsUnderSymlinks(buildFile string, node *domain.TargetNode) error {
	cell, err := r.Resolve(node.ID.Cell)
	if err != nil {
		return err
	}
	return r.symlinks.RegisterInputs(cell, buildFile, node)
}
