package ports

import "go.trai.ch/tgraph/internal/core/domain"

//go:generate mockgen -source=cells.go -destination=mocks/mock_cells.go -package=mocks

// CellResolver resolves cell names to cells.
type CellResolver interface {
	// Resolve returns the named cell, registering it on first sight.
	Resolve(name domain.CellName) (domain.Cell, error)
	// All returns every configured cell.
	All() []domain.Cell
}

// NodeListener is notified whenever the pipelines create a target node.
type NodeListener interface {
	OnCreate(buildFile string, node *domain.TargetNode) error
}

// SymlinkTracker watches inputs reached through symlinks.
type SymlinkTracker interface {
	// RegisterCell starts tracking symlinks under a cell.
	RegisterCell(cell domain.Cell) error
	// RegisterInputs records the node's inputs that resolve through symlinks.
	RegisterInputs(cell domain.Cell, buildFile string, node *domain.TargetNode) error
}

// BuildFileTree maps arbitrary cell-relative paths to the build files owning them.
type BuildFileTree interface {
	// OwningBuildFile returns the build file of the nearest directory at or above
	// path's directory that contains one.
	OwningBuildFile(path string) (string, bool)
	// AncestorBuildFiles returns every build file from the owning one up to the
	// cell root, nearest first.
	AncestorBuildFiles(path string) []string
	// BuildFilesUnder returns the build files of dir and every package below it, sorted.
	BuildFilesUnder(dir string) []string
}

// BuildFileTreeFactory builds a fresh BuildFileTree for a cell.
type BuildFileTreeFactory interface {
	NewTree(cell domain.Cell) (BuildFileTree, error)
}
