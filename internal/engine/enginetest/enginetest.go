// Package enginetest provides in-memory collaborators for engine tests.
package enginetest

import (
	"context"
	"path"
	"slices"
	"sync"

	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
)

// Cell returns a cell rooted at /<name> with package files enabled.
func Cell(name domain.CellName, enforcement domain.BoundaryEnforcement) domain.Cell {
	return domain.Cell{
		Name:          name,
		Root:          "/" + string(name),
		BuildFileName: domain.DefaultBuildFileName,
		Enforcement:   enforcement,
		PackageFiles:  true,
	}
}

// Target builds a raw target with the given rule type and attributes.
func Target(name, rule string, attrs map[string]any) domain.RawTarget {
	if attrs == nil {
		attrs = map[string]any{}
	}
	attrs["name"] = name
	return domain.RawTarget{Name: name, RuleType: rule, Attrs: attrs}
}

type fileKey struct {
	cell domain.CellName
	path string
}

// Interpreter is an in-memory ports.Interpreter. Build files that were never
// added fail with domain.ErrBuildFileNotFound; missing PACKAGE files are empty.
type Interpreter struct {
	mu         sync.Mutex
	builds     map[fileKey]*domain.BuildFileManifest
	packages   map[fileKey]*domain.PackageManifest
	parseCount map[fileKey]int
	// Gate, when set, blocks every build file parse until it is closed.
	Gate chan struct{}
}

// NewInterpreter creates an empty interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{
		builds:     make(map[fileKey]*domain.BuildFileManifest),
		packages:   make(map[fileKey]*domain.PackageManifest),
		parseCount: make(map[fileKey]int),
	}
}

// AddBuildFile declares a build file with targets in declaration order.
func (i *Interpreter) AddBuildFile(cell domain.CellName, buildFile string, targets ...domain.RawTarget) {
	m := &domain.BuildFileManifest{Path: buildFile, Targets: make(map[string]domain.RawTarget, len(targets))}
	for _, t := range targets {
		m.Targets[t.Name] = t
		m.Order = append(m.Order, t.Name)
	}
	i.SetBuildFile(cell, m)
}

// SetBuildFile stores a manifest as-is.
func (i *Interpreter) SetBuildFile(cell domain.CellName, m *domain.BuildFileManifest) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.builds[fileKey{cell, m.Path}] = m
}

// RemoveBuildFile deletes a build file.
func (i *Interpreter) RemoveBuildFile(cell domain.CellName, buildFile string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.builds, fileKey{cell, buildFile})
}

// SetPackageFile stores a PACKAGE manifest.
func (i *Interpreter) SetPackageFile(cell domain.CellName, m *domain.PackageManifest) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.packages[fileKey{cell, m.Path}] = m
}

// ParseCount returns how many times a file was parsed.
func (i *Interpreter) ParseCount(cell domain.CellName, file string) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.parseCount[fileKey{cell, file}]
}

// BuildFiles lists the build files of a cell.
func (i *Interpreter) BuildFiles(cell domain.CellName) []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	var out []string
	for k := range i.builds {
		if k.cell == cell {
			out = append(out, k.path)
		}
	}
	slices.Sort(out)
	return out
}

// ParseBuildFile implements ports.Interpreter.
func (i *Interpreter) ParseBuildFile(ctx context.Context, cell domain.Cell, buildFile string) (*domain.BuildFileManifest, error) {
	if i.Gate != nil {
		select {
		case <-i.Gate:
		case <-ctx.Done():
			return nil, domain.Cancelled(ctx.Err())
		}
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	key := fileKey{cell.Name, buildFile}
	i.parseCount[key]++
	m, ok := i.builds[key]
	if !ok {
		return nil, domain.Tagged(domain.ErrBuildFileNotFound, "build_file", buildFile)
	}
	return m, nil
}

// ParsePackageFile implements ports.Interpreter.
func (i *Interpreter) ParsePackageFile(_ context.Context, cell domain.Cell, packageFile string) (*domain.PackageManifest, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	key := fileKey{cell.Name, packageFile}
	i.parseCount[key]++
	if m, ok := i.packages[key]; ok {
		return m, nil
	}
	return &domain.PackageManifest{Path: packageFile}, nil
}

// Cells is a fixed ports.CellResolver that records resolutions.
type Cells struct {
	mu       sync.Mutex
	cells    []domain.Cell
	resolved map[domain.CellName]int
}

// NewCells creates a resolver over cells.
func NewCells(cells ...domain.Cell) *Cells {
	return &Cells{cells: cells, resolved: make(map[domain.CellName]int)}
}

// Resolve implements ports.CellResolver.
func (c *Cells) Resolve(name domain.CellName) (domain.Cell, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cell := range c.cells {
		if cell.Name == name {
			c.resolved[name]++
			return cell, nil
		}
	}
	return domain.Cell{}, domain.Tagged(domain.ErrUnknownCell, "cell", name.String())
}

// All implements ports.CellResolver.
func (c *Cells) All() []domain.Cell {
	return slices.Clone(c.cells)
}

// TreeFactory builds build file trees from an Interpreter's current build files.
type TreeFactory struct {
	Interp *Interpreter
}

// NewTree implements ports.BuildFileTreeFactory.
func (f TreeFactory) NewTree(cell domain.Cell) (ports.BuildFileTree, error) {
	files := make(map[string]bool)
	for _, bf := range f.Interp.BuildFiles(cell.Name) {
		files[bf] = true
	}
	return &tree{buildFileName: cell.BuildFileName, files: files}, nil
}

type tree struct {
	buildFileName string
	files         map[string]bool
}

func (t *tree) OwningBuildFile(p string) (string, bool) {
	files := t.AncestorBuildFiles(p)
	if len(files) == 0 {
		return "", false
	}
	return files[0], true
}

func (t *tree) AncestorBuildFiles(p string) []string {
	var out []string
	dir := domain.DirOf(p)
	for {
		if candidate := path.Join(dir, t.buildFileName); t.files[candidate] {
			out = append(out, candidate)
		}
		if dir == "" {
			return out
		}
		dir = domain.DirOf(dir)
	}
}

func (t *tree) BuildFilesUnder(dir string) []string {
	var out []string
	for bf := range t.files {
		if domain.IsWithin(dir, domain.DirOf(bf)) {
			out = append(out, bf)
		}
	}
	slices.Sort(out)
	return out
}

// Platforms resolves every node to one fixed platform, or to a named one.
type Platforms struct {
	Default *domain.Platform
	Named   map[string]*domain.Platform
}

// TargetPlatform implements ports.PlatformResolver.
func (p Platforms) TargetPlatform(_ context.Context, _ *domain.UnconfiguredNode, requested string) (*domain.Platform, error) {
	if requested == "" {
		if p.Default == nil {
			return &domain.Platform{Name: "default"}, nil
		}
		return p.Default, nil
	}
	if pl, ok := p.Named[requested]; ok {
		return pl, nil
	}
	return nil, domain.Tagged(domain.ErrPlatformResolution, "platform", requested)
}

// Listener records created nodes.
type Listener struct {
	mu      sync.Mutex
	Created []domain.TargetID
}

// OnCreate implements ports.NodeListener.
func (l *Listener) OnCreate(_ string, node *domain.TargetNode) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Created = append(l.Created, node.ID)
	return nil
}

// Logger records messages.
type Logger struct {
	mu    sync.Mutex
	Warns []string
}

// Info implements ports.Logger.
func (l *Logger) Info(string) {}

// Warn implements ports.Logger.
func (l *Logger) Warn(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

// Error implements ports.Logger.
func (l *Logger) Error(error) {}

// Tracer is a ports.Tracer that records nothing.
type Tracer struct{}

// Start implements ports.Tracer.
func (Tracer) Start(ctx context.Context, _ string) (context.Context, ports.Span) {
	return ctx, span{}
}

type span struct{}

func (span) End()                     {}
func (span) RecordError(error)        {}
func (span) SetAttribute(string, any) {}
