// Package config provides the workspace configuration loader.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load finds tgraph.yaml at or above cwd and converts it to a workspace.
func (l *Loader) Load(cwd string) (*domain.Workspace, error) {
	configPath, err := findWorkfile(cwd)
	if err != nil {
		return nil, err
	}

	var wf Workfile
	if err := readAndUnmarshalYAML(configPath, &wf); err != nil {
		return nil, err
	}
	return l.build(filepath.Dir(configPath), &wf)
}

func findWorkfile(cwd string) (string, error) {
	dir := cwd
	for {
		candidate := filepath.Join(dir, domain.WorkspaceFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", domain.Tagged(domain.ErrConfigNotFound, "cwd", cwd)
		}
		dir = parent
	}
}

func readAndUnmarshalYAML(path string, out any) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is discovered from the working directory
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", path)
	}
	return nil
}

func (l *Loader) build(root string, wf *Workfile) (*domain.Workspace, error) {
	enforcement, err := domain.ParseBoundaryEnforcement(wf.Parser.Enforcement)
	if err != nil {
		return nil, err
	}

	ws := &domain.Workspace{
		Root:            root,
		RootCell:        domain.CellName(wf.RootCell),
		DefaultPlatform: wf.DefaultPlatform,
		Parallelism:     wf.Parser.Parallelism,
		IdleTimeout:     domain.DefaultIdleTimeout,
	}
	if ws.RootCell == "" {
		ws.RootCell = "root"
	}
	if ws.Parallelism <= 0 {
		ws.Parallelism = runtime.NumCPU()
	}
	if wf.Daemon.IdleTimeout != "" {
		d, err := time.ParseDuration(wf.Daemon.IdleTimeout)
		if err != nil || d <= 0 {
			return nil, domain.Tagged(domain.ErrInvalidConfig, "daemon.idle_timeout", wf.Daemon.IdleTimeout)
		}
		ws.IdleTimeout = d
	}

	ws.Cells, err = buildCells(root, ws.RootCell, wf, enforcement)
	if err != nil {
		return nil, err
	}

	for _, p := range wf.Platforms {
		platform, err := buildPlatform(ws.RootCell, p)
		if err != nil {
			return nil, err
		}
		if _, dup := ws.Platform(platform.Name); dup {
			return nil, domain.Tagged(domain.ErrInvalidConfig, "duplicate_platform", platform.Name)
		}
		ws.Platforms = append(ws.Platforms, *platform)
	}
	if ws.DefaultPlatform != "" {
		if _, ok := ws.Platform(ws.DefaultPlatform); !ok {
			return nil, domain.Tagged(domain.ErrInvalidConfig, "default_platform", ws.DefaultPlatform)
		}
	} else if len(ws.Platforms) > 0 {
		l.Logger.Warn("no default_platform configured, targets without default_target_platform use an empty platform")
	}
	return ws, nil
}

func buildCells(root string, rootCell domain.CellName, wf *Workfile, enforcement domain.BoundaryEnforcement) ([]domain.Cell, error) {
	paths := map[string]string{string(rootCell): "."}
	for name, p := range wf.Cells {
		paths[name] = p
	}

	buildFileName := wf.Parser.BuildFileName
	if buildFileName == "" {
		buildFileName = domain.DefaultBuildFileName
	}
	if strings.ContainsRune(buildFileName, '/') {
		return nil, domain.Tagged(domain.ErrInvalidConfig, "parser.build_file_name", buildFileName)
	}
	packageFiles := wf.Parser.PackageFiles == nil || *wf.Parser.PackageFiles

	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	slices.Sort(names)

	cells := make([]domain.Cell, 0, len(names))
	for _, name := range names {
		if name == "" || strings.ContainsAny(name, "/:#") {
			return nil, domain.Tagged(domain.ErrInvalidConfig, "cell", name)
		}
		cellRoot := paths[name]
		if !filepath.IsAbs(cellRoot) {
			cellRoot = filepath.Join(root, cellRoot)
		}
		cells = append(cells, domain.Cell{
			Name:            domain.CellName(name),
			Root:            filepath.Clean(cellRoot),
			BuildFileName:   buildFileName,
			Enforcement:     enforcement,
			DefaultIncludes: slices.Clone(wf.Parser.DefaultIncludes),
			PackageFiles:    packageFiles,
		})
	}
	return cells, nil
}

func buildPlatform(rootCell domain.CellName, dto PlatformDTO) (*domain.Platform, error) {
	if dto.Name == "" {
		return nil, domain.Tagged(domain.ErrInvalidConfig, "platform", "missing name")
	}
	platform := &domain.Platform{Name: dto.Name}
	for _, raw := range dto.Constraints {
		id, err := domain.ParseTarget(raw, rootCell)
		if err != nil {
			return nil, zerr.With(err, "platform", dto.Name)
		}
		platform.Constraints = append(platform.Constraints, id)
	}
	slices.SortFunc(platform.Constraints, domain.TargetID.Compare)
	platform.Constraints = slices.Compact(platform.Constraints)
	return platform, nil
}
