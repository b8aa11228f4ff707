// Package starlark evaluates build files, PACKAGE files and the extension files
// they load, producing unconfigured manifests.
package starlark

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Interpreter = (*Interpreter)(nil)

// Globber expands glob patterns inside a package directory.
type Globber interface {
	Glob(cell domain.Cell, pkgDir string, include, exclude []string) ([]string, error)
}

// Interpreter evaluates files with a fresh Starlark thread per file. Extension
// files are not shared between parses, so each manifest records exactly the
// files it was computed from.
type Interpreter struct {
	globber Globber
	rules   map[string]domain.RuleDescriptor
	opts    *syntax.FileOptions
	predecl starlark.StringDict
}

// New creates an interpreter exposing the given rules as global functions.
func New(globber Globber, rules map[string]domain.RuleDescriptor) *Interpreter {
	i := &Interpreter{
		globber: globber,
		rules:   rules,
		opts: &syntax.FileOptions{
			TopLevelControl: true,
			GlobalReassign:  true,
			While:           true,
			Set:             true,
		},
	}
	i.predecl = builtins(rules)
	return i
}

// fileKind distinguishes what a file may call.
type fileKind uint8

const (
	kindBuild fileKind = iota
	kindPackage
	kindExtension
)

// evaluation is the per-parse state attached to the Starlark thread.
type evaluation struct {
	cell      domain.Cell
	pkgDir    string
	kind      fileKind
	targets   map[string]domain.RawTarget
	order     []string
	includes  []string
	pkg       *domain.PackageManifest
	modules   map[string]*loadEntry
	predecl   starlark.StringDict
	globber   Globber
	extOption *syntax.FileOptions
}

type loadEntry struct {
	globals starlark.StringDict
	err     error
}

const evaluationKey = "tgraph.evaluation"

func evaluationOf(thread *starlark.Thread) *evaluation {
	ev, _ := thread.Local(evaluationKey).(*evaluation)
	return ev
}

// ParseBuildFile evaluates a cell-relative build file.
func (i *Interpreter) ParseBuildFile(ctx context.Context, cell domain.Cell, buildFile string) (*domain.BuildFileManifest, error) {
	src, err := os.ReadFile(cell.AbsPath(buildFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.Tagged(domain.ErrBuildFileNotFound,
				"cell", cell.Name.String(), "build_file", buildFile)
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read build file"), "build_file", buildFile)
	}

	ev := i.newEvaluation(cell, domain.DirOf(buildFile), kindBuild)
	if err := i.exec(ctx, ev, buildFile, src); err != nil {
		return nil, err
	}
	return &domain.BuildFileManifest{
		Path:     buildFile,
		Targets:  ev.targets,
		Order:    ev.order,
		Includes: ev.sortedIncludes(),
	}, nil
}

// ParsePackageFile evaluates a cell-relative PACKAGE file. A missing file
// yields an empty manifest.
func (i *Interpreter) ParsePackageFile(ctx context.Context, cell domain.Cell, packageFile string) (*domain.PackageManifest, error) {
	src, err := os.ReadFile(cell.AbsPath(packageFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &domain.PackageManifest{Path: packageFile}, nil
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read package file"), "package_file", packageFile)
	}

	ev := i.newEvaluation(cell, domain.DirOf(packageFile), kindPackage)
	ev.pkg = &domain.PackageManifest{Path: packageFile}
	if err := i.exec(ctx, ev, packageFile, src); err != nil {
		return nil, err
	}
	ev.pkg.Includes = ev.sortedIncludes()
	return ev.pkg, nil
}

func (i *Interpreter) newEvaluation(cell domain.Cell, pkgDir string, kind fileKind) *evaluation {
	return &evaluation{
		cell:      cell,
		pkgDir:    pkgDir,
		kind:      kind,
		targets:   make(map[string]domain.RawTarget),
		modules:   make(map[string]*loadEntry),
		predecl:   i.predecl,
		globber:   i.globber,
		extOption: i.opts,
	}
}

// exec runs one top-level file. Default includes are evaluated first and
// their exported symbols become globals of build files.
func (i *Interpreter) exec(ctx context.Context, ev *evaluation, file string, src []byte) error {
	thread := &starlark.Thread{
		Name: file,
		Load: ev.load,
		Print: func(_ *starlark.Thread, _ string) {
		},
	}
	thread.SetLocal(evaluationKey, ev)

	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})
	defer stop()

	predeclared := ev.predecl
	if ev.kind == kindBuild && len(ev.cell.DefaultIncludes) > 0 {
		predeclared = cloneDict(ev.predecl)
		for _, inc := range ev.cell.DefaultIncludes {
			globals, err := ev.load(thread, inc)
			if err != nil {
				return i.parseError(ctx, file, err)
			}
			for name, v := range globals {
				if !strings.HasPrefix(name, "_") {
					predeclared[name] = v
				}
			}
		}
	}

	if _, err := starlark.ExecFileOptions(i.opts, thread, file, src, predeclared); err != nil {
		return i.parseError(ctx, file, err)
	}
	return nil
}

func (i *Interpreter) parseError(ctx context.Context, file string, err error) error {
	if ctx.Err() != nil {
		return domain.Cancelled(ctx.Err())
	}
	// Errors raised by nested files are already attributed.
	if errors.Is(err, domain.ErrParse) || errors.Is(err, domain.ErrBuildFileNotFound) {
		return err
	}

	msg := err.Error()
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		msg = evalErr.Msg
		wrapped := zerr.Wrap(domain.ErrParse, fmt.Sprintf("%s: %s", file, msg))
		wrapped = zerr.With(wrapped, "backtrace", evalErr.Backtrace())
		return zerr.With(wrapped, "file", file)
	}
	return zerr.With(zerr.Wrap(domain.ErrParse, msg), "file", file)
}

// load evaluates an extension file once per parse and records it as an include.
func (ev *evaluation) load(thread *starlark.Thread, module string) (starlark.StringDict, error) {
	rel, err := ev.resolveLoad(domain.DirOf(thread.Name), module)
	if err != nil {
		return nil, err
	}

	if entry, ok := ev.modules[rel]; ok {
		if entry == nil {
			return nil, fmt.Errorf("cycle in load graph involving %s", rel)
		}
		return entry.globals, entry.err
	}
	ev.modules[rel] = nil
	ev.includes = append(ev.includes, rel)

	src, err := os.ReadFile(ev.cell.AbsPath(rel))
	if err != nil {
		entry := &loadEntry{err: zerr.With(zerr.Wrap(err, "cannot load extension"), "file", rel)}
		ev.modules[rel] = entry
		return nil, entry.err
	}

	// Extension files see the same builtins but run on their own thread so the
	// call stack in error backtraces stays per file.
	child := &starlark.Thread{Name: rel, Load: ev.load, Print: thread.Print}
	child.SetLocal(evaluationKey, ev)
	globals, err := starlark.ExecFileOptions(ev.extOption, child, rel, src, ev.predecl)
	entry := &loadEntry{globals: globals, err: err}
	ev.modules[rel] = entry
	return globals, err
}

// resolveLoad turns a load label into a cell-relative path. Labels are either
// "//pkg:file.bzl", "cell//pkg:file.bzl" for the current cell, ":file.bzl"
// relative to the loading file, or a plain cell-relative path.
func (ev *evaluation) resolveLoad(fromDir, module string) (string, error) {
	label := module
	switch {
	case strings.HasPrefix(label, ":"):
		return path.Join(fromDir, label[1:]), nil
	case strings.Contains(label, "//"):
		cellName, rest, _ := strings.Cut(label, "//")
		if cellName != "" && domain.CellName(cellName) != ev.cell.Name {
			return "", fmt.Errorf("cannot load %s: extensions must live in cell %s", module, ev.cell.Name)
		}
		pkg, file, ok := strings.Cut(rest, ":")
		if !ok {
			return "", fmt.Errorf("invalid load label %q: missing ':'", module)
		}
		label = path.Join(pkg, file)
	}
	clean := path.Clean(label)
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("invalid load path %q", module)
	}
	return clean, nil
}

func (ev *evaluation) sortedIncludes() []string {
	out := slices.Clone(ev.includes)
	slices.Sort(out)
	return out
}

func cloneDict(d starlark.StringDict) starlark.StringDict {
	out := make(starlark.StringDict, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
