package fs

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/zerr"
)

// Globber expands glob() calls of build files.
type Globber struct {
	walker *Walker
}

// NewGlobber creates a Globber.
func NewGlobber(walker *Walker) *Globber {
	return &Globber{walker: walker}
}

// Glob returns the files under the package directory matching any include
// pattern and no exclude pattern, relative to the package and sorted.
// "**" matches any number of directories. Subpackages are not entered.
func (g *Globber) Glob(cell domain.Cell, pkgDir string, include, exclude []string) ([]string, error) {
	for _, p := range slices.Concat(include, exclude) {
		if err := validPattern(p); err != nil {
			return nil, err
		}
	}

	root := cell.AbsPath(pkgDir)
	var out []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root && os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			if p == root {
				return nil
			}
			if g.walker.ShouldSkipDir(d.Name()) || isPackage(p, cell.BuildFileName) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if matchAny(include, rel) && !matchAny(exclude, rel) {
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "glob failed"), "package", pkgDir)
	}
	slices.Sort(out)
	return out, nil
}

func isPackage(dir, buildFileName string) bool {
	info, err := os.Stat(filepath.Join(dir, buildFileName))
	return err == nil && !info.IsDir()
}

func validPattern(p string) error {
	if p == "" || strings.HasPrefix(p, "/") || slices.Contains(strings.Split(p, "/"), "..") {
		return zerr.With(zerr.New("invalid glob pattern"), "pattern", p)
	}
	for _, seg := range strings.Split(p, "/") {
		if _, err := path.Match(seg, ""); err != nil {
			return zerr.With(zerr.Wrap(err, "invalid glob pattern"), "pattern", p)
		}
	}
	return nil
}

func matchAny(patterns []string, name string) bool {
	parts := strings.Split(name, "/")
	for _, p := range patterns {
		if matchSegments(strings.Split(p, "/"), parts) {
			return true
		}
	}
	return false
}

func matchSegments(pat, name []string) bool {
	for len(pat) > 0 {
		if pat[0] == "**" {
			for i := 0; i <= len(name); i++ {
				if matchSegments(pat[1:], name[i:]) {
					return true
				}
			}
			return false
		}
		if len(name) == 0 {
			return false
		}
		if ok, _ := path.Match(pat[0], name[0]); !ok {
			return false
		}
		pat, name = pat[1:], name[1:]
	}
	return len(name) == 0
}
