package domain

import (
	"path"
	"slices"
	"strings"
)

// PackageFileName is the name of the per-directory settings file.
const PackageFileName = "PACKAGE"

// Package is the resolved, inherited set of package-scoped defaults for one directory.
type Package struct {
	// File is the cell-relative path of the PACKAGE file this package was resolved for.
	File string
	// Parent is the cell-relative path of the parent PACKAGE file, empty at the cell root.
	Parent     string
	Visibility []string
	WithinView []string
}

// EmptyPackage returns a package with no settings and no parent.
func EmptyPackage(file string) *Package {
	return &Package{File: file}
}

// MergePackage combines a parent package with a directory's own manifest.
// Fields the manifest sets explicitly override the parent; the rest are inherited.
func MergePackage(file, parentFile string, parent *Package, own *PackageManifest) *Package {
	pkg := &Package{File: file, Parent: parentFile}
	if parent != nil {
		pkg.Visibility = slices.Clone(parent.Visibility)
		pkg.WithinView = slices.Clone(parent.WithinView)
	}
	if own == nil {
		return pkg
	}
	if own.HasVisibility {
		pkg.Visibility = slices.Clone(own.Visibility)
	}
	if own.HasWithinView {
		pkg.WithinView = slices.Clone(own.WithinView)
	}
	return pkg
}

// PackageFileFor returns the PACKAGE file sitting next to a build file.
func PackageFileFor(buildFile string) string {
	return path.Join(DirOf(buildFile), PackageFileName)
}

// ParentPackageFile returns the PACKAGE file one directory up, or "" at the cell root.
func ParentPackageFile(packageFile string) string {
	dir := DirOf(packageFile)
	if dir == "" {
		return ""
	}
	return path.Join(DirOf(dir), PackageFileName)
}

// DirOf returns the cell-relative directory containing p, "" for the cell root.
func DirOf(p string) string {
	d := path.Dir(p)
	if d == "." || d == "/" {
		return ""
	}
	return d
}

// IsWithin reports whether the cell-relative path p is dir or lies below it.
func IsWithin(dir, p string) bool {
	return dir == "" || p == dir || strings.HasPrefix(p, dir+"/")
}
