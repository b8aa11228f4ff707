package ports

import (
	"context"

	"go.trai.ch/tgraph/internal/core/domain"
)

//go:generate mockgen -source=interpreter.go -destination=mocks/mock_interpreter.go -package=mocks

// Interpreter turns build and package files into manifests.
// It is the only component that reads and evaluates file contents.
type Interpreter interface {
	// ParseBuildFile evaluates a cell-relative build file.
	// Failures wrap domain.ErrParse or domain.ErrBuildFileNotFound.
	ParseBuildFile(ctx context.Context, cell domain.Cell, buildFile string) (*domain.BuildFileManifest, error)
	// ParsePackageFile evaluates a cell-relative PACKAGE file.
	// A missing file yields an empty manifest.
	ParsePackageFile(ctx context.Context, cell domain.Cell, packageFile string) (*domain.PackageManifest, error)
}
