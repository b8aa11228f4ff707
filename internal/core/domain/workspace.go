package domain

import (
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultBuildFileName is the build file name used when a cell does not configure one.
	DefaultBuildFileName = "BUCK"
	// DefaultIdleTimeout is how long the daemon stays up without activity.
	DefaultIdleTimeout = 3 * time.Hour
	// WorkspaceFileName is the name of the workspace configuration file.
	WorkspaceFileName = "tgraph.yaml"
	// DirPerm is the permission used for directories the tool creates.
	DirPerm = 0o750
	// PrivateFilePerm is the permission used for private files such as the PID file.
	PrivateFilePerm = 0o600
	// SocketPerm is the permission applied to the daemon socket.
	SocketPerm = 0o600
)

// IgnoredDirs are directory names that never hold build files and whose
// changes never invalidate parse results.
var IgnoredDirs = []string{".git", ".jj", ".tgraph", "buck-out"}

// Workspace is the loaded workspace configuration.
type Workspace struct {
	// Root is the directory containing the workspace file.
	Root            string
	RootCell        CellName
	Cells           []Cell
	Platforms       []Platform
	DefaultPlatform string
	Parallelism     int
	IdleTimeout     time.Duration
}

// Cell looks up a configured cell by name.
func (w *Workspace) Cell(name CellName) (Cell, bool) {
	for _, c := range w.Cells {
		if c.Name == name {
			return c, true
		}
	}
	return Cell{}, false
}

// CellFor returns the innermost cell whose root contains the absolute path.
func (w *Workspace) CellFor(abs string) (Cell, string, bool) {
	var (
		best    Cell
		bestRel string
		found   bool
	)
	for _, c := range w.Cells {
		rel, ok := c.RelPath(abs)
		if !ok {
			continue
		}
		if !found || len(c.Root) > len(best.Root) {
			best, bestRel, found = c, rel, true
		}
	}
	return best, bestRel, found
}

// Platform looks up a configured platform by name.
func (w *Workspace) Platform(name string) (*Platform, bool) {
	for i := range w.Platforms {
		if w.Platforms[i].Name == name {
			return &w.Platforms[i], true
		}
	}
	return nil, false
}

// DaemonDir returns the directory holding the daemon socket and PID file.
func (w *Workspace) DaemonDir() string {
	return filepath.Join(w.Root, ".tgraph")
}

// DaemonSocketPath returns the Unix socket the daemon listens on.
func (w *Workspace) DaemonSocketPath() string {
	return filepath.Join(w.DaemonDir(), "daemon.sock")
}

// DaemonPIDPath returns the path of the daemon PID file.
func (w *Workspace) DaemonPIDPath() string {
	return filepath.Join(w.DaemonDir(), "daemon.pid")
}

// DaemonLogPath returns the path the spawned daemon writes its logs to.
func (w *Workspace) DaemonLogPath() string {
	return filepath.Join(w.DaemonDir(), "daemon.log")
}

// EnsureDaemonDir creates the daemon directory.
func (w *Workspace) EnsureDaemonDir() error {
	return os.MkdirAll(w.DaemonDir(), DirPerm)
}
